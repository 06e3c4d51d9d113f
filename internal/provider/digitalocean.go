package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/digitalocean/godo"
	"github.com/digitalocean/godo/metrics"

	"github.com/edvin/containerstacks/internal/model"
)

const (
	doPageSize      = 200
	doMetricsWindow = 24 * time.Hour
)

// DigitalOcean implements Service on top of godo.
type DigitalOcean struct {
	client *godo.Client
	now    func() time.Time
}

// NewDigitalOcean creates an adapter authenticated with token. An empty
// baseURL keeps godo's default endpoint.
func NewDigitalOcean(token, baseURL string) (*DigitalOcean, error) {
	client := godo.NewFromToken(token)
	if baseURL != "" {
		u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse digitalocean base url: %w", err)
		}
		client.BaseURL = u
	}
	return &DigitalOcean{client: client, now: time.Now}, nil
}

func (d *DigitalOcean) Type() string { return model.ProviderDigitalOcean }

// doStatus translates droplet statuses into the shared provider vocabulary.
func doStatus(s string) string {
	switch s {
	case "active":
		return "running"
	case "off", "archive":
		return "offline"
	case "new":
		return "provisioning"
	default:
		return s
	}
}

func doError(op string, err error) error {
	var errResp *godo.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return &APIError{
			Provider:   model.ProviderDigitalOcean,
			Operation:  op,
			StatusCode: errResp.Response.StatusCode,
			Reason:     errResp.Message,
		}
	}
	return fmt.Errorf("digitalocean %s: %w", op, err)
}

func dropletID(id string) (int, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0, fmt.Errorf("invalid droplet id %q: %w", id, err)
	}
	return n, nil
}

// nextPage advances opt and reports whether another page exists.
func nextPage(resp *godo.Response, opt *godo.ListOptions) bool {
	if resp == nil || resp.Links == nil || resp.Links.IsLastPage() {
		return false
	}
	page, err := resp.Links.CurrentPage()
	if err != nil {
		return false
	}
	opt.Page = page + 1
	return true
}

func (d *DigitalOcean) CreateInstance(ctx context.Context, spec CreateSpec) (*Instance, error) {
	req := &godo.DropletCreateRequest{
		Name:    spec.Label,
		Region:  spec.Region,
		Size:    spec.Type,
		Image:   godo.DropletCreateImage{Slug: spec.Image},
		Backups: spec.Backups,
		Tags:    spec.Tags,
	}
	if spec.AppSlug != "" {
		req.Image = godo.DropletCreateImage{Slug: spec.AppSlug}
	}

	var inlineKeys []string
	for _, k := range spec.SSHKeys {
		switch {
		case strings.HasPrefix(k, "ssh-"), strings.HasPrefix(k, "ecdsa-"):
			inlineKeys = append(inlineKeys, k)
		default:
			if id, err := strconv.Atoi(k); err == nil {
				req.SSHKeys = append(req.SSHKeys, godo.DropletCreateSSHKey{ID: id})
			} else {
				req.SSHKeys = append(req.SSHKeys, godo.DropletCreateSSHKey{Fingerprint: k})
			}
		}
	}

	if spec.RootPassword != "" || len(inlineKeys) > 0 {
		userData, err := rootPasswordUserData(spec.RootPassword, inlineKeys)
		if err != nil {
			return nil, err
		}
		req.UserData = userData
	}

	droplet, _, err := d.client.Droplets.Create(ctx, req)
	if err != nil {
		return nil, doError("create droplet", err)
	}
	return normalizeDroplet(droplet), nil
}

func (d *DigitalOcean) GetInstance(ctx context.Context, id string) (*Instance, error) {
	n, err := dropletID(id)
	if err != nil {
		return nil, err
	}
	droplet, _, err := d.client.Droplets.Get(ctx, n)
	if err != nil {
		return nil, doError("get droplet", err)
	}
	return normalizeDroplet(droplet), nil
}

func (d *DigitalOcean) PerformAction(ctx context.Context, id string, action Action) error {
	n, err := dropletID(id)
	if err != nil {
		return err
	}

	switch action {
	case ActionBoot:
		_, _, err = d.client.DropletActions.PowerOn(ctx, n)
	case ActionShutdown:
		_, _, err = d.client.DropletActions.Shutdown(ctx, n)
	case ActionReboot:
		_, _, err = d.client.DropletActions.Reboot(ctx, n)
	case ActionPowerCycle:
		_, _, err = d.client.DropletActions.PowerCycle(ctx, n)
	case ActionDelete:
		_, err = d.client.Droplets.Delete(ctx, n)
	default:
		return &UnknownActionError{Action: string(action)}
	}
	if err != nil {
		return doError(string(action)+" droplet", err)
	}
	return nil
}

func (d *DigitalOcean) ListPlans(ctx context.Context) ([]Plan, error) {
	var plans []Plan
	opt := &godo.ListOptions{PerPage: doPageSize}
	for {
		sizes, resp, err := d.client.Sizes.List(ctx, opt)
		if err != nil {
			return nil, doError("list sizes", err)
		}
		for _, s := range sizes {
			if !s.Available {
				continue
			}
			plans = append(plans, Plan{
				ID:           s.Slug,
				Label:        s.Description,
				VCPUs:        s.Vcpus,
				MemoryMB:     s.Memory,
				DiskMB:       s.Disk * 1024,
				TransferGB:   int(s.Transfer * 1024),
				PriceHourly:  s.PriceHourly,
				PriceMonthly: s.PriceMonthly,
				Regions:      s.Regions,
			})
		}
		if !nextPage(resp, opt) {
			return plans, nil
		}
	}
}

func (d *DigitalOcean) ListRegions(ctx context.Context) ([]Region, error) {
	var regions []Region
	opt := &godo.ListOptions{PerPage: doPageSize}
	for {
		raw, resp, err := d.client.Regions.List(ctx, opt)
		if err != nil {
			return nil, doError("list regions", err)
		}
		for _, r := range raw {
			status := "ok"
			if !r.Available {
				status = "unavailable"
			}
			regions = append(regions, Region{
				ID:           r.Slug,
				Label:        r.Name,
				Status:       status,
				Capabilities: r.Features,
			})
		}
		if !nextPage(resp, opt) {
			return regions, nil
		}
	}
}

func (d *DigitalOcean) ListImages(ctx context.Context) ([]Image, error) {
	var images []Image
	opt := &godo.ListOptions{PerPage: doPageSize}
	for {
		raw, resp, err := d.client.Images.ListDistribution(ctx, opt)
		if err != nil {
			return nil, doError("list images", err)
		}
		for _, i := range raw {
			id := i.Slug
			if id == "" {
				id = strconv.Itoa(i.ID)
			}
			images = append(images, Image{
				ID:     id,
				Label:  strings.TrimSpace(i.Distribution + " " + i.Name),
				Vendor: i.Distribution,
				Type:   i.Type,
			})
		}
		if !nextPage(resp, opt) {
			return images, nil
		}
	}
}

func (d *DigitalOcean) ListMarketplaceApps(ctx context.Context) ([]App, error) {
	raw, _, err := d.client.OneClick.List(ctx, "droplet")
	if err != nil {
		return nil, doError("list 1-click apps", err)
	}
	apps := make([]App, 0, len(raw))
	for _, a := range raw {
		apps = append(apps, App{ID: a.Slug, Slug: a.Slug, Label: a.Slug})
	}
	return apps, nil
}

// GetInstanceMetrics returns load and public bandwidth over the last day.
// Droplet CPU is reported per mode upstream and is not summarized here.
func (d *DigitalOcean) GetInstanceMetrics(ctx context.Context, id string) (*Metrics, error) {
	end := d.now()
	base := godo.DropletMetricsRequest{HostID: id, Start: end.Add(-doMetricsWindow), End: end}

	load, _, err := d.client.Monitoring.GetDropletLoad1(ctx, &base)
	if err != nil {
		return nil, doError("get load metrics", err)
	}
	in, _, err := d.client.Monitoring.GetDropletBandwidth(ctx, &godo.DropletBandwidthMetricsRequest{
		DropletMetricsRequest: base, Interface: "public", Direction: "inbound",
	})
	if err != nil {
		return nil, doError("get inbound bandwidth", err)
	}
	out, _, err := d.client.Monitoring.GetDropletBandwidth(ctx, &godo.DropletBandwidthMetricsRequest{
		DropletMetricsRequest: base, Interface: "public", Direction: "outbound",
	})
	if err != nil {
		return nil, doError("get outbound bandwidth", err)
	}

	return &Metrics{Series: map[string]Series{
		SeriesLoad:       NewSeries(samplePoints(load)),
		SeriesNetworkIn:  NewSeries(samplePoints(in)),
		SeriesNetworkOut: NewSeries(samplePoints(out)),
	}}, nil
}

func samplePoints(resp *godo.MetricsResponse) []Point {
	if resp == nil || len(resp.Data.Result) == 0 {
		return nil
	}
	return samplePairPoints(resp.Data.Result[0].Values)
}

func samplePairPoints(values []metrics.SamplePair) []Point {
	points := make([]Point, 0, len(values))
	for _, v := range values {
		points = append(points, Point{Timestamp: int64(v.Timestamp) / 1000, Value: float64(v.Value)})
	}
	return points
}

// GetInstanceTransfer is not offered by the droplet API.
func (d *DigitalOcean) GetInstanceTransfer(ctx context.Context, id string) (*Transfer, error) {
	return nil, ErrNotSupported
}

func (d *DigitalOcean) GetInstanceBackups(ctx context.Context, id string) (*Backups, error) {
	n, err := dropletID(id)
	if err != nil {
		return nil, err
	}

	droplet, _, err := d.client.Droplets.Get(ctx, n)
	if err != nil {
		return nil, doError("get droplet", err)
	}
	backups, _, err := d.client.Droplets.Backups(ctx, n, &godo.ListOptions{PerPage: doPageSize})
	if err != nil {
		return nil, doError("list backups", err)
	}
	snapshots, _, err := d.client.Droplets.Snapshots(ctx, n, &godo.ListOptions{PerPage: doPageSize})
	if err != nil {
		return nil, doError("list snapshots", err)
	}

	b := &Backups{
		Enabled:   len(droplet.BackupIDs) > 0 || slices.Contains(droplet.Features, "backups"),
		Automatic: make([]BackupSummary, 0, len(backups)),
	}
	b.Available = len(backups) > 0
	if w := droplet.NextBackupWindow; w != nil && w.Start != nil {
		b.Schedule = BackupSchedule{
			Day:    strings.ToLower(w.Start.Time.Weekday().String()),
			Window: w.Start.Time.UTC().Format("15:04"),
		}
	}
	for _, img := range backups {
		s := imageSummary(img, "auto")
		b.Automatic = append(b.Automatic, s)
		if b.LastSuccessful == nil || s.Created.After(*b.LastSuccessful) {
			created := s.Created
			b.LastSuccessful = &created
		}
	}
	if len(snapshots) > 0 {
		latest := imageSummary(snapshots[len(snapshots)-1], "snapshot")
		b.Snapshot.Current = &latest
	}
	return b, nil
}

func imageSummary(img godo.Image, kind string) BackupSummary {
	created, _ := time.Parse(time.RFC3339, img.Created)
	return BackupSummary{
		ID:      strconv.Itoa(img.ID),
		Label:   img.Name,
		Status:  img.Status,
		Type:    kind,
		Created: created,
	}
}

func (d *DigitalOcean) ListSSHKeys(ctx context.Context) ([]SSHKey, error) {
	var keys []SSHKey
	opt := &godo.ListOptions{PerPage: doPageSize}
	for {
		raw, resp, err := d.client.Keys.List(ctx, opt)
		if err != nil {
			return nil, doError("list ssh keys", err)
		}
		for _, k := range raw {
			keys = append(keys, SSHKey{
				ID:          strconv.Itoa(k.ID),
				Label:       k.Name,
				PublicKey:   k.PublicKey,
				Fingerprint: k.Fingerprint,
			})
		}
		if !nextPage(resp, opt) {
			return keys, nil
		}
	}
}

func (d *DigitalOcean) CreateSSHKey(ctx context.Context, label, publicKey string) (*SSHKey, error) {
	k, _, err := d.client.Keys.Create(ctx, &godo.KeyCreateRequest{Name: label, PublicKey: publicKey})
	if err != nil {
		return nil, doError("create ssh key", err)
	}
	return &SSHKey{
		ID:          strconv.Itoa(k.ID),
		Label:       k.Name,
		PublicKey:   k.PublicKey,
		Fingerprint: k.Fingerprint,
	}, nil
}

func (d *DigitalOcean) DeleteSSHKey(ctx context.Context, id string) error {
	n, err := strconv.Atoi(id)
	if err != nil {
		return fmt.Errorf("invalid ssh key id %q: %w", id, err)
	}
	if _, err := d.client.Keys.DeleteByID(ctx, n); err != nil {
		return doError("delete ssh key", err)
	}
	return nil
}

func (d *DigitalOcean) ValidateCredentials(ctx context.Context) bool {
	_, _, err := d.client.Account.Get(ctx)
	return err == nil
}

func normalizeDroplet(d *godo.Droplet) *Instance {
	inst := &Instance{
		ID:     strconv.Itoa(d.ID),
		Label:  d.Name,
		Status: doStatus(d.Status),
		Type:   d.SizeSlug,
		IPv4:   []string{},
		Specs: Specs{
			VCPUs:    d.Vcpus,
			MemoryMB: d.Memory,
			DiskMB:   d.Disk * 1024,
		},
	}
	if d.Region != nil {
		inst.Region = d.Region.Slug
	}
	if d.Image != nil {
		inst.Image = d.Image.Slug
		if inst.Image == "" {
			inst.Image = strconv.Itoa(d.Image.ID)
		}
	}
	if d.Size != nil {
		inst.Specs.TransferGB = int(d.Size.Transfer * 1024)
	}
	if d.Networks != nil {
		for _, n := range d.Networks.V4 {
			if n.Type == "public" {
				inst.IPv4 = append(inst.IPv4, n.IPAddress)
			}
		}
	}
	if ip, err := d.PublicIPv6(); err == nil {
		inst.IPv6 = ip
	}
	if t, err := time.Parse(time.RFC3339, d.Created); err == nil {
		inst.Created = t
		inst.Updated = t
	}
	return inst
}
