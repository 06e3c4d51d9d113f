package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/edvin/containerstacks/internal/model"
)

const (
	defaultLinodeURL = "https://api.linode.com/v4"
	linodePageSize   = 500
	bytesPerGB       = 1024 * 1024 * 1024
)

// LinodeOptions tunes the Linode adapter.
type LinodeOptions struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Linode implements Service against the Linode v4 REST API.
type Linode struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewLinode(token string, opts LinodeOptions) *Linode {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultLinodeURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &Linode{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (l *Linode) Type() string { return model.ProviderLinode }

func (l *Linode) do(ctx context.Context, method, path string, body, result any, header http.Header) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("linode rate limit: %w", err)
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, l.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+l.token)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("linode API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return linodeError(method+" "+path, resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func linodeError(op string, resp *http.Response) error {
	apiErr := &APIError{Provider: model.ProviderLinode, Operation: op, StatusCode: resp.StatusCode}
	var body linodeErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && len(body.Errors) > 0 {
		apiErr.Reason = body.Errors[0].Reason
		apiErr.Field = body.Errors[0].Field
	}
	return apiErr
}

func (l *Linode) get(ctx context.Context, path string, result any) error {
	return l.do(ctx, http.MethodGet, path, nil, result, nil)
}

// listAll walks every page of a paginated collection.
func listAll[T any](ctx context.Context, l *Linode, path string, header http.Header) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		var resp linodePage[T]
		p := fmt.Sprintf("%s?page=%d&page_size=%d", path, page, linodePageSize)
		if err := l.do(ctx, http.MethodGet, p, nil, &resp, header); err != nil {
			return nil, err
		}
		all = append(all, resp.Data...)
		if resp.Pages <= page {
			return all, nil
		}
	}
}

func linodeID(id string) (int, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0, fmt.Errorf("invalid linode instance id %q: %w", id, err)
	}
	return n, nil
}

func (l *Linode) CreateInstance(ctx context.Context, spec CreateSpec) (*Instance, error) {
	req := linodeCreateRequest{
		Label:           spec.Label,
		Type:            spec.Type,
		Region:          spec.Region,
		Image:           spec.Image,
		RootPass:        spec.RootPassword,
		AuthorizedKeys:  spec.SSHKeys,
		BackupsEnabled:  spec.Backups,
		StackScriptID:   spec.StackScriptID,
		StackScriptData: spec.StackScriptData,
		Tags:            spec.Tags,
		Booted:          true,
	}

	if spec.AppSlug != "" {
		app, err := l.findApp(ctx, spec.AppSlug)
		if err != nil {
			return nil, err
		}
		id, _ := strconv.Atoi(app.ID)
		req.StackScriptID = id
		if req.Image == "" && len(app.Images) > 0 {
			req.Image = app.Images[0]
		}
	}

	var inst linodeInstance
	if err := l.do(ctx, http.MethodPost, "/linode/instances", req, &inst, nil); err != nil {
		return nil, err
	}
	return inst.normalize(), nil
}

func (l *Linode) findApp(ctx context.Context, slug string) (*App, error) {
	apps, err := l.ListMarketplaceApps(ctx)
	if err != nil {
		return nil, fmt.Errorf("list marketplace apps: %w", err)
	}
	for i := range apps {
		if apps[i].Slug == slug {
			return &apps[i], nil
		}
	}
	return nil, &APIError{
		Provider:   model.ProviderLinode,
		Operation:  "resolve marketplace app",
		StatusCode: http.StatusBadRequest,
		Reason:     fmt.Sprintf("unknown marketplace app %q", slug),
		Field:      "appSlug",
	}
}

func (l *Linode) GetInstance(ctx context.Context, id string) (*Instance, error) {
	n, err := linodeID(id)
	if err != nil {
		return nil, err
	}
	var inst linodeInstance
	if err := l.get(ctx, fmt.Sprintf("/linode/instances/%d", n), &inst); err != nil {
		return nil, err
	}
	return inst.normalize(), nil
}

func (l *Linode) PerformAction(ctx context.Context, id string, action Action) error {
	n, err := linodeID(id)
	if err != nil {
		return err
	}
	base := fmt.Sprintf("/linode/instances/%d", n)

	switch action {
	case ActionBoot:
		return l.do(ctx, http.MethodPost, base+"/boot", nil, nil, nil)
	case ActionShutdown:
		return l.do(ctx, http.MethodPost, base+"/shutdown", nil, nil, nil)
	case ActionReboot, ActionPowerCycle:
		// Linode has no hard power cycle; a reboot is the closest operation.
		return l.do(ctx, http.MethodPost, base+"/reboot", nil, nil, nil)
	case ActionDelete:
		return l.do(ctx, http.MethodDelete, base, nil, nil, nil)
	default:
		return &UnknownActionError{Action: string(action)}
	}
}

func (l *Linode) ListPlans(ctx context.Context) ([]Plan, error) {
	types, err := listAll[linodeType](ctx, l, "/linode/types", nil)
	if err != nil {
		return nil, err
	}
	plans := make([]Plan, 0, len(types))
	for _, t := range types {
		plans = append(plans, Plan{
			ID:           t.ID,
			Label:        t.Label,
			Class:        t.Class,
			VCPUs:        t.VCPUs,
			MemoryMB:     t.Memory,
			DiskMB:       t.Disk,
			TransferGB:   t.Transfer,
			PriceHourly:  t.Price.Hourly,
			PriceMonthly: t.Price.Monthly,
		})
	}
	return plans, nil
}

func (l *Linode) ListRegions(ctx context.Context) ([]Region, error) {
	raw, err := listAll[linodeRegion](ctx, l, "/regions", nil)
	if err != nil {
		return nil, err
	}
	regions := make([]Region, 0, len(raw))
	for _, r := range raw {
		regions = append(regions, Region(r))
	}
	return regions, nil
}

func (l *Linode) ListImages(ctx context.Context) ([]Image, error) {
	raw, err := listAll[linodeImage](ctx, l, "/images", nil)
	if err != nil {
		return nil, err
	}
	images := make([]Image, 0, len(raw))
	for _, i := range raw {
		images = append(images, Image(i))
	}
	return images, nil
}

// ListMarketplaceApps returns Linode-authored public StackScripts, which
// back the Marketplace.
func (l *Linode) ListMarketplaceApps(ctx context.Context) ([]App, error) {
	header := http.Header{}
	header.Set("X-Filter", `{"username":"linode","is_public":true}`)
	raw, err := listAll[linodeStackScript](ctx, l, "/linode/stackscripts", header)
	if err != nil {
		return nil, err
	}
	apps := make([]App, 0, len(raw))
	for _, s := range raw {
		apps = append(apps, App{
			ID:     strconv.Itoa(s.ID),
			Slug:   Slugify(s.Label),
			Label:  s.Label,
			Images: s.Images,
		})
	}
	return apps, nil
}

func (l *Linode) GetInstanceMetrics(ctx context.Context, id string) (*Metrics, error) {
	n, err := linodeID(id)
	if err != nil {
		return nil, err
	}
	var stats linodeStats
	if err := l.get(ctx, fmt.Sprintf("/linode/instances/%d/stats", n), &stats); err != nil {
		return nil, err
	}
	return &Metrics{Series: map[string]Series{
		SeriesCPU:        NewSeries(pairsToPoints(stats.Data.CPU)),
		SeriesIO:         NewSeries(pairsToPoints(stats.Data.IO.IO)),
		SeriesNetworkIn:  NewSeries(pairsToPoints(stats.Data.NetV4.In)),
		SeriesNetworkOut: NewSeries(pairsToPoints(stats.Data.NetV4.Out)),
	}}, nil
}

// GetInstanceTransfer converts used bytes to GB; quota and billable are
// already reported in GB.
func (l *Linode) GetInstanceTransfer(ctx context.Context, id string) (*Transfer, error) {
	n, err := linodeID(id)
	if err != nil {
		return nil, err
	}
	var t linodeTransfer
	if err := l.get(ctx, fmt.Sprintf("/linode/instances/%d/transfer", n), &t); err != nil {
		return nil, err
	}
	return &Transfer{
		QuotaGB:    t.Quota,
		UsedGB:     t.Used / bytesPerGB,
		BillableGB: t.Billable,
	}, nil
}

func (l *Linode) GetInstanceBackups(ctx context.Context, id string) (*Backups, error) {
	n, err := linodeID(id)
	if err != nil {
		return nil, err
	}

	var inst linodeInstance
	if err := l.get(ctx, fmt.Sprintf("/linode/instances/%d", n), &inst); err != nil {
		return nil, err
	}
	var raw linodeBackups
	if err := l.get(ctx, fmt.Sprintf("/linode/instances/%d/backups", n), &raw); err != nil {
		return nil, err
	}

	b := &Backups{
		Enabled:   inst.Backups.Enabled,
		Available: inst.Backups.Available,
		Schedule: BackupSchedule{
			Day:    inst.Backups.Schedule.Day,
			Window: inst.Backups.Schedule.Window,
		},
		LastSuccessful: parseLinodeTimePtr(inst.Backups.LastSuccessful),
		Automatic:      make([]BackupSummary, 0, len(raw.Automatic)),
	}
	for _, a := range raw.Automatic {
		b.Automatic = append(b.Automatic, a.summary())
	}
	if raw.Snapshot.Current != nil {
		s := raw.Snapshot.Current.summary()
		b.Snapshot.Current = &s
	}
	if raw.Snapshot.InProgress != nil {
		s := raw.Snapshot.InProgress.summary()
		b.Snapshot.InProgress = &s
	}
	return b, nil
}

func (l *Linode) ListSSHKeys(ctx context.Context) ([]SSHKey, error) {
	raw, err := listAll[linodeSSHKey](ctx, l, "/profile/sshkeys", nil)
	if err != nil {
		return nil, err
	}
	keys := make([]SSHKey, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, k.normalize())
	}
	return keys, nil
}

func (l *Linode) CreateSSHKey(ctx context.Context, label, publicKey string) (*SSHKey, error) {
	var k linodeSSHKey
	body := map[string]string{"label": label, "ssh_key": publicKey}
	if err := l.do(ctx, http.MethodPost, "/profile/sshkeys", body, &k, nil); err != nil {
		return nil, err
	}
	key := k.normalize()
	return &key, nil
}

func (l *Linode) DeleteSSHKey(ctx context.Context, id string) error {
	n, err := strconv.Atoi(id)
	if err != nil {
		return fmt.Errorf("invalid ssh key id %q: %w", id, err)
	}
	return l.do(ctx, http.MethodDelete, fmt.Sprintf("/profile/sshkeys/%d", n), nil, nil, nil)
}

func (l *Linode) ValidateCredentials(ctx context.Context) bool {
	var profile struct {
		Username string `json:"username"`
	}
	return l.get(ctx, "/profile", &profile) == nil
}

func (i *linodeInstance) normalize() *Instance {
	ipv4 := i.IPv4
	if ipv4 == nil {
		ipv4 = []string{}
	}
	return &Instance{
		ID:     strconv.Itoa(i.ID),
		Label:  i.Label,
		Status: i.Status,
		Region: i.Region,
		Image:  i.Image,
		Type:   i.Type,
		IPv4:   ipv4,
		IPv6:   i.IPv6,
		Specs: Specs{
			VCPUs:      i.Specs.VCPUs,
			MemoryMB:   i.Specs.Memory,
			DiskMB:     i.Specs.Disk,
			TransferGB: i.Specs.Transfer,
		},
		Created: parseLinodeTime(i.Created),
		Updated: parseLinodeTime(i.Updated),
	}
}

func (b *linodeBackup) summary() BackupSummary {
	return BackupSummary{
		ID:       strconv.Itoa(b.ID),
		Label:    b.Label,
		Status:   b.Status,
		Type:     b.Type,
		Created:  parseLinodeTime(b.Created),
		Finished: parseLinodeTimePtr(b.Finished),
	}
}

func (k *linodeSSHKey) normalize() SSHKey {
	return SSHKey{
		ID:        strconv.Itoa(k.ID),
		Label:     k.Label,
		PublicKey: k.SSHKey,
		Created:   parseLinodeTime(k.Created),
	}
}

// Slugify lowercases s and joins alphanumeric runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
