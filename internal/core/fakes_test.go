package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/edvin/containerstacks/internal/model"
	"github.com/edvin/containerstacks/internal/provider"
)

const (
	testOrgID      = "11111111-1111-4111-8111-111111111111"
	testOtherOrgID = "22222222-2222-4222-8222-222222222222"
	testProviderID = "33333333-3333-4333-8333-333333333333"
	testPlanID     = "44444444-4444-4444-8444-444444444444"
	testInstanceID = "55555555-5555-4555-8555-555555555555"
)

// fakeProvider is an in-memory provider.Service.
type fakeProvider struct {
	mu sync.Mutex

	plans     []provider.Plan
	plansErr  error
	regions   []provider.Region
	instances map[string]*provider.Instance
	getErr    error
	createErr error
	actionErr error

	metricsErr  error
	transferErr error
	backupsErr  error

	created   []provider.CreateSpec
	actions   []provider.Action
	listPlans atomic.Int32
	getCalls  atomic.Int32
	valid     bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{instances: map[string]*provider.Instance{}, valid: true}
}

func (f *fakeProvider) Type() string { return "fake" }

func (f *fakeProvider) CreateInstance(_ context.Context, spec provider.CreateSpec) (*provider.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, spec)
	if f.createErr != nil {
		return nil, f.createErr
	}
	inst := &provider.Instance{
		ID:     "123",
		Label:  spec.Label,
		Status: "provisioning",
		Region: spec.Region,
		Image:  spec.Image,
		Type:   spec.Type,
		IPv4:   []string{"203.0.113.10"},
	}
	f.instances[inst.ID] = inst
	return inst, nil
}

func (f *fakeProvider) GetInstance(_ context.Context, id string) (*provider.Instance, error) {
	f.getCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	inst, ok := f.instances[id]
	if !ok {
		return nil, &provider.APIError{Provider: "fake", Operation: "get instance", StatusCode: 404}
	}
	cp := *inst
	return &cp, nil
}

func (f *fakeProvider) PerformAction(_ context.Context, id string, action provider.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	if f.actionErr != nil {
		return f.actionErr
	}
	inst, ok := f.instances[id]
	if !ok {
		return &provider.APIError{Provider: "fake", Operation: string(action), StatusCode: 404}
	}
	switch action {
	case provider.ActionBoot, provider.ActionReboot, provider.ActionPowerCycle:
		inst.Status = "running"
	case provider.ActionShutdown:
		inst.Status = "offline"
	case provider.ActionDelete:
		delete(f.instances, id)
	}
	return nil
}

func (f *fakeProvider) ListPlans(context.Context) ([]provider.Plan, error) {
	f.listPlans.Add(1)
	return f.plans, f.plansErr
}

func (f *fakeProvider) ListRegions(context.Context) ([]provider.Region, error) {
	return f.regions, nil
}

func (f *fakeProvider) ListImages(context.Context) ([]provider.Image, error) {
	return []provider.Image{{ID: "linode/ubuntu24.04", Label: "Ubuntu 24.04"}}, nil
}

func (f *fakeProvider) ListMarketplaceApps(context.Context) ([]provider.App, error) {
	return []provider.App{{ID: "401709", Slug: "wordpress", Label: "WordPress"}}, nil
}

func (f *fakeProvider) GetInstanceMetrics(context.Context, string) (*provider.Metrics, error) {
	if f.metricsErr != nil {
		return nil, f.metricsErr
	}
	return &provider.Metrics{Series: map[string]provider.Series{
		"cpu": provider.NewSeries([]provider.Point{{Timestamp: 1, Value: 2}}),
	}}, nil
}

func (f *fakeProvider) GetInstanceTransfer(context.Context, string) (*provider.Transfer, error) {
	if f.transferErr != nil {
		return nil, f.transferErr
	}
	return &provider.Transfer{QuotaGB: 1000, UsedGB: 1.5}, nil
}

func (f *fakeProvider) GetInstanceBackups(context.Context, string) (*provider.Backups, error) {
	if f.backupsErr != nil {
		return nil, f.backupsErr
	}
	return &provider.Backups{Enabled: true, Available: true}, nil
}

func (f *fakeProvider) ListSSHKeys(context.Context) ([]provider.SSHKey, error) {
	return []provider.SSHKey{{ID: "1", Label: "laptop", PublicKey: testPublicKey}}, nil
}

func (f *fakeProvider) CreateSSHKey(_ context.Context, label, publicKey string) (*provider.SSHKey, error) {
	return &provider.SSHKey{ID: "2", Label: label, PublicKey: publicKey}, nil
}

func (f *fakeProvider) DeleteSSHKey(context.Context, string) error { return nil }

func (f *fakeProvider) ValidateCredentials(context.Context) bool { return f.valid }

// fakeFactory hands out one fakeProvider per provider id.
type fakeFactory struct {
	services map[string]provider.Service
	err      error
	inactive map[string]bool
}

func newFakeFactory(providerID string, svc provider.Service) *fakeFactory {
	return &fakeFactory{services: map[string]provider.Service{providerID: svc}, inactive: map[string]bool{}}
}

func (f *fakeFactory) GetProviderService(ctx context.Context, providerID string) (provider.Service, error) {
	if f.inactive[providerID] {
		return nil, provider.ErrProviderInactive
	}
	return f.GetInstanceService(ctx, providerID)
}

func (f *fakeFactory) GetInstanceService(_ context.Context, providerID string) (provider.Service, error) {
	if f.err != nil {
		return nil, f.err
	}
	svc, ok := f.services[providerID]
	if !ok {
		return nil, provider.ErrProviderNotFound
	}
	return svc, nil
}

// fakePlans is an in-memory PlanRepository.
type fakePlans struct {
	plans []model.VpsPlan
}

func (f *fakePlans) GetByID(_ context.Context, id string) (*model.VpsPlan, error) {
	for i := range f.plans {
		if f.plans[i].ID == id {
			return &f.plans[i], nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakePlans) GetByProviderPlanID(_ context.Context, providerPlanID string) (*model.VpsPlan, error) {
	for i := range f.plans {
		if f.plans[i].ProviderPlanID == providerPlanID {
			return &f.plans[i], nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakePlans) ListActive(context.Context) ([]model.VpsPlan, error) {
	var out []model.VpsPlan
	for _, p := range f.plans {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeDirectory returns a fixed default provider.
type fakeDirectory struct {
	id string
}

func (f fakeDirectory) DefaultActive(context.Context) (*model.ServiceProvider, error) {
	if f.id == "" {
		return nil, provider.ErrProviderNotFound
	}
	return &model.ServiceProvider{ID: f.id, Active: true}, nil
}

// fakeInstances is an in-memory InstanceRepository.
type fakeInstances struct {
	mu        sync.Mutex
	rows      map[string]model.VpsInstance
	updates   int
	createErr error
	deleteErr error
}

func newFakeInstances(rows ...model.VpsInstance) *fakeInstances {
	f := &fakeInstances{rows: map[string]model.VpsInstance{}}
	for _, r := range rows {
		f.rows[r.ID] = r
	}
	return f
}

func (f *fakeInstances) Create(_ context.Context, inst *model.VpsInstance) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[inst.ID] = *inst
	return nil
}

func (f *fakeInstances) GetForOrganization(_ context.Context, id, orgID string) (*model.VpsInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.OrganizationID != orgID {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (f *fakeInstances) ListByOrganization(_ context.Context, orgID string) ([]model.VpsInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.VpsInstance{}
	for _, r := range f.rows {
		if r.OrganizationID == orgID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeInstances) ListAll(context.Context) ([]model.VpsInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.VpsInstance{}
	for _, r := range f.rows {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeInstances) UpdateState(_ context.Context, id, status string, ip *string, cfg model.InstanceConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	r, ok := f.rows[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = status
	r.IPAddress = ip
	r.Configuration = cfg
	f.rows[id] = r
	return nil
}

func (f *fakeInstances) Delete(_ context.Context, id, orgID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.OrganizationID != orgID {
		return ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeInstances) get(id string) (model.VpsInstance, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	return r, ok
}

// fakeActivity collects recorded events.
type fakeActivity struct {
	mu     sync.Mutex
	events []model.ActivityEvent
}

func (f *fakeActivity) Record(_ context.Context, ev model.ActivityEvent, _ any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeActivity) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, ev := range f.events {
		out = append(out, ev.EventType)
	}
	return out
}

var errBoom = errors.New("boom")

const testPublicKey = "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIOMqqnkVzrm0SdG6UOoqKLsabgH5C9okWi0dh2l9GKJl test@example"

func strPtr(s string) *string { return &s }
