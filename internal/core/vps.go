package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/containerstacks/internal/model"
	"github.com/edvin/containerstacks/internal/platform"
	"github.com/edvin/containerstacks/internal/provider"
)

// InstanceRepository is the persistence used by VpsService.
type InstanceRepository interface {
	InstanceStateWriter
	Create(ctx context.Context, inst *model.VpsInstance) error
	GetForOrganization(ctx context.Context, id, orgID string) (*model.VpsInstance, error)
	ListByOrganization(ctx context.Context, orgID string) ([]model.VpsInstance, error)
	Delete(ctx context.Context, id, orgID string) error
}

// PlanRepository extends PlanLookup with listing.
type PlanRepository interface {
	PlanLookup
	ListActive(ctx context.Context) ([]model.VpsPlan, error)
}

// ActivityRecorder records customer-visible events.
type ActivityRecorder interface {
	Record(ctx context.Context, ev model.ActivityEvent, metadata any)
}

// VpsService orchestrates instance creation, reads with reconciliation,
// lifecycle actions and deletion.
type VpsService struct {
	instances  InstanceRepository
	plans      PlanRepository
	factory    ServiceFactory
	resolver   *Resolver
	reconciler *Reconciler
	catalog    *Catalog
	activity   ActivityRecorder
	logger     zerolog.Logger
	now        func() time.Time
}

func NewVpsService(instances InstanceRepository, plans PlanRepository, providers ProviderDirectory, factory ServiceFactory,
	catalog *Catalog, activity ActivityRecorder, logger zerolog.Logger) *VpsService {
	return &VpsService{
		instances:  instances,
		plans:      plans,
		factory:    factory,
		resolver:   NewResolver(plans, providers, factory, catalog),
		reconciler: NewReconciler(instances, logger),
		catalog:    catalog,
		activity:   activity,
		logger:     logger,
		now:        time.Now,
	}
}

// Reconciler exposes the reconciler for background sweeps.
func (s *VpsService) Reconciler() *Reconciler { return s.reconciler }

// CreateVpsInput is a validated create request.
type CreateVpsInput struct {
	OrganizationID  string
	UserID          string
	ProviderID      string
	Label           string
	Type            string
	Region          string
	Image           string
	RootPassword    string
	SSHKeys         []string
	Backups         bool
	AppSlug         string
	StackScriptID   int
	StackScriptData map[string]string
}

// InstanceView is a list entry: the cached row plus display fields.
type InstanceView struct {
	model.VpsInstance
	RegionLabel string            `json:"region_label"`
	PlanSpecs   model.PlanSpecs   `json:"plan_specs"`
	PlanPricing model.PlanPricing `json:"plan_pricing"`
}

// PlanView is an internal plan with its normalized specs and price.
type PlanView struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Type     string            `json:"provider_plan_id"`
	Region   string            `json:"region,omitempty"`
	Specs    model.PlanSpecs   `json:"specs"`
	Pricing  model.PlanPricing `json:"pricing"`
	Provider string            `json:"provider_id"`
}

// InstanceDetail is the single-instance view. Metrics, Transfer and Backups
// are null when their lookup failed; Unavailable says why.
type InstanceDetail struct {
	Instance    *model.VpsInstance          `json:"instance"`
	RegionLabel string                      `json:"region_label"`
	Plan        *PlanView                   `json:"plan"`
	Provider    *provider.Instance          `json:"provider"`
	Metrics     Optional[provider.Metrics]  `json:"metrics"`
	Transfer    Optional[provider.Transfer] `json:"transfer"`
	Backups     Optional[provider.Backups]  `json:"backups"`
	Unavailable map[string]string           `json:"unavailable,omitempty"`
}

// Create resolves the plan, provisions upstream and records the instance.
// A provider failure inserts nothing; a database failure after upstream
// success is logged with the orphaned provider instance id.
func (s *VpsService) Create(ctx context.Context, in CreateVpsInput) (*model.VpsInstance, error) {
	res, err := s.resolver.Resolve(ctx, ResolveRequest{
		Identifier: in.Type,
		Region:     in.Region,
		ProviderID: in.ProviderID,
	})
	if err != nil {
		return nil, err
	}

	spec := provider.CreateSpec{
		Label:        in.Label,
		Type:         res.Type,
		Region:       res.Region,
		Image:        in.Image,
		RootPassword: in.RootPassword,
		SSHKeys:      in.SSHKeys,
		Backups:      in.Backups,
		AppSlug:      in.AppSlug,
	}
	if in.AppSlug == "" {
		spec.StackScriptID = in.StackScriptID
		spec.StackScriptData = in.StackScriptData
	}

	live, err := res.Service.CreateInstance(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	status := model.NormalizeStatus(live.Status)
	if status == model.StatusUnknown {
		status = model.StatusProvisioning
	}
	now := s.now()
	providerID := res.ProviderID
	inst := &model.VpsInstance{
		ID:                 platform.NewID(),
		OrganizationID:     in.OrganizationID,
		PlanID:             res.PlanID,
		ProviderID:         &providerID,
		ProviderInstanceID: live.ID,
		Label:              in.Label,
		Status:             status,
		Configuration: model.InstanceConfig{
			Image:         in.Image,
			Region:        res.Region,
			Type:          res.Type,
			SSHKeys:       in.SSHKeys,
			AppSlug:       in.AppSlug,
			StackScriptID: spec.StackScriptID,
			Backups:       in.Backups,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ip := live.FirstIPv4(); ip != "" {
		inst.IPAddress = &ip
	}
	inst.Configuration = mergeConfig(inst.Configuration, live)

	if err := s.instances.Create(ctx, inst); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Str("provider_id", providerID).
			Str("provider_instance_id", live.ID).
			Msg("instance created upstream but not recorded")
		return nil, err
	}

	s.activity.Record(ctx, model.ActivityEvent{
		OrganizationID: in.OrganizationID,
		UserID:         in.UserID,
		EventType:      model.ActivityVPSCreate,
		EntityType:     "vps",
		EntityID:       inst.ID,
		Message:        fmt.Sprintf("Created VPS %s", inst.Label),
	}, map[string]any{
		"provider_instance_id": live.ID,
		"type":                 res.Type,
		"region":               res.Region,
		"image":                in.Image,
		"app_slug":             in.AppSlug,
	})
	return inst, nil
}

// List returns the organization's instances after reconciling each against
// its provider concurrently.
func (s *VpsService) List(ctx context.Context, orgID string) ([]InstanceView, error) {
	instances, err := s.instances.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	r := s.newReadScope()
	services := make([]provider.Service, len(instances))
	for i := range instances {
		services[i] = r.service(ctx, &instances[i])
	}

	live := s.reconciler.ReconcileAll(ctx, instances, services)

	views := make([]InstanceView, 0, len(instances))
	for i := range instances {
		inst := instances[i]
		view := InstanceView{VpsInstance: inst}
		if plan := r.plan(ctx, &inst); plan != nil {
			view.PlanSpecs = NormalizeSpecs(plan.Specifications)
			view.PlanPricing = Pricing(plan)
		} else if live[i] != nil {
			view.PlanSpecs = SpecsFromProvider(live[i].Specs)
		}
		view.RegionLabel = s.regionLabel(ctx, r.providerID(ctx, &inst), services[i], inst.Configuration.Region)
		views = append(views, view)
	}
	return views, nil
}

// Get returns one instance with live provider state and best-effort
// metrics, transfer and backups.
func (s *VpsService) Get(ctx context.Context, orgID, id string) (*InstanceDetail, error) {
	inst, err := s.instances.GetForOrganization(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	r := s.newReadScope()
	svc := r.service(ctx, inst)
	detail := &InstanceDetail{Instance: inst}

	if svc != nil {
		detail.Provider = s.reconciler.Reconcile(ctx, svc, inst)
	}
	if detail.Provider != nil {
		e := s.reconciler.Enrich(ctx, svc, inst.ProviderInstanceID)
		detail.Metrics, detail.Transfer, detail.Backups = e.Metrics, e.Transfer, e.Backups
	} else {
		reason := "live instance state unavailable"
		detail.Metrics = Absent[provider.Metrics](reason)
		detail.Transfer = Absent[provider.Transfer](reason)
		detail.Backups = Absent[provider.Backups](reason)
	}
	detail.Unavailable = Enrichment{Metrics: detail.Metrics, Transfer: detail.Transfer, Backups: detail.Backups}.Unavailable()
	if len(detail.Unavailable) == 0 {
		detail.Unavailable = nil
	}

	if plan := r.plan(ctx, inst); plan != nil {
		pv := NewPlanView(plan)
		detail.Plan = &pv
	} else if detail.Provider != nil {
		detail.Plan = &PlanView{
			ID:    inst.PlanID,
			Type:  detail.Provider.Type,
			Specs: SpecsFromProvider(detail.Provider.Specs),
		}
	}
	detail.RegionLabel = s.regionLabel(ctx, r.providerID(ctx, inst), svc, inst.Configuration.Region)
	return detail, nil
}

// PerformAction runs a power action, refreshes the instance from the
// provider and returns the updated row. ActionDelete is handled by Delete.
func (s *VpsService) PerformAction(ctx context.Context, orgID, userID, id string, action provider.Action) (*model.VpsInstance, error) {
	if action == provider.ActionDelete {
		return nil, s.Delete(ctx, orgID, userID, id)
	}

	inst, err := s.instances.GetForOrganization(ctx, id, orgID)
	if err != nil {
		return nil, err
	}
	svc, err := s.instanceService(ctx, inst)
	if err != nil {
		return nil, err
	}

	if err := svc.PerformAction(ctx, inst.ProviderInstanceID, action); err != nil {
		return nil, fmt.Errorf("%s instance: %w", action, err)
	}
	s.reconciler.Reconcile(ctx, svc, inst)

	s.activity.Record(ctx, model.ActivityEvent{
		OrganizationID: orgID,
		UserID:         userID,
		EventType:      "vps." + string(action),
		EntityType:     "vps",
		EntityID:       inst.ID,
		Message:        fmt.Sprintf("VPS %s: %s", inst.Label, action),
	}, map[string]any{"provider_instance_id": inst.ProviderInstanceID, "status": inst.Status})
	return inst, nil
}

// Delete removes the instance upstream first and only then drops the row.
// An upstream failure keeps the row; an upstream 404 counts as already
// deleted so rows orphaned upstream can be cleaned up.
func (s *VpsService) Delete(ctx context.Context, orgID, userID, id string) error {
	inst, err := s.instances.GetForOrganization(ctx, id, orgID)
	if err != nil {
		return err
	}
	svc, err := s.instanceService(ctx, inst)
	if err != nil {
		return err
	}

	err = svc.PerformAction(ctx, inst.ProviderInstanceID, provider.ActionDelete)
	switch {
	case provider.IsNotFound(err):
		zerolog.Ctx(ctx).Warn().Str("instance_id", inst.ID).Msg("instance already absent upstream, removing record")
	case err != nil:
		return fmt.Errorf("delete instance: %w", err)
	}

	if err := s.instances.Delete(ctx, inst.ID, orgID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Str("instance_id", inst.ID).
			Str("provider_instance_id", inst.ProviderInstanceID).
			Msg("instance deleted upstream but record not removed")
		return err
	}

	s.activity.Record(ctx, model.ActivityEvent{
		OrganizationID: orgID,
		UserID:         userID,
		EventType:      model.ActivityVPSDelete,
		EntityType:     "vps",
		EntityID:       inst.ID,
		Message:        fmt.Sprintf("Deleted VPS %s", inst.Label),
	}, map[string]any{"provider_instance_id": inst.ProviderInstanceID})
	return nil
}

// Plans lists active plans with normalized specs and pricing.
func (s *VpsService) Plans(ctx context.Context) ([]PlanView, error) {
	plans, err := s.plans.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]PlanView, 0, len(plans))
	for i := range plans {
		views = append(views, NewPlanView(&plans[i]))
	}
	return views, nil
}

func NewPlanView(p *model.VpsPlan) PlanView {
	return PlanView{
		ID:       p.ID,
		Name:     p.Name,
		Type:     p.ProviderPlanID,
		Region:   p.Region(),
		Specs:    NormalizeSpecs(p.Specifications),
		Pricing:  Pricing(p),
		Provider: p.ProviderID,
	}
}

func (s *VpsService) instanceService(ctx context.Context, inst *model.VpsInstance) (provider.Service, error) {
	providerID := s.newReadScope().providerID(ctx, inst)
	if providerID == "" {
		return nil, fmt.Errorf("instance %s has no provider: %w", inst.ID, provider.ErrProviderNotFound)
	}
	return s.factory.GetInstanceService(ctx, providerID)
}

func (s *VpsService) regionLabel(ctx context.Context, providerID string, svc provider.Service, region string) string {
	if region == "" || svc == nil {
		return region
	}
	label, err := s.catalog.RegionLabel(ctx, providerID, svc, region)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("provider_id", providerID).Msg("region label lookup failed")
	}
	return label
}

// readScope memoizes plan and adapter lookups for one read.
type readScope struct {
	s        *VpsService
	plans    map[string]*model.VpsPlan
	services map[string]provider.Service
}

func (s *VpsService) newReadScope() *readScope {
	return &readScope{s: s, plans: map[string]*model.VpsPlan{}, services: map[string]provider.Service{}}
}

// plan finds the plan row for an instance by id, then by provider type.
func (r *readScope) plan(ctx context.Context, inst *model.VpsInstance) *model.VpsPlan {
	key := inst.PlanID + "|" + inst.Configuration.Type
	if p, ok := r.plans[key]; ok {
		return p
	}

	var found *model.VpsPlan
	if platform.IsID(inst.PlanID) {
		found = r.lookup(ctx, r.s.plans.GetByID, inst.PlanID)
	}
	if found == nil {
		found = r.lookup(ctx, r.s.plans.GetByProviderPlanID, inst.PlanID)
	}
	if found == nil && inst.Configuration.Type != inst.PlanID {
		found = r.lookup(ctx, r.s.plans.GetByProviderPlanID, inst.Configuration.Type)
	}

	r.plans[key] = found
	return found
}

func (r *readScope) lookup(ctx context.Context, get func(context.Context, string) (*model.VpsPlan, error), id string) *model.VpsPlan {
	if id == "" {
		return nil
	}
	p, err := get(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("plan_id", id).Msg("plan lookup failed")
		}
		return nil
	}
	return p
}

func (r *readScope) providerID(ctx context.Context, inst *model.VpsInstance) string {
	if inst.ProviderID != nil && *inst.ProviderID != "" {
		return *inst.ProviderID
	}
	if p := r.plan(ctx, inst); p != nil {
		return p.ProviderID
	}
	return ""
}

// service returns the adapter for an instance or nil when it cannot be
// built; the failure is logged and the cached row is served as is.
func (r *readScope) service(ctx context.Context, inst *model.VpsInstance) provider.Service {
	providerID := r.providerID(ctx, inst)
	if providerID == "" {
		zerolog.Ctx(ctx).Warn().Str("instance_id", inst.ID).Msg("instance has no resolvable provider, skipping reconciliation")
		return nil
	}
	if svc, ok := r.services[providerID]; ok {
		return svc
	}
	svc, err := r.s.factory.GetInstanceService(ctx, providerID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("provider_id", providerID).Msg("provider unavailable, serving cached instances")
		svc = nil
	}
	r.services[providerID] = svc
	return svc
}
