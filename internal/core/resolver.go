package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/edvin/containerstacks/internal/model"
	"github.com/edvin/containerstacks/internal/platform"
	"github.com/edvin/containerstacks/internal/provider"
)

// PlanLookup finds plan rows. Both methods return an error wrapping
// ErrNotFound when nothing matches.
type PlanLookup interface {
	GetByID(ctx context.Context, id string) (*model.VpsPlan, error)
	GetByProviderPlanID(ctx context.Context, providerPlanID string) (*model.VpsPlan, error)
}

// ProviderDirectory picks a provider when neither request nor plan names one.
type ProviderDirectory interface {
	DefaultActive(ctx context.Context) (*model.ServiceProvider, error)
}

// ServiceFactory yields provider adapters for stored provider rows.
type ServiceFactory interface {
	GetProviderService(ctx context.Context, providerID string) (provider.Service, error)
	GetInstanceService(ctx context.Context, providerID string) (provider.Service, error)
}

// ResolveRequest is the plan-related part of a create request.
type ResolveRequest struct {
	Identifier string
	Region     string
	ProviderID string
}

// Resolution is everything needed to provision: the adapter, the upstream
// type and region, and the plan id to store on the instance.
type Resolution struct {
	ProviderID string
	Service    provider.Service
	Type       string
	Region     string
	PlanID     string
	Plan       *model.VpsPlan
}

// Resolver maps a plan identifier (provider type or internal plan id) onto
// an upstream type, region, and provider.
type Resolver struct {
	plans     PlanLookup
	providers ProviderDirectory
	factory   ServiceFactory
	catalog   *Catalog
}

func NewResolver(plans PlanLookup, providers ProviderDirectory, factory ServiceFactory, catalog *Catalog) *Resolver {
	return &Resolver{plans: plans, providers: providers, factory: factory, catalog: catalog}
}

// Resolve tries, in order: a live provider type, a plan by provider type, a
// plan by id. An explicit region wins over the plan's region.
func (r *Resolver) Resolve(ctx context.Context, req ResolveRequest) (*Resolution, error) {
	if req.Identifier == "" {
		return nil, fmt.Errorf("%w: plan identifier is required", ErrInvalidPlan)
	}

	byType, err := r.lookup(ctx, r.plans.GetByProviderPlanID, req.Identifier)
	if err != nil {
		return nil, err
	}
	var byID *model.VpsPlan
	if byType == nil && platform.IsID(req.Identifier) {
		if byID, err = r.lookup(ctx, r.plans.GetByID, req.Identifier); err != nil {
			return nil, err
		}
	}

	providerID := req.ProviderID
	if providerID == "" {
		switch {
		case byType != nil:
			providerID = byType.ProviderID
		case byID != nil:
			providerID = byID.ProviderID
		default:
			p, err := r.providers.DefaultActive(ctx)
			if err != nil {
				return nil, err
			}
			providerID = p.ID
		}
	}

	svc, err := r.factory.GetProviderService(ctx, providerID)
	if err != nil {
		return nil, err
	}
	res := &Resolution{ProviderID: providerID, Service: svc}

	live, err := r.catalog.HasType(ctx, providerID, svc, req.Identifier)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("provider_id", providerID).Msg("live type listing unavailable, resolving from plans")
	}

	switch {
	case live:
		res.Type = req.Identifier
		res.PlanID = req.Identifier
		if byType != nil {
			res.Plan = byType
			res.PlanID = byType.ID
		}
	case byType != nil:
		res.Type = byType.ProviderPlanID
		res.Plan = byType
		res.PlanID = byType.ID
	case byID != nil && byID.ProviderPlanID != "":
		res.Type = byID.ProviderPlanID
		res.Plan = byID
		res.PlanID = byID.ID
	default:
		return nil, fmt.Errorf("%w: %q does not match a provider type or plan", ErrInvalidPlan, req.Identifier)
	}

	res.Region = req.Region
	if res.Region == "" {
		res.Region = res.Plan.Region()
	}
	if res.Region == "" {
		return nil, ErrMissingRegion
	}
	return res, nil
}

func (r *Resolver) lookup(ctx context.Context, get func(context.Context, string) (*model.VpsPlan, error), id string) (*model.VpsPlan, error) {
	p, err := get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve plan %q: %w", id, err)
	}
	return p, nil
}
