package core

import (
	"github.com/rs/zerolog"

	"github.com/edvin/containerstacks/internal/provider"
)

type Services struct {
	Provider        *ServiceProviderService
	Plan            *VpsPlanService
	Instance        *VpsInstanceService
	Activity        *ActivityLogger
	Catalog         *Catalog
	Factory         *provider.Factory
	Vps             *VpsService
	ProviderCatalog *ProviderCatalogService
	ProviderAdmin   *ProviderAdminService
}

func NewServices(db DB, cfg provider.FactoryConfig, logger zerolog.Logger) *Services {
	providers := NewServiceProviderService(db)
	plans := NewVpsPlanService(db)
	instances := NewVpsInstanceService(db)
	activity := NewActivityLogger(db, logger)
	catalog := NewCatalog()
	factory := provider.NewFactory(providers, cfg, logger)

	return &Services{
		Provider:        providers,
		Plan:            plans,
		Instance:        instances,
		Activity:        activity,
		Catalog:         catalog,
		Factory:         factory,
		Vps:             NewVpsService(instances, plans, providers, factory, catalog, activity, logger),
		ProviderCatalog: NewProviderCatalogService(factory, catalog),
		ProviderAdmin:   NewProviderAdminService(providers, factory, catalog, cfg.CredentialsKey),
	}
}
