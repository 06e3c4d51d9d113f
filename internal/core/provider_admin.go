package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/edvin/containerstacks/internal/crypto"
	"github.com/edvin/containerstacks/internal/model"
	"github.com/edvin/containerstacks/internal/platform"
	"github.com/edvin/containerstacks/internal/provider"
)

// ProviderRepository is the persistence behind ProviderAdminService.
type ProviderRepository interface {
	Create(ctx context.Context, p *model.ServiceProvider) error
	GetByID(ctx context.Context, id string) (*model.ServiceProvider, error)
	List(ctx context.Context) ([]model.ServiceProvider, error)
	Update(ctx context.Context, p *model.ServiceProvider) error
}

// AdapterBuilder builds unsaved adapters for credential checks and drops
// cached state for changed providers.
type AdapterBuilder interface {
	New(providerType, token, baseURL string) (provider.Service, error)
	Forget(providerID string)
}

// ProviderAdminService lets administrators manage provider accounts.
// Credentials are encrypted before they are stored.
type ProviderAdminService struct {
	providers ProviderRepository
	adapters  AdapterBuilder
	catalog   *Catalog
	key       []byte
}

func NewProviderAdminService(providers ProviderRepository, adapters AdapterBuilder, catalog *Catalog, key []byte) *ProviderAdminService {
	return &ProviderAdminService{providers: providers, adapters: adapters, catalog: catalog, key: key}
}

// ProviderInput creates a provider. When Validate is set the credential is
// checked upstream before saving.
type ProviderInput struct {
	Name          string
	Type          string
	APIKey        string
	Configuration json.RawMessage
	Active        bool
	Validate      bool
}

// ProviderPatch updates the non-nil fields of a provider.
type ProviderPatch struct {
	Name          *string
	APIKey        *string
	Configuration json.RawMessage
	Active        *bool
	Validate      bool
}

// CredentialsRejectedError reports a credential refused by the provider.
type CredentialsRejectedError struct {
	Type string
}

func (e *CredentialsRejectedError) Error() string {
	return fmt.Sprintf("%s rejected the supplied API credentials", e.Type)
}

func (s *ProviderAdminService) List(ctx context.Context) ([]model.ServiceProvider, error) {
	return s.providers.List(ctx)
}

func (s *ProviderAdminService) Create(ctx context.Context, in ProviderInput) (*model.ServiceProvider, error) {
	p := &model.ServiceProvider{
		ID:            platform.NewID(),
		Name:          in.Name,
		Type:          in.Type,
		Configuration: in.Configuration,
		Active:        in.Active,
	}
	if err := s.setCredential(ctx, p, in.APIKey, in.Validate); err != nil {
		return nil, err
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now

	if err := s.providers.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProviderAdminService) Update(ctx context.Context, id string, patch ProviderPatch) (*model.ServiceProvider, error) {
	p, err := s.providers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Configuration != nil {
		p.Configuration = patch.Configuration
	}
	if patch.Active != nil {
		p.Active = *patch.Active
	}
	if patch.APIKey != nil {
		if err := s.setCredential(ctx, p, *patch.APIKey, patch.Validate); err != nil {
			return nil, err
		}
	}

	if err := s.providers.Update(ctx, p); err != nil {
		return nil, err
	}
	s.adapters.Forget(p.ID)
	s.catalog.Invalidate(p.ID)
	p.UpdatedAt = time.Now()
	return p, nil
}

func (s *ProviderAdminService) setCredential(ctx context.Context, p *model.ServiceProvider, apiKey string, validate bool) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return provider.ErrMissingCredentials
	}
	if validate {
		svc, err := s.adapters.New(p.Type, apiKey, p.ParsedConfiguration().BaseURL)
		if err != nil {
			return err
		}
		if !svc.ValidateCredentials(ctx) {
			return &CredentialsRejectedError{Type: p.Type}
		}
	}
	enc, err := crypto.Encrypt([]byte(apiKey), s.key)
	if err != nil {
		return fmt.Errorf("encrypt provider credential: %w", err)
	}
	p.APIKeyEncrypted = enc
	return nil
}
