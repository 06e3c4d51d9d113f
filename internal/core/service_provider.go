package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/containerstacks/internal/model"
	"github.com/edvin/containerstacks/internal/platform"
	"github.com/edvin/containerstacks/internal/provider"
)

const serviceProviderColumns = `id, name, type, api_key_encrypted, configuration, active, created_at, updated_at`

// ServiceProviderService manages configured upstream accounts.
type ServiceProviderService struct {
	db DB
}

func NewServiceProviderService(db DB) *ServiceProviderService {
	return &ServiceProviderService{db: db}
}

func (s *ServiceProviderService) Create(ctx context.Context, p *model.ServiceProvider) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO service_providers (id, name, type, api_key_encrypted, configuration, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Name, p.Type, p.APIKeyEncrypted, configurationOrEmpty(p.Configuration), p.Active, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create service provider: %w", err)
	}
	return nil
}

// GetByID returns an error wrapping provider.ErrProviderNotFound when no row
// matches.
func (s *ServiceProviderService) GetByID(ctx context.Context, id string) (*model.ServiceProvider, error) {
	if !platform.IsID(id) {
		return nil, fmt.Errorf("get service provider %s: %w", id, provider.ErrProviderNotFound)
	}
	p, err := scanServiceProvider(s.db.QueryRow(ctx,
		`SELECT `+serviceProviderColumns+` FROM service_providers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get service provider %s: %w", id, provider.ErrProviderNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get service provider %s: %w", id, err)
	}
	return p, nil
}

// DefaultActive returns the oldest active provider, used when neither the
// request nor the plan names one.
func (s *ServiceProviderService) DefaultActive(ctx context.Context) (*model.ServiceProvider, error) {
	p, err := scanServiceProvider(s.db.QueryRow(ctx,
		`SELECT `+serviceProviderColumns+` FROM service_providers WHERE active ORDER BY created_at LIMIT 1`))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get default service provider: %w", provider.ErrProviderNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get default service provider: %w", err)
	}
	return p, nil
}

func (s *ServiceProviderService) List(ctx context.Context) ([]model.ServiceProvider, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+serviceProviderColumns+` FROM service_providers ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list service providers: %w", err)
	}
	defer rows.Close()

	var providers []model.ServiceProvider
	for rows.Next() {
		p, err := scanServiceProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service provider: %w", err)
		}
		providers = append(providers, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate service providers: %w", err)
	}
	return providers, nil
}

// Update writes name, credential, configuration and active flag.
func (s *ServiceProviderService) Update(ctx context.Context, p *model.ServiceProvider) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE service_providers SET name = $1, api_key_encrypted = $2, configuration = $3, active = $4, updated_at = now()
		 WHERE id = $5`,
		p.Name, p.APIKeyEncrypted, configurationOrEmpty(p.Configuration), p.Active, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update service provider %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update service provider %s: %w", p.ID, provider.ErrProviderNotFound)
	}
	return nil
}

func scanServiceProvider(row pgx.Row) (*model.ServiceProvider, error) {
	var p model.ServiceProvider
	err := row.Scan(&p.ID, &p.Name, &p.Type, &p.APIKeyEncrypted, &p.Configuration, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func configurationOrEmpty(c []byte) []byte {
	if len(c) == 0 {
		return []byte("{}")
	}
	return c
}
