package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/containerstacks/internal/model"
	"github.com/edvin/containerstacks/internal/platform"
)

const vpsInstanceColumns = `id, organization_id, plan_id, provider_id, provider_instance_id, label, status, ip_address, configuration, created_at, updated_at`

// VpsInstanceService persists customer instances.
type VpsInstanceService struct {
	db DB
}

func NewVpsInstanceService(db DB) *VpsInstanceService {
	return &VpsInstanceService{db: db}
}

func (s *VpsInstanceService) Create(ctx context.Context, inst *model.VpsInstance) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO vps_instances (id, organization_id, plan_id, provider_id, provider_instance_id, label, status, ip_address, configuration, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		inst.ID, inst.OrganizationID, inst.PlanID, inst.ProviderID, inst.ProviderInstanceID, inst.Label,
		inst.Status, inst.IPAddress, inst.Configuration, inst.CreatedAt, inst.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert vps instance: %w", err)
	}
	return nil
}

// GetForOrganization loads an instance owned by orgID. Instances of other
// organizations are reported as ErrNotFound.
func (s *VpsInstanceService) GetForOrganization(ctx context.Context, id, orgID string) (*model.VpsInstance, error) {
	if !platform.IsID(id) || !platform.IsID(orgID) {
		return nil, fmt.Errorf("get vps instance %s: %w", id, ErrNotFound)
	}
	inst, err := scanVpsInstance(s.db.QueryRow(ctx,
		`SELECT `+vpsInstanceColumns+` FROM vps_instances WHERE id = $1 AND organization_id = $2`, id, orgID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get vps instance %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get vps instance %s: %w", id, err)
	}
	return inst, nil
}

func (s *VpsInstanceService) ListByOrganization(ctx context.Context, orgID string) ([]model.VpsInstance, error) {
	if !platform.IsID(orgID) {
		return []model.VpsInstance{}, nil
	}
	return s.list(ctx,
		`SELECT `+vpsInstanceColumns+` FROM vps_instances WHERE organization_id = $1 ORDER BY created_at DESC`, orgID)
}

// ListAll returns every instance, for background sweeps.
func (s *VpsInstanceService) ListAll(ctx context.Context) ([]model.VpsInstance, error) {
	return s.list(ctx, `SELECT `+vpsInstanceColumns+` FROM vps_instances ORDER BY created_at`)
}

func (s *VpsInstanceService) list(ctx context.Context, query string, args ...any) ([]model.VpsInstance, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vps instances: %w", err)
	}
	defer rows.Close()

	instances := []model.VpsInstance{}
	for rows.Next() {
		inst, err := scanVpsInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vps instance: %w", err)
		}
		instances = append(instances, *inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vps instances: %w", err)
	}
	return instances, nil
}

// UpdateState writes the cached upstream view of an instance.
func (s *VpsInstanceService) UpdateState(ctx context.Context, id, status string, ip *string, cfg model.InstanceConfig) error {
	_, err := s.db.Exec(ctx,
		`UPDATE vps_instances SET status = $1, ip_address = $2, configuration = $3, updated_at = $4 WHERE id = $5`,
		status, ip, cfg, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("update vps instance %s state: %w", id, err)
	}
	return nil
}

func (s *VpsInstanceService) Delete(ctx context.Context, id, orgID string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM vps_instances WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("delete vps instance %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete vps instance %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanVpsInstance(row pgx.Row) (*model.VpsInstance, error) {
	var inst model.VpsInstance
	err := row.Scan(&inst.ID, &inst.OrganizationID, &inst.PlanID, &inst.ProviderID, &inst.ProviderInstanceID,
		&inst.Label, &inst.Status, &inst.IPAddress, &inst.Configuration, &inst.CreatedAt, &inst.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &inst, nil
}
