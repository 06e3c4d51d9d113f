package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/containerstacks/internal/model"
	"github.com/edvin/containerstacks/internal/platform"
)

const vpsPlanColumns = `id, provider_id, name, provider_plan_id, base_price, markup_price, specifications, active, created_at, updated_at`

// VpsPlanService reads resellable plans.
type VpsPlanService struct {
	db DB
}

func NewVpsPlanService(db DB) *VpsPlanService {
	return &VpsPlanService{db: db}
}

// GetByID returns ErrNotFound for unknown or non-UUID ids.
func (s *VpsPlanService) GetByID(ctx context.Context, id string) (*model.VpsPlan, error) {
	if !platform.IsID(id) {
		return nil, fmt.Errorf("get vps plan %s: %w", id, ErrNotFound)
	}
	p, err := scanVpsPlan(s.db.QueryRow(ctx,
		`SELECT `+vpsPlanColumns+` FROM vps_plans WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get vps plan %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get vps plan %s: %w", id, err)
	}
	return p, nil
}

// GetByProviderPlanID returns the newest plan mapped to a provider type.
func (s *VpsPlanService) GetByProviderPlanID(ctx context.Context, providerPlanID string) (*model.VpsPlan, error) {
	p, err := scanVpsPlan(s.db.QueryRow(ctx,
		`SELECT `+vpsPlanColumns+` FROM vps_plans WHERE provider_plan_id = $1 ORDER BY active DESC, created_at DESC LIMIT 1`,
		providerPlanID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get vps plan by provider plan %s: %w", providerPlanID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get vps plan by provider plan %s: %w", providerPlanID, err)
	}
	return p, nil
}

func (s *VpsPlanService) ListActive(ctx context.Context) ([]model.VpsPlan, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+vpsPlanColumns+` FROM vps_plans WHERE active ORDER BY base_price + markup_price, name`)
	if err != nil {
		return nil, fmt.Errorf("list vps plans: %w", err)
	}
	defer rows.Close()

	var plans []model.VpsPlan
	for rows.Next() {
		p, err := scanVpsPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vps plan: %w", err)
		}
		plans = append(plans, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vps plans: %w", err)
	}
	return plans, nil
}

func scanVpsPlan(row pgx.Row) (*model.VpsPlan, error) {
	var p model.VpsPlan
	err := row.Scan(&p.ID, &p.ProviderID, &p.Name, &p.ProviderPlanID, &p.BasePrice, &p.MarkupPrice,
		&p.Specifications, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
