package model

import "time"

// VpsPlan is a resellable plan mapped to one upstream instance type.
type VpsPlan struct {
	ID             string         `json:"id" db:"id"`
	ProviderID     string         `json:"provider_id" db:"provider_id"`
	Name           string         `json:"name" db:"name"`
	ProviderPlanID string         `json:"provider_plan_id" db:"provider_plan_id"`
	BasePrice      float64        `json:"base_price" db:"base_price"`
	MarkupPrice    float64        `json:"markup_price" db:"markup_price"`
	Specifications map[string]any `json:"specifications" db:"specifications"`
	Active         bool           `json:"active" db:"active"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// Region returns the region embedded in the plan specifications, if any.
func (p *VpsPlan) Region() string {
	if p == nil || p.Specifications == nil {
		return ""
	}
	if r, ok := p.Specifications["region"].(string); ok {
		return r
	}
	return ""
}

// PlanSpecs are the normalized plan specifications exposed to clients.
type PlanSpecs struct {
	VCPUs    float64 `json:"vcpus"`
	Memory   float64 `json:"memory"`
	Disk     float64 `json:"disk"`
	Transfer float64 `json:"transfer"`
}

// PlanPricing is the computed price of a plan.
type PlanPricing struct {
	Hourly  float64 `json:"hourly"`
	Monthly float64 `json:"monthly"`
}
