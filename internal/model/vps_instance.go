package model

import "time"

// VpsInstance is the durable record of a customer server. Status and
// IPAddress cache upstream state and may lag behind it.
type VpsInstance struct {
	ID                 string         `json:"id" db:"id"`
	OrganizationID     string         `json:"organization_id" db:"organization_id"`
	PlanID             string         `json:"plan_id" db:"plan_id"`
	ProviderID         *string        `json:"provider_id,omitempty" db:"provider_id"`
	ProviderInstanceID string         `json:"provider_instance_id" db:"provider_instance_id"`
	Label              string         `json:"label" db:"label"`
	Status             string         `json:"status" db:"status"`
	IPAddress          *string        `json:"ip_address" db:"ip_address"`
	Configuration      InstanceConfig `json:"configuration" db:"configuration"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
}

// InstanceConfig mirrors provider-specific fields of an instance.
type InstanceConfig struct {
	Image           string   `json:"image,omitempty"`
	Region          string   `json:"region,omitempty"`
	Type            string   `json:"type,omitempty"`
	SSHKeys         []string `json:"ssh_keys,omitempty"`
	AppSlug         string   `json:"app_slug,omitempty"`
	StackScriptID   int      `json:"stackscript_id,omitempty"`
	Backups         bool     `json:"backups,omitempty"`
	ProviderMissing bool     `json:"provider_missing,omitempty"`
}

// IP returns the cached IP address or an empty string.
func (i *VpsInstance) IP() string {
	if i.IPAddress == nil {
		return ""
	}
	return *i.IPAddress
}
