package model

import (
	"encoding/json"
	"time"
)

// Provider types.
const (
	ProviderLinode       = "linode"
	ProviderDigitalOcean = "digitalocean"
	ProviderAWS          = "aws"
	ProviderGCP          = "gcp"
)

// ServiceProvider is a configured upstream cloud account.
type ServiceProvider struct {
	ID              string          `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	Type            string          `json:"type" db:"type"`
	APIKeyEncrypted string          `json:"-" db:"api_key_encrypted"`
	Configuration   json.RawMessage `json:"configuration" db:"configuration"`
	Active          bool            `json:"active" db:"active"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// ProviderConfiguration is the typed view of ServiceProvider.Configuration.
type ProviderConfiguration struct {
	AllowedRegions []string        `json:"allowed_regions,omitempty"`
	Features       map[string]bool `json:"features,omitempty"`
	BaseURL        string          `json:"base_url,omitempty"`
}

// ParsedConfiguration decodes the configuration bag. An empty or malformed
// bag yields the zero value.
func (p *ServiceProvider) ParsedConfiguration() ProviderConfiguration {
	var c ProviderConfiguration
	if len(p.Configuration) > 0 {
		_ = json.Unmarshal(p.Configuration, &c)
	}
	return c
}
