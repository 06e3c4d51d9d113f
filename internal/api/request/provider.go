package request

import "github.com/goccy/go-json"

type CreateSSHKey struct {
	Label     string `json:"label" validate:"required,max=64"`
	PublicKey string `json:"public_key" validate:"required"`
}

type CreateProvider struct {
	Name          string          `json:"name" validate:"required,max=128"`
	Type          string          `json:"type" validate:"required,oneof=linode digitalocean"`
	APIKey        string          `json:"api_key" validate:"required"`
	Configuration json.RawMessage `json:"configuration"`
	Active        *bool           `json:"active"`
	Validate      bool            `json:"validate"`
}

type UpdateProvider struct {
	Name          *string         `json:"name" validate:"omitnil,min=1,max=128"`
	APIKey        *string         `json:"api_key" validate:"omitnil,min=1"`
	Configuration json.RawMessage `json:"configuration"`
	Active        *bool           `json:"active"`
	Validate      bool            `json:"validate"`
}
