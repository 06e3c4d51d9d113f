package request

type CreateVPS struct {
	Label           string            `json:"label" validate:"required,max=64"`
	Type            string            `json:"type" validate:"required"`
	Region          string            `json:"region"`
	Image           string            `json:"image" validate:"required"`
	RootPassword    string            `json:"rootPassword" validate:"required,max=128"`
	SSHKeys         []string          `json:"sshKeys" validate:"omitempty,dive,required"`
	Backups         bool              `json:"backups"`
	AppSlug         string            `json:"appSlug"`
	StackScriptID   int               `json:"stackscriptId" validate:"gte=0"`
	StackScriptData map[string]string `json:"stackscriptData"`
	ProviderID      string            `json:"providerId" validate:"omitempty,uuid"`
}
