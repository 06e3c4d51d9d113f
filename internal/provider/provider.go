// Package provider abstracts upstream VPS APIs behind a single Service
// contract. Each upstream has one implementation, chosen once by the Factory.
package provider

import (
	"context"
)

// Action is a lifecycle operation on an instance.
type Action string

const (
	ActionBoot       Action = "boot"
	ActionShutdown   Action = "shutdown"
	ActionReboot     Action = "reboot"
	ActionPowerCycle Action = "power_cycle"
	ActionDelete     Action = "delete"
)

// ParseAction validates a raw action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionBoot, ActionShutdown, ActionReboot, ActionPowerCycle, ActionDelete:
		return a, nil
	default:
		return "", &UnknownActionError{Action: s}
	}
}

// CreateSpec describes an instance to create upstream. When AppSlug is set
// the provider's marketplace path is used instead of a bare image.
type CreateSpec struct {
	Label           string
	Type            string
	Region          string
	Image           string
	RootPassword    string
	SSHKeys         []string
	Backups         bool
	AppSlug         string
	StackScriptID   int
	StackScriptData map[string]string
	Tags            []string
}

// Service is implemented identically by every upstream adapter.
type Service interface {
	Type() string

	CreateInstance(ctx context.Context, spec CreateSpec) (*Instance, error)
	GetInstance(ctx context.Context, id string) (*Instance, error)
	PerformAction(ctx context.Context, id string, action Action) error

	ListPlans(ctx context.Context) ([]Plan, error)
	ListRegions(ctx context.Context) ([]Region, error)
	ListImages(ctx context.Context) ([]Image, error)
	ListMarketplaceApps(ctx context.Context) ([]App, error)

	GetInstanceMetrics(ctx context.Context, id string) (*Metrics, error)
	GetInstanceTransfer(ctx context.Context, id string) (*Transfer, error)
	GetInstanceBackups(ctx context.Context, id string) (*Backups, error)

	ListSSHKeys(ctx context.Context) ([]SSHKey, error)
	CreateSSHKey(ctx context.Context, label, publicKey string) (*SSHKey, error)
	DeleteSSHKey(ctx context.Context, id string) error

	// ValidateCredentials reports whether the configured credential is
	// accepted upstream. It never returns an error.
	ValidateCredentials(ctx context.Context) bool
}
