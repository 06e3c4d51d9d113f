package model

// Instance status constants. Provider statuses outside this set (booting,
// shutting_down, migrating, ...) are stored verbatim.
const (
	StatusProvisioning = "provisioning"
	StatusRunning      = "running"
	StatusStopped      = "stopped"
	StatusRebooting    = "rebooting"
	StatusError        = "error"
	StatusUnknown      = "unknown"
)

// providerOffline is the upstream status reported for a powered-off instance.
const providerOffline = "offline"

// NormalizeStatus maps a provider status onto the internal vocabulary.
// A missing status is unknown, not error.
func NormalizeStatus(providerStatus string) string {
	switch providerStatus {
	case providerOffline:
		return StatusStopped
	case "":
		return StatusUnknown
	default:
		return providerStatus
	}
}

var transitions = map[string][]string{
	StatusProvisioning: {StatusRunning, StatusError},
	StatusRunning:      {StatusStopped, StatusRebooting, StatusError},
	StatusStopped:      {StatusRunning, StatusError},
	StatusRebooting:    {StatusRunning, StatusError},
}

// IsExpectedTransition reports whether moving from one internal status to
// another follows the documented lifecycle. Reconciliation still records
// unexpected transitions since the provider is authoritative.
func IsExpectedTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
