package model

import (
	"encoding/json"
	"time"
)

// Activity event types.
const (
	ActivityVPSCreate     = "vps.create"
	ActivityVPSBoot       = "vps.boot"
	ActivityVPSShutdown   = "vps.shutdown"
	ActivityVPSReboot     = "vps.reboot"
	ActivityVPSPowerCycle = "vps.power_cycle"
	ActivityVPSDelete     = "vps.delete"
)

type ActivityEvent struct {
	OrganizationID string          `json:"organization_id"`
	UserID         string          `json:"user_id"`
	EventType      string          `json:"event_type"`
	EntityType     string          `json:"entity_type"`
	EntityID       string          `json:"entity_id"`
	Message        string          `json:"message"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
