package provider

import "time"

// Instance is the normalized view of an upstream server. Status uses the
// provider vocabulary (running, offline, booting, ...).
type Instance struct {
	ID      string    `json:"id"`
	Label   string    `json:"label"`
	Status  string    `json:"status"`
	Region  string    `json:"region"`
	Image   string    `json:"image"`
	Type    string    `json:"type"`
	IPv4    []string  `json:"ipv4"`
	IPv6    string    `json:"ipv6,omitempty"`
	Specs   Specs     `json:"specs"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// FirstIPv4 returns the first IPv4 address or an empty string.
func (i *Instance) FirstIPv4() string {
	if i == nil || len(i.IPv4) == 0 {
		return ""
	}
	return i.IPv4[0]
}

type Specs struct {
	VCPUs      int `json:"vcpus"`
	MemoryMB   int `json:"memory"`
	DiskMB     int `json:"disk"`
	TransferGB int `json:"transfer"`
}

type Plan struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Class        string   `json:"class,omitempty"`
	VCPUs        int      `json:"vcpus"`
	MemoryMB     int      `json:"memory"`
	DiskMB       int      `json:"disk"`
	TransferGB   int      `json:"transfer"`
	PriceHourly  float64  `json:"price_hourly"`
	PriceMonthly float64  `json:"price_monthly"`
	Regions      []string `json:"regions,omitempty"`
}

type Region struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Country      string   `json:"country,omitempty"`
	Status       string   `json:"status,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
}

type Image struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Vendor     string `json:"vendor,omitempty"`
	Type       string `json:"type,omitempty"`
	Deprecated bool   `json:"deprecated"`
}

// App is a marketplace (one-click) application.
type App struct {
	ID     string   `json:"id"`
	Slug   string   `json:"slug"`
	Label  string   `json:"label"`
	Images []string `json:"images,omitempty"`
}

type SSHKey struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	PublicKey   string    `json:"public_key"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Created     time.Time `json:"created,omitempty"`
}

// Transfer reports network transfer for the current billing cycle in GB.
type Transfer struct {
	QuotaGB    float64 `json:"quota"`
	UsedGB     float64 `json:"used"`
	BillableGB float64 `json:"billable"`
}

type Backups struct {
	Enabled        bool            `json:"enabled"`
	Available      bool            `json:"available"`
	Schedule       BackupSchedule  `json:"schedule"`
	LastSuccessful *time.Time      `json:"last_successful"`
	Automatic      []BackupSummary `json:"automatic"`
	Snapshot       SnapshotSummary `json:"snapshot"`
}

type BackupSchedule struct {
	Day    string `json:"day,omitempty"`
	Window string `json:"window,omitempty"`
}

type BackupSummary struct {
	ID       string     `json:"id"`
	Label    string     `json:"label,omitempty"`
	Status   string     `json:"status"`
	Type     string     `json:"type"`
	Created  time.Time  `json:"created"`
	Finished *time.Time `json:"finished,omitempty"`
}

type SnapshotSummary struct {
	Current    *BackupSummary `json:"current"`
	InProgress *BackupSummary `json:"in_progress"`
}
