package provider

import "time"

// Wire types for the Linode v4 API.

type linodePage[T any] struct {
	Data    []T `json:"data"`
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	Results int `json:"results"`
}

type linodeErrorBody struct {
	Errors []struct {
		Reason string `json:"reason"`
		Field  string `json:"field"`
	} `json:"errors"`
}

type linodeInstance struct {
	ID      int      `json:"id"`
	Label   string   `json:"label"`
	Status  string   `json:"status"`
	Region  string   `json:"region"`
	Image   string   `json:"image"`
	Type    string   `json:"type"`
	IPv4    []string `json:"ipv4"`
	IPv6    string   `json:"ipv6"`
	Specs   struct {
		VCPUs    int `json:"vcpus"`
		Memory   int `json:"memory"`
		Disk     int `json:"disk"`
		Transfer int `json:"transfer"`
	} `json:"specs"`
	Backups struct {
		Enabled        bool    `json:"enabled"`
		Available      bool    `json:"available"`
		LastSuccessful *string `json:"last_successful"`
		Schedule       struct {
			Day    string `json:"day"`
			Window string `json:"window"`
		} `json:"schedule"`
	} `json:"backups"`
	Created string `json:"created"`
	Updated string `json:"updated"`
}

type linodeCreateRequest struct {
	Label           string            `json:"label,omitempty"`
	Type            string            `json:"type"`
	Region          string            `json:"region"`
	Image           string            `json:"image,omitempty"`
	RootPass        string            `json:"root_pass,omitempty"`
	AuthorizedKeys  []string          `json:"authorized_keys,omitempty"`
	BackupsEnabled  bool              `json:"backups_enabled,omitempty"`
	StackScriptID   int               `json:"stackscript_id,omitempty"`
	StackScriptData map[string]string `json:"stackscript_data,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
	Booted          bool              `json:"booted"`
}

type linodeType struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Class    string `json:"class"`
	VCPUs    int    `json:"vcpus"`
	Memory   int    `json:"memory"`
	Disk     int    `json:"disk"`
	Transfer int    `json:"transfer"`
	Price    struct {
		Hourly  float64 `json:"hourly"`
		Monthly float64 `json:"monthly"`
	} `json:"price"`
}

type linodeRegion struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Country      string   `json:"country"`
	Status       string   `json:"status"`
	Capabilities []string `json:"capabilities"`
}

type linodeImage struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Vendor     string `json:"vendor"`
	Type       string `json:"type"`
	Deprecated bool   `json:"deprecated"`
}

type linodeStackScript struct {
	ID     int      `json:"id"`
	Label  string   `json:"label"`
	Images []string `json:"images"`
}

type linodeStats struct {
	Data struct {
		CPU [][]float64 `json:"cpu"`
		IO  struct {
			IO   [][]float64 `json:"io"`
			Swap [][]float64 `json:"swap"`
		} `json:"io"`
		NetV4 struct {
			In  [][]float64 `json:"in"`
			Out [][]float64 `json:"out"`
		} `json:"netv4"`
	} `json:"data"`
}

type linodeTransfer struct {
	Used     float64 `json:"used"`
	Quota    float64 `json:"quota"`
	Billable float64 `json:"billable"`
}

type linodeBackup struct {
	ID       int     `json:"id"`
	Label    string  `json:"label"`
	Status   string  `json:"status"`
	Type     string  `json:"type"`
	Created  string  `json:"created"`
	Finished *string `json:"finished"`
}

type linodeBackups struct {
	Automatic []linodeBackup `json:"automatic"`
	Snapshot  struct {
		Current    *linodeBackup `json:"current"`
		InProgress *linodeBackup `json:"in_progress"`
	} `json:"snapshot"`
}

type linodeSSHKey struct {
	ID      int    `json:"id"`
	Label   string `json:"label"`
	SSHKey  string `json:"ssh_key"`
	Created string `json:"created"`
}

// linodeTimeLayout is the zone-less UTC timestamp format the API returns.
const linodeTimeLayout = "2006-01-02T15:04:05"

func parseLinodeTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(linodeTimeLayout, s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

func parseLinodeTimePtr(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t := parseLinodeTime(*s)
	if t.IsZero() {
		return nil
	}
	return &t
}
