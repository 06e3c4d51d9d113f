package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusConstants(t *testing.T) {
	assert.Equal(t, "provisioning", StatusProvisioning)
	assert.Equal(t, "running", StatusRunning)
	assert.Equal(t, "stopped", StatusStopped)
	assert.Equal(t, "rebooting", StatusRebooting)
	assert.Equal(t, "error", StatusError)
	assert.Equal(t, "unknown", StatusUnknown)
}

func TestNormalizeStatus_OfflineIsStopped(t *testing.T) {
	assert.Equal(t, StatusStopped, NormalizeStatus("offline"))
}

func TestNormalizeStatus_PassThrough(t *testing.T) {
	for _, s := range []string{"running", "booting", "rebooting", "shutting_down", "provisioning", "migrating", "stopped"} {
		t.Run(s, func(t *testing.T) {
			assert.Equal(t, s, NormalizeStatus(s))
		})
	}
}

func TestNormalizeStatus_Empty(t *testing.T) {
	assert.Equal(t, StatusUnknown, NormalizeStatus(""))
}

func TestIsExpectedTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusProvisioning, StatusRunning, true},
		{StatusProvisioning, StatusError, true},
		{StatusRunning, StatusStopped, true},
		{StatusRunning, StatusRebooting, true},
		{StatusStopped, StatusRunning, true},
		{StatusRebooting, StatusRunning, true},
		{StatusRunning, StatusRunning, true},
		{StatusStopped, StatusRebooting, false},
		{StatusProvisioning, StatusStopped, false},
		{StatusError, StatusRunning, false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExpectedTransition(tt.from, tt.to))
		})
	}
}
