package core

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/containerstacks/internal/provider"
)

func TestNewServices(t *testing.T) {
	db := &mockDB{}

	svcs := NewServices(db, provider.FactoryConfig{CredentialsKey: make([]byte, 32)}, zerolog.Nop())
	defer svcs.Activity.Close()

	require.NotNil(t, svcs)
	assert.NotNil(t, svcs.Provider)
	assert.NotNil(t, svcs.Plan)
	assert.NotNil(t, svcs.Instance)
	assert.NotNil(t, svcs.Catalog)
	assert.NotNil(t, svcs.Factory)
	assert.NotNil(t, svcs.Vps)
	assert.NotNil(t, svcs.Vps.Reconciler())
	assert.NotNil(t, svcs.ProviderCatalog)
	assert.NotNil(t, svcs.ProviderAdmin)
}
