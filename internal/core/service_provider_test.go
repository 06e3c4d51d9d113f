package core

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/containerstacks/internal/model"
	"github.com/edvin/containerstacks/internal/provider"
)

func scanProviderRow(id string, active bool) func(dest ...any) error {
	now := time.Now()
	return func(dest ...any) error {
		*(dest[0].(*string)) = id
		*(dest[1].(*string)) = "Linode primary"
		*(dest[2].(*string)) = model.ProviderLinode
		*(dest[3].(*string)) = "ciphertext"
		*(dest[4].(*json.RawMessage)) = json.RawMessage(`{}`)
		*(dest[5].(*bool)) = active
		*(dest[6].(*time.Time)) = now
		*(dest[7].(*time.Time)) = now
		return nil
	}
}

func TestServiceProviderService_Create_EmptyConfiguration(t *testing.T) {
	db := &mockDB{}
	svc := NewServiceProviderService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
		return string(args[4].([]byte)) == "{}"
	})).Return(pgconn.CommandTag{}, nil)

	require.NoError(t, svc.Create(ctx, &model.ServiceProvider{ID: testProviderID, Type: model.ProviderLinode}))
	db.AssertExpectations(t)
}

func TestServiceProviderService_GetByID(t *testing.T) {
	db := &mockDB{}
	svc := NewServiceProviderService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{testProviderID}).
		Return(&mockRow{scanFunc: scanProviderRow(testProviderID, true)})

	p, err := svc.GetByID(ctx, testProviderID)
	require.NoError(t, err)
	assert.Equal(t, model.ProviderLinode, p.Type)
	assert.True(t, p.Active)
}

func TestServiceProviderService_GetByID_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewServiceProviderService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(noRow())

	_, err := svc.GetByID(ctx, testProviderID)
	assert.ErrorIs(t, err, provider.ErrProviderNotFound)

	_, err = svc.GetByID(ctx, "linode")
	assert.ErrorIs(t, err, provider.ErrProviderNotFound)
}

func TestServiceProviderService_DefaultActive_None(t *testing.T) {
	db := &mockDB{}
	svc := NewServiceProviderService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(noRow())

	_, err := svc.DefaultActive(ctx)
	assert.ErrorIs(t, err, provider.ErrProviderNotFound)
}

func TestServiceProviderService_List(t *testing.T) {
	db := &mockDB{}
	svc := NewServiceProviderService(db)
	ctx := context.Background()

	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(newMockRows(scanProviderRow(testProviderID, true), scanProviderRow("p2", false)), nil)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[1].Active)
}

func TestServiceProviderService_Update_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewServiceProviderService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := svc.Update(ctx, &model.ServiceProvider{ID: testProviderID})
	assert.ErrorIs(t, err, provider.ErrProviderNotFound)
}
