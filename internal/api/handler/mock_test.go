package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/edvin/containerstacks/internal/core"
	"github.com/edvin/containerstacks/internal/model"
	"github.com/edvin/containerstacks/internal/provider"
)

type mockVpsService struct {
	mock.Mock
}

func (m *mockVpsService) List(ctx context.Context, orgID string) ([]core.InstanceView, error) {
	args := m.Called(ctx, orgID)
	views, _ := args.Get(0).([]core.InstanceView)
	return views, args.Error(1)
}

func (m *mockVpsService) Get(ctx context.Context, orgID, id string) (*core.InstanceDetail, error) {
	args := m.Called(ctx, orgID, id)
	detail, _ := args.Get(0).(*core.InstanceDetail)
	return detail, args.Error(1)
}

func (m *mockVpsService) Create(ctx context.Context, in core.CreateVpsInput) (*model.VpsInstance, error) {
	args := m.Called(ctx, in)
	inst, _ := args.Get(0).(*model.VpsInstance)
	return inst, args.Error(1)
}

func (m *mockVpsService) PerformAction(ctx context.Context, orgID, userID, id string, action provider.Action) (*model.VpsInstance, error) {
	args := m.Called(ctx, orgID, userID, id, action)
	inst, _ := args.Get(0).(*model.VpsInstance)
	return inst, args.Error(1)
}

func (m *mockVpsService) Delete(ctx context.Context, orgID, userID, id string) error {
	return m.Called(ctx, orgID, userID, id).Error(0)
}

func (m *mockVpsService) Plans(ctx context.Context) ([]core.PlanView, error) {
	args := m.Called(ctx)
	plans, _ := args.Get(0).([]core.PlanView)
	return plans, args.Error(1)
}

type mockProviderCatalog struct {
	mock.Mock
}

func (m *mockProviderCatalog) Plans(ctx context.Context, providerID string, refresh bool) ([]provider.Plan, error) {
	args := m.Called(ctx, providerID, refresh)
	v, _ := args.Get(0).([]provider.Plan)
	return v, args.Error(1)
}

func (m *mockProviderCatalog) Regions(ctx context.Context, providerID string, refresh bool) ([]provider.Region, error) {
	args := m.Called(ctx, providerID, refresh)
	v, _ := args.Get(0).([]provider.Region)
	return v, args.Error(1)
}

func (m *mockProviderCatalog) Images(ctx context.Context, providerID string, refresh bool) ([]provider.Image, error) {
	args := m.Called(ctx, providerID, refresh)
	v, _ := args.Get(0).([]provider.Image)
	return v, args.Error(1)
}

func (m *mockProviderCatalog) Apps(ctx context.Context, providerID string, refresh bool) ([]provider.App, error) {
	args := m.Called(ctx, providerID, refresh)
	v, _ := args.Get(0).([]provider.App)
	return v, args.Error(1)
}

func (m *mockProviderCatalog) Validate(ctx context.Context, providerID string) (bool, error) {
	args := m.Called(ctx, providerID)
	return args.Bool(0), args.Error(1)
}

func (m *mockProviderCatalog) ListSSHKeys(ctx context.Context, providerID string) ([]provider.SSHKey, error) {
	args := m.Called(ctx, providerID)
	v, _ := args.Get(0).([]provider.SSHKey)
	return v, args.Error(1)
}

func (m *mockProviderCatalog) CreateSSHKey(ctx context.Context, providerID, label, publicKey string) (*provider.SSHKey, error) {
	args := m.Called(ctx, providerID, label, publicKey)
	v, _ := args.Get(0).(*provider.SSHKey)
	return v, args.Error(1)
}

func (m *mockProviderCatalog) DeleteSSHKey(ctx context.Context, providerID, keyID string) error {
	return m.Called(ctx, providerID, keyID).Error(0)
}

type mockProviderAdmin struct {
	mock.Mock
}

func (m *mockProviderAdmin) List(ctx context.Context) ([]model.ServiceProvider, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]model.ServiceProvider)
	return v, args.Error(1)
}

func (m *mockProviderAdmin) Create(ctx context.Context, in core.ProviderInput) (*model.ServiceProvider, error) {
	args := m.Called(ctx, in)
	v, _ := args.Get(0).(*model.ServiceProvider)
	return v, args.Error(1)
}

func (m *mockProviderAdmin) Update(ctx context.Context, id string, patch core.ProviderPatch) (*model.ServiceProvider, error) {
	args := m.Called(ctx, id, patch)
	v, _ := args.Get(0).(*model.ServiceProvider)
	return v, args.Error(1)
}
