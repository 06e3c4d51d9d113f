package core

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/containerstacks/internal/model"
	"github.com/edvin/containerstacks/internal/provider"
)

type vpsFixture struct {
	svc       *VpsService
	upstream  *fakeProvider
	instances *fakeInstances
	activity  *fakeActivity
	factory   *fakeFactory
}

func newVpsFixture(plans []model.VpsPlan, rows ...model.VpsInstance) *vpsFixture {
	f := &vpsFixture{
		upstream:  newFakeProvider(),
		instances: newFakeInstances(rows...),
		activity:  &fakeActivity{},
	}
	f.upstream.plans = []provider.Plan{{ID: "g6-nanode-1", VCPUs: 1, MemoryMB: 1024, DiskMB: 25600, TransferGB: 1000}}
	f.upstream.regions = []provider.Region{{ID: "us-east", Label: "Newark, NJ"}}
	f.factory = newFakeFactory(testProviderID, f.upstream)
	f.svc = NewVpsService(f.instances, &fakePlans{plans: plans}, fakeDirectory{id: testProviderID}, f.factory,
		NewCatalog(), f.activity, zerolog.Nop())
	return f
}

func TestVpsService_CreateWithProviderType(t *testing.T) {
	f := newVpsFixture(nil)

	inst, err := f.svc.Create(context.Background(), CreateVpsInput{
		OrganizationID: testOrgID,
		UserID:         "user-1",
		Label:          "web-1",
		Type:           "g6-nanode-1",
		Region:         "us-east",
		Image:          "linode/ubuntu24.04",
		RootPassword:   "S3cure!pass",
	})
	require.NoError(t, err)

	assert.Equal(t, "g6-nanode-1", inst.PlanID)
	assert.Equal(t, testProviderID, *inst.ProviderID)
	assert.Equal(t, "123", inst.ProviderInstanceID)
	assert.Equal(t, model.StatusProvisioning, inst.Status)
	assert.Equal(t, "203.0.113.10", inst.IP())
	assert.Equal(t, "us-east", inst.Configuration.Region)

	row, ok := f.instances.get(inst.ID)
	require.True(t, ok)
	assert.Equal(t, testOrgID, row.OrganizationID)

	require.Len(t, f.upstream.created, 1)
	assert.Equal(t, "S3cure!pass", f.upstream.created[0].RootPassword)
	assert.Equal(t, []string{model.ActivityVPSCreate}, f.activity.types())
}

func TestVpsService_CreateWithPlanID(t *testing.T) {
	plans := []model.VpsPlan{{
		ID: testPlanID, ProviderID: testProviderID, ProviderPlanID: "g6-standard-2",
		Specifications: map[string]any{"region": "eu-west"}, Active: true,
	}}
	f := newVpsFixture(plans)

	inst, err := f.svc.Create(context.Background(), CreateVpsInput{
		OrganizationID: testOrgID, Label: "db-1", Type: testPlanID, Image: "linode/debian12",
	})
	require.NoError(t, err)
	assert.Equal(t, testPlanID, inst.PlanID)
	assert.Equal(t, "eu-west", inst.Configuration.Region)
	assert.Equal(t, "g6-standard-2", f.upstream.created[0].Type)
}

func TestVpsService_CreateAppDropsStackScript(t *testing.T) {
	f := newVpsFixture(nil)

	_, err := f.svc.Create(context.Background(), CreateVpsInput{
		OrganizationID: testOrgID, Label: "wp", Type: "g6-nanode-1", Region: "us-east",
		AppSlug: "wordpress", StackScriptID: 42, StackScriptData: map[string]string{"a": "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "wordpress", f.upstream.created[0].AppSlug)
	assert.Zero(t, f.upstream.created[0].StackScriptID)
	assert.Nil(t, f.upstream.created[0].StackScriptData)
}

func TestVpsService_CreateProviderFailureInsertsNothing(t *testing.T) {
	f := newVpsFixture(nil)
	f.upstream.createErr = &provider.APIError{Provider: "fake", Operation: "create instance", StatusCode: 400, Reason: "bad image", Field: "image"}

	_, err := f.svc.Create(context.Background(), CreateVpsInput{
		OrganizationID: testOrgID, Label: "web-1", Type: "g6-nanode-1", Region: "us-east",
	})
	var apiErr *provider.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "image", apiErr.Field)

	all, _ := f.instances.ListAll(context.Background())
	assert.Empty(t, all)
	assert.Empty(t, f.activity.types())
}

func TestVpsService_CreateRecordFailure(t *testing.T) {
	f := newVpsFixture(nil)
	f.instances.createErr = errBoom

	_, err := f.svc.Create(context.Background(), CreateVpsInput{
		OrganizationID: testOrgID, Label: "web-1", Type: "g6-nanode-1", Region: "us-east",
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Len(t, f.upstream.instances, 1)
}

func TestVpsService_ListReconciles(t *testing.T) {
	inst := testInstance()
	plans := []model.VpsPlan{{
		ID: testPlanID, ProviderID: testProviderID, ProviderPlanID: "g6-nanode-1",
		BasePrice: 5, MarkupPrice: 2.3, Specifications: map[string]any{"vcpus": 1, "memory_gb": 1, "storage_gb": 25},
	}}
	f := newVpsFixture(plans, inst)
	f.upstream.instances["123"] = liveFor(inst, "offline")

	views, err := f.svc.List(context.Background(), testOrgID)
	require.NoError(t, err)
	require.Len(t, views, 1)

	v := views[0]
	assert.Equal(t, model.StatusStopped, v.Status)
	assert.Equal(t, "Newark, NJ", v.RegionLabel)
	assert.Equal(t, model.PlanSpecs{VCPUs: 1, Memory: 1024, Disk: 25600}, v.PlanSpecs)
	assert.InDelta(t, 7.3, v.PlanPricing.Monthly, 1e-9)
	assert.InDelta(t, 0.01, v.PlanPricing.Hourly, 1e-9)

	row, _ := f.instances.get(testInstanceID)
	assert.Equal(t, model.StatusStopped, row.Status)
}

func TestVpsService_ListProviderUnavailable(t *testing.T) {
	inst := testInstance()
	f := newVpsFixture(nil, inst)
	f.factory.err = errBoom

	views, err := f.svc.List(context.Background(), testOrgID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, model.StatusRunning, views[0].Status)
	assert.Equal(t, "us-east", views[0].RegionLabel)
}

func TestVpsService_ListOtherOrganization(t *testing.T) {
	f := newVpsFixture(nil, testInstance())

	views, err := f.svc.List(context.Background(), testOtherOrgID)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestVpsService_GetMetricsFailure(t *testing.T) {
	inst := testInstance()
	f := newVpsFixture(nil, inst)
	f.upstream.instances["123"] = liveFor(inst, "running")
	f.upstream.metricsErr = errBoom

	detail, err := f.svc.Get(context.Background(), testOrgID, testInstanceID)
	require.NoError(t, err)

	assert.NotNil(t, detail.Provider)
	assert.False(t, detail.Metrics.Ok())
	assert.True(t, detail.Transfer.Ok())
	assert.True(t, detail.Backups.Ok())
	assert.Equal(t, map[string]string{"metrics": "boom"}, detail.Unavailable)
	require.NotNil(t, detail.Plan)
	assert.Equal(t, "g6-nanode-1", detail.Plan.Type)

	b, err := json.Marshal(detail)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(b, &body))
	assert.Nil(t, body["metrics"])
	assert.NotNil(t, body["transfer"])
}

func TestVpsService_GetProviderDown(t *testing.T) {
	inst := testInstance()
	f := newVpsFixture(nil, inst)
	f.upstream.getErr = errBoom

	detail, err := f.svc.Get(context.Background(), testOrgID, testInstanceID)
	require.NoError(t, err)
	assert.Nil(t, detail.Provider)
	assert.Equal(t, model.StatusRunning, detail.Instance.Status)
	assert.Len(t, detail.Unavailable, 3)
}

func TestVpsService_GetOtherOrganization(t *testing.T) {
	f := newVpsFixture(nil, testInstance())

	_, err := f.svc.Get(context.Background(), testOtherOrgID, testInstanceID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVpsService_PerformAction(t *testing.T) {
	inst := testInstance()
	f := newVpsFixture(nil, inst)
	f.upstream.instances["123"] = liveFor(inst, "running")

	got, err := f.svc.PerformAction(context.Background(), testOrgID, "user-1", testInstanceID, provider.ActionShutdown)
	require.NoError(t, err)
	assert.Equal(t, model.StatusStopped, got.Status)
	assert.Equal(t, []provider.Action{provider.ActionShutdown}, f.upstream.actions)
	assert.Equal(t, []string{model.ActivityVPSShutdown}, f.activity.types())
}

func TestVpsService_PerformActionInactiveProvider(t *testing.T) {
	inst := testInstance()
	f := newVpsFixture(nil, inst)
	f.upstream.instances["123"] = liveFor(inst, "offline")
	f.factory.inactive[testProviderID] = true

	got, err := f.svc.PerformAction(context.Background(), testOrgID, "user-1", testInstanceID, provider.ActionBoot)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRunning, got.Status)
}

func TestVpsService_PerformActionUpstreamError(t *testing.T) {
	inst := testInstance()
	f := newVpsFixture(nil, inst)
	f.upstream.instances["123"] = liveFor(inst, "running")
	f.upstream.actionErr = &provider.APIError{Provider: "fake", Operation: "reboot", StatusCode: 500}

	_, err := f.svc.PerformAction(context.Background(), testOrgID, "user-1", testInstanceID, provider.ActionReboot)
	require.Error(t, err)
	assert.Empty(t, f.activity.types())
}

func TestVpsService_DeleteUpstreamFirst(t *testing.T) {
	inst := testInstance()
	f := newVpsFixture(nil, inst)
	f.upstream.instances["123"] = liveFor(inst, "running")

	require.NoError(t, f.svc.Delete(context.Background(), testOrgID, "user-1", testInstanceID))
	_, ok := f.instances.get(testInstanceID)
	assert.False(t, ok)
	assert.Empty(t, f.upstream.instances)
	assert.Equal(t, []string{model.ActivityVPSDelete}, f.activity.types())
}

func TestVpsService_DeleteUpstreamFailureKeepsRow(t *testing.T) {
	inst := testInstance()
	f := newVpsFixture(nil, inst)
	f.upstream.instances["123"] = liveFor(inst, "running")
	f.upstream.actionErr = &provider.APIError{Provider: "fake", Operation: "delete", StatusCode: 500}

	err := f.svc.Delete(context.Background(), testOrgID, "user-1", testInstanceID)
	require.Error(t, err)
	_, ok := f.instances.get(testInstanceID)
	assert.True(t, ok)
	assert.Empty(t, f.activity.types())
}

func TestVpsService_DeleteAlreadyGoneUpstream(t *testing.T) {
	f := newVpsFixture(nil, testInstance())

	require.NoError(t, f.svc.Delete(context.Background(), testOrgID, "user-1", testInstanceID))
	_, ok := f.instances.get(testInstanceID)
	assert.False(t, ok)
}

func TestVpsService_DeleteViaAction(t *testing.T) {
	inst := testInstance()
	f := newVpsFixture(nil, inst)
	f.upstream.instances["123"] = liveFor(inst, "running")

	got, err := f.svc.PerformAction(context.Background(), testOrgID, "user-1", testInstanceID, provider.ActionDelete)
	require.NoError(t, err)
	assert.Nil(t, got)
	_, ok := f.instances.get(testInstanceID)
	assert.False(t, ok)
}

func TestVpsService_Plans(t *testing.T) {
	plans := []model.VpsPlan{
		{ID: testPlanID, ProviderID: testProviderID, Name: "Nano", ProviderPlanID: "g6-nanode-1", BasePrice: 73, Active: true,
			Specifications: map[string]any{"cpu_cores": 1, "memory": 1024, "region": "us-east"}},
		{ID: "77777777-7777-4777-8777-777777777777", Name: "Retired", Active: false},
	}
	f := newVpsFixture(plans)

	views, err := f.svc.Plans(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "g6-nanode-1", views[0].Type)
	assert.Equal(t, "us-east", views[0].Region)
	assert.Equal(t, float64(1), views[0].Specs.VCPUs)
	assert.InDelta(t, 0.1, views[0].Pricing.Hourly, 1e-9)
}
