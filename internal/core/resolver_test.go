package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/containerstacks/internal/model"
	"github.com/edvin/containerstacks/internal/provider"
)

func newTestResolver(plans []model.VpsPlan, svc *fakeProvider) *Resolver {
	return NewResolver(&fakePlans{plans: plans}, fakeDirectory{id: testProviderID}, newFakeFactory(testProviderID, svc), NewCatalog())
}

func TestResolve_LiveTypeWithExplicitRegion(t *testing.T) {
	svc := newFakeProvider()
	svc.plans = []provider.Plan{{ID: "g6-nanode-1"}}
	r := newTestResolver(nil, svc)

	res, err := r.Resolve(context.Background(), ResolveRequest{Identifier: "g6-nanode-1", Region: "us-east"})
	require.NoError(t, err)
	assert.Equal(t, testProviderID, res.ProviderID)
	assert.Equal(t, "g6-nanode-1", res.Type)
	assert.Equal(t, "us-east", res.Region)
	assert.Equal(t, "g6-nanode-1", res.PlanID)
	assert.Nil(t, res.Plan)
}

func TestResolve_LiveTypeWithPlanRow(t *testing.T) {
	svc := newFakeProvider()
	svc.plans = []provider.Plan{{ID: "g6-standard-2"}}
	plans := []model.VpsPlan{{
		ID: testPlanID, ProviderID: testProviderID, ProviderPlanID: "g6-standard-2",
		Specifications: map[string]any{"region": "eu-west"},
	}}
	r := newTestResolver(plans, svc)

	res, err := r.Resolve(context.Background(), ResolveRequest{Identifier: "g6-standard-2"})
	require.NoError(t, err)
	assert.Equal(t, testPlanID, res.PlanID)
	assert.Equal(t, "eu-west", res.Region)
	assert.Same(t, &plans[0], res.Plan)
}

func TestResolve_PlanIDUsesPlanRegion(t *testing.T) {
	svc := newFakeProvider()
	svc.plans = []provider.Plan{{ID: "g6-standard-2"}}
	plans := []model.VpsPlan{{
		ID: testPlanID, ProviderID: testProviderID, ProviderPlanID: "g6-standard-2",
		Specifications: map[string]any{"region": "eu-west"},
	}}
	r := newTestResolver(plans, svc)

	res, err := r.Resolve(context.Background(), ResolveRequest{Identifier: testPlanID})
	require.NoError(t, err)
	assert.Equal(t, "g6-standard-2", res.Type)
	assert.Equal(t, "eu-west", res.Region)
	assert.Equal(t, testPlanID, res.PlanID)
}

func TestResolve_ExplicitRegionWinsOverPlan(t *testing.T) {
	svc := newFakeProvider()
	plans := []model.VpsPlan{{
		ID: testPlanID, ProviderID: testProviderID, ProviderPlanID: "g6-standard-2",
		Specifications: map[string]any{"region": "eu-west"},
	}}
	r := newTestResolver(plans, svc)

	res, err := r.Resolve(context.Background(), ResolveRequest{Identifier: testPlanID, Region: "ap-south"})
	require.NoError(t, err)
	assert.Equal(t, "ap-south", res.Region)
}

func TestResolve_PlanRowWhenLiveListingFails(t *testing.T) {
	svc := newFakeProvider()
	svc.plansErr = errBoom
	plans := []model.VpsPlan{{ID: testPlanID, ProviderID: testProviderID, ProviderPlanID: "g6-nanode-1"}}
	r := newTestResolver(plans, svc)

	res, err := r.Resolve(context.Background(), ResolveRequest{Identifier: "g6-nanode-1", Region: "us-east"})
	require.NoError(t, err)
	assert.Equal(t, "g6-nanode-1", res.Type)
	assert.Equal(t, testPlanID, res.PlanID)
}

func TestResolve_Unknown(t *testing.T) {
	svc := newFakeProvider()
	svc.plans = []provider.Plan{{ID: "g6-nanode-1"}}
	r := newTestResolver(nil, svc)

	_, err := r.Resolve(context.Background(), ResolveRequest{Identifier: "does-not-exist", Region: "us-east"})
	assert.ErrorIs(t, err, ErrInvalidPlan)

	_, err = r.Resolve(context.Background(), ResolveRequest{Region: "us-east"})
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestResolve_PlanWithoutProviderType(t *testing.T) {
	svc := newFakeProvider()
	plans := []model.VpsPlan{{ID: testPlanID, ProviderID: testProviderID}}
	r := newTestResolver(plans, svc)

	_, err := r.Resolve(context.Background(), ResolveRequest{Identifier: testPlanID, Region: "us-east"})
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestResolve_MissingRegion(t *testing.T) {
	svc := newFakeProvider()
	svc.plans = []provider.Plan{{ID: "g6-nanode-1"}}
	r := newTestResolver(nil, svc)

	_, err := r.Resolve(context.Background(), ResolveRequest{Identifier: "g6-nanode-1"})
	assert.ErrorIs(t, err, ErrMissingRegion)
}

func TestResolve_InactiveProvider(t *testing.T) {
	svc := newFakeProvider()
	f := newFakeFactory(testProviderID, svc)
	f.inactive[testProviderID] = true
	r := NewResolver(&fakePlans{}, fakeDirectory{id: testProviderID}, f, NewCatalog())

	_, err := r.Resolve(context.Background(), ResolveRequest{Identifier: "g6-nanode-1", Region: "us-east"})
	assert.ErrorIs(t, err, provider.ErrProviderInactive)
}

func TestResolve_NoDefaultProvider(t *testing.T) {
	r := NewResolver(&fakePlans{}, fakeDirectory{}, newFakeFactory(testProviderID, newFakeProvider()), NewCatalog())

	_, err := r.Resolve(context.Background(), ResolveRequest{Identifier: "g6-nanode-1", Region: "us-east"})
	assert.ErrorIs(t, err, provider.ErrProviderNotFound)
}
