package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/containerstacks/internal/model"
	"github.com/edvin/containerstacks/internal/provider"
)

var (
	reconcileDriftTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vps_reconcile_drift_total",
			Help: "Cached instance fields found out of date with the provider",
		},
		[]string{"field"},
	)

	reconcileErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vps_reconcile_errors_total",
			Help: "Instance reconciliations that could not reach the provider",
		},
		[]string{"provider"},
	)
)

// maxReconcileConcurrency bounds parallel provider calls for one list read.
const maxReconcileConcurrency = 8

// InstanceStateWriter persists reconciled upstream state.
type InstanceStateWriter interface {
	UpdateState(ctx context.Context, id, status string, ip *string, cfg model.InstanceConfig) error
}

// Reconciler brings cached instance rows in line with live provider state.
type Reconciler struct {
	instances InstanceStateWriter
	logger    zerolog.Logger
	now       func() time.Time
}

func NewReconciler(instances InstanceStateWriter, logger zerolog.Logger) *Reconciler {
	return &Reconciler{instances: instances, logger: logger, now: time.Now}
}

// Reconcile fetches the live instance and persists any drift in status, IP
// or configuration. inst is updated in place. A failed fetch leaves inst
// untouched and returns nil; an upstream 404 marks the row as errored with
// provider_missing set.
func (r *Reconciler) Reconcile(ctx context.Context, svc provider.Service, inst *model.VpsInstance) *provider.Instance {
	log := r.log(ctx).With().
		Str("instance_id", inst.ID).
		Str("provider_instance_id", inst.ProviderInstanceID).
		Logger()

	live, err := svc.GetInstance(ctx, inst.ProviderInstanceID)
	if err != nil {
		reconcileErrorsTotal.WithLabelValues(svc.Type()).Inc()
		if provider.IsNotFound(err) {
			r.markMissing(ctx, log, inst)
			return nil
		}
		log.Warn().Err(err).Msg("provider fetch failed, keeping cached instance state")
		return nil
	}

	status := model.NormalizeStatus(live.Status)
	ip := live.FirstIPv4()
	cfg := mergeConfig(inst.Configuration, live)

	changed := false
	if status != inst.Status {
		reconcileDriftTotal.WithLabelValues("status").Inc()
		if !model.IsExpectedTransition(inst.Status, status) {
			log.Debug().Str("from", inst.Status).Str("to", status).Msg("unexpected status transition")
		}
		changed = true
	}
	if ip != inst.IP() {
		reconcileDriftTotal.WithLabelValues("ip_address").Inc()
		changed = true
	}
	if !sameConfig(cfg, inst.Configuration) {
		reconcileDriftTotal.WithLabelValues("configuration").Inc()
		changed = true
	}
	if !changed {
		return live
	}

	var ipPtr *string
	if ip != "" {
		ipPtr = &ip
	}
	if err := r.instances.UpdateState(ctx, inst.ID, status, ipPtr, cfg); err != nil {
		log.Warn().Err(err).Msg("failed to persist reconciled instance state")
	}

	inst.Status = status
	inst.IPAddress = ipPtr
	inst.Configuration = cfg
	inst.UpdatedAt = r.now()
	return live
}

// ReconcileAll reconciles instances concurrently. services is indexed like
// instances; a nil entry skips that instance. The returned live states are
// indexed the same way.
func (r *Reconciler) ReconcileAll(ctx context.Context, instances []model.VpsInstance, services []provider.Service) []*provider.Instance {
	live := make([]*provider.Instance, len(instances))

	var g errgroup.Group
	g.SetLimit(maxReconcileConcurrency)
	for i := range instances {
		svc := services[i]
		if svc == nil {
			continue
		}
		g.Go(func() error {
			live[i] = r.Reconcile(ctx, svc, &instances[i])
			return nil
		})
	}
	_ = g.Wait()
	return live
}

func (r *Reconciler) markMissing(ctx context.Context, log zerolog.Logger, inst *model.VpsInstance) {
	log.Warn().Msg("instance no longer exists upstream")
	if inst.Status == model.StatusError && inst.Configuration.ProviderMissing {
		return
	}

	cfg := inst.Configuration
	cfg.ProviderMissing = true
	reconcileDriftTotal.WithLabelValues("status").Inc()
	if err := r.instances.UpdateState(ctx, inst.ID, model.StatusError, inst.IPAddress, cfg); err != nil {
		log.Warn().Err(err).Msg("failed to mark instance as missing upstream")
	}
	inst.Status = model.StatusError
	inst.Configuration = cfg
	inst.UpdatedAt = r.now()
}

func (r *Reconciler) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &r.logger
}

// mergeConfig overlays provider-reported image, region and type onto the
// cached configuration. A successful fetch clears ProviderMissing.
func mergeConfig(cached model.InstanceConfig, live *provider.Instance) model.InstanceConfig {
	cfg := cached
	if live.Image != "" {
		cfg.Image = live.Image
	}
	if live.Region != "" {
		cfg.Region = live.Region
	}
	if live.Type != "" {
		cfg.Type = live.Type
	}
	cfg.ProviderMissing = false
	return cfg
}

func sameConfig(a, b model.InstanceConfig) bool {
	return a.Image == b.Image && a.Region == b.Region && a.Type == b.Type && a.ProviderMissing == b.ProviderMissing
}

// Enrichment holds the best-effort detail lookups for one instance.
type Enrichment struct {
	Metrics  Optional[provider.Metrics]
	Transfer Optional[provider.Transfer]
	Backups  Optional[provider.Backups]
}

// Unavailable lists the reason for each enrichment that is absent.
func (e Enrichment) Unavailable() map[string]string {
	out := map[string]string{}
	if !e.Metrics.Ok() {
		out["metrics"] = e.Metrics.Reason()
	}
	if !e.Transfer.Ok() {
		out["transfer"] = e.Transfer.Reason()
	}
	if !e.Backups.Ok() {
		out["backups"] = e.Backups.Reason()
	}
	return out
}

// Enrich fetches metrics, transfer and backups concurrently. Each branch
// fails independently.
func (r *Reconciler) Enrich(ctx context.Context, svc provider.Service, providerInstanceID string) Enrichment {
	var e Enrichment
	var g errgroup.Group

	g.Go(func() error {
		v, err := svc.GetInstanceMetrics(ctx, providerInstanceID)
		e.Metrics = OptionalOf(v, err)
		return nil
	})
	g.Go(func() error {
		v, err := svc.GetInstanceTransfer(ctx, providerInstanceID)
		e.Transfer = OptionalOf(v, err)
		return nil
	})
	g.Go(func() error {
		v, err := svc.GetInstanceBackups(ctx, providerInstanceID)
		e.Backups = OptionalOf(v, err)
		return nil
	})
	_ = g.Wait()

	for branch, reason := range e.Unavailable() {
		r.log(ctx).Warn().Str("provider_instance_id", providerInstanceID).Str("enrichment", branch).Str("reason", reason).Msg("instance enrichment unavailable")
	}
	return e
}
