package core

import (
	"context"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/rs/zerolog"

	"github.com/edvin/containerstacks/internal/model"
	"github.com/edvin/containerstacks/internal/provider"
)

// InstanceLister lists every instance across organizations.
type InstanceLister interface {
	ListAll(ctx context.Context) ([]model.VpsInstance, error)
}

// Sweeper periodically reconciles all instances in the background. Reads
// reconcile on their own regardless of when the last sweep ran.
type Sweeper struct {
	instances InstanceLister
	vps       *VpsService
	interval  time.Duration
	workers   int
	logger    zerolog.Logger
}

func NewSweeper(instances InstanceLister, vps *VpsService, interval time.Duration, workers int, logger zerolog.Logger) *Sweeper {
	if workers <= 0 {
		workers = 1
	}
	return &Sweeper{
		instances: instances,
		vps:       vps,
		interval:  interval,
		workers:   workers,
		logger:    logger.With().Str("component", "sweeper").Logger(),
	}
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Int("workers", s.workers).Msg("reconciliation sweeper started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("reconciliation sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("reconciliation sweep failed")
			}
		}
	}
}

// Sweep reconciles every instance once and returns how many were reached.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	instances, err := s.instances.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	ctx = s.logger.WithContext(ctx)
	scope := s.vps.newReadScope()
	services := make([]provider.Service, len(instances))
	for i := range instances {
		services[i] = scope.service(ctx, &instances[i])
	}

	live := make([]bool, len(instances))
	pool := pond.NewPool(s.workers)
	for i := range instances {
		if services[i] == nil {
			continue
		}
		pool.Submit(func() {
			live[i] = s.vps.reconciler.Reconcile(ctx, services[i], &instances[i]) != nil
		})
	}
	pool.StopAndWait()

	reached := 0
	for _, ok := range live {
		if ok {
			reached++
		}
	}
	s.logger.Debug().Int("instances", len(instances)).Int("reached", reached).Msg("reconciliation sweep finished")
	return reached, nil
}
