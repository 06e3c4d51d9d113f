package provider

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

var (
	providerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total number of upstream provider API operations",
		},
		[]string{"provider", "operation", "result"},
	)

	providerBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "provider_breaker_state",
			Help: "Provider circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"provider"},
	)
)

// ErrCircuitOpen is returned without calling upstream while a provider's
// breaker is open.
var ErrCircuitOpen = errors.New("provider temporarily unavailable")

// Instrumented decorates a Service with a circuit breaker and request
// metrics. ValidateCredentials bypasses the breaker.
type Instrumented struct {
	next   Service
	cb     *gobreaker.CircuitBreaker[any]
	logger zerolog.Logger
}

func NewInstrumented(next Service, cb *gobreaker.CircuitBreaker[any], logger zerolog.Logger) *Instrumented {
	return &Instrumented{next: next, cb: cb, logger: logger}
}

// Unwrap returns the decorated adapter.
func (s *Instrumented) Unwrap() Service { return s.next }

func (s *Instrumented) Type() string { return s.next.Type() }

// call runs fn through the breaker and records the outcome.
func call[T any](s *Instrumented, op string, fn func() (T, error)) (T, error) {
	out, err := s.cb.Execute(func() (any, error) {
		return fn()
	})

	result := "success"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		result = "rejected"
		err = ErrCircuitOpen
	case err != nil:
		result = "error"
	}
	providerRequestsTotal.WithLabelValues(s.next.Type(), op, result).Inc()

	var zero T
	if err != nil {
		return zero, err
	}
	v, _ := out.(T)
	return v, nil
}

func (s *Instrumented) CreateInstance(ctx context.Context, spec CreateSpec) (*Instance, error) {
	return call(s, "create_instance", func() (*Instance, error) { return s.next.CreateInstance(ctx, spec) })
}

func (s *Instrumented) GetInstance(ctx context.Context, id string) (*Instance, error) {
	return call(s, "get_instance", func() (*Instance, error) { return s.next.GetInstance(ctx, id) })
}

func (s *Instrumented) PerformAction(ctx context.Context, id string, action Action) error {
	_, err := call(s, "action_"+string(action), func() (struct{}, error) {
		return struct{}{}, s.next.PerformAction(ctx, id, action)
	})
	return err
}

func (s *Instrumented) ListPlans(ctx context.Context) ([]Plan, error) {
	return call(s, "list_plans", func() ([]Plan, error) { return s.next.ListPlans(ctx) })
}

func (s *Instrumented) ListRegions(ctx context.Context) ([]Region, error) {
	return call(s, "list_regions", func() ([]Region, error) { return s.next.ListRegions(ctx) })
}

func (s *Instrumented) ListImages(ctx context.Context) ([]Image, error) {
	return call(s, "list_images", func() ([]Image, error) { return s.next.ListImages(ctx) })
}

func (s *Instrumented) ListMarketplaceApps(ctx context.Context) ([]App, error) {
	return call(s, "list_apps", func() ([]App, error) { return s.next.ListMarketplaceApps(ctx) })
}

func (s *Instrumented) GetInstanceMetrics(ctx context.Context, id string) (*Metrics, error) {
	return call(s, "get_metrics", func() (*Metrics, error) { return s.next.GetInstanceMetrics(ctx, id) })
}

func (s *Instrumented) GetInstanceTransfer(ctx context.Context, id string) (*Transfer, error) {
	return call(s, "get_transfer", func() (*Transfer, error) { return s.next.GetInstanceTransfer(ctx, id) })
}

func (s *Instrumented) GetInstanceBackups(ctx context.Context, id string) (*Backups, error) {
	return call(s, "get_backups", func() (*Backups, error) { return s.next.GetInstanceBackups(ctx, id) })
}

func (s *Instrumented) ListSSHKeys(ctx context.Context) ([]SSHKey, error) {
	return call(s, "list_ssh_keys", func() ([]SSHKey, error) { return s.next.ListSSHKeys(ctx) })
}

func (s *Instrumented) CreateSSHKey(ctx context.Context, label, publicKey string) (*SSHKey, error) {
	return call(s, "create_ssh_key", func() (*SSHKey, error) { return s.next.CreateSSHKey(ctx, label, publicKey) })
}

func (s *Instrumented) DeleteSSHKey(ctx context.Context, id string) error {
	_, err := call(s, "delete_ssh_key", func() (struct{}, error) {
		return struct{}{}, s.next.DeleteSSHKey(ctx, id)
	})
	return err
}

func (s *Instrumented) ValidateCredentials(ctx context.Context) bool {
	ok := s.next.ValidateCredentials(ctx)
	result := "success"
	if !ok {
		result = "error"
		s.logger.Warn().Str("provider", s.next.Type()).Msg("provider credential validation failed")
	}
	providerRequestsTotal.WithLabelValues(s.next.Type(), "validate_credentials", result).Inc()
	return ok
}
