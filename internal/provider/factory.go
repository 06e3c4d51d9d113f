package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/edvin/containerstacks/internal/crypto"
	"github.com/edvin/containerstacks/internal/model"
)

// Store loads configured provider rows. Implementations return an error
// wrapping ErrProviderNotFound when no row matches.
type Store interface {
	GetByID(ctx context.Context, id string) (*model.ServiceProvider, error)
}

// FactoryConfig carries adapter tuning shared by every provider account.
type FactoryConfig struct {
	CredentialsKey          []byte
	Timeout                 time.Duration
	LinodeBaseURL           string
	LinodeRequestsPerSecond float64
	BreakerFailures         uint32
	BreakerTimeout          time.Duration
}

// Factory turns stored provider rows into ready Service implementations.
// Breakers are kept per provider row so their state survives across
// requests.
type Factory struct {
	store  Store
	cfg    FactoryConfig
	logger zerolog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func NewFactory(store Store, cfg FactoryConfig, logger zerolog.Logger) *Factory {
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	return &Factory{
		store:    store,
		cfg:      cfg,
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// GetProviderService loads the provider row, decrypts its credential and
// returns the adapter for its type wrapped with a circuit breaker. Inactive
// providers are rejected.
func (f *Factory) GetProviderService(ctx context.Context, providerID string) (Service, error) {
	return f.load(ctx, providerID, true)
}

// GetInstanceService is GetProviderService for instances that already
// exist upstream. Deactivation only suspends new provisioning, so inactive
// providers are accepted here.
func (f *Factory) GetInstanceService(ctx context.Context, providerID string) (Service, error) {
	return f.load(ctx, providerID, false)
}

func (f *Factory) load(ctx context.Context, providerID string, requireActive bool) (Service, error) {
	p, err := f.store.GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("provider %s: %w", providerID, ErrProviderNotFound)
	}
	if requireActive && !p.Active {
		return nil, fmt.Errorf("provider %s: %w", p.Name, ErrProviderInactive)
	}

	token, err := f.decrypt(p)
	if err != nil {
		return nil, err
	}

	svc, err := f.New(p.Type, token, p.ParsedConfiguration().BaseURL)
	if err != nil {
		return nil, err
	}
	return NewInstrumented(svc, f.breaker(p), f.logger), nil
}

// New builds a bare adapter for a provider type and plaintext token.
func (f *Factory) New(providerType, token, baseURL string) (Service, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingCredentials
	}

	switch providerType {
	case model.ProviderLinode:
		if baseURL == "" {
			baseURL = f.cfg.LinodeBaseURL
		}
		return NewLinode(token, LinodeOptions{
			BaseURL:           baseURL,
			Timeout:           f.cfg.Timeout,
			RequestsPerSecond: f.cfg.LinodeRequestsPerSecond,
		}), nil
	case model.ProviderDigitalOcean:
		return NewDigitalOcean(token, baseURL)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, providerType)
	}
}

// Forget drops cached breaker state, e.g. after the credential changed.
func (f *Factory) Forget(providerID string) {
	f.mu.Lock()
	delete(f.breakers, providerID)
	f.mu.Unlock()
}

func (f *Factory) decrypt(p *model.ServiceProvider) (string, error) {
	if p.APIKeyEncrypted == "" {
		return "", fmt.Errorf("provider %s: %w", p.Name, ErrMissingCredentials)
	}
	plain, err := crypto.Decrypt(p.APIKeyEncrypted, f.cfg.CredentialsKey)
	if err != nil {
		return "", fmt.Errorf("decrypt credentials for provider %s: %w", p.ID, err)
	}
	token := strings.TrimSpace(string(plain))
	if token == "" {
		return "", fmt.Errorf("provider %s: %w", p.Name, ErrMissingCredentials)
	}
	return token, nil
}

func (f *Factory) breaker(p *model.ServiceProvider) *gobreaker.CircuitBreaker[any] {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cb, ok := f.breakers[p.ID]; ok {
		return cb
	}

	name := p.Type + ":" + p.ID
	failures := f.cfg.BreakerFailures
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     f.cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("provider circuit breaker state change")
			providerBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	providerBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))
	f.breakers[p.ID] = cb
	return cb
}

// isBreakerSuccess keeps caller mistakes (4xx other than 429, unsupported
// operations, cancellations) from tripping the breaker.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, ErrNotSupported) || errors.Is(err, context.Canceled) {
		return true
	}
	var unknown *UnknownActionError
	if errors.As(err, &unknown) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != 429
	}
	return false
}
