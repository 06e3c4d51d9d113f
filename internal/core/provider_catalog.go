package core

import (
	"context"
	"fmt"

	"golang.org/x/crypto/ssh"

	"github.com/edvin/containerstacks/internal/provider"
)

// ProviderCatalogService serves live provider metadata through the catalog
// cache and manages provider account SSH keys.
type ProviderCatalogService struct {
	factory ServiceFactory
	catalog *Catalog
}

func NewProviderCatalogService(factory ServiceFactory, catalog *Catalog) *ProviderCatalogService {
	return &ProviderCatalogService{factory: factory, catalog: catalog}
}

func (s *ProviderCatalogService) service(ctx context.Context, providerID string, refresh bool) (provider.Service, error) {
	svc, err := s.factory.GetProviderService(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if refresh {
		s.catalog.Invalidate(providerID)
	}
	return svc, nil
}

func (s *ProviderCatalogService) Plans(ctx context.Context, providerID string, refresh bool) ([]provider.Plan, error) {
	svc, err := s.service(ctx, providerID, refresh)
	if err != nil {
		return nil, err
	}
	return s.catalog.Plans(ctx, providerID, svc)
}

func (s *ProviderCatalogService) Regions(ctx context.Context, providerID string, refresh bool) ([]provider.Region, error) {
	svc, err := s.service(ctx, providerID, refresh)
	if err != nil {
		return nil, err
	}
	return s.catalog.Regions(ctx, providerID, svc)
}

func (s *ProviderCatalogService) Images(ctx context.Context, providerID string, refresh bool) ([]provider.Image, error) {
	svc, err := s.service(ctx, providerID, refresh)
	if err != nil {
		return nil, err
	}
	return s.catalog.Images(ctx, providerID, svc)
}

func (s *ProviderCatalogService) Apps(ctx context.Context, providerID string, refresh bool) ([]provider.App, error) {
	svc, err := s.service(ctx, providerID, refresh)
	if err != nil {
		return nil, err
	}
	return s.catalog.Apps(ctx, providerID, svc)
}

// Validate reports whether the stored credential is accepted upstream.
func (s *ProviderCatalogService) Validate(ctx context.Context, providerID string) (bool, error) {
	svc, err := s.factory.GetInstanceService(ctx, providerID)
	if err != nil {
		return false, err
	}
	return svc.ValidateCredentials(ctx), nil
}

func (s *ProviderCatalogService) ListSSHKeys(ctx context.Context, providerID string) ([]provider.SSHKey, error) {
	svc, err := s.factory.GetProviderService(ctx, providerID)
	if err != nil {
		return nil, err
	}
	keys, err := svc.ListSSHKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ssh keys: %w", err)
	}
	for i := range keys {
		if keys[i].Fingerprint == "" {
			keys[i].Fingerprint, _ = Fingerprint(keys[i].PublicKey)
		}
	}
	return keys, nil
}

// CreateSSHKey validates publicKey before uploading it.
func (s *ProviderCatalogService) CreateSSHKey(ctx context.Context, providerID, label, publicKey string) (*provider.SSHKey, error) {
	fingerprint, err := Fingerprint(publicKey)
	if err != nil {
		return nil, err
	}
	svc, err := s.factory.GetProviderService(ctx, providerID)
	if err != nil {
		return nil, err
	}
	key, err := svc.CreateSSHKey(ctx, label, publicKey)
	if err != nil {
		return nil, fmt.Errorf("create ssh key: %w", err)
	}
	if key.Fingerprint == "" {
		key.Fingerprint = fingerprint
	}
	return key, nil
}

func (s *ProviderCatalogService) DeleteSSHKey(ctx context.Context, providerID, keyID string) error {
	svc, err := s.factory.GetProviderService(ctx, providerID)
	if err != nil {
		return err
	}
	if err := svc.DeleteSSHKey(ctx, keyID); err != nil {
		return fmt.Errorf("delete ssh key: %w", err)
	}
	return nil
}

// InvalidPublicKeyError is returned for unparseable SSH public keys.
type InvalidPublicKeyError struct {
	Err error
}

func (e *InvalidPublicKeyError) Error() string { return "invalid SSH public key: " + e.Err.Error() }
func (e *InvalidPublicKeyError) Unwrap() error { return e.Err }

// Fingerprint parses an authorized_keys style public key and returns its
// SHA256 fingerprint.
func Fingerprint(publicKey string) (string, error) {
	pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(publicKey))
	if err != nil {
		return "", &InvalidPublicKeyError{Err: err}
	}
	return ssh.FingerprintSHA256(pub), nil
}
