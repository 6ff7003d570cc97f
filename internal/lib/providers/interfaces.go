package providers

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/mistweaverco/selfupdate/internal/config"
)

// Provider lists and downloads the releases of one repository.
type Provider interface {
	Type() string
	// Releases returns the available releases, newest first.
	Releases(ctx context.Context) ([]Release, error)
	// Download stores the zip archive of release at dest.
	Download(ctx context.Context, release Release, dest string) error
}

// ProviderFactory creates repository providers
type ProviderFactory interface {
	CreateGitHubProvider(name string, cfg config.RepositoryConfig) Provider
	CreateHTTPProvider(name string, cfg config.RepositoryConfig) Provider
	CreateWebDAVProvider(name string, cfg config.RepositoryConfig) Provider
}

// DefaultProviderFactory is the default implementation
type DefaultProviderFactory struct{}

func (f *DefaultProviderFactory) CreateGitHubProvider(name string, cfg config.RepositoryConfig) Provider {
	return NewGitHubProvider(name, cfg)
}

func (f *DefaultProviderFactory) CreateHTTPProvider(name string, cfg config.RepositoryConfig) Provider {
	return NewHTTPProvider(name, cfg)
}

func (f *DefaultProviderFactory) CreateWebDAVProvider(name string, cfg config.RepositoryConfig) Provider {
	return NewWebDAVProvider(name, cfg)
}

// Global factory instance - can be replaced for testing
var globalFactory ProviderFactory = &DefaultProviderFactory{}

// SetProviderFactory allows setting a custom factory for testing
func SetProviderFactory(factory ProviderFactory) {
	globalFactory = factory
}

// ResetProviderFactory resets to the default factory
func ResetProviderFactory() {
	globalFactory = &DefaultProviderFactory{}
}

// GetProviderFactory returns the factory currently in use
func GetProviderFactory() ProviderFactory {
	return globalFactory
}

// AvailableTypes lists the repository types built into selfupdate
var AvailableTypes = []string{
	config.TypeGitHub,
	config.TypeHTTP,
	config.TypeWebDAV,
}

// IsSupportedType returns true if the given repository type is built in
func IsSupportedType(name string) bool {
	for _, t := range AvailableTypes {
		if t == name {
			return true
		}
	}
	return false
}

// New creates the built-in provider for cfg.Type through factory.
func New(factory ProviderFactory, name string, cfg config.RepositoryConfig) (Provider, error) {
	if factory == nil {
		factory = globalFactory
	}
	switch cfg.Type {
	case config.TypeGitHub:
		return factory.CreateGitHubProvider(name, cfg), nil
	case config.TypeHTTP:
		return factory.CreateHTTPProvider(name, cfg), nil
	case config.TypeWebDAV:
		return factory.CreateWebDAVProvider(name, cfg), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedType, "%q", cfg.Type)
	}
}
