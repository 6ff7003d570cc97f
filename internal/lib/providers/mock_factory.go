package providers

import (
	"context"

	"github.com/mistweaverco/selfupdate/internal/config"
)

// MockProvider is a mock implementation for testing
type MockProvider struct {
	TypeName     string
	ReleasesFunc func(ctx context.Context) ([]Release, error)
	DownloadFunc func(ctx context.Context, release Release, dest string) error
}

func (m *MockProvider) Type() string {
	if m.TypeName != "" {
		return m.TypeName
	}
	return "mock"
}

func (m *MockProvider) Releases(ctx context.Context) ([]Release, error) {
	if m.ReleasesFunc != nil {
		return m.ReleasesFunc(ctx)
	}
	return nil, nil
}

func (m *MockProvider) Download(ctx context.Context, release Release, dest string) error {
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, release, dest)
	}
	return nil
}

// MockProviderFactory is a mock implementation for testing
type MockProviderFactory struct {
	MockGitHubProvider Provider
	MockHTTPProvider   Provider
	MockWebDAVProvider Provider
	Created            []string
}

func (f *MockProviderFactory) CreateGitHubProvider(name string, cfg config.RepositoryConfig) Provider {
	f.Created = append(f.Created, name)
	if f.MockGitHubProvider != nil {
		return f.MockGitHubProvider
	}
	return &MockProvider{TypeName: config.TypeGitHub}
}

func (f *MockProviderFactory) CreateHTTPProvider(name string, cfg config.RepositoryConfig) Provider {
	f.Created = append(f.Created, name)
	if f.MockHTTPProvider != nil {
		return f.MockHTTPProvider
	}
	return &MockProvider{TypeName: config.TypeHTTP}
}

func (f *MockProviderFactory) CreateWebDAVProvider(name string, cfg config.RepositoryConfig) Provider {
	f.Created = append(f.Created, name)
	if f.MockWebDAVProvider != nil {
		return f.MockWebDAVProvider
	}
	return &MockProvider{TypeName: config.TypeWebDAV}
}
