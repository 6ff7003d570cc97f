package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mistweaverco/selfupdate/internal/config"
	"github.com/mistweaverco/selfupdate/internal/lib/files"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMockFS(t *testing.T) *files.MockFileSystem {
	t.Helper()
	mockFS := files.NewMockFileSystem()
	files.SetFileSystem(mockFS)
	t.Cleanup(files.ResetDependencies)
	return mockFS
}

func TestAccessToken(t *testing.T) {
	b := NewBase("github", config.RepositoryConfig{PrivateAccessToken: "abc123"})
	assert.True(t, b.HasAccessToken())
	assert.Equal(t, "Bearer abc123", b.AccessToken(true))
	assert.Equal(t, "abc123", b.AccessToken(false))

	b.SetAccessToken("")
	assert.False(t, b.HasAccessToken())
	assert.Equal(t, "Bearer ", b.AccessToken(true))
	assert.Equal(t, "", b.AccessToken(false))
}

func TestHTTPClientAuthorization(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	b := NewBase("github", config.RepositoryConfig{})
	b.SetHTTPClient(srv.Client())

	resp, err := b.HTTPClient().Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Empty(t, got)

	b.SetAccessToken("abc123")
	resp, err = b.HTTPClient().Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "Bearer abc123", got)
}

func TestDownloadRelease(t *testing.T) {
	mockFS := useMockFS(t)
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("zip"))
	}))
	defer srv.Close()

	b := NewBase("http", config.RepositoryConfig{PrivateAccessToken: "abc123"})
	b.SetHTTPClient(srv.Client())

	require.NoError(t, b.DownloadRelease(context.Background(), srv.URL+"/app.zip", "/dl/app.zip"))
	data, err := afero.ReadFile(mockFS.Base, "/dl/app.zip")
	require.NoError(t, err)
	assert.Equal(t, "zip", string(data))
	assert.Equal(t, "Bearer abc123", got)
}

func TestLayout(t *testing.T) {
	mockFS := useMockFS(t)

	b := NewBase("http", config.RepositoryConfig{
		PkgFilenameFormat: "app-_VERSION_-linux",
		DownloadPath:      "/var/dl",
	})
	assert.Equal(t, "app-", b.Prepend())
	assert.Equal(t, "-linux", b.Append())
	assert.Equal(t, "app-1.2.0-linux", b.Decorate("1.2.0"))
	assert.Equal(t, filepath.Join("/var/dl", "1.2.0"), b.StoragePath("1.2.0"))
	assert.Equal(t, filepath.Join("/var/dl", "app-1.2.0-linux.zip"), b.ArchivePath("1.2.0"))
	assert.Equal(t, filepath.Join("/var/dl", "feature-x"), b.StoragePath("feature/x"))

	t.Run("already fetched only with a non-empty folder", func(t *testing.T) {
		require.NoError(t, mockFS.Base.MkdirAll("/var/dl/1.2.0", 0755))
		assert.False(t, b.IsSourceAlreadyFetched("1.2.0"))

		require.NoError(t, afero.WriteFile(mockFS.Base, "/var/dl/1.2.0/index.php", []byte("<?php"), 0644))
		assert.True(t, b.IsSourceAlreadyFetched("1.2.0"))
		assert.False(t, b.IsSourceAlreadyFetched("1.3.0"))
	})

	t.Run("default download path", func(t *testing.T) {
		d := NewBase("http", config.RepositoryConfig{})
		assert.Equal(t, files.GetDefaultDownloadPath(), d.DownloadPath())
		assert.Equal(t, "1.0.0", d.Decorate("1.0.0"))
	})
}

func TestFindRelease(t *testing.T) {
	releases := []Release{{Version: "2.0.0"}, {Version: "1.0.0"}}

	r, ok := FindRelease(releases, "1.0.0")
	assert.True(t, ok)
	assert.Equal(t, "1.0.0", r.Version)

	_, ok = FindRelease(releases, "3.0.0")
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	factory := &MockProviderFactory{}

	for _, typ := range AvailableTypes {
		p, err := New(factory, "src-"+typ, config.RepositoryConfig{Type: typ})
		require.NoError(t, err)
		assert.Equal(t, typ, p.Type())
	}
	assert.Equal(t, []string{"src-github", "src-http", "src-webdav"}, factory.Created)

	_, err := New(factory, "ftp", config.RepositoryConfig{Type: "ftp"})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestDefaultProviderFactory(t *testing.T) {
	f := &DefaultProviderFactory{}
	cfg := config.RepositoryConfig{RepositoryURL: "https://example.com/releases"}

	assert.IsType(t, &GitHubProvider{}, f.CreateGitHubProvider("github", cfg))
	assert.IsType(t, &HTTPProvider{}, f.CreateHTTPProvider("http", cfg))
	assert.IsType(t, &WebDAVProvider{}, f.CreateWebDAVProvider("webdav", cfg))
}

func TestGlobalFactory(t *testing.T) {
	defer ResetProviderFactory()

	mock := &MockProviderFactory{}
	SetProviderFactory(mock)
	assert.Same(t, mock, GetProviderFactory())

	p, err := New(nil, "github", config.RepositoryConfig{Type: config.TypeGitHub})
	require.NoError(t, err)
	assert.Equal(t, config.TypeGitHub, p.Type())
	assert.Equal(t, []string{"github"}, mock.Created)

	ResetProviderFactory()
	assert.IsType(t, &DefaultProviderFactory{}, GetProviderFactory())
}

func TestIsSupportedType(t *testing.T) {
	assert.True(t, IsSupportedType("github"))
	assert.True(t, IsSupportedType("webdav"))
	assert.False(t, IsSupportedType("gitlab"))
}
