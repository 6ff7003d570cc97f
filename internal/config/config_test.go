package config

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/mistweaverco/selfupdate/internal/lib/files"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
default: github
version_installed: v1.0.0
install_path: /srv/app
exclude_folders:
  - storage
  - .env
log_events: true
commands:
  pre_update:
    - php artisan down
  post_update:
    - php artisan up
repository_types:
  github:
    type: github
    repository_vendor: acme
    repository_name: shop
    private_access_token: abc123
    download_path: /tmp/shop
  http:
    type: http
    repository_url: https://downloads.example.com/shop/
    pkg_filename_format: shop-v_VERSION_
  nas:
    type: webdav
    repository_url: https://dav.example.com/releases/
    user: deploy
    password: secret
`

func useMemFS(t *testing.T) *files.MockFileSystem {
	t.Helper()
	mockFS := files.NewMockFileSystem()
	files.SetFileSystem(mockFS)
	t.Cleanup(files.ResetDependencies)
	return mockFS
}

func TestConfig(t *testing.T) {
	t.Run("new config creation", func(t *testing.T) {
		cfg := NewConfig(Config{Flags: ConfigFlags{Version: true, Output: OutputModeJSON}})
		assert.True(t, cfg.Flags.Version)
		assert.Equal(t, OutputModeJSON, cfg.GetConfigFlags().Output)
	})

	t.Run("config flags default values", func(t *testing.T) {
		var flags ConfigFlags
		result := Config{Flags: flags}.GetConfigFlags()
		assert.False(t, result.Version)
		assert.Equal(t, "auto", result.Color.String())
		assert.Equal(t, "rich", result.Output.String())
	})
}

func TestLoad(t *testing.T) {
	t.Run("reads yaml file", func(t *testing.T) {
		mockFS := useMemFS(t)
		require.NoError(t, afero.WriteFile(mockFS.Base, "/etc/selfupdate.yaml", []byte(sampleYAML), 0644))

		cfg, err := Load("/etc/selfupdate.yaml")
		require.NoError(t, err)

		assert.Equal(t, "github", cfg.Default)
		assert.Equal(t, "v1.0.0", cfg.VersionInstalled)
		assert.Equal(t, "/srv/app", cfg.InstallPath)
		assert.Equal(t, []string{"storage", ".env"}, cfg.ExcludeFolders)
		assert.True(t, cfg.LogEvents)
		assert.Equal(t, []string{"php artisan down"}, cfg.Commands.PreUpdate)
		assert.Equal(t, []string{"php artisan up"}, cfg.Commands.PostUpdate)
		assert.Equal(t, []string{"github", "http", "nas"}, cfg.SourceNames())

		gh, ok := cfg.Repository("github")
		require.True(t, ok)
		assert.Equal(t, "acme", gh.RepositoryVendor)
		assert.Equal(t, DefaultAPIURL, gh.APIURL)
		assert.Equal(t, VersionPlaceholder, gh.PkgFilenameFormat)
		assert.Equal(t, "/tmp/shop", gh.DownloadPath)

		web, ok := cfg.Repository("http")
		require.True(t, ok)
		assert.Equal(t, "/tmp/selfupdate", web.DownloadPath)
		prepend, appendix := web.FilenameAffixes()
		assert.Equal(t, "shop-v", prepend)
		assert.Equal(t, "", appendix)

		nas, ok := cfg.Repository("NAS")
		require.True(t, ok)
		assert.Equal(t, TypeWebDAV, nas.Type)
		assert.Equal(t, "deploy", nas.User)

		assert.NoError(t, cfg.Validate())
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		mockFS := useMemFS(t)
		require.NoError(t, afero.WriteFile(mockFS.Base, "/etc/selfupdate.yaml", []byte(sampleYAML), 0644))
		t.Setenv("SELFUPDATE_VERSION_INSTALLED", "v2.0.0")
		t.Setenv("SELFUPDATE_DEFAULT", "http")

		cfg, err := Load("/etc/selfupdate.yaml")
		require.NoError(t, err)
		assert.Equal(t, "v2.0.0", cfg.VersionInstalled)
		assert.Equal(t, "http", cfg.Default)
	})

	t.Run("missing default file falls back to defaults", func(t *testing.T) {
		useMemFS(t)
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, ".", cfg.InstallPath)
		assert.Equal(t, DefaultExcludeFolders, cfg.ExcludeFolders)
		assert.Empty(t, cfg.SourceNames())
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		useMemFS(t)
		_, err := Load("/etc/nope.yaml")
		assert.Error(t, err)
	})

	t.Run("broken yaml", func(t *testing.T) {
		mockFS := useMemFS(t)
		require.NoError(t, afero.WriteFile(mockFS.Base, "/etc/selfupdate.yaml", []byte("default: [unterminated"), 0644))
		_, err := Load("/etc/selfupdate.yaml")
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Run("collects every problem", func(t *testing.T) {
		cfg := &Config{
			Default: "missing",
			RepositoryTypes: map[string]RepositoryConfig{
				"github": {Type: TypeGitHub, RepositoryVendor: "acme"},
				"http":   {Type: TypeHTTP},
				"dav":    {Type: TypeWebDAV, RepositoryURL: "https://dav", PkgFilenameFormat: "release.zip"},
			},
		}
		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
		assert.ErrorIs(t, err, ErrInvalidConfig)
		msg := err.Error()
		assert.Contains(t, msg, `default source "missing" is not configured`)
		assert.Contains(t, msg, "repository_vendor and repository_name are required")
		assert.Contains(t, msg, "repository_url is required")
		assert.Contains(t, msg, "must contain _VERSION_")
	})

	t.Run("custom types only need a type", func(t *testing.T) {
		cfg := &Config{
			Default:         "s3",
			RepositoryTypes: map[string]RepositoryConfig{"s3": {Type: "s3"}},
		}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing type", func(t *testing.T) {
		assert.Error(t, RepositoryConfig{}.Validate())
	})
}

func TestApplyDefaults(t *testing.T) {
	useMemFS(t)
	cfg := &Config{RepositoryTypes: map[string]RepositoryConfig{
		"github": {RepositoryVendor: "acme", RepositoryName: "shop"},
	}}
	cfg.ApplyDefaults()

	gh := cfg.RepositoryTypes["github"]
	assert.Equal(t, TypeGitHub, gh.Type)
	assert.Equal(t, DefaultAPIURL, gh.APIURL)
	assert.Equal(t, ".", cfg.InstallPath)
	assert.Len(t, cfg.ExcludeFolders, len(DefaultExcludeFolders))
}

func TestApplyDefaults_TypeFromName(t *testing.T) {
	useMemFS(t)
	cfg := &Config{RepositoryTypes: map[string]RepositoryConfig{
		"webdav":  {RepositoryURL: "https://dav.example.com"},
		"mirror":  {RepositoryURL: "https://mirror.example.com"},
		"partner": {Type: "FTP"},
	}}
	cfg.ApplyDefaults()

	assert.Equal(t, TypeWebDAV, cfg.RepositoryTypes["webdav"].Type)
	assert.Empty(t, cfg.RepositoryTypes["mirror"].Type)
	assert.Equal(t, "ftp", cfg.RepositoryTypes["partner"].Type)

	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorContains(t, err, `source "mirror": type is required`)
}

func TestFilenameAffixes(t *testing.T) {
	tests := []struct {
		format, prepend, appendix string
	}{
		{"_VERSION_", "", ""},
		{"", "", ""},
		{"app-_VERSION_-linux", "app-", "-linux"},
		{"no-placeholder", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			p, a := RepositoryConfig{PkgFilenameFormat: tt.format}.FilenameAffixes()
			assert.Equal(t, tt.prepend, p)
			assert.Equal(t, tt.appendix, a)
		})
	}
}

func TestColorMode(t *testing.T) {
	var c ColorMode
	assert.Equal(t, "auto", c.String())
	assert.NoError(t, c.Set("never"))
	assert.Equal(t, ColorModeNever, c)
	assert.Error(t, c.Set("rainbow"))
	assert.Equal(t, "string", c.Type())
}

func TestOutputMode(t *testing.T) {
	var o OutputMode
	assert.Equal(t, "rich", o.String())
	assert.NoError(t, o.Set("json"))
	assert.Equal(t, OutputModeJSON, o)
	assert.Error(t, o.Set("xml"))
	assert.Equal(t, "string", o.Type())
}
