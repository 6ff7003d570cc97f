package updater

import (
	"testing"

	"github.com/mistweaverco/selfupdate/internal/config"
	"github.com/mistweaverco/selfupdate/internal/lib/files"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRequirements(t *testing.T) {
	mockFS := useMockFS(t)
	require.NoError(t, mockFS.Base.MkdirAll("/app", 0755))

	cfg := newTestConfig()
	cfg.RepositoryTypes["custom"] = config.RepositoryConfig{Type: "ftp", DownloadPath: "/dl/custom"}

	result := CheckRequirements(cfg)
	assert.True(t, result.InstallPathWritable)
	assert.False(t, result.NeedsShell)
	assert.True(t, result.HasShell)
	require.Len(t, result.Sources, 3)
	assert.Equal(t, "custom", result.Sources[0].Name)
	assert.False(t, result.Sources[0].SupportedType)
	assert.True(t, result.Sources[0].DownloadPathWritable)
	assert.True(t, result.Sources[1].SupportedType)
	assert.True(t, files.FileExists("/dl/custom"))
	assert.True(t, result.OK())

	t.Run("missing install path", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.InstallPath = "/nowhere"
		result := CheckRequirements(cfg)
		assert.False(t, result.InstallPathWritable)
		assert.False(t, result.OK())
	})

	t.Run("commands need a shell", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.Commands.PostUpdate = []string{"php artisan migrate"}
		result := CheckRequirements(cfg)
		assert.True(t, result.NeedsShell)
	})
}
