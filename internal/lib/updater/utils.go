package updater

import (
	"github.com/mistweaverco/selfupdate/internal/config"
	"github.com/mistweaverco/selfupdate/internal/lib/files"
	"github.com/mistweaverco/selfupdate/internal/lib/providers"
	"github.com/mistweaverco/selfupdate/internal/lib/shell_out"
)

type SourceHealth struct {
	Name                 string `json:"name"`
	Type                 string `json:"type"`
	DownloadPath         string `json:"downloadPath"`
	DownloadPathWritable bool   `json:"downloadPathWritable"`
	SupportedType        bool   `json:"supportedType"`
}

type CheckRequirementsResult struct {
	InstallPath         string         `json:"installPath"`
	InstallPathWritable bool           `json:"installPathWritable"`
	NeedsShell          bool           `json:"needsShell"`
	HasShell            bool           `json:"hasShell"`
	Sources             []SourceHealth `json:"sources"`
}

// OK reports whether an update could run with this setup.
func (r CheckRequirementsResult) OK() bool {
	if !r.InstallPathWritable || (r.NeedsShell && !r.HasShell) {
		return false
	}
	for _, s := range r.Sources {
		if !s.DownloadPathWritable {
			return false
		}
	}
	return true
}

// CheckRequirements checks if the system meets the requirements for running an update.
// It checks for:
// - a writable install path
// - a writable download path per source (created when missing)
// - a shell when pre or post update commands are configured
// Custom source types are reported but not treated as failures.
func CheckRequirements(cfg *config.Config) CheckRequirementsResult {
	needsShell := len(cfg.Commands.PreUpdate) > 0 || len(cfg.Commands.PostUpdate) > 0
	result := CheckRequirementsResult{
		InstallPath:         cfg.InstallPath,
		InstallPathWritable: files.IsWritableDir(cfg.InstallPath),
		NeedsShell:          needsShell,
		HasShell:            !needsShell || shell_out.HasShell(),
	}

	for _, name := range cfg.SourceNames() {
		repo := cfg.RepositoryTypes[name]
		downloadPath := providers.NewBase(name, repo).DownloadPath()
		files.EnsureDirExists(downloadPath)
		result.Sources = append(result.Sources, SourceHealth{
			Name:                 name,
			Type:                 repo.Type,
			DownloadPath:         downloadPath,
			DownloadPathWritable: files.IsWritableDir(downloadPath),
			SupportedType:        providers.IsSupportedType(repo.Type),
		})
	}
	return result
}
