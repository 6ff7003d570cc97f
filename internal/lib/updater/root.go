package updater

import (
	"context"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/mistweaverco/selfupdate/internal/config"
	"github.com/mistweaverco/selfupdate/internal/events"
	"github.com/mistweaverco/selfupdate/internal/lib/files"
	"github.com/mistweaverco/selfupdate/internal/lib/log"
	"github.com/mistweaverco/selfupdate/internal/lib/providers"
	"github.com/mistweaverco/selfupdate/internal/lib/semver"
	"github.com/mistweaverco/selfupdate/internal/lib/state"
)

var Logger = log.NewLogger()

// CheckResult is the outcome of comparing the installed version with the
// newest release of a source.
type CheckResult struct {
	Source          string            `json:"source"`
	Type            string            `json:"type"`
	Installed       string            `json:"installed"`
	Available       string            `json:"available"`
	UpdateAvailable bool              `json:"update_available"`
	Release         providers.Release `json:"release"`
}

// Repository runs the update workflow against one configured source.
type Repository struct {
	name       string
	cfg        *config.Config
	repo       config.RepositoryConfig
	provider   providers.Provider
	layout     *providers.Base
	store      state.Manager
	dispatcher *events.Dispatcher
	runner     CommandRunner
	executor   *Executor
}

func NewRepository(name string, cfg *config.Config, repo config.RepositoryConfig, provider providers.Provider, store state.Manager, dispatcher *events.Dispatcher, runner CommandRunner) *Repository {
	if runner == nil {
		runner = ShellRunner{}
	}
	return &Repository{
		name:       name,
		cfg:        cfg,
		repo:       repo,
		provider:   provider,
		layout:     providers.NewBase(name, repo),
		store:      store,
		dispatcher: dispatcher,
		runner:     runner,
		executor:   NewExecutor(cfg.InstallPath, cfg.ExcludeFolders),
	}
}

// Source is the configured name of the repository.
func (r *Repository) Source() string {
	return r.name
}

func (r *Repository) Type() string {
	return r.provider.Type()
}

func (r *Repository) Config() config.RepositoryConfig {
	return r.repo
}

func (r *Repository) Releases(ctx context.Context) ([]providers.Release, error) {
	releases, err := r.provider.Releases(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "list releases of %s", r.name)
	}
	return releases, nil
}

// GetVersionInstalled returns the version recorded by the last update,
// falling back to version_installed from the configuration.
func (r *Repository) GetVersionInstalled() string {
	if v := r.store.VersionInstalled(); v != "" {
		return v
	}
	return r.cfg.VersionInstalled
}

// GetVersionAvailable returns the pending version when one was noted by
// IsNewVersionAvailable, else the newest release. The result is wrapped
// in prepend and appendix.
func (r *Repository) GetVersionAvailable(ctx context.Context, prepend, appendix string) (string, error) {
	if r.store.HasPendingVersion() {
		return prepend + r.store.PendingVersion() + appendix, nil
	}
	latest, err := r.latest(ctx)
	if err != nil {
		return "", err
	}
	return prepend + latest.Version + appendix, nil
}

func (r *Repository) latest(ctx context.Context) (providers.Release, error) {
	releases, err := r.Releases(ctx)
	if err != nil {
		return providers.Release{}, err
	}
	if len(releases) == 0 {
		return providers.Release{}, errors.Wrapf(ErrNoReleases, "source %s", r.name)
	}
	return releases[0], nil
}

// CheckLatest compares current, or the installed version, with the newest
// release without touching the pending version marker.
func (r *Repository) CheckLatest(ctx context.Context, current string) (CheckResult, error) {
	installed := current
	if installed == "" {
		installed = r.GetVersionInstalled()
	}
	if installed == "" {
		return CheckResult{}, errors.Wrapf(ErrNoInstalledVersion, "source %s", r.name)
	}
	return r.compare(ctx, installed)
}

func (r *Repository) compare(ctx context.Context, installed string) (CheckResult, error) {
	latest, err := r.latest(ctx)
	if err != nil {
		return CheckResult{}, err
	}
	return CheckResult{
		Source:          r.name,
		Type:            r.Type(),
		Installed:       installed,
		Available:       latest.Version,
		UpdateAvailable: semver.IsGreater(installed, latest.Version),
		Release:         latest,
	}, nil
}

// IsNewVersionAvailable reports whether the repository holds a version
// newer than current, or the installed version when current is empty.
func (r *Repository) IsNewVersionAvailable(ctx context.Context, current string) (bool, error) {
	result, err := r.Check(ctx, current)
	return result.UpdateAvailable, err
}

// Check works like IsNewVersionAvailable and reports both versions.
// A stale pending marker is discarded first; a newer version is noted in
// a fresh marker and announced with an UpdateAvailable event.
func (r *Repository) Check(ctx context.Context, current string) (CheckResult, error) {
	version := current
	if version == "" {
		version = r.GetVersionInstalled()
	}
	if version == "" {
		return CheckResult{}, errors.Wrapf(ErrNoInstalledVersion, "source %s", r.name)
	}

	if err := r.store.ClearPendingVersion(); err != nil {
		return CheckResult{}, errors.Wrap(err, "clear pending version")
	}

	result, err := r.compare(ctx, version)
	if err != nil {
		return CheckResult{}, err
	}
	if !result.UpdateAvailable {
		Logger.Debug("no newer version", "source", r.name, "installed", version, "available", result.Available)
		return result, nil
	}

	if !r.store.HasPendingVersion() {
		if err := r.store.SetPendingVersion(result.Available); err != nil {
			return result, errors.Wrap(err, "write pending version")
		}
		r.dispatcher.Dispatch(ctx, events.UpdateAvailable{Source: r.name, Version: result.Available})
	}
	return result, nil
}

// Fetch downloads and extracts version, or the newest release when version
// is empty. Releases that were extracted before are not downloaded again.
func (r *Repository) Fetch(ctx context.Context, version string) (providers.Release, error) {
	releases, err := r.Releases(ctx)
	if err != nil {
		return providers.Release{}, err
	}
	if len(releases) == 0 {
		return providers.Release{}, errors.Wrapf(ErrNoReleases, "source %s", r.name)
	}

	release := releases[0]
	if version != "" {
		var ok bool
		if release, ok = providers.FindRelease(releases, version); !ok {
			return providers.Release{}, errors.Wrapf(ErrVersionNotFound, "%s", version)
		}
	}

	downloadPath := r.layout.DownloadPath()
	if err := files.FS().MkdirAll(downloadPath, 0755); err != nil {
		return providers.Release{}, errors.Wrapf(err, "create download path %s", downloadPath)
	}

	release.StoragePath = r.layout.StoragePath(release.Version)
	release.ArchivePath = r.layout.ArchivePath(release.Version)

	if r.layout.IsSourceAlreadyFetched(release.Version) {
		Logger.Debug("release already fetched", "source", r.name, "version", release.Version, "path", release.StoragePath)
		return release, nil
	}

	if err := r.provider.Download(ctx, release, release.ArchivePath); err != nil {
		_ = files.Remove(release.ArchivePath)
		return providers.Release{}, errors.Wrapf(err, "download %s", release.Version)
	}
	if err := r.extract(release); err != nil {
		_ = files.Remove(release.ArchivePath)
		_ = files.RemoveAll(release.StoragePath)
		return providers.Release{}, err
	}
	Logger.Info("release fetched", "source", r.name, "version", release.Version, "path", release.StoragePath)
	return release, nil
}

func (r *Repository) extract(release providers.Release) error {
	if err := files.Unzip(release.ArchivePath, release.StoragePath, true); err != nil {
		return errors.Wrapf(err, "extract %s", release.Version)
	}
	if err := files.FlattenSingleRoot(release.StoragePath); err != nil {
		return errors.Wrapf(err, "flatten %s", release.Version)
	}
	return nil
}

// Update copies a fetched release over install_path.
// Files below exclude_folders are neither checked nor overwritten.
func (r *Repository) Update(ctx context.Context, release providers.Release) (err error) {
	if release.StoragePath == "" {
		release.StoragePath = r.layout.StoragePath(release.Version)
	}
	if !files.DirHasEntries(release.StoragePath) {
		return errors.Wrapf(ErrReleaseNotFetched, "%s", release.Version)
	}

	defer func() {
		if err != nil {
			r.dispatcher.Dispatch(ctx, events.UpdateFailed{Source: r.name, Version: release.Version, Err: err})
		}
	}()

	// Nothing runs, not even pre_update, while a file cannot be overwritten.
	if err := r.checkPermissions(ctx); err != nil {
		return err
	}

	if err := r.runCommands(ctx, "pre_update", r.cfg.Commands.PreUpdate, release); err != nil {
		return err
	}

	unwritable, err := r.executor.Run(ctx, release.StoragePath)
	if err != nil {
		if errors.Is(err, ErrWrongPermissions) {
			r.dispatcher.Dispatch(ctx, events.HasWrongPermissions{Source: r.name, Paths: unwritable})
		}
		return err
	}

	if err := files.RemoveAll(release.StoragePath); err != nil {
		Logger.Warn("failed to remove release folder", "path", release.StoragePath, "error", err)
	}
	if err := r.store.ClearPendingVersion(); err != nil {
		Logger.Warn("failed to clear pending version", "error", err)
	}
	if err := r.store.RecordUpdate(r.name, release.Version); err != nil {
		return errors.Wrap(err, "record installed version")
	}

	if err := r.runCommands(ctx, "post_update", r.cfg.Commands.PostUpdate, release); err != nil {
		return err
	}

	Logger.Info("update succeeded", "source", r.name, "version", release.Version)
	r.dispatcher.Dispatch(ctx, events.UpdateSucceeded{Source: r.name, Version: release.Version})
	return nil
}

func (r *Repository) checkPermissions(ctx context.Context) error {
	unwritable, err := r.executor.CheckPermissions()
	if err != nil && errors.Is(err, ErrWrongPermissions) {
		r.dispatcher.Dispatch(ctx, events.HasWrongPermissions{Source: r.name, Paths: unwritable})
	}
	return err
}

func (r *Repository) runCommands(ctx context.Context, stage string, lines []string, release providers.Release) error {
	if len(lines) == 0 {
		return nil
	}
	dir, err := filepath.Abs(r.cfg.InstallPath)
	if err != nil {
		dir = r.cfg.InstallPath
	}
	env := []string{
		"SELFUPDATE_SOURCE=" + r.name,
		"SELFUPDATE_VERSION=" + release.Version,
		"SELFUPDATE_INSTALL_PATH=" + dir,
	}
	for _, line := range lines {
		code, output, err := r.runner.Run(ctx, line, dir, env)
		if err != nil {
			Logger.Error("update command failed", "stage", stage, "command", line, "exit_code", code, "output", output)
			return errors.WithSecondaryError(errors.Wrapf(ErrCommandFailed, "%s command %q exited with %d: %v", stage, line, code, err), err)
		}
		Logger.Debug("update command finished", "stage", stage, "command", line, "output", output)
	}
	return nil
}
