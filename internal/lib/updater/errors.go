package updater

import "github.com/cockroachdb/errors"

var (
	// ErrSourceNotDefined is returned for source names missing from repository_types.
	ErrSourceNotDefined = errors.New("source repository is not defined")
	// ErrNoReleases is returned when a repository lists no release at all.
	ErrNoReleases = errors.New("cannot find a release to update")
	// ErrVersionNotFound is returned when a requested version is not in the release list.
	ErrVersionNotFound = errors.New("given version was not found in release list")
	// ErrNoInstalledVersion is returned when no installed version is known.
	ErrNoInstalledVersion = errors.New("no currently installed version specified")
	// ErrWrongPermissions is returned when files of the installation cannot be overwritten.
	ErrWrongPermissions = errors.New("installation files are not writable")
	// ErrReleaseNotFetched is returned when Update is called for a release that was never fetched.
	ErrReleaseNotFetched = errors.New("release has not been fetched")
	// ErrCommandFailed is returned when a pre or post update command fails.
	ErrCommandFailed = errors.New("update command failed")
)
