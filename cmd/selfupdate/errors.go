package selfupdate

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mistweaverco/selfupdate/internal/config"
	"github.com/mistweaverco/selfupdate/internal/lib/updater"
)

// formatError returns a human-friendly error message, optionally with stack trace
func formatError(err error, verbose bool) string {
	if verbose {
		return fmt.Sprintf("%+v", err)
	}

	var b strings.Builder
	b.WriteString(err.Error())
	if details := errors.FlattenDetails(err); details != "" {
		b.WriteString("\n" + details)
	}
	if hints := errors.FlattenHints(err); hints != "" {
		b.WriteString("\nhint: " + hints)
	}
	return b.String()
}

// withHints attaches a suggestion for the errors users run into most.
func withHints(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, updater.ErrSourceNotDefined):
		return errors.WithHint(err, "run 'selfupdate sources' to list the configured sources")
	case errors.Is(err, updater.ErrNoInstalledVersion):
		return errors.WithHint(err, "set version_installed in the config or SELFUPDATE_VERSION_INSTALLED")
	case errors.Is(err, updater.ErrWrongPermissions):
		return errors.WithHint(err, "make the listed files writable or add their folders to exclude_folders")
	case errors.Is(err, config.ErrInvalidConfig):
		return errors.WithHint(err, "check repository_types in selfupdate.yaml")
	}
	return err
}
