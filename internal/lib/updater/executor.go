package updater

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/mistweaverco/selfupdate/internal/lib/files"
)

// Executor copies an extracted release over the installation.
type Executor struct {
	InstallPath string
	Exclude     []string
}

func NewExecutor(installPath string, exclude []string) *Executor {
	return &Executor{InstallPath: installPath, Exclude: exclude}
}

// CheckPermissions returns every file of the installation that cannot be
// overwritten. With any such file the error wraps ErrWrongPermissions
// and lists each path.
func (e *Executor) CheckPermissions() ([]string, error) {
	unwritable, err := files.FindUnwritable(e.InstallPath, e.Exclude)
	if err != nil {
		return nil, err
	}
	if len(unwritable) == 0 {
		return nil, nil
	}

	result := &multierror.Error{ErrorFormat: joinErrors}
	for _, path := range unwritable {
		result = multierror.Append(result, errors.Newf("%s is not writable", path))
	}
	return unwritable, errors.WithSecondaryError(errors.Wrapf(ErrWrongPermissions, "%s", result), result.ErrorOrNil())
}

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Run copies src over the installation. Nothing is written when the
// permission check fails; the offending paths are returned with the error.
func (e *Executor) Run(ctx context.Context, src string) ([]string, error) {
	unwritable, err := e.CheckPermissions()
	if err != nil {
		return unwritable, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := files.CopyTree(ctx, src, e.InstallPath, e.Exclude); err != nil {
		return nil, errors.Wrap(err, "copy release")
	}
	return nil, nil
}
