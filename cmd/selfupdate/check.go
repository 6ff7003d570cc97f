package selfupdate

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/huh/spinner"
	"github.com/mistweaverco/selfupdate/internal/lib/updater"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// checkConcurrency bounds the sources checked at once by check --all.
const checkConcurrency = 4

var checkAll bool

// checkReport is one line of check output.
type checkReport struct {
	updater.CheckResult
	Error string `json:"error,omitempty"`
}

// runWithSpinnerFn shows a spinner while action runs; an indirection for tests.
var runWithSpinnerFn = func(title string, action func()) error {
	return spinner.New().Title(title).Action(action).Run()
}

// withSpinner runs action behind a spinner in rich interactive output
// and plainly otherwise.
func withSpinner(title string, action func()) error {
	if !ShouldUseRichOutput() || !isInteractiveFn() {
		action()
		return nil
	}
	return runWithSpinnerFn(title, action)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a newer version is available",
	Long: `Check whether the source holds a version newer than the installed one.

A newer version is remembered as pending until the next check or update.

Examples:
  selfupdate check
  selfupdate check --source webdav
  selfupdate check --all --output json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, m, err := loadManager()
		if err != nil {
			return err
		}

		var reports []checkReport
		var runErr error
		action := func() {
			if checkAll {
				reports = checkSources(cmd.Context(), m, m.Sources())
				return
			}
			var repo *updater.Repository
			if repo, runErr = m.Source(cfg.Flags.Source); runErr != nil {
				return
			}
			var result updater.CheckResult
			if result, runErr = repo.Check(cmd.Context(), ""); runErr == nil {
				reports = []checkReport{{CheckResult: result}}
			}
		}
		if err := withSpinner("Checking for updates...", action); err != nil {
			return err
		}
		if runErr != nil {
			return runErr
		}
		return printCheckReports(cmd.OutOrStdout(), reports)
	},
}

// checkSources compares the installed version against every named source
// concurrently. Failures are reported per source.
func checkSources(ctx context.Context, m *updater.Manager, names []string) []checkReport {
	reports := make([]checkReport, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(checkConcurrency)

	for i, name := range names {
		g.Go(func() error {
			reports[i] = checkReport{CheckResult: updater.CheckResult{Source: name}}
			repo, err := m.Source(name)
			if err != nil {
				reports[i].Error = err.Error()
				return nil
			}
			result, err := repo.CheckLatest(ctx, "")
			if err != nil {
				reports[i].Type = repo.Type()
				reports[i].Error = err.Error()
				return nil
			}
			reports[i].CheckResult = result
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

func printCheckReports(w io.Writer, reports []checkReport) error {
	if ShouldUseJSONOutput() {
		return PrintJSON(w, reports)
	}
	for _, r := range reports {
		switch {
		case r.Error != "":
			fmt.Fprintf(w, "%s %s: %s\n", IconClose(), r.Source, r.Error)
		case r.UpdateAvailable:
			fmt.Fprintf(w, "%s %s %s: %s -> %s (update available)\n", IconRefresh(), IconForType(r.Type), r.Source, r.Installed, r.Available)
		default:
			fmt.Fprintf(w, "%s %s %s: %s is up to date\n", IconCheck(), IconForType(r.Type), r.Source, r.Installed)
		}
	}
	return nil
}

func init() {
	checkCmd.Flags().BoolVarP(&checkAll, "all", "a", false, "check every configured source")
}
