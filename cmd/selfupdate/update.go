package selfupdate

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/mistweaverco/selfupdate/internal/lib/files"
	"github.com/mistweaverco/selfupdate/internal/lib/providers"
	"github.com/mistweaverco/selfupdate/internal/progress"
	"github.com/spf13/cobra"
)

var updateYes bool

// updateSummary is what update prints in json output.
type updateSummary struct {
	Source  string `json:"source"`
	From    string `json:"from"`
	Version string `json:"version"`
	Updated bool   `json:"updated"`
}

// confirmFn asks before files get overwritten; an indirection for tests.
var confirmFn = func(title string) (bool, error) {
	confirmed := false
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Update").
		Negative("Cancel").
		Value(&confirmed).
		Run()
	return confirmed, err
}

// runStepsFn is an indirection for tests.
var runStepsFn = progress.Run

var updateCmd = &cobra.Command{
	Use:     "update [version]",
	Aliases: []string{"up"},
	Short:   "Update the installation to a newer release",
	Long: `Download a release and copy it over the installation.

Without a version the newest release is installed, if it is newer than the
installed one. Folders listed in exclude_folders are never overwritten and
nothing is touched when a file of the installation is not writable.

Examples:
  selfupdate update
  selfupdate update 1.4.2 --yes
  selfupdate update --source webdav --output plain`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, repo, err := selectedSource()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		installed := repo.GetVersionInstalled()

		target := ""
		if len(args) == 1 {
			target = args[0]
		} else {
			result, err := repo.Check(cmd.Context(), "")
			if err != nil {
				return err
			}
			if !result.UpdateAvailable {
				if ShouldUseJSONOutput() {
					return PrintJSON(out, updateSummary{Source: repo.Source(), From: installed, Version: installed})
				}
				fmt.Fprintf(out, "%s %s is up to date (%s)\n", IconCheck(), repo.Source(), installed)
				return nil
			}
			target = result.Available
		}

		interactive := isInteractiveFn() && !ShouldUseJSONOutput()
		if !updateYes && interactive {
			title := fmt.Sprintf("Update %s from %s to %s? Files in %s will be overwritten.", repo.Source(), displayVersion(installed), target, c.InstallPath)
			ok, err := confirmFn(title)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "Update cancelled")
				return nil
			}
		}

		showView := interactive && ShouldUseRichOutput()
		if showView {
			files.SetShowProgress(false)
		}

		var release providers.Release
		steps := []progress.Step{
			{
				Title: fmt.Sprintf("Fetching %s", target),
				Run: func(ctx context.Context) (err error) {
					release, err = repo.Fetch(ctx, target)
					return err
				},
			},
			{
				Title: fmt.Sprintf("Installing %s into %s", target, c.InstallPath),
				Run: func(ctx context.Context) error {
					return repo.Update(ctx, release)
				},
			},
		}
		stepOut := cmd.ErrOrStderr()
		if ShouldUseJSONOutput() {
			stepOut = nil
		}
		if err := runStepsFn(cmd.Context(), stepOut, steps, showView); err != nil {
			return err
		}

		if ShouldUseJSONOutput() {
			return PrintJSON(out, updateSummary{Source: repo.Source(), From: installed, Version: release.Version, Updated: true})
		}
		fmt.Fprintf(out, "%s Updated %s to %s\n", IconCheck(), repo.Source(), release.Version)
		return nil
	},
}

func displayVersion(v string) string {
	if v == "" {
		return "an unknown version"
	}
	return v
}

func init() {
	updateCmd.Flags().BoolVarP(&updateYes, "yes", "y", false, "do not ask for confirmation")
}
