package selfupdate

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/term"
	"github.com/cockroachdb/errors"
	"github.com/mistweaverco/selfupdate/internal/lib/providers"
	"github.com/mistweaverco/selfupdate/internal/lib/updater"
	"github.com/spf13/cobra"
)

type releaseNotes struct {
	Version string `json:"version"`
	Notes   string `json:"notes"`
}

var notesCmd = &cobra.Command{
	Use:   "notes [version]",
	Short: "Show the release notes of a version",
	Long: `Show the release notes of a version, or of the newest release.

Only GitHub releases carry notes.

Examples:
  selfupdate notes
  selfupdate notes 1.4.2 --output plain`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, repo, err := selectedSource()
		if err != nil {
			return err
		}
		releases, err := repo.Releases(cmd.Context())
		if err != nil {
			return err
		}
		if len(releases) == 0 {
			return updater.ErrNoReleases
		}

		release := releases[0]
		if len(args) == 1 {
			var ok bool
			if release, ok = providers.FindRelease(releases, args[0]); !ok {
				return errors.Wrapf(updater.ErrVersionNotFound, "%s", args[0])
			}
		}

		out := cmd.OutOrStdout()
		switch {
		case ShouldUseJSONOutput():
			return PrintJSON(out, releaseNotes{Version: release.Version, Notes: release.Notes})
		case strings.TrimSpace(release.Notes) == "":
			fmt.Fprintf(out, "No release notes for %s\n", release.Version)
		case ShouldUsePlainOutput():
			fmt.Fprintf(out, "%s\n\n%s\n", release.Version, RemoveMarkdownFormatting(release.Notes))
		default:
			renderMarkdown(out, fmt.Sprintf("# %s\n\n%s\n", release.Version, release.Notes))
		}
		return nil
	},
}

// renderMarkdown renders markdown content using glamour
func renderMarkdown(w io.Writer, markdown string) {
	width := 80
	if cols, _, err := term.GetSize(os.Stdout.Fd()); err == nil && cols > 0 {
		width = cols
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		rendered, renderErr := glamour.Render(markdown, "dark")
		if renderErr != nil {
			fmt.Fprint(w, markdown)
			return
		}
		fmt.Fprint(w, rendered)
		return
	}

	rendered, err := r.Render(markdown)
	if err != nil {
		fmt.Fprint(w, markdown)
		return
	}
	fmt.Fprint(w, rendered)
}
