package selfupdate

import (
	"fmt"
	"io"

	"github.com/mistweaverco/selfupdate/internal/lib/providers"
	"github.com/spf13/cobra"
)

var releasesLimit int

var releasesCmd = &cobra.Command{
	Use:     "releases",
	Aliases: []string{"ls"},
	Short:   "List the releases of a source",
	Long: `List the releases a source offers, newest first.

Examples:
  selfupdate releases
  selfupdate releases --source http --limit 5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, repo, err := selectedSource()
		if err != nil {
			return err
		}

		var releases []providers.Release
		var runErr error
		if err := withSpinner("Fetching releases...", func() {
			releases, runErr = repo.Releases(cmd.Context())
		}); err != nil {
			return err
		}
		if runErr != nil {
			return runErr
		}
		if releasesLimit > 0 && len(releases) > releasesLimit {
			releases = releases[:releasesLimit]
		}

		if ShouldUseJSONOutput() {
			if releases == nil {
				releases = []providers.Release{}
			}
			return PrintJSON(cmd.OutOrStdout(), releases)
		}
		printReleases(cmd.OutOrStdout(), repo.GetVersionInstalled(), releases)
		return nil
	},
}

func printReleases(w io.Writer, installed string, releases []providers.Release) {
	if len(releases) == 0 {
		fmt.Fprintln(w, "No releases found")
		return
	}
	for _, r := range releases {
		marker := " "
		if installed != "" && r.Version == installed {
			marker = "*"
		}
		line := fmt.Sprintf("%s %s", marker, r.Version)
		if r.Name != "" && r.Name != r.Version {
			line += "  " + r.Name
		}
		if !r.PublishedAt.IsZero() {
			line += "  " + r.PublishedAt.Format("2006-01-02")
		}
		fmt.Fprintln(w, line)
	}
}

func init() {
	releasesCmd.Flags().IntVarP(&releasesLimit, "limit", "n", 0, "show at most n releases")
}
