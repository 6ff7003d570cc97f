package selfupdate

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [version]",
	Short: "Download and extract a release",
	Long: `Download the release archive of a version, or of the newest release,
and extract it into the download path of the source.

Releases that were extracted before are not downloaded again.

Examples:
  selfupdate fetch
  selfupdate fetch 1.4.2 --source http`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, repo, err := selectedSource()
		if err != nil {
			return err
		}
		version := ""
		if len(args) == 1 {
			version = args[0]
		}

		release, err := repo.Fetch(cmd.Context(), version)
		if err != nil {
			return err
		}

		if ShouldUseJSONOutput() {
			return PrintJSON(cmd.OutOrStdout(), release)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Fetched %s %s into %s\n", IconCheck(), repo.Source(), release.Version, release.StoragePath)
		return nil
	},
}
