package selfupdate

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/mistweaverco/selfupdate/internal/lib/updater"
	"github.com/spf13/cobra"
)

var errUnhealthy = errors.New("requirements are not met")

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether an update could run",
	Long: `Check that the install path and the download paths are writable and that
a shell is available when update commands are configured.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := loadManager()
		if err != nil {
			return err
		}
		result := updater.CheckRequirements(c)

		if ShouldUseJSONOutput() {
			if err := PrintJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
		} else {
			printHealth(cmd.OutOrStdout(), result)
		}
		if !result.OK() {
			return errUnhealthy
		}
		return nil
	},
}

func healthIcon(ok bool) string {
	if ok {
		return IconCheck()
	}
	return IconClose()
}

func printHealth(w io.Writer, r updater.CheckRequirementsResult) {
	fmt.Fprintf(w, "%s install path %s writable\n", healthIcon(r.InstallPathWritable), r.InstallPath)
	if r.NeedsShell {
		fmt.Fprintf(w, "%s shell available for update commands\n", healthIcon(r.HasShell))
	}
	for _, s := range r.Sources {
		fmt.Fprintf(w, "%s %s: download path %s writable\n", healthIcon(s.DownloadPathWritable), s.Name, s.DownloadPath)
		if !s.SupportedType {
			fmt.Fprintf(w, "%s %s: type %q needs a custom provider\n", IconAlert(), s.Name, s.Type)
		}
	}
}
