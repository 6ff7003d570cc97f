package selfupdate

import (
	"strings"

	"github.com/spf13/cobra"
)

// sourceNameCompletion completes --source with the configured repository names.
func sourceNameCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	c, err := loadConfigFn(cfg.Flags.ConfigFile)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	for _, name := range c.SourceNames() {
		if strings.HasPrefix(name, strings.ToLower(toComplete)) {
			names = append(names, name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
