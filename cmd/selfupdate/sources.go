package selfupdate

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type sourceInfo struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	URL     string `json:"url,omitempty"`
	Default bool   `json:"default"`
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the configured source repositories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, m, err := loadManager()
		if err != nil {
			return err
		}

		infos := []sourceInfo{}
		for _, name := range m.Sources() {
			repo, _ := c.Repository(name)
			url := repo.RepositoryURL
			if url == "" && repo.RepositoryVendor != "" {
				url = fmt.Sprintf("github.com/%s/%s", repo.RepositoryVendor, repo.RepositoryName)
			}
			infos = append(infos, sourceInfo{Name: name, Type: repo.Type, URL: url, Default: strings.EqualFold(name, m.Default())})
		}

		out := cmd.OutOrStdout()
		if ShouldUseJSONOutput() {
			return PrintJSON(out, infos)
		}
		for _, s := range infos {
			marker := " "
			if s.Default {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s %s (%s)", marker, IconForType(s.Type), s.Name, s.Type)
			if s.URL != "" {
				fmt.Fprintf(out, " %s", s.URL)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}
