package selfupdate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/mistweaverco/selfupdate/internal/config"
	"github.com/mistweaverco/selfupdate/internal/lib/files"
	"github.com/mistweaverco/selfupdate/internal/lib/log"
	"github.com/mistweaverco/selfupdate/internal/lib/updater"
	"github.com/mistweaverco/selfupdate/internal/lib/version"
	"github.com/spf13/cobra"
)

var cfg = config.NewConfig(config.Config{
	Flags: config.ConfigFlags{
		Color:  config.ColorModeAuto,
		Output: config.OutputModeRich,
	},
})

var rootCmd = &cobra.Command{
	Use:   "selfupdate",
	Short: "Keep an application up to date from GitHub, HTTP or WebDAV",
	Long: `selfupdate checks a remote repository for a newer version of an application,
downloads the release archive and copies it over the installation,
leaving configured folders such as storage or .env untouched.

Sources are configured in selfupdate.yaml under repository_types.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		files.SetShowProgress(ShouldUseRichOutput() && isatty.IsTerminal(os.Stderr.Fd()))
		if cfg.Flags.Debug {
			log.SetLogLevel(slog.LevelDebug)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Flags.Version {
			fmt.Fprintln(cmd.OutOrStdout(), version.VERSION)
			return nil
		}
		return cmd.Help()
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", IconClose(), formatError(withHints(err), cfg.Flags.VerboseErrors))
		stop()
		osExit(1)
	}
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(releasesCmd)
	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(healthCmd)

	rootCmd.PersistentFlags().BoolVar(&cfg.Flags.Version, "version", false, "version")
	rootCmd.PersistentFlags().StringVarP(&cfg.Flags.ConfigFile, "config", "c", "", "path to the config file (default: selfupdate.yaml in the user config dir or .)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Flags.Source, "source", "s", "", "source repository to use (default: the configured default)")
	rootCmd.PersistentFlags().Var(&cfg.Flags.Color, "color", "color mode: auto, always or never")
	rootCmd.PersistentFlags().Var(&cfg.Flags.Output, "output", "output mode: rich, plain or json")
	rootCmd.PersistentFlags().BoolVar(&cfg.Flags.VerboseErrors, "verbose-errors", false, "print errors with stack traces")
	rootCmd.PersistentFlags().BoolVar(&cfg.Flags.Debug, "debug", false, "write debug output to the log file")
	_ = rootCmd.RegisterFlagCompletionFunc("source", sourceNameCompletion)

	SetColorConfigFunc(func() config.ConfigFlags { return cfg.Flags })
}

// osExit is a variable to allow overriding in tests
var osExit = os.Exit

// indirections for testability
var (
	loadConfigFn = config.Load
	newManagerFn = func(c *config.Config) *updater.Manager {
		return updater.NewManager(c)
	}
	isInteractiveFn = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
	}
)

// loadManager reads and validates the configuration and builds the
// source manager from it.
func loadManager() (*config.Config, *updater.Manager, error) {
	c, err := loadConfigFn(cfg.Flags.ConfigFile)
	if err != nil {
		return nil, nil, err
	}
	c.Flags = cfg.Flags
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	return c, newManagerFn(c), nil
}

// selectedSource returns the repository named by --source or the default one.
func selectedSource() (*config.Config, *updater.Repository, error) {
	c, m, err := loadManager()
	if err != nil {
		return nil, nil, err
	}
	repo, err := m.Source(cfg.Flags.Source)
	if err != nil {
		return nil, nil, err
	}
	return c, repo, nil
}
