// Package cmd provides the CLI commands for sourcecheck.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wexinc/sourcecheck/internal/ceic"
	"github.com/wexinc/sourcecheck/internal/config"
	apperrors "github.com/wexinc/sourcecheck/internal/errors"
	"github.com/wexinc/sourcecheck/internal/logging"
)

// Version information, set from main before Execute.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sourcecheck",
	Short: "CEIC Source Checker - inspect the series a CEIC source publishes",
	Long: `sourcecheck authenticates against the CEIC data API, looks up the
sources listed in a local catalog (sources.json) and reports how many series
each one publishes. Loading a source fetches the metadata of every series,
computes summary statistics and lets you filter and inspect single series.

Loaded sources can be snapshotted locally so later runs report which series
were added, removed or updated.

Run without a subcommand to start the interactive terminal UI.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default "+config.DefaultConfigPath+")")
	rootCmd.PersistentFlags().String("sources", "", "Path to the sources catalog (overrides sources.file)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

// runRoot starts the TUI, same as "sourcecheck run".
func runRoot(cmd *cobra.Command, args []string) error {
	return runRun(cmd, args)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
	rootCmd.SetVersionTemplate("sourcecheck {{.Version}}\n")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, apperrors.FormatAny(err))
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for problems the user can fix in their input or
// configuration and 1 for everything else.
func exitCode(err error) int {
	if apperrors.IsUserError(err) {
		return 2
	}
	return 1
}

// Root returns the root command for testing purposes.
func Root() *cobra.Command {
	return rootCmd
}

// loadConfig reads the configuration named by --config. Without the flag a
// missing default file falls back to built-in defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOrDefault("")
	}
	if err != nil {
		return nil, configError(path, err)
	}

	if sources, _ := cmd.Flags().GetString("sources"); sources != "" {
		cfg.Sources.File = sources
	}
	return cfg, nil
}

// configError maps a config loading failure onto a typed error.
func configError(path string, err error) error {
	var verrs config.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperrors.ConfigValidationError(verrs[0].Field, verrs.Error(), nil)
	}
	var le *config.LoadError
	if errors.As(err, &le) {
		path = le.Path
	}
	if path == "" {
		path = config.DefaultConfigPath
	}
	return apperrors.ConfigParseError(path, err)
}

// initLogging starts file logging and returns the function that closes it.
// Logging problems are reported but never fatal.
func initLogging(cmd *cobra.Command, cfg *config.Config) func() {
	level, err := logging.ParseLevel(string(cfg.Logging.Level))
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v, using info\n", err)
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = logging.LevelDebug
	}

	logConfig := &logging.Config{
		Level:       level,
		LogDir:      cfg.Logging.Dir,
		MaxLogFiles: cfg.Logging.MaxFiles,
		MaxLogAge:   cfg.Logging.MaxAge,
		Console:     false,
		JSONFormat:  cfg.Logging.JSON,
	}
	if err := logging.InitGlobal(logConfig); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to initialize logging: %v\n", err)
		return func() {}
	}
	logging.Info("sourcecheck starting", "version", Version, "command", cmd.Name())
	return func() { _ = logging.CloseGlobal() }
}

// apiOptions maps the API section of cfg onto client options.
func apiOptions(cfg *config.Config) ceic.Options {
	return ceic.Options{
		BaseURL:     cfg.API.BaseURL,
		Timeout:     cfg.API.Timeout,
		PageSize:    cfg.API.PageSize,
		Concurrency: cfg.API.Concurrency,
		MaxRetries:  cfg.API.MaxRetries,
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
