package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wexinc/sourcecheck/internal/explorer"
	"github.com/wexinc/sourcecheck/internal/logging"
	"github.com/wexinc/sourcecheck/internal/session"
	"github.com/wexinc/sourcecheck/internal/source"
	"github.com/wexinc/sourcecheck/internal/store"
	"github.com/wexinc/sourcecheck/internal/tui"
)

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive source checker",
	Long: `Start the interactive terminal UI.

Log in with your CEIC Access ID and Secret Key, pick a source from the
catalog and press enter to see how many series it publishes. Press l to
load every series, / to filter and enter on a row to inspect a series.

Credentials can be pre-filled with SOURCECHECK_API_USERNAME and
SOURCECHECK_API_PASSWORD.

Examples:
  sourcecheck                      # Start the TUI
  sourcecheck run --watch          # Reload the catalog when it changes
  sourcecheck run --no-snapshots   # Do not record snapshots of loaded sources`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("watch", false, "Reload the sources catalog when the file changes")
	runCmd.Flags().Bool("no-snapshots", false, "Do not record snapshots of loaded sources")
}

// runRun is the main entry point for the run command.
func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	closeLog := initLogging(cmd, cfg)
	defer closeLog()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := source.NewCache()
	catalog, catalogErr := cache.Get(cfg.Sources.File)
	if catalogErr != nil {
		logging.Warn("starting with an empty catalog", "path", cfg.Sources.File, "error", catalogErr)
		catalog = source.NewCatalog(nil)
	}

	opts := explorer.Options{
		API:           apiOptions(cfg),
		WarnThreshold: cfg.Explorer.WarnThreshold,
	}
	if noSnapshots, _ := cmd.Flags().GetBool("no-snapshots"); cfg.Store.Enabled && !noSnapshots {
		st, err := store.Open(ctx, cfg.Store.Path)
		if err != nil {
			logging.Warn("snapshot store unavailable", "path", cfg.Store.Path, "error", err)
			cmd.PrintErrf("Warning: snapshots disabled: %v\n", err)
		} else {
			defer st.Close()
			opts.Snapshots = st
		}
	}

	watch := cfg.Sources.Watch
	if cmd.Flags().Changed("watch") {
		watch, _ = cmd.Flags().GetBool("watch")
	}

	runner := tui.NewRunner(tui.Options{
		Explorer:     explorer.New(session.New(), opts),
		Catalog:      catalog,
		Cache:        cache,
		BaseURL:      cfg.API.BaseURL,
		GridPageSize: cfg.Explorer.GridPageSize,
		Username:     cfg.API.Username,
		Password:     cfg.API.Password,
		Context:      ctx,
		SourcesPath:  cfg.Sources.File,
		CatalogErr:   catalogErr,
	}, watch)
	return runner.Run(ctx)
}
