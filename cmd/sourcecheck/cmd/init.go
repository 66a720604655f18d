package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wexinc/sourcecheck/internal/config"
)

// initCmd represents the init command.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write .sourcecheck/config.yaml with the default settings.

Credentials are never written; supply them through
SOURCECHECK_API_USERNAME and SOURCECHECK_API_PASSWORD.

Use --force to overwrite an existing configuration.

Examples:
  sourcecheck init
  sourcecheck init --force
  sourcecheck init --config ./ci/sourcecheck.yaml`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolP("force", "f", false, "Overwrite existing configuration")
}

// runInit is the main entry point for the init command.
func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultConfigPath
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := config.NewConfig()
	if sources, _ := cmd.Flags().GetString("sources"); sources != "" {
		cfg.Sources.File = sources
	}
	if err := config.Save(cfg, path); err != nil {
		return err
	}

	cmd.Printf("Created %s\n", path)
	cmd.Println("Set SOURCECHECK_API_USERNAME and SOURCECHECK_API_PASSWORD, then run 'sourcecheck'.")
	return nil
}
