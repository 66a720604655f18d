package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wexinc/sourcecheck/internal/version"
)

// versionCmd represents the version command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Show detailed version information for sourcecheck.

Displays the current version, commit hash, build date,
and Go/platform information.

Examples:
  sourcecheck version           # Show detailed version info
  sourcecheck version --check   # Check for a newer release`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

// newChecker is replaced in tests.
var newChecker = version.NewChecker

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("check", "c", false, "Check for a newer release")
}

// runVersion handles the version command.
func runVersion(cmd *cobra.Command, args []string) error {
	info := version.NewInfo(Version, Commit, Date)
	cmd.Println(info.FullString())

	if check, _ := cmd.Flags().GetBool("check"); check {
		return checkForUpdate(cmd)
	}
	return nil
}

// checkForUpdate looks up the latest release and reports it.
func checkForUpdate(cmd *cobra.Command) error {
	cmd.Println("")
	cmd.Println("Checking for updates...")

	ctx, cancel := context.WithTimeout(commandContext(cmd), 10*time.Second)
	defer cancel()

	release, err := newChecker().CheckForUpdate(ctx, Version)
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}

	if release == nil {
		cmd.Println("✓ You are running the latest version.")
		return nil
	}

	cmd.Println("")
	if version.IsDevBuild(Version) {
		cmd.Printf("This is a development build. Latest release: %s\n", release.TagName)
	} else {
		cmd.Printf("📦 A new version is available: %s (current: %s)\n", release.TagName, Version)
	}
	cmd.Printf("Release notes: %s\n", release.HTMLURL)
	return nil
}
