package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wexinc/sourcecheck/internal/source"
)

// sourcesCmd represents the sources command.
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the sources in the catalog",
	Long: `List the sources in the local catalog.

Examples:
  sourcecheck sources                       # Use sources.file from config
  sourcecheck sources --file ./sources.json
  sourcecheck sources --output json`,
	Args: cobra.NoArgs,
	RunE: runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
	sourcesCmd.Flags().StringP("file", "f", "", "Path to the sources catalog")
	addOutputFlag(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	closeLog := initLogging(cmd, cfg)
	defer closeLog()

	path := cfg.Sources.File
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		path = file
	}
	catalog, err := source.LoadCatalog(path)
	if err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), format, catalog.All(), func(w io.Writer) error {
		width := len("ID")
		for _, s := range catalog.All() {
			width = max(width, len(s.ID))
		}
		fmt.Fprintf(w, "%-*s  %s\n", width, "ID", "NAME")
		for _, s := range catalog.All() {
			fmt.Fprintf(w, "%-*s  %s\n", width, s.ID, s.Name)
		}
		fmt.Fprintf(w, "\n%d sources in %s\n", catalog.Len(), path)
		return nil
	})
}
