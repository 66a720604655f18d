package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/wexinc/sourcecheck/internal/errors"
	"github.com/wexinc/sourcecheck/internal/manifest"
)

// DefaultManifestPath is the manifest validated when no file is given.
const DefaultManifestPath = "requirements.txt"

// manifestCmd groups the manifest commands.
var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Work with the pinned dependency manifest",
}

// manifestValidateCmd represents the manifest validate command.
var manifestValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check that a requirements manifest is well-formed",
	Long: `Check that every non-comment, non-blank line of a requirements manifest
is an exact pin (name==version) and that index URL directives are absolute
http(s) URLs. Duplicate packages are reported too.

--require names packages that must be pinned; names compare in normalized
form, so CEIC-API-Client matches ceic_api_client.

Exits non-zero when the manifest is malformed or a required package is
missing.

Examples:
  sourcecheck manifest validate
  sourcecheck manifest validate --require streamlit --require ceic_api_client
  sourcecheck manifest validate deploy/requirements.txt --output json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runManifestValidate,
}

func init() {
	rootCmd.AddCommand(manifestCmd)
	manifestCmd.AddCommand(manifestValidateCmd)
	manifestValidateCmd.Flags().StringSlice("require", nil, "Package that must be pinned (repeatable)")
	addOutputFlag(manifestValidateCmd)
}

func runManifestValidate(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	path := DefaultManifestPath
	if len(args) == 1 {
		path = args[0]
	}

	m, err := manifest.ValidateFile(path)
	if err != nil {
		return err
	}

	required, _ := cmd.Flags().GetStringSlice("require")
	var pins []manifest.Requirement
	var missing []string
	for _, name := range required {
		r, ok := m.Lookup(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		pins = append(pins, r)
	}
	if len(missing) > 0 {
		return apperrors.WithSuggestion(apperrors.ErrManifest,
			fmt.Sprintf("%s does not pin %s", path, strings.Join(missing, ", ")),
			"Add an exact pin (name==version) for each missing package.")
	}

	return writeOutput(cmd.OutOrStdout(), format, m, func(w io.Writer) error {
		fmt.Fprintf(w, "✓ %s is well-formed: %d pinned packages\n", path, len(m.Requirements))
		for _, r := range pins {
			fmt.Fprintf(w, "  required:    %s (line %d)\n", r, r.Line)
		}
		if m.IndexURL != "" {
			fmt.Fprintf(w, "  index:       %s\n", m.IndexURL)
		}
		for _, u := range m.ExtraIndexURLs {
			fmt.Fprintf(w, "  extra index: %s\n", u)
		}
		return nil
	})
}
