package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wexinc/sourcecheck/internal/ceic"
	apperrors "github.com/wexinc/sourcecheck/internal/errors"
	"github.com/wexinc/sourcecheck/internal/explorer"
	"github.com/wexinc/sourcecheck/internal/logging"
	"github.com/wexinc/sourcecheck/internal/summary"
)

// seriesCmd represents the series command.
var seriesCmd = &cobra.Command{
	Use:   "series <source-id|name> <series-id>",
	Short: "Show the details of one series",
	Long: `Show the metadata of a single series: key metrics, core attributes,
indicator paths, geography and flags.

The series is first looked up with a keyword search. When that does not
find it, the whole source is loaded, which needs --yes for sources above
the warning threshold.

Examples:
  sourcecheck series SRC001 310901701
  sourcecheck series SRC001 310901701 --output yaml`,
	Args: cobra.ExactArgs(2),
	RunE: runSeries,
}

func init() {
	rootCmd.AddCommand(seriesCmd)
	seriesCmd.Flags().BoolP("yes", "y", false, "Allow loading a source above the warning threshold")
	addOutputFlag(seriesCmd)
}

func runSeries(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	yes, _ := cmd.Flags().GetBool("yes")
	seriesID := args[1]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	closeLog := initLogging(cmd, cfg)
	defer closeLog()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := resolveSource(cfg, args[0])
	if err != nil {
		return err
	}
	exp, err := login(ctx, cfg, explorer.Options{API: apiOptions(cfg), WarnThreshold: cfg.Explorer.WarnThreshold})
	if err != nil {
		return err
	}
	defer exp.Logout(ctx)

	sess := exp.Session()
	page, err := sess.Client().Search(ctx, ceic.SearchParams{Sources: []string{src.ID}, Keyword: seriesID})
	if err != nil {
		return err
	}
	meta, found := summary.Find(page.Metadata(), seriesID)

	if !found {
		logging.Info("series not found by keyword, loading source", "source_id", src.ID, "series_id", seriesID)
		sum, err := exp.SearchSource(ctx, src.ID, src.Name)
		if err != nil {
			return err
		}
		sess.RequestLoad(src.ID, sum.NumSeries)
		if _, err := exp.HandleLoadRequest(ctx, yes, nil); err != nil {
			if apperrors.Is(err, explorer.ErrConfirmationRequired) {
				return apperrors.WithSuggestion(apperrors.ErrSession,
					fmt.Sprintf("finding %s requires loading all %s series of %s", seriesID, summary.FormatCount(sum.NumSeries), src.ID),
					"Re-run with --yes to load the source").WithCause(err)
			}
			return err
		}
		meta, found = summary.Find(sess.SeriesDetails(), seriesID)
	}

	detail, ok := summary.BuildDetail(meta)
	if !found || !ok {
		return apperrors.SeriesNotFound(seriesID, src.ID)
	}
	return writeOutput(cmd.OutOrStdout(), format, detail, detail.WriteText)
}
