package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	apperrors "github.com/wexinc/sourcecheck/internal/errors"
	"github.com/wexinc/sourcecheck/internal/store"
	"github.com/wexinc/sourcecheck/internal/summary"
)

// historyCmd represents the history command.
var historyCmd = &cobra.Command{
	Use:   "history <source-id|name>",
	Short: "List recorded snapshots of a source",
	Long: `List the snapshots recorded for a source, newest first.

With --diff the series added, removed or updated by a snapshot are listed,
compared with the snapshot taken just before it. "latest" selects the most
recent snapshot.

Examples:
  sourcecheck history SRC001
  sourcecheck history SRC001 --diff latest
  sourcecheck history SRC001 --diff 2f6c3e1a-... --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().String("diff", "", `Show the changes introduced by a snapshot ID or "latest"`)
	addOutputFlag(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	diff, _ := cmd.Flags().GetString("diff")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	closeLog := initLogging(cmd, cfg)
	defer closeLog()

	src, err := resolveSource(cfg, args[0])
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	st, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer st.Close()

	if diff == "" {
		infos, err := st.ListSnapshots(ctx, src.ID)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), format, infos, func(w io.Writer) error {
			if len(infos) == 0 {
				fmt.Fprintf(w, "No snapshots recorded for %s\n", src.ID)
				return nil
			}
			for _, info := range infos {
				fmt.Fprintf(w, "%s  %s  %s series\n",
					info.ID, info.TakenAt.Local().Format(summary.DateTimeLayout), summary.FormatCount(info.SeriesCount))
			}
			return nil
		})
	}

	var next *store.Snapshot
	if diff == "latest" {
		next, err = st.LatestSnapshot(ctx, src.ID)
	} else {
		next, err = st.GetSnapshot(ctx, diff)
	}
	if apperrors.Is(err, store.ErrNoSnapshot) {
		return apperrors.WithSuggestion(apperrors.ErrNotFound,
			fmt.Sprintf("no snapshot %q for %s", diff, src.ID),
			"Record one with: sourcecheck check "+src.ID+" --load --snapshot")
	}
	if err != nil {
		return err
	}
	if next.SourceID != src.ID {
		return fmt.Errorf("snapshot %s belongs to source %s, not %s", next.ID, next.SourceID, src.ID)
	}

	prev, err := st.PreviousSnapshot(ctx, src.ID, next.ID)
	if err != nil && !apperrors.Is(err, store.ErrNoSnapshot) {
		return err
	}
	report := store.Compare(prev, next)

	return writeOutput(cmd.OutOrStdout(), format, report, func(w io.Writer) error {
		fmt.Fprintln(w, report.String())
		printRecords(w, "Added", report.Added)
		printRecords(w, "Removed", report.Removed)
		printRecords(w, "Updated", report.Updated)
		if len(report.StatusChanged) > 0 {
			fmt.Fprintf(w, "\nStatus changed (%d)\n", len(report.StatusChanged))
			for _, c := range report.StatusChanged {
				fmt.Fprintf(w, "  %-14s %s -> %s  %s\n", c.SeriesID, c.From, c.To, c.Name)
			}
		}
		return nil
	})
}

func printRecords(w io.Writer, title string, recs []store.SeriesRecord) {
	if len(recs) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s (%d)\n", title, len(recs))
	for _, r := range recs {
		fmt.Fprintf(w, "  %-14s %s\n", r.SeriesID, r.Name)
	}
}
