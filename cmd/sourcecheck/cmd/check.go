package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wexinc/sourcecheck/internal/config"
	apperrors "github.com/wexinc/sourcecheck/internal/errors"
	"github.com/wexinc/sourcecheck/internal/explorer"
	"github.com/wexinc/sourcecheck/internal/session"
	"github.com/wexinc/sourcecheck/internal/source"
	"github.com/wexinc/sourcecheck/internal/store"
	"github.com/wexinc/sourcecheck/internal/summary"
)

// checkCmd represents the check command.
var checkCmd = &cobra.Command{
	Use:   "check <source-id|name>",
	Short: "Report the series count and statistics of a source",
	Long: `Search a source without the TUI and print its summary.

With --load every series is fetched and the oldest and newest update dates
and the number of active series are reported. Sources above the warning
threshold (explorer.warn_threshold) are only loaded with --yes.

With --snapshot the loaded series are stored locally and compared with the
previous snapshot of the same source.

Credentials are read from SOURCECHECK_API_USERNAME and
SOURCECHECK_API_PASSWORD (or api.username / api.password in the config).

Examples:
  sourcecheck check SRC001
  sourcecheck check "Bureau of Statistics" --load
  sourcecheck check SRC001 --load --yes --filter gdp
  sourcecheck check SRC001 --load --snapshot --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().Bool("load", false, "Load the metadata of every series")
	checkCmd.Flags().BoolP("yes", "y", false, "Load even when the source is above the warning threshold")
	checkCmd.Flags().String("filter", "", "Only list series whose name or ID contains this keyword (requires --load)")
	checkCmd.Flags().Bool("snapshot", false, "Record a snapshot and report changes since the last one (requires --load)")
	addOutputFlag(checkCmd)
}

// checkReport is the machine-readable result of the check command.
type checkReport struct {
	Summary summary.Summary     `json:"summary"           yaml:"summary"`
	Filter  string              `json:"filter,omitempty"  yaml:"filter,omitempty"`
	Series  []summary.Row       `json:"series,omitempty"  yaml:"series,omitempty"`
	Changes *store.ChangeReport `json:"changes,omitempty" yaml:"changes,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	load, _ := cmd.Flags().GetBool("load")
	yes, _ := cmd.Flags().GetBool("yes")
	filter, _ := cmd.Flags().GetString("filter")
	snapshot, _ := cmd.Flags().GetBool("snapshot")
	if filter != "" && !load {
		return fmt.Errorf("--filter requires --load")
	}
	if snapshot && !load {
		return fmt.Errorf("--snapshot requires --load")
	}

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

	opts := explorer.Options{API: apiOptions(cfg), WarnThreshold: cfg.Explorer.WarnThreshold}
	if snapshot {
		st, err := store.Open(ctx, cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("failed to open snapshot store: %w", err)
		}
		defer st.Close()
		opts.Snapshots = st
	}

	exp, err := login(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer exp.Logout(ctx)

	sum, err := exp.SearchSource(ctx, src.ID, src.Name)
	if err != nil {
		return err
	}
	report := checkReport{Summary: sum}

	if load {
		sess := exp.Session()
		sess.RequestLoad(src.ID, sum.NumSeries)

		var progress *progressPrinter
		if format == outputText {
			progress = newProgressPrinter(cmd.ErrOrStderr(), src.ID)
		}
		result, err := exp.HandleLoadRequest(ctx, yes, progress.Report)
		progress.Finish()
		if apperrors.Is(err, explorer.ErrConfirmationRequired) {
			return apperrors.WithSuggestion(apperrors.ErrSession,
				fmt.Sprintf("%s has %s series, above the warning threshold of %s",
					src.ID, summary.FormatCount(sum.NumSeries), summary.FormatCount(exp.WarnThreshold())),
				"Re-run with --yes to load it anyway, or raise explorer.warn_threshold").WithCause(err)
		}
		if err != nil {
			return err
		}

		if rows := sess.Summary(); len(rows) > 0 {
			report.Summary = rows[0]
		}
		if filter != "" {
			sess.SetFilter(filter)
			report.Filter = filter
			report.Series = summary.Rows(sess.FilteredDetails())
		}
		if result != nil {
			report.Changes = result.Report
		}
	}

	return writeOutput(cmd.OutOrStdout(), format, report, report.writeText)
}

func (r checkReport) writeText(w io.Writer) error {
	s := r.Summary
	field(w, "Source ID", s.SourceID)
	if s.SourceName != "" {
		field(w, "Source Name", s.SourceName)
	}
	field(w, "Total Series Found", summary.FormatCount(s.NumSeries))
	if s.Info != "" {
		field(w, "Info", s.Info)
	}
	if s.Stats != nil {
		field(w, "Oldest Update", s.Stats.MinDate)
		field(w, "Newest Update", s.Stats.MaxDate)
		field(w, "Active Series", summary.FormatCount(s.Stats.ActiveSeries))
	}
	if r.Changes != nil {
		field(w, "Since Last Snapshot", r.Changes.String())
	}

	if r.Filter != "" {
		fmt.Fprintf(w, "\n%s series match %q\n", summary.FormatCount(len(r.Series)), r.Filter)
		for _, row := range r.Series {
			fmt.Fprintf(w, "  %-14s %-12s %-10s %-19s %s\n", row.SeriesID, row.Status, row.Frequency, row.LastUpdate, row.Name)
		}
	}
	return nil
}

// resolveSource finds ref in the configured catalog.
func resolveSource(cfg *config.Config, ref string) (source.Source, error) {
	catalog, err := source.LoadCatalog(cfg.Sources.File)
	if err != nil {
		return source.Source{}, err
	}
	return catalog.Resolve(ref)
}

// login creates an explorer on a fresh session and authenticates it with
// the configured credentials.
func login(ctx context.Context, cfg *config.Config, opts explorer.Options) (*explorer.Explorer, error) {
	exp := explorer.New(session.New(), opts)
	if err := exp.Authenticate(ctx, cfg.API.Username, cfg.API.Password); err != nil {
		return nil, err
	}
	return exp, nil
}

// progressPrinter renders load progress on a single terminal line. A nil
// printer ignores every call.
type progressPrinter struct {
	w        io.Writer
	sourceID string

	mu      sync.Mutex
	last    int
	printed bool
}

func newProgressPrinter(w io.Writer, sourceID string) *progressPrinter {
	return &progressPrinter{w: w, sourceID: sourceID, last: -1}
}

// Report implements ceic.ProgressFunc.
func (p *progressPrinter) Report(done, total int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if done == p.last {
		return
	}
	p.last = done
	p.printed = true
	fmt.Fprintf(p.w, "\rLoading %s: %s/%s series", p.sourceID, summary.FormatCount(done), summary.FormatCount(total))
}

// Finish ends the progress line.
func (p *progressPrinter) Finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.printed {
		fmt.Fprintln(p.w)
		p.printed = false
	}
}
