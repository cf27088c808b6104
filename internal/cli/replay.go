package cli

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/sseqchart/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Output   string // write the replayed document here (single chart only)
}

// ReplayChartResult holds the replay result for a single stored chart.
type ReplayChartResult struct {
	Name          string `json:"name"`
	ChartID       string `json:"chart_id"`
	SnapshotSeq   int64  `json:"snapshot_seq"`
	Batches       int    `json:"batches"`
	Classes       int    `json:"classes"`
	Edges         int    `json:"edges"`
	Deterministic bool   `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Charts           []ReplayChartResult `json:"charts"`
	TotalCharts      int                 `json:"total_charts"`
	AllDeterministic bool                `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [snapshot-name]",
		Short: "Rebuild stored charts from their snapshots and batch logs",
		Long: `Rebuild stored charts by decoding each snapshot and applying every batch
logged after it.

Each chart is replayed twice and the two encodings compared, so a log that
does not rebuild the same chart every time is reported. Without a name,
every stored snapshot is replayed.

Exit codes:
  0 - All charts replay deterministically
  1 - Replays disagreed
  2 - Command error (database not found, malformed log, etc.)

Examples:
  sseqchart replay --db charts.db
  sseqchart replay adams --db charts.db -o adams.json
  sseqchart replay --db charts.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runReplay(opts, name, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the replayed chart document to this file")

	return cmd
}

func runReplay(opts *ReplayOptions, name string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := opts.formatter(cmd)

	if opts.Output != "" && name == "" {
		return NewExitError(ExitCommandError, "--output requires a snapshot name")
	}

	st, err := store.Open(opts.Database, store.WithLogger(opts.logger(cmd.ErrOrStderr())))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var names []string
	if name != "" {
		names = []string{name}
	} else {
		snaps, err := st.ListSnapshots(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list snapshots", err)
		}
		for _, s := range snaps {
			names = append(names, s.Name)
		}
	}

	if len(names) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(formatter, ReplayResult{
				Charts:           []ReplayChartResult{},
				AllDeterministic: true,
			})
		}
		fmt.Fprintln(formatter.Writer, "No charts found in database.")
		return nil
	}

	result := ReplayResult{
		Charts:           make([]ReplayChartResult, 0, len(names)),
		TotalCharts:      len(names),
		AllDeterministic: true,
	}
	for _, n := range names {
		chartResult, doc, err := replayAndVerify(ctx, st, n)
		if errors.Is(err, sql.ErrNoRows) {
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("no chart saved as %q", n), nil)
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay %s", n), err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay %s", n), err)
		}
		formatter.VerboseLog("Replayed %s: %d batch(es) after seq %d", n, chartResult.Batches, chartResult.SnapshotSeq)

		if opts.Output != "" {
			if err := os.WriteFile(opts.Output, doc, 0644); err != nil {
				_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to write output", err)
			}
		}

		result.Charts = append(result.Charts, chartResult)
		if !chartResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

// replayAndVerify replays one chart twice and compares the encodings.
// Returns the first replay's document.
func replayAndVerify(ctx context.Context, st *store.Store, name string) (ReplayChartResult, []byte, error) {
	first, err := st.Replay(ctx, name)
	if err != nil {
		return ReplayChartResult{}, nil, fmt.Errorf("first replay failed: %w", err)
	}
	second, err := st.Replay(ctx, name)
	if err != nil {
		return ReplayChartResult{}, nil, fmt.Errorf("second replay failed: %w", err)
	}

	doc1, err := first.Chart.Encode()
	if err != nil {
		return ReplayChartResult{}, nil, err
	}
	doc2, err := second.Chart.Encode()
	if err != nil {
		return ReplayChartResult{}, nil, err
	}

	return ReplayChartResult{
		Name:          name,
		ChartID:       first.Chart.ID(),
		SnapshotSeq:   first.SnapshotSeq,
		Batches:       first.Batches,
		Classes:       len(first.Chart.Classes()),
		Edges:         len(first.Chart.Edges()),
		Deterministic: bytes.Equal(doc1, doc2),
	}, doc1, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeReplayDiffer,
			Message: "replays disagreed",
		}
	}

	if err := formatter.JSON(response); err != nil {
		return err
	}
	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "replays disagreed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Replay Summary: %d chart(s)\n", result.TotalCharts)
	fmt.Fprintln(w)

	for _, c := range result.Charts {
		status := "✓"
		if !c.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %s (%s)\n", status, c.Name, c.ChartID)
		if formatter.Verbose {
			fmt.Fprintf(w, "  Snapshot seq: %d\n", c.SnapshotSeq)
			fmt.Fprintf(w, "  Batches applied: %d\n", c.Batches)
		}
		fmt.Fprintf(w, "  %d class(es), %d edge(s)\n", c.Classes, c.Edges)
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "replays disagreed")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "✓ All charts replay deterministically")
	return nil
}
