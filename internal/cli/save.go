package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sseqchart/internal/chart"
	"github.com/roach88/sseqchart/internal/schema"
	"github.com/roach88/sseqchart/internal/store"
)

// SaveOptions holds flags for the save command.
type SaveOptions struct {
	*RootOptions
	Database string
	As       string // snapshot name, defaults to the chart name
}

// SaveResult describes a stored snapshot.
type SaveResult struct {
	Snapshot string `json:"snapshot"`
	ChartID  string `json:"chart_id"`
	Seq      int64  `json:"seq"`
	Digest   string `json:"digest"`
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <chart.json>",
		Short: "Import a chart document into the database",
		Long: `Validate a chart document and store it as a named snapshot, replacing
any snapshot with the same name. The document is stored exactly as given.

The snapshot covers every batch already logged for the chart, so a later
replay starts from it.

Examples:
  sseqchart save adams.json --db charts.db
  sseqchart save adams.json --db charts.db --as adams-v2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.As, "as", "", "snapshot name (default: chart name)")

	return cmd
}

func runSave(opts *SaveOptions, path string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := opts.formatter(cmd)

	doc, err := readDocument(path)
	if err != nil {
		return outputValidateError(formatter, loadErrorCode(err), err.Error(), nil)
	}

	validator, err := schema.New()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load chart schema", err)
	}
	if violations := validator.Validate(doc); len(violations) > 0 {
		return outputValidationErrors(formatter, violations)
	}

	c, err := chart.Decode(doc)
	if err != nil {
		return outputValidateError(formatter, ErrCodeDecode, err.Error(), nil)
	}
	name := opts.As
	if name == "" {
		name = c.Name()
	}

	st, err := store.Open(opts.Database, store.WithLogger(opts.logger(cmd.ErrOrStderr())))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if err := st.Import(ctx, name, doc); err != nil {
		return outputValidateError(formatter, ErrCodeStore, err.Error(), nil)
	}
	snap, err := st.ReadSnapshot(ctx, name)
	if err != nil {
		return outputValidateError(formatter, ErrCodeStore, err.Error(), nil)
	}

	result := SaveResult{Snapshot: snap.Name, ChartID: snap.ChartID, Seq: snap.Seq, Digest: snap.Digest}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Saved %s as %q (covers seq %d)\n", result.ChartID, result.Snapshot, result.Seq)
	return nil
}
