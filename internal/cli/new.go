package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sseqchart/internal/schema"
	"github.com/roach88/sseqchart/internal/store"
)

// NewOptions holds flags for the new command.
type NewOptions struct {
	*RootOptions
	Database string
	As       string // snapshot name, defaults to the chart name
}

// NewResult describes a newly created chart.
type NewResult struct {
	Name     string `json:"name"`
	ChartID  string `json:"chart_id"`
	Snapshot string `json:"snapshot"`
	Database string `json:"database"`
}

// NewNewCommand creates the new command.
func NewNewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "new <config.yaml>",
		Short: "Create a chart from a configuration file",
		Long: `Create an empty chart from a YAML configuration and save it to the
database as a named snapshot.

The configuration registers colors, shapes and styles, sets the default
styles, and configures projections, ranges and the page list. The built
chart is checked against the document schema before it is saved.

Examples:
  sseqchart new adams.yaml --db charts.db
  sseqchart new adams.yaml --db charts.db --as adams-draft`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.As, "as", "", "snapshot name (default: chart name)")

	return cmd
}

func runNew(opts *NewOptions, configPath string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	if !isConfigPath(configPath) {
		_ = formatter.Error(ErrCodeConfig, "expected a .yaml or .yml configuration file", configPath)
		return NewExitError(ExitCommandError, fmt.Sprintf("not a configuration file: %s", configPath))
	}
	c, err := loadChart(configPath, logger)
	if err != nil {
		_ = formatter.Error(loadErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to build chart", err)
	}
	formatter.VerboseLog("Built chart %q from %s", c.Name(), configPath)

	validator, err := schema.New()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load chart schema", err)
	}
	violations, err := validator.ValidateChart(c)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode chart", err)
	}
	if len(violations) > 0 {
		return outputValidationErrors(formatter, violations)
	}

	st, err := store.Open(opts.Database, store.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	name := opts.As
	if name == "" {
		name = c.Name()
	}
	if err := st.SaveAs(ctx, c, name); err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to save chart", err)
	}

	result := NewResult{
		Name:     c.Name(),
		ChartID:  c.ID(),
		Snapshot: name,
		Database: opts.Database,
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Created chart %q (%s) as snapshot %q in %s\n", result.Name, result.ChartID, result.Snapshot, result.Database)
	return nil
}
