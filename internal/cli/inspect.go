package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sseqchart/internal/chart"
	"github.com/roach88/sseqchart/internal/page"
	"github.com/roach88/sseqchart/internal/store"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Database string // when set, the argument names a stored chart
	Page     string // optional display page to summarize
	MaxLen   string
}

// InspectResult summarizes a chart.
type InspectResult struct {
	Name          string       `json:"name"`
	ChartID       string       `json:"chart_id"`
	NumGradings   int          `json:"num_gradings"`
	XProjection   []int64      `json:"x_projection"`
	YProjection   []int64      `json:"y_projection"`
	XRange        [2]int64     `json:"x_range"`
	YRange        [2]int64     `json:"y_range"`
	PageList      []string     `json:"page_list"`
	Classes       int          `json:"classes"`
	Structlines   int          `json:"structlines"`
	Differentials int          `json:"differentials"`
	Extensions    int          `json:"extensions"`
	ClassStyles   []string     `json:"class_styles"`
	EdgeStyles    []string     `json:"edge_styles"`
	Display       *DisplayPage `json:"display,omitempty"`
}

// DisplayPage summarizes what is drawn on one display page.
type DisplayPage struct {
	Pair           string `json:"pair"`
	VisibleClasses int    `json:"visible_classes"`
	DrawnEdges     int    `json:"drawn_edges"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <chart.json|config.yaml|snapshot-name>",
		Short: "Summarize a chart",
		Long: `Summarize a chart's settings, registries and contents.

The argument is a chart document or configuration file, or with --db the
name of a stored chart, which is replayed to its latest state first.
With --page, also report what is drawn on that display page.

Examples:
  sseqchart inspect chart.json
  sseqchart inspect adams --db charts.db --page 3
  sseqchart inspect adams --db charts.db --page inf --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.Page, "page", "", "display page to summarize (integer or inf)")
	cmd.Flags().StringVar(&opts.MaxLen, "max-len", "inf", "longest differential drawn on --page")

	return cmd
}

func runInspect(opts *InspectOptions, arg string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	var display *page.Pair
	if opts.Page != "" {
		p, err := parsePage(opts.Page)
		if err != nil {
			return outputValidateError(formatter, ErrCodeGeneric, err.Error(), nil)
		}
		maxLen, err := parsePage(opts.MaxLen)
		if err != nil {
			return outputValidateError(formatter, ErrCodeGeneric, err.Error(), nil)
		}
		display = &page.Pair{Page: p, MaxLen: maxLen}
	}

	var c *chart.Chart
	if opts.Database != "" {
		st, err := store.Open(opts.Database, store.WithLogger(logger))
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()

		replayed, err := st.Replay(context.Background(), arg)
		if errors.Is(err, sql.ErrNoRows) {
			return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("no chart saved as %q", arg), nil)
		}
		if err != nil {
			return outputValidateError(formatter, ErrCodeStore, err.Error(), nil)
		}
		formatter.VerboseLog("Replayed %d batch(es) after snapshot seq %d", replayed.Batches, replayed.SnapshotSeq)
		c = replayed.Chart
	} else {
		loaded, err := loadChart(arg, logger)
		if err != nil {
			return outputValidateError(formatter, loadErrorCode(err), err.Error(), nil)
		}
		c = loaded
	}

	result := summarize(c, display)
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	outputInspectText(formatter, result)
	return nil
}

func summarize(c *chart.Chart, display *page.Pair) InspectResult {
	result := InspectResult{
		Name:        c.Name(),
		ChartID:     c.ID(),
		NumGradings: c.NumGradings(),
		XProjection: c.XProjection(),
		YProjection: c.YProjection(),
		Classes:     len(c.Classes()),
		ClassStyles: c.ClassStyleNames(),
		EdgeStyles:  c.EdgeStyleNames(),
	}
	result.XRange[0], result.XRange[1] = c.XRange()
	result.YRange[0], result.YRange[1] = c.YRange()
	for _, p := range c.PageList() {
		result.PageList = append(result.PageList, p.String())
	}

	for _, e := range c.Edges() {
		switch e.(type) {
		case *chart.Structline:
			result.Structlines++
		case *chart.Differential:
			result.Differentials++
		case *chart.Extension:
			result.Extensions++
		}
	}

	if display != nil {
		view := &DisplayPage{Pair: display.String()}
		for _, cls := range c.Classes() {
			if cls.VisibleOn(display.Page) {
				view.VisibleClasses++
			}
		}
		for _, e := range c.Edges() {
			if e.DrawnOn(*display) {
				view.DrawnEdges++
			}
		}
		result.Display = view
	}
	return result
}

func outputInspectText(formatter *OutputFormatter, r InspectResult) {
	w := formatter.Writer
	fmt.Fprintf(w, "Chart %s (%s)\n", r.Name, r.ChartID)
	fmt.Fprintf(w, "  gradings:      %d\n", r.NumGradings)
	fmt.Fprintf(w, "  projections:   x=%v y=%v\n", r.XProjection, r.YProjection)
	fmt.Fprintf(w, "  ranges:        x=%v y=%v\n", r.XRange, r.YRange)
	fmt.Fprintf(w, "  pages:         %s\n", strings.Join(r.PageList, " "))
	fmt.Fprintf(w, "  classes:       %d\n", r.Classes)
	fmt.Fprintf(w, "  edges:         %d structline(s), %d differential(s), %d extension(s)\n",
		r.Structlines, r.Differentials, r.Extensions)
	fmt.Fprintf(w, "  class styles:  %s\n", listOrNone(r.ClassStyles))
	fmt.Fprintf(w, "  edge styles:   %s\n", listOrNone(r.EdgeStyles))
	if r.Display != nil {
		fmt.Fprintf(w, "  page %s: %d class(es) visible, %d edge(s) drawn\n",
			r.Display.Pair, r.Display.VisibleClasses, r.Display.DrawnEdges)
	}
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
