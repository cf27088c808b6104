package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/sseqchart/internal/chart"
	"github.com/roach88/sseqchart/internal/config"
	"github.com/roach88/sseqchart/internal/display"
	"github.com/roach88/sseqchart/internal/store"
	"github.com/roach88/sseqchart/internal/testutil"
)

// Harness runs one scenario against a chart wired to three agents: a
// mirror, a recorder and an in-memory store.
type Harness struct {
	chart    *chart.Chart
	mirror   *display.Mirror
	recorder *display.Recorder
	store    *store.Store
	refs     map[string]any
	logger   *slog.Logger
}

// Option configures a run.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *display.Metrics
}

// WithLogger sets the logger for the run and its chart.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics records the run's deliveries in m. Metrics accumulate across
// runs sharing m.
func WithMetrics(m *display.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory database, and ids come from
// a sequential generator, so runs are reproducible.
//
// Execution flow:
//  1. Build the chart and snapshot its initial encoding into the store
//  2. Execute the steps, checking the mirror after each flush
//  3. Flush once more, then rebuild the chart from the store's log
//  4. Evaluate assertions
//
// Step and assertion failures are reported in the result; the error
// return is for failures of the harness itself.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}
	ctx := context.Background()

	c, err := buildChart(scenario, o.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build chart: %w", err)
	}

	st, err := store.Open(":memory:", store.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	// The mirror and the snapshot both start from the built chart, so the
	// messages queued while building it carry nothing new.
	c.Discard()
	initial, err := c.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode initial chart: %w", err)
	}
	mirror, err := display.NewMirror(initial)
	if err != nil {
		return nil, err
	}
	// Snapshot before any batch so replay covers the whole log.
	if err := st.SaveAs(ctx, c, scenario.Name); err != nil {
		return nil, err
	}

	h := &Harness{
		chart:    c,
		mirror:   mirror,
		recorder: display.NewRecorder(),
		store:    st,
		refs:     make(map[string]any),
		logger:   o.logger,
	}
	var agent chart.Agent = display.NewFanOut(h.mirror, h.recorder, h.store)
	if o.metrics != nil {
		agent = display.NewInstrumented(agent, o.metrics)
	}
	c.SetAgent(agent)

	result := NewResult()
	h.executeSteps(ctx, scenario.Steps, result)

	if c.Pending() > 0 {
		h.flush(ctx, "final flush", result)
	}
	h.checkReplay(ctx, scenario.Name, result)

	for _, errMsg := range EvaluateAssertions(h, scenario.Assertions) {
		result.AddError(errMsg)
	}

	result.Batches = h.recorder.Batches()
	if result.Document, err = c.Encode(); err != nil {
		return nil, fmt.Errorf("failed to encode final chart: %w", err)
	}
	return result, nil
}

func buildChart(scenario *Scenario, logger *slog.Logger) (*chart.Chart, error) {
	opts := []chart.Option{
		chart.WithIDGenerator(testutil.NewSequentialIDs("")),
		chart.WithLogger(logger),
	}
	switch {
	case scenario.Config != "":
		cfg, err := config.Load(scenario.Config)
		if err != nil {
			return nil, err
		}
		return cfg.Build(opts...)
	case scenario.Chart != nil:
		return scenario.Chart.Build(opts...)
	default:
		return chart.New(scenario.Name, opts...)
	}
}

// executeSteps runs the steps in order. An unexpected failure stops the
// run; later steps would act on a state the scenario did not intend.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) {
	for i, step := range steps {
		if step.Op == OpFlush {
			if !h.flush(ctx, fmt.Sprintf("step %d", i), result) {
				return
			}
			continue
		}

		err := h.execute(step)
		switch {
		case step.ExpectError != "" && err == nil:
			result.AddError(fmt.Sprintf("step %d (%s): expected error %s, got success", i, step.Op, step.ExpectError))
		case step.ExpectError != "" && !chart.IsCode(err, chart.ErrorCode(step.ExpectError)):
			result.AddError(fmt.Sprintf("step %d (%s): expected error %s, got %v", i, step.Op, step.ExpectError, err))
		case step.ExpectError == "" && err != nil:
			result.AddError(fmt.Sprintf("step %d (%s): %v", i, step.Op, err))
			return
		}

		h.logger.Debug("step completed", "step", i, "op", step.Op, "pending", h.chart.Pending())
	}
}

// flush delivers the queue and checks the mirror. Returns false if the
// run should stop.
func (h *Harness) flush(ctx context.Context, label string, result *Result) bool {
	if err := h.chart.Update(ctx); err != nil {
		result.AddError(fmt.Sprintf("%s: flush: %v", label, err))
		return false
	}
	if err := h.sameEncoding(h.mirror.Chart(), "mirror"); err != nil {
		result.AddError(fmt.Sprintf("%s: %v", label, err))
		return false
	}
	h.logger.Info("flush checked", "label", label, "batches", h.mirror.Batches())
	return true
}

// checkReplay rebuilds the chart from the store's snapshot and log.
func (h *Harness) checkReplay(ctx context.Context, name string, result *Result) {
	replayed, err := h.store.Replay(ctx, name)
	if err != nil {
		result.AddError(fmt.Sprintf("replay: %v", err))
		return
	}
	if err := h.sameEncoding(replayed.Chart, "replayed chart"); err != nil {
		result.AddError(fmt.Sprintf("replay: %v", err))
	}
}

func (h *Harness) sameEncoding(other *chart.Chart, what string) error {
	want, err := h.chart.Encode()
	if err != nil {
		return fmt.Errorf("encode chart: %w", err)
	}
	got, err := other.Encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", what, err)
	}
	if string(want) != string(got) {
		return fmt.Errorf("%s diverged from chart:\n  chart: %s\n  %s: %s", what, want, what, got)
	}
	return nil
}
