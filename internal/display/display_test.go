package display

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sseqchart/internal/chart"
	"github.com/roach88/sseqchart/internal/page"
	"github.com/roach88/sseqchart/internal/testutil"
)

// failingAgent rejects every batch.
type failingAgent struct{ err error }

func (a failingAgent) SendBatch(context.Context, []chart.Message) error { return a.err }

func newSource(t *testing.T) *chart.Chart {
	t.Helper()
	c, err := chart.New("source", chart.WithIDGenerator(testutil.NewSequentialIDs("")))
	require.NoError(t, err)
	return c
}

func newMirrorOf(t *testing.T, src *chart.Chart) *Mirror {
	t.Helper()
	initial, err := src.Encode()
	require.NoError(t, err)
	m, err := NewMirror(initial)
	require.NoError(t, err)
	return m
}

func buildSome(t *testing.T, c *chart.Chart) {
	t.Helper()
	a, err := c.AddClass(0, 0)
	require.NoError(t, err)
	b, err := c.AddClass(1, 1)
	require.NoError(t, err)
	tgt, err := c.AddClass(0, 2)
	require.NoError(t, err)
	a.Name().SetAll("a")
	require.NoError(t, b.Visible().Set(4, false))
	_, err = c.AddStructline(a, b)
	require.NoError(t, err)
	_, err = c.AddDifferential(2, b, tgt, true)
	require.NoError(t, err)
}

func assertMirrored(t *testing.T, src *chart.Chart, m *Mirror) {
	t.Helper()
	want, err := src.Encode()
	require.NoError(t, err)
	got, err := m.Encode()
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestMirror_TracksSource(t *testing.T) {
	src := newSource(t)
	m := newMirrorOf(t, src)
	src.SetAgent(m)

	buildSome(t, src)
	require.NoError(t, src.Update(context.Background()))
	assertMirrored(t, src, m)

	a, err := src.GetClass(0, 0)
	require.NoError(t, err)
	require.NoError(t, a.Delete())
	src.SetYRange(-3, 3)
	require.NoError(t, src.Update(context.Background()))
	assertMirrored(t, src, m)

	assert.Equal(t, 2, m.Batches())
	assert.Equal(t, 0, m.Chart().Pending())
}

func TestMirror_RejectsForeignBatch(t *testing.T) {
	src := newSource(t)
	m := newMirrorOf(t, src)

	err := m.SendBatch(context.Background(), []chart.Message{{
		ChartID:    src.ID(),
		Command:    chart.CommandDelete,
		TargetType: "ChartClass",
		TargetUUID: "missing",
	}})
	require.Error(t, err)
	assert.True(t, chart.IsCode(err, chart.ErrCodeUnresolvedReference), "got %v", err)
	assert.Equal(t, 0, m.Batches())
}

func TestNewMirror_RejectsGarbage(t *testing.T) {
	_, err := NewMirror([]byte(`{"type":"Nope"}`))
	assert.True(t, chart.IsCode(err, chart.ErrCodeMalformed), "got %v", err)
}

func TestRecorder(t *testing.T) {
	src := newSource(t)
	rec := NewRecorder()
	src.SetAgent(rec)

	buildSome(t, src)
	require.NoError(t, src.Update(context.Background()))
	src.AddPageRange(5, 5)
	require.NoError(t, src.Update(context.Background()))

	require.Len(t, rec.Batches(), 2)
	assert.Len(t, rec.Messages(), len(rec.Batches()[0])+1)
	assert.True(t, rec.Batches()[1][0].IsSettings())

	data, err := rec.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"command":"create"`)
	assert.Contains(t, string(data), `"target_type":"SseqChart"`)

	rec.Reset()
	assert.Empty(t, rec.Batches())
}

func TestRecorder_EncodeIsDeterministic(t *testing.T) {
	run := func() []byte {
		src := newSource(t)
		rec := NewRecorder()
		src.SetAgent(rec)
		buildSome(t, src)
		require.NoError(t, src.Update(context.Background()))
		data, err := rec.Encode()
		require.NoError(t, err)
		return data
	}
	assert.Equal(t, string(run()), string(run()))
}

func TestFanOut_DeliversToAll(t *testing.T) {
	src := newSource(t)
	first := newMirrorOf(t, src)
	second := newMirrorOf(t, src)
	rec := NewRecorder()
	fan := NewFanOut(first, second)
	fan.Add(rec)
	assert.Equal(t, 3, fan.Len())
	src.SetAgent(fan)

	buildSome(t, src)
	require.NoError(t, src.Update(context.Background()))

	assertMirrored(t, src, first)
	assertMirrored(t, src, second)
	assert.Len(t, rec.Batches(), 1)
}

func TestFanOut_ReportsFailure(t *testing.T) {
	src := newSource(t)
	boom := errors.New("display went away")
	rec := NewRecorder()
	src.SetAgent(NewFanOut(rec, failingAgent{err: boom}))

	buildSome(t, src)
	err := src.Update(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, rec.Batches(), 1, "healthy agents still receive the batch")
}

func TestInstrumented_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	rec := NewRecorder()

	src := newSource(t)
	src.SetAgent(NewInstrumented(rec, metrics))
	buildSome(t, src)
	require.NoError(t, src.Update(context.Background()))

	a, err := src.GetClass(0, 0)
	require.NoError(t, err)
	a.Name().SetAll("renamed")
	require.NoError(t, src.Update(context.Background()))

	created := float64(len(rec.Batches()[0]) - 1) // minus the settings message
	assert.Equal(t, 2.0, promtest.ToFloat64(metrics.batches.WithLabelValues("success")))
	assert.Equal(t, created, promtest.ToFloat64(metrics.messages.WithLabelValues("create")))
	assert.Equal(t, 2.0, promtest.ToFloat64(metrics.messages.WithLabelValues("update")))
	assert.Equal(t, 2, promtest.CollectAndCount(metrics.batchSize))
}

func TestInstrumented_RecordsFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	boom := errors.New("boom")

	src := newSource(t)
	src.SetAgent(NewInstrumented(failingAgent{err: boom}, metrics))
	_, err := src.AddClass(0, 0)
	require.NoError(t, err)

	assert.ErrorIs(t, src.Update(context.Background()), boom)
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.batches.WithLabelValues("error")))
	assert.Equal(t, 0.0, promtest.ToFloat64(metrics.messages.WithLabelValues("create")))
}

func TestMirror_PageVaryingAttributes(t *testing.T) {
	src := newSource(t)
	m := newMirrorOf(t, src)
	src.SetAgent(m)

	cls, err := src.AddClass(3, 1)
	require.NoError(t, err)
	require.NoError(t, cls.Scale().SetRange(2, 5, 1.5))
	require.NoError(t, cls.ForegroundColor().Set(3, chart.ColorRef("red")))
	require.NoError(t, src.Update(context.Background()))

	mirrored, ok := m.Chart().Class(cls.ID())
	require.True(t, ok)
	assert.Equal(t, 1.5, mirrored.Scale().MustGet(4))
	assert.Equal(t, 1.0, mirrored.Scale().MustGet(page.Infinity))
	assert.Equal(t, "red", mirrored.ForegroundColor().MustGet(3).Name)
}
