package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sseqchart/internal/chart"
	"github.com/roach88/sseqchart/internal/testutil"
)

// newStoredChart creates a chart that logs to s.
func newStoredChart(t *testing.T, s *Store, name string) *chart.Chart {
	t.Helper()
	c, err := chart.New(name,
		chart.WithAgent(s),
		chart.WithIDGenerator(testutil.NewSequentialIDs(name)))
	require.NoError(t, err)
	return c
}

func addClasses(t *testing.T, c *chart.Chart, degrees ...[2]int64) []*chart.Class {
	t.Helper()
	out := make([]*chart.Class, len(degrees))
	for i, d := range degrees {
		cls, err := c.AddClass(d[0], d[1])
		require.NoError(t, err)
		out[i] = cls
	}
	return out
}

func TestSendBatch_AssignsSeqPerChart(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	first := newStoredChart(t, s, "first")
	second := newStoredChart(t, s, "second")

	addClasses(t, first, [2]int64{0, 0})
	require.NoError(t, first.Update(ctx))
	addClasses(t, first, [2]int64{1, 0})
	require.NoError(t, first.Update(ctx))
	addClasses(t, second, [2]int64{0, 0})
	require.NoError(t, second.Update(ctx))

	seq, err := s.LastSeq(ctx, first.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)

	seq, err = s.LastSeq(ctx, second.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	seq, err = s.LastSeq(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, seq)
}

func TestSendBatch_LogRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	c := newStoredChart(t, s, "log")

	classes := addClasses(t, c, [2]int64{0, 0}, [2]int64{0, 1})
	_, err := c.AddStructline(classes[0], classes[1])
	require.NoError(t, err)
	rec := &captureAgent{next: s}
	c.SetAgent(rec)
	require.NoError(t, c.Update(ctx))

	batches, err := s.ReadBatches(ctx, c.ID(), 0)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, int64(1), batches[0].Seq)

	want, err := chart.MarshalBatch(rec.last)
	require.NoError(t, err)
	got, err := chart.MarshalBatch(batches[0].Messages)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	later, err := s.ReadBatches(ctx, c.ID(), 1)
	require.NoError(t, err)
	assert.Empty(t, later)
}

func TestSendBatch_EmptyBatch(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.SendBatch(context.Background(), nil))

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM batches").Scan(&count))
	assert.Zero(t, count)
}

func TestSendBatch_RejectsMixedCharts(t *testing.T) {
	s := createTestStore(t)
	err := s.SendBatch(context.Background(), []chart.Message{
		{ChartID: "a", Command: chart.CommandDelete, TargetType: "ChartClass", TargetUUID: "x"},
		{ChartID: "b", Command: chart.CommandDelete, TargetType: "ChartClass", TargetUUID: "y"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message 1 belongs to chart b")
}

func TestSave_FlushesThenSnapshots(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	c := newStoredChart(t, s, "saved")
	addClasses(t, c, [2]int64{0, 0}, [2]int64{1, 1})

	require.NoError(t, c.Save(ctx))
	assert.Zero(t, c.Pending())

	snap, err := s.ReadSnapshot(ctx, "saved")
	require.NoError(t, err)
	assert.Equal(t, c.ID(), snap.ChartID)
	assert.Equal(t, int64(1), snap.Seq)

	want, err := c.Encode()
	require.NoError(t, err)
	assert.Equal(t, string(want), string(snap.Document))
}

func TestSaveAs_ReplacesSnapshot(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	c := newStoredChart(t, s, "orig")
	addClasses(t, c, [2]int64{0, 0})
	require.NoError(t, c.SaveAs(ctx, "copy"))

	addClasses(t, c, [2]int64{2, 0})
	require.NoError(t, c.SaveAs(ctx, "copy"))

	snap, err := s.ReadSnapshot(ctx, "copy")
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Seq)

	loaded, err := chart.Decode(snap.Document)
	require.NoError(t, err)
	assert.Len(t, loaded.Classes(), 2)

	list, err := s.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "copy", list[0].Name)
	assert.Nil(t, list[0].Document)
	assert.Equal(t, snap.Digest, list[0].Digest)
}

func TestSaveAs_RejectsPendingMessages(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	c := newStoredChart(t, s, "pending")
	addClasses(t, c, [2]int64{0, 0})

	err := s.SaveAs(ctx, c, "pending")
	require.ErrorIs(t, err, ErrPending)
	_, err = s.ReadSnapshot(ctx, "pending")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	// Flushing through the chart first leaves a snapshot that replays.
	require.NoError(t, c.SaveAs(ctx, "pending"))
	addClasses(t, c, [2]int64{1, 1})
	require.NoError(t, c.Update(ctx))

	replayed, err := s.Replay(ctx, "pending")
	require.NoError(t, err)
	assert.Len(t, replayed.Chart.Classes(), 2)
}

func TestSaveAs_EmptyName(t *testing.T) {
	s := createTestStore(t)
	c := newStoredChart(t, s, "x")
	assert.Error(t, s.SaveAs(context.Background(), c, ""))
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	src, err := chart.New("imported", chart.WithIDGenerator(testutil.NewSequentialIDs("")))
	require.NoError(t, err)
	addClasses(t, src, [2]int64{3, 1})
	doc, err := src.Encode()
	require.NoError(t, err)

	require.NoError(t, s.Import(ctx, "imported", doc))
	snap, err := s.ReadSnapshot(ctx, "imported")
	require.NoError(t, err)
	assert.Equal(t, src.ID(), snap.ChartID)
	assert.Equal(t, string(doc), string(snap.Document))
	assert.Equal(t, SnapshotDigest(doc), snap.Digest)

	err = s.Import(ctx, "broken", []byte(`{"type":"SseqChart"}`))
	assert.True(t, chart.IsCode(err, chart.ErrCodeMalformed), "got %v", err)
	_, err = s.ReadSnapshot(ctx, "broken")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

// captureAgent remembers the last batch before passing it on.
type captureAgent struct {
	next chart.Agent
	last []chart.Message
}

func (a *captureAgent) SendBatch(ctx context.Context, batch []chart.Message) error {
	a.last = batch
	return a.next.SendBatch(ctx, batch)
}
