package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sseqchart/internal/chart"
)

func assertSameEncoding(t *testing.T, want, got *chart.Chart) {
	t.Helper()
	a, err := want.Encode()
	require.NoError(t, err)
	b, err := got.Encode()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	c := newStoredChart(t, s, "loadme")
	classes := addClasses(t, c, [2]int64{0, 0}, [2]int64{1, 2})
	_, err := c.AddDifferential(3, classes[1], classes[0], true)
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx))

	loaded, err := c.Load(ctx, "loadme")
	require.NoError(t, err)
	assertSameEncoding(t, c, loaded)
	assert.Zero(t, loaded.Pending())
	assert.Same(t, s, loaded.Agent())
}

func TestLoad_Missing(t *testing.T) {
	s := createTestStore(t)
	_, err := s.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestReplay_AppliesLaterBatches(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	c := newStoredChart(t, s, "replayed")

	classes := addClasses(t, c, [2]int64{0, 0}, [2]int64{0, 1}, [2]int64{1, 1})
	_, err := c.AddStructline(classes[0], classes[2])
	require.NoError(t, err)
	require.NoError(t, c.Save(ctx))

	// Changes after the snapshot only reach the log.
	classes[1].Name().SetAll("h0")
	require.NoError(t, classes[0].Delete())
	c.SetXRange(-2, 20)
	require.NoError(t, c.Update(ctx))
	_, err = c.AddExtension(classes[1], classes[2])
	require.NoError(t, err)
	require.NoError(t, c.Update(ctx))

	result, err := s.Replay(ctx, "replayed")
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.SnapshotSeq)
	assert.Equal(t, 2, result.Batches)
	assertSameEncoding(t, c, result.Chart)
	assert.Zero(t, result.Chart.Pending())
}

func TestReplay_UpToDateSnapshot(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	c := newStoredChart(t, s, "fresh")
	addClasses(t, c, [2]int64{4, 4})
	require.NoError(t, c.Save(ctx))

	result, err := s.Replay(ctx, "fresh")
	require.NoError(t, err)
	assert.Zero(t, result.Batches)
	assertSameEncoding(t, c, result.Chart)
}

func TestReplay_Missing(t *testing.T) {
	s := createTestStore(t)
	_, err := s.Replay(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestReplay_CancelledContext(t *testing.T) {
	s := createTestStore(t)
	c := newStoredChart(t, s, "cancel")
	addClasses(t, c, [2]int64{0, 0})
	require.NoError(t, c.Save(context.Background()))
	addClasses(t, c, [2]int64{0, 0})
	require.NoError(t, c.Update(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Replay(ctx, "cancel")
	assert.ErrorIs(t, err, context.Canceled)
}
