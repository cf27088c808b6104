package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sseqchart/internal/chart"
	"github.com/roach88/sseqchart/internal/config"
	"github.com/roach88/sseqchart/internal/store"
)

// seedStore saves the adams chart as "adams" and logs one batch adding a
// class after the snapshot.
func seedStore(t *testing.T, db string) {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	cfg, err := config.Load("testdata/adams.yaml")
	require.NoError(t, err)
	c, err := cfg.Build(chart.WithAgent(st))
	require.NoError(t, err)
	c.Discard()
	require.NoError(t, st.SaveAs(ctx, c, "adams"))

	_, err = c.AddClass(2, 1)
	require.NoError(t, err)
	require.NoError(t, c.Update(ctx))
}

func TestReplayCommand_All(t *testing.T) {
	db := filepath.Join(t.TempDir(), "charts.db")
	seedStore(t, db)

	out, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 1 chart(s)")
	assert.Contains(t, out, "✓ adams")
	assert.Contains(t, out, "1 class(es), 0 edge(s)")
	assert.Contains(t, out, "All charts replay deterministically")
}

func TestReplayCommand_JSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "charts.db")
	seedStore(t, db)

	out, err := execute(t, NewReplayCommand(&RootOptions{Format: "json"}), "adams", "--db", db)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Charts, 1)
	got := resp.Data.Charts[0]
	assert.Equal(t, "adams", got.Name)
	assert.Zero(t, got.SnapshotSeq)
	assert.Equal(t, 1, got.Batches)
	assert.Equal(t, 1, got.Classes)
	assert.True(t, got.Deterministic)
}

func TestReplayCommand_WritesDocument(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "charts.db")
	seedStore(t, db)
	outPath := filepath.Join(dir, "replayed.json")

	_, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}), "adams", "--db", db, "-o", outPath)
	require.NoError(t, err)

	doc, err := os.ReadFile(outPath)
	require.NoError(t, err)
	c, err := chart.Decode(doc)
	require.NoError(t, err)
	assert.Equal(t, "adams", c.Name())
	assert.Len(t, c.Classes(), 1)
}

func TestReplayCommand_OutputNeedsName(t *testing.T) {
	db := filepath.Join(t.TempDir(), "charts.db")

	_, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}), "--db", db, "-o", "x.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplayCommand_EmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "charts.db")

	out, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No charts found in database.")
}

func TestReplayCommand_UnknownName(t *testing.T) {
	db := filepath.Join(t.TempDir(), "charts.db")
	seedStore(t, db)

	_, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}), "nope", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
