package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sseqchart/internal/store"
)

func TestSaveCommand_ImportsDocument(t *testing.T) {
	db := filepath.Join(t.TempDir(), "charts.db")
	doc := writeDocument(t)

	out, err := execute(t, NewSaveCommand(&RootOptions{Format: "json"}), doc, "--db", db)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   SaveResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "adams", resp.Data.Snapshot)
	assert.Zero(t, resp.Data.Seq)
	assert.Len(t, resp.Data.Digest, 64)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	c, err := st.Load(context.Background(), "adams")
	require.NoError(t, err)
	assert.Len(t, c.Classes(), 2)
	assert.Len(t, c.Edges(), 1)
}

func TestSaveCommand_As(t *testing.T) {
	db := filepath.Join(t.TempDir(), "charts.db")

	out, err := execute(t, NewSaveCommand(&RootOptions{Format: "text"}), writeDocument(t), "--db", db, "--as", "copy")
	require.NoError(t, err)
	assert.Contains(t, out, `as "copy"`)
}

func TestSaveCommand_RejectsInvalidDocument(t *testing.T) {
	db := filepath.Join(t.TempDir(), "charts.db")
	path := writeFile(t, "bad.json", `{"type": "SseqChart"}`)

	_, err := execute(t, NewSaveCommand(&RootOptions{Format: "text"}), path, "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
