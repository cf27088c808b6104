package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sseqchart/internal/config"
)

// writeDocument builds the adams chart with two classes and a structline
// and writes its encoding to a temp file.
func writeDocument(t *testing.T) string {
	t.Helper()
	cfg, err := config.Load("testdata/adams.yaml")
	require.NoError(t, err)
	c, err := cfg.Build()
	require.NoError(t, err)

	a, err := c.AddClass(0, 0)
	require.NoError(t, err)
	b, err := c.AddClass(1, 1)
	require.NoError(t, err)
	_, err = c.AddStructline(a, b)
	require.NoError(t, err)

	doc, err := c.Encode()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "adams.json")
	require.NoError(t, os.WriteFile(path, doc, 0644))
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateCommand_Config(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "testdata/adams.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Chart valid")
}

func TestValidateCommand_Document(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), writeDocument(t))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Chart valid")
}

func TestValidateCommand_DocumentJSON(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), writeDocument(t))
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
}

func TestValidateCommand_InvalidConfig(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "testdata/broken.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, ErrCodeConfig)
}

func TestValidateCommand_SchemaViolation(t *testing.T) {
	path := writeFile(t, "bad.json", `{"type": "SseqChart", "name": 7}`)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.NotEmpty(t, resp.Data.Errors)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "S002", resp.Error.Code)
}

func TestValidateCommand_MalformedJSON(t *testing.T) {
	path := writeFile(t, "bad.json", `{"type": `)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "S001")
}

func TestValidateCommand_MissingFile(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "testdata/nope.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
}

func TestValidateCommand_MissingArgs(t *testing.T) {
	_, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
