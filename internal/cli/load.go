package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/roach88/sseqchart/internal/chart"
	"github.com/roach88/sseqchart/internal/config"
	"github.com/roach88/sseqchart/internal/page"
)

// LoadError represents a failure to read a chart from a file.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// isConfigPath reports whether path names a YAML chart configuration
// rather than a JSON chart document.
func isConfigPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// readDocument reads a chart document from path.
func readDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "file not found", Err: err}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Path: path, Message: err.Error(), Err: err}
	}
	return data, nil
}

// loadChart builds a chart from a YAML configuration or decodes it from a
// JSON document, depending on the extension of path.
func loadChart(path string, logger *slog.Logger) (*chart.Chart, error) {
	if isConfigPath(path) {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "file not found", Err: err}
		}
		cfg, err := config.Load(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeConfig, Path: path, Message: err.Error(), Err: err}
		}
		c, err := cfg.Build(chart.WithLogger(logger))
		if err != nil {
			return nil, &LoadError{Code: ErrCodeConfig, Path: path, Message: err.Error(), Err: err}
		}
		// Nothing is attached yet; the queued setup messages have no reader.
		c.Discard()
		return c, nil
	}

	data, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	c, err := chart.Decode(data, chart.WithLogger(logger))
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Path: path, Message: err.Error(), Err: err}
	}
	return c, nil
}

// loadErrorCode returns the CLI error code carried by err.
func loadErrorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}

// parsePage reads a page number or "inf".
func parsePage(s string) (page.Page, error) {
	switch strings.ToLower(s) {
	case "inf", "infinity":
		return page.Infinity, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid page %q: expected an integer or \"inf\"", s)
	}
	if n < int64(page.Min) {
		return 0, fmt.Errorf("invalid page %q: %w", s, page.ErrBeforeDomain)
	}
	return min(page.Page(n), page.Infinity), nil
}
