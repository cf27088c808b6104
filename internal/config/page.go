package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sseqchart/internal/page"
)

// PageValue is a page number that may also be written "inf" or
// "infinity".
type PageValue page.Page

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *PageValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: page must be a number or \"inf\"", node.Line)
	}
	switch strings.ToLower(node.Value) {
	case "inf", "infinity", ".inf":
		*p = PageValue(page.Infinity)
		return nil
	}
	n, err := strconv.ParseInt(node.Value, 10, 64)
	if err != nil {
		return fmt.Errorf("line %d: page %q must be a number or \"inf\"", node.Line, node.Value)
	}
	if n < int64(page.Min) {
		return fmt.Errorf("line %d: page %d is before the first page", node.Line, n)
	}
	if n > int64(page.Infinity) {
		n = int64(page.Infinity)
	}
	*p = PageValue(n)
	return nil
}

// Page converts p.
func (p PageValue) Page() page.Page { return page.Page(p) }
