package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sseqchart/internal/config"
)

// Scenario scripts operations on one chart.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is a path to a chart configuration file, relative to the
	// scenario file. Mutually exclusive with Chart.
	Config string `yaml:"config,omitempty"`

	// Chart is an inline chart configuration.
	Chart *config.Config `yaml:"chart,omitempty"`

	// Steps run in order. A flush step delivers the queue and checks the
	// mirror; the run always ends with a final flush.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated against the chart and the delivered batches
	// after the final flush.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one chart operation.
type Step struct {
	// Op selects the operation; see the Op constants.
	Op string `yaml:"op"`

	// Ref names the entity an add_* step creates, for later steps.
	Ref string `yaml:"ref,omitempty"`

	// Target is the ref of the entity the step acts on.
	Target string `yaml:"target,omitempty"`

	// Source is the ref of an edge's source class; Target doubles as the
	// edge's target class in add_* steps.
	Source string `yaml:"source,omitempty"`

	Degree []int64 `yaml:"degree,omitempty"`
	Auto   bool    `yaml:"auto,omitempty"`

	// Page, From and Until select pages. Page alone is a single-page write;
	// From and Until bound a range, Until exclusive.
	Page  *config.PageValue `yaml:"page,omitempty"`
	From  *config.PageValue `yaml:"from,omitempty"`
	Until *config.PageValue `yaml:"until,omitempty"`

	Attr  string `yaml:"attr,omitempty"`
	Value any    `yaml:"value,omitempty"`
	Style string `yaml:"style,omitempty"`
	Key   string `yaml:"key,omitempty"`

	Range []int64           `yaml:"range,omitempty"`
	Pages []config.PagePair `yaml:"pages,omitempty"`

	// ExpectError is the chart error code the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Step operations.
const (
	OpAddClass        = "add_class"
	OpAddStructline   = "add_structline"
	OpAddDifferential = "add_differential"
	OpAddExtension    = "add_extension"
	OpSet             = "set"
	OpSetStyle        = "set_style"
	OpSetMaxPage      = "set_max_page"
	OpReplace         = "replace"
	OpReplaceSource   = "replace_source"
	OpReplaceTarget   = "replace_target"
	OpSetUserData     = "set_user_data"
	OpDelete          = "delete"
	OpSetXRange       = "set_x_range"
	OpSetYRange       = "set_y_range"
	OpSetPageList     = "set_page_list"
	OpAddPageRange    = "add_page_range"
	OpFlush           = "flush"
)

// Assertion checks the state after the run.
type Assertion struct {
	// Type specifies the assertion type; see the Assert constants.
	Type string `yaml:"type"`

	Target  string            `yaml:"target,omitempty"`
	Attr    string            `yaml:"attr,omitempty"`
	Page    *config.PageValue `yaml:"page,omitempty"`
	Pair    config.PagePair   `yaml:"pair,omitempty"`
	Command string            `yaml:"command,omitempty"`

	// Count is the expected number (class_count, edge_count, batch_count,
	// message_count).
	Count *int `yaml:"count,omitempty"`

	// Expect is the expected value (attr, visible_on, drawn_on, deleted,
	// index, style_group).
	Expect any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertClassCount   = "class_count"
	AssertEdgeCount    = "edge_count"
	AssertBatchCount   = "batch_count"
	AssertMessageCount = "message_count"
	AssertAttr         = "attr"
	AssertVisibleOn    = "visible_on"
	AssertDrawnOn      = "drawn_on"
	AssertDeleted      = "deleted"
	AssertIndex        = "index"
	AssertStyleGroup   = "style_group"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative Config path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if scenario.Config != "" && !filepath.IsAbs(scenario.Config) {
		scenario.Config = filepath.Join(filepath.Dir(path), scenario.Config)
	}
	return scenario, nil
}

// ParseScenario decodes and validates a scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Config != "" && s.Chart != nil {
		return fmt.Errorf("config and chart are mutually exclusive")
	}
	if s.Chart != nil {
		if err := s.Chart.Validate(); err != nil {
			return fmt.Errorf("chart: %w", err)
		}
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	refs := map[string]bool{}
	for i, step := range s.Steps {
		if err := validateStep(step, refs); err != nil {
			return fmt.Errorf("steps[%d] (%s): %w", i, step.Op, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, refs); err != nil {
			return fmt.Errorf("assertions[%d] (%s): %w", i, a.Type, err)
		}
	}
	return nil
}

func validateStep(step Step, refs map[string]bool) error {
	need := func(field string, ok bool) error {
		if !ok {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
	known := func(field, ref string) error {
		if ref == "" {
			return fmt.Errorf("%s is required", field)
		}
		if !refs[ref] {
			return fmt.Errorf("%s %q was not created by an earlier step", field, ref)
		}
		return nil
	}
	define := func() error {
		if step.Ref == "" {
			return nil
		}
		if refs[step.Ref] {
			return fmt.Errorf("ref %q is already defined", step.Ref)
		}
		refs[step.Ref] = true
		return nil
	}

	switch step.Op {
	case OpAddClass:
		if err := need("degree", len(step.Degree) > 0); err != nil {
			return err
		}
		return define()
	case OpAddStructline, OpAddExtension:
		if err := known("source", step.Source); err != nil {
			return err
		}
		if err := known("target", step.Target); err != nil {
			return err
		}
		return define()
	case OpAddDifferential:
		if err := need("page", step.Page != nil); err != nil {
			return err
		}
		if err := known("source", step.Source); err != nil {
			return err
		}
		if err := known("target", step.Target); err != nil {
			return err
		}
		return define()
	case OpSet:
		if err := known("target", step.Target); err != nil {
			return err
		}
		if err := need("attr", step.Attr != ""); err != nil {
			return err
		}
		return need("value", step.Value != nil)
	case OpSetStyle, OpReplace, OpReplaceSource, OpReplaceTarget:
		if err := known("target", step.Target); err != nil {
			return err
		}
		return need("style", step.Style != "")
	case OpSetMaxPage:
		if err := known("target", step.Target); err != nil {
			return err
		}
		return need("page", step.Page != nil)
	case OpSetUserData:
		if err := known("target", step.Target); err != nil {
			return err
		}
		return need("key", step.Key != "")
	case OpDelete:
		return known("target", step.Target)
	case OpSetXRange, OpSetYRange:
		return need("range of two entries", len(step.Range) == 2)
	case OpSetPageList, OpAddPageRange:
		if err := need("pages", len(step.Pages) > 0); err != nil {
			return err
		}
		for i, p := range step.Pages {
			if len(p) != 2 {
				return fmt.Errorf("pages[%d]: expected [page, max_len]", i)
			}
		}
		return nil
	case OpFlush:
		return nil
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(a Assertion, refs map[string]bool) error {
	target := func() error {
		if a.Target == "" {
			return fmt.Errorf("target is required")
		}
		if !refs[a.Target] {
			return fmt.Errorf("target %q is not a ref defined by the steps", a.Target)
		}
		return nil
	}

	switch a.Type {
	case AssertClassCount, AssertEdgeCount, AssertBatchCount, AssertMessageCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("a non-negative count is required")
		}
		return nil
	case AssertAttr:
		if err := target(); err != nil {
			return err
		}
		if a.Attr == "" {
			return fmt.Errorf("attr is required")
		}
	case AssertVisibleOn:
		if err := target(); err != nil {
			return err
		}
		if a.Page == nil {
			return fmt.Errorf("page is required")
		}
	case AssertDrawnOn:
		if err := target(); err != nil {
			return err
		}
		if len(a.Pair) != 2 {
			return fmt.Errorf("pair of [page, max_len] is required")
		}
	case AssertDeleted, AssertIndex, AssertStyleGroup:
		if err := target(); err != nil {
			return err
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	if a.Expect == nil {
		return fmt.Errorf("expect is required")
	}
	return nil
}
