package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/sseqchart/internal/chart"
	"github.com/roach88/sseqchart/internal/page"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Target   string // Ref the assertion inspected, if any
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Target != "" {
		fmt.Fprintf(&buf, " (%s)", e.Target)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n  Actual: %s", e.Expected, e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns one message per
// failure.
func EvaluateAssertions(h *Harness, assertions []Assertion) []string {
	var errors []string
	for i, a := range assertions {
		if err := h.evaluate(a); err != nil {
			errors = append(errors, fmt.Sprintf("assertion[%d]: %v", i, err))
		}
	}
	return errors
}

func (h *Harness) evaluate(a Assertion) error {
	switch a.Type {
	case AssertClassCount:
		return expectCount(a, len(h.chart.Classes()))
	case AssertEdgeCount:
		return expectCount(a, len(h.chart.Edges()))
	case AssertBatchCount:
		return expectCount(a, len(h.recorder.Batches()))
	case AssertMessageCount:
		n := 0
		for _, m := range h.recorder.Messages() {
			if a.Command == "" || string(m.Command) == a.Command {
				n++
			}
		}
		return expectCount(a, n)
	case AssertDeleted:
		switch t := h.refs[a.Target].(type) {
		case *chart.Class:
			return expectValue(a, t.Deleted())
		case chart.Edge:
			return expectValue(a, t.Deleted())
		}
	case AssertIndex:
		cls, err := h.class(a.Target)
		if err != nil {
			return err
		}
		return expectValue(a, cls.Index())
	case AssertVisibleOn:
		cls, err := h.class(a.Target)
		if err != nil {
			return err
		}
		return expectValue(a, cls.VisibleOn(a.Page.Page()))
	case AssertDrawnOn:
		e, ok := h.refs[a.Target].(chart.Edge)
		if !ok {
			return fmt.Errorf("%q is not an edge", a.Target)
		}
		pair := page.Pair{Page: a.Pair[0].Page(), MaxLen: a.Pair[1].Page()}
		return expectValue(a, e.DrawnOn(pair))
	case AssertStyleGroup:
		cls, err := h.class(a.Target)
		if err != nil {
			return err
		}
		style, err := cls.Style(assertPage(a))
		if err != nil {
			return err
		}
		return expectValue(a, style.GroupName)
	case AssertAttr:
		got, err := h.attr(a.Target, a.Attr, assertPage(a))
		if err != nil {
			return err
		}
		return expectValue(a, got)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return unknownRef(a.Target)
}

func assertPage(a Assertion) page.Page {
	if a.Page == nil {
		return page.Min
	}
	return a.Page.Page()
}

func expectCount(a Assertion, got int) error {
	if got == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%d", *a.Count),
		Actual:   fmt.Sprintf("%d", got),
	}
}

// expectValue compares printed forms, so YAML's 2 matches a float 2.0 and
// a YAML list matches a dash pattern.
func expectValue(a Assertion, got any) error {
	want := fmt.Sprint(a.Expect)
	have := fmt.Sprint(got)
	if want == have {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Target:   a.Target,
		Expected: want,
		Actual:   have,
	}
}

// attr reads an attribute on page p in a printable form. Colors print as
// their name when they have one, otherwise as hex.
func (h *Harness) attr(ref, attr string, p page.Page) (any, error) {
	switch t := h.refs[ref].(type) {
	case *chart.Class:
		switch attr {
		case "name":
			return t.Name().MustGet(p), nil
		case "group_name":
			return t.GroupName().MustGet(p), nil
		case "shape":
			return t.Shape().MustGet(p).String(), nil
		case "background_color":
			return colorText(t.BackgroundColor().MustGet(p)), nil
		case "border_color":
			return colorText(t.BorderColor().MustGet(p)), nil
		case "foreground_color":
			return colorText(t.ForegroundColor().MustGet(p)), nil
		case "border_width":
			return t.BorderWidth().MustGet(p), nil
		case "scale":
			return t.Scale().MustGet(p), nil
		case "visible":
			return t.Visible().MustGet(p), nil
		case "x_nudge":
			return t.XNudge().MustGet(p), nil
		case "y_nudge":
			return t.YNudge().MustGet(p), nil
		case "max_page":
			return int64(t.MaxPage()), nil
		}
		return nil, unknownAttr("class", attr)
	case *chart.Structline:
		switch attr {
		case "action":
			return t.Action().MustGet(p), nil
		case "color":
			return colorText(t.Color().MustGet(p)), nil
		case "dash_pattern":
			return []int64(t.DashPattern().MustGet(p)), nil
		case "line_width":
			return t.LineWidth().MustGet(p), nil
		case "bend":
			return t.Bend().MustGet(p), nil
		case "start_tip":
			return tipText(t.StartTip().MustGet(p)), nil
		case "end_tip":
			return tipText(t.EndTip().MustGet(p)), nil
		case "visible":
			return t.Visible().MustGet(p), nil
		}
		return nil, unknownAttr("structline", attr)
	case *chart.Differential:
		if attr == "page" {
			return int64(t.Page()), nil
		}
		return singlePageAttr(t, attr)
	case *chart.Extension:
		return singlePageAttr(t, attr)
	}
	return nil, unknownRef(ref)
}

// singlePageReader is the getter surface shared by differentials and
// extensions.
type singlePageReader interface {
	Action() string
	Color() chart.Color
	DashPattern() chart.DashPattern
	LineWidth() float64
	Bend() float64
	StartTip() chart.ArrowTip
	EndTip() chart.ArrowTip
	Visible() bool
}

func singlePageAttr(e singlePageReader, attr string) (any, error) {
	switch attr {
	case "action":
		return e.Action(), nil
	case "color":
		return colorText(e.Color()), nil
	case "dash_pattern":
		return []int64(e.DashPattern()), nil
	case "line_width":
		return e.LineWidth(), nil
	case "bend":
		return e.Bend(), nil
	case "start_tip":
		return tipText(e.StartTip()), nil
	case "end_tip":
		return tipText(e.EndTip()), nil
	case "visible":
		return e.Visible(), nil
	}
	return nil, unknownAttr("edge", attr)
}

func colorText(c chart.Color) string {
	if c.Name != "" {
		return c.Name
	}
	return c.Hex()
}

func tipText(t chart.ArrowTip) string {
	if t == chart.NoTip {
		return "none"
	}
	return string(t)
}
