package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/sseqchart/internal/chart"
	"github.com/roach88/sseqchart/internal/config"
	"github.com/roach88/sseqchart/internal/page"
)

// execute runs one non-flush step.
func (h *Harness) execute(step Step) error {
	switch step.Op {
	case OpAddClass:
		cls, err := h.chart.AddClass(step.Degree...)
		if err != nil {
			return err
		}
		h.define(step.Ref, cls)
		return nil

	case OpAddStructline, OpAddDifferential, OpAddExtension:
		return h.addEdge(step)

	case OpSet:
		return h.set(step)

	case OpSetStyle:
		switch t := h.refs[step.Target].(type) {
		case *chart.Class:
			return t.SetStyleByName(step.Style, span(step))
		case *chart.Structline:
			return t.SetStyleByName(step.Style, span(step))
		case *chart.Differential:
			return t.SetStyleByName(step.Style)
		case *chart.Extension:
			return t.SetStyleByName(step.Style)
		}
		return unknownRef(step.Target)

	case OpSetMaxPage:
		cls, err := h.class(step.Target)
		if err != nil {
			return err
		}
		return cls.SetMaxPage(step.Page.Page())

	case OpReplace:
		cls, err := h.class(step.Target)
		if err != nil {
			return err
		}
		return cls.ReplaceByName(step.Style)

	case OpReplaceSource, OpReplaceTarget:
		e, ok := h.refs[step.Target].(chart.Edge)
		if !ok {
			return fmt.Errorf("%q is not an edge", step.Target)
		}
		style, ok := h.chart.ClassStyle(step.Style)
		if !ok {
			return fmt.Errorf("no class style named %q", step.Style)
		}
		if step.Op == OpReplaceSource {
			return e.ReplaceSource(style)
		}
		return e.ReplaceTarget(style)

	case OpSetUserData:
		switch t := h.refs[step.Target].(type) {
		case *chart.Class:
			return t.UserData().Set(step.Key, step.Value)
		case chart.Edge:
			return t.UserData().Set(step.Key, step.Value)
		default:
			return unknownRef(step.Target)
		}

	case OpDelete:
		switch t := h.refs[step.Target].(type) {
		case *chart.Class:
			return t.Delete()
		case chart.Edge:
			return t.Delete()
		}
		return unknownRef(step.Target)

	case OpSetXRange:
		h.chart.SetXRange(step.Range[0], step.Range[1])
		return nil
	case OpSetYRange:
		h.chart.SetYRange(step.Range[0], step.Range[1])
		return nil
	case OpSetPageList:
		h.chart.SetPageList(pairs(step.Pages))
		return nil
	case OpAddPageRange:
		for _, p := range pairs(step.Pages) {
			h.chart.AddPageRange(p.Page, p.MaxLen)
		}
		return nil
	}
	return fmt.Errorf("unknown op %q", step.Op)
}

func (h *Harness) define(ref string, entity any) {
	if ref != "" {
		h.refs[ref] = entity
	}
}

func (h *Harness) class(ref string) (*chart.Class, error) {
	cls, ok := h.refs[ref].(*chart.Class)
	if !ok {
		return nil, fmt.Errorf("%q is not a class", ref)
	}
	return cls, nil
}

func unknownRef(ref string) error {
	return fmt.Errorf("ref %q names nothing this op applies to", ref)
}

func (h *Harness) addEdge(step Step) error {
	src, err := h.class(step.Source)
	if err != nil {
		return err
	}
	tgt, err := h.class(step.Target)
	if err != nil {
		return err
	}

	var e chart.Edge
	switch step.Op {
	case OpAddStructline:
		e, err = h.chart.AddStructline(src, tgt)
	case OpAddDifferential:
		e, err = h.chart.AddDifferential(step.Page.Page(), src, tgt, step.Auto)
	default:
		e, err = h.chart.AddExtension(src, tgt)
	}
	if err != nil {
		return err
	}
	h.define(step.Ref, e)
	return nil
}

func span(step Step) page.Span {
	switch {
	case step.Page != nil:
		return page.At(step.Page.Page())
	case step.From != nil && step.Until != nil:
		return page.Range(step.From.Page(), step.Until.Page())
	case step.From != nil:
		return page.From(step.From.Page())
	default:
		return page.All()
	}
}

func pairs(pp []config.PagePair) []page.Pair {
	out := make([]page.Pair, len(pp))
	for i, p := range pp {
		out[i] = page.Pair{Page: p[0].Page(), MaxLen: p[1].Page()}
	}
	return out
}

// set writes one attribute. Page-varying attributes honor the step's page
// selection; single-page edges ignore it.
func (h *Harness) set(step Step) error {
	switch t := h.refs[step.Target].(type) {
	case *chart.Class:
		return setClassAttr(t, step)
	case *chart.Structline:
		return setStructlineAttr(t, step)
	case *chart.Differential:
		return setSinglePageAttr(t, step)
	case *chart.Extension:
		return setSinglePageAttr(t, step)
	}
	return unknownRef(step.Target)
}

func setClassAttr(c *chart.Class, step Step) error {
	switch step.Attr {
	case "name":
		return setProp(c.Name(), step, asString)
	case "group_name":
		return setProp(c.GroupName(), step, asString)
	case "shape":
		return setProp(c.Shape(), step, asShape)
	case "background_color":
		return setProp(c.BackgroundColor(), step, asColor)
	case "border_color":
		return setProp(c.BorderColor(), step, asColor)
	case "foreground_color":
		return setProp(c.ForegroundColor(), step, asColor)
	case "border_width":
		return setProp(c.BorderWidth(), step, asFloat)
	case "scale":
		return setProp(c.Scale(), step, asFloat)
	case "visible":
		return setProp(c.Visible(), step, asBool)
	case "x_nudge":
		return setProp(c.XNudge(), step, asFloat)
	case "y_nudge":
		return setProp(c.YNudge(), step, asFloat)
	}
	return unknownAttr("class", step.Attr)
}

func setStructlineAttr(s *chart.Structline, step Step) error {
	switch step.Attr {
	case "action":
		return setProp(s.Action(), step, asString)
	case "color":
		return setProp(s.Color(), step, asColor)
	case "dash_pattern":
		return setProp(s.DashPattern(), step, asDash)
	case "line_width":
		return setProp(s.LineWidth(), step, asFloat)
	case "bend":
		return setProp(s.Bend(), step, asFloat)
	case "start_tip":
		return setProp(s.StartTip(), step, asTip)
	case "end_tip":
		return setProp(s.EndTip(), step, asTip)
	case "visible":
		return setProp(s.Visible(), step, asBool)
	}
	return unknownAttr("structline", step.Attr)
}

// singlePageEdge is the setter surface shared by differentials and
// extensions.
type singlePageEdge interface {
	SetAction(string) error
	SetColor(chart.Color) error
	SetDashPattern(chart.DashPattern) error
	SetLineWidth(float64) error
	SetBend(float64) error
	SetStartTip(chart.ArrowTip) error
	SetEndTip(chart.ArrowTip) error
	SetVisible(bool) error
}

func setSinglePageAttr(e singlePageEdge, step Step) error {
	switch step.Attr {
	case "action":
		return setScalar(e.SetAction, step, asString)
	case "color":
		return setScalar(e.SetColor, step, asColor)
	case "dash_pattern":
		return setScalar(e.SetDashPattern, step, asDash)
	case "line_width":
		return setScalar(e.SetLineWidth, step, asFloat)
	case "bend":
		return setScalar(e.SetBend, step, asFloat)
	case "start_tip":
		return setScalar(e.SetStartTip, step, asTip)
	case "end_tip":
		return setScalar(e.SetEndTip, step, asTip)
	case "visible":
		return setScalar(e.SetVisible, step, asBool)
	}
	return unknownAttr("edge", step.Attr)
}

func unknownAttr(kind, attr string) error {
	return fmt.Errorf("%s has no attribute %q", kind, attr)
}

func setProp[T any](p *page.Property[T], step Step, conv func(any) (T, error)) error {
	v, err := conv(step.Value)
	if err != nil {
		return fmt.Errorf("%s: %w", step.Attr, err)
	}
	return p.SetSpan(span(step), v)
}

func setScalar[T any](set func(T) error, step Step, conv func(any) (T, error)) error {
	v, err := conv(step.Value)
	if err != nil {
		return fmt.Errorf("%s: %w", step.Attr, err)
	}
	return set(v)
}

// Conversions from YAML-decoded values.

func asString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

func asBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", v)
	}
	return b, nil
}

func asColor(v any) (chart.Color, error) {
	s, err := asString(v)
	if err != nil {
		return chart.Color{}, err
	}
	return chart.ColorRef(s), nil
}

func asShape(v any) (chart.Shape, error) {
	s, err := asString(v)
	if err != nil {
		return chart.Shape{}, err
	}
	return chart.ShapeRef(s), nil
}

func asTip(v any) (chart.ArrowTip, error) {
	s, err := asString(v)
	if err != nil {
		return chart.NoTip, err
	}
	switch strings.ToLower(s) {
	case "", "none":
		return chart.NoTip, nil
	case string(chart.StandardTip):
		return chart.StandardTip, nil
	}
	return chart.NoTip, fmt.Errorf("unknown arrow tip %q", s)
}

func asDash(v any) (chart.DashPattern, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected list of integers, got %T", v)
	}
	out := make(chart.DashPattern, len(items))
	for i, item := range items {
		n, ok := item.(int)
		if !ok {
			return nil, fmt.Errorf("dash_pattern[%d]: expected integer, got %T", i, item)
		}
		out[i] = int64(n)
	}
	return out, nil
}
