package chart

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/sseqchart/internal/page"
	"github.com/roach88/sseqchart/internal/signal"
	"github.com/roach88/sseqchart/internal/value"
)

// Decode rebuilds a chart from its Encode output. Nothing is queued: the
// decoded chart starts in sync with whatever produced the document.
func Decode(data []byte, opts ...Option) (*Chart, error) {
	obj, err := value.UnmarshalObject(data)
	if err != nil {
		return nil, malformed("decode chart: %v", err)
	}
	return DecodeObject(obj, opts...)
}

// DecodeObject is Decode for an already parsed document.
func DecodeObject(obj value.Object, opts ...Option) (*Chart, error) {
	if tag := obj.TypeTag(); tag != chartType {
		return nil, malformed("expected %s document, got type %q", chartType, tag)
	}
	id, err := obj.GetString("uuid")
	if err != nil {
		return nil, malformed("%v", err)
	}
	name, err := obj.GetString("name")
	if err != nil {
		return nil, malformed("%v", err)
	}
	numGradings, err := obj.GetInt("num_gradings")
	if err != nil {
		return nil, malformed("%v", err)
	}

	c, err := New(name, append(slices.Clone(opts), WithNumGradings(int(numGradings)))...)
	if err != nil {
		return nil, err
	}
	c.id = id

	if err := c.applySettings(obj); err != nil {
		return nil, err
	}
	if err := c.decodeEntities(obj); err != nil {
		return nil, err
	}
	c.Discard()
	return c, nil
}

// decodeRegistries reads the default styles and named registries present
// in obj. Nothing changes until the returned commit runs; each registry
// present replaces the current one wholesale.
func (c *Chart) decodeRegistries(obj value.Object) (commit func(), err error) {
	var staged []func()
	err = errors.Join(
		stageKey(&staged, obj, "default_class_style", decodeClassStyle, func(s ClassStyle) { c.defaultClassStyle = s }),
		stageKey(&staged, obj, "default_structline_style", decodeEdgeStyle, func(s EdgeStyle) { c.defaultStructlineStyle = s }),
		stageKey(&staged, obj, "default_differential_style", decodeEdgeStyle, func(s EdgeStyle) { c.defaultDifferentialStyle = s }),
		stageKey(&staged, obj, "default_extension_style", decodeEdgeStyle, func(s EdgeStyle) { c.defaultExtensionStyle = s }),
		stageKey(&staged, obj, "shapes", registryDecoder(decodeShape), func(m map[string]Shape) { c.shapes = m }),
		stageKey(&staged, obj, "colors", registryDecoder(decodeColor), func(m map[string]Color) { c.colors = m }),
		stageKey(&staged, obj, "class_styles", registryDecoder(decodeClassStyle), func(m map[string]ClassStyle) { c.classStyles = m }),
		stageKey(&staged, obj, "edge_styles", registryDecoder(decodeEdgeStyle), func(m map[string]EdgeStyle) { c.edgeStyles = m }),
	)
	if err != nil {
		return nil, malformed("%v", err)
	}
	return func() { runStaged(staged) }, nil
}

func registryDecoder[T any](dec func(value.Value) (T, error)) func(value.Value) (map[string]T, error) {
	return func(v value.Value) (map[string]T, error) {
		entries, ok := v.(value.Object)
		if !ok {
			return nil, kindError("object", v)
		}
		out := make(map[string]T, len(entries))
		for name, elem := range entries {
			item, err := dec(elem)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", name, err)
			}
			out[name] = item
		}
		return out, nil
	}
}

// decodeEntities commits classes in degree and index order, then edges.
func (c *Chart) decodeEntities(obj value.Object) error {
	classes, err := decodeList(obj, "classes", func(o value.Object) (*Class, error) {
		return decodeClass(o, c.numGradings)
	})
	if err != nil {
		return err
	}
	slices.SortStableFunc(classes, func(a, b *Class) int {
		if d := slices.Compare(a.degree, b.degree); d != 0 {
			return d
		}
		return a.idx - b.idx
	})
	for _, cls := range classes {
		if c.hasID(cls.id) {
			return malformed("duplicate id %s", cls.id)
		}
		if want := len(c.degrees[degreeKey(cls.degree)]); cls.idx != want {
			return malformed("class %s at degree %v has index %d, expected %d", cls.id, cls.degree, cls.idx, want)
		}
		c.commitClass(cls)
	}

	edges, err := decodeList(obj, "edges", decodeEdge)
	if err != nil {
		return err
	}
	for _, e := range edges {
		if c.hasID(e.ID()) {
			return malformed("duplicate id %s", e.ID())
		}
		if err := c.commitEdge(e); err != nil {
			return err
		}
	}
	return nil
}

func decodeList[T any](obj value.Object, key string, dec func(value.Object) (T, error)) ([]T, error) {
	v, ok := obj[key]
	if !ok {
		return nil, nil
	}
	arr, ok := v.(value.Array)
	if !ok {
		return nil, malformed("%s: %v", key, kindError("array", v))
	}
	out := make([]T, 0, len(arr))
	for i, elem := range arr {
		o, ok := elem.(value.Object)
		if !ok {
			return nil, malformed("%s[%d]: %v", key, i, kindError("object", elem))
		}
		item, err := dec(o)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func (c *Chart) hasID(id string) bool {
	_, isClass := c.classes[id]
	_, isEdge := c.edges[id]
	return isClass || isEdge
}

// decodeClass builds an uncommitted class from its encoding.
func decodeClass(obj value.Object, numGradings int) (*Class, error) {
	if tag := obj.TypeTag(); tag != classType {
		return nil, malformed("expected %s, got type %q", classType, tag)
	}
	id, err := obj.GetString("uuid")
	if err != nil {
		return nil, malformed("%v", err)
	}
	degree, err := obj.GetInts("degree")
	if err != nil {
		return nil, malformed("%v", err)
	}
	if len(degree) != numGradings {
		return nil, newError(ErrCodeWrongArity, id, "degree %v has %d entries, chart has num_gradings %d", degree, len(degree), numGradings)
	}
	var idx int64
	if err := decodeKey(obj, "idx", decodeInt, &idx); err != nil {
		return nil, malformed("%v", err)
	}
	cls := newClass(id, degree, int(idx))
	if err := cls.assign(obj); err != nil {
		return nil, err
	}
	return cls, nil
}

// decodeEdge builds an uncommitted edge from its encoding.
func decodeEdge(obj value.Object) (Edge, error) {
	var id, source, target string
	err := errors.Join(
		requireKey(obj, "uuid", decodeString, &id),
		requireKey(obj, "source_uuid", decodeString, &source),
		requireKey(obj, "target_uuid", decodeString, &target),
	)
	if err != nil {
		return nil, malformed("%v", err)
	}

	var e Edge
	switch tag := obj.TypeTag(); tag {
	case structlineType:
		e = newStructline(id, source, target)
	case differentialType:
		var pg page.Page
		if err := requireKey(obj, "page", decodePage, &pg); err != nil {
			return nil, malformed("%v", err)
		}
		e = newDifferential(id, source, target, pg, DefaultDifferentialStyle())
	case extensionType:
		e = newExtension(id, source, target, DefaultExtensionStyle())
	default:
		return nil, malformed("unknown edge type %q", tag)
	}
	if err := e.assign(obj); err != nil {
		return nil, err
	}
	return e, nil
}

// assign overwrites the attributes present in obj. Either every present
// field is applied or, on a decoding error, none is. Degree and index
// are fixed at creation and ignored here.
func (c *Class) assign(obj value.Object) error {
	var staged []func()
	err := errors.Join(
		stageProperty(&staged, obj, "name", decodeString, eq[string], c.name),
		stageProperty(&staged, obj, "group_name", decodeString, eq[string], c.groupName),
		stageProperty(&staged, obj, "shape", decodeShape, equalShape, c.shape),
		stageProperty(&staged, obj, "background_color", decodeColor, eq[Color], c.backgroundColor),
		stageProperty(&staged, obj, "border_color", decodeColor, eq[Color], c.borderColor),
		stageProperty(&staged, obj, "foreground_color", decodeColor, eq[Color], c.foregroundColor),
		stageProperty(&staged, obj, "border_width", decodeFloat, eq[float64], c.borderWidth),
		stageProperty(&staged, obj, "scale", decodeFloat, eq[float64], c.scale),
		stageProperty(&staged, obj, "visible", decodeBool, eq[bool], c.visible),
		stageProperty(&staged, obj, "x_nudge", decodeFloat, eq[float64], c.xNudge),
		stageProperty(&staged, obj, "y_nudge", decodeFloat, eq[float64], c.yNudge),
		stageKey(&staged, obj, "max_page", decodePage, func(p page.Page) {
			if p != c.maxPage {
				c.maxPage = p
				c.NeedsUpdate()
			}
		}),
		stageKey(&staged, obj, "user_data", signal.DecodeMap, func(m *signal.Map) {
			c.userData = m
			m.SetParent(c)
			c.NeedsUpdate()
		}),
	)
	if err != nil {
		return malformed("class %s: %v", c.id, err)
	}
	runStaged(staged)
	return nil
}

// assign overwrites the attributes present in obj. Endpoints are fixed at
// creation and ignored here.
func (s *Structline) assign(obj value.Object) error {
	var staged []func()
	err := errors.Join(
		stageProperty(&staged, obj, "action", decodeString, eq[string], s.action),
		stageProperty(&staged, obj, "color", decodeColor, eq[Color], s.color),
		stageProperty(&staged, obj, "dash_pattern", decodeDash, equalDash, s.dashPattern),
		stageProperty(&staged, obj, "line_width", decodeFloat, eq[float64], s.lineWidth),
		stageProperty(&staged, obj, "bend", decodeFloat, eq[float64], s.bend),
		stageProperty(&staged, obj, "start_tip", decodeTip, eq[ArrowTip], s.startTip),
		stageProperty(&staged, obj, "end_tip", decodeTip, eq[ArrowTip], s.endTip),
		stageProperty(&staged, obj, "visible", decodeBool, eq[bool], s.visible),
		stageUserData(&staged, obj, &s.edge),
	)
	if err != nil {
		return malformed("structline %s: %v", s.id, err)
	}
	runStaged(staged)
	return nil
}

func (s *singlePage) assign(obj value.Object) error {
	var staged []func()
	if err := s.stage(&staged, obj); err != nil {
		return malformed("edge %s: %v", s.id, err)
	}
	runStaged(staged)
	return nil
}

func (d *Differential) assign(obj value.Object) error {
	var staged []func()
	err := errors.Join(
		d.stage(&staged, obj),
		stageKey(&staged, obj, "page", decodePage, func(p page.Page) {
			d.page = p
		}),
	)
	if err != nil {
		return malformed("differential %s: %v", d.id, err)
	}
	// A page change alone must still be reported.
	before := d.page
	runStaged(staged)
	if d.page != before {
		d.NeedsUpdate()
	}
	return nil
}

func (s *singlePage) stage(staged *[]func(), obj value.Object) error {
	return errors.Join(
		stageScalar(staged, obj, "action", decodeString, eq[string], &s.action, s.NeedsUpdate),
		stageKey(staged, obj, "color", decodeColor, func(col Color) {
			if s.chart != nil {
				col = s.chart.normalizeColor(col)
			}
			if col != s.color {
				s.color = col
				s.NeedsUpdate()
			}
		}),
		stageScalar(staged, obj, "dash_pattern", decodeDash, equalDash, &s.dashPattern, s.NeedsUpdate),
		stageScalar(staged, obj, "line_width", decodeFloat, eq[float64], &s.lineWidth, s.NeedsUpdate),
		stageScalar(staged, obj, "bend", decodeFloat, eq[float64], &s.bend, s.NeedsUpdate),
		stageScalar(staged, obj, "start_tip", decodeTip, eq[ArrowTip], &s.startTip, s.NeedsUpdate),
		stageScalar(staged, obj, "end_tip", decodeTip, eq[ArrowTip], &s.endTip, s.NeedsUpdate),
		stageScalar(staged, obj, "visible", decodeBool, eq[bool], &s.visible, s.NeedsUpdate),
		stageUserData(staged, obj, &s.edge),
	)
}

func stageUserData(staged *[]func(), obj value.Object, e *edge) error {
	return stageKey(staged, obj, "user_data", signal.DecodeMap, func(m *signal.Map) {
		e.setUserData(m)
		e.NeedsUpdate()
	})
}

func runStaged(staged []func()) {
	for _, f := range staged {
		f()
	}
}

func eq[T comparable](a, b T) bool { return a == b }

// decodeKey stores the decoded obj[key] in dst when the key is present.
func decodeKey[T any](obj value.Object, key string, dec func(value.Value) (T, error), dst *T) error {
	v, ok := obj[key]
	if !ok {
		return nil
	}
	out, err := dec(v)
	if err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}
	*dst = out
	return nil
}

// requireKey is decodeKey for mandatory fields.
func requireKey[T any](obj value.Object, key string, dec func(value.Value) (T, error), dst *T) error {
	if _, ok := obj[key]; !ok {
		return fmt.Errorf("missing field %q", key)
	}
	return decodeKey(obj, key, dec, dst)
}

// stageKey decodes obj[key] now and defers set until every field decoded.
func stageKey[T any](staged *[]func(), obj value.Object, key string, dec func(value.Value) (T, error), set func(T)) error {
	if _, ok := obj[key]; !ok {
		return nil
	}
	var out T
	if err := decodeKey(obj, key, dec, &out); err != nil {
		return err
	}
	*staged = append(*staged, func() { set(out) })
	return nil
}

func stageProperty[T any](staged *[]func(), obj value.Object, key string, dec func(value.Value) (T, error), equal func(a, b T) bool, dst *page.Property[T]) error {
	return stageKey(staged, obj, key, func(v value.Value) (*page.Property[T], error) {
		return decodeProperty(v, dec, equal)
	}, dst.Replace)
}

func stageScalar[T any](staged *[]func(), obj value.Object, key string, dec func(value.Value) (T, error), equal func(a, b T) bool, dst *T, changed func()) error {
	return stageKey(staged, obj, key, dec, func(v T) {
		if !equal(v, *dst) {
			*dst = v
			changed()
		}
	})
}

// decodeProperty reads a bare value as a constant property and a
// PageProperty object as a breakpoint list.
func decodeProperty[T any](v value.Value, dec func(value.Value) (T, error), equal func(a, b T) bool) (*page.Property[T], error) {
	obj, ok := v.(value.Object)
	if !ok || obj.TypeTag() != pagePropertyType {
		out, err := dec(v)
		if err != nil {
			return nil, err
		}
		return page.NewFunc(out, equal), nil
	}
	values, err := obj.GetArray("values")
	if err != nil {
		return nil, err
	}
	bps := make([]page.Breakpoint[T], len(values))
	for i, elem := range values {
		pair, ok := elem.(value.Array)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("values[%d]: expected [page, value]", i)
		}
		pg, err := decodePage(pair[0])
		if err != nil {
			return nil, fmt.Errorf("values[%d]: %w", i, err)
		}
		out, err := dec(pair[1])
		if err != nil {
			return nil, fmt.Errorf("values[%d]: %w", i, err)
		}
		bps[i] = page.Breakpoint[T]{Page: pg, Value: out}
	}
	return page.FromBreakpoints(bps, equal)
}

func kindError(want string, got value.Value) error {
	return fmt.Errorf("expected %s, got %s", want, value.KindOf(got))
}

func decodeString(v value.Value) (string, error) {
	s, ok := v.(value.String)
	if !ok {
		return "", kindError("string", v)
	}
	return string(s), nil
}

func decodeInt(v value.Value) (int64, error) {
	n, ok := v.(value.Int)
	if !ok {
		return 0, kindError("int", v)
	}
	return int64(n), nil
}

func decodeFloat(v value.Value) (float64, error) {
	switch n := v.(type) {
	case value.Float:
		return float64(n), nil
	case value.Int:
		return float64(n), nil
	}
	return 0, kindError("number", v)
}

func decodeBool(v value.Value) (bool, error) {
	b, ok := v.(value.Bool)
	if !ok {
		return false, kindError("bool", v)
	}
	return bool(b), nil
}

func decodePage(v value.Value) (page.Page, error) {
	n, err := decodeInt(v)
	if err != nil {
		return 0, err
	}
	pg := page.Page(n)
	if pg < page.Min || pg > page.Infinity {
		return 0, fmt.Errorf("page %d outside [%d, %d]", n, page.Min, page.Infinity)
	}
	return pg, nil
}

func decodeDash(v value.Value) (DashPattern, error) {
	arr, ok := v.(value.Array)
	if !ok {
		return nil, kindError("array", v)
	}
	ns, err := value.AsInts(arr, "dash_pattern")
	if err != nil {
		return nil, err
	}
	return DashPattern(ns), nil
}

func decodeTip(v value.Value) (ArrowTip, error) {
	switch t := v.(type) {
	case value.Null:
		return NoTip, nil
	case value.String:
		return ArrowTip(t), nil
	case value.Object:
		if t.TypeTag() != "ArrowTip" {
			return NoTip, fmt.Errorf("expected ArrowTip, got type %q", t.TypeTag())
		}
		tip, err := t.GetString("tip")
		return ArrowTip(tip), err
	}
	return NoTip, kindError("ArrowTip", v)
}

// decodeColor reads a bare string as a name reference.
func decodeColor(v value.Value) (Color, error) {
	switch c := v.(type) {
	case value.String:
		return ColorRef(string(c)), nil
	case value.Object:
		if c.TypeTag() != "Color" {
			return Color{}, fmt.Errorf("expected Color, got type %q", c.TypeTag())
		}
		hex, err := c.GetString("color")
		if err != nil {
			return Color{}, err
		}
		col, err := parseHex(hex)
		if err != nil {
			return Color{}, err
		}
		var name string
		if err := decodeKey(c, "name", decodeString, &name); err != nil {
			return Color{}, err
		}
		return col.WithName(name), nil
	}
	return Color{}, kindError("Color", v)
}

// decodeShape reads a bare string as a name reference.
func decodeShape(v value.Value) (Shape, error) {
	switch s := v.(type) {
	case value.String:
		return ShapeRef(string(s)), nil
	case value.Object:
		if s.TypeTag() != "Shape" {
			return Shape{}, fmt.Errorf("expected Shape, got type %q", s.TypeTag())
		}
		shape, err := shapeFromBody(s)
		if err != nil {
			return Shape{}, err
		}
		var name string
		if err := decodeKey(s, "name", decodeString, &name); err != nil {
			return Shape{}, err
		}
		shape.Name = name
		return shape, nil
	}
	return Shape{}, kindError("Shape", v)
}

func shapeFromBody(obj value.Object) (Shape, error) {
	var kind string
	if err := requireKey(obj, "ty", decodeString, &kind); err != nil {
		return Shape{}, err
	}
	s := Shape{Kind: ShapeKind(kind)}
	switch s.Kind {
	case ShapeEmpty:
		return s, nil
	case ShapeCharacter:
		err := errors.Join(
			requireKey(obj, "char", decodeString, &s.Char),
			decodeKey(obj, "font", decodeString, &s.Font),
			decodeKey(obj, "whole_shape", decodeBool, &s.WholeShape),
		)
		return s, err
	case ShapeComposed:
		err := errors.Join(
			requireKey(obj, "operation", decodeString, &s.Operation),
			decodeKey(obj, "padding", decodeFloat, &s.Padding),
			decodeKey(obj, "include_background", decodeBool, &s.IncludeBackground),
			decodeKey(obj, "num_circles", decodeInt, &s.NumCircles),
			decodeKey(obj, "circle_gap", decodeFloat, &s.CircleGap),
		)
		if err != nil {
			return Shape{}, err
		}
		if s.Operation != OpCircled && s.Operation != OpBoxed {
			return Shape{}, fmt.Errorf("unknown shape operation %q", s.Operation)
		}
		inner, err := obj.GetObject("innerShape")
		if err != nil {
			return Shape{}, err
		}
		in, err := shapeFromBody(inner)
		if err != nil {
			return Shape{}, fmt.Errorf("innerShape: %w", err)
		}
		s.Inner = &in
		return s, nil
	}
	return Shape{}, fmt.Errorf("unknown shape kind %q", kind)
}

func decodeClassStyle(v value.Value) (ClassStyle, error) {
	obj, ok := v.(value.Object)
	if !ok || obj.TypeTag() != "ChartClassStyle" {
		return ClassStyle{}, kindError("ChartClassStyle", v)
	}
	s := DefaultClassStyle()
	err := errors.Join(
		decodeKey(obj, "group_name", decodeString, &s.GroupName),
		decodeKey(obj, "shape", decodeShape, &s.Shape),
		decodeKey(obj, "background_color", decodeColor, &s.BackgroundColor),
		decodeKey(obj, "border_color", decodeColor, &s.BorderColor),
		decodeKey(obj, "foreground_color", decodeColor, &s.ForegroundColor),
		decodeKey(obj, "border_width", decodeFloat, &s.BorderWidth),
	)
	return s, err
}

func decodeEdgeStyle(v value.Value) (EdgeStyle, error) {
	obj, ok := v.(value.Object)
	if !ok || obj.TypeTag() != "ChartEdgeStyle" {
		return EdgeStyle{}, kindError("ChartEdgeStyle", v)
	}
	s := EdgeStyle{DashPattern: DashPattern{}}
	err := errors.Join(
		decodeKey(obj, "action", decodeString, &s.Action),
		decodeKey(obj, "color", decodeColor, &s.Color),
		decodeKey(obj, "dash_pattern", decodeDash, &s.DashPattern),
		decodeKey(obj, "line_width", decodeFloat, &s.LineWidth),
		decodeKey(obj, "start_tip", decodeTip, &s.StartTip),
		decodeKey(obj, "end_tip", decodeTip, &s.EndTip),
	)
	return s, err
}
