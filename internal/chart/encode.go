package chart

import (
	"fmt"

	"github.com/roach88/sseqchart/internal/page"
	"github.com/roach88/sseqchart/internal/signal"
	"github.com/roach88/sseqchart/internal/value"
)

const pagePropertyType = "PageProperty"

// Encode renders the whole chart as canonical JSON. Equal charts encode to
// identical bytes.
func (c *Chart) Encode() ([]byte, error) {
	obj, err := c.EncodeObject()
	if err != nil {
		return nil, err
	}
	data, err := value.MarshalCanonical(obj)
	if err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return data, nil
}

// EncodeObject renders the whole chart as a value tree.
func (c *Chart) EncodeObject() (value.Object, error) {
	obj := c.settingsFields()
	obj["type"] = value.String(chartType)
	obj["version"] = value.String(Version)
	obj["uuid"] = value.String(c.id)
	obj["name"] = value.String(c.name)
	obj["num_gradings"] = value.Int(c.numGradings)

	classes := c.Classes()
	encodedClasses := make(value.Array, len(classes))
	for i, cls := range classes {
		enc, err := cls.encode()
		if err != nil {
			return nil, fmt.Errorf("encode class %s: %w", cls.id, err)
		}
		encodedClasses[i] = enc
	}
	obj["classes"] = encodedClasses

	edges := c.Edges()
	encodedEdges := make(value.Array, len(edges))
	for i, e := range edges {
		enc, err := e.encode()
		if err != nil {
			return nil, fmt.Errorf("encode edge %s: %w", e.ID(), err)
		}
		encodedEdges[i] = enc
	}
	obj["edges"] = encodedEdges

	return obj, nil
}

// encodeRegistries writes the default styles and the named registries.
func (c *Chart) encodeRegistries(obj value.Object) {
	obj["default_class_style"] = encodeClassStyle(c.defaultClassStyle)
	obj["default_structline_style"] = encodeEdgeStyle(c.defaultStructlineStyle)
	obj["default_differential_style"] = encodeEdgeStyle(c.defaultDifferentialStyle)
	obj["default_extension_style"] = encodeEdgeStyle(c.defaultExtensionStyle)

	classStyles := make(value.Object, len(c.classStyles))
	for name, s := range c.classStyles {
		classStyles[name] = encodeClassStyle(s)
	}
	obj["class_styles"] = classStyles

	edgeStyles := make(value.Object, len(c.edgeStyles))
	for action, s := range c.edgeStyles {
		edgeStyles[action] = encodeEdgeStyle(s)
	}
	obj["edge_styles"] = edgeStyles

	shapes := make(value.Object, len(c.shapes))
	for name, s := range c.shapes {
		shapes[name] = encodeShape(s)
	}
	obj["shapes"] = shapes

	colors := make(value.Object, len(c.colors))
	for name, col := range c.colors {
		colors[name] = encodeColor(col)
	}
	obj["colors"] = colors
}

func (c *Class) encode() (value.Object, error) {
	userData, err := signal.Encode(c.userData)
	if err != nil {
		return nil, fmt.Errorf("user_data: %w", err)
	}
	return value.Object{
		"type":             value.String(classType),
		"uuid":             value.String(c.id),
		"degree":           value.Ints(c.degree),
		"idx":              value.Int(c.idx),
		"max_page":         value.Int(c.maxPage),
		"name":             encodeProperty(c.name, encodeString),
		"group_name":       encodeProperty(c.groupName, encodeString),
		"shape":            encodeProperty(c.shape, encodeShape),
		"background_color": encodeProperty(c.backgroundColor, encodeColor),
		"border_color":     encodeProperty(c.borderColor, encodeColor),
		"foreground_color": encodeProperty(c.foregroundColor, encodeColor),
		"border_width":     encodeProperty(c.borderWidth, encodeFloat),
		"scale":            encodeProperty(c.scale, encodeFloat),
		"visible":          encodeProperty(c.visible, encodeBool),
		"x_nudge":          encodeProperty(c.xNudge, encodeFloat),
		"y_nudge":          encodeProperty(c.yNudge, encodeFloat),
		"user_data":        userData,
	}, nil
}

func (e *edge) encodeBase(typeName string) (value.Object, error) {
	userData, err := signal.Encode(e.userData)
	if err != nil {
		return nil, fmt.Errorf("user_data: %w", err)
	}
	return value.Object{
		"type":        value.String(typeName),
		"uuid":        value.String(e.id),
		"source_uuid": value.String(e.sourceID),
		"target_uuid": value.String(e.targetID),
		"user_data":   userData,
	}, nil
}

func (s *Structline) encode() (value.Object, error) {
	obj, err := s.encodeBase(structlineType)
	if err != nil {
		return nil, err
	}
	obj["action"] = encodeProperty(s.action, encodeString)
	obj["color"] = encodeProperty(s.color, encodeColor)
	obj["dash_pattern"] = encodeProperty(s.dashPattern, encodeDash)
	obj["line_width"] = encodeProperty(s.lineWidth, encodeFloat)
	obj["bend"] = encodeProperty(s.bend, encodeFloat)
	obj["start_tip"] = encodeProperty(s.startTip, encodeTip)
	obj["end_tip"] = encodeProperty(s.endTip, encodeTip)
	obj["visible"] = encodeProperty(s.visible, encodeBool)
	return obj, nil
}

func (s *singlePage) encodeFields(typeName string) (value.Object, error) {
	obj, err := s.encodeBase(typeName)
	if err != nil {
		return nil, err
	}
	obj["action"] = value.String(s.action)
	obj["color"] = encodeColor(s.color)
	obj["dash_pattern"] = encodeDash(s.dashPattern)
	obj["line_width"] = value.Float(s.lineWidth)
	obj["bend"] = value.Float(s.bend)
	obj["start_tip"] = encodeTip(s.startTip)
	obj["end_tip"] = encodeTip(s.endTip)
	obj["visible"] = value.Bool(s.visible)
	return obj, nil
}

func (d *Differential) encode() (value.Object, error) {
	obj, err := d.encodeFields(differentialType)
	if err != nil {
		return nil, err
	}
	obj["page"] = value.Int(d.page)
	return obj, nil
}

func (x *Extension) encode() (value.Object, error) {
	return x.encodeFields(extensionType)
}

// encodeProperty writes a constant property as its bare value and any
// other as {"type": "PageProperty", "values": [[page, value], ...]}.
func encodeProperty[T any](p *page.Property[T], enc func(T) value.Value) value.Value {
	bps := p.Breakpoints()
	if len(bps) == 1 {
		return enc(bps[0].Value)
	}
	values := make(value.Array, len(bps))
	for i, bp := range bps {
		values[i] = value.Array{value.Int(bp.Page), enc(bp.Value)}
	}
	return value.Object{"type": value.String(pagePropertyType), "values": values}
}

func encodeString(s string) value.Value { return value.String(s) }

func encodeFloat(f float64) value.Value { return value.Float(f) }

func encodeBool(b bool) value.Value { return value.Bool(b) }

func encodeDash(d DashPattern) value.Value { return value.Ints(d) }

// encodeColor writes references as their bare name.
func encodeColor(c Color) value.Value {
	if c.IsRef() {
		return value.String(c.Name)
	}
	obj := value.Object{"type": value.String("Color"), "color": value.String(c.Hex())}
	if c.Name != "" {
		obj["name"] = value.String(c.Name)
	}
	return obj
}

// encodeShape writes references as their bare name.
func encodeShape(s Shape) value.Value {
	if s.IsRef() {
		return value.String(s.Name)
	}
	obj := shapeBody(s)
	obj["type"] = value.String("Shape")
	if s.Name != "" {
		obj["name"] = value.String(s.Name)
	}
	return obj
}

// shapeBody is the untagged shape description; inner shapes nest as bodies.
func shapeBody(s Shape) value.Object {
	obj := value.Object{"ty": value.String(s.Kind)}
	switch s.Kind {
	case ShapeCharacter:
		obj["font"] = value.String(s.Font)
		obj["char"] = value.String(s.Char)
		obj["whole_shape"] = value.Bool(s.WholeShape)
	case ShapeComposed:
		obj["operation"] = value.String(s.Operation)
		obj["padding"] = value.Float(s.Padding)
		obj["include_background"] = value.Bool(s.IncludeBackground)
		if s.Operation == OpCircled {
			obj["num_circles"] = value.Int(s.NumCircles)
			obj["circle_gap"] = value.Float(s.CircleGap)
		}
		if s.Inner != nil {
			obj["innerShape"] = shapeBody(*s.Inner)
		}
	}
	return obj
}

func encodeTip(t ArrowTip) value.Value {
	if t == NoTip {
		return value.Null{}
	}
	return value.Object{"type": value.String("ArrowTip"), "tip": value.String(t)}
}

func encodeClassStyle(s ClassStyle) value.Object {
	return value.Object{
		"type":             value.String("ChartClassStyle"),
		"group_name":       value.String(s.GroupName),
		"shape":            encodeShape(s.Shape),
		"background_color": encodeColor(s.BackgroundColor),
		"border_color":     encodeColor(s.BorderColor),
		"foreground_color": encodeColor(s.ForegroundColor),
		"border_width":     value.Float(s.BorderWidth),
	}
}

func encodeEdgeStyle(s EdgeStyle) value.Object {
	return value.Object{
		"type":         value.String("ChartEdgeStyle"),
		"action":       value.String(s.Action),
		"color":        encodeColor(s.Color),
		"dash_pattern": encodeDash(s.DashPattern),
		"line_width":   value.Float(s.LineWidth),
		"start_tip":    encodeTip(s.StartTip),
		"end_tip":      encodeTip(s.EndTip),
	}
}
