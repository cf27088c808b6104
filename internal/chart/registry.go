package chart

import (
	"maps"
	"slices"
)

// Registry and default-style changes reach mirrors through the settings
// message.

// RegisterClassStyle registers style under its group name. Registering an
// identical style again is a no-op; a different style under the same name
// fails with STYLE_CONFLICT.
func (c *Chart) RegisterClassStyle(style ClassStyle) error {
	if style.GroupName == "" {
		return malformed("register class style: empty group name")
	}
	if existing, ok := c.classStyles[style.GroupName]; ok {
		if existing.Equal(style) {
			return nil
		}
		return newError(ErrCodeStyleConflict, "", "a different class style named %q is already registered", style.GroupName)
	}
	c.classStyles[style.GroupName] = style.Clone()
	c.queueSettings()
	return nil
}

// RegisterEdgeStyle registers style under its action, with the same
// conflict rules as RegisterClassStyle.
func (c *Chart) RegisterEdgeStyle(style EdgeStyle) error {
	if style.Action == "" {
		return malformed("register edge style: empty action")
	}
	if existing, ok := c.edgeStyles[style.Action]; ok {
		if existing.Equal(style) {
			return nil
		}
		return newError(ErrCodeStyleConflict, "", "a different edge style named %q is already registered", style.Action)
	}
	c.edgeStyles[style.Action] = style.Clone()
	c.queueSettings()
	return nil
}

// ClassStyle returns the registered class style name.
func (c *Chart) ClassStyle(name string) (ClassStyle, bool) {
	s, ok := c.classStyles[name]
	return s.Clone(), ok
}

// EdgeStyle returns the registered edge style action.
func (c *Chart) EdgeStyle(action string) (EdgeStyle, bool) {
	s, ok := c.edgeStyles[action]
	return s.Clone(), ok
}

// ClassStyleNames returns the registered class style names, sorted.
func (c *Chart) ClassStyleNames() []string {
	return slices.Sorted(maps.Keys(c.classStyles))
}

// EdgeStyleNames returns the registered edge style actions, sorted.
func (c *Chart) EdgeStyleNames() []string {
	return slices.Sorted(maps.Keys(c.edgeStyles))
}

// RegisterShape makes shape available under name. A later registration
// replaces an earlier one; classes already using the old shape keep it.
func (c *Chart) RegisterShape(name string, shape Shape) error {
	if name == "" {
		return malformed("register shape: empty name")
	}
	if shape.IsRef() {
		return malformed("register shape %q: shape is itself a reference to %q", name, shape.Name)
	}
	c.shapes[name] = shape.WithName(name)
	c.queueSettings()
	return nil
}

// RegisterColor makes color available under name, shadowing any CSS color
// of the same name.
func (c *Chart) RegisterColor(name string, color Color) error {
	if name == "" {
		return malformed("register color: empty name")
	}
	if color.IsRef() {
		return malformed("register color %q: color is itself a reference to %q", name, color.Name)
	}
	c.colors[name] = color.WithName(name)
	c.queueSettings()
	return nil
}

// Shape returns the registered shape name.
func (c *Chart) Shape(name string) (Shape, bool) {
	s, ok := c.shapes[name]
	return s.Clone(), ok
}

// Color returns the registered color name.
func (c *Chart) Color(name string) (Color, bool) {
	col, ok := c.colors[name]
	return col, ok
}

// DefaultClassStyle returns the style applied to new classes.
func (c *Chart) DefaultClassStyle() ClassStyle { return c.defaultClassStyle.Clone() }

// DefaultStructlineStyle returns the style applied to new structlines.
func (c *Chart) DefaultStructlineStyle() EdgeStyle { return c.defaultStructlineStyle.Clone() }

// DefaultDifferentialStyle returns the style applied to new differentials.
func (c *Chart) DefaultDifferentialStyle() EdgeStyle { return c.defaultDifferentialStyle.Clone() }

// DefaultExtensionStyle returns the style applied to new extensions.
func (c *Chart) DefaultExtensionStyle() EdgeStyle { return c.defaultExtensionStyle.Clone() }

// SetDefaultClassStyle changes the style applied to new classes. Every
// name in style must resolve.
func (c *Chart) SetDefaultClassStyle(style ClassStyle) error {
	if _, err := c.resolveClassStyle(style); err != nil {
		return err
	}
	c.defaultClassStyle = style.Clone()
	c.queueSettings()
	return nil
}

// SetDefaultStructlineStyle changes the style applied to new structlines.
func (c *Chart) SetDefaultStructlineStyle(style EdgeStyle) error {
	return c.setDefaultEdgeStyle(&c.defaultStructlineStyle, style)
}

// SetDefaultDifferentialStyle changes the style applied to new differentials.
func (c *Chart) SetDefaultDifferentialStyle(style EdgeStyle) error {
	return c.setDefaultEdgeStyle(&c.defaultDifferentialStyle, style)
}

// SetDefaultExtensionStyle changes the style applied to new extensions.
func (c *Chart) SetDefaultExtensionStyle(style EdgeStyle) error {
	return c.setDefaultEdgeStyle(&c.defaultExtensionStyle, style)
}

func (c *Chart) setDefaultEdgeStyle(dst *EdgeStyle, style EdgeStyle) error {
	if _, err := c.resolveEdgeStyle(style); err != nil {
		return err
	}
	*dst = style.Clone()
	c.queueSettings()
	return nil
}

// resolveShape replaces a shape reference with the registered shape.
func (c *Chart) resolveShape(s Shape) (Shape, error) {
	if !s.IsRef() {
		return s, nil
	}
	registered, ok := c.shapes[s.Name]
	if !ok {
		return Shape{}, newError(ErrCodeUnknownShape, "", "no shape named %q", s.Name)
	}
	return registered.Clone(), nil
}

// resolveColor replaces a color reference with a registered color, or
// failing that a parsed hex or CSS color.
func (c *Chart) resolveColor(col Color) (Color, error) {
	if !col.IsRef() {
		return col, nil
	}
	if registered, ok := c.colors[col.Name]; ok {
		return registered, nil
	}
	return ParseColor(col.Name)
}

// normalizeShape is the property normalizer for shapes: unknown names stay
// references.
func (c *Chart) normalizeShape(s Shape) Shape {
	if resolved, err := c.resolveShape(s); err == nil {
		return resolved
	}
	return s
}

// normalizeColor is the property normalizer for colors.
func (c *Chart) normalizeColor(col Color) Color {
	if resolved, err := c.resolveColor(col); err == nil {
		return resolved
	}
	return col
}

func (c *Chart) resolveClassStyle(style ClassStyle) (ClassStyle, error) {
	var err error
	out := style.Clone()
	if out.Shape, err = c.resolveShape(style.Shape); err != nil {
		return ClassStyle{}, err
	}
	if out.BackgroundColor, err = c.resolveColor(style.BackgroundColor); err != nil {
		return ClassStyle{}, err
	}
	if out.BorderColor, err = c.resolveColor(style.BorderColor); err != nil {
		return ClassStyle{}, err
	}
	if out.ForegroundColor, err = c.resolveColor(style.ForegroundColor); err != nil {
		return ClassStyle{}, err
	}
	return out, nil
}

func (c *Chart) resolveEdgeStyle(style EdgeStyle) (EdgeStyle, error) {
	out := style.Clone()
	color, err := c.resolveColor(style.Color)
	if err != nil {
		return EdgeStyle{}, err
	}
	out.Color = color
	return out, nil
}
