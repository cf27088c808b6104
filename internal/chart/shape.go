package chart

import (
	"fmt"
	"slices"
)

// ShapeKind distinguishes the three shape forms.
type ShapeKind string

const (
	ShapeEmpty     ShapeKind = "empty"
	ShapeCharacter ShapeKind = "character"
	ShapeComposed  ShapeKind = "composed"
)

// Shape operations for composed shapes.
const (
	OpCircled = "circled"
	OpBoxed   = "boxed"
)

// DefaultFont is the font used for character shapes when none is given.
const DefaultFont = "stix"

// Shape describes how a class is drawn: a character, an empty core, or an
// inner shape wrapped in circles or a box.
//
// A Shape built with ShapeRef is an unresolved reference to a registered
// name.
type Shape struct {
	Kind ShapeKind
	Name string

	// Character shapes.
	Font       string
	Char       string
	WholeShape bool

	// Composed shapes.
	Operation         string
	Padding           float64
	NumCircles        int64
	CircleGap         float64
	IncludeBackground bool
	Inner             *Shape

	ref bool
}

// EmptyShape returns a shape with nothing at its center.
func EmptyShape() Shape {
	return Shape{Kind: ShapeEmpty}
}

// Character returns a shape drawing text at its center. An empty font
// selects DefaultFont.
func Character(text, font string) Shape {
	if text == "" {
		return EmptyShape()
	}
	if font == "" {
		font = DefaultFont
	}
	return Shape{Kind: ShapeCharacter, Font: font, Char: text, WholeShape: true}
}

// Circle returns an empty shape circled once with the given padding.
func Circle(size float64) Shape {
	return EmptyShape().Circled(size, 1, 0, true)
}

// Square returns an empty shape boxed with the given padding.
func Square(size float64) Shape {
	return EmptyShape().Boxed(size, true)
}

// ShapeRef refers to a registered shape by name.
func ShapeRef(name string) Shape {
	return Shape{Name: name, ref: true}
}

// IsRef reports whether s is an unresolved name reference.
func (s Shape) IsRef() bool {
	return s.ref
}

// Circled wraps s in numCircles concentric circles.
func (s Shape) Circled(padding float64, numCircles int64, circleGap float64, includeBackground bool) Shape {
	return Shape{
		Kind:              ShapeComposed,
		Operation:         OpCircled,
		Padding:           padding,
		NumCircles:        numCircles,
		CircleGap:         circleGap,
		IncludeBackground: includeBackground,
		Inner:             s.wrapped(),
	}
}

// Boxed wraps s in a box.
func (s Shape) Boxed(padding float64, includeBackground bool) Shape {
	return Shape{
		Kind:              ShapeComposed,
		Operation:         OpBoxed,
		Padding:           padding,
		IncludeBackground: includeBackground,
		Inner:             s.wrapped(),
	}
}

// wrapped copies s for use as an inner shape: unnamed, and a character no
// longer forms the whole shape.
func (s Shape) wrapped() *Shape {
	inner := s.Clone()
	inner.Name = ""
	if inner.Kind == ShapeCharacter {
		inner.WholeShape = false
	}
	return &inner
}

// WithName returns a copy of s carrying name.
func (s Shape) WithName(name string) Shape {
	c := s.Clone()
	c.Name = name
	c.ref = false
	return c
}

// Clone returns a deep copy.
func (s Shape) Clone() Shape {
	if s.Inner != nil {
		inner := s.Inner.Clone()
		s.Inner = &inner
	}
	return s
}

// Equal reports whether both shapes have the same structure and name.
func (s Shape) Equal(o Shape) bool {
	if s.Kind != o.Kind || s.Name != o.Name || s.ref != o.ref ||
		s.Font != o.Font || s.Char != o.Char || s.WholeShape != o.WholeShape ||
		s.Operation != o.Operation || s.Padding != o.Padding ||
		s.NumCircles != o.NumCircles || s.CircleGap != o.CircleGap ||
		s.IncludeBackground != o.IncludeBackground {
		return false
	}
	if s.Inner == nil || o.Inner == nil {
		return s.Inner == nil && o.Inner == nil
	}
	return s.Inner.Equal(*o.Inner)
}

func (s Shape) String() string {
	if s.Name != "" {
		return fmt.Sprintf("Shape(%q)", s.Name)
	}
	switch s.Kind {
	case ShapeCharacter:
		return fmt.Sprintf("Shape(%q)", s.Char)
	case ShapeComposed:
		return fmt.Sprintf("Shape(%s %v)", s.Operation, s.Inner)
	}
	return "Shape()"
}

// ArrowTip is an edge end decoration. The zero value draws no tip.
type ArrowTip string

const (
	NoTip       ArrowTip = ""
	StandardTip ArrowTip = "standard"
)

// DashPattern lists alternating dash and gap lengths. Empty means solid.
type DashPattern []int64

// Equal reports element-wise equality.
func (d DashPattern) Equal(o DashPattern) bool {
	return slices.Equal(d, o)
}

func equalDash(a, b DashPattern) bool { return a.Equal(b) }

func equalShape(a, b Shape) bool { return a.Equal(b) }
