package chart

import "slices"

// modifiedSuffix marks a projected class style that no longer matches the
// registered style of the same group name.
const modifiedSuffix = " (modified)"

// ClassStyle bundles the visual attributes of a class on one page.
type ClassStyle struct {
	GroupName       string
	Shape           Shape
	BackgroundColor Color
	BorderColor     Color
	ForegroundColor Color
	BorderWidth     float64
}

// DefaultClassStyle is applied to new classes until the chart is given
// another default.
func DefaultClassStyle() ClassStyle {
	return ClassStyle{
		Shape:           ShapeRef(stdCircle),
		BackgroundColor: ColorRef("black"),
		BorderColor:     ColorRef("black"),
		ForegroundColor: ColorRef("black"),
		BorderWidth:     2,
	}
}

// Equal compares every attribute.
func (s ClassStyle) Equal(o ClassStyle) bool {
	return s.GroupName == o.GroupName &&
		s.Shape.Equal(o.Shape) &&
		s.BackgroundColor == o.BackgroundColor &&
		s.BorderColor == o.BorderColor &&
		s.ForegroundColor == o.ForegroundColor &&
		s.BorderWidth == o.BorderWidth
}

// Clone returns a deep copy.
func (s ClassStyle) Clone() ClassStyle {
	s.Shape = s.Shape.Clone()
	return s
}

// EdgeStyle bundles the visual attributes of an edge.
type EdgeStyle struct {
	Action      string
	Color       Color
	DashPattern DashPattern
	LineWidth   float64
	StartTip    ArrowTip
	EndTip      ArrowTip
}

// DefaultStructlineStyle is the initial default for structlines.
func DefaultStructlineStyle() EdgeStyle {
	return EdgeStyle{Color: ColorRef("black"), DashPattern: DashPattern{}, LineWidth: 2}
}

// DefaultDifferentialStyle is the initial default for differentials.
func DefaultDifferentialStyle() EdgeStyle {
	return EdgeStyle{Color: ColorRef("blue"), DashPattern: DashPattern{}, LineWidth: 2, EndTip: StandardTip}
}

// DefaultExtensionStyle is the initial default for extensions.
func DefaultExtensionStyle() EdgeStyle {
	return EdgeStyle{Color: ColorRef("black"), DashPattern: DashPattern{}, LineWidth: 2}
}

// Equal compares every attribute.
func (s EdgeStyle) Equal(o EdgeStyle) bool {
	return s.Action == o.Action &&
		s.Color == o.Color &&
		s.DashPattern.Equal(o.DashPattern) &&
		s.LineWidth == o.LineWidth &&
		s.StartTip == o.StartTip &&
		s.EndTip == o.EndTip
}

// Clone returns a deep copy.
func (s EdgeStyle) Clone() EdgeStyle {
	s.DashPattern = slices.Clone(s.DashPattern)
	if s.DashPattern == nil {
		s.DashPattern = DashPattern{}
	}
	return s
}
