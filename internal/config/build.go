package config

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/sseqchart/internal/chart"
	"github.com/roach88/sseqchart/internal/page"
)

// Build creates a chart configured by c. Options are applied after the
// configured number of gradings.
//
// Registration order is colors, shapes, class styles, edge styles, then
// defaults, so styles may refer to the colors and shapes defined beside
// them.
func (c *Config) Build(opts ...chart.Option) (*chart.Chart, error) {
	var chartOpts []chart.Option
	if c.NumGradings != 0 {
		chartOpts = append(chartOpts, chart.WithNumGradings(c.NumGradings))
	}
	ch, err := chart.New(c.Name, append(chartOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("build chart: %w", err)
	}

	for _, name := range slices.Sorted(maps.Keys(c.Colors)) {
		col, err := chart.ParseColor(c.Colors[name])
		if err != nil {
			return nil, fmt.Errorf("colors.%s: %w", name, err)
		}
		if err := ch.RegisterColor(name, col); err != nil {
			return nil, fmt.Errorf("colors.%s: %w", name, err)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(c.Shapes)) {
		if err := ch.RegisterShape(name, c.Shapes[name].Shape()); err != nil {
			return nil, fmt.Errorf("shapes.%s: %w", name, err)
		}
	}

	for _, s := range c.ClassStyles {
		style := s.Style()
		if err := checkClassStyle(ch, style); err != nil {
			return nil, fmt.Errorf("class style %q: %w", s.GroupName, err)
		}
		if err := ch.RegisterClassStyle(style); err != nil {
			return nil, fmt.Errorf("class style %q: %w", s.GroupName, err)
		}
	}
	for _, s := range c.EdgeStyles {
		style := s.Style()
		if err := checkColor(ch, style.Color); err != nil {
			return nil, fmt.Errorf("edge style %q: color: %w", s.Action, err)
		}
		if err := ch.RegisterEdgeStyle(style); err != nil {
			return nil, fmt.Errorf("edge style %q: %w", s.Action, err)
		}
	}

	if err := c.applyDefaults(ch); err != nil {
		return nil, err
	}
	if err := c.applyView(ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// checkClassStyle resolves style against ch without registering it, so a
// misspelled shape or color fails at build time instead of at first use.
func checkClassStyle(ch *chart.Chart, style chart.ClassStyle) error {
	if style.Shape.IsRef() {
		if _, ok := ch.Shape(style.Shape.Name); !ok {
			return fmt.Errorf("shape: no shape named %q", style.Shape.Name)
		}
	}
	for field, col := range map[string]chart.Color{
		"background_color": style.BackgroundColor,
		"border_color":     style.BorderColor,
		"foreground_color": style.ForegroundColor,
	} {
		if err := checkColor(ch, col); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}
	return nil
}

func checkColor(ch *chart.Chart, col chart.Color) error {
	if _, ok := ch.Color(col.Name); ok {
		return nil
	}
	_, err := chart.ParseColor(col.Name)
	return err
}

func (c *Config) applyDefaults(ch *chart.Chart) error {
	if name := c.Defaults.ClassStyle; name != "" {
		style, ok := ch.ClassStyle(name)
		if !ok {
			return fmt.Errorf("defaults.class_style: no class style named %q", name)
		}
		if err := ch.SetDefaultClassStyle(style); err != nil {
			return fmt.Errorf("defaults.class_style: %w", err)
		}
	}

	edgeDefaults := []struct {
		field string
		name  string
		set   func(chart.EdgeStyle) error
	}{
		{"structline_style", c.Defaults.StructlineStyle, ch.SetDefaultStructlineStyle},
		{"differential_style", c.Defaults.DifferentialStyle, ch.SetDefaultDifferentialStyle},
		{"extension_style", c.Defaults.ExtensionStyle, ch.SetDefaultExtensionStyle},
	}
	for _, d := range edgeDefaults {
		if d.name == "" {
			continue
		}
		style, ok := ch.EdgeStyle(d.name)
		if !ok {
			return fmt.Errorf("defaults.%s: no edge style named %q", d.field, d.name)
		}
		if err := d.set(style); err != nil {
			return fmt.Errorf("defaults.%s: %w", d.field, err)
		}
	}
	return nil
}

func (c *Config) applyView(ch *chart.Chart) error {
	if c.XProjection != nil {
		if err := ch.SetXProjection(c.XProjection); err != nil {
			return fmt.Errorf("x_projection: %w", err)
		}
	}
	if c.YProjection != nil {
		if err := ch.SetYProjection(c.YProjection); err != nil {
			return fmt.Errorf("y_projection: %w", err)
		}
	}

	ranges := []struct {
		r   []int64
		set func(lo, hi int64)
	}{
		{c.XRange, ch.SetXRange},
		{c.YRange, ch.SetYRange},
		{c.InitialXRange, ch.SetInitialXRange},
		{c.InitialYRange, ch.SetInitialYRange},
	}
	for _, r := range ranges {
		if len(r.r) == 2 {
			r.set(r.r[0], r.r[1])
		}
	}

	if c.PageList != nil {
		pairs := make([]page.Pair, len(c.PageList))
		for i, p := range c.PageList {
			pairs[i] = page.Pair{Page: p[0].Page(), MaxLen: p[1].Page()}
		}
		ch.SetPageList(pairs)
	}
	return nil
}

// Shape builds the described shape.
func (s ShapeConfig) Shape() chart.Shape {
	switch s.Kind {
	case "character":
		return chart.Character(s.Char, s.Font)
	case "circle":
		if s.Circles > 1 {
			return chart.EmptyShape().Circled(s.Size, s.Circles, s.Gap, true)
		}
		return chart.Circle(s.Size)
	case "square":
		return chart.Square(s.Size)
	default:
		return chart.EmptyShape()
	}
}

// Style builds the described class style with unresolved names.
func (s ClassStyleConfig) Style() chart.ClassStyle {
	return chart.ClassStyle{
		GroupName:       s.GroupName,
		Shape:           chart.ShapeRef(s.Shape),
		BackgroundColor: chart.ColorRef(s.BackgroundColor),
		BorderColor:     chart.ColorRef(s.BorderColor),
		ForegroundColor: chart.ColorRef(s.ForegroundColor),
		BorderWidth:     s.BorderWidth,
	}
}

// Style builds the described edge style with an unresolved color.
func (s EdgeStyleConfig) Style() chart.EdgeStyle {
	dash := chart.DashPattern(slices.Clone(s.DashPattern))
	if dash == nil {
		dash = chart.DashPattern{}
	}
	return chart.EdgeStyle{
		Action:      s.Action,
		Color:       chart.ColorRef(s.Color),
		DashPattern: dash,
		LineWidth:   s.LineWidth,
		StartTip:    chart.ArrowTip(s.StartTip),
		EndTip:      chart.ArrowTip(s.EndTip),
	}
}
