package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sseqchart/internal/page"
)

func TestRegisterClassStyle(t *testing.T) {
	c, _ := newTestChart(t)

	require.NoError(t, c.RegisterClassStyle(boldStyle()))
	require.NoError(t, c.RegisterClassStyle(boldStyle()), "identical re-registration is a no-op")

	changed := boldStyle()
	changed.BorderWidth = 4
	err := c.RegisterClassStyle(changed)
	assert.True(t, IsCode(err, ErrCodeStyleConflict), "got %v", err)

	got, ok := c.ClassStyle("bold")
	require.True(t, ok)
	assert.True(t, got.Equal(boldStyle()))

	err = c.RegisterClassStyle(ClassStyle{})
	assert.True(t, IsCode(err, ErrCodeMalformed), "got %v", err)
	assert.Equal(t, []string{"bold"}, c.ClassStyleNames())
}

func TestRegisterEdgeStyle(t *testing.T) {
	c, _ := newTestChart(t)
	dashed := EdgeStyle{Action: "h1", Color: ColorRef("gray"), DashPattern: DashPattern{2, 2}, LineWidth: 1}

	require.NoError(t, c.RegisterEdgeStyle(dashed))
	require.NoError(t, c.RegisterEdgeStyle(dashed))

	other := dashed
	other.DashPattern = DashPattern{4, 1}
	assert.True(t, IsCode(c.RegisterEdgeStyle(other), ErrCodeStyleConflict))
	assert.Equal(t, []string{"h1"}, c.EdgeStyleNames())
}

func TestRegistry_QueuesSettings(t *testing.T) {
	c, _ := newTestChart(t)

	require.NoError(t, c.RegisterClassStyle(boldStyle()))
	require.NoError(t, c.RegisterColor("accent", RGBA(10, 20, 30, 255)))
	require.NoError(t, c.RegisterShape("dot", Circle(2)))

	assert.Equal(t, 1, c.Pending(), "registry changes share the settings message")
}

func TestRegisterShape(t *testing.T) {
	c, _ := newTestChart(t)

	require.NoError(t, c.RegisterShape("ring", Circle(3)))
	require.NoError(t, c.RegisterShape("ring", Square(4)), "shapes may be re-registered")

	got, ok := c.Shape("ring")
	require.True(t, ok)
	assert.True(t, got.Equal(Square(4).WithName("ring")))

	assert.True(t, IsCode(c.RegisterShape("alias", ShapeRef("ring")), ErrCodeMalformed))
	assert.True(t, IsCode(c.RegisterShape("", Circle(1)), ErrCodeMalformed))
}

func TestRegisterColor_ResolvesReferences(t *testing.T) {
	c, _ := newTestChart(t)
	accent := RGBA(10, 20, 30, 255)
	require.NoError(t, c.RegisterColor("accent", accent))

	style := DefaultClassStyle()
	style.BackgroundColor = ColorRef("accent")
	require.NoError(t, c.SetDefaultClassStyle(style))

	cls := mustClass(t, c, 0, 0)
	assert.Equal(t, accent.WithName("accent"), cls.BackgroundColor().MustGet(0))

	// Registered names shadow CSS names.
	require.NoError(t, c.RegisterColor("red", accent))
	require.NoError(t, cls.BorderColor().Set(2, ColorRef("red")))
	assert.Equal(t, accent.WithName("red"), cls.BorderColor().MustGet(2))
}

func TestSetDefaultStyles_Validate(t *testing.T) {
	c, _ := newTestChart(t)

	style := DefaultClassStyle()
	style.Shape = ShapeRef("missing")
	assert.True(t, IsCode(c.SetDefaultClassStyle(style), ErrCodeUnknownShape))

	edgeStyle := DefaultStructlineStyle()
	edgeStyle.Color = ColorRef("nope")
	assert.True(t, IsCode(c.SetDefaultStructlineStyle(edgeStyle), ErrCodeUnknownColor))

	edgeStyle.Color = ColorRef("green")
	require.NoError(t, c.SetDefaultExtensionStyle(edgeStyle))
	assert.Equal(t, ColorRef("green"), c.DefaultExtensionStyle().Color)

	a := mustClass(t, c, 0, 0)
	b := mustClass(t, c, 0, 1)
	x, err := c.AddExtension(a, b)
	require.NoError(t, err)
	assert.Equal(t, "green", x.Color().Name)
	assert.False(t, x.Color().IsRef())
}

func TestEdgeStyleByName(t *testing.T) {
	c, _ := newTestChart(t)
	dashed := EdgeStyle{Action: "h1", Color: ColorRef("gray"), DashPattern: DashPattern{2, 2}, LineWidth: 1}
	require.NoError(t, c.RegisterEdgeStyle(dashed))

	a := mustClass(t, c, 0, 0)
	b := mustClass(t, c, 1, 1)
	s, err := c.AddStructline(a, b)
	require.NoError(t, err)

	require.NoError(t, s.SetStyleByName("h1", page.From(3)))
	got, err := s.Style(3)
	require.NoError(t, err)
	assert.Equal(t, "h1", got.Action)
	assert.Equal(t, DashPattern{2, 2}, got.DashPattern)
	assert.Equal(t, "gray", got.Color.Name)

	got, err = s.Style(2)
	require.NoError(t, err)
	assert.Equal(t, "", got.Action)

	assert.True(t, IsCode(s.SetStyleByName("h9", page.All()), ErrCodeUnknownStyle))

	d, err := c.AddDifferential(2, a, b, false)
	require.NoError(t, err)
	require.NoError(t, d.SetStyleByName("h1"))
	assert.Equal(t, "h1", d.Action())
	assert.Equal(t, 1.0, d.LineWidth())
}
