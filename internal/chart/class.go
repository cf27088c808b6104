package chart

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/sseqchart/internal/page"
	"github.com/roach88/sseqchart/internal/signal"
)

const classType = "ChartClass"

// Class is a node at a fixed degree. Classes are created with
// Chart.AddClass and are never constructed directly.
type Class struct {
	chart   *Chart
	id      string
	degree  []int64
	idx     int
	maxPage page.Page
	edges   []Edge
	deleted bool

	name            *page.Property[string]
	groupName       *page.Property[string]
	shape           *page.Property[Shape]
	backgroundColor *page.Property[Color]
	borderColor     *page.Property[Color]
	foregroundColor *page.Property[Color]
	borderWidth     *page.Property[float64]
	scale           *page.Property[float64]
	visible         *page.Property[bool]
	xNudge          *page.Property[float64]
	yNudge          *page.Property[float64]
	userData        *signal.Map
}

func newClass(id string, degree []int64, idx int) *Class {
	style := DefaultClassStyle()
	c := &Class{
		id:              id,
		degree:          slices.Clone(degree),
		idx:             idx,
		maxPage:         page.Infinity,
		name:            page.New(""),
		groupName:       page.New(style.GroupName),
		shape:           page.NewFunc(style.Shape, equalShape),
		backgroundColor: page.New(style.BackgroundColor),
		borderColor:     page.New(style.BorderColor),
		foregroundColor: page.New(style.ForegroundColor),
		borderWidth:     page.New(style.BorderWidth),
		scale:           page.New(1.0),
		visible:         page.New(true),
		xNudge:          page.New(0.0),
		yNudge:          page.New(0.0),
		userData:        signal.NewMap(nil),
	}
	c.adoptAttributes()
	return c
}

// adoptAttributes points every attribute's notifications at c.
func (c *Class) adoptAttributes() {
	c.name.SetOwner(c)
	c.groupName.SetOwner(c)
	c.shape.SetOwner(c)
	c.backgroundColor.SetOwner(c)
	c.borderColor.SetOwner(c)
	c.foregroundColor.SetOwner(c)
	c.borderWidth.SetOwner(c)
	c.scale.SetOwner(c)
	c.visible.SetOwner(c)
	c.xNudge.SetOwner(c)
	c.yNudge.SetOwner(c)
	c.userData.SetParent(c)
}

// attach installs name resolution against the owning chart and resolves
// any names already stored.
func (c *Class) attach(ch *Chart) {
	c.chart = ch
	c.shape.SetNormalizer(ch.normalizeShape)
	for _, p := range []*page.Property[Color]{c.backgroundColor, c.borderColor, c.foregroundColor} {
		p.SetNormalizer(ch.normalizeColor)
		p.Normalize()
	}
	c.shape.Normalize()
}

// NeedsUpdate queues an update message for c. Changes to a class that is
// not yet committed, or already deleted, are not reported.
func (c *Class) NeedsUpdate() {
	if c.chart == nil || c.deleted {
		return
	}
	c.chart.queueUpdate(c)
}

// ID returns the class id.
func (c *Class) ID() string { return c.id }

// TypeName returns the wire type tag.
func (c *Class) TypeName() string { return classType }

// Chart returns the owning chart.
func (c *Class) Chart() *Chart { return c.chart }

// Degree returns a copy of the class degree.
func (c *Class) Degree() []int64 { return slices.Clone(c.degree) }

// Index returns the position of c among the classes of its degree.
func (c *Class) Index() int { return c.idx }

// MaxPage returns the last page on which c is alive.
func (c *Class) MaxPage() page.Page { return c.maxPage }

// Deleted reports whether c has been deleted.
func (c *Class) Deleted() bool { return c.deleted }

// Edges returns the edges incident to c.
func (c *Class) Edges() []Edge { return slices.Clone(c.edges) }

// Page-varying attributes.

func (c *Class) Name() *page.Property[string]           { return c.name }
func (c *Class) GroupName() *page.Property[string]      { return c.groupName }
func (c *Class) Shape() *page.Property[Shape]           { return c.shape }
func (c *Class) BackgroundColor() *page.Property[Color] { return c.backgroundColor }
func (c *Class) BorderColor() *page.Property[Color]     { return c.borderColor }
func (c *Class) ForegroundColor() *page.Property[Color] { return c.foregroundColor }
func (c *Class) BorderWidth() *page.Property[float64]   { return c.borderWidth }
func (c *Class) Scale() *page.Property[float64]         { return c.scale }
func (c *Class) Visible() *page.Property[bool]          { return c.visible }
func (c *Class) XNudge() *page.Property[float64]        { return c.xNudge }
func (c *Class) YNudge() *page.Property[float64]        { return c.yNudge }

// UserData returns the free-form metadata attached to c.
func (c *Class) UserData() *signal.Map { return c.userData }

// X returns the degree projected onto the chart's x weights.
func (c *Class) X() int64 {
	return dot(c.degree, c.chart.XProjection())
}

// Y returns the degree projected onto the chart's y weights.
func (c *Class) Y() int64 {
	return dot(c.degree, c.chart.YProjection())
}

func dot(a, b []int64) int64 {
	var sum int64
	for i := range min(len(a), len(b)) {
		sum += a[i] * b[i]
	}
	return sum
}

// VisibleOn reports whether c is drawn on page p.
func (c *Class) VisibleOn(p page.Page) bool {
	if p < page.Min {
		return false
	}
	p = page.Clamp(p)
	if p > c.maxPage {
		return false
	}
	return c.visible.MustGet(p)
}

// SetMaxPage sets the last page on which c is alive.
func (c *Class) SetMaxPage(p page.Page) error {
	if c.deleted {
		return deletedError("class", c.id)
	}
	if p < page.Min {
		return fmt.Errorf("set max page: %w: page %d", page.ErrBeforeDomain, p)
	}
	p = page.Clamp(p)
	if p == c.maxPage {
		return nil
	}
	c.maxPage = p
	c.NeedsUpdate()
	return nil
}

// Style projects the visual attributes of c on page p. When the group name
// names a registered style that the projection no longer matches, the
// group name gains a " (modified)" suffix.
func (c *Class) Style(p page.Page) (ClassStyle, error) {
	if p < page.Min {
		return ClassStyle{}, fmt.Errorf("style: %w: page %d", page.ErrBeforeDomain, p)
	}
	style := ClassStyle{
		GroupName:       c.groupName.MustGet(p),
		Shape:           c.shape.MustGet(p).Clone(),
		BackgroundColor: c.backgroundColor.MustGet(p),
		BorderColor:     c.borderColor.MustGet(p),
		ForegroundColor: c.foregroundColor.MustGet(p),
		BorderWidth:     c.borderWidth.MustGet(p),
	}
	if c.chart == nil {
		return style, nil
	}
	if registered, ok := c.chart.ClassStyle(style.GroupName); ok {
		resolved, err := c.chart.resolveClassStyle(registered)
		if err != nil || !resolved.Equal(style) {
			style.GroupName += modifiedSuffix
		}
	}
	return style, nil
}

// SetStyle applies every attribute of style over span.
func (c *Class) SetStyle(style ClassStyle, span page.Span) error {
	if c.deleted {
		return deletedError("class", c.id)
	}
	if c.chart != nil {
		resolved, err := c.chart.resolveClassStyle(style)
		if err != nil {
			return err
		}
		style = resolved
	}
	return c.applyStyle(style, span)
}

// SetStyleByName applies the registered class style name over span.
func (c *Class) SetStyleByName(name string, span page.Span) error {
	style, ok := c.chart.ClassStyle(name)
	if !ok {
		return newError(ErrCodeUnknownStyle, c.id, "no class style named %q", name)
	}
	return c.SetStyle(style, span)
}

func (c *Class) applyStyle(style ClassStyle, span page.Span) error {
	if err := c.groupName.SetSpan(span, style.GroupName); err != nil {
		return fmt.Errorf("set style: %w", err)
	}
	// The first write validated the span; the rest cannot fail.
	_ = c.shape.SetSpan(span, style.Shape.Clone())
	_ = c.backgroundColor.SetSpan(span, style.BackgroundColor)
	_ = c.borderColor.SetSpan(span, style.BorderColor)
	_ = c.foregroundColor.SetSpan(span, style.ForegroundColor)
	_ = c.borderWidth.SetSpan(span, style.BorderWidth)
	return nil
}

// Replace revives a class that died: max page becomes infinite and style
// takes effect one page after the old max page.
func (c *Class) Replace(style ClassStyle) error {
	if c.deleted {
		return deletedError("class", c.id)
	}
	if c.maxPage >= page.Infinity {
		return newError(ErrCodeClassAlive, c.id, "replace called on class that never dies")
	}
	if c.chart != nil {
		resolved, err := c.chart.resolveClassStyle(style)
		if err != nil {
			return err
		}
		style = resolved
	}
	from := c.maxPage + 1
	c.maxPage = page.Infinity
	if err := c.applyStyle(style, page.At(from)); err != nil {
		return err
	}
	c.NeedsUpdate()
	return nil
}

// ReplaceByName is Replace with a registered class style.
func (c *Class) ReplaceByName(name string) error {
	style, ok := c.chart.ClassStyle(name)
	if !ok {
		return newError(ErrCodeUnknownStyle, c.id, "no class style named %q", name)
	}
	return c.Replace(style)
}

// Delete removes c and every incident edge from the chart.
func (c *Class) Delete() error {
	if c.deleted {
		return deletedError("class", c.id)
	}
	for _, e := range slices.Clone(c.edges) {
		if err := e.Delete(); err != nil {
			return fmt.Errorf("delete incident edge %s: %w", e.ID(), err)
		}
	}
	c.chart.removeClass(c)
	return nil
}

func (c *Class) dropEdge(e Edge) {
	c.edges = slices.DeleteFunc(c.edges, func(other Edge) bool { return other.ID() == e.ID() })
}

func (c *Class) String() string {
	parts := make([]string, len(c.degree))
	for i, d := range c.degree {
		parts[i] = strconv.FormatInt(d, 10)
	}
	if c.idx > 0 {
		parts = append(parts, strconv.Itoa(c.idx))
	}
	return "Class(" + strings.Join(parts, ", ") + ")"
}

// ClassRef addresses a class: either a *Class or a Pos.
type ClassRef interface {
	resolveIn(ch *Chart) (*Class, error)
}

func (c *Class) resolveIn(ch *Chart) (*Class, error) {
	if c.deleted {
		return nil, deletedError("class", c.id)
	}
	if c.chart != ch {
		return nil, newError(ErrCodeNoSuchClass, c.id, "class belongs to another chart")
	}
	return c, nil
}

// Pos addresses a class by degree, optionally followed by its index.
type Pos []int64

func (p Pos) resolveIn(ch *Chart) (*Class, error) {
	return ch.GetClass(p...)
}
