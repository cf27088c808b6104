package chart

import (
	"fmt"
	"slices"

	"github.com/roach88/sseqchart/internal/page"
	"github.com/roach88/sseqchart/internal/signal"
	"github.com/roach88/sseqchart/internal/value"
)

const (
	structlineType   = "ChartStructline"
	differentialType = "ChartDifferential"
	extensionType    = "ChartExtension"
)

// Edge is implemented by *Structline, *Differential and *Extension.
type Edge interface {
	ID() string
	TypeName() string
	Source() *Class
	Target() *Class
	UserData() *signal.Map
	Deleted() bool

	// DrawnOn reports whether the edge is drawn on the display page.
	DrawnOn(p page.Pair) bool

	// Delete removes the edge from the chart and from both endpoints.
	Delete() error

	ReplaceSource(style ClassStyle) error
	ReplaceTarget(style ClassStyle) error

	base() *edge
	encode() (value.Object, error)
	assign(fields value.Object) error
	attach(ch *Chart)
}

// edge holds what every edge kind shares.
type edge struct {
	self     Edge
	chart    *Chart
	id       string
	sourceID string
	targetID string
	source   *Class
	target   *Class
	userData *signal.Map
	deleted  bool
}

func newEdge(self Edge, id, sourceID, targetID string) edge {
	return edge{
		self:     self,
		id:       id,
		sourceID: sourceID,
		targetID: targetID,
		userData: signal.NewMap(nil),
	}
}

func (e *edge) base() *edge { return e }

// ID returns the edge id.
func (e *edge) ID() string { return e.id }

// Source returns the source class.
func (e *edge) Source() *Class { return e.source }

// Target returns the target class.
func (e *edge) Target() *Class { return e.target }

// UserData returns the free-form metadata attached to the edge.
func (e *edge) UserData() *signal.Map { return e.userData }

// Deleted reports whether the edge has been deleted.
func (e *edge) Deleted() bool { return e.deleted }

// NeedsUpdate queues an update message for the edge.
func (e *edge) NeedsUpdate() {
	if e.chart == nil || e.deleted {
		return
	}
	e.chart.queueUpdate(e.self)
}

// ReplaceSource revives the source class with style.
func (e *edge) ReplaceSource(style ClassStyle) error {
	if e.deleted {
		return deletedError("edge", e.id)
	}
	return e.source.Replace(style)
}

// ReplaceTarget revives the target class with style.
func (e *edge) ReplaceTarget(style ClassStyle) error {
	if e.deleted {
		return deletedError("edge", e.id)
	}
	return e.target.Replace(style)
}

// Delete removes the edge from the chart and from both endpoints.
func (e *edge) Delete() error {
	if e.deleted {
		return deletedError("edge", e.id)
	}
	e.chart.removeEdge(e.self)
	return nil
}

func (e *edge) endpointsVisible(p page.Page) bool {
	return e.source.VisibleOn(p) && e.target.VisibleOn(p)
}

func (e *edge) checkLive() error {
	if e.deleted {
		return deletedError("edge", e.id)
	}
	return nil
}

func (e *edge) setUserData(m *signal.Map) {
	e.userData = m
	e.userData.SetParent(e)
}

// Structline is an edge whose every visual attribute varies by page.
type Structline struct {
	edge

	action      *page.Property[string]
	color       *page.Property[Color]
	dashPattern *page.Property[DashPattern]
	lineWidth   *page.Property[float64]
	bend        *page.Property[float64]
	startTip    *page.Property[ArrowTip]
	endTip      *page.Property[ArrowTip]
	visible     *page.Property[bool]
}

func newStructline(id, sourceID, targetID string) *Structline {
	style := DefaultStructlineStyle()
	s := &Structline{
		action:      page.New(style.Action),
		color:       page.New(style.Color),
		dashPattern: page.NewFunc(style.DashPattern, equalDash),
		lineWidth:   page.New(style.LineWidth),
		bend:        page.New(0.0),
		startTip:    page.New(style.StartTip),
		endTip:      page.New(style.EndTip),
		visible:     page.New(true),
	}
	s.edge = newEdge(s, id, sourceID, targetID)
	s.adoptAttributes()
	return s
}

func (s *Structline) adoptAttributes() {
	s.action.SetOwner(s)
	s.color.SetOwner(s)
	s.dashPattern.SetOwner(s)
	s.lineWidth.SetOwner(s)
	s.bend.SetOwner(s)
	s.startTip.SetOwner(s)
	s.endTip.SetOwner(s)
	s.visible.SetOwner(s)
	s.userData.SetParent(s)
}

func (s *Structline) attach(ch *Chart) {
	s.chart = ch
	s.color.SetNormalizer(ch.normalizeColor)
	s.color.Normalize()
}

// TypeName returns the wire type tag.
func (s *Structline) TypeName() string { return structlineType }

func (s *Structline) Action() *page.Property[string]           { return s.action }
func (s *Structline) Color() *page.Property[Color]             { return s.color }
func (s *Structline) DashPattern() *page.Property[DashPattern] { return s.dashPattern }
func (s *Structline) LineWidth() *page.Property[float64]       { return s.lineWidth }
func (s *Structline) Bend() *page.Property[float64]            { return s.bend }
func (s *Structline) StartTip() *page.Property[ArrowTip]       { return s.startTip }
func (s *Structline) EndTip() *page.Property[ArrowTip]         { return s.endTip }
func (s *Structline) Visible() *page.Property[bool]            { return s.visible }

// DrawnOn reports whether s is visible on the page and both endpoints are
// alive and visible there.
func (s *Structline) DrawnOn(p page.Pair) bool {
	if p.Page < page.Min {
		return false
	}
	return s.visible.MustGet(p.Page) && s.endpointsVisible(p.Page)
}

// Style projects the visual attributes of s on page p.
func (s *Structline) Style(p page.Page) (EdgeStyle, error) {
	if p < page.Min {
		return EdgeStyle{}, fmt.Errorf("style: %w: page %d", page.ErrBeforeDomain, p)
	}
	return EdgeStyle{
		Action:      s.action.MustGet(p),
		Color:       s.color.MustGet(p),
		DashPattern: slices.Clone(s.dashPattern.MustGet(p)),
		LineWidth:   s.lineWidth.MustGet(p),
		StartTip:    s.startTip.MustGet(p),
		EndTip:      s.endTip.MustGet(p),
	}, nil
}

// SetStyle applies every attribute of style over span.
func (s *Structline) SetStyle(style EdgeStyle, span page.Span) error {
	if err := s.checkLive(); err != nil {
		return err
	}
	if s.chart != nil {
		resolved, err := s.chart.resolveEdgeStyle(style)
		if err != nil {
			return err
		}
		style = resolved
	}
	return s.applyStyle(style, span)
}

// SetStyleByName applies the registered edge style action over span.
func (s *Structline) SetStyleByName(action string, span page.Span) error {
	style, ok := s.chart.EdgeStyle(action)
	if !ok {
		return newError(ErrCodeUnknownStyle, s.id, "no edge style named %q", action)
	}
	return s.SetStyle(style, span)
}

func (s *Structline) applyStyle(style EdgeStyle, span page.Span) error {
	if err := s.action.SetSpan(span, style.Action); err != nil {
		return fmt.Errorf("set style: %w", err)
	}
	_ = s.color.SetSpan(span, style.Color)
	_ = s.dashPattern.SetSpan(span, style.Clone().DashPattern)
	_ = s.lineWidth.SetSpan(span, style.LineWidth)
	_ = s.startTip.SetSpan(span, style.StartTip)
	_ = s.endTip.SetSpan(span, style.EndTip)
	return nil
}

// singlePage holds the fixed attributes of differentials and extensions.
type singlePage struct {
	edge

	action      string
	color       Color
	dashPattern DashPattern
	lineWidth   float64
	bend        float64
	startTip    ArrowTip
	endTip      ArrowTip
	visible     bool
}

func newSinglePage(style EdgeStyle) singlePage {
	style = style.Clone()
	return singlePage{
		action:      style.Action,
		color:       style.Color,
		dashPattern: style.DashPattern,
		lineWidth:   style.LineWidth,
		startTip:    style.StartTip,
		endTip:      style.EndTip,
		visible:     true,
	}
}

func (s *singlePage) attach(ch *Chart) {
	s.chart = ch
	s.color = ch.normalizeColor(s.color)
}

func (s *singlePage) Action() string           { return s.action }
func (s *singlePage) Color() Color             { return s.color }
func (s *singlePage) DashPattern() DashPattern { return slices.Clone(s.dashPattern) }
func (s *singlePage) LineWidth() float64       { return s.lineWidth }
func (s *singlePage) Bend() float64            { return s.bend }
func (s *singlePage) StartTip() ArrowTip       { return s.startTip }
func (s *singlePage) EndTip() ArrowTip         { return s.endTip }
func (s *singlePage) Visible() bool            { return s.visible }

// setField reports a change made by a setter.
func (s *singlePage) setField(changed bool) error {
	if changed {
		s.NeedsUpdate()
	}
	return nil
}

func (s *singlePage) SetAction(action string) error {
	if err := s.checkLive(); err != nil {
		return err
	}
	old := s.action
	s.action = action
	return s.setField(old != action)
}

// SetColor resolves color names against the owning chart.
func (s *singlePage) SetColor(color Color) error {
	if err := s.checkLive(); err != nil {
		return err
	}
	resolved, err := s.chart.resolveColor(color)
	if err != nil {
		return err
	}
	old := s.color
	s.color = resolved
	return s.setField(old != resolved)
}

func (s *singlePage) SetDashPattern(d DashPattern) error {
	if err := s.checkLive(); err != nil {
		return err
	}
	old := s.dashPattern
	s.dashPattern = slices.Clone(d)
	return s.setField(!old.Equal(d))
}

func (s *singlePage) SetLineWidth(w float64) error {
	if err := s.checkLive(); err != nil {
		return err
	}
	old := s.lineWidth
	s.lineWidth = w
	return s.setField(old != w)
}

func (s *singlePage) SetBend(b float64) error {
	if err := s.checkLive(); err != nil {
		return err
	}
	old := s.bend
	s.bend = b
	return s.setField(old != b)
}

func (s *singlePage) SetStartTip(t ArrowTip) error {
	if err := s.checkLive(); err != nil {
		return err
	}
	old := s.startTip
	s.startTip = t
	return s.setField(old != t)
}

func (s *singlePage) SetEndTip(t ArrowTip) error {
	if err := s.checkLive(); err != nil {
		return err
	}
	old := s.endTip
	s.endTip = t
	return s.setField(old != t)
}

func (s *singlePage) SetVisible(v bool) error {
	if err := s.checkLive(); err != nil {
		return err
	}
	old := s.visible
	s.visible = v
	return s.setField(old != v)
}

// Style returns the visual attributes.
func (s *singlePage) Style() EdgeStyle {
	return EdgeStyle{
		Action:      s.action,
		Color:       s.color,
		DashPattern: slices.Clone(s.dashPattern),
		LineWidth:   s.lineWidth,
		StartTip:    s.startTip,
		EndTip:      s.endTip,
	}
}

// SetStyle applies every attribute of style.
func (s *singlePage) SetStyle(style EdgeStyle) error {
	if err := s.checkLive(); err != nil {
		return err
	}
	resolved, err := s.chart.resolveEdgeStyle(style)
	if err != nil {
		return err
	}
	changed := !s.Style().Equal(resolved)
	s.applyStyle(resolved)
	return s.setField(changed)
}

// SetStyleByName applies the registered edge style action.
func (s *singlePage) SetStyleByName(action string) error {
	style, ok := s.chart.EdgeStyle(action)
	if !ok {
		return newError(ErrCodeUnknownStyle, s.id, "no edge style named %q", action)
	}
	return s.SetStyle(style)
}

func (s *singlePage) applyStyle(style EdgeStyle) {
	style = style.Clone()
	s.action = style.Action
	s.color = style.Color
	s.dashPattern = style.DashPattern
	s.lineWidth = style.LineWidth
	s.startTip = style.StartTip
	s.endTip = style.EndTip
}

// Differential is an edge drawn on a single page.
type Differential struct {
	singlePage
	page page.Page
}

func newDifferential(id, sourceID, targetID string, pg page.Page, style EdgeStyle) *Differential {
	d := &Differential{singlePage: newSinglePage(style), page: pg}
	d.edge = newEdge(d, id, sourceID, targetID)
	d.userData.SetParent(d)
	return d
}

// TypeName returns the wire type tag.
func (d *Differential) TypeName() string { return differentialType }

// Page returns the page the differential is drawn on.
func (d *Differential) Page() page.Page { return d.page }

// DrawnOn reports whether p.Page <= page <= p.MaxLen and both endpoints
// are visible on p.Page.
func (d *Differential) DrawnOn(p page.Pair) bool {
	p = p.Clamp()
	return d.visible && p.Page <= d.page && d.page <= p.MaxLen && d.endpointsVisible(p.Page)
}

// Extension is an edge drawn only on the infinite page.
type Extension struct {
	singlePage
}

func newExtension(id, sourceID, targetID string, style EdgeStyle) *Extension {
	x := &Extension{singlePage: newSinglePage(style)}
	x.edge = newEdge(x, id, sourceID, targetID)
	x.userData.SetParent(x)
	return x
}

// TypeName returns the wire type tag.
func (x *Extension) TypeName() string { return extensionType }

// DrawnOn reports whether p is the infinite page and both endpoints
// survive to it.
func (x *Extension) DrawnOn(p page.Pair) bool {
	return x.visible && p.Page.IsInfinite() && x.endpointsVisible(page.Infinity)
}
