package chart

import (
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/roach88/sseqchart/internal/page"
)

// Version is the chart document format version.
const Version = "0.1.0"

// DefaultNumGradings is the dimension of degrees unless configured.
const DefaultNumGradings = 2

const stdCircle = "stdcircle"

// Chart is the aggregate root: it owns every class and edge, the style
// registries, the view settings and the pending message queue.
//
// INVARIANTS:
//   - every entity in classes/edges has chart == this chart
//   - a class appears in exactly one degree bucket, at position == its index
//   - each edge appears in the incident-edge lists of both endpoints
type Chart struct {
	id          string
	name        string
	numGradings int
	ids         IDGenerator
	logger      *slog.Logger

	classes map[string]*Class
	edges   map[string]Edge
	degrees map[string][]*Class

	defaultClassStyle        ClassStyle
	defaultStructlineStyle   EdgeStyle
	defaultDifferentialStyle EdgeStyle
	defaultExtensionStyle    EdgeStyle

	classStyles map[string]ClassStyle
	edgeStyles  map[string]EdgeStyle
	shapes      map[string]Shape
	colors      map[string]Color

	// settingsMu guards the page list and view settings, which a
	// background producer and an asynchronous flush may read or extend.
	settingsMu    sync.Mutex
	pageList      []page.Pair
	xProjection   []int64
	yProjection   []int64
	xRange        [2]int64
	yRange        [2]int64
	initialXRange [2]int64
	initialYRange [2]int64

	queue *messageQueue

	// flushMu guards agent and the delivery chain.
	flushMu   sync.Mutex
	agent     Agent
	lastFlush chan struct{}
}

// Option configures a Chart.
type Option func(*Chart)

// WithNumGradings sets the length of class degrees. Must be at least 2.
func WithNumGradings(n int) Option {
	return func(c *Chart) {
		c.numGradings = n
	}
}

// WithAgent attaches the agent that receives flushed batches.
func WithAgent(a Agent) Option {
	return func(c *Chart) {
		c.agent = a
	}
}

// WithIDGenerator replaces the UUIDv7 id source.
// Use a deterministic generator in tests.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Chart) {
		c.ids = g
	}
}

// WithLogger sets the logger for flush and queue events.
// Default: a logger that discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *Chart) {
		c.logger = l
	}
}

// New creates an empty chart.
func New(name string, opts ...Option) (*Chart, error) {
	c := &Chart{
		name:                     name,
		numGradings:              DefaultNumGradings,
		ids:                      UUIDGenerator{},
		logger:                   slog.New(slog.NewTextHandler(io.Discard, nil)),
		classes:                  make(map[string]*Class),
		edges:                    make(map[string]Edge),
		degrees:                  make(map[string][]*Class),
		defaultClassStyle:        DefaultClassStyle(),
		defaultStructlineStyle:   DefaultStructlineStyle(),
		defaultDifferentialStyle: DefaultDifferentialStyle(),
		defaultExtensionStyle:    DefaultExtensionStyle(),
		classStyles:              make(map[string]ClassStyle),
		edgeStyles:               make(map[string]EdgeStyle),
		shapes:                   make(map[string]Shape),
		colors:                   make(map[string]Color),
		pageList:                 []page.Pair{{Page: 2, MaxLen: page.Infinity}, {Page: page.Infinity, MaxLen: page.Infinity}},
		xRange:                   [2]int64{0, 10},
		yRange:                   [2]int64{0, 10},
		initialXRange:            [2]int64{0, 10},
		initialYRange:            [2]int64{0, 10},
		queue:                    newMessageQueue(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.numGradings < 2 {
		return nil, newError(ErrCodeWrongArity, "", "num_gradings must be at least 2, got %d", c.numGradings)
	}
	c.id = c.ids.NewID()
	c.xProjection = unitVector(c.numGradings, 0)
	c.yProjection = unitVector(c.numGradings, 1)
	c.shapes[stdCircle] = Circle(5).WithName(stdCircle)
	return c, nil
}

func unitVector(n, i int) []int64 {
	v := make([]int64, n)
	v[i] = 1
	return v
}

// ID returns the chart id.
func (c *Chart) ID() string { return c.id }

// Name returns the chart name.
func (c *Chart) Name() string { return c.name }

// NumGradings returns the length of class degrees.
func (c *Chart) NumGradings() int { return c.numGradings }

// Logger returns the chart's logger.
func (c *Chart) Logger() *slog.Logger { return c.logger }

// AddClass creates a class at degree with the next free index there and
// the default class style.
func (c *Chart) AddClass(degree ...int64) (*Class, error) {
	if len(degree) != c.numGradings {
		return nil, newError(ErrCodeWrongArity, "", "degree %v has %d entries, chart has num_gradings %d", degree, len(degree), c.numGradings)
	}
	style, err := c.resolveClassStyle(c.defaultClassStyle)
	if err != nil {
		return nil, err
	}
	cls := newClass(c.ids.NewID(), degree, len(c.degrees[degreeKey(degree)]))
	if err := cls.applyStyle(style, page.All()); err != nil {
		return nil, err
	}
	c.commitClass(cls)
	c.queueCreate(cls)
	return cls, nil
}

// AddStructline connects source and target with a structline in the
// default structline style.
func (c *Chart) AddStructline(source, target ClassRef) (*Structline, error) {
	src, tgt, err := c.resolveEndpoints(source, target)
	if err != nil {
		return nil, err
	}
	style, err := c.resolveEdgeStyle(c.defaultStructlineStyle)
	if err != nil {
		return nil, err
	}
	s := newStructline(c.ids.NewID(), src.id, tgt.id)
	if err := s.applyStyle(style, page.All()); err != nil {
		return nil, err
	}
	if err := c.commitEdge(s); err != nil {
		return nil, err
	}
	c.queueCreate(s)
	return s, nil
}

// AddDifferential adds a differential drawn on page pg. With auto, both
// endpoints die on pg and (pg, pg) joins the page list.
func (c *Chart) AddDifferential(pg page.Page, source, target ClassRef, auto bool) (*Differential, error) {
	if pg < page.Min {
		return nil, newError(ErrCodeMalformed, "", "differential page %d precedes page %d", pg, page.Min)
	}
	pg = page.Clamp(pg)
	src, tgt, err := c.resolveEndpoints(source, target)
	if err != nil {
		return nil, err
	}
	style, err := c.resolveEdgeStyle(c.defaultDifferentialStyle)
	if err != nil {
		return nil, err
	}
	d := newDifferential(c.ids.NewID(), src.id, tgt.id, pg, style)
	if err := c.commitEdge(d); err != nil {
		return nil, err
	}
	c.queueCreate(d)
	if auto {
		_ = src.SetMaxPage(pg)
		_ = tgt.SetMaxPage(pg)
		c.AddPageRange(pg, pg)
	}
	return d, nil
}

// AddExtension adds an extension drawn on the infinite page.
func (c *Chart) AddExtension(source, target ClassRef) (*Extension, error) {
	src, tgt, err := c.resolveEndpoints(source, target)
	if err != nil {
		return nil, err
	}
	style, err := c.resolveEdgeStyle(c.defaultExtensionStyle)
	if err != nil {
		return nil, err
	}
	x := newExtension(c.ids.NewID(), src.id, tgt.id, style)
	if err := c.commitEdge(x); err != nil {
		return nil, err
	}
	c.queueCreate(x)
	return x, nil
}

func (c *Chart) resolveEndpoints(source, target ClassRef) (*Class, *Class, error) {
	src, err := source.resolveIn(c)
	if err != nil {
		return nil, nil, err
	}
	tgt, err := target.resolveIn(c)
	if err != nil {
		return nil, nil, err
	}
	return src, tgt, nil
}

// commitClass registers cls at the end of its degree bucket. The caller
// has already set cls.idx to the bucket length.
func (c *Chart) commitClass(cls *Class) {
	key := degreeKey(cls.degree)
	cls.attach(c)
	c.classes[cls.id] = cls
	c.degrees[key] = append(c.degrees[key], cls)
}

// commitEdge resolves the endpoint ids of e and links it into both
// incident-edge lists. Nothing is modified when an endpoint is missing.
func (c *Chart) commitEdge(e Edge) error {
	b := e.base()
	src, ok := c.classes[b.sourceID]
	if !ok {
		return newError(ErrCodeUnresolvedReference, b.id, "edge source %s is not a class of this chart", b.sourceID)
	}
	tgt, ok := c.classes[b.targetID]
	if !ok {
		return newError(ErrCodeUnresolvedReference, b.id, "edge target %s is not a class of this chart", b.targetID)
	}
	b.source = src
	b.target = tgt
	src.edges = append(src.edges, e)
	if tgt != src {
		tgt.edges = append(tgt.edges, e)
	}
	e.attach(c)
	c.edges[b.id] = e
	return nil
}

// removeClass unlinks cls, queues its delete and renumbers the classes
// after it in its degree bucket.
func (c *Chart) removeClass(cls *Class) {
	key := degreeKey(cls.degree)
	delete(c.classes, cls.id)
	c.queueDelete(cls)
	cls.deleted = true

	bucket := slices.DeleteFunc(c.degrees[key], func(other *Class) bool { return other == cls })
	if len(bucket) == 0 {
		delete(c.degrees, key)
	} else {
		c.degrees[key] = bucket
	}
	for i := cls.idx; i < len(bucket); i++ {
		bucket[i].idx = i
		bucket[i].NeedsUpdate()
	}
}

func (c *Chart) removeEdge(e Edge) {
	b := e.base()
	delete(c.edges, b.id)
	b.source.dropEdge(e)
	b.target.dropEdge(e)
	c.queueDelete(e)
	b.deleted = true
}

// GetClass looks up a class by degree, optionally followed by an index.
// The index defaults to 0.
func (c *Chart) GetClass(coords ...int64) (*Class, error) {
	if len(coords) != c.numGradings && len(coords) != c.numGradings+1 {
		return nil, newError(ErrCodeWrongArity, "",
			"class address %v must have num_gradings = %d or num_gradings + 1 = %d entries",
			coords, c.numGradings, c.numGradings+1)
	}
	degree := coords[:c.numGradings]
	var idx int64
	if len(coords) > c.numGradings {
		idx = coords[c.numGradings]
	}
	bucket := c.degrees[degreeKey(degree)]
	if idx < 0 || idx >= int64(len(bucket)) {
		return nil, newError(ErrCodeNoSuchClass, "", "no class at degree %v with index %d", degree, idx)
	}
	return bucket[idx], nil
}

// ClassesInDegree returns the classes at degree in index order.
func (c *Chart) ClassesInDegree(degree ...int64) []*Class {
	return slices.Clone(c.degrees[degreeKey(degree)])
}

// Class returns the class with the given id.
func (c *Chart) Class(id string) (*Class, bool) {
	cls, ok := c.classes[id]
	return cls, ok
}

// Edge returns the edge with the given id.
func (c *Chart) Edge(id string) (Edge, bool) {
	e, ok := c.edges[id]
	return e, ok
}

// Classes returns every class ordered by degree, then index.
func (c *Chart) Classes() []*Class {
	classes := slices.Collect(maps.Values(c.classes))
	slices.SortFunc(classes, func(a, b *Class) int {
		if d := slices.Compare(a.degree, b.degree); d != 0 {
			return d
		}
		return a.idx - b.idx
	})
	return classes
}

// Edges returns every edge ordered by id.
func (c *Chart) Edges() []Edge {
	edges := slices.Collect(maps.Values(c.edges))
	slices.SortFunc(edges, func(a, b Edge) int { return strings.Compare(a.ID(), b.ID()) })
	return edges
}

func degreeKey(degree []int64) string {
	parts := make([]string, len(degree))
	for i, d := range degree {
		parts[i] = strconv.FormatInt(d, 10)
	}
	return strings.Join(parts, ",")
}
