package chart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sseqchart/internal/page"
	"github.com/roach88/sseqchart/internal/testutil"
)

// recordingAgent keeps every delivered batch.
type recordingAgent struct {
	mu      sync.Mutex
	batches [][]Message
	err     error
	delay   time.Duration
}

func (a *recordingAgent) SendBatch(_ context.Context, batch []Message) error {
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.batches = append(a.batches, batch)
	return nil
}

func (a *recordingAgent) Batches() [][]Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([][]Message(nil), a.batches...)
}

func newTestChart(t *testing.T, opts ...Option) (*Chart, *recordingAgent) {
	t.Helper()
	agent := &recordingAgent{}
	base := []Option{WithIDGenerator(testutil.NewSequentialIDs("")), WithAgent(agent)}
	c, err := New("test", append(base, opts...)...)
	require.NoError(t, err)
	return c, agent
}

func mustClass(t *testing.T, c *Chart, degree ...int64) *Class {
	t.Helper()
	cls, err := c.AddClass(degree...)
	require.NoError(t, err)
	return cls
}

func TestNew_Defaults(t *testing.T) {
	c, _ := newTestChart(t)

	assert.Equal(t, "00000000-0000-7000-8000-000000000001", c.ID())
	assert.Equal(t, "test", c.Name())
	assert.Equal(t, DefaultNumGradings, c.NumGradings())
	assert.Equal(t, []page.Pair{{Page: 2, MaxLen: page.Infinity}, {Page: page.Infinity, MaxLen: page.Infinity}}, c.PageList())
	assert.Equal(t, []int64{1, 0}, c.XProjection())
	assert.Equal(t, []int64{0, 1}, c.YProjection())
	lo, hi := c.XRange()
	assert.Equal(t, [2]int64{0, 10}, [2]int64{lo, hi})
	assert.Equal(t, 0, c.Pending())

	circle, ok := c.Shape("stdcircle")
	require.True(t, ok)
	assert.True(t, circle.Equal(Circle(5).WithName("stdcircle")))
}

func TestNew_NumGradings(t *testing.T) {
	c, _ := newTestChart(t, WithNumGradings(3))
	assert.Equal(t, []int64{1, 0, 0}, c.XProjection())

	_, err := New("bad", WithNumGradings(1))
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeWrongArity))
}

func TestAddClass_IndexWithinDegree(t *testing.T) {
	c, _ := newTestChart(t)

	a := mustClass(t, c, 0, 0)
	b := mustClass(t, c, 0, 0)
	x := mustClass(t, c, 1, 0)

	assert.Equal(t, 0, a.Index())
	assert.Equal(t, 1, b.Index())
	assert.Equal(t, 0, x.Index())
	assert.Equal(t, []*Class{a, b}, c.ClassesInDegree(0, 0))
	assert.Equal(t, []*Class{a, b, x}, c.Classes())

	got, err := c.GetClass(0, 0)
	require.NoError(t, err)
	assert.Same(t, a, got)

	got, err = c.GetClass(0, 0, 1)
	require.NoError(t, err)
	assert.Same(t, b, got)
}

func TestAddClass_Errors(t *testing.T) {
	c, _ := newTestChart(t)
	mustClass(t, c, 0, 0)

	_, err := c.AddClass(1)
	assert.True(t, IsCode(err, ErrCodeWrongArity), "got %v", err)

	_, err = c.GetClass(0)
	assert.True(t, IsCode(err, ErrCodeWrongArity), "got %v", err)

	_, err = c.GetClass(0, 0, 0, 0)
	assert.True(t, IsCode(err, ErrCodeWrongArity), "got %v", err)

	_, err = c.GetClass(0, 0, 1)
	assert.True(t, IsCode(err, ErrCodeNoSuchClass), "got %v", err)

	_, err = c.GetClass(5, 5)
	assert.True(t, IsCode(err, ErrCodeNoSuchClass), "got %v", err)
}

func TestAddClass_DefaultStyleResolved(t *testing.T) {
	c, _ := newTestChart(t)
	cls := mustClass(t, c, 0, 0)

	assert.True(t, cls.Shape().MustGet(0).Equal(Circle(5).WithName("stdcircle")))
	assert.Equal(t, Black, cls.BackgroundColor().MustGet(0))
	assert.Equal(t, 2.0, cls.BorderWidth().MustGet(page.Infinity))
	assert.Equal(t, page.Infinity, cls.MaxPage())
	assert.Same(t, c, cls.Chart())
}

func TestAddStructline_ByPosition(t *testing.T) {
	c, _ := newTestChart(t)
	a := mustClass(t, c, 0, 0)
	b := mustClass(t, c, 1, 1)

	s, err := c.AddStructline(Pos{0, 0}, Pos{1, 1})
	require.NoError(t, err)

	assert.Same(t, a, s.Source())
	assert.Same(t, b, s.Target())
	assert.Equal(t, []Edge{s}, a.Edges())
	assert.Equal(t, []Edge{s}, b.Edges())

	got, ok := c.Edge(s.ID())
	require.True(t, ok)
	assert.Equal(t, Edge(s), got)

	_, err = c.AddStructline(Pos{0, 0}, Pos{7, 7})
	assert.True(t, IsCode(err, ErrCodeNoSuchClass), "got %v", err)
}

func TestAddStructline_SelfLoop(t *testing.T) {
	c, _ := newTestChart(t)
	a := mustClass(t, c, 0, 0)

	s, err := c.AddStructline(a, a)
	require.NoError(t, err)
	assert.Len(t, a.Edges(), 1)

	require.NoError(t, s.Delete())
	assert.Empty(t, a.Edges())
}

func TestAddStructline_ClassFromAnotherChart(t *testing.T) {
	c, _ := newTestChart(t)
	other, _ := newTestChart(t)
	a := mustClass(t, c, 0, 0)
	foreign := mustClass(t, other, 0, 0)

	_, err := c.AddStructline(a, foreign)
	assert.True(t, IsCode(err, ErrCodeNoSuchClass), "got %v", err)
}

func TestAddDifferential_Auto(t *testing.T) {
	c, _ := newTestChart(t)
	src := mustClass(t, c, 1, 0)
	tgt := mustClass(t, c, 0, 3)

	d, err := c.AddDifferential(3, src, tgt, true)
	require.NoError(t, err)

	assert.Equal(t, page.Page(3), d.Page())
	assert.Equal(t, page.Page(3), src.MaxPage())
	assert.Equal(t, page.Page(3), tgt.MaxPage())
	assert.Equal(t, []page.Pair{
		{Page: 2, MaxLen: page.Infinity},
		{Page: 3, MaxLen: 3},
		{Page: page.Infinity, MaxLen: page.Infinity},
	}, c.PageList())

	// A second differential on the same page leaves the list alone.
	src2 := mustClass(t, c, 1, 0)
	tgt2 := mustClass(t, c, 0, 3)
	_, err = c.AddDifferential(3, src2, tgt2, true)
	require.NoError(t, err)
	assert.Len(t, c.PageList(), 3)
}

func TestAddDifferential_Manual(t *testing.T) {
	c, _ := newTestChart(t)
	src := mustClass(t, c, 1, 0)
	tgt := mustClass(t, c, 0, 2)

	d, err := c.AddDifferential(2, src, tgt, false)
	require.NoError(t, err)

	assert.Equal(t, page.Infinity, src.MaxPage())
	assert.Len(t, c.PageList(), 2)
	assert.Equal(t, "blue", d.Color().Name)
	assert.Equal(t, StandardTip, d.EndTip())

	_, err = c.AddDifferential(-1, src, tgt, false)
	assert.True(t, IsCode(err, ErrCodeMalformed), "got %v", err)
}

func TestAddDifferential_BeyondInfinity(t *testing.T) {
	c, _ := newTestChart(t)
	src := mustClass(t, c, 1, 0)
	tgt := mustClass(t, c, 0, 3)

	d, err := c.AddDifferential(page.Infinity+10, src, tgt, true)
	require.NoError(t, err)
	assert.Equal(t, page.Infinity, d.Page())
	assert.Equal(t, page.Infinity, src.MaxPage())

	// (inf, inf) is already listed.
	assert.Equal(t, []page.Pair{
		{Page: 2, MaxLen: page.Infinity},
		{Page: page.Infinity, MaxLen: page.Infinity},
	}, c.PageList())
	assert.False(t, c.AddPageRange(page.Infinity+1, page.Infinity+2))

	assert.True(t, src.VisibleOn(page.Infinity+10))
	assert.True(t, d.DrawnOn(page.Pair{Page: page.Infinity + 10, MaxLen: page.Infinity + 10}))

	doc, err := c.Encode()
	require.NoError(t, err)
	decoded, err := Decode(doc)
	require.NoError(t, err)
	again, err := decoded.Encode()
	require.NoError(t, err)
	assert.Equal(t, string(doc), string(again))
}

func TestSetPageList_ClampsAndDedups(t *testing.T) {
	c, _ := newTestChart(t)
	c.SetPageList([]page.Pair{
		{Page: page.Infinity, MaxLen: page.Infinity},
		{Page: page.Infinity + 3, MaxLen: page.Infinity + 9},
		{Page: 2, MaxLen: page.Infinity + 1},
	})
	assert.Equal(t, []page.Pair{
		{Page: 2, MaxLen: page.Infinity},
		{Page: page.Infinity, MaxLen: page.Infinity},
	}, c.PageList())
}

func TestClassDelete_RenumbersAndCascades(t *testing.T) {
	c, _ := newTestChart(t)
	a := mustClass(t, c, 0, 0)
	b := mustClass(t, c, 0, 0)
	last := mustClass(t, c, 0, 0)
	x := mustClass(t, c, 1, 1)
	s, err := c.AddStructline(b, x)
	require.NoError(t, err)

	require.NoError(t, b.Delete())

	assert.True(t, b.Deleted())
	assert.True(t, s.Deleted())
	assert.Empty(t, x.Edges())
	assert.Equal(t, 0, a.Index())
	assert.Equal(t, 1, last.Index())
	assert.Equal(t, []*Class{a, last}, c.ClassesInDegree(0, 0))

	_, ok := c.Class(b.ID())
	assert.False(t, ok)
	_, ok = c.Edge(s.ID())
	assert.False(t, ok)

	_, err = c.GetClass(0, 0, 2)
	assert.True(t, IsCode(err, ErrCodeNoSuchClass))
}

func TestDeletedEntitiesReject(t *testing.T) {
	c, _ := newTestChart(t)
	a := mustClass(t, c, 0, 0)
	x := mustClass(t, c, 1, 1)
	s, err := c.AddStructline(a, x)
	require.NoError(t, err)
	require.NoError(t, a.Delete())

	assert.True(t, IsCode(a.Delete(), ErrCodeDeleted))
	assert.True(t, IsCode(a.SetMaxPage(3), ErrCodeDeleted))
	assert.True(t, IsCode(s.Delete(), ErrCodeDeleted))

	_, err = c.AddStructline(a, x)
	assert.True(t, IsCode(err, ErrCodeDeleted), "got %v", err)
}

func TestDrawnOn(t *testing.T) {
	c, _ := newTestChart(t)
	src := mustClass(t, c, 1, 0)
	tgt := mustClass(t, c, 0, 3)
	d, err := c.AddDifferential(3, src, tgt, true)
	require.NoError(t, err)
	s, err := c.AddStructline(src, tgt)
	require.NoError(t, err)

	p := mustClass(t, c, 2, 0)
	q := mustClass(t, c, 2, 2)
	x, err := c.AddExtension(p, q)
	require.NoError(t, err)

	inf := page.Pair{Page: page.Infinity, MaxLen: page.Infinity}

	assert.True(t, d.DrawnOn(page.Pair{Page: 2, MaxLen: page.Infinity}))
	assert.True(t, d.DrawnOn(page.Pair{Page: 3, MaxLen: 3}))
	assert.False(t, d.DrawnOn(page.Pair{Page: 2, MaxLen: 2}))
	assert.False(t, d.DrawnOn(page.Pair{Page: 4, MaxLen: page.Infinity}))

	assert.True(t, s.DrawnOn(page.Pair{Page: 3, MaxLen: 3}))
	assert.False(t, s.DrawnOn(inf), "endpoints die on page 3")

	assert.True(t, x.DrawnOn(inf))
	assert.False(t, x.DrawnOn(page.Pair{Page: 2, MaxLen: page.Infinity}))

	require.NoError(t, x.SetVisible(false))
	assert.False(t, x.DrawnOn(inf))
}

func TestProjections(t *testing.T) {
	c, _ := newTestChart(t)
	cls := mustClass(t, c, 2, 3)

	assert.Equal(t, int64(2), cls.X())
	assert.Equal(t, int64(3), cls.Y())

	require.NoError(t, c.SetXProjection([]int64{1, 1}))
	assert.Equal(t, int64(5), cls.X())

	err := c.SetYProjection([]int64{1})
	assert.True(t, IsCode(err, ErrCodeWrongArity))
}

func TestErrorFormat(t *testing.T) {
	err := newError(ErrCodeDeleted, "abc", "class has been deleted")
	assert.Equal(t, "DELETED: class has been deleted (id=abc)", err.Error())

	wrapped := errors.Join(errors.New("context"), err)
	assert.True(t, IsCode(wrapped, ErrCodeDeleted))
	assert.False(t, IsCode(errors.New("plain"), ErrCodeDeleted))
}
