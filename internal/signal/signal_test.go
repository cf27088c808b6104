package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sseqchart/internal/value"
)

type recorder struct {
	events *[]string
	name   string
}

func (r recorder) NeedsUpdate() { *r.events = append(*r.events, r.name) }

func TestMapNotifiesParentThenCallback(t *testing.T) {
	var events []string
	m := NewMap(nil)
	m.SetParent(recorder{events: &events, name: "parent"})
	m.SetCallback(func() { events = append(events, "callback") })

	require.NoError(t, m.Set("a", 1))
	assert.Equal(t, []string{"parent", "callback"}, events)

	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	assert.True(t, m.Delete("a"))
	assert.Len(t, events, 4)

	assert.False(t, m.Delete("a"), "deleting a missing key is not a change")
	assert.Len(t, events, 4)
}

func TestNestedContainersBubble(t *testing.T) {
	var events []string
	root := NewMap(nil)
	root.SetParent(recorder{events: &events, name: "entity"})

	inner := NewList()
	require.NoError(t, root.Set("tags", inner))
	events = nil

	require.NoError(t, inner.Append("x"))
	assert.Equal(t, []string{"entity"}, events, "list change reaches the map's parent")

	deeper := NewMap(map[string]any{"k": "v"})
	require.NoError(t, inner.Insert(0, deeper))
	events = nil

	require.NoError(t, deeper.Set("k", "w"))
	assert.Equal(t, []string{"entity"}, events)
}

func TestListOperations(t *testing.T) {
	calls := 0
	l := NewList("a", "b")
	l.SetCallback(func() { calls++ })

	require.NoError(t, l.Set(1, "c"))
	require.NoError(t, l.Insert(2, "d"))
	require.NoError(t, l.Append("e"))
	require.NoError(t, l.Delete(0))

	assert.Equal(t, []any{"c", "d", "e"}, l.Items())
	assert.Equal(t, 4, calls)

	v, err := l.At(2)
	require.NoError(t, err)
	assert.Equal(t, "e", v)

	_, err = l.At(3)
	require.ErrorIs(t, err, ErrIndex)
	require.ErrorIs(t, l.Set(-1, "x"), ErrIndex)
	require.ErrorIs(t, l.Insert(5, "x"), ErrIndex)
	require.ErrorIs(t, l.Delete(3), ErrIndex)
	assert.Equal(t, 4, calls, "failed mutations do not notify")
}

func TestRejectsUnencodableValues(t *testing.T) {
	calls := 0
	m := NewMap(nil)
	m.SetCallback(func() { calls++ })

	err := m.Set("bad", struct{ X int }{1})
	require.ErrorIs(t, err, ErrUnencodable)
	_, ok := m.Get("bad")
	assert.False(t, ok)

	err = m.Set("nested", map[string]any{"ok": 1, "bad": []any{make(chan int)}})
	require.ErrorIs(t, err, ErrUnencodable)

	l := NewList("a")
	l.SetCallback(func() { calls++ })
	require.ErrorIs(t, l.Append(struct{}{}), ErrUnencodable)
	require.ErrorIs(t, l.Insert(0, struct{}{}), ErrUnencodable)
	require.ErrorIs(t, l.Set(0, struct{}{}), ErrUnencodable)
	assert.Equal(t, []any{"a"}, l.Items())

	assert.Zero(t, calls, "rejected values do not notify")
}

func TestMapKeysSorted(t *testing.T) {
	m := NewMap(map[string]any{"b": 1, "a": 2, "c": 3})
	assert.Equal(t, []string{"a", "b", "c"}, m.Keys())
	assert.Equal(t, "Map{a: 2, b: 1, c: 3}", m.String())

	m.Clear()
	assert.Equal(t, 0, m.Len())
}

func TestEncode(t *testing.T) {
	m := NewMap(map[string]any{
		"n":    3,
		"tags": NewList("x", 1.5),
	})

	enc, err := Encode(m)
	require.NoError(t, err)

	data, err := value.MarshalCanonical(enc)
	require.NoError(t, err)
	assert.Equal(t,
		`{"entries":{"n":3,"tags":{"list":["x",1.5],"type":"SignalList"}},"type":"SignalDict"}`,
		string(data))
}

func TestDecodeRestoresContainers(t *testing.T) {
	m := NewMap(map[string]any{
		"label": "kappa",
		"tags":  NewList("x", int64(2)),
		"plain": map[string]any{"k": true},
	})

	enc, err := Encode(m)
	require.NoError(t, err)

	decoded, err := DecodeMap(enc)
	require.NoError(t, err)

	label, _ := decoded.Get("label")
	assert.Equal(t, "kappa", label)

	tags, _ := decoded.Get("tags")
	list, ok := tags.(*List)
	require.True(t, ok)
	assert.Equal(t, []any{"x", int64(2)}, list.Items())

	plain, _ := decoded.Get("plain")
	assert.Equal(t, map[string]any{"k": true}, plain)

	// Decoded children are adopted by the decoded root.
	var events []string
	decoded.SetParent(recorder{events: &events, name: "root"})
	require.NoError(t, list.Append("y"))
	assert.Equal(t, []string{"root"}, events)
}

func TestDecodeMapRejectsUntagged(t *testing.T) {
	_, err := DecodeMap(value.Object{"entries": value.Object{}})
	require.Error(t, err)

	_, err = Encode(NewMap(map[string]any{"bad": struct{}{}}))
	require.Error(t, err)
}
