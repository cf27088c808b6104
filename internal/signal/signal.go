// Package signal provides reactive containers for user-attached metadata.
//
// A Map or List notifies its parent and then its callback after every
// mutation. Values stored in a container that are themselves containers
// are adopted: their parent becomes the enclosing container, so a change
// anywhere in a nested structure reaches the chart entity that owns the
// root.
package signal

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrIndex is returned for list positions outside the list.
	ErrIndex = errors.New("list index out of range")

	// ErrUnencodable is returned when a stored value has no JSON form.
	ErrUnencodable = errors.New("value cannot be encoded")
)

// checkEncodable rejects v before it is stored, so a bad value never
// reaches a flush.
func checkEncodable(v any) error {
	if _, err := Encode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrUnencodable, err)
	}
	return nil
}

// Notifier receives change notifications.
type Notifier interface {
	NeedsUpdate()
}

// adoptable is implemented by values that can be re-parented.
type adoptable interface {
	SetParent(parent Notifier)
}

func adopt(v any, parent Notifier) {
	if child, ok := v.(adoptable); ok {
		child.SetParent(parent)
	}
}

type hooks struct {
	parent   Notifier
	callback func()
}

func (h *hooks) notify() {
	if h.parent != nil {
		h.parent.NeedsUpdate()
	}
	if h.callback != nil {
		h.callback()
	}
}

// Map is a string-keyed reactive container.
type Map struct {
	hooks
	entries map[string]any
}

// NewMap creates a Map holding a copy of entries.
func NewMap(entries map[string]any) *Map {
	m := &Map{entries: make(map[string]any, len(entries))}
	for k, v := range entries {
		adopt(v, m)
		m.entries[k] = v
	}
	return m
}

// SetParent installs the container or entity notified on change.
func (m *Map) SetParent(parent Notifier) { m.parent = parent }

// SetCallback installs a function invoked after the parent on change.
func (m *Map) SetCallback(f func()) { m.callback = f }

// NeedsUpdate propagates a change from an adopted child.
func (m *Map) NeedsUpdate() { m.notify() }

// Get returns the value under key.
func (m *Map) Get(key string) (any, bool) {
	v, ok := m.entries[key]
	return v, ok
}

// Set stores v under key. v must be encodable: nil, a bool, number or
// string, a container, or a []any / map[string]any of those.
func (m *Map) Set(key string, v any) error {
	if err := checkEncodable(v); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	adopt(v, m)
	m.entries[key] = v
	m.notify()
	return nil
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key string) bool {
	if _, ok := m.entries[key]; !ok {
		return false
	}
	delete(m.entries, key)
	m.notify()
	return true
}

// Clear removes every entry.
func (m *Map) Clear() {
	if len(m.entries) == 0 {
		return
	}
	clear(m.entries)
	m.notify()
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.entries) }

// Keys returns the keys in sorted order.
func (m *Map) Keys() []string {
	return slices.Sorted(maps.Keys(m.entries))
}

func (m *Map) String() string {
	parts := make([]string, 0, len(m.entries))
	for _, k := range m.Keys() {
		parts = append(parts, fmt.Sprintf("%s: %v", k, m.entries[k]))
	}
	return "Map{" + strings.Join(parts, ", ") + "}"
}

// List is an ordered reactive container.
type List struct {
	hooks
	items []any
}

// NewList creates a List holding a copy of items.
func NewList(items ...any) *List {
	l := &List{items: make([]any, 0, len(items))}
	for _, v := range items {
		adopt(v, l)
		l.items = append(l.items, v)
	}
	return l
}

// SetParent installs the container or entity notified on change.
func (l *List) SetParent(parent Notifier) { l.parent = parent }

// SetCallback installs a function invoked after the parent on change.
func (l *List) SetCallback(f func()) { l.callback = f }

// NeedsUpdate propagates a change from an adopted child.
func (l *List) NeedsUpdate() { l.notify() }

// At returns the element at index i.
func (l *List) At(i int) (any, error) {
	if i < 0 || i >= len(l.items) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndex, i, len(l.items))
	}
	return l.items[i], nil
}

// Set replaces the element at index i.
func (l *List) Set(i int, v any) error {
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("%w: %d of %d", ErrIndex, i, len(l.items))
	}
	if err := checkEncodable(v); err != nil {
		return fmt.Errorf("set [%d]: %w", i, err)
	}
	adopt(v, l)
	l.items[i] = v
	l.notify()
	return nil
}

// Insert places v before index i. i may equal Len.
func (l *List) Insert(i int, v any) error {
	if i < 0 || i > len(l.items) {
		return fmt.Errorf("%w: %d of %d", ErrIndex, i, len(l.items))
	}
	if err := checkEncodable(v); err != nil {
		return fmt.Errorf("insert [%d]: %w", i, err)
	}
	adopt(v, l)
	l.items = slices.Insert(l.items, i, v)
	l.notify()
	return nil
}

// Append adds v at the end.
func (l *List) Append(v any) error {
	if err := checkEncodable(v); err != nil {
		return fmt.Errorf("append: %w", err)
	}
	adopt(v, l)
	l.items = append(l.items, v)
	l.notify()
	return nil
}

// Delete removes the element at index i.
func (l *List) Delete(i int) error {
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("%w: %d of %d", ErrIndex, i, len(l.items))
	}
	l.items = slices.Delete(l.items, i, i+1)
	l.notify()
	return nil
}

// Len returns the number of elements.
func (l *List) Len() int { return len(l.items) }

// Items returns a copy of the elements.
func (l *List) Items() []any { return slices.Clone(l.items) }

func (l *List) String() string {
	parts := make([]string, len(l.items))
	for i, v := range l.items {
		parts[i] = fmt.Sprint(v)
	}
	return "List[" + strings.Join(parts, ", ") + "]"
}
