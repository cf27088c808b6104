package page

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Notifier receives change notifications from an owned value.
type Notifier interface {
	NeedsUpdate()
}

// Breakpoint is one step of a Property: Value holds from Page until the
// next breakpoint.
type Breakpoint[T any] struct {
	Page  Page
	Value T
}

// Property is a page-varying value.
//
// Property is not safe for concurrent use; it belongs to a single owner.
type Property[T any] struct {
	values    []Breakpoint[T]
	equal     func(a, b T) bool
	owner     Notifier
	normalize func(T) T
}

// New creates a property holding v on every page.
func New[T comparable](v T) *Property[T] {
	return NewFunc(v, func(a, b T) bool { return a == b })
}

// NewFunc creates a property holding v on every page, compared with equal.
func NewFunc[T any](v T, equal func(a, b T) bool) *Property[T] {
	return &Property[T]{
		values: []Breakpoint[T]{{Page: Min, Value: v}},
		equal:  equal,
	}
}

// FromBreakpoints builds a property from a stored breakpoint list.
// The list must start at Min and be strictly increasing; adjacent equal
// values are merged.
func FromBreakpoints[T any](bps []Breakpoint[T], equal func(a, b T) bool) (*Property[T], error) {
	if len(bps) == 0 {
		return nil, fmt.Errorf("%w: no breakpoints", ErrInconsistent)
	}
	if bps[0].Page != Min {
		return nil, fmt.Errorf("%w: first breakpoint at page %s, want %s", ErrInconsistent, bps[0].Page, Min)
	}
	for i := 1; i < len(bps); i++ {
		if bps[i].Page <= bps[i-1].Page {
			return nil, fmt.Errorf("%w: page %s follows page %s", ErrInconsistent, bps[i].Page, bps[i-1].Page)
		}
		if bps[i].Page > Infinity {
			return nil, fmt.Errorf("%w: page %d beyond infinity", ErrInconsistent, bps[i].Page)
		}
	}

	p := &Property[T]{values: slices.Clone(bps), equal: equal}
	p.compact()
	return p, nil
}

// SetOwner installs the notifier told about every effective change.
func (p *Property[T]) SetOwner(owner Notifier) {
	p.owner = owner
}

// SetNormalizer installs a function applied to every value before it is
// stored.
func (p *Property[T]) SetNormalizer(normalize func(T) T) {
	p.normalize = normalize
}

// Normalize applies the installed normalizer to every stored value without
// notifying the owner.
func (p *Property[T]) Normalize() {
	if p.normalize == nil {
		return
	}
	for i := range p.values {
		p.values[i].Value = p.normalize(p.values[i].Value)
	}
	p.compact()
}

// find returns the index of the breakpoint in effect at page and whether a
// breakpoint sits exactly on it.
func (p *Property[T]) find(page Page) (int, bool, error) {
	if page < Min {
		return 0, false, fmt.Errorf("%w: page %d", ErrBeforeDomain, page)
	}
	page = Clamp(page)
	// First breakpoint strictly after page, minus one.
	idx := sort.Search(len(p.values), func(i int) bool {
		return p.values[i].Page > page
	}) - 1
	return idx, p.values[idx].Page == page, nil
}

// Get returns the value in effect on page.
func (p *Property[T]) Get(page Page) (T, error) {
	idx, _, err := p.find(page)
	if err != nil {
		var zero T
		return zero, err
	}
	return p.values[idx].Value, nil
}

// MustGet is Get for pages known to be in the domain.
func (p *Property[T]) MustGet(page Page) T {
	v, err := p.Get(page)
	if err != nil {
		panic(err)
	}
	return v
}

// GetRange returns the value on [start, stop) and fails with
// ErrInconsistent when the value changes inside the range.
func (p *Property[T]) GetRange(start, stop Page) (T, error) {
	var zero T
	stop = Clamp(stop)
	if stop <= start {
		return zero, fmt.Errorf("%w: [%s, %s)", ErrEmptySpan, start, stop)
	}
	first, _, err := p.find(start)
	if err != nil {
		return zero, err
	}
	last, _, err := p.find(stop - 1)
	if err != nil {
		return zero, err
	}
	if first != last {
		return zero, fmt.Errorf("%w: value changes inside [%s, %s)", ErrInconsistent, start, stop)
	}
	return p.values[first].Value, nil
}

// Set stores v from page until the next existing breakpoint.
func (p *Property[T]) Set(page Page, v T) error {
	if page < Min {
		return fmt.Errorf("%w: page %d", ErrBeforeDomain, page)
	}
	before := slices.Clone(p.values)
	p.setSingle(Clamp(page), p.normalized(v))
	p.compact()
	p.notifyIfChanged(before)
	return nil
}

// SetRange stores v on every page of [start, stop). The value in effect at
// stop before the call still holds from stop onward.
func (p *Property[T]) SetRange(start, stop Page, v T) error {
	if start < Min {
		return fmt.Errorf("%w: page %d", ErrBeforeDomain, start)
	}
	stop = Clamp(stop)
	if stop <= start {
		return fmt.Errorf("%w: [%s, %s)", ErrEmptySpan, start, stop)
	}

	before := slices.Clone(p.values)
	tail := p.MustGet(stop)

	startIdx := p.setSingle(start, p.normalized(v))
	endIdx, hitEnd, _ := p.find(stop)
	if !hitEnd && stop < Infinity {
		endIdx = p.setSingle(stop, tail)
	}
	if stop == Infinity {
		endIdx++
	}
	p.values = slices.Delete(p.values, startIdx+1, endIdx)

	p.compact()
	p.notifyIfChanged(before)
	return nil
}

// SetSpan dispatches to Set or SetRange.
func (p *Property[T]) SetSpan(s Span, v T) error {
	if s.Single() {
		return p.Set(s.Start, v)
	}
	return p.SetRange(s.Start, s.Stop, v)
}

// SetAll replaces the whole function with the constant v.
func (p *Property[T]) SetAll(v T) {
	_ = p.SetRange(Min, Infinity, v)
}

// Replace swaps in the breakpoints of other, notifying when the function
// changes.
func (p *Property[T]) Replace(other *Property[T]) {
	before := slices.Clone(p.values)
	p.values = slices.Clone(other.values)
	p.Normalize()
	p.notifyIfChanged(before)
}

// setSingle writes a breakpoint at page and returns its index.
func (p *Property[T]) setSingle(page Page, v T) int {
	idx, hit, _ := p.find(page)
	if hit {
		p.values[idx].Value = v
		return idx
	}
	idx++
	p.values = slices.Insert(p.values, idx, Breakpoint[T]{Page: page, Value: v})
	return idx
}

// compact merges breakpoints that repeat the previous value.
func (p *Property[T]) compact() {
	for i := len(p.values) - 1; i > 0; i-- {
		if p.equal(p.values[i].Value, p.values[i-1].Value) {
			p.values = slices.Delete(p.values, i, i+1)
		}
	}
}

func (p *Property[T]) normalized(v T) T {
	if p.normalize == nil {
		return v
	}
	return p.normalize(v)
}

func (p *Property[T]) notifyIfChanged(before []Breakpoint[T]) {
	if p.owner == nil || p.sameAs(before) {
		return
	}
	p.owner.NeedsUpdate()
}

func (p *Property[T]) sameAs(bps []Breakpoint[T]) bool {
	if len(bps) != len(p.values) {
		return false
	}
	for i := range bps {
		if bps[i].Page != p.values[i].Page || !p.equal(bps[i].Value, p.values[i].Value) {
			return false
		}
	}
	return true
}

// Breakpoints returns a copy of the compacted breakpoint list.
func (p *Property[T]) Breakpoints() []Breakpoint[T] {
	return slices.Clone(p.values)
}

// Len returns the number of breakpoints.
func (p *Property[T]) Len() int {
	return len(p.values)
}

// IsConstant reports whether the property holds one value on every page.
func (p *Property[T]) IsConstant() bool {
	return len(p.values) == 1
}

// Equal reports whether both properties describe the same function.
func (p *Property[T]) Equal(other *Property[T]) bool {
	return p.sameAs(other.values)
}

// Clone returns an unowned copy.
func (p *Property[T]) Clone() *Property[T] {
	return &Property[T]{values: slices.Clone(p.values), equal: p.equal}
}

func (p *Property[T]) String() string {
	parts := make([]string, len(p.values))
	for i, bp := range p.values {
		parts[i] = fmt.Sprintf("%s: %v", bp.Page, bp.Value)
	}
	return "Property{" + strings.Join(parts, ", ") + "}"
}
