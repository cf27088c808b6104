// Package page models the page axis of a spectral sequence chart and the
// page-varying property values that live on it.
//
// A Property is a step function from pages to values stored as a sorted
// list of breakpoints. The first breakpoint is always at Min and defines
// the domain. After every mutation the list is compacted so no two adjacent
// breakpoints carry equal values; equal functions therefore always have
// identical breakpoint lists.
package page

import (
	"errors"
	"fmt"
	"strconv"
)

// Page indexes a snapshot of the chart. Pages at or above Infinity all
// denote the limit page.
type Page int64

const (
	// Min is the first page of every property domain.
	Min Page = 0

	// Infinity is the sentinel for the limit page. It sorts above every
	// finite page.
	Infinity Page = 65535
)

var (
	// ErrBeforeDomain is returned when a page below Min is read or written.
	ErrBeforeDomain = errors.New("page precedes property domain")

	// ErrEmptySpan is returned for a range whose stop does not exceed its start.
	ErrEmptySpan = errors.New("empty page range")

	// ErrInconsistent is returned when a breakpoint list is not a valid
	// step function.
	ErrInconsistent = errors.New("inconsistent breakpoints")
)

// IsInfinite reports whether p denotes the limit page.
func (p Page) IsInfinite() bool {
	return p >= Infinity
}

// String renders finite pages as decimals and the limit page as "inf".
func (p Page) String() string {
	if p.IsInfinite() {
		return "inf"
	}
	return strconv.FormatInt(int64(p), 10)
}

// Clamp maps every page at or above Infinity onto Infinity.
func Clamp(p Page) Page {
	if p > Infinity {
		return Infinity
	}
	return p
}

// Pair is a display page: the page being viewed and the longest
// differential length drawn on it.
type Pair struct {
	Page   Page
	MaxLen Page
}

// Clamp maps both components onto the page domain's upper end.
func (p Pair) Clamp() Pair {
	return Pair{Page: Clamp(p.Page), MaxLen: Clamp(p.MaxLen)}
}

func (p Pair) String() string {
	return fmt.Sprintf("(%s, %s)", p.Page, p.MaxLen)
}

// Span selects the pages a write applies to.
//
// A single-page span written with Set keeps the new value until the next
// existing breakpoint. A range span [Start, Stop) overwrites every page in
// the range and leaves pages from Stop onward unchanged.
type Span struct {
	Start  Page
	Stop   Page
	single bool
}

// At selects one page with "from here until the next change" semantics.
func At(p Page) Span {
	return Span{Start: p, Stop: p, single: true}
}

// Range selects the half-open range [start, stop).
func Range(start, stop Page) Span {
	return Span{Start: start, Stop: stop}
}

// From selects every page from start onward.
func From(start Page) Span {
	return Range(start, Infinity)
}

// All selects the whole domain.
func All() Span {
	return Range(Min, Infinity)
}

// Single reports whether the span was built with At.
func (s Span) Single() bool {
	return s.single
}

func (s Span) String() string {
	if s.single {
		return s.Start.String()
	}
	return fmt.Sprintf("[%s, %s)", s.Start, s.Stop)
}
