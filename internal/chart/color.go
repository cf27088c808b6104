package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Color is an RGBA color with an optional registered name.
//
// A Color built with ColorRef is an unresolved reference to a name; the
// owning chart resolves it against its color registry and the CSS names.
type Color struct {
	R, G, B, A uint8
	Name       string
	ref        bool
}

// Common colors.
var (
	Black       = namedCSS("black")
	Blue        = namedCSS("blue")
	Transparent = Color{Name: "transparent"}
)

// RGBA builds a color from channel values, clipping each channel to [0, 255].
func RGBA(r, g, b, a float64) Color {
	return Color{R: clip(r), G: clip(g), B: clip(b), A: clip(a)}
}

func clip(v float64) uint8 {
	return uint8(math.Min(math.Max(math.Trunc(v), 0), 255))
}

// ColorRef refers to a color by name.
func ColorRef(name string) Color {
	return Color{Name: name, ref: true}
}

// IsRef reports whether c is an unresolved name reference.
func (c Color) IsRef() bool {
	return c.ref
}

// ParseColor parses "#rrggbb", "#rrggbbaa", "transparent" or a CSS color
// name. CSS names keep their name.
func ParseColor(s string) (Color, error) {
	if strings.HasPrefix(s, "#") {
		return parseHex(s)
	}
	if s == Transparent.Name {
		return Transparent, nil
	}
	if _, ok := colornames.Map[s]; ok {
		return namedCSS(s), nil
	}
	return Color{}, newError(ErrCodeUnknownColor, "", "unrecognized color %q", s)
}

func parseHex(s string) (Color, error) {
	digits := s[1:]
	if len(digits) != 6 && len(digits) != 8 {
		return Color{}, newError(ErrCodeUnknownColor, "", "hex color %q must have 6 or 8 digits", s)
	}
	if len(digits) == 6 {
		digits += "ff"
	}
	n, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return Color{}, newError(ErrCodeUnknownColor, "", "hex color %q: %v", s, err)
	}
	return Color{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

func namedCSS(name string) Color {
	rgba := colornames.Map[name]
	return Color{R: rgba.R, G: rgba.G, B: rgba.B, A: rgba.A, Name: name}
}

// Hex renders the color as "#rrggbbaa".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// Lerp returns t*c + (1-t)*other channel-wise. The result is unnamed.
func (c Color) Lerp(other Color, t float64) Color {
	mix := func(a, b uint8) float64 { return float64(a)*t + float64(b)*(1-t) }
	return RGBA(mix(c.R, other.R), mix(c.G, other.G), mix(c.B, other.B), mix(c.A, other.A))
}

// WithName returns a copy of c carrying name.
func (c Color) WithName(name string) Color {
	c.Name = name
	c.ref = false
	return c
}

func (c Color) String() string {
	if c.Name != "" {
		return fmt.Sprintf("Color(%q)", c.Name)
	}
	return fmt.Sprintf("Color(%q)", c.Hex())
}
