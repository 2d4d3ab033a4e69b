package scaler

import "fmt"

// Slant is the posture of a font.
type Slant uint8

const (
	SlantUpright Slant = iota
	SlantItalic
	SlantOblique
)

// Common weights and widths.
const (
	WeightNormal = 400
	WeightBold   = 700

	WidthCondensed = 3
	WidthNormal    = 5
	WidthExpanded  = 7
)

// FontStyle packs weight, width and slant into one value, the form it takes
// on the wire: weight in bits 0-15, width in bits 16-23, slant in bits 24-31.
type FontStyle int32

// NewFontStyle clamps weight to [0, 1000] and width to [1, 9].
func NewFontStyle(weight, width int, slant Slant) FontStyle {
	weight = min(max(weight, 0), 1000)
	width = min(max(width, 1), 9)
	return FontStyle(int32(weight) | int32(width)<<16 | int32(slant)<<24)
}

// NormalStyle is upright, normal weight and width.
var NormalStyle = NewFontStyle(WeightNormal, WidthNormal, SlantUpright)

func (s FontStyle) Weight() int  { return int(s & 0xffff) }
func (s FontStyle) Width() int   { return int(s >> 16 & 0xff) }
func (s FontStyle) Slant() Slant { return Slant(s >> 24 & 0xff) }

func (s FontStyle) String() string {
	slant := [...]string{"upright", "italic", "oblique"}
	name := "unknown"
	if int(s.Slant()) < len(slant) {
		name = slant[s.Slant()]
	}
	return fmt.Sprintf("style(weight=%d width=%d %s)", s.Weight(), s.Width(), name)
}
