// Package glyph defines the per-glyph value cached by a strike: a packed
// identity, metrics, and lazily populated image and outline payloads.
package glyph

import "fmt"

// ID is a glyph index within a typeface. Only the low 24 bits are
// representable in a PackedID.
type ID uint32

// MaxID is the largest glyph id a PackedID can carry.
const MaxID ID = 1<<24 - 1

// SubpixelPositions is the number of quantized sub-pixel positions per axis.
const SubpixelPositions = 4

// Packed id layout, least significant bit first:
//
//	bits 0-1   sub-pixel x
//	bits 2-25  glyph id
//	bits 26-27 sub-pixel y
//
// A glyph with id < 128 and sub-pixel y == 0 therefore packs below
// PackedFastLimit, which is what the shadow bitset indexes.
const (
	subXShift = 0
	idShift   = 2
	subYShift = 26
	subMask   = SubpixelPositions - 1
	idMask    = uint32(MaxID)
	usedBits  = 28

	// PackedFastLimit bounds the packed ids tracked by dense bitsets.
	PackedFastLimit = 128 << idShift
)

// PackedID combines a glyph id with a quantized sub-pixel position.
type PackedID uint32

// NewPackedID returns the packed id of a glyph at sub-pixel position (0, 0).
func NewPackedID(id ID) PackedID {
	return Pack(id, 0, 0)
}

// Pack combines id and sub-pixel positions. Out-of-range components are
// masked to their field width.
func Pack(id ID, subX, subY uint8) PackedID {
	return PackedID(uint32(subX)&subMask<<subXShift |
		uint32(id)&idMask<<idShift |
		uint32(subY)&subMask<<subYShift)
}

// ID returns the glyph id.
func (p PackedID) ID() ID { return ID(uint32(p) >> idShift & idMask) }

// SubX returns the quantized horizontal sub-pixel position.
func (p PackedID) SubX() uint8 { return uint8(uint32(p) >> subXShift & subMask) }

// SubY returns the quantized vertical sub-pixel position.
func (p PackedID) SubY() uint8 { return uint8(uint32(p) >> subYShift & subMask) }

// Valid reports whether no bits outside the defined fields are set.
// Packed ids read from the wire must be checked before use.
func (p PackedID) Valid() bool { return uint32(p)>>usedBits == 0 }

// SubpixelOffset returns the fractional pen offset encoded in p.
// For example sub-pixel x == 1 is 0.25.
func (p PackedID) SubpixelOffset() (dx, dy float32) {
	return float32(p.SubX()) / SubpixelPositions, float32(p.SubY()) / SubpixelPositions
}

func (p PackedID) String() string {
	return fmt.Sprintf("glyph(%d @ %d,%d)", p.ID(), p.SubX(), p.SubY())
}

// AxisAlignment selects which axes carry sub-pixel positions.
type AxisAlignment uint8

const (
	// AxisNone quantizes both axes.
	AxisNone AxisAlignment = iota

	// AxisX quantizes only the horizontal axis. This is the common case for
	// horizontal text.
	AxisX

	// AxisY quantizes only the vertical axis.
	AxisY

	// AxisPixel disables sub-pixel positioning.
	AxisPixel
)

// Quantize splits pos into its floor and a sub-pixel bucket in
// [0, SubpixelPositions).
//
//   - pos=10.0 returns (10, 0)
//   - pos=10.3 returns (10, 1)
//   - pos=-0.25 returns (-1, 3)
func Quantize(pos float64) (intPos int, sub uint8) {
	intPart := int(pos)
	if pos < 0 && pos != float64(intPart) {
		intPart--
	}
	s := int((pos - float64(intPart)) * SubpixelPositions)
	s = min(max(s, 0), SubpixelPositions-1)
	return intPart, uint8(s) //nolint:gosec // s is bounded [0, SubpixelPositions-1]
}

// PackedIDAt returns the packed id for drawing id at pen position (x, y)
// under the given axis alignment.
func PackedIDAt(id ID, x, y float64, axis AxisAlignment) PackedID {
	var subX, subY uint8
	switch axis {
	case AxisNone:
		_, subX = Quantize(x)
		_, subY = Quantize(y)
	case AxisX:
		_, subX = Quantize(x)
	case AxisY:
		_, subY = Quantize(y)
	}
	return Pack(id, subX, subY)
}
