package descriptor

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ScalerRecSize is the encoded size of a ScalerRec.
const ScalerRecSize = 48

// RecFlags are the boolean rendering options of a ScalerRec.
type RecFlags uint32

const (
	// FlagSubpixel enables sub-pixel glyph positioning.
	FlagSubpixel RecFlags = 1 << iota

	// FlagEmbolden requests synthetic bold.
	FlagEmbolden

	// FlagLinearMetrics disables hinting of advances.
	FlagLinearMetrics

	// FlagBaselineSnap snaps the baseline to whole pixels.
	FlagBaselineSnap

	// FlagDeviceIndependent marks strikes rendered for distance-field text.
	FlagDeviceIndependent
)

// Has reports whether all bits of flag are set.
func (f RecFlags) Has(flag RecFlags) bool { return f&flag == flag }

// Hinting is the outline hinting level.
type Hinting uint8

const (
	HintingNone Hinting = iota
	HintingSlight
	HintingNormal
	HintingFull
)

// ScalerRec is the fixed-size record describing how a typeface is scaled
// and rendered. It is stored under TagScalerRec.
type ScalerRec struct {
	// TypefaceID is the id of the typeface in the process that built the
	// descriptor. The remote client rewrites it to its local id.
	TypefaceID uint32

	TextSize  float32
	PreScaleX float32
	PreSkewX  float32

	// Post2x2 is the device matrix, row major: [[sx, kx], [ky, sy]].
	Post2x2 [2][2]float32

	FrameWidth float32
	MiterLimit float32

	// MaskFormat is the glyph.MaskFormat value glyphs are rendered in.
	MaskFormat uint8
	Hinting    Hinting
	StrokeJoin uint8
	StrokeCap  uint8

	Flags RecFlags
}

// DefaultScalerRec returns an unstroked, unskewed A8 rec at the given size.
func DefaultScalerRec(typefaceID uint32, size float32) ScalerRec {
	return ScalerRec{
		TypefaceID: typefaceID,
		TextSize:   size,
		PreScaleX:  1,
		Post2x2:    [2][2]float32{{1, 0}, {0, 1}},
		MiterLimit: 4,
		MaskFormat: 1, // glyph.FormatA8
		Hinting:    HintingNormal,
	}
}

func (r *ScalerRec) encode(b []byte) {
	le := binary.LittleEndian
	le.PutUint32(b[0:], r.TypefaceID)
	le.PutUint32(b[4:], math.Float32bits(r.TextSize))
	le.PutUint32(b[8:], math.Float32bits(r.PreScaleX))
	le.PutUint32(b[12:], math.Float32bits(r.PreSkewX))
	le.PutUint32(b[16:], math.Float32bits(r.Post2x2[0][0]))
	le.PutUint32(b[20:], math.Float32bits(r.Post2x2[0][1]))
	le.PutUint32(b[24:], math.Float32bits(r.Post2x2[1][0]))
	le.PutUint32(b[28:], math.Float32bits(r.Post2x2[1][1]))
	le.PutUint32(b[32:], math.Float32bits(r.FrameWidth))
	le.PutUint32(b[36:], math.Float32bits(r.MiterLimit))
	b[40] = r.MaskFormat
	b[41] = uint8(r.Hinting)
	b[42] = r.StrokeJoin
	b[43] = r.StrokeCap
	le.PutUint32(b[44:], uint32(r.Flags))
}

// EncodeScalerRec returns the ScalerRecSize-byte encoding of r.
func EncodeScalerRec(r ScalerRec) []byte {
	b := make([]byte, ScalerRecSize)
	r.encode(b)
	return b
}

// DecodeScalerRec parses a scaler rec payload.
func DecodeScalerRec(b []byte) (ScalerRec, error) {
	if len(b) != ScalerRecSize {
		return ScalerRec{}, fmt.Errorf("%w: %d bytes", ErrBadScalerRec, len(b))
	}
	le := binary.LittleEndian
	f := func(off int) float32 { return math.Float32frombits(le.Uint32(b[off:])) }
	return ScalerRec{
		TypefaceID: le.Uint32(b[0:]),
		TextSize:   f(4),
		PreScaleX:  f(8),
		PreSkewX:   f(12),
		Post2x2:    [2][2]float32{{f(16), f(20)}, {f(24), f(28)}},
		FrameWidth: f(32),
		MiterLimit: f(36),
		MaskFormat: b[40],
		Hinting:    Hinting(b[41]),
		StrokeJoin: b[42],
		StrokeCap:  b[43],
		Flags:      RecFlags(le.Uint32(b[44:])),
	}, nil
}

// ScalerRec decodes the descriptor's scaler rec entry.
func (d *Descriptor) ScalerRec() (ScalerRec, error) {
	p, ok := d.FindEntry(TagScalerRec)
	if !ok {
		return ScalerRec{}, ErrNoScalerRec
	}
	return DecodeScalerRec(p)
}

// WithTypefaceID returns a copy of d whose scaler rec names typefaceID,
// with the checksum recomputed. d itself is not modified.
func (d *Descriptor) WithTypefaceID(typefaceID uint32) (*Descriptor, error) {
	if _, ok := d.FindEntry(TagScalerRec); !ok {
		return nil, ErrNoScalerRec
	}
	c := d.Copy()
	p, _ := c.FindEntry(TagScalerRec)
	binary.LittleEndian.PutUint32(p[0:4:4], typefaceID)
	binary.LittleEndian.PutUint32(c.data[offChecksum:], checksum(c.data))
	return c, nil
}

// String implements fmt.Stringer.
func (r ScalerRec) String() string {
	return fmt.Sprintf("{typeface=%d size=%g prescale=%g preskew=%g post=%v frame=%g miter=%g format=%d hinting=%d join=%d cap=%d flags=%#x}",
		r.TypefaceID, r.TextSize, r.PreScaleX, r.PreSkewX, r.Post2x2, r.FrameWidth, r.MiterLimit,
		r.MaskFormat, r.Hinting, r.StrokeJoin, r.StrokeCap, uint32(r.Flags))
}
