// Package ximage is a rasterization backend built on golang.org/x/image.
//
// Outlines come from x/image/font/sfnt, masks are rendered with
// x/image/vector, and the typeface description (weight, width, slant) comes
// from go-text/typesetting.
package ximage

import (
	"bytes"
	"errors"
	"fmt"

	gtfont "github.com/go-text/typesetting/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/glyphsync/descriptor"
	"github.com/gogpu/glyphsync/glyph"
	"github.com/gogpu/glyphsync/scaler"
)

var (
	// ErrTypefaceMismatch is returned when a descriptor names another typeface.
	ErrTypefaceMismatch = errors.New("ximage: descriptor is for another typeface")

	// ErrUnsupportedFormat is returned for mask formats this backend cannot render.
	ErrUnsupportedFormat = errors.New("ximage: unsupported mask format")

	// ErrTextSize is returned for a text size outside (0, MaxTextSize].
	ErrTextSize = errors.New("ximage: text size out of range")
)

// MaxTextSize is the largest text size a context accepts.
const MaxTextSize = 1 << 14

// Typeface is a parsed OpenType or TrueType font.
//
// Typeface is safe for concurrent use. Contexts opened from it are not.
type Typeface struct {
	id         uint32
	font       *sfnt.Font
	family     string
	style      scaler.FontStyle
	fixedPitch bool
}

var _ scaler.Typeface = (*Typeface)(nil)

// NewTypeface parses font data and assigns it id.
func NewTypeface(id uint32, data []byte) (*Typeface, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("ximage: failed to parse font: %w", err)
	}
	face, err := gtfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ximage: failed to describe font: %w", err)
	}
	desc := face.Describe()
	t := &Typeface{
		id:     id,
		font:   f,
		family: desc.Family,
		style:  styleOf(desc.Aspect),
	}
	t.fixedPitch = t.scanFixedPitch()
	return t, nil
}

// stretches are the upper bounds of the nine width classes, from ultra
// condensed to ultra expanded.
var stretches = [...]gtfont.Stretch{0.5, 0.625, 0.75, 0.875, 1, 1.125, 1.25, 1.5, 2}

// styleOf keeps the weight the font declares (OS/2 usWeightClass), so Go
// Bold reports 600.
func styleOf(a gtfont.Aspect) scaler.FontStyle {
	width := scaler.WidthNormal
	if a.Stretch > 0 {
		width = len(stretches)
		for i, s := range stretches {
			if a.Stretch <= s {
				width = i + 1
				break
			}
		}
	}
	slant := scaler.SlantUpright
	if a.Style == gtfont.StyleItalic {
		slant = scaler.SlantItalic
	}
	weight := int(a.Weight)
	if weight == 0 {
		weight = scaler.WeightNormal
	}
	return scaler.NewFontStyle(weight, width, slant)
}

// scanFixedPitch reports whether every glyph with an advance has the same
// advance.
func (t *Typeface) scanFixedPitch() bool {
	var (
		buf   sfnt.Buffer
		first fixed.Int26_6
	)
	ppem := fixed.I(int(t.font.UnitsPerEm()))
	for i := range t.font.NumGlyphs() {
		adv, err := t.font.GlyphAdvance(&buf, sfnt.GlyphIndex(i), ppem, font.HintingNone)
		if err != nil || adv == 0 {
			continue
		}
		if first == 0 {
			first = adv
		} else if adv != first {
			return false
		}
	}
	return first != 0
}

func (t *Typeface) ID() uint32              { return t.id }
func (t *Typeface) GlyphCount() int         { return t.font.NumGlyphs() }
func (t *Typeface) Style() scaler.FontStyle { return t.style }
func (t *Typeface) IsFixedPitch() bool      { return t.fixedPitch }
func (t *Typeface) NeedsCurrentColor() bool { return false }

// Family returns the family name from the font's name table.
func (t *Typeface) Family() string { return t.family }

// GlyphIDs maps text to glyph ids after NFC normalization. Runes the font
// does not cover map to glyph 0.
func (t *Typeface) GlyphIDs(text string) []glyph.ID {
	var buf sfnt.Buffer
	text = norm.NFC.String(text)
	ids := make([]glyph.ID, 0, len(text))
	for _, r := range text {
		gi, err := t.font.GlyphIndex(&buf, r)
		if err != nil {
			gi = 0
		}
		ids = append(ids, glyph.ID(gi))
	}
	return ids
}

// Descriptor returns a descriptor for drawing this typeface at size in
// the given mask format.
func (t *Typeface) Descriptor(size float32, format glyph.MaskFormat, subpixel bool) (*descriptor.Descriptor, error) {
	rec := descriptor.DefaultScalerRec(t.id, size)
	rec.MaskFormat = uint8(format)
	if subpixel {
		rec.Flags |= descriptor.FlagSubpixel
	}
	return descriptor.Make(rec, nil)
}

// OpenContext returns a context rendering glyphs as described by desc.
func (t *Typeface) OpenContext(desc *descriptor.Descriptor) (scaler.Context, error) {
	rec, err := desc.ScalerRec()
	if err != nil {
		return nil, err
	}
	if rec.TypefaceID != t.id {
		return nil, fmt.Errorf("%w: %d, want %d", ErrTypefaceMismatch, rec.TypefaceID, t.id)
	}
	if !(rec.TextSize > 0 && rec.TextSize <= MaxTextSize) {
		return nil, fmt.Errorf("%w: %v", ErrTextSize, rec.TextSize)
	}
	format := glyph.MaskFormat(rec.MaskFormat)
	if format != glyph.FormatA8 && format != glyph.FormatBW {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	return newContext(t, rec), nil
}
