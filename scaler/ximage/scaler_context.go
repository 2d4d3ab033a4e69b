package ximage

import (
	"image"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/gogpu/glyphsync/descriptor"
	"github.com/gogpu/glyphsync/glyph"
)

// scalerContext renders glyphs of one typeface under one scaler rec. Device
// space is y-down with the pen at the origin.
type scalerContext struct {
	tf      *Typeface
	format  glyph.MaskFormat
	ppem    fixed.Int26_6
	hinting font.Hinting
	buf     sfnt.Buffer

	// Outline to device matrix: the rec's pre-scale and pre-skew followed
	// by its post matrix.
	xx, xy, yx, yy float32
}

func newContext(tf *Typeface, rec descriptor.ScalerRec) *scalerContext {
	p := rec.Post2x2
	return &scalerContext{
		tf:      tf,
		format:  glyph.MaskFormat(rec.MaskFormat),
		ppem:    fixed.Int26_6(rec.TextSize * 64),
		hinting: hintingOf(rec),
		xx:      p[0][0] * rec.PreScaleX,
		xy:      p[0][0]*rec.PreSkewX + p[0][1],
		yx:      p[1][0] * rec.PreScaleX,
		yy:      p[1][0]*rec.PreSkewX + p[1][1],
	}
}

func hintingOf(rec descriptor.ScalerRec) font.Hinting {
	if rec.Flags.Has(descriptor.FlagLinearMetrics) {
		return font.HintingNone
	}
	switch rec.Hinting {
	case descriptor.HintingFull:
		return font.HintingFull
	case descriptor.HintingSlight, descriptor.HintingNormal:
		return font.HintingVertical
	default:
		return font.HintingNone
	}
}

func fix(v fixed.Int26_6) float32 { return float32(v) / 64 }

func (c *scalerContext) index(id glyph.PackedID) (sfnt.GlyphIndex, bool) {
	if int(id.ID()) >= c.tf.font.NumGlyphs() {
		return 0, false
	}
	return sfnt.GlyphIndex(id.ID()), true
}

func (c *scalerContext) apply(x, y float32) (float32, float32) {
	return c.xx*x + c.xy*y, c.yx*x + c.yy*y
}

// outline returns the device-space outline of id, or nil if the glyph has
// none.
func (c *scalerContext) outline(id glyph.PackedID) *glyph.Path {
	gi, ok := c.index(id)
	if !ok {
		return nil
	}
	segs, err := c.tf.font.LoadGlyph(&c.buf, gi, c.ppem, nil)
	if err != nil || len(segs) == 0 {
		return nil
	}
	dx, dy := id.SubpixelOffset()
	pt := func(p fixed.Point26_6) (float32, float32) {
		x, y := c.apply(fix(p.X), fix(p.Y))
		return x + dx, y + dy
	}

	p := &glyph.Path{Segments: make([]glyph.Segment, 0, len(segs)+4)}
	for i, s := range segs {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			if i > 0 {
				p.Close()
			}
			p.MoveTo(pt(s.Args[0]))
		case sfnt.SegmentOpLineTo:
			p.LineTo(pt(s.Args[0]))
		case sfnt.SegmentOpQuadTo:
			x1, y1 := pt(s.Args[0])
			x2, y2 := pt(s.Args[1])
			p.QuadTo(x1, y1, x2, y2)
		case sfnt.SegmentOpCubeTo:
			x1, y1 := pt(s.Args[0])
			x2, y2 := pt(s.Args[1])
			x3, y3 := pt(s.Args[2])
			p.CubicTo(x1, y1, x2, y2, x3, y3)
		}
	}
	p.Close()
	return p
}

func (c *scalerContext) Metrics(id glyph.PackedID) glyph.Metrics {
	m := glyph.Metrics{Format: c.format}
	gi, ok := c.index(id)
	if !ok {
		return m
	}
	if adv, err := c.tf.font.GlyphAdvance(&c.buf, gi, c.ppem, c.hinting); err == nil {
		m.AdvanceX, m.AdvanceY = c.apply(fix(adv), 0)
	}
	p := c.outline(id)
	if p == nil {
		return m
	}
	left, top, right, bottom := pixelBounds(p)
	w, h := right-left, bottom-top
	if w <= 0 || h <= 0 || w > math.MaxUint16 || h > math.MaxUint16 ||
		left < math.MinInt16 || left > math.MaxInt16 || top < math.MinInt16 || top > math.MaxInt16 {
		return m
	}
	m.Width, m.Height = uint16(w), uint16(h)
	m.Left, m.Top = int16(left), int16(top)
	return m
}

// pixelBounds returns the whole-pixel box covering p.
func pixelBounds(p *glyph.Path) (left, top, right, bottom int) {
	minX, minY, maxX, maxY := p.Bounds()
	return int(math.Floor(float64(minX))), int(math.Floor(float64(minY))),
		int(math.Ceil(float64(maxX))), int(math.Ceil(float64(maxY)))
}

func (c *scalerContext) Image(id glyph.PackedID, m glyph.Metrics, dst []byte) {
	clear(dst)
	w, h := int(m.Width), int(m.Height)
	if w == 0 || h == 0 || len(dst) < m.ImageSize() {
		return
	}
	p := c.outline(id)
	if p == nil {
		return
	}

	r := vector.NewRasterizer(w, h)
	ox, oy := float32(m.Left), float32(m.Top)
	for _, s := range p.Segments {
		pts := s.Points
		switch s.Verb {
		case glyph.VerbMove:
			r.MoveTo(pts[0].X-ox, pts[0].Y-oy)
		case glyph.VerbLine:
			r.LineTo(pts[0].X-ox, pts[0].Y-oy)
		case glyph.VerbQuad:
			r.QuadTo(pts[0].X-ox, pts[0].Y-oy, pts[1].X-ox, pts[1].Y-oy)
		case glyph.VerbCubic:
			r.CubeTo(pts[0].X-ox, pts[0].Y-oy, pts[1].X-ox, pts[1].Y-oy, pts[2].X-ox, pts[2].Y-oy)
		case glyph.VerbClose:
			r.ClosePath()
		}
	}

	bounds := image.Rect(0, 0, w, h)
	if m.Format == glyph.FormatA8 {
		a := &image.Alpha{Pix: dst[:w*h], Stride: w, Rect: bounds}
		r.Draw(a, bounds, image.Opaque, image.Point{})
		return
	}

	a := image.NewAlpha(bounds)
	r.Draw(a, bounds, image.Opaque, image.Point{})
	if m.Format == glyph.FormatBW {
		packBW(dst, a)
	}
}

// packBW thresholds coverage into one bit per pixel, most significant bit
// first.
func packBW(dst []byte, a *image.Alpha) {
	w, h := a.Rect.Dx(), a.Rect.Dy()
	rowBytes := glyph.FormatBW.RowBytes(w)
	for y := range h {
		row := a.Pix[y*a.Stride : y*a.Stride+w]
		for x, v := range row {
			if v >= 0x80 {
				dst[y*rowBytes+x/8] |= 0x80 >> (x % 8)
			}
		}
	}
}

func (c *scalerContext) Path(id glyph.PackedID) (*glyph.Path, bool) {
	return c.outline(id), false
}

func (c *scalerContext) FontMetrics() glyph.FontMetrics {
	var fm glyph.FontMetrics
	if met, err := c.tf.font.Metrics(&c.buf, c.ppem, c.hinting); err == nil {
		ascent, descent := fix(met.Ascent), fix(met.Descent)
		fm.Ascent = -ascent * c.yy
		fm.Descent = descent * c.yy
		fm.Leading = max(fix(met.Height)-ascent-descent, 0) * c.yy
		fm.XHeight = fix(met.XHeight) * c.yy
		fm.CapHeight = fix(met.CapHeight) * c.yy
	}
	b, err := c.tf.font.Bounds(&c.buf, c.ppem, c.hinting)
	if err != nil {
		fm.Flags |= glyph.BoundsInvalid
		return fm
	}
	fm.Top = fix(b.Min.Y) * c.yy
	fm.Bottom = fix(b.Max.Y) * c.yy
	fm.XMin = fix(b.Min.X) * c.xx
	fm.XMax = fix(b.Max.X) * c.xx
	fm.MaxCharWidth = fm.XMax - fm.XMin
	return fm
}
