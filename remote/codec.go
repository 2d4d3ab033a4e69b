package remote

import (
	"fmt"

	"github.com/gogpu/glyphsync/glyph"
	"github.com/gogpu/glyphsync/wire"
)

func writeGlyphHeader(w *wire.Writer, g *glyph.Glyph) {
	m := g.Metrics()
	wire.Put(w, uint32(g.ID()))
	wire.Put(w, m.AdvanceX)
	wire.Put(w, m.AdvanceY)
	wire.Put(w, m.Width)
	wire.Put(w, m.Height)
	wire.Put(w, m.Top)
	wire.Put(w, m.Left)
	wire.Put(w, uint8(m.Format))
}

// readGlyphHeader reads a header into a detached record that carries only
// identity and metrics.
func readGlyphHeader(r *wire.Reader) (*glyph.Glyph, error) {
	var (
		m   glyph.Metrics
		err error
	)
	id, err := wire.Get[uint32](r)
	if err != nil {
		return nil, err
	}
	if m.AdvanceX, err = wire.Get[float32](r); err != nil {
		return nil, err
	}
	if m.AdvanceY, err = wire.Get[float32](r); err != nil {
		return nil, err
	}
	if m.Width, err = wire.Get[uint16](r); err != nil {
		return nil, err
	}
	if m.Height, err = wire.Get[uint16](r); err != nil {
		return nil, err
	}
	if m.Top, err = wire.Get[int16](r); err != nil {
		return nil, err
	}
	if m.Left, err = wire.Get[int16](r); err != nil {
		return nil, err
	}
	format, err := wire.Get[uint8](r)
	if err != nil {
		return nil, err
	}
	m.Format = glyph.MaskFormat(format)

	packed := glyph.PackedID(id)
	if !packed.Valid() {
		return nil, fmt.Errorf("%w: packed id %#x", ErrBadGlyph, id)
	}
	if !m.Format.Valid() {
		return nil, fmt.Errorf("%w: mask format %d", ErrBadGlyph, format)
	}
	g := glyph.New(packed)
	g.SetMetrics(m)
	return g, nil
}

func writeFontMetrics(w *wire.Writer, m glyph.FontMetrics) {
	wire.Put(w, uint32(m.Flags))
	for _, f := range m.Fields() {
		wire.Put(w, *f)
	}
}

func readFontMetrics(r *wire.Reader) (glyph.FontMetrics, error) {
	var m glyph.FontMetrics
	flags, err := wire.Get[uint32](r)
	if err != nil {
		return m, err
	}
	m.Flags = glyph.FontMetricsFlags(flags)
	for _, f := range m.Fields() {
		if *f, err = wire.Get[float32](r); err != nil {
			return m, err
		}
	}
	return m, nil
}

// writeGlyphPath writes the length-prefixed path of g. Empty glyphs and
// glyphs without an encodable outline are written as a zero length. The
// returned scratch buffer may be reused for the next path.
func writeGlyphPath(w *wire.Writer, g *glyph.Glyph, scratch []byte) []byte {
	p := g.Path()
	if g.IsEmpty() || p == nil {
		wire.Put(w, uint64(0))
		return scratch
	}
	enc, err := p.AppendBinary(scratch[:0])
	if err != nil {
		wire.Put(w, uint64(0))
		return scratch
	}
	scratch = enc
	wire.Put(w, uint64(len(scratch)))
	w.WriteBytes(scratch, 4)
	w.WriteBool(g.Hairline())
	return scratch
}

// readGlyphPath reads what writeGlyphPath wrote. A nil path means the
// server had no outline for the glyph.
func readGlyphPath(r *wire.Reader) (*glyph.Path, bool, error) {
	n, err := wire.Get[uint64](r)
	if err != nil {
		return nil, false, err
	}
	if n == 0 {
		return nil, false, nil
	}
	if n > uint64(r.Remaining()) {
		return nil, false, fmt.Errorf("%w: path of %d bytes", wire.ErrTruncated, n)
	}
	b, err := r.ReadBytes(int(n), 4)
	if err != nil {
		return nil, false, err
	}
	p := new(glyph.Path)
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, false, err
	}
	hairline, err := r.ReadBool()
	if err != nil {
		return nil, false, err
	}
	return p, hairline, nil
}
