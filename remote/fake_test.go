package remote_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gogpu/glyphsync/descriptor"
	"github.com/gogpu/glyphsync/glyph"
	"github.com/gogpu/glyphsync/remote"
	"github.com/gogpu/glyphsync/remote/memhandles"
	"github.com/gogpu/glyphsync/scaler"
	"github.com/gogpu/glyphsync/wire"
)

// Glyph ids with special behaviour in fakeContext.
const (
	sdfFirst   = 64 // [sdfFirst, sdfLast) are SDF glyphs
	sdfLast    = 128
	colorGlyph = 40
	bigGlyph   = 300
)

// fakeContext produces deterministic glyphs: glyph 0 is empty, glyph n is
// an n x n square filled with byte n, odd glyphs have no outline and glyph
// 2 is a hairline.
type fakeContext struct {
	metrics atomic.Int32
	images  atomic.Int32
	paths   atomic.Int32
}

func fakeMetrics(id glyph.PackedID) glyph.Metrics {
	n := uint16(id.ID())
	m := glyph.Metrics{AdvanceX: float32(n), Width: n, Height: n, Top: -int16(n), Format: glyph.FormatA8}
	switch {
	case n == colorGlyph:
		m.Format = glyph.FormatARGB32
	case n >= sdfFirst && n < sdfLast:
		m.Format = glyph.FormatSDF
	}
	return m
}

func (c *fakeContext) Metrics(id glyph.PackedID) glyph.Metrics {
	c.metrics.Add(1)
	return fakeMetrics(id)
}

func (c *fakeContext) Image(id glyph.PackedID, _ glyph.Metrics, dst []byte) {
	c.images.Add(1)
	for i := range dst {
		dst[i] = byte(id.ID())
	}
}

func (c *fakeContext) Path(id glyph.PackedID) (*glyph.Path, bool) {
	c.paths.Add(1)
	if id.ID()%2 == 1 {
		return nil, false
	}
	return squarePath(float32(id.ID())), id.ID() == 2
}

func (c *fakeContext) FontMetrics() glyph.FontMetrics {
	return glyph.FontMetrics{Ascent: -8, Descent: 2, XHeight: 5}
}

func squarePath(n float32) *glyph.Path {
	p := &glyph.Path{}
	p.MoveTo(0, 0)
	p.LineTo(n, 0)
	p.LineTo(n, n)
	p.Close()
	return p
}

type fakeTypeface struct {
	id    uint32
	ctx   *fakeContext
	opens atomic.Int32
}

func newFakeTypeface(id uint32) *fakeTypeface {
	return &fakeTypeface{id: id, ctx: &fakeContext{}}
}

func (f *fakeTypeface) ID() uint32              { return f.id }
func (f *fakeTypeface) GlyphCount() int         { return 512 }
func (f *fakeTypeface) Style() scaler.FontStyle { return scaler.NewFontStyle(scaler.WeightBold, scaler.WidthNormal, scaler.SlantItalic) }
func (f *fakeTypeface) IsFixedPitch() bool      { return true }
func (f *fakeTypeface) NeedsCurrentColor() bool { return false }
func (f *fakeTypeface) OpenContext(*descriptor.Descriptor) (scaler.Context, error) {
	f.opens.Add(1)
	return f.ctx, nil
}

func testDesc(t testing.TB, typefaceID uint32, size float32) *descriptor.Descriptor {
	t.Helper()
	d, err := descriptor.Make(descriptor.DefaultScalerRec(typefaceID, size), nil)
	require.NoError(t, err)
	return d
}

func ids(n ...glyph.ID) []glyph.PackedID {
	out := make([]glyph.PackedID, len(n))
	for i, id := range n {
		out[i] = glyph.NewPackedID(id)
	}
	return out
}

// pair is a server and a client sharing one handle table.
type pair struct {
	handles *memhandles.Manager
	server  *remote.Server
	client  *remote.Client
}

func newPair(opts ...remote.Option) *pair {
	m := memhandles.New()
	return &pair{
		handles: m,
		server:  remote.NewServer(m, opts...),
		client:  remote.NewClient(m, opts...),
	}
}

// delta writes the pending delta and returns its bytes.
func (p *pair) delta(t testing.TB) []byte {
	t.Helper()
	w := wire.NewWriter(0)
	p.server.WriteDelta(w)
	return w.Bytes()
}

// sync writes the pending delta and reads it on the client.
func (p *pair) sync(t testing.TB) []byte {
	t.Helper()
	b := p.delta(t)
	require.NoError(t, p.client.ReadDelta(b))
	return b
}

func (p *pair) shadow(t testing.TB, tf scaler.Typeface, size float32) *remote.Shadow {
	t.Helper()
	sh, err := p.server.FindOrCreateShadow(remote.StrikeSpec{Descriptor: testDesc(t, tf.ID(), size), Typeface: tf})
	require.NoError(t, err)
	return sh
}
