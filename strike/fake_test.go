package strike

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gogpu/glyphsync/descriptor"
	"github.com/gogpu/glyphsync/glyph"
	"github.com/gogpu/glyphsync/scaler"
)

// fakeContext produces deterministic glyphs: glyph 0 is empty, glyph n is
// an n x n A8 square filled with byte n, and odd glyphs have no outline.
type fakeContext struct {
	metrics atomic.Int32
	images  atomic.Int32
	paths   atomic.Int32
}

func (c *fakeContext) Metrics(id glyph.PackedID) glyph.Metrics {
	c.metrics.Add(1)
	n := uint16(id.ID())
	return glyph.Metrics{AdvanceX: float32(n), Width: n, Height: n, Top: -int16(n), Format: glyph.FormatA8}
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
	p := &glyph.Path{}
	p.MoveTo(0, 0)
	p.LineTo(float32(id.ID()), 0)
	p.Close()
	return p, id.ID() == 2
}

func (c *fakeContext) FontMetrics() glyph.FontMetrics {
	return glyph.FontMetrics{Ascent: -8, Descent: 2}
}

type fakeTypeface struct {
	id  uint32
	ctx *fakeContext
	err error
}

func (f *fakeTypeface) ID() uint32              { return f.id }
func (f *fakeTypeface) GlyphCount() int         { return 256 }
func (f *fakeTypeface) Style() scaler.FontStyle { return scaler.NormalStyle }
func (f *fakeTypeface) IsFixedPitch() bool      { return false }
func (f *fakeTypeface) NeedsCurrentColor() bool { return false }
func (f *fakeTypeface) OpenContext(*descriptor.Descriptor) (scaler.Context, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ctx, nil
}

var errNoContext = errors.New("no context")

// fakePinner refuses deletion until released.
type fakePinner struct {
	released bool
	asserted int
}

func (p *fakePinner) CanDelete() bool { return p.released }
func (p *fakePinner) AssertValid()    { p.asserted++ }

func testDesc(t *testing.T, size float32) *descriptor.Descriptor {
	t.Helper()
	d, err := descriptor.Make(descriptor.DefaultScalerRec(1, size), nil)
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
