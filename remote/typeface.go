package remote

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/glyphsync/descriptor"
	"github.com/gogpu/glyphsync/glyph"
	"github.com/gogpu/glyphsync/scaler"
	"github.com/gogpu/glyphsync/wire"
)

// TypefaceSummarySize is the encoded size of a TypefaceSummary.
const TypefaceSummarySize = 14

// TypefaceSummary is everything a client needs to stand in for a server
// typeface.
type TypefaceSummary struct {
	ID                uint32
	GlyphCount        int32
	Style             scaler.FontStyle
	FixedPitch        bool
	NeedsCurrentColor bool
}

// Summarize captures the summary of tf.
func Summarize(tf scaler.Typeface) TypefaceSummary {
	return TypefaceSummary{
		ID:                tf.ID(),
		GlyphCount:        int32(min(tf.GlyphCount(), int(glyph.MaxID)+1)),
		Style:             tf.Style(),
		FixedPitch:        tf.IsFixedPitch(),
		NeedsCurrentColor: tf.NeedsCurrentColor(),
	}
}

func (s TypefaceSummary) write(w *wire.Writer) {
	wire.Put(w, s.ID)
	wire.Put(w, s.GlyphCount)
	wire.Put(w, int32(s.Style))
	w.WriteBool(s.FixedPitch)
	w.WriteBool(s.NeedsCurrentColor)
}

func readTypefaceSummary(r *wire.Reader) (TypefaceSummary, error) {
	var (
		s   TypefaceSummary
		err error
	)
	if s.ID, err = wire.Get[uint32](r); err != nil {
		return s, err
	}
	if s.GlyphCount, err = wire.Get[int32](r); err != nil {
		return s, err
	}
	style, err := wire.Get[int32](r)
	if err != nil {
		return s, err
	}
	s.Style = scaler.FontStyle(style)
	if s.FixedPitch, err = r.ReadBool(); err != nil {
		return s, err
	}
	if s.NeedsCurrentColor, err = r.ReadBool(); err != nil {
		return s, err
	}
	if s.GlyphCount < 0 {
		return s, fmt.Errorf("%w: glyph count %d", ErrBadTypeface, s.GlyphCount)
	}
	return s, nil
}

// Local ids of proxy typefaces live in the upper half of the id space so
// that they never collide with ids of real typefaces in the same process.
const proxyIDBase = 1 << 31

var lastProxyID atomic.Uint32

func nextProxyID() uint32 {
	return proxyIDBase | lastProxyID.Add(1)&(proxyIDBase-1)
}

// ProxyTypeface stands in on the client for a typeface that lives on the
// server. It can describe itself but never rasterizes: its contexts report
// every request as a cache miss and return empty results.
type ProxyTypeface struct {
	localID uint32
	summary TypefaceSummary
	handles ClientHandleManager
	opts    *options
}

// ID returns the client-local id. It differs from the server's id.
func (p *ProxyTypeface) ID() uint32 { return p.localID }

// ServerID returns the id the server knows the typeface by.
func (p *ProxyTypeface) ServerID() uint32 { return p.summary.ID }

// Summary returns the summary received from the server.
func (p *ProxyTypeface) Summary() TypefaceSummary { return p.summary }

func (p *ProxyTypeface) GlyphCount() int         { return int(p.summary.GlyphCount) }
func (p *ProxyTypeface) Style() scaler.FontStyle { return p.summary.Style }
func (p *ProxyTypeface) IsFixedPitch() bool      { return p.summary.FixedPitch }
func (p *ProxyTypeface) NeedsCurrentColor() bool { return p.summary.NeedsCurrentColor }

// OpenContext returns a context that only reports misses.
func (p *ProxyTypeface) OpenContext(desc *descriptor.Descriptor) (scaler.Context, error) {
	var size float32
	if rec, err := desc.ScalerRec(); err == nil {
		size = rec.TextSize
	}
	return &proxyContext{typeface: p, fontSize: int(size)}, nil
}

// proxyContext answers for glyphs the server never sent. Reaching it means
// the server and client disagree about what was synchronized.
type proxyContext struct {
	typeface *ProxyTypeface
	fontSize int
}

func (c *proxyContext) miss(kind CacheMissKind, id glyph.PackedID) {
	c.typeface.opts.log().Warn("remote: client cache miss",
		"kind", kind, "glyph", id, "typeface", c.typeface.summary.ID, "size", c.fontSize)
	if c.typeface.handles != nil {
		c.typeface.handles.NotifyCacheMiss(kind, c.fontSize)
	}
}

func (c *proxyContext) Metrics(id glyph.PackedID) glyph.Metrics {
	c.miss(MissGlyphMetrics, id)
	return glyph.Metrics{}
}

func (c *proxyContext) Image(id glyph.PackedID, _ glyph.Metrics, _ []byte) {
	c.miss(MissGlyphImage, id)
}

func (c *proxyContext) Path(id glyph.PackedID) (*glyph.Path, bool) {
	c.miss(MissGlyphPath, id)
	return nil, false
}

func (c *proxyContext) FontMetrics() glyph.FontMetrics {
	c.miss(MissFontMetrics, 0)
	return glyph.FontMetrics{}
}
