// Package scaler defines the rasterization backend a glyph cache consults
// on a miss. The cache only stores and moves the facts a backend produces;
// how glyphs are rasterized is up to the implementation.
package scaler

import (
	"github.com/gogpu/glyphsync/descriptor"
	"github.com/gogpu/glyphsync/glyph"
)

// Typeface is a font a strike can be rendered from.
type Typeface interface {
	// ID identifies the typeface within its process. It is the value
	// stored in descriptor.ScalerRec.TypefaceID.
	ID() uint32

	GlyphCount() int
	Style() FontStyle
	IsFixedPitch() bool

	// NeedsCurrentColor reports whether glyph masks depend on the text
	// color, as with COLR glyphs that use the foreground palette entry.
	NeedsCurrentColor() bool

	// OpenContext returns a rasterization context for desc.
	OpenContext(desc *descriptor.Descriptor) (Context, error)
}

// Context rasterizes glyphs for one descriptor. A Context is used by one
// goroutine at a time; strikes call it with their lock held.
type Context interface {
	// Metrics returns the full metrics of the glyph.
	Metrics(id glyph.PackedID) glyph.Metrics

	// Image renders the glyph into dst, which is exactly m.ImageSize()
	// bytes long and zeroed.
	Image(id glyph.PackedID, m glyph.Metrics, dst []byte)

	// Path returns the glyph outline in device space, or nil if the glyph
	// has none.
	Path(id glyph.PackedID) (path *glyph.Path, hairline bool)

	FontMetrics() glyph.FontMetrics
}

// Empty returns a Context that produces empty glyphs and zero metrics.
// It stands in when a backend cannot open a context for a descriptor.
func Empty() Context { return emptyContext{} }

type emptyContext struct{}

func (emptyContext) Metrics(glyph.PackedID) glyph.Metrics        { return glyph.Metrics{} }
func (emptyContext) Image(glyph.PackedID, glyph.Metrics, []byte) {}
func (emptyContext) Path(glyph.PackedID) (*glyph.Path, bool)     { return nil, false }
func (emptyContext) FontMetrics() glyph.FontMetrics              { return glyph.FontMetrics{} }
