// Package strike implements the local glyph cache: a Strike holds the
// glyph records rendered for one descriptor, and a Cache maps descriptors
// to strikes under a count and byte budget.
package strike

import (
	"sync"
	"unsafe"

	"github.com/gogpu/glyphsync/descriptor"
	"github.com/gogpu/glyphsync/glyph"
	"github.com/gogpu/glyphsync/internal/arena"
	"github.com/gogpu/glyphsync/scaler"
)

// glyphOverhead approximates the bookkeeping cost of one record.
const glyphOverhead = int(unsafe.Sizeof(glyph.Glyph{})) + 16

// segmentSize approximates the memory cost of one path segment.
const segmentSize = int(unsafe.Sizeof(glyph.Segment{}))

// Pinner keeps a strike alive while someone outside the cache may still
// reference it, such as a remote process holding its handle.
type Pinner interface {
	// CanDelete reports whether the strike may be purged. It may release
	// the underlying resource as a side effect.
	CanDelete() bool

	// AssertValid panics if the pinned resource has been released.
	AssertValid()
}

// Strike caches glyph records for one descriptor.
//
// Records are allocated from an arena and never move, so a *glyph.Glyph
// returned by any method stays valid for the strike's lifetime. Payload
// fields of a record are only modified under the strike's lock.
//
// Strike is safe for concurrent use. The rasterization context is called
// with the lock held.
type Strike struct {
	desc        *descriptor.Descriptor
	fontMetrics glyph.FontMetrics
	pinner      Pinner

	mu      sync.Mutex
	ctx     scaler.Context
	glyphs  map[glyph.PackedID]*glyph.Glyph
	records arena.Slab[glyph.Glyph]
	images  arena.Bytes
	pathMem int
}

// New returns an empty strike for desc. Glyphs missing from the strike are
// computed with ctx.
func New(desc *descriptor.Descriptor, ctx scaler.Context, opts ...Option) *Strike {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if ctx == nil {
		ctx = scaler.Empty()
	}
	s := &Strike{
		desc:   desc.Copy(),
		pinner: o.pinner,
		ctx:    ctx,
		glyphs: make(map[glyph.PackedID]*glyph.Glyph),
	}
	if o.fontMetrics != nil {
		s.fontMetrics = *o.fontMetrics
	} else {
		s.fontMetrics = ctx.FontMetrics()
	}
	return s
}

// Descriptor returns the strike's key.
func (s *Strike) Descriptor() *descriptor.Descriptor { return s.desc }

// FontMetrics returns the font metrics the strike was created with.
func (s *Strike) FontMetrics() glyph.FontMetrics { return s.fontMetrics }

// Pinner returns the strike's pinner, or nil.
func (s *Strike) Pinner() Pinner { return s.pinner }

// VerifyPinned asserts that the pinned resource is still alive.
func (s *Strike) VerifyPinned() {
	if s.pinner != nil {
		s.pinner.AssertValid()
	}
}

// Glyph returns the record for id without computing anything.
func (s *Strike) Glyph(id glyph.PackedID) (*glyph.Glyph, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.glyphs[id]
	return g, ok
}

// Len returns the number of records in the strike.
func (s *Strike) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.glyphs)
}

// Metrics returns records with full metrics for ids, computing missing
// ones.
func (s *Strike) Metrics(ids []glyph.PackedID) []*glyph.Glyph {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*glyph.Glyph, len(ids))
	for i, id := range ids {
		out[i] = s.glyphLocked(id)
	}
	return out
}

// Images returns records for ids with their image decided, rendering
// missing images.
func (s *Strike) Images(ids []glyph.PackedID) []*glyph.Glyph {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*glyph.Glyph, len(ids))
	for i, id := range ids {
		g := s.glyphLocked(id)
		if !g.ImageState().Requested() {
			s.renderImageLocked(g)
		}
		out[i] = g
	}
	return out
}

// Paths returns records for ids with their path decided, extracting
// missing outlines.
func (s *Strike) Paths(ids []glyph.PackedID) []*glyph.Glyph {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*glyph.Glyph, len(ids))
	for i, id := range ids {
		g := s.glyphLocked(id)
		if !g.PathState().Requested() {
			p, hairline := s.ctx.Path(id)
			s.setPathLocked(g, p, hairline)
		}
		out[i] = g
	}
	return out
}

// MergeGlyphAndImage installs metrics and image computed elsewhere. If
// the strike has no record for id, one is created from from. If it has a
// record whose image was never decided and from carries an image
// decision, the metrics and image are copied. An existing image is never
// overwritten. It returns the record and the number of image bytes
// allocated.
func (s *Strike) MergeGlyphAndImage(id glyph.PackedID, from *glyph.Glyph) (*glyph.Glyph, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.glyphs[id]
	if ok && (g.ImageState().Requested() || !from.ImageState().Requested()) {
		return g, 0
	}
	if !ok {
		g = s.newGlyphLocked(id)
	}
	if from.HasFullMetrics() {
		g.SetMetrics(from.Metrics())
	} else {
		m := from.Metrics()
		g.SetAdvance(m.AdvanceX, m.AdvanceY)
	}
	if !from.ImageState().Requested() {
		return g, 0
	}
	var img []byte
	if src := from.Image(); len(src) > 0 {
		img = s.images.Copy(src, g.Metrics().Format.Alignment())
	}
	g.SetImage(img)
	return g, len(img)
}

// MergePath sets the outline of g, a record of this strike. It does
// nothing if g's path was already decided. It returns the approximate
// number of bytes retained.
func (s *Strike) MergePath(g *glyph.Glyph, p *glyph.Path, hairline bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.PathState().Requested() {
		return 0
	}
	return s.setPathLocked(g, p, hairline)
}

// MemoryUsed approximates the bytes retained by the strike.
func (s *Strike) MemoryUsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.images.Used() + s.pathMem + len(s.glyphs)*glyphOverhead
}

func (s *Strike) glyphLocked(id glyph.PackedID) *glyph.Glyph {
	g, ok := s.glyphs[id]
	if !ok {
		g = s.newGlyphLocked(id)
	}
	if !g.HasFullMetrics() {
		g.SetMetrics(s.ctx.Metrics(id))
	}
	return g
}

func (s *Strike) newGlyphLocked(id glyph.PackedID) *glyph.Glyph {
	g := s.records.New()
	*g = *glyph.New(id)
	s.glyphs[id] = g
	return g
}

func (s *Strike) renderImageLocked(g *glyph.Glyph) {
	m := g.Metrics()
	if m.IsEmpty() {
		g.SetImage(nil)
		return
	}
	dst := s.images.Alloc(m.ImageSize(), m.Format.Alignment())
	s.ctx.Image(g.ID(), m, dst)
	g.SetImage(dst)
}

func (s *Strike) setPathLocked(g *glyph.Glyph, p *glyph.Path, hairline bool) int {
	if p != nil {
		p = p.Clone()
	}
	g.SetPath(p, hairline)
	if p == nil {
		return 0
	}
	n := len(p.Segments) * segmentSize
	s.pathMem += n
	return n
}
