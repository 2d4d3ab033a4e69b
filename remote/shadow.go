package remote

import (
	"github.com/gogpu/glyphsync/descriptor"
	"github.com/gogpu/glyphsync/glyph"
	"github.com/gogpu/glyphsync/internal/arena"
	"github.com/gogpu/glyphsync/scaler"
	"github.com/gogpu/glyphsync/wire"
)

// maskDigest is what a shadow learned about a glyph drawn from an atlas.
type maskDigest struct {
	canMask bool
	canSDF  bool
}

// pathDigest is what a shadow learned about a glyph drawn as an outline.
// maxDimension is only meaningful when the glyph is not drawable.
type pathDigest struct {
	drawable     bool
	maxDimension int
}

// PathReject is a glyph that cannot be drawn as a path. MaxDimension lets
// the caller pick a size at which to draw it another way.
type PathReject struct {
	ID           glyph.PackedID
	MaxDimension int
}

// Shadow is the server's record of one strike on the client: which glyphs
// the client already has, and which are waiting for the next delta.
//
// Every glyph is classified once, the first time it is requested, and
// queued for sending at that moment. Later requests are answered from the
// digest tables alone, so a glyph is sent at most once per shadow.
type Shadow struct {
	desc     *descriptor.Descriptor
	typeface scaler.Typeface
	handle   HandleID
	opts     *options

	// ctx is opened lazily and dropped between deltas.
	ctx             scaler.Context
	sentFontMetrics bool

	// queued is set while the shadow is in the server's send set.
	queued bool

	// fastMask has a bit for every packed id below glyph.PackedFastLimit
	// that is known to be drawable both as a mask and as an SDF.
	fastMask [glyph.PackedFastLimit / 64]uint64
	masks    map[glyph.PackedID]maskDigest
	paths    map[glyph.PackedID]pathDigest

	pending     arena.Slab[glyph.Glyph]
	masksToSend []*glyph.Glyph
	pathsToSend []*glyph.Glyph
	pathScratch []byte
}

func newShadow(spec StrikeSpec, handle HandleID, opts *options) *Shadow {
	return &Shadow{
		desc:     spec.Descriptor.Copy(),
		typeface: spec.Typeface,
		handle:   handle,
		opts:     opts,
		masks:    make(map[glyph.PackedID]maskDigest),
		paths:    make(map[glyph.PackedID]pathDigest),
	}
}

// Descriptor returns the strike key.
func (s *Shadow) Descriptor() *descriptor.Descriptor { return s.desc }

// Handle returns the handle pinning the strike on the client.
func (s *Shadow) Handle() HandleID { return s.handle }

// Typeface returns the typeface glyphs are rasterized with.
func (s *Shadow) Typeface() scaler.Typeface { return s.typeface }

// HasPendingGlyphs reports whether the next delta has anything to say
// about this strike.
func (s *Shadow) HasPendingGlyphs() bool {
	return len(s.masksToSend) > 0 || len(s.pathsToSend) > 0
}

// PrepareForMaskDrawing classifies ids for drawing from a mask atlas and
// returns those that do not fit.
func (s *Shadow) PrepareForMaskDrawing(ids []glyph.PackedID) (rejects []glyph.PackedID) {
	for _, id := range ids {
		if !s.classifyMask(id).canMask {
			rejects = append(rejects, id)
		}
	}
	return rejects
}

// PrepareForSDFTDrawing classifies ids for drawing as signed distance
// fields and returns those that cannot be.
func (s *Shadow) PrepareForSDFTDrawing(ids []glyph.PackedID) (rejects []glyph.PackedID) {
	for _, id := range ids {
		if !s.classifyMask(id).canSDF {
			rejects = append(rejects, id)
		}
	}
	return rejects
}

// PrepareForPathDrawing classifies ids for drawing as outlines. Paths are
// positioned at whole pixels, so the sub-pixel bits of ids are ignored.
// Glyphs without an outline are returned with their size.
func (s *Shadow) PrepareForPathDrawing(ids []glyph.PackedID) (rejects []PathReject) {
	for _, id := range ids {
		d := s.classifyPath(glyph.NewPackedID(id.ID()))
		if !d.drawable {
			rejects = append(rejects, PathReject{ID: id, MaxDimension: d.maxDimension})
		}
	}
	return rejects
}

func (s *Shadow) fastBit(id glyph.PackedID) (word int, bit uint64, ok bool) {
	if id >= glyph.PackedFastLimit {
		return 0, 0, false
	}
	return int(id / 64), 1 << (id % 64), true
}

func (s *Shadow) classifyMask(id glyph.PackedID) maskDigest {
	word, bit, fast := s.fastBit(id)
	if fast && s.fastMask[word]&bit != 0 {
		return maskDigest{canMask: true, canSDF: true}
	}
	if d, ok := s.masks[id]; ok {
		return d
	}

	g := s.newPending(id)
	m := g.Metrics()
	fits := m.FitsInAtlas()
	d := maskDigest{canMask: fits, canSDF: fits && m.Format == glyph.FormatSDF}
	s.masks[id] = d
	if fast && d.canMask && d.canSDF {
		s.fastMask[word] |= bit
	}
	s.masksToSend = append(s.masksToSend, g)
	return d
}

func (s *Shadow) classifyPath(id glyph.PackedID) pathDigest {
	if d, ok := s.paths[id]; ok {
		return d
	}

	g := s.newPending(id)
	d := pathDigest{maxDimension: g.Metrics().MaxDimension()}
	switch {
	case g.IsEmpty():
		g.SetPath(nil, false)
		d.drawable = true
	case g.Metrics().Format == glyph.FormatARGB32:
		// Color glyphs lose their color as outlines.
		g.SetPath(nil, false)
	default:
		p, hairline := s.context().Path(id)
		g.SetPath(p, hairline)
		d.drawable = p != nil
	}
	s.paths[id] = d
	s.pathsToSend = append(s.pathsToSend, g)
	return d
}

// newPending returns a record for id with metrics from the backend.
func (s *Shadow) newPending(id glyph.PackedID) *glyph.Glyph {
	g := s.pending.New()
	*g = *glyph.New(id)
	g.SetMetrics(s.context().Metrics(id))
	return g
}

func (s *Shadow) context() scaler.Context {
	if s.ctx != nil {
		return s.ctx
	}
	ctx, err := s.typeface.OpenContext(s.desc)
	if err != nil {
		s.opts.log().Warn("remote: open scaler context", "typeface", s.typeface.ID(), "err", err)
		ctx = scaler.Empty()
	}
	s.ctx = ctx
	return ctx
}

// ResetScalerContext drops the backend context. The next miss opens a new
// one.
func (s *Shadow) ResetScalerContext() {
	s.ctx = nil
}

// WritePendingGlyphs writes one strike entry with every queued glyph and
// empties the queues.
func (s *Shadow) WritePendingGlyphs(w *wire.Writer) {
	wire.Put(w, s.typeface.ID())
	wire.Put(w, uint32(s.handle))
	w.WriteDescriptor(s.desc)

	w.WriteBool(s.sentFontMetrics)
	if !s.sentFontMetrics {
		writeFontMetrics(w, s.context().FontMetrics())
		s.sentFontMetrics = true
	}

	wire.Put(w, uint64(len(s.masksToSend)))
	for _, g := range s.masksToSend {
		writeGlyphHeader(w, g)
		m := g.Metrics()
		if !m.IsEmpty() && m.FitsInAtlas() {
			dst := w.Allocate(m.ImageSize(), m.Format.Alignment())
			s.context().Image(g.ID(), m, dst)
		}
	}

	wire.Put(w, uint64(len(s.pathsToSend)))
	for _, g := range s.pathsToSend {
		writeGlyphHeader(w, g)
		s.pathScratch = writeGlyphPath(w, g, s.pathScratch)
	}

	clear(s.masksToSend)
	clear(s.pathsToSend)
	s.masksToSend = s.masksToSend[:0]
	s.pathsToSend = s.pathsToSend[:0]
	s.pending.Reset()
	s.pathScratch = s.pathScratch[:0]
}
