package remote

import (
	"bytes"
	"fmt"

	"github.com/gogpu/glyphsync/descriptor"
	"github.com/gogpu/glyphsync/scaler"
	"github.com/gogpu/glyphsync/wire"
)

// StrikeSpec names a strike on the server: the key and the typeface that
// renders it.
type StrikeSpec struct {
	Descriptor *descriptor.Descriptor
	Typeface   scaler.Typeface
}

// Server tracks what a client has been sent and produces deltas.
//
// Server is not safe for concurrent use.
type Server struct {
	handles ServerHandleManager
	opts    options

	shadows map[string]*Shadow
	toSend  []*Shadow

	typefacesSeen   map[uint32]struct{}
	typefacesToSend []TypefaceSummary
	serialized      map[uint32][]byte
}

// NewServer returns a server that pins strikes through handles.
func NewServer(handles ServerHandleManager, opts ...Option) *Server {
	if handles == nil {
		panic("remote: nil ServerHandleManager")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		handles:       handles,
		opts:          o,
		shadows:       make(map[string]*Shadow),
		typefacesSeen: make(map[uint32]struct{}),
		serialized:    make(map[uint32][]byte),
	}
}

// SerializeTypeface returns the encoded summary of tf. The result is
// memoized by typeface id.
func (s *Server) SerializeTypeface(tf scaler.Typeface) []byte {
	if b, ok := s.serialized[tf.ID()]; ok {
		return bytes.Clone(b)
	}
	w := wire.NewWriter(TypefaceSummarySize)
	Summarize(tf).write(w)
	b := w.Bytes()
	s.serialized[tf.ID()] = b
	return bytes.Clone(b)
}

// FindOrCreateShadow returns the shadow for spec, queuing it for the next
// delta.
//
// A shadow whose handle the client deleted is dropped and replaced by a
// fresh one, so its glyphs will be sent again.
func (s *Server) FindOrCreateShadow(spec StrikeSpec) (*Shadow, error) {
	if !spec.Descriptor.IsValid() {
		return nil, ErrInvalidDescriptor
	}
	if spec.Typeface == nil {
		return nil, ErrNilTypeface
	}
	rec, err := spec.Descriptor.ScalerRec()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}
	if rec.TypefaceID != spec.Typeface.ID() {
		return nil, fmt.Errorf("%w: names typeface %d, not %d", ErrInvalidDescriptor, rec.TypefaceID, spec.Typeface.ID())
	}
	key := spec.Descriptor.Key()
	log := s.opts.log()

	if sh, ok := s.shadows[key]; ok {
		sh.typeface = spec.Typeface
		if sh.queued {
			return sh, nil
		}
		if s.handles.LockHandle(sh.handle) {
			s.enqueue(sh)
			return sh, nil
		}
		log.Debug("remote: dropping shadow with deleted handle", "handle", sh.handle)
		delete(s.shadows, key)
	}

	tf := spec.Typeface
	if _, ok := s.typefacesSeen[tf.ID()]; !ok {
		s.typefacesSeen[tf.ID()] = struct{}{}
		s.typefacesToSend = append(s.typefacesToSend, Summarize(tf))
	}

	sh := newShadow(spec, s.handles.CreateHandle(), &s.opts)
	sh.context()
	s.shadows[key] = sh
	s.enqueue(sh)
	log.Debug("remote: created shadow", "handle", sh.handle, "typeface", tf.ID(), "shadows", len(s.shadows))

	s.evictDeleted()
	return sh, nil
}

func (s *Server) enqueue(sh *Shadow) {
	sh.queued = true
	s.toSend = append(s.toSend, sh)
}

// evictDeleted trims the map back toward its bound by dropping shadows
// whose handles the client deleted. Shadows queued for the next delta are
// kept.
func (s *Server) evictDeleted() {
	for key, sh := range s.shadows {
		if len(s.shadows) <= s.opts.maxEntries {
			return
		}
		if sh.queued || !s.handles.IsHandleDeleted(sh.handle) {
			continue
		}
		s.opts.log().Debug("remote: evicted shadow", "handle", sh.handle)
		delete(s.shadows, key)
	}
}

// MapLen returns the number of shadows the server tracks.
func (s *Server) MapLen() int { return len(s.shadows) }

// WriteDelta appends everything queued since the last call to w and
// reports whether it wrote anything. Shadows with nothing to send drop
// their backend contexts instead.
//
// Alignment is relative to the start of w, so the client must read the
// delta from a buffer that starts where w started.
func (s *Server) WriteDelta(w *wire.Writer) bool {
	defer s.clearQueue()

	strikes := 0
	for _, sh := range s.toSend {
		if sh.HasPendingGlyphs() {
			strikes++
		} else {
			sh.ResetScalerContext()
		}
	}
	if strikes == 0 && len(s.typefacesToSend) == 0 {
		return false
	}

	start := w.Len()
	wire.Put(w, uint64(len(s.typefacesToSend)))
	for _, tf := range s.typefacesToSend {
		tf.write(w)
	}
	s.typefacesToSend = s.typefacesToSend[:0]

	wire.Put(w, uint64(strikes))
	for _, sh := range s.toSend {
		if sh.HasPendingGlyphs() {
			sh.WritePendingGlyphs(w)
			sh.ResetScalerContext()
		}
	}
	s.opts.log().Debug("remote: wrote delta", "bytes", w.Len()-start, "strikes", strikes)
	return true
}

func (s *Server) clearQueue() {
	for _, sh := range s.toSend {
		sh.queued = false
	}
	clear(s.toSend)
	s.toSend = s.toSend[:0]
}
