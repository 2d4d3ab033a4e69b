package wire

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/glyphsync/descriptor"
)

// Writer is an append-only byte buffer. The zero value is ready to use.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with capacity bytes preallocated.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Bytes returns the written bytes. The slice aliases the Writer until the
// next write.
func (w *Writer) Bytes() []byte { return w.buf }

// Reset discards the contents, keeping the buffer.
func (w *Writer) Reset() { w.buf = w.buf[:0] }

// Allocate pads to align and appends size zero bytes, returning them for
// in-place filling. The window is only valid until the next write.
func (w *Writer) Allocate(size, align int) []byte {
	checkAlign(align)
	if size < 0 {
		panic("wire: negative allocation")
	}
	old := len(w.buf)
	start := pad(old, align)
	end := start + size
	if end > cap(w.buf) {
		grown := make([]byte, old, max(end, 2*cap(w.buf)))
		copy(grown, w.buf)
		w.buf = grown
	}
	w.buf = w.buf[:end]
	// The buffer may hold bytes from before a Reset.
	clear(w.buf[old:end])
	return w.buf[start:end:end]
}

// Put writes v at its natural alignment.
func Put[T Fixed](w *Writer, v T) {
	b := w.Allocate(sizeOf[T](), alignOf[T]())
	// b is exactly the size of v, so Encode cannot fail.
	_, _ = binary.Encode(b, order, v)
}

// WriteBool writes b as a single byte.
func (w *Writer) WriteBool(b bool) {
	var v uint8
	if b {
		v = 1
	}
	Put(w, v)
}

// WriteBytes writes raw bytes at the given alignment without a length
// prefix.
func (w *Writer) WriteBytes(b []byte, align int) {
	copy(w.Allocate(len(b), align), b)
}

// WriteDescriptor writes the descriptor length as a u32 followed by the
// descriptor bytes at descriptor alignment.
func (w *Writer) WriteDescriptor(d *descriptor.Descriptor) {
	n := d.Length()
	if uint64(n) > math.MaxUint32 {
		panic("wire: descriptor too large")
	}
	Put(w, uint32(n))
	// The window has capacity n, so AppendTo fills it in place.
	d.AppendTo(w.Allocate(n, descriptor.Alignment)[:0])
}
