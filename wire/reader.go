package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/glyphsync/descriptor"
)

// Reader is a forward-only cursor over untrusted bytes.
//
// The only access to the source is through take, which copies the range out
// and advances past it. A failed read leaves the cursor where it was.
type Reader struct {
	src []byte
	off int
}

// NewReader returns a Reader over src. src may be shared memory that is
// concurrently modified; the Reader never reads a byte of it twice.
func NewReader(src []byte) *Reader {
	return &Reader{src: src}
}

// Offset returns the number of bytes consumed, padding included. It never
// exceeds Size.
func (r *Reader) Offset() int { return r.off }

// Size returns the length of the source.
func (r *Reader) Size() int { return len(r.src) }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.src) - r.off }

// take pads to align, copies size bytes into dst (which must be exactly
// size bytes long), and advances.
func (r *Reader) take(dst []byte, align int) error {
	start := pad(r.off, align)
	if start > len(r.src) || len(dst) > len(r.src)-start {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, len(dst), start, len(r.src))
	}
	copy(dst, r.src[start:start+len(dst)])
	r.off = start + len(dst)
	return nil
}

// Get reads a T at its natural alignment.
func Get[T Fixed](r *Reader) (T, error) {
	var (
		v       T
		scratch [8]byte
	)
	b := scratch[:sizeOf[T]()]
	if err := r.take(b, alignOf[T]()); err != nil {
		return v, err
	}
	// b is exactly the size of v, so Decode cannot fail.
	_, _ = binary.Decode(b, order, &v)
	return v, nil
}

// ReadBool reads a single byte that must be 0 or 1.
func (r *Reader) ReadBool() (bool, error) {
	off := r.off
	v, err := Get[uint8](r)
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		r.off = off
		return false, fmt.Errorf("%w: %#x", ErrBadBool, v)
	}
}

// ReadBytes reads n bytes at the given alignment into newly allocated
// memory owned by the caller.
func (r *Reader) ReadBytes(n, align int) ([]byte, error) {
	checkAlign(align)
	if n < 0 || n > r.Remaining() {
		return nil, fmt.Errorf("%w: %d bytes requested, %d remaining", ErrTruncated, n, r.Remaining())
	}
	out := make([]byte, n)
	if err := r.take(out, align); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadDescriptor reads a length-prefixed descriptor and validates it. The
// declared length must cover at least a header, be 4-byte aligned, and fit
// in the remaining input.
func (r *Reader) ReadDescriptor() (*descriptor.Descriptor, error) {
	off := r.off
	n, err := Get[uint32](r)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*descriptor.Descriptor, error) {
		r.off = off
		return nil, err
	}
	if n < descriptor.HeaderSize || n%descriptor.Alignment != 0 {
		return fail(fmt.Errorf("%w: descriptor length %d", ErrBadLength, n))
	}
	b, err := r.ReadBytes(int(n), descriptor.Alignment)
	if err != nil {
		return fail(err)
	}
	d, err := descriptor.FromBytes(b)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrBadDescriptor, err))
	}
	return d, nil
}
