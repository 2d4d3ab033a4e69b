// Package wire implements the alignment-aware binary cursors used to move
// cache deltas between processes.
//
// Values are little-endian. Before a value is written or read, the cursor
// is padded to the value's alignment: 8 for 8-byte types, otherwise the
// type's size. Padding bytes are zero on write and ignored on read.
//
// A Reader treats its source as untrusted memory that another process may
// still be mutating. Every byte range is copied out exactly once and never
// looked at again.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Fixed is the set of fixed-size numeric types carried on the wire.
type Fixed interface {
	~uint8 | ~int8 | ~uint16 | ~int16 | ~uint32 | ~int32 | ~uint64 | ~int64 | ~float32 | ~float64
}

var (
	// ErrTruncated is returned when a read runs past the end of the source.
	ErrTruncated = errors.New("wire: truncated input")

	// ErrBadBool is returned when a boolean byte is neither 0 nor 1.
	ErrBadBool = errors.New("wire: invalid boolean")

	// ErrBadLength is returned for a negative or misaligned length.
	ErrBadLength = errors.New("wire: invalid length")

	// ErrBadDescriptor is returned when an embedded descriptor fails validation.
	ErrBadDescriptor = errors.New("wire: invalid descriptor")
)

var order = binary.LittleEndian

// sizeOf returns the encoded size of T.
func sizeOf[T Fixed]() int {
	var v T
	return binary.Size(v)
}

// alignOf returns the alignment of T on the wire.
func alignOf[T Fixed]() int {
	return sizeOf[T]()
}

// pad rounds n up to a multiple of align, which must be a power of two.
func pad(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

func checkAlign(align int) {
	if align <= 0 || align&(align-1) != 0 {
		panic(fmt.Sprintf("wire: alignment %d is not a power of two", align))
	}
}
