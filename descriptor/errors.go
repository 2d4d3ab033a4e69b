package descriptor

import (
	"errors"
	"fmt"
)

// Sentinel errors for descriptor package.
var (
	// ErrZeroTag is returned when an entry is added with tag 0.
	ErrZeroTag = errors.New("descriptor: zero tag")

	// ErrMisalignedLength is returned for lengths that are not a multiple of Alignment.
	ErrMisalignedLength = errors.New("descriptor: length not 4-byte aligned")

	// ErrDataLength is returned when entry data does not match the declared length.
	ErrDataLength = errors.New("descriptor: data length does not match entry length")

	// ErrEntryTooLarge is returned when an entry would overflow the 32-bit length field.
	ErrEntryTooLarge = errors.New("descriptor: entry too large")

	// ErrTooShort is returned for buffers smaller than the header.
	ErrTooShort = errors.New("descriptor: buffer shorter than header")

	// ErrMisaligned is returned for buffers whose size is not 4-byte aligned.
	ErrMisaligned = errors.New("descriptor: buffer size not 4-byte aligned")

	// ErrLengthMismatch is returned when the declared length differs from the buffer size.
	ErrLengthMismatch = errors.New("descriptor: declared length does not match buffer")

	// ErrInvalid is returned when the entries do not fit the declared length.
	ErrInvalid = errors.New("descriptor: invalid entry layout")

	// ErrChecksum is returned when the stored checksum does not match the contents.
	ErrChecksum = errors.New("descriptor: checksum mismatch")

	// ErrNoScalerRec is returned when a descriptor has no scaler rec entry.
	ErrNoScalerRec = errors.New("descriptor: missing scaler rec")

	// ErrBadScalerRec is returned when a scaler rec payload has the wrong size.
	ErrBadScalerRec = errors.New("descriptor: malformed scaler rec")
)

// EntryError describes a rejected AddEntry call.
type EntryError struct {
	Tag    Tag
	Length int
	Err    error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("%v (tag %s, length %d)", e.Err, e.Tag, e.Length)
}

func (e *EntryError) Unwrap() error { return e.Err }
