package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDescriptor is returned for a strike key that fails validation.
	ErrInvalidDescriptor = errors.New("remote: invalid descriptor")

	// ErrNilTypeface is returned when a strike is requested without a typeface.
	ErrNilTypeface = errors.New("remote: nil typeface")

	// ErrTypefaceSize is returned when a serialized typeface has the wrong length.
	ErrTypefaceSize = errors.New("remote: serialized typeface has wrong size")

	// ErrBadTypeface is returned for a typeface record with impossible values.
	ErrBadTypeface = errors.New("remote: malformed typeface")

	// ErrUnknownTypeface is returned when a strike names a typeface the
	// client never received.
	ErrUnknownTypeface = errors.New("remote: unknown typeface")

	// ErrMissingStrike is returned when font metrics are marked as sent
	// but the client has no strike for the descriptor.
	ErrMissingStrike = errors.New("remote: font metrics sent for unknown strike")

	// ErrBadGlyph is returned for a glyph header with an invalid id or format.
	ErrBadGlyph = errors.New("remote: malformed glyph")
)

// ReadError is returned by Client.ReadDelta for a rejected delta. The
// client state is unchanged.
type ReadError struct {
	Failure ReadFailure
	Err     error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("remote: malformed delta: %v; %v", e.Err, e.Failure)
}

func (e *ReadError) Unwrap() error { return e.Err }
