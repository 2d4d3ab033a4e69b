package glyph

import "errors"

var (
	// ErrBadPath is returned when an encoded path is malformed.
	ErrBadPath = errors.New("glyph: malformed path")

	// ErrPathTooLarge is returned when a path has too many segments to encode.
	ErrPathTooLarge = errors.New("glyph: path too large")
)
