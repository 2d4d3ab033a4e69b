package glyph

// MaskFormat is the pixel layout of a glyph image.
type MaskFormat uint8

const (
	// FormatBW is 1 bit per pixel, rows padded to whole bytes.
	FormatBW MaskFormat = iota

	// FormatA8 is 8-bit coverage.
	FormatA8

	// Format3D is three consecutive A8 planes: coverage, multiply, add.
	Format3D

	// FormatARGB32 is premultiplied 32-bit color.
	FormatARGB32

	// FormatLCD16 is 16-bit 565 sub-pixel coverage.
	FormatLCD16

	// FormatSDF is an 8-bit signed distance field.
	FormatSDF

	lastFormat = FormatSDF
)

// Valid reports whether f is a known format. Mask format bytes read from
// the wire must be checked before use.
func (f MaskFormat) Valid() bool { return f <= lastFormat }

// RowBytes returns the number of bytes in one row of width pixels.
func (f MaskFormat) RowBytes(width int) int {
	switch f {
	case FormatBW:
		return (width + 7) / 8
	case FormatARGB32:
		return width * 4
	case FormatLCD16:
		return width * 2
	default:
		return width
	}
}

// ImageSize returns the byte size of a width x height image.
func (f MaskFormat) ImageSize(width, height int) int {
	size := f.RowBytes(width) * height
	if f == Format3D {
		size *= 3
	}
	return size
}

// Alignment returns the byte alignment of one pixel.
func (f MaskFormat) Alignment() int {
	switch f {
	case FormatARGB32:
		return 4
	case FormatLCD16:
		return 2
	default:
		return 1
	}
}

func (f MaskFormat) String() string {
	switch f {
	case FormatBW:
		return "BW"
	case FormatA8:
		return "A8"
	case Format3D:
		return "3D"
	case FormatARGB32:
		return "ARGB32"
	case FormatLCD16:
		return "LCD16"
	case FormatSDF:
		return "SDF"
	default:
		return "Unknown"
	}
}
