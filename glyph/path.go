package glyph

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Point is a path coordinate in device pixels, y down.
type Point struct {
	X, Y float32
}

// Verb is a path segment operation.
type Verb uint8

const (
	// VerbMove starts a new contour at Points[0].
	VerbMove Verb = iota

	// VerbLine draws a line to Points[0].
	VerbLine

	// VerbQuad draws a quadratic curve through control Points[0] to Points[1].
	VerbQuad

	// VerbCubic draws a cubic curve through controls Points[0], Points[1]
	// to Points[2].
	VerbCubic

	// VerbClose closes the current contour.
	VerbClose
)

// PointCount returns the number of points the verb consumes.
func (v Verb) PointCount() int {
	switch v {
	case VerbMove, VerbLine:
		return 1
	case VerbQuad:
		return 2
	case VerbCubic:
		return 3
	default:
		return 0
	}
}

func (v Verb) String() string {
	switch v {
	case VerbMove:
		return "Move"
	case VerbLine:
		return "Line"
	case VerbQuad:
		return "Quad"
	case VerbCubic:
		return "Cubic"
	case VerbClose:
		return "Close"
	default:
		return "Unknown"
	}
}

// Segment is one path operation. Only the first Verb.PointCount points are
// meaningful.
type Segment struct {
	Verb   Verb
	Points [3]Point
}

// Path is a glyph outline.
type Path struct {
	Segments []Segment
}

// MoveTo starts a new contour.
func (p *Path) MoveTo(x, y float32) {
	p.Segments = append(p.Segments, Segment{Verb: VerbMove, Points: [3]Point{{x, y}}})
}

// LineTo adds a line.
func (p *Path) LineTo(x, y float32) {
	p.Segments = append(p.Segments, Segment{Verb: VerbLine, Points: [3]Point{{x, y}}})
}

// QuadTo adds a quadratic curve.
func (p *Path) QuadTo(cx, cy, x, y float32) {
	p.Segments = append(p.Segments, Segment{Verb: VerbQuad, Points: [3]Point{{cx, cy}, {x, y}}})
}

// CubicTo adds a cubic curve.
func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float32) {
	p.Segments = append(p.Segments, Segment{Verb: VerbCubic, Points: [3]Point{{c1x, c1y}, {c2x, c2y}, {x, y}}})
}

// Close closes the current contour.
func (p *Path) Close() {
	p.Segments = append(p.Segments, Segment{Verb: VerbClose})
}

// IsEmpty reports whether the path has no segments.
func (p *Path) IsEmpty() bool { return p == nil || len(p.Segments) == 0 }

// Bounds returns the control-point bounding box. An empty path has zero
// bounds.
func (p *Path) Bounds() (minX, minY, maxX, maxY float32) {
	first := true
	for _, s := range p.Segments {
		for _, pt := range s.Points[:s.Verb.PointCount()] {
			if first {
				minX, minY, maxX, maxY = pt.X, pt.Y, pt.X, pt.Y
				first = false
				continue
			}
			minX, maxX = min(minX, pt.X), max(maxX, pt.X)
			minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
		}
	}
	return minX, minY, maxX, maxY
}

// Clone returns a deep copy.
func (p *Path) Clone() *Path {
	if p == nil {
		return nil
	}
	c := &Path{Segments: make([]Segment, len(p.Segments))}
	copy(c.Segments, p.Segments)
	return c
}

// Transform returns a copy with every point mapped through the affine
// matrix [sx kx tx; ky sy ty].
func (p *Path) Transform(sx, kx, ky, sy, tx, ty float32) *Path {
	c := p.Clone()
	if c == nil {
		return nil
	}
	for i := range c.Segments {
		s := &c.Segments[i]
		for j := range s.Verb.PointCount() {
			pt := s.Points[j]
			s.Points[j] = Point{
				X: sx*pt.X + kx*pt.Y + tx,
				Y: ky*pt.X + sy*pt.Y + ty,
			}
		}
	}
	return c
}

// Encoded form, little-endian, always a multiple of 4 bytes:
//
//	count:u32 { verb:u32 (x:f32 y:f32)*PointCount }*count

// MarshalBinary encodes the path.
func (p *Path) MarshalBinary() ([]byte, error) {
	return p.AppendBinary(nil)
}

// AppendBinary appends the encoded path to b.
func (p *Path) AppendBinary(b []byte) ([]byte, error) {
	if uint64(len(p.Segments)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d segments", ErrPathTooLarge, len(p.Segments))
	}
	le := binary.LittleEndian
	b = le.AppendUint32(b, uint32(len(p.Segments)))
	for _, s := range p.Segments {
		b = le.AppendUint32(b, uint32(s.Verb))
		for _, pt := range s.Points[:s.Verb.PointCount()] {
			b = le.AppendUint32(b, math.Float32bits(pt.X))
			b = le.AppendUint32(b, math.Float32bits(pt.Y))
		}
	}
	return b, nil
}

// UnmarshalBinary decodes an encoded path. The input is untrusted: every
// verb must be known, every coordinate finite, and the encoding must
// consume b exactly.
func (p *Path) UnmarshalBinary(b []byte) error {
	le := binary.LittleEndian
	if len(b) < 4 {
		return fmt.Errorf("%w: %d bytes", ErrBadPath, len(b))
	}
	count := le.Uint32(b)
	b = b[4:]
	// Every segment takes at least 4 bytes.
	if uint64(count) > uint64(len(b)/4) {
		return fmt.Errorf("%w: %d segments in %d bytes", ErrBadPath, count, len(b))
	}

	segs := make([]Segment, 0, count)
	for range count {
		if len(b) < 4 {
			return fmt.Errorf("%w: truncated verb", ErrBadPath)
		}
		v := le.Uint32(b)
		b = b[4:]
		if v > uint32(VerbClose) {
			return fmt.Errorf("%w: unknown verb %d", ErrBadPath, v)
		}
		s := Segment{Verb: Verb(v)}
		n := s.Verb.PointCount()
		if len(b) < n*8 {
			return fmt.Errorf("%w: truncated points", ErrBadPath)
		}
		for j := range n {
			x := math.Float32frombits(le.Uint32(b[j*8:]))
			y := math.Float32frombits(le.Uint32(b[j*8+4:]))
			if !finite(x) || !finite(y) {
				return fmt.Errorf("%w: non-finite point", ErrBadPath)
			}
			s.Points[j] = Point{x, y}
		}
		b = b[n*8:]
		segs = append(segs, s)
	}
	if len(b) != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrBadPath, len(b))
	}
	p.Segments = segs
	return nil
}

func finite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
