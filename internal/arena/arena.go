// Package arena provides allocators whose allocations never move and are
// released all at once.
//
// A strike keeps glyph records and their image bytes here so that pointers
// handed out under the strike's lock stay valid for the strike's lifetime.
package arena

// minChunk is the smallest chunk the byte arena allocates.
const minChunk = 4 << 10

// Bytes is a bump allocator for byte payloads. Allocations are carved from
// chunks that are never resized, so returned slices never alias later
// allocations and never move.
//
// Bytes is not safe for concurrent use.
type Bytes struct {
	chunks [][]byte
	cur    []byte
	used   int
	total  int
}

// Alloc returns n zeroed bytes whose offset within their chunk is a multiple
// of align. align must be a power of two. Chunks are allocated by make and
// are at least 8-byte aligned, so align up to 8 is honored in memory too.
func (a *Bytes) Alloc(n, align int) []byte {
	if n < 0 || align <= 0 || align&(align-1) != 0 {
		panic("arena: invalid allocation request")
	}
	if n == 0 {
		return []byte{}
	}
	start := (len(a.cur) + align - 1) &^ (align - 1)
	if start+n > cap(a.cur) {
		size := max(minChunk, n, 2*cap(a.cur))
		a.cur = make([]byte, 0, size)
		a.chunks = append(a.chunks, a.cur)
		a.total += size
		start = 0
	}
	a.cur = a.cur[:start+n]
	a.used += n
	return a.cur[start : start+n : start+n]
}

// Copy allocates len(b) bytes, copies b into them, and returns the copy.
func (a *Bytes) Copy(b []byte, align int) []byte {
	dst := a.Alloc(len(b), align)
	copy(dst, b)
	return dst
}

// Used returns the number of bytes handed out.
func (a *Bytes) Used() int { return a.used }

// Reserved returns the number of bytes held in chunks.
func (a *Bytes) Reserved() int { return a.total }

// Reset drops every chunk. Slices returned earlier stay valid for whoever
// still holds them but are no longer owned by the arena.
func (a *Bytes) Reset() {
	a.chunks, a.cur = nil, nil
	a.used, a.total = 0, 0
}

// slabChunk is the number of values per slab chunk.
const slabChunk = 64

// Slab allocates values of one type with stable addresses. Values are
// stored in fixed-capacity chunks that are never appended past their
// capacity, so a pointer returned by New stays valid for the slab's
// lifetime.
//
// Slab is not safe for concurrent use.
type Slab[T any] struct {
	chunks [][]T
	n      int
}

// New returns a pointer to a zero T.
func (s *Slab[T]) New() *T {
	last := len(s.chunks) - 1
	if last < 0 || len(s.chunks[last]) == cap(s.chunks[last]) {
		s.chunks = append(s.chunks, make([]T, 0, slabChunk))
		last++
	}
	s.chunks[last] = s.chunks[last][:len(s.chunks[last])+1]
	s.n++
	return &s.chunks[last][len(s.chunks[last])-1]
}

// Len returns the number of values allocated.
func (s *Slab[T]) Len() int { return s.n }

// Reset forgets every value. Pointers handed out earlier keep their values
// but are no longer owned by the slab.
func (s *Slab[T]) Reset() {
	s.chunks = nil
	s.n = 0
}
