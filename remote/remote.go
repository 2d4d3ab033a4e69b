// Package remote keeps glyph caches in two processes in sync.
//
// A Server runs next to text layout. For every strike the layout touches it
// keeps a Shadow that records which glyphs the other process already has,
// and it serializes only what is new into a delta. A Client runs next to
// the rasterizer, validates the delta, and merges it into its local
// strike.Cache so that drawing never has to rasterize.
//
// Delta layout (little-endian, every field padded to its natural alignment,
// 8 for 8-byte fields):
//
//	Delta       := typefaceCount:u64 Typeface*  strikeCount:u64 StrikeEntry*
//	Typeface    := id:u32 glyphCount:i32 style:i32 fixedPitch:u8 currentColor:u8
//	StrikeEntry := typefaceID:u32 handle:u32 descLen:u32 desc[descLen]
//	               metricsSent:u8 [FontMetrics unless metricsSent]
//	               imageCount:u64 (GlyphHeader [image])*
//	               pathCount:u64 (GlyphHeader pathLen:u64 [path hairline:u8])*
//	GlyphHeader := packedID:u32 advanceX:f32 advanceY:f32
//	               width:u16 height:u16 top:i16 left:i16 format:u8
//
// An image follows its header only for non-empty glyphs that fit the atlas.
//
// The server side is not synchronized; callers serialize access to a
// Server, usually by driving it from one goroutine per frame. A Client is
// safe for concurrent use.
package remote

import "fmt"

// HandleID names a discardable handle shared by both processes. It pins a
// strike on the client for as long as the server believes it is cached.
type HandleID uint32

// ServerHandleManager tracks handle liveness on the server side.
type ServerHandleManager interface {
	// CreateHandle returns a new handle, locked.
	CreateHandle() HandleID

	// LockHandle locks id for the current frame. It reports false if the
	// handle has been deleted by the client.
	LockHandle(id HandleID) bool

	// IsHandleDeleted reports whether the client deleted id.
	IsHandleDeleted(id HandleID) bool
}

// ClientHandleManager tracks handle liveness on the client side and
// receives diagnostics.
type ClientHandleManager interface {
	// DeleteHandle deletes id if it is not locked and reports whether it
	// did. A deleted handle's strike may be purged.
	DeleteHandle(id HandleID) bool

	// AssertHandleValid panics if id has been deleted.
	AssertHandleValid(id HandleID)

	// NotifyCacheMiss reports an attempt to rasterize on the client.
	NotifyCacheMiss(kind CacheMissKind, fontSize int)

	// NotifyReadFailure reports a rejected delta.
	NotifyReadFailure(f ReadFailure)
}

// CacheMissKind is what a client tried to compute locally.
type CacheMissKind uint8

const (
	MissFontMetrics CacheMissKind = iota
	MissGlyphMetrics
	MissGlyphImage
	MissGlyphPath
)

func (k CacheMissKind) String() string {
	switch k {
	case MissFontMetrics:
		return "FontMetrics"
	case MissGlyphMetrics:
		return "GlyphMetrics"
	case MissGlyphImage:
		return "GlyphImage"
	case MissGlyphPath:
		return "GlyphPath"
	default:
		return "Unknown"
	}
}

// ReadFailure is the diagnostic bundle for a rejected delta. The counts are
// the number of records of each kind read completely before the failure.
type ReadFailure struct {
	MemorySize       uint64
	BytesRead        uint64
	TypefaceCount    uint64
	StrikeCount      uint64
	GlyphImagesCount uint64
	GlyphPathsCount  uint64
}

func (f ReadFailure) String() string {
	return fmt.Sprintf("read %d of %d bytes (typefaces %d, strikes %d, images %d, paths %d)",
		f.BytesRead, f.MemorySize, f.TypefaceCount, f.StrikeCount, f.GlyphImagesCount, f.GlyphPathsCount)
}
