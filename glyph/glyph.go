package glyph

// AtlasMaxDimension bounds the width and height of glyphs drawn from a mask
// atlas. Larger glyphs are drawn as paths instead.
const AtlasMaxDimension = 256

// Metrics are the layout facts of a glyph in device space.
type Metrics struct {
	AdvanceX float32
	AdvanceY float32

	// Width and Height are the image size in pixels. A glyph with zero
	// width is empty and always has zero height.
	Width  uint16
	Height uint16

	// Top and Left position the image relative to the pen.
	Top  int16
	Left int16

	Format MaskFormat
}

// IsEmpty reports whether the glyph has no pixels.
func (m Metrics) IsEmpty() bool { return m.Width == 0 }

// MaxDimension returns the larger of width and height.
func (m Metrics) MaxDimension() int { return int(max(m.Width, m.Height)) }

// FitsInAtlas reports whether the glyph image may be placed in an atlas.
func (m Metrics) FitsInAtlas() bool { return m.MaxDimension() < AtlasMaxDimension }

// ImageSize returns the byte size of the glyph image.
func (m Metrics) ImageSize() int {
	return m.Format.ImageSize(int(m.Width), int(m.Height))
}

// canonical collapses every empty bounding box to the same value.
func (m Metrics) canonical() Metrics {
	if m.Width == 0 || m.Height == 0 {
		m.Width, m.Height, m.Top, m.Left = 0, 0, 0, 0
	}
	return m
}

// Slot is the population state of an optional glyph payload. A slot moves
// out of NotRequested at most once.
type Slot uint8

const (
	// NotRequested means nobody has asked for the payload yet.
	NotRequested Slot = iota

	// Absent means the payload was requested and does not exist.
	// Empty and oversized glyphs have no image; bitmap glyphs have no path.
	Absent

	// Present means the payload was requested and is stored.
	Present
)

func (s Slot) String() string {
	switch s {
	case NotRequested:
		return "NotRequested"
	case Absent:
		return "Absent"
	case Present:
		return "Present"
	default:
		return "Unknown"
	}
}

// Requested reports whether the payload has been decided.
func (s Slot) Requested() bool { return s != NotRequested }

// Glyph is the cached record for one packed id. Records are owned by a
// strike and never move while it lives. All methods must be called with
// the owning strike's lock held, or on a record no other goroutine can see.
type Glyph struct {
	id      PackedID
	metrics Metrics

	// fullMetrics is false while only the advance is known.
	fullMetrics bool

	imageState Slot
	image      []byte

	pathState Slot
	path      *Path
	hairline  bool
}

// New returns a record for id with no metrics and no payloads.
func New(id PackedID) *Glyph {
	return &Glyph{id: id}
}

// ID returns the packed id of the glyph.
func (g *Glyph) ID() PackedID { return g.id }

// Metrics returns the glyph metrics.
func (g *Glyph) Metrics() Metrics { return g.metrics }

// HasFullMetrics reports whether bounds and format are known in addition
// to the advance.
func (g *Glyph) HasFullMetrics() bool { return g.fullMetrics }

// SetAdvance records only the advance.
func (g *Glyph) SetAdvance(x, y float32) {
	g.metrics.AdvanceX, g.metrics.AdvanceY = x, y
}

// SetMetrics records full metrics. Empty bounds are canonicalized so that
// zero width implies zero height.
func (g *Glyph) SetMetrics(m Metrics) {
	g.metrics = m.canonical()
	g.fullMetrics = true
}

// IsEmpty reports whether the glyph has no pixels.
func (g *Glyph) IsEmpty() bool { return g.metrics.IsEmpty() }

// ImageState returns the population state of the image.
func (g *Glyph) ImageState() Slot { return g.imageState }

// Image returns the image bytes, or nil unless ImageState is Present.
func (g *Glyph) Image() []byte { return g.image }

// SetImage latches the image. A nil or empty image records Absent. It
// reports false and changes nothing if the image was already set.
func (g *Glyph) SetImage(image []byte) bool {
	if g.imageState.Requested() {
		return false
	}
	if len(image) == 0 {
		g.imageState = Absent
		return true
	}
	g.image = image
	g.imageState = Present
	return true
}

// PathState returns the population state of the outline.
func (g *Glyph) PathState() Slot { return g.pathState }

// Path returns the outline, or nil unless PathState is Present.
func (g *Glyph) Path() *Path { return g.path }

// Hairline reports whether the outline should be stroked as a hairline.
func (g *Glyph) Hairline() bool { return g.hairline }

// SetPath latches the outline. A nil path records Absent. It reports false
// and changes nothing if the path was already set.
func (g *Glyph) SetPath(path *Path, hairline bool) bool {
	if g.pathState.Requested() {
		return false
	}
	if path == nil {
		g.pathState = Absent
		return true
	}
	g.path = path
	g.hairline = hairline
	g.pathState = Present
	return true
}
