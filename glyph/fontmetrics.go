package glyph

// FontMetricsFlags mark which optional FontMetrics fields are meaningful.
type FontMetricsFlags uint32

const (
	UnderlineThicknessValid FontMetricsFlags = 1 << iota
	UnderlinePositionValid
	StrikeoutThicknessValid
	StrikeoutPositionValid
	BoundsInvalid
)

// FontMetrics are the per-strike vertical and horizontal font measurements
// in device pixels. Ascent is negative (above the baseline), Descent
// positive.
type FontMetrics struct {
	Flags FontMetricsFlags

	Top     float32
	Ascent  float32
	Descent float32
	Bottom  float32
	Leading float32

	AvgCharWidth float32
	MaxCharWidth float32
	XMin         float32
	XMax         float32
	XHeight      float32
	CapHeight    float32

	UnderlineThickness float32
	UnderlinePosition  float32
	StrikeoutThickness float32
	StrikeoutPosition  float32
}

// LineHeight returns the distance between consecutive baselines.
func (m FontMetrics) LineHeight() float32 {
	return m.Descent - m.Ascent + m.Leading
}

// Fields returns pointers to the float fields in wire order. It lets codecs
// walk the record without listing every field twice.
func (m *FontMetrics) Fields() [15]*float32 {
	return [15]*float32{
		&m.Top, &m.Ascent, &m.Descent, &m.Bottom, &m.Leading,
		&m.AvgCharWidth, &m.MaxCharWidth, &m.XMin, &m.XMax, &m.XHeight, &m.CapHeight,
		&m.UnderlineThickness, &m.UnderlinePosition, &m.StrikeoutThickness, &m.StrikeoutPosition,
	}
}
