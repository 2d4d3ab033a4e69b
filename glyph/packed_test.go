package glyph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPack_Fields(t *testing.T) {
	tests := []struct {
		id         ID
		subX, subY uint8
	}{
		{0, 0, 0},
		{1, 3, 0},
		{127, 2, 1},
		{MaxID, 3, 3},
		{0x1234, 1, 2},
	}
	for _, tt := range tests {
		p := Pack(tt.id, tt.subX, tt.subY)
		assert.Equal(t, tt.id, p.ID())
		assert.Equal(t, tt.subX, p.SubX())
		assert.Equal(t, tt.subY, p.SubY())
		assert.True(t, p.Valid())
	}
}

func TestPack_Masks(t *testing.T) {
	p := Pack(MaxID+5, 7, 6)
	assert.Equal(t, ID(4), p.ID())
	assert.Equal(t, uint8(3), p.SubX())
	assert.Equal(t, uint8(2), p.SubY())
}

func TestPackedID_Valid(t *testing.T) {
	assert.False(t, PackedID(1<<28).Valid())
	assert.False(t, PackedID(0xffffffff).Valid())
}

func TestPackedFastLimit(t *testing.T) {
	assert.Less(t, uint32(Pack(127, 3, 0)), uint32(PackedFastLimit))
	assert.GreaterOrEqual(t, uint32(Pack(128, 0, 0)), uint32(PackedFastLimit))
	assert.GreaterOrEqual(t, uint32(Pack(0, 0, 1)), uint32(PackedFastLimit))
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		pos     float64
		wantInt int
		wantSub uint8
	}{
		{10.0, 10, 0},
		{10.25, 10, 1},
		{10.5, 10, 2},
		{10.75, 10, 3},
		{10.99, 10, 3},
		{-0.25, -1, 3},
		{-1.0, -1, 0},
	}
	for _, tt := range tests {
		i, s := Quantize(tt.pos)
		assert.Equal(t, tt.wantInt, i, "pos %v", tt.pos)
		assert.Equal(t, tt.wantSub, s, "pos %v", tt.pos)
	}
}

func TestPackedIDAt(t *testing.T) {
	assert.Equal(t, Pack(5, 2, 0), PackedIDAt(5, 3.5, 7.75, AxisX))
	assert.Equal(t, Pack(5, 0, 3), PackedIDAt(5, 3.5, 7.75, AxisY))
	assert.Equal(t, Pack(5, 2, 3), PackedIDAt(5, 3.5, 7.75, AxisNone))
	assert.Equal(t, Pack(5, 0, 0), PackedIDAt(5, 3.5, 7.75, AxisPixel))
}

func TestSubpixelOffset(t *testing.T) {
	dx, dy := Pack(1, 1, 2).SubpixelOffset()
	assert.InDelta(t, 0.25, dx, 1e-6)
	assert.InDelta(t, 0.5, dy, 1e-6)
}
