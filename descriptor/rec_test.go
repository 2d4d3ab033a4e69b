package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalerRec_EncodeDecode(t *testing.T) {
	rec := ScalerRec{
		TypefaceID: 42,
		TextSize:   17.5,
		PreScaleX:  1.25,
		PreSkewX:   -0.25,
		Post2x2:    [2][2]float32{{2, 0.5}, {-0.5, 2}},
		FrameWidth: 1.5,
		MiterLimit: 4,
		MaskFormat: 5,
		Hinting:    HintingSlight,
		StrokeJoin: 1,
		StrokeCap:  2,
		Flags:      FlagSubpixel | FlagDeviceIndependent,
	}
	got, err := DecodeScalerRec(EncodeScalerRec(rec))
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestDecodeScalerRec_WrongSize(t *testing.T) {
	_, err := DecodeScalerRec(make([]byte, ScalerRecSize+4))
	assert.ErrorIs(t, err, ErrBadScalerRec)
}

func TestDescriptor_ScalerRec(t *testing.T) {
	d, err := Make(testRec(), nil)
	require.NoError(t, err)
	rec, err := d.ScalerRec()
	require.NoError(t, err)
	assert.Equal(t, testRec(), rec)

	empty := mustBuilder(t, HeaderSize).Seal()
	_, err = empty.ScalerRec()
	assert.ErrorIs(t, err, ErrNoScalerRec)
}

func TestWithTypefaceID(t *testing.T) {
	d, err := Make(testRec(), []byte{1, 2, 3, 4})
	require.NoError(t, err)

	moved, err := d.WithTypefaceID(99)
	require.NoError(t, err)

	rec, err := moved.ScalerRec()
	require.NoError(t, err)
	assert.Equal(t, uint32(99), rec.TypefaceID)
	assert.Equal(t, moved.ComputeChecksum(), moved.Checksum())
	assert.True(t, moved.IsValid())

	orig, err := d.ScalerRec()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), orig.TypefaceID)
	assert.False(t, d.Equal(moved))

	_, err = mustBuilder(t, HeaderSize).Seal().WithTypefaceID(1)
	assert.ErrorIs(t, err, ErrNoScalerRec)
}

func TestRecFlags_Has(t *testing.T) {
	f := FlagSubpixel | FlagEmbolden
	assert.True(t, f.Has(FlagSubpixel))
	assert.True(t, f.Has(FlagSubpixel|FlagEmbolden))
	assert.False(t, f.Has(FlagLinearMetrics))
}
