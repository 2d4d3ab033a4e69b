package strike

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/glyphsync/descriptor"
)

func TestCache_FindCreate(t *testing.T) {
	c := NewCache()
	d := testDesc(t, 12)
	assert.Nil(t, c.FindStrike(d))

	s, err := c.CreateStrike(d, &fakeContext{})
	require.NoError(t, err)
	assert.Same(t, s, c.FindStrike(d))
	assert.Same(t, s, c.FindStrike(testDesc(t, 12)), "equal descriptors share a strike")
	assert.Nil(t, c.FindStrike(testDesc(t, 13)))
	assert.Equal(t, 1, c.Len())
}

func TestCache_RejectsInvalidDescriptor(t *testing.T) {
	c := NewCache()
	b, err := descriptor.NewBuilder(64)
	require.NoError(t, err)
	_, err = b.AddEntry(descriptor.TagScalerRec, 8, nil)
	require.NoError(t, err)
	bad := b.Seal()

	_, err = c.CreateStrike(bad, &fakeContext{})
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
	assert.Nil(t, c.FindStrike(bad))
	_, err = c.FindOrCreateStrike(bad, &fakeTypeface{id: 1, ctx: &fakeContext{}})
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
	assert.Zero(t, c.Len())
}

func TestCache_CountLimitEvictsOldest(t *testing.T) {
	c := NewCache(WithCountLimit(2), WithByteLimit(0))
	d1, d2, d3 := testDesc(t, 1), testDesc(t, 2), testDesc(t, 3)

	_, err := c.CreateStrike(d1, nil)
	require.NoError(t, err)
	_, err = c.CreateStrike(d2, nil)
	require.NoError(t, err)
	// Touch d1 so d2 becomes the oldest.
	require.NotNil(t, c.FindStrike(d1))
	_, err = c.CreateStrike(d3, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	assert.NotNil(t, c.FindStrike(d1))
	assert.Nil(t, c.FindStrike(d2))
	assert.NotNil(t, c.FindStrike(d3))
}

func TestCache_PinnedStrikesSurvive(t *testing.T) {
	c := NewCache(WithCountLimit(1), WithByteLimit(0))
	pin := &fakePinner{}
	d1, d2, d3 := testDesc(t, 1), testDesc(t, 2), testDesc(t, 3)

	_, err := c.CreateStrike(d1, nil, WithPinner(pin))
	require.NoError(t, err)
	_, err = c.CreateStrike(d2, nil)
	require.NoError(t, err)

	// d1 is pinned and d2 is the newest, so both stay.
	assert.Equal(t, 2, c.Len())

	pin.released = true
	_, err = c.CreateStrike(d3, nil)
	require.NoError(t, err)
	assert.Nil(t, c.FindStrike(d1))
	assert.Nil(t, c.FindStrike(d2))
	assert.NotNil(t, c.FindStrike(d3))
}

func TestCache_ByteLimit(t *testing.T) {
	c := NewCache(WithCountLimit(0), WithByteLimit(4096))
	big, err := c.CreateStrike(testDesc(t, 1), &fakeContext{})
	require.NoError(t, err)
	big.Images(ids(80)) // 6400 bytes
	assert.Greater(t, c.MemoryUsed(), 4096)

	assert.Equal(t, 1, c.Purge())
	assert.Zero(t, c.Len())
}

func TestCache_PurgeAll(t *testing.T) {
	c := NewCache()
	pin := &fakePinner{}
	_, err := c.CreateStrike(testDesc(t, 1), nil, WithPinner(pin))
	require.NoError(t, err)
	_, err = c.CreateStrike(testDesc(t, 2), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, c.PurgeAll())
	assert.Equal(t, 1, c.Len())
}

func TestCache_FindOrCreate(t *testing.T) {
	c := NewCache()
	ctx := &fakeContext{}
	tf := &fakeTypeface{id: 1, ctx: ctx}
	d := testDesc(t, 12)

	s1, err := c.FindOrCreateStrike(d, tf)
	require.NoError(t, err)
	s2, err := c.FindOrCreateStrike(d, tf)
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	broken := &fakeTypeface{id: 2, err: errNoContext}
	s3, err := c.FindOrCreateStrike(testDesc(t, 13), broken)
	require.NoError(t, err)
	assert.True(t, s3.Images(ids(5))[0].IsEmpty())
}

func TestCache_Concurrent(t *testing.T) {
	c := NewCache(WithCountLimit(8))
	tf := &fakeTypeface{id: 1, ctx: &fakeContext{}}
	descs := make([]*descriptor.Descriptor, 16)
	for i := range descs {
		descs[i] = testDesc(t, float32(i+1))
	}

	var g errgroup.Group
	for w := range 8 {
		g.Go(func() error {
			for i := range 200 {
				s, err := c.FindOrCreateStrike(descs[(w+i)%len(descs)], tf)
				if err != nil {
					return err
				}
				s.Metrics(ids(1, 2, 3))
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.LessOrEqual(t, c.Len(), 8)
}
