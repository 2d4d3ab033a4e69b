package remote_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/glyphsync/descriptor"
	"github.com/gogpu/glyphsync/glyph"
	"github.com/gogpu/glyphsync/remote"
	"github.com/gogpu/glyphsync/remote/memhandles"
	"github.com/gogpu/glyphsync/strike"
	"github.com/gogpu/glyphsync/wire"
)

func translate(t testing.TB, c *remote.Client, d *descriptor.Descriptor) *descriptor.Descriptor {
	t.Helper()
	local, err := c.TranslateTypefaceID(d)
	require.NoError(t, err)
	return local
}

func TestNewClient_NilHandles(t *testing.T) {
	assert.Panics(t, func() { remote.NewClient(nil) })
}

func TestClient_WithStrikeCache(t *testing.T) {
	cache := strike.NewCache()
	c := remote.NewClient(memhandles.New(), remote.WithStrikeCache(cache))
	assert.Same(t, cache, c.StrikeCache())
}

func TestClient_RoundTrip(t *testing.T) {
	p := newPair()
	tf := newFakeTypeface(3)
	sh := p.shadow(t, tf, 12)
	sh.PrepareForMaskDrawing(ids(0, 1, 5, colorGlyph, bigGlyph))
	sh.PrepareForPathDrawing(ids(2, bigGlyph))
	p.sync(t)

	proxy, ok := p.client.TypefaceByServerID(3)
	require.True(t, ok)
	assert.Equal(t, uint32(3), proxy.ServerID())
	assert.NotEqual(t, uint32(3), proxy.ID())
	assert.Equal(t, 512, proxy.GlyphCount())
	assert.Equal(t, tf.Style(), proxy.Style())
	assert.True(t, proxy.IsFixedPitch())

	local := translate(t, p.client, sh.Descriptor())
	rec, err := local.ScalerRec()
	require.NoError(t, err)
	assert.Equal(t, proxy.ID(), rec.TypefaceID)
	assert.Nil(t, p.client.StrikeCache().FindStrike(sh.Descriptor()), "strikes are keyed by the local id")

	st := p.client.StrikeCache().FindStrike(local)
	require.NotNil(t, st)
	assert.Equal(t, glyph.FontMetrics{Ascent: -8, Descent: 2, XHeight: 5}, st.FontMetrics())

	for _, id := range ids(1, 5, colorGlyph) {
		g, ok := st.Glyph(id)
		require.True(t, ok, "glyph %v", id)
		want := fakeMetrics(id)
		assert.Equal(t, want, g.Metrics())
		require.Equal(t, glyph.Present, g.ImageState())
		require.Len(t, g.Image(), want.ImageSize())
		for _, b := range g.Image() {
			require.Equal(t, byte(id.ID()), b)
		}
	}

	g, ok := st.Glyph(glyph.NewPackedID(0))
	require.True(t, ok)
	assert.True(t, g.IsEmpty())
	assert.Equal(t, glyph.Absent, g.ImageState())

	g, ok = st.Glyph(glyph.NewPackedID(bigGlyph))
	require.True(t, ok)
	assert.Equal(t, glyph.Absent, g.ImageState(), "oversized glyphs carry no image")
	assert.Equal(t, glyph.Present, g.PathState(), "oversized glyphs are drawn as paths")

	g, ok = st.Glyph(glyph.NewPackedID(2))
	require.True(t, ok)
	assert.Equal(t, glyph.Present, g.PathState())
	assert.True(t, g.Hairline())
	assert.Equal(t, glyph.NotRequested, g.ImageState())

	assert.Empty(t, p.handles.CacheMisses())
	assert.Empty(t, p.handles.ReadFailures())
}

func TestClient_ServesWithoutRasterizing(t *testing.T) {
	p := newPair()
	sh := p.shadow(t, newFakeTypeface(1), 12)
	sh.PrepareForMaskDrawing(ids(1, 2, 3))
	p.sync(t)
	st := p.client.StrikeCache().FindStrike(translate(t, p.client, sh.Descriptor()))
	require.NotNil(t, st)

	var g errgroup.Group
	for range 8 {
		g.Go(func() error {
			for _, gl := range st.Images(ids(1, 2, 3)) {
				if gl.ImageState() != glyph.Present {
					return errors.New("image missing")
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Empty(t, p.handles.CacheMisses())
}

func TestClient_ProxyReportsMisses(t *testing.T) {
	p := newPair()
	sh := p.shadow(t, newFakeTypeface(1), 12)
	sh.PrepareForMaskDrawing(ids(1))
	p.sync(t)
	st := p.client.StrikeCache().FindStrike(translate(t, p.client, sh.Descriptor()))
	require.NotNil(t, st)

	gs := st.Images(ids(9))
	require.Len(t, gs, 1)
	assert.True(t, gs[0].IsEmpty())
	st.Paths(ids(9))

	assert.Equal(t, []memhandles.CacheMiss{
		{Kind: remote.MissGlyphMetrics, FontSize: 12},
		{Kind: remote.MissGlyphPath, FontSize: 12},
	}, p.handles.CacheMisses())
}

func TestClient_EmptyDelta(t *testing.T) {
	p := newPair()
	assert.NoError(t, p.client.ReadDelta(nil))
	assert.Empty(t, p.handles.ReadFailures())
}

func TestClient_IncrementalDeltas(t *testing.T) {
	p := newPair()
	tf := newFakeTypeface(1)
	p.shadow(t, tf, 12).PrepareForMaskDrawing(ids(1))
	p.sync(t)
	p.handles.UnlockAll()

	sh := p.shadow(t, tf, 12)
	sh.PrepareForMaskDrawing(ids(1, 2))
	p.sync(t)

	st := p.client.StrikeCache().FindStrike(translate(t, p.client, sh.Descriptor()))
	require.NotNil(t, st)
	assert.Equal(t, 2, st.Len())
	assert.Equal(t, 1, p.client.StrikeCache().Len())
}

// fullDelta returns a delta exercising every record kind.
func fullDelta(t *testing.T) []byte {
	p := newPair()
	sh := p.shadow(t, newFakeTypeface(1), 12)
	sh.PrepareForMaskDrawing(ids(0, 1, 6, bigGlyph))
	sh.PrepareForPathDrawing(ids(2, 3))
	return p.delta(t)
}

func TestClient_TruncatedDelta(t *testing.T) {
	b := fullDelta(t)
	require.NotEmpty(t, b)

	for n := 1; n < len(b); n++ {
		m := memhandles.New()
		c := remote.NewClient(m)
		err := c.ReadDelta(b[:n])

		var rerr *remote.ReadError
		require.ErrorAs(t, err, &rerr, "prefix of %d bytes", n)
		assert.Equal(t, uint64(n), rerr.Failure.MemorySize)
		assert.LessOrEqual(t, rerr.Failure.BytesRead, uint64(n))
		assert.Equal(t, []remote.ReadFailure{rerr.Failure}, m.ReadFailures())

		assert.Zero(t, c.StrikeCache().Len(), "prefix of %d bytes", n)
		_, ok := c.TypefaceByServerID(1)
		assert.False(t, ok, "prefix of %d bytes", n)
	}

	c := remote.NewClient(memhandles.New())
	require.NoError(t, c.ReadDelta(b))
	assert.Equal(t, 1, c.StrikeCache().Len())
}

func TestClient_FailureLeavesStateUnchanged(t *testing.T) {
	p := newPair()
	tf := newFakeTypeface(1)
	a := p.shadow(t, tf, 12)
	a.PrepareForMaskDrawing(ids(1))
	p.sync(t)

	a = p.shadow(t, tf, 12)
	a.PrepareForMaskDrawing(ids(2))
	p.shadow(t, tf, 20).PrepareForMaskDrawing(ids(3))
	b := p.delta(t)

	err := p.client.ReadDelta(b[:len(b)-1])
	require.Error(t, err)

	st := p.client.StrikeCache().FindStrike(translate(t, p.client, a.Descriptor()))
	require.NotNil(t, st)
	_, ok := st.Glyph(glyph.NewPackedID(2))
	assert.False(t, ok, "first strike of a rejected delta is not merged")
	assert.Equal(t, 1, p.client.StrikeCache().Len())

	require.NoError(t, p.client.ReadDelta(b))
	_, ok = st.Glyph(glyph.NewPackedID(2))
	assert.True(t, ok)
	assert.Equal(t, 2, p.client.StrikeCache().Len())
}

func TestClient_UnknownTypeface(t *testing.T) {
	p := newPair()
	tf := newFakeTypeface(1)
	p.shadow(t, tf, 12).PrepareForMaskDrawing(ids(1))
	p.delta(t)
	p.shadow(t, tf, 14).PrepareForMaskDrawing(ids(1))
	b := p.delta(t)

	err := p.client.ReadDelta(b)
	assert.ErrorIs(t, err, remote.ErrUnknownTypeface)
	require.Len(t, p.handles.ReadFailures(), 1)
	assert.Equal(t, uint64(0), p.handles.ReadFailures()[0].StrikeCount)
}

func TestClient_MetricsSentForMissingStrike(t *testing.T) {
	p := newPair()
	tf := newFakeTypeface(1)
	p.shadow(t, tf, 12).PrepareForMaskDrawing(ids(1))
	p.delta(t)
	p.handles.UnlockAll()
	p.shadow(t, tf, 12).PrepareForMaskDrawing(ids(2))
	b := p.delta(t)

	_, err := p.client.DeserializeTypeface(p.server.SerializeTypeface(tf))
	require.NoError(t, err)
	assert.ErrorIs(t, p.client.ReadDelta(b), remote.ErrMissingStrike)
	assert.Zero(t, p.client.StrikeCache().Len())
}

// handWritten builds a one-strike delta with a single image glyph.
func handWritten(t *testing.T, packed uint32, format uint8) []byte {
	return handWrittenFor(t, 1, packed, format)
}

// handWrittenFor is handWritten with the descriptor naming descTypeface
// while the strike header names typeface 1.
func handWrittenFor(t *testing.T, descTypeface, packed uint32, format uint8) []byte {
	w := wire.NewWriter(0)
	wire.Put(w, uint64(1))
	wire.Put(w, uint32(1))
	wire.Put(w, int32(10))
	wire.Put(w, int32(0))
	w.WriteBool(false)
	w.WriteBool(false)

	wire.Put(w, uint64(1))
	wire.Put(w, uint32(1))
	wire.Put(w, uint32(1))
	w.WriteDescriptor(testDesc(t, descTypeface, 12))
	w.WriteBool(false)
	var fm glyph.FontMetrics
	wire.Put(w, uint32(fm.Flags))
	for range fm.Fields() {
		wire.Put(w, float32(0))
	}

	wire.Put(w, uint64(1))
	wire.Put(w, packed)
	wire.Put(w, float32(1))
	wire.Put(w, float32(0))
	wire.Put(w, uint16(0))
	wire.Put(w, uint16(0))
	wire.Put(w, int16(0))
	wire.Put(w, int16(0))
	wire.Put(w, format)
	wire.Put(w, uint64(0))
	return w.Bytes()
}

func TestClient_HandWrittenDelta(t *testing.T) {
	c := remote.NewClient(memhandles.New())
	require.NoError(t, c.ReadDelta(handWritten(t, 4, uint8(glyph.FormatA8))))
	assert.Equal(t, 1, c.StrikeCache().Len())
}

func TestClient_BadGlyph(t *testing.T) {
	tests := []struct {
		name   string
		packed uint32
		format uint8
	}{
		{"mask format", 4, 42},
		{"packed id", 1 << 30, uint8(glyph.FormatA8)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := memhandles.New()
			c := remote.NewClient(m)
			err := c.ReadDelta(handWritten(t, tt.packed, tt.format))
			assert.ErrorIs(t, err, remote.ErrBadGlyph)
			assert.Zero(t, c.StrikeCache().Len())
			_, ok := c.TypefaceByServerID(1)
			assert.False(t, ok)
			require.Len(t, m.ReadFailures(), 1)
			assert.Equal(t, uint64(1), m.ReadFailures()[0].TypefaceCount)
		})
	}
}

func TestClient_StrikeTypefaceDisagrees(t *testing.T) {
	m := memhandles.New()
	c := remote.NewClient(m)
	err := c.ReadDelta(handWrittenFor(t, 2, 4, uint8(glyph.FormatA8)))
	assert.ErrorIs(t, err, remote.ErrBadTypeface)
	assert.Zero(t, c.StrikeCache().Len())
	_, ok := c.TypefaceByServerID(1)
	assert.False(t, ok)
	require.Len(t, m.ReadFailures(), 1)
	assert.Zero(t, m.ReadFailures()[0].StrikeCount)
}

func TestClient_CorruptDescriptor(t *testing.T) {
	b := handWritten(t, 4, uint8(glyph.FormatA8))
	// The descriptor checksum sits right after its length prefix.
	b[8+16+8+8+4] ^= 0xff
	err := remote.NewClient(memhandles.New()).ReadDelta(b)
	assert.ErrorIs(t, err, wire.ErrBadDescriptor)
}

func TestClient_DeserializeTypeface(t *testing.T) {
	p := newPair()
	tf := newFakeTypeface(9)
	b := p.server.SerializeTypeface(tf)

	proxy, err := p.client.DeserializeTypeface(b)
	require.NoError(t, err)
	assert.Equal(t, remote.Summarize(tf), proxy.Summary())
	assert.GreaterOrEqual(t, proxy.ID(), uint32(1<<31))

	again, err := p.client.DeserializeTypeface(b)
	require.NoError(t, err)
	assert.Same(t, proxy, again)

	_, err = p.client.DeserializeTypeface(b[:len(b)-1])
	assert.ErrorIs(t, err, remote.ErrTypefaceSize)
	_, err = p.client.DeserializeTypeface(append(b, 0))
	assert.ErrorIs(t, err, remote.ErrTypefaceSize)

	bad := append([]byte(nil), b...)
	bad[12] = 2
	_, err = p.client.DeserializeTypeface(bad)
	assert.ErrorIs(t, err, wire.ErrBadBool)
}

func TestClient_TranslateUnknown(t *testing.T) {
	c := remote.NewClient(memhandles.New())
	_, err := c.TranslateTypefaceID(testDesc(t, 5, 12))
	assert.ErrorIs(t, err, remote.ErrUnknownTypeface)
}

func TestClient_PinnedStrikes(t *testing.T) {
	p := newPair()
	tf := newFakeTypeface(1)
	sh := p.shadow(t, tf, 12)
	sh.PrepareForMaskDrawing(ids(1))
	p.sync(t)

	assert.Zero(t, p.client.StrikeCache().PurgeAll(), "locked handles pin their strikes")

	p.handles.UnlockAll()
	assert.Equal(t, 1, p.client.StrikeCache().PurgeAll())
	assert.True(t, p.handles.IsHandleDeleted(sh.Handle()))

	fresh := p.shadow(t, tf, 12)
	assert.NotSame(t, sh, fresh)
	fresh.PrepareForMaskDrawing(ids(1))
	p.sync(t)
	assert.Equal(t, 1, p.client.StrikeCache().Len())
}

func TestReadError(t *testing.T) {
	err := &remote.ReadError{Failure: remote.ReadFailure{MemorySize: 10, BytesRead: 3}, Err: wire.ErrTruncated}
	assert.ErrorIs(t, err, wire.ErrTruncated)
	assert.Contains(t, err.Error(), "read 3 of 10 bytes")
}
