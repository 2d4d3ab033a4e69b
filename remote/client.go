package remote

import (
	"fmt"
	"sync"

	"github.com/gogpu/glyphsync/descriptor"
	"github.com/gogpu/glyphsync/glyph"
	"github.com/gogpu/glyphsync/strike"
	"github.com/gogpu/glyphsync/wire"
)

// Client merges deltas from a Server into a local strike cache.
//
// Client is safe for concurrent use. Deltas are applied one at a time.
type Client struct {
	handles ClientHandleManager
	cache   *strike.Cache
	opts    options

	mu sync.Mutex
	// typefaces maps server typeface ids to proxies.
	typefaces map[uint32]*ProxyTypeface
}

// NewClient returns a client that reports to handles.
func NewClient(handles ClientHandleManager, opts ...Option) *Client {
	if handles == nil {
		panic("remote: nil ClientHandleManager")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Client{
		handles:   handles,
		cache:     o.strikeCache,
		opts:      o,
		typefaces: make(map[uint32]*ProxyTypeface),
	}
	if c.cache == nil {
		c.cache = strike.NewCache()
	}
	return c
}

// StrikeCache returns the cache deltas are merged into.
func (c *Client) StrikeCache() *strike.Cache { return c.cache }

// DeserializeTypeface decodes a summary written by Server.SerializeTypeface
// and returns its proxy, registering it if it is new.
func (c *Client) DeserializeTypeface(b []byte) (*ProxyTypeface, error) {
	if len(b) != TypefaceSummarySize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTypefaceSize, len(b))
	}
	summary, err := readTypefaceSummary(wire.NewReader(b))
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.typefaces[summary.ID]; ok {
		return p, nil
	}
	p := c.newProxy(summary)
	c.typefaces[summary.ID] = p
	return p, nil
}

func (c *Client) newProxy(summary TypefaceSummary) *ProxyTypeface {
	return &ProxyTypeface{
		localID: nextProxyID(),
		summary: summary,
		handles: c.handles,
		opts:    &c.opts,
	}
}

// TypefaceByServerID returns the proxy for a server typeface id.
func (c *Client) TypefaceByServerID(id uint32) (*ProxyTypeface, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.typefaces[id]
	return p, ok
}

// TranslateTypefaceID rewrites a server descriptor to name the local proxy
// typeface instead of the server's.
func (c *Client) TranslateTypefaceID(desc *descriptor.Descriptor) (*descriptor.Descriptor, error) {
	rec, err := desc.ScalerRec()
	if err != nil {
		return nil, err
	}
	p, ok := c.TypefaceByServerID(rec.TypefaceID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTypeface, rec.TypefaceID)
	}
	return desc.WithTypefaceID(p.ID())
}

// stagedStrike is one parsed strike entry, not yet applied.
type stagedStrike struct {
	handle HandleID
	desc   *descriptor.Descriptor
	proxy  *ProxyTypeface

	// fontMetrics is nil if the server had sent them before.
	fontMetrics *glyph.FontMetrics

	images []*glyph.Glyph
	paths  []stagedPath
}

type stagedPath struct {
	glyph    *glyph.Glyph
	path     *glyph.Path
	hairline bool
}

// delta is a fully parsed delta.
type delta struct {
	typefaces []*ProxyTypeface
	strikes   []*stagedStrike
}

// ReadDelta parses a delta and merges it into the strike cache.
//
// The whole delta is parsed into owned memory before anything is applied.
// If any part of it is malformed, ReadDelta returns a *ReadError, reports
// the failure to the handle manager, and leaves the client unchanged.
// Bytes after the last strike entry are ignored. An empty b is a no-op.
func (c *Client) ReadDelta(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	r := wire.NewReader(b)
	var failure ReadFailure
	d, err := c.parse(r, &failure)
	if err != nil {
		failure.MemorySize = uint64(r.Size())
		failure.BytesRead = uint64(r.Offset())
		c.opts.log().Warn("remote: rejected delta", "err", err, "failure", failure)
		c.handles.NotifyReadFailure(failure)
		return &ReadError{Failure: failure, Err: err}
	}
	c.apply(d)
	return nil
}

func (c *Client) parse(r *wire.Reader, f *ReadFailure) (*delta, error) {
	d := new(delta)
	staged := make(map[uint32]*ProxyTypeface)

	n, err := wire.Get[uint64](r)
	if err != nil {
		return nil, fmt.Errorf("typeface count: %w", err)
	}
	for ; f.TypefaceCount < n; f.TypefaceCount++ {
		summary, err := readTypefaceSummary(r)
		if err != nil {
			return nil, fmt.Errorf("typeface %d: %w", f.TypefaceCount, err)
		}
		if _, ok := c.typefaces[summary.ID]; ok {
			continue
		}
		if _, ok := staged[summary.ID]; ok {
			continue
		}
		p := c.newProxy(summary)
		staged[summary.ID] = p
		d.typefaces = append(d.typefaces, p)
	}

	n, err = wire.Get[uint64](r)
	if err != nil {
		return nil, fmt.Errorf("strike count: %w", err)
	}
	byKey := make(map[string]*stagedStrike)
	for ; f.StrikeCount < n; f.StrikeCount++ {
		ss, err := c.parseStrike(r, f, staged, byKey)
		if err != nil {
			return nil, fmt.Errorf("strike %d: %w", f.StrikeCount, err)
		}
		d.strikes = append(d.strikes, ss)
	}
	return d, nil
}

func (c *Client) parseStrike(r *wire.Reader, f *ReadFailure, staged map[uint32]*ProxyTypeface, byKey map[string]*stagedStrike) (*stagedStrike, error) {
	typefaceID, err := wire.Get[uint32](r)
	if err != nil {
		return nil, err
	}
	handle, err := wire.Get[uint32](r)
	if err != nil {
		return nil, err
	}
	serverDesc, err := r.ReadDescriptor()
	if err != nil {
		return nil, err
	}
	rec, err := serverDesc.ScalerRec()
	if err != nil {
		return nil, err
	}
	if rec.TypefaceID != typefaceID {
		return nil, fmt.Errorf("%w: strike names typeface %d, descriptor %d", ErrBadTypeface, typefaceID, rec.TypefaceID)
	}
	metricsSent, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	ss := &stagedStrike{handle: HandleID(handle)}
	if !metricsSent {
		m, err := readFontMetrics(r)
		if err != nil {
			return nil, fmt.Errorf("font metrics: %w", err)
		}
		ss.fontMetrics = &m
	}

	proxy, ok := c.typefaces[typefaceID]
	if !ok {
		proxy, ok = staged[typefaceID]
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTypeface, typefaceID)
	}
	ss.proxy = proxy
	if ss.desc, err = serverDesc.WithTypefaceID(proxy.ID()); err != nil {
		return nil, err
	}

	_, earlier := byKey[ss.desc.Key()]
	if metricsSent && !earlier && !c.cache.Contains(ss.desc) {
		return nil, ErrMissingStrike
	}
	byKey[ss.desc.Key()] = ss

	n, err := wire.Get[uint64](r)
	if err != nil {
		return nil, fmt.Errorf("image count: %w", err)
	}
	for i := uint64(0); i < n; i, f.GlyphImagesCount = i+1, f.GlyphImagesCount+1 {
		g, err := readGlyphHeader(r)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		var image []byte
		if m := g.Metrics(); !m.IsEmpty() && m.FitsInAtlas() {
			if image, err = r.ReadBytes(m.ImageSize(), m.Format.Alignment()); err != nil {
				return nil, fmt.Errorf("image %d: %w", i, err)
			}
		}
		g.SetImage(image)
		ss.images = append(ss.images, g)
	}

	n, err = wire.Get[uint64](r)
	if err != nil {
		return nil, fmt.Errorf("path count: %w", err)
	}
	for i := uint64(0); i < n; i, f.GlyphPathsCount = i+1, f.GlyphPathsCount+1 {
		g, err := readGlyphHeader(r)
		if err != nil {
			return nil, fmt.Errorf("path %d: %w", i, err)
		}
		p, hairline, err := readGlyphPath(r)
		if err != nil {
			return nil, fmt.Errorf("path %d: %w", i, err)
		}
		ss.paths = append(ss.paths, stagedPath{glyph: g, path: p, hairline: hairline})
	}
	return ss, nil
}

// apply merges a parsed delta. It cannot fail.
func (c *Client) apply(d *delta) {
	for _, p := range d.typefaces {
		c.typefaces[p.ServerID()] = p
	}
	for _, ss := range d.strikes {
		st := c.cache.FindStrike(ss.desc)
		if st == nil {
			st = c.createStrike(ss)
		}
		for _, g := range ss.images {
			st.MergeGlyphAndImage(g.ID(), g)
		}
		for _, sp := range ss.paths {
			rec, _ := st.MergeGlyphAndImage(sp.glyph.ID(), sp.glyph)
			st.MergePath(rec, sp.path, sp.hairline)
		}
	}
}

func (c *Client) createStrike(ss *stagedStrike) *strike.Strike {
	ctx, _ := ss.proxy.OpenContext(ss.desc)
	opts := []strike.Option{strike.WithPinner(&handlePinner{id: ss.handle, handles: c.handles})}
	if ss.fontMetrics != nil {
		opts = append(opts, strike.WithFontMetrics(*ss.fontMetrics))
	}
	st, err := c.cache.CreateStrike(ss.desc, ctx, opts...)
	if err != nil {
		// The descriptor was validated while parsing.
		panic(fmt.Sprintf("remote: create strike: %v", err))
	}
	c.opts.log().Debug("remote: created client strike", "handle", ss.handle, "typeface", ss.proxy.ServerID())
	return st
}

// handlePinner keeps a client strike alive until its handle can be
// deleted.
type handlePinner struct {
	id      HandleID
	handles ClientHandleManager
}

func (p *handlePinner) CanDelete() bool { return p.handles.DeleteHandle(p.id) }
func (p *handlePinner) AssertValid()    { p.handles.AssertHandleValid(p.id) }
