package strike

import "github.com/gogpu/glyphsync/glyph"

// Option configures a Strike during creation.
type Option func(*options)

type options struct {
	pinner      Pinner
	fontMetrics *glyph.FontMetrics
}

func defaultOptions() options {
	return options{}
}

// WithPinner attaches a pinner. Cache purges skip strikes whose pinner
// refuses deletion.
func WithPinner(p Pinner) Option {
	return func(o *options) {
		o.pinner = p
	}
}

// WithFontMetrics supplies font metrics instead of asking the context.
// Client strikes use this with metrics received over the wire.
func WithFontMetrics(m glyph.FontMetrics) Option {
	return func(o *options) {
		o.fontMetrics = &m
	}
}

// CacheOption configures a Cache.
type CacheOption func(*cacheOptions)

type cacheOptions struct {
	countLimit int
	byteLimit  int
}

// Default cache budgets.
const (
	DefaultCountLimit = 2048
	DefaultByteLimit  = 2 << 20
)

func defaultCacheOptions() cacheOptions {
	return cacheOptions{
		countLimit: DefaultCountLimit,
		byteLimit:  DefaultByteLimit,
	}
}

// limits returns the purge limits, with -1 for an unbounded dimension.
func (o cacheOptions) limits() (count, bytes int) {
	count, bytes = o.countLimit, o.byteLimit
	if count <= 0 {
		count = -1
	}
	if bytes <= 0 {
		bytes = -1
	}
	return count, bytes
}

// WithCountLimit bounds the number of strikes. Zero or less means no
// bound.
func WithCountLimit(n int) CacheOption {
	return func(o *cacheOptions) {
		o.countLimit = n
	}
}

// WithByteLimit bounds the approximate memory of all strikes. Zero or less
// means no bound.
func WithByteLimit(n int) CacheOption {
	return func(o *cacheOptions) {
		o.byteLimit = n
	}
}
