package remote

import (
	"log/slog"

	"github.com/gogpu/glyphsync"
	"github.com/gogpu/glyphsync/strike"
)

// DefaultMaxEntries is the default bound on the server's descriptor map.
const DefaultMaxEntries = 2000

// Option configures a Server or a Client. Options that do not apply to the
// side being created are ignored.
type Option func(*options)

type options struct {
	maxEntries  int
	logger      *slog.Logger
	strikeCache *strike.Cache
}

func defaultOptions() options {
	return options{
		maxEntries: DefaultMaxEntries,
	}
}

// log returns the configured logger, falling back to the package-wide one
// at call time so that glyphsync.SetLogger takes effect immediately.
func (o *options) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return glyphsync.Logger()
}

// WithMaxEntries sets how many shadows the server keeps before it starts
// evicting those whose handles the client deleted.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		o.maxEntries = n
	}
}

// WithLogger overrides the package-wide logger for one Server or Client.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithStrikeCache sets the strike cache the client merges into. By default
// each Client creates its own.
func WithStrikeCache(c *strike.Cache) Option {
	return func(o *options) {
		o.strikeCache = c
	}
}
