package subscribe

import (
	"github.com/modeltap/modeltap/backend"
	"github.com/modeltap/modeltap/observability"
)

type config struct {
	tag         string
	subsample   int
	backend     backend.Backend
	backendKind string
	ylims       *[2]float64
	absolute    bool
	observer    observability.Observer
}

func defaultConfig() config {
	return config{
		subsample:   1,
		backendKind: "slog",
		absolute:    true,
	}
}

// Option configures a subscription or subscriber.
type Option func(*config)

// WithTag restricts the subscription to messages carrying tag. Untagged
// messages always pass.
func WithTag(tag string) Option {
	return func(c *config) {
		c.tag = tag
	}
}

// WithSubsample forwards only every factor-th occurrence per
// subsampling key. A factor of 1 (the default) forwards everything.
func WithSubsample(factor int) Option {
	return func(c *config) {
		c.subsample = factor
	}
}

// WithBackend injects a pre-built backend, bypassing the registry lookup.
func WithBackend(b backend.Backend) Option {
	return func(c *config) {
		c.backend = b
	}
}

// WithBackendKind selects the registered backend kind to construct
// (default "slog").
func WithBackendKind(kind string) Option {
	return func(c *config) {
		c.backendKind = kind
	}
}

// WithYLims sets the display range hint passed to the backend.
func WithYLims(low, high float64) Option {
	return func(c *config) {
		c.ylims = &[2]float64{low, high}
	}
}

// WithAbsolute toggles absolute-value post-processing on subscribers that
// support it (the ratio subscriber). Default on.
func WithAbsolute(absolute bool) Option {
	return func(c *config) {
		c.absolute = absolute
	}
}

// WithObserver attaches an observability observer to the subscription's
// round lifecycle events.
func WithObserver(observer observability.Observer) Option {
	return func(c *config) {
		c.observer = observer
	}
}
