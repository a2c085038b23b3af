package subscribe

import (
	"fmt"
	"math"

	"github.com/modeltap/modeltap/backend"
	"github.com/modeltap/modeltap/messaging"
)

// RatioSubscriber computes the ratio of the L2 norms of two kinds per
// round. The first kind is the dividend, the second the divisor, so the
// order of kinds matters. A common use is weight_updates/weights to watch
// effective learning-rate decay.
type RatioSubscriber struct {
	*PlotSubscriber
	subscription *SynchronizedSubscription
	dividend     messaging.Kind
	divisor      messaging.Kind
	absolute     bool
}

// NewRatioSubscriber creates a ratio subscriber over exactly two kinds.
// Absolute-value post-processing is on by default; disable it with
// WithAbsolute(false).
func NewRatioSubscriber(kinds []messaging.Kind, opts ...Option) (*RatioSubscriber, error) {
	if len(kinds) != 2 {
		return nil, fmt.Errorf("%w: ratio subscriber requires 2 kinds, got %d", ErrConfiguration, len(kinds))
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	plot := backend.PlotConfig{
		Title:  fmt.Sprintf("%s/%s ratio", kinds[0], kinds[1]),
		XLabel: "Train step",
		YLabel: "Ratio",
	}
	b, err := openBackend(cfg, plot)
	if err != nil {
		return nil, err
	}

	r := &RatioSubscriber{
		dividend: kinds[0],
		divisor:  kinds[1],
		absolute: cfg.absolute,
	}
	r.PlotSubscriber, err = NewPlotSubscriber(b, r.ratio, nil)
	if err != nil {
		return nil, err
	}
	r.subscription, err = newSynchronized(r, kinds, cfg)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Subscription returns the synchronized subscription to register on a bus.
func (r *RatioSubscriber) Subscription() *SynchronizedSubscription {
	return r.subscription
}

func (r *RatioSubscriber) ratio(bundle *messaging.Bundle) (float64, error) {
	dividend, ok := bundle.Payload(r.dividend)
	if !ok {
		return 0, fmt.Errorf("%w: %q missing for key %q", messaging.ErrIncompleteBundle, r.dividend, bundle.Key())
	}
	divisor, ok := bundle.Payload(r.divisor)
	if !ok {
		return 0, fmt.Errorf("%w: %q missing for key %q", messaging.ErrIncompleteBundle, r.divisor, bundle.Key())
	}

	value := dividend.Norm() / divisor.Norm()
	if r.absolute {
		value = math.Abs(value)
	}
	return value, nil
}
