package subscribe

import (
	"fmt"

	"github.com/modeltap/modeltap/backend"
	"github.com/modeltap/modeltap/messaging"
)

// VarianceSubscriber computes the unbiased sample variance of one kind's
// payload per round.
type VarianceSubscriber struct {
	*PlotSubscriber
	subscription *SynchronizedSubscription
	kind         messaging.Kind
}

// NewVarianceSubscriber creates a variance subscriber over exactly one
// kind.
func NewVarianceSubscriber(kinds []messaging.Kind, opts ...Option) (*VarianceSubscriber, error) {
	if len(kinds) != 1 {
		return nil, fmt.Errorf("%w: variance subscriber requires 1 kind, got %d", ErrConfiguration, len(kinds))
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	plot := backend.PlotConfig{
		Title:  fmt.Sprintf("variance of %s", kinds[0]),
		XLabel: "Train step",
		YLabel: "σ²",
	}
	b, err := openBackend(cfg, plot)
	if err != nil {
		return nil, err
	}

	v := &VarianceSubscriber{kind: kinds[0]}
	v.PlotSubscriber, err = NewPlotSubscriber(b, v.variance, nil)
	if err != nil {
		return nil, err
	}
	v.subscription, err = newSynchronized(v, kinds, cfg)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Subscription returns the synchronized subscription to register on a bus.
func (v *VarianceSubscriber) Subscription() *SynchronizedSubscription {
	return v.subscription
}

func (v *VarianceSubscriber) variance(bundle *messaging.Bundle) (float64, error) {
	payload, ok := bundle.Payload(v.kind)
	if !ok {
		return 0, fmt.Errorf("%w: %q missing for key %q", messaging.ErrIncompleteBundle, v.kind, bundle.Key())
	}
	return payload.Variance(), nil
}
