package subscribe

import (
	"fmt"

	"github.com/modeltap/modeltap/backend"
	"github.com/modeltap/modeltap/messaging"
)

// Subscriber consumes what its subscription forwards: complete per-round
// bundles via ProcessData, single out-of-band values via ProcessMeta, and
// epoch boundaries. Bundles arrive as borrowed read-only values; a
// subscriber must not mutate or retain them past the call.
type Subscriber interface {
	ProcessData(bundle *messaging.Bundle) error
	ProcessMeta(msg *messaging.Message) error
	EpochFinished(epoch int) error
}

// MetricFunc computes a scalar from a completed bundle.
type MetricFunc func(bundle *messaging.Bundle) (float64, error)

// MetaMetricFunc computes a scalar from a bare meta message.
type MetaMetricFunc func(msg *messaging.Message) (float64, error)

// PlotSubscriber is the shared subscriber base: it asserts bundle
// completeness, keeps per-key invocation counters for diagnostics, runs
// the metric computation, and forwards the result to its backend keyed by
// the bundle's identifier and round sequence number. Concrete subscribers
// embed it and supply the metric.
type PlotSubscriber struct {
	backend     backend.Backend
	metric      MetricFunc
	metaMetric  MetaMetricFunc
	invocations map[string]int
}

// NewPlotSubscriber creates a subscriber base forwarding metric results to
// b. metaMetric may be nil; the default extracts single-element payloads
// as scalars.
func NewPlotSubscriber(b backend.Backend, metric MetricFunc, metaMetric MetaMetricFunc) (*PlotSubscriber, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil backend", ErrConfiguration)
	}
	if metric == nil {
		return nil, fmt.Errorf("%w: nil metric", ErrConfiguration)
	}
	return &PlotSubscriber{
		backend:     b,
		metric:      metric,
		metaMetric:  metaMetric,
		invocations: make(map[string]int),
	}, nil
}

// ProcessData runs the metric on a completed bundle. An incomplete bundle
// reaching this point is an internal invariant violation and aborts.
func (p *PlotSubscriber) ProcessData(bundle *messaging.Bundle) error {
	if !bundle.Complete() {
		return fmt.Errorf("%w: %v still missing for key %q",
			messaging.ErrIncompleteBundle, bundle.MissingKinds(), bundle.Key())
	}
	p.invocations[bundle.Key()]++

	value, err := p.metric(bundle)
	if err != nil {
		return err
	}
	return p.backend.AddData(bundle.Key(), value, bundle.Seq())
}

// ProcessMeta runs the meta metric on a bare out-of-band message.
func (p *PlotSubscriber) ProcessMeta(msg *messaging.Message) error {
	p.invocations[msg.Key]++

	metric := p.metaMetric
	if metric == nil {
		metric = scalarMetaMetric
	}
	value, err := metric(msg)
	if err != nil {
		return err
	}
	return p.backend.AddData(msg.Key, value, msg.Seq)
}

// EpochFinished is a no-op for the base; concrete subscribers override it
// when they keep per-epoch state.
func (p *PlotSubscriber) EpochFinished(epoch int) error {
	return nil
}

// Invocations returns how many times data for key reached this
// subscriber.
func (p *PlotSubscriber) Invocations(key string) int {
	return p.invocations[key]
}

// Backend returns the backend this subscriber forwards to.
func (p *PlotSubscriber) Backend() backend.Backend {
	return p.backend
}

func scalarMetaMetric(msg *messaging.Message) (float64, error) {
	if msg.Payload == nil || msg.Payload.Len() != 1 {
		return 0, fmt.Errorf("meta message %v is not a scalar", msg)
	}
	return msg.Payload.Data[0], nil
}

// openBackend resolves the backend for a subscriber config: an injected
// instance wins, otherwise the registered kind is constructed with the
// given display options.
func openBackend(cfg config, plot backend.PlotConfig) (backend.Backend, error) {
	if cfg.backend != nil {
		return cfg.backend, nil
	}
	plot.YLims = cfg.ylims
	b, err := backend.Open(cfg.backendKind, plot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return b, nil
}
