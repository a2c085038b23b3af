package modeltap

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/modeltap/modeltap/backend"
	"github.com/modeltap/modeltap/export"
	"github.com/modeltap/modeltap/messaging"
	"github.com/modeltap/modeltap/observability"
	"github.com/modeltap/modeltap/subscribe"
)

// ErrUnknownSubscriber indicates a subscriber spec with an unrecognized
// type.
var ErrUnknownSubscriber = errors.New("unknown subscriber type")

// EventValidateStalled flags a subscribed kind that no built-in producer
// path emits.
const EventValidateStalled observability.EventType = "runtime.validate.stalled"

// Runtime wires a full instrumentation setup from a Config: one bus, one
// exporter, and the configured subscribers with their backends. It is the
// assembly layer only; all semantics live in the wired components.
type Runtime struct {
	logger   *slog.Logger
	observer observability.Observer
	bus      *messaging.Bus
	exporter *export.Exporter
	backends []backend.Backend

	// wanted maps each subscribed kind to the subscriber types waiting
	// for it, for the Validate liveness check.
	wanted map[messaging.Kind][]string
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger for the runtime and its bus.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver sets the observer attached to the exporter and every
// subscription. Defaults to a slog observer over the runtime logger.
func WithObserver(observer observability.Observer) Option {
	return func(r *Runtime) {
		r.observer = observer
	}
}

// NewRuntime assembles a runtime from cfg. A nil cfg uses defaults.
func NewRuntime(cfg *Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		defaults := DefaultConfig()
		cfg = &defaults
	}

	r := &Runtime{
		logger: slog.Default(),
		wanted: make(map[messaging.Kind][]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.observer == nil {
		r.observer = observability.NewSlogObserver(r.logger)
	}

	r.bus = messaging.NewBus(messaging.WithLogger(r.logger))

	exporterOpts := []export.Option{export.WithObserver(r.observer)}
	if cfg.Tag != "" {
		exporterOpts = append(exporterOpts, export.WithTag(cfg.Tag))
	}
	if cfg.LegacyLabelNumbering {
		exporterOpts = append(exporterOpts, export.WithLegacyLabelNumbering())
	}
	r.exporter = export.NewExporter(r.bus, exporterOpts...)

	for i, spec := range cfg.Subscribers {
		if err := r.addSubscriber(cfg, spec); err != nil {
			return nil, fmt.Errorf("subscriber %d: %w", i, err)
		}
	}

	r.logger.Info(
		"runtime assembled",
		slog.String("run_id", r.exporter.RunID()),
		slog.Int("subscribers", r.bus.ActiveSubscriptions()),
	)
	return r, nil
}

// Bus returns the message bus.
func (r *Runtime) Bus() *messaging.Bus {
	return r.bus
}

// Exporter returns the exporter driving the bus.
func (r *Runtime) Exporter() *export.Exporter {
	return r.exporter
}

// Backends returns the backends of the configured subscribers, in spec
// order.
func (r *Runtime) Backends() []backend.Backend {
	return r.backends
}

// Validate checks the subscriber roster against the kinds the built-in
// producer paths emit. A synchronized subscription waiting on a kind
// nothing publishes buffers rounds that never complete, so a mismatch
// here means the setup is almost certainly wrong. It is reported as a
// warning rather than an error because applications may publish custom
// kinds through Publish and PublishMeta themselves.
func (r *Runtime) Validate() []string {
	emitted := map[messaging.Kind]bool{
		messaging.KindActivations:   true,
		messaging.KindGradients:     true,
		messaging.KindWeights:       true,
		messaging.KindWeightUpdates: true,
		messaging.KindBiases:        true,
		messaging.KindBiasUpdates:   true,
		messaging.KindNetworkOutput: true,
		messaging.KindInputLabels:   true,
	}

	kinds := make([]messaging.Kind, 0, len(r.wanted))
	for kind := range r.wanted {
		if !emitted[kind] {
			kinds = append(kinds, kind)
		}
	}
	slices.Sort(kinds)

	warnings := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		warning := fmt.Sprintf(
			"kind %q wanted by %s is not emitted by any built-in producer path",
			kind, strings.Join(r.wanted[kind], ", "),
		)
		warnings = append(warnings, warning)
		observability.Emit(r.observer, EventValidateStalled, observability.LevelWarn, "runtime", map[string]any{
			"kind":        string(kind),
			"subscribers": strings.Join(r.wanted[kind], ", "),
		})
		r.logger.Warn("subscriber kind has no producer", slog.String("kind", string(kind)))
	}
	return warnings
}

// Close releases every subscriber backend.
func (r *Runtime) Close() error {
	var errs []error
	for _, b := range r.backends {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Runtime) addSubscriber(cfg *Config, spec SubscriberSpec) error {
	kinds := make([]messaging.Kind, len(spec.Kinds))
	for i, k := range spec.Kinds {
		kinds[i] = messaging.Kind(k)
	}

	opts := r.subscriberOptions(cfg, spec)

	var (
		sub  *subscribe.SynchronizedSubscription
		base *subscribe.PlotSubscriber
	)
	switch spec.Type {
	case "ratio":
		s, err := subscribe.NewRatioSubscriber(kinds, opts...)
		if err != nil {
			return err
		}
		sub, base = s.Subscription(), s.PlotSubscriber
	case "variance":
		s, err := subscribe.NewVarianceSubscriber(kinds, opts...)
		if err != nil {
			return err
		}
		sub, base = s.Subscription(), s.PlotSubscriber
	case "train_accuracy":
		s, err := subscribe.NewTrainAccuracySubscriber(opts...)
		if err != nil {
			return err
		}
		sub, base = s.Subscription(), s.PlotSubscriber
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSubscriber, spec.Type)
	}

	if err := r.bus.Subscribe(sub); err != nil {
		return err
	}
	r.backends = append(r.backends, base.Backend())
	for _, kind := range sub.Kinds() {
		r.wanted[kind] = append(r.wanted[kind], spec.Type)
	}
	return nil
}

func (r *Runtime) subscriberOptions(cfg *Config, spec SubscriberSpec) []subscribe.Option {
	opts := []subscribe.Option{subscribe.WithObserver(r.observer)}

	backendKind := cfg.Backend
	if spec.Backend != "" {
		backendKind = spec.Backend
	}
	if backendKind != "" {
		opts = append(opts, subscribe.WithBackendKind(backendKind))
	}
	if spec.Tag != "" {
		opts = append(opts, subscribe.WithTag(spec.Tag))
	}
	if spec.Subsample > 0 {
		opts = append(opts, subscribe.WithSubsample(spec.Subsample))
	}
	if spec.YLims != nil {
		opts = append(opts, subscribe.WithYLims(spec.YLims[0], spec.YLims[1]))
	}
	if spec.Absolute != nil {
		opts = append(opts, subscribe.WithAbsolute(*spec.Absolute))
	}
	return opts
}
