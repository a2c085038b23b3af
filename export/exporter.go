package export

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/modeltap/modeltap/messaging"
	"github.com/modeltap/modeltap/observability"
	"github.com/modeltap/modeltap/tensor"
)

// Mode gates hook-triggered publication. Nothing is published in
// evaluation mode.
type Mode string

const (
	ModeTraining   Mode = "training"
	ModeEvaluation Mode = "evaluation"
)

// Exporter is the single producer of the instrumentation stream: it owns
// the step/epoch counters, assigns sequence numbers, labels tracked units,
// and publishes every artifact through the bus. The training loop drives
// it synchronously from its own goroutine; no other actor may advance its
// counters.
//
// Call-ordering contract: Step must be called exactly once per training
// iteration before any of that iteration's payloads are published, so
// activations and gradients of one iteration share a sequence number.
// EpochFinished must be called once per completed epoch; it is the only
// way the epoch counter advances.
type Exporter struct {
	bus      *messaging.Bus
	runID    string
	tag      string
	observer observability.Observer

	globalStep uint64
	trainStep  int
	epoch      int
	stepped    bool
	mode       Mode

	labels          map[Unit]string
	order           []string
	kindCounter     map[string]int
	legacyNumbering bool

	weightCache map[Unit]*tensor.Tensor
	biasCache   map[Unit]*tensor.Tensor
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithTag overrides the default stream tag (the run ID) on published
// messages.
func WithTag(tag string) Option {
	return func(e *Exporter) {
		e.tag = tag
	}
}

// WithObserver attaches an observability observer to exporter lifecycle
// events.
func WithObserver(observer observability.Observer) Option {
	return func(e *Exporter) {
		e.observer = observer
	}
}

// WithLegacyLabelNumbering reproduces the historical label-ordinal
// numbering; see GetOrMakeLabel.
func WithLegacyLabelNumbering() Option {
	return func(e *Exporter) {
		e.legacyNumbering = true
	}
}

// NewExporter creates an exporter publishing to bus. Each exporter mints a
// UUIDv7 run ID, used as the default message tag.
func NewExporter(bus *messaging.Bus, opts ...Option) *Exporter {
	e := &Exporter{
		bus:         bus,
		runID:       uuid.Must(uuid.NewV7()).String(),
		mode:        ModeTraining,
		labels:      make(map[Unit]string),
		kindCounter: make(map[string]int),
		weightCache: make(map[Unit]*tensor.Tensor),
		biasCache:   make(map[Unit]*tensor.Tensor),
	}
	e.tag = e.runID
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunID returns the exporter's unique run identifier.
func (e *Exporter) RunID() string {
	return e.runID
}

// GlobalStep returns the monotonic iteration counter, which doubles as
// the current round's sequence number.
func (e *Exporter) GlobalStep() uint64 { return e.globalStep }

// TrainStep returns the iteration counter within the current epoch.
func (e *Exporter) TrainStep() int { return e.trainStep }

// Epoch returns the 0-based epoch index.
func (e *Exporter) Epoch() int { return e.epoch }

// Mode returns the current publication mode.
func (e *Exporter) Mode() Mode { return e.mode }

// SetMode switches between training and evaluation. Evaluation silences
// all hook-triggered publication; the training loop is contractually
// required to call this instead of any implicit model-state sniffing.
func (e *Exporter) SetMode(mode Mode) {
	if e.mode == mode {
		return
	}
	e.mode = mode
	observability.Emit(e.observer, EventMode, observability.LevelDebug, "exporter", map[string]any{
		"mode": string(mode),
	})
}

// Step advances the per-epoch and global iteration counters. It must be
// called exactly once per training iteration, before that iteration's
// first publish.
func (e *Exporter) Step() {
	e.trainStep++
	e.globalStep++
	e.stepped = true

	observability.Emit(e.observer, EventStep, observability.LevelDebug, "exporter", map[string]any{
		"seq":   e.globalStep,
		"step":  e.trainStep,
		"epoch": e.epoch,
	})
}

// EpochFinished notifies every subscription of the epoch boundary, then
// advances the epoch counter and resets the in-epoch step counter. The
// global step keeps running.
func (e *Exporter) EpochFinished() error {
	if err := e.bus.EpochFinished(e.epoch); err != nil {
		return err
	}

	observability.Emit(e.observer, EventEpoch, observability.LevelInfo, "exporter", map[string]any{
		"epoch": e.epoch,
	})

	e.epoch++
	e.trainStep = 0
	return nil
}

// Publish sends one training artifact for a tracked unit. It is a no-op
// while nobody is subscribed, so producers pay nothing for dormant
// instrumentation.
func (e *Exporter) Publish(unit Unit, kind messaging.Kind, payload *tensor.Tensor) error {
	if e.bus.ActiveSubscriptions() == 0 {
		return nil
	}
	if !e.stepped {
		return fmt.Errorf("%w: kind %q", ErrStepNotStarted, kind)
	}

	msg := messaging.NewTrainingMessage(e.globalStep, e.trainStep, e.epoch, kind, e.GetOrMakeLabel(unit), payload)
	return e.bus.Publish(msg.WithTag(e.tag))
}

// PublishMeta sends an out-of-band value grouped under a free-form key
// (batch loss, network output, input labels, ...).
func (e *Exporter) PublishMeta(key string, kind messaging.Kind, payload *tensor.Tensor) error {
	if e.bus.ActiveSubscriptions() == 0 {
		return nil
	}
	if !e.stepped {
		return fmt.Errorf("%w: kind %q", ErrStepNotStarted, kind)
	}

	msg := messaging.NewMetaMessage(e.globalStep, e.trainStep, e.epoch, kind, key, payload)
	return e.bus.Publish(msg.WithTag(e.tag))
}

// ObserveActivations is the forward-hook entry point: it publishes the
// unit's parameter state (update deltas first, then current values) and
// the new activations. On the first observation of a unit the deltas are
// zero tensors of the parameter's shape, not omitted messages, so
// consumers always receive the full expected-kind set from iteration one.
func (e *Exporter) ObserveActivations(unit Unit, output *tensor.Tensor) error {
	if e.mode != ModeTraining || e.bus.ActiveSubscriptions() == 0 {
		return nil
	}

	if p, ok := unit.(Parameterized); ok {
		if weight := p.Weight(); weight != nil {
			if err := e.publishDelta(unit, messaging.KindWeightUpdates, weight, e.weightCache); err != nil {
				return err
			}
			if err := e.Publish(unit, messaging.KindWeights, weight); err != nil {
				return err
			}
			e.weightCache[unit] = weight.Clone()
		}
	}
	if b, ok := unit.(Biased); ok {
		if bias := b.Bias(); bias != nil {
			if err := e.publishDelta(unit, messaging.KindBiasUpdates, bias, e.biasCache); err != nil {
				return err
			}
			if err := e.Publish(unit, messaging.KindBiases, bias); err != nil {
				return err
			}
			e.biasCache[unit] = bias.Clone()
		}
	}
	return e.Publish(unit, messaging.KindActivations, output)
}

// ObserveGradients is the backward-hook entry point.
func (e *Exporter) ObserveGradients(unit Unit, grad *tensor.Tensor) error {
	if e.mode != ModeTraining || e.bus.ActiveSubscriptions() == 0 {
		return nil
	}
	return e.Publish(unit, messaging.KindGradients, grad)
}

func (e *Exporter) publishDelta(unit Unit, kind messaging.Kind, current *tensor.Tensor, cache map[Unit]*tensor.Tensor) error {
	previous, ok := cache[unit]
	if !ok {
		return e.Publish(unit, kind, tensor.ZerosLike(current))
	}
	delta, err := current.Sub(previous)
	if err != nil {
		return fmt.Errorf("delta for %q: %w", e.GetOrMakeLabel(unit), err)
	}
	return e.Publish(unit, kind, delta)
}

func (e *Exporter) register(label string, unit Unit) {
	e.labels[unit] = label
	e.order = append(e.order, label)

	observability.Emit(e.observer, EventTrack, observability.LevelDebug, "exporter", map[string]any{
		"label": label,
		"kind":  unit.UnitKind(),
	})
}
