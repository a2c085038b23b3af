package export_test

import (
	"errors"
	"testing"

	"github.com/modeltap/modeltap/export"
	"github.com/modeltap/modeltap/messaging"
	"github.com/modeltap/modeltap/tensor"
)

// fakeUnit is a minimal parameterized unit for driving the exporter.
type fakeUnit struct {
	kind   string
	weight *tensor.Tensor
	bias   *tensor.Tensor
}

func (u *fakeUnit) UnitKind() string       { return u.kind }
func (u *fakeUnit) Weight() *tensor.Tensor { return u.weight }
func (u *fakeUnit) Bias() *tensor.Tensor   { return u.bias }

// captureHandler records every message it receives.
type captureHandler struct {
	messages []*messaging.Message
	epochs   []int
}

func (h *captureHandler) HandleMessage(msg *messaging.Message) error {
	h.messages = append(h.messages, msg)
	return nil
}

func (h *captureHandler) EpochFinished(epoch int) error {
	h.epochs = append(h.epochs, epoch)
	return nil
}

func (h *captureHandler) byKind(kind messaging.Kind) []*messaging.Message {
	var out []*messaging.Message
	for _, msg := range h.messages {
		if msg.Kind == kind {
			out = append(out, msg)
		}
	}
	return out
}

func newExporterWithCapture(t *testing.T, opts ...export.Option) (*export.Exporter, *captureHandler) {
	t.Helper()
	bus := messaging.NewBus()
	h := &captureHandler{}
	if err := bus.Subscribe(h); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	return export.NewExporter(bus, opts...), h
}

func TestExporter_ZeroDeltaOnFirstObservation(t *testing.T) {
	e, h := newExporterWithCapture(t)
	unit := &fakeUnit{
		kind:   "Linear",
		weight: tensor.FromSlice([]float64{1, 2}),
		bias:   tensor.FromSlice([]float64{0}),
	}

	e.Step()
	if err := e.ObserveActivations(unit, tensor.FromSlice([]float64{0.5})); err != nil {
		t.Fatalf("ObserveActivations failed: %v", err)
	}

	updates := h.byKind(messaging.KindWeightUpdates)
	if len(updates) != 1 {
		t.Fatalf("weight_updates count = %d, want 1 (zero delta, not omission)", len(updates))
	}
	for i, v := range updates[0].Payload.Data {
		if v != 0 {
			t.Errorf("first weight_updates[%d] = %v, want 0", i, v)
		}
	}
	if !updates[0].Payload.SameShape(unit.weight) {
		t.Error("zero delta should have the weight's shape")
	}

	biasUpdates := h.byKind(messaging.KindBiasUpdates)
	if len(biasUpdates) != 1 || biasUpdates[0].Payload.Data[0] != 0 {
		t.Errorf("first bias_updates = %v, want one zero message", biasUpdates)
	}
}

func TestExporter_WeightDeltaAcrossSteps(t *testing.T) {
	e, h := newExporterWithCapture(t)
	unit := &fakeUnit{
		kind:   "Linear",
		weight: tensor.FromSlice([]float64{1, 2}),
		bias:   tensor.FromSlice([]float64{0}),
	}

	e.Step()
	if err := e.ObserveActivations(unit, tensor.FromSlice([]float64{0.5})); err != nil {
		t.Fatalf("ObserveActivations failed: %v", err)
	}

	// The optimizer moves the first weight by 0.5.
	unit.weight = tensor.FromSlice([]float64{1.5, 2})
	e.Step()
	if err := e.ObserveActivations(unit, tensor.FromSlice([]float64{0.5})); err != nil {
		t.Fatalf("ObserveActivations failed: %v", err)
	}

	updates := h.byKind(messaging.KindWeightUpdates)
	if len(updates) != 2 {
		t.Fatalf("weight_updates count = %d, want 2", len(updates))
	}
	got := updates[1].Payload.Data
	if got[0] != 0.5 || got[1] != 0 {
		t.Errorf("second weight_updates = %v, want [0.5 0]", got)
	}
}

func TestExporter_SharedSeqWithinIteration(t *testing.T) {
	e, h := newExporterWithCapture(t)
	unit := &fakeUnit{kind: "ReLU"}

	e.Step()
	if err := e.ObserveActivations(unit, tensor.FromSlice([]float64{1})); err != nil {
		t.Fatalf("ObserveActivations failed: %v", err)
	}
	if err := e.ObserveGradients(unit, tensor.FromSlice([]float64{2})); err != nil {
		t.Fatalf("ObserveGradients failed: %v", err)
	}

	if len(h.messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(h.messages))
	}
	if h.messages[0].Seq != h.messages[1].Seq {
		t.Errorf("activation seq %d != gradient seq %d; one iteration is one round",
			h.messages[0].Seq, h.messages[1].Seq)
	}

	e.Step()
	if err := e.ObserveGradients(unit, tensor.FromSlice([]float64{3})); err != nil {
		t.Fatalf("ObserveGradients failed: %v", err)
	}
	if h.messages[2].Seq != h.messages[0].Seq+1 {
		t.Errorf("seq after Step = %d, want %d", h.messages[2].Seq, h.messages[0].Seq+1)
	}
}

func TestExporter_PublishBeforeStepFails(t *testing.T) {
	e, _ := newExporterWithCapture(t)
	unit := &fakeUnit{kind: "Linear"}

	err := e.Publish(unit, messaging.KindActivations, tensor.FromSlice([]float64{1}))
	if !errors.Is(err, export.ErrStepNotStarted) {
		t.Errorf("Publish error = %v, want ErrStepNotStarted", err)
	}
}

func TestExporter_NoSubscribersIsNoOp(t *testing.T) {
	bus := messaging.NewBus()
	e := export.NewExporter(bus)
	unit := &fakeUnit{kind: "Linear", weight: tensor.FromSlice([]float64{1})}

	// Without subscribers nothing runs, not even the precondition check or
	// the snapshot caching.
	if err := e.Publish(unit, messaging.KindActivations, tensor.FromSlice([]float64{1})); err != nil {
		t.Fatalf("Publish without subscribers should be a no-op, got %v", err)
	}
	if err := e.ObserveActivations(unit, tensor.FromSlice([]float64{1})); err != nil {
		t.Fatalf("ObserveActivations without subscribers failed: %v", err)
	}

	// Once somebody subscribes, the first observation still yields a zero
	// delta: no snapshot may have been cached while dormant.
	h := &captureHandler{}
	if err := bus.Subscribe(h); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	e.Step()
	if err := e.ObserveActivations(unit, tensor.FromSlice([]float64{1})); err != nil {
		t.Fatalf("ObserveActivations failed: %v", err)
	}

	updates := h.byKind(messaging.KindWeightUpdates)
	if len(updates) != 1 || updates[0].Payload.Data[0] != 0 {
		t.Errorf("first live weight_updates = %v, want zero delta", updates)
	}
}

func TestExporter_EvaluationModeSilencesHooks(t *testing.T) {
	e, h := newExporterWithCapture(t)
	unit := &fakeUnit{kind: "Linear", weight: tensor.FromSlice([]float64{1})}

	e.Step()
	e.SetMode(export.ModeEvaluation)
	if err := e.ObserveActivations(unit, tensor.FromSlice([]float64{1})); err != nil {
		t.Fatalf("ObserveActivations failed: %v", err)
	}
	if err := e.ObserveGradients(unit, tensor.FromSlice([]float64{1})); err != nil {
		t.Fatalf("ObserveGradients failed: %v", err)
	}
	if len(h.messages) != 0 {
		t.Errorf("messages in evaluation mode = %d, want 0", len(h.messages))
	}

	e.SetMode(export.ModeTraining)
	if err := e.ObserveGradients(unit, tensor.FromSlice([]float64{1})); err != nil {
		t.Fatalf("ObserveGradients failed: %v", err)
	}
	if len(h.messages) != 1 {
		t.Errorf("messages after re-enabling = %d, want 1", len(h.messages))
	}
}

func TestExporter_EpochFinished(t *testing.T) {
	e, h := newExporterWithCapture(t)
	unit := &fakeUnit{kind: "Linear"}

	e.Step()
	e.Step()
	if err := e.ObserveGradients(unit, tensor.FromSlice([]float64{1})); err != nil {
		t.Fatalf("ObserveGradients failed: %v", err)
	}

	if err := e.EpochFinished(); err != nil {
		t.Fatalf("EpochFinished failed: %v", err)
	}

	if len(h.epochs) != 1 || h.epochs[0] != 0 {
		t.Errorf("epoch notifications = %v, want [0]", h.epochs)
	}
	if e.Epoch() != 1 {
		t.Errorf("Epoch() = %d, want 1", e.Epoch())
	}
	if e.TrainStep() != 0 {
		t.Errorf("TrainStep() = %d, want 0 after epoch boundary", e.TrainStep())
	}
	if e.GlobalStep() != 2 {
		t.Errorf("GlobalStep() = %d, want 2 (never resets)", e.GlobalStep())
	}

	// Step in the new epoch: train step restarts, seq keeps climbing.
	e.Step()
	if err := e.ObserveGradients(unit, tensor.FromSlice([]float64{1})); err != nil {
		t.Fatalf("ObserveGradients failed: %v", err)
	}
	last := h.messages[len(h.messages)-1]
	if last.Step != 1 || last.Epoch != 1 || last.Seq != 3 {
		t.Errorf("message identity = step %d epoch %d seq %d, want 1/1/3", last.Step, last.Epoch, last.Seq)
	}
}

func TestExporter_MessagesCarryRunTag(t *testing.T) {
	e, h := newExporterWithCapture(t)
	unit := &fakeUnit{kind: "Linear"}

	e.Step()
	if err := e.ObserveGradients(unit, tensor.FromSlice([]float64{1})); err != nil {
		t.Fatalf("ObserveGradients failed: %v", err)
	}

	if e.RunID() == "" {
		t.Fatal("RunID should not be empty")
	}
	if h.messages[0].Tag != e.RunID() {
		t.Errorf("message tag = %q, want run ID %q", h.messages[0].Tag, e.RunID())
	}
}

func TestExporter_PublishMeta(t *testing.T) {
	e, h := newExporterWithCapture(t)

	e.Step()
	if err := e.PublishMeta("network", messaging.KindNetworkOutput, tensor.FromSlice([]float64{1, 2})); err != nil {
		t.Fatalf("PublishMeta failed: %v", err)
	}

	if len(h.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(h.messages))
	}
	msg := h.messages[0]
	if !msg.IsMeta() {
		t.Error("PublishMeta should produce a meta message")
	}
	if msg.Key != "network" {
		t.Errorf("meta key = %q, want network", msg.Key)
	}
}
