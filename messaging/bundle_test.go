package messaging_test

import (
	"errors"
	"testing"

	"github.com/modeltap/modeltap/messaging"
	"github.com/modeltap/modeltap/tensor"
)

func trainingMsg(seq uint64, step, epoch int, kind messaging.Kind, key string) *messaging.Message {
	return messaging.NewTrainingMessage(seq, step, epoch, kind, key, tensor.FromSlice([]float64{1}))
}

func TestBundle_CompleteAfterAllKinds(t *testing.T) {
	b := messaging.NewBundle("conv-0", []messaging.Kind{messaging.KindActivations, messaging.KindGradients})

	if b.Complete() {
		t.Error("empty bundle should not be complete")
	}

	if err := b.Add(trainingMsg(1, 0, 0, messaging.KindActivations, "conv-0")); err != nil {
		t.Fatalf("Add activations failed: %v", err)
	}
	if b.Complete() {
		t.Error("bundle with one of two kinds should not be complete")
	}

	if err := b.Add(trainingMsg(1, 0, 0, messaging.KindGradients, "conv-0")); err != nil {
		t.Fatalf("Add gradients failed: %v", err)
	}
	if !b.Complete() {
		t.Error("bundle with all kinds should be complete")
	}
}

func TestBundle_Add_Errors(t *testing.T) {
	tests := []struct {
		name    string
		msg     *messaging.Message
		wantErr error
	}{
		{
			name:    "wrong key",
			msg:     trainingMsg(1, 0, 0, messaging.KindGradients, "conv-1"),
			wantErr: messaging.ErrIdentityMismatch,
		},
		{
			name:    "wrong seq",
			msg:     trainingMsg(2, 0, 0, messaging.KindGradients, "conv-0"),
			wantErr: messaging.ErrIdentityMismatch,
		},
		{
			name:    "wrong step",
			msg:     trainingMsg(1, 3, 0, messaging.KindGradients, "conv-0"),
			wantErr: messaging.ErrIdentityMismatch,
		},
		{
			name:    "wrong epoch",
			msg:     trainingMsg(1, 0, 2, messaging.KindGradients, "conv-0"),
			wantErr: messaging.ErrIdentityMismatch,
		},
		{
			name:    "duplicate kind",
			msg:     trainingMsg(1, 0, 0, messaging.KindActivations, "conv-0"),
			wantErr: messaging.ErrDuplicateKind,
		},
		{
			name:    "unexpected kind",
			msg:     trainingMsg(1, 0, 0, messaging.KindWeights, "conv-0"),
			wantErr: messaging.ErrUnexpectedKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := messaging.NewBundle("conv-0", []messaging.Kind{messaging.KindActivations, messaging.KindGradients})
			if err := b.Add(trainingMsg(1, 0, 0, messaging.KindActivations, "conv-0")); err != nil {
				t.Fatalf("initial Add failed: %v", err)
			}

			err := b.Add(tt.msg)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Add error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBundle_DuplicateNeverOverwrites(t *testing.T) {
	b := messaging.NewBundle("fc-0", []messaging.Kind{messaging.KindWeights})

	first := messaging.NewTrainingMessage(1, 0, 0, messaging.KindWeights, "fc-0", tensor.FromSlice([]float64{1, 2}))
	second := messaging.NewTrainingMessage(1, 0, 0, messaging.KindWeights, "fc-0", tensor.FromSlice([]float64{9, 9}))

	if err := b.Add(first); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := b.Add(second); !errors.Is(err, messaging.ErrDuplicateKind) {
		t.Fatalf("Add duplicate error = %v, want ErrDuplicateKind", err)
	}

	got, ok := b.Payload(messaging.KindWeights)
	if !ok {
		t.Fatal("payload missing after duplicate add")
	}
	if got.Data[0] != 1 {
		t.Error("duplicate add overwrote the original payload")
	}
}

func TestBundle_IdentityFromFirstMessage(t *testing.T) {
	b := messaging.NewBundle("fc-0", []messaging.Kind{messaging.KindActivations, messaging.KindGradients})

	if err := b.Add(trainingMsg(7, 3, 1, messaging.KindActivations, "fc-0")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if b.Seq() != 7 {
		t.Errorf("Seq() = %d, want 7", b.Seq())
	}
	if b.Step() != 3 {
		t.Errorf("Step() = %d, want 3", b.Step())
	}
	if b.Epoch() != 1 {
		t.Errorf("Epoch() = %d, want 1", b.Epoch())
	}
}

func TestBundle_MissingKinds(t *testing.T) {
	b := messaging.NewBundle("fc-0", []messaging.Kind{messaging.KindActivations, messaging.KindGradients})

	if err := b.Add(trainingMsg(1, 0, 0, messaging.KindGradients, "fc-0")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	missing := b.MissingKinds()
	if len(missing) != 1 || missing[0] != messaging.KindActivations {
		t.Errorf("MissingKinds() = %v, want [activations]", missing)
	}
}
