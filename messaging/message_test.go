package messaging_test

import (
	"testing"

	"github.com/modeltap/modeltap/messaging"
	"github.com/modeltap/modeltap/tensor"
)

func TestMessage_Constructors(t *testing.T) {
	payload := tensor.FromSlice([]float64{1, 2})

	tests := []struct {
		name      string
		msg       *messaging.Message
		wantClass messaging.Class
		wantMeta  bool
	}{
		{
			name:      "training message",
			msg:       messaging.NewTrainingMessage(4, 2, 1, messaging.KindActivations, "fc-0", payload),
			wantClass: messaging.ClassTraining,
			wantMeta:  false,
		},
		{
			name:      "meta message",
			msg:       messaging.NewMetaMessage(4, 2, 1, messaging.KindNetworkOutput, "network", payload),
			wantClass: messaging.ClassMeta,
			wantMeta:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.msg.Class != tt.wantClass {
				t.Errorf("Class = %v, want %v", tt.msg.Class, tt.wantClass)
			}
			if tt.msg.IsMeta() != tt.wantMeta {
				t.Errorf("IsMeta() = %v, want %v", tt.msg.IsMeta(), tt.wantMeta)
			}
			if tt.msg.Seq != 4 || tt.msg.Step != 2 || tt.msg.Epoch != 1 {
				t.Errorf("identity = %d/%d/%d, want 4/2/1", tt.msg.Seq, tt.msg.Step, tt.msg.Epoch)
			}
			if tt.msg.Payload != payload {
				t.Error("Payload should be carried as-is")
			}
		})
	}
}

func TestMessage_WithTagDoesNotMutate(t *testing.T) {
	msg := messaging.NewTrainingMessage(1, 0, 0, messaging.KindWeights, "fc-0", nil)
	tagged := msg.WithTag("run-a")

	if msg.Tag != "" {
		t.Errorf("original Tag = %q, want empty", msg.Tag)
	}
	if tagged.Tag != "run-a" {
		t.Errorf("tagged Tag = %q, want run-a", tagged.Tag)
	}
	if tagged.Seq != msg.Seq || tagged.Kind != msg.Kind {
		t.Error("WithTag should preserve all other fields")
	}
}
