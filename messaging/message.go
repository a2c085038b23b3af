package messaging

import (
	"fmt"

	"github.com/modeltap/modeltap/tensor"
)

// Kind is the semantic category of a message payload. The constants below
// cover the artifacts the exporter emits; applications may define further
// kinds for their own meta streams.
type Kind string

const (
	KindActivations   Kind = "activations"
	KindGradients     Kind = "gradients"
	KindWeights       Kind = "weights"
	KindWeightUpdates Kind = "weight_updates"
	KindBiases        Kind = "biases"
	KindBiasUpdates   Kind = "bias_updates"
	KindNetworkOutput Kind = "network_output"
	KindInputLabels   Kind = "input_labels"
)

// Class distinguishes per-unit training artifacts from out-of-band meta
// values. It is the single dispatch point for subscription handling; there
// is no open-ended type inspection anywhere downstream.
type Class string

const (
	ClassTraining Class = "training"
	ClassMeta     Class = "meta"
)

// Message is one emitted artifact, tagged with its full identity. Messages
// are immutable after construction: the producer stamps every field at
// publish time and consumers treat the value as read-only.
type Message struct {
	// Seq identifies the round this message belongs to. It is globally
	// monotonic across all units and kinds, assigned by the producer, and
	// shared by every message of one training iteration.
	Seq uint64

	// Step is the iteration counter within the current epoch. It resets
	// to zero at each epoch boundary, unlike Seq.
	Step int

	// Epoch is the 0-based epoch index.
	Epoch int

	Kind  Kind
	Class Class

	// Key is the stable identity of the producing unit (a layer label),
	// or a free-form grouping key for meta messages.
	Key string

	// Tag is an optional stream label for filtering; the empty tag
	// matches every subscription.
	Tag string

	// Payload is opaque to the messaging core.
	Payload *tensor.Tensor
}

// NewTrainingMessage creates a per-unit training artifact message.
func NewTrainingMessage(seq uint64, step, epoch int, kind Kind, key string, payload *tensor.Tensor) *Message {
	return &Message{
		Seq:     seq,
		Step:    step,
		Epoch:   epoch,
		Kind:    kind,
		Class:   ClassTraining,
		Key:     key,
		Payload: payload,
	}
}

// NewMetaMessage creates an out-of-band message grouped under a free-form
// key rather than a tracked unit.
func NewMetaMessage(seq uint64, step, epoch int, kind Kind, key string, payload *tensor.Tensor) *Message {
	m := NewTrainingMessage(seq, step, epoch, kind, key, payload)
	m.Class = ClassMeta
	return m
}

// IsMeta reports whether the message is out-of-band.
func (m *Message) IsMeta() bool {
	return m.Class == ClassMeta
}

// WithTag returns a copy of the message carrying the given tag. The
// original is left untouched.
func (m *Message) WithTag(tag string) *Message {
	clone := *m
	clone.Tag = tag
	return &clone
}

func (m *Message) String() string {
	return fmt.Sprintf(
		"Message{Seq: %d, Step: %d, Epoch: %d, Kind: %s, Key: %s, Class: %s}",
		m.Seq,
		m.Step,
		m.Epoch,
		m.Kind,
		m.Key,
		m.Class,
	)
}
