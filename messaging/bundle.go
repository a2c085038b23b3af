package messaging

import (
	"fmt"

	"github.com/modeltap/modeltap/tensor"
)

// Bundle accumulates the payloads of one key within one round, one per
// expected kind. Its identity (seq, step, epoch) is established by the
// first message added; every later message must agree with it. A bundle is
// owned by the subscription that created it until delivery, after which
// consumers treat it as read-only.
type Bundle struct {
	key      string
	expected []Kind
	data     map[Kind]*tensor.Tensor

	seq   uint64
	step  int
	epoch int

	// identitySet distinguishes "no message yet" from a legitimate
	// seq/step/epoch of zero.
	identitySet bool
}

// NewBundle creates an empty bundle for key that expects exactly the given
// kinds.
func NewBundle(key string, kinds []Kind) *Bundle {
	return &Bundle{
		key:      key,
		expected: append([]Kind(nil), kinds...),
		data:     make(map[Kind]*tensor.Tensor, len(kinds)),
	}
}

// Add records a message's payload under its kind. The first message fixes
// the bundle's seq/step/epoch; later messages failing to match them return
// ErrIdentityMismatch. A kind outside the expected set returns
// ErrUnexpectedKind, and a kind already present returns ErrDuplicateKind;
// payloads are never silently overwritten.
func (b *Bundle) Add(msg *Message) error {
	if msg.Key != b.key {
		return fmt.Errorf("%w: message key %q, bundle key %q", ErrIdentityMismatch, msg.Key, b.key)
	}

	if !b.identitySet {
		b.seq = msg.Seq
		b.step = msg.Step
		b.epoch = msg.Epoch
		b.identitySet = true
	} else {
		if msg.Seq != b.seq {
			return fmt.Errorf("%w: message seq %d, bundle seq %d", ErrIdentityMismatch, msg.Seq, b.seq)
		}
		if msg.Step != b.step {
			return fmt.Errorf("%w: message step %d, bundle step %d", ErrIdentityMismatch, msg.Step, b.step)
		}
		if msg.Epoch != b.epoch {
			return fmt.Errorf("%w: message epoch %d, bundle epoch %d", ErrIdentityMismatch, msg.Epoch, b.epoch)
		}
	}

	if !b.expects(msg.Kind) {
		return fmt.Errorf("%w: %q (bundle for %q expects %v)", ErrUnexpectedKind, msg.Kind, b.key, b.expected)
	}
	if _, exists := b.data[msg.Kind]; exists {
		return fmt.Errorf("%w: %q for key %q in round %d", ErrDuplicateKind, msg.Kind, b.key, b.seq)
	}

	b.data[msg.Kind] = msg.Payload
	return nil
}

// Complete reports whether every expected kind has been received.
func (b *Bundle) Complete() bool {
	return len(b.data) == len(b.expected)
}

// Payload returns the payload stored for kind, or false if it has not
// arrived.
func (b *Bundle) Payload(kind Kind) (*tensor.Tensor, bool) {
	p, ok := b.data[kind]
	return p, ok
}

// MissingKinds returns the expected kinds not yet received, in expectation
// order.
func (b *Bundle) MissingKinds() []Kind {
	var missing []Kind
	for _, k := range b.expected {
		if _, ok := b.data[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

// Key returns the unit label or meta key this bundle groups.
func (b *Bundle) Key() string { return b.key }

// Seq returns the round the bundle belongs to. Zero until the first
// message arrives.
func (b *Bundle) Seq() uint64 { return b.seq }

// Step returns the in-epoch iteration of the bundled messages.
func (b *Bundle) Step() int { return b.step }

// Epoch returns the epoch of the bundled messages.
func (b *Bundle) Epoch() int { return b.epoch }

// Kinds returns the expected kind set in its original order.
func (b *Bundle) Kinds() []Kind {
	return append([]Kind(nil), b.expected...)
}

func (b *Bundle) expects(kind Kind) bool {
	for _, k := range b.expected {
		if k == kind {
			return true
		}
	}
	return false
}

func (b *Bundle) String() string {
	return fmt.Sprintf("Bundle{Key: %s, Kinds: %v, Seq: %d, Complete: %t}", b.key, b.expected, b.seq, b.Complete())
}
