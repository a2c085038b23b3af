package subscribe

import (
	"fmt"

	"github.com/modeltap/modeltap/messaging"
	"github.com/modeltap/modeltap/observability"
)

// SynchronizedSubscription buffers messages until a round (one training
// step) completes, so subscribers always see a consistent cross-kind
// snapshot. Bundles are delivered and evicted individually the moment
// their last expected kind arrives; a round never waits for other keys.
//
// Round lifecycle per instance: no round → in round(seq) → no round → ...
// A message bearing a new sequence number closes the current round, and
// any bundle still incomplete at that point is a fatal protocol violation:
// the producer promised a kind that never arrived. Sequence numbers must
// never decrease.
type SynchronizedSubscription struct {
	*Subscription

	roundActive bool
	currentSeq  uint64
	lastSeq     uint64
	seenRound   bool
	bundles     map[string]*messaging.Bundle
	observer    observability.Observer
}

// NewSynchronizedSubscription creates a subscription that delivers
// complete per-round bundles to subscriber.
func NewSynchronizedSubscription(subscriber Subscriber, kinds []messaging.Kind, opts ...Option) (*SynchronizedSubscription, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newSynchronized(subscriber, kinds, cfg)
}

func newSynchronized(subscriber Subscriber, kinds []messaging.Kind, cfg config) (*SynchronizedSubscription, error) {
	base, err := newSubscription(subscriber, kinds, cfg)
	if err != nil {
		return nil, err
	}

	s := &SynchronizedSubscription{
		Subscription: base,
		bundles:      make(map[string]*messaging.Bundle),
		observer:     cfg.observer,
	}
	base.dispatch = s.buffer
	return s, nil
}

// EpochFinished closes the round in progress, surfacing any incomplete
// bundle, then forwards the boundary to the subscriber.
func (s *SynchronizedSubscription) EpochFinished(epoch int) error {
	if err := s.closeRound(); err != nil {
		return err
	}
	s.roundActive = false
	return s.Subscription.EpochFinished(epoch)
}

// buffer is the synchronized dispatch hook.
func (s *SynchronizedSubscription) buffer(msg *messaging.Message) error {
	if s.seenRound && msg.Seq < s.lastSeq {
		return fmt.Errorf("%w: got seq %d after seq %d", messaging.ErrSeqRegression, msg.Seq, s.lastSeq)
	}

	if !s.roundActive || msg.Seq != s.currentSeq {
		if err := s.closeRound(); err != nil {
			return err
		}
		s.openRound(msg.Seq)
	}

	bundle, ok := s.bundles[msg.Key]
	if !ok {
		bundle = messaging.NewBundle(msg.Key, s.kinds)
		s.bundles[msg.Key] = bundle
	}

	if err := bundle.Add(msg); err != nil {
		return err
	}

	// Only the bundle just added to can have become complete, so the
	// delivery order across keys is exactly the order in which each key's
	// last required kind was observed.
	if bundle.Complete() {
		delete(s.bundles, msg.Key)

		observability.Emit(s.observer, EventBundleComplete, observability.LevelDebug, "subscription", map[string]any{
			"key": bundle.Key(),
			"seq": bundle.Seq(),
		})
		return s.subscriber.ProcessData(bundle)
	}
	return nil
}

func (s *SynchronizedSubscription) openRound(seq uint64) {
	s.roundActive = true
	s.currentSeq = seq
	s.lastSeq = seq
	s.seenRound = true
	s.bundles = make(map[string]*messaging.Bundle)

	observability.Emit(s.observer, EventRoundOpen, observability.LevelDebug, "subscription", map[string]any{
		"seq": seq,
	})
}

// closeRound verifies that no bundle of the current round is still
// waiting for kinds. Complete bundles are evicted on delivery, so anything
// left here is a producer bug; discarding it silently would corrupt the
// metrics downstream.
func (s *SynchronizedSubscription) closeRound() error {
	for key, bundle := range s.bundles {
		if !bundle.Complete() {
			return fmt.Errorf("%w: key %q in round %d still missing %v",
				messaging.ErrIncompleteRound, key, s.currentSeq, bundle.MissingKinds())
		}
	}
	return nil
}
