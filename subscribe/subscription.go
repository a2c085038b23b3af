package subscribe

import (
	"fmt"

	"github.com/modeltap/modeltap/messaging"
)

// counterKey identifies one subsampling stream. Training messages count
// per (key, kind); meta messages count per kind alone, so the key field is
// left empty for them.
type counterKey struct {
	key  string
	kind messaging.Kind
}

// Subscription decides which messages reach a subscriber and in what
// grouping. The base subscription filters by tag, kind, and subsample
// factor, then hands each surviving message to its dispatch hook: by
// default a lone training message is wrapped in a degenerate single-kind
// bundle and delivered immediately, and a meta message is passed through
// as-is. SynchronizedSubscription overrides the hook to buffer per round.
//
// A subscription owns its filtering and buffering state exclusively and is
// driven by a single producer; it must not be shared across buses.
type Subscription struct {
	subscriber Subscriber
	kinds      []messaging.Kind
	tag        string
	subsample  int
	counters   map[counterKey]int

	// dispatch receives every message that survives filtering.
	dispatch func(msg *messaging.Message) error
}

// NewSubscription creates an unsynchronized subscription: every forwarded
// message is delivered on its own.
func NewSubscription(subscriber Subscriber, kinds []messaging.Kind, opts ...Option) (*Subscription, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newSubscription(subscriber, kinds, cfg)
}

func newSubscription(subscriber Subscriber, kinds []messaging.Kind, cfg config) (*Subscription, error) {
	if subscriber == nil {
		return nil, fmt.Errorf("%w: nil subscriber", ErrConfiguration)
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("%w: at least one kind required", ErrConfiguration)
	}
	if cfg.subsample < 1 {
		return nil, fmt.Errorf("%w: subsample factor %d, must be >= 1", ErrConfiguration, cfg.subsample)
	}

	s := &Subscription{
		subscriber: subscriber,
		kinds:      append([]messaging.Kind(nil), kinds...),
		tag:        cfg.tag,
		subsample:  cfg.subsample,
		counters:   make(map[counterKey]int),
	}
	s.dispatch = s.deliverSingle
	return s, nil
}

// Kinds returns the kind set this subscription wants, in order.
func (s *Subscription) Kinds() []messaging.Kind {
	return append([]messaging.Kind(nil), s.kinds...)
}

// Subscriber returns the consumer attached to this subscription.
func (s *Subscription) Subscriber() Subscriber {
	return s.subscriber
}

// HandleMessage filters msg and forwards survivors to the dispatch hook.
// Tag and kind mismatches drop silently; errors only come from dispatch,
// and indicate producer-protocol violations.
func (s *Subscription) HandleMessage(msg *messaging.Message) error {
	if msg.Tag != "" && s.tag != "" && msg.Tag != s.tag {
		return nil
	}
	if !s.wants(msg.Kind) {
		return nil
	}
	if !s.sampled(msg) {
		return nil
	}
	return s.dispatch(msg)
}

// EpochFinished forwards the epoch boundary to the subscriber.
func (s *Subscription) EpochFinished(epoch int) error {
	return s.subscriber.EpochFinished(epoch)
}

// sampled advances the occurrence counter for msg's subsampling key and
// reports whether this occurrence is forwarded. The counter advances on
// every message regardless of the decision, so occurrences 0, N, 2N, ...
// pass for factor N.
func (s *Subscription) sampled(msg *messaging.Message) bool {
	key := counterKey{key: msg.Key, kind: msg.Kind}
	if msg.IsMeta() {
		key.key = ""
	}

	count := s.counters[key]
	s.counters[key] = count + 1
	return count%s.subsample == 0
}

func (s *Subscription) wants(kind messaging.Kind) bool {
	for _, k := range s.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// deliverSingle is the base dispatch hook: a meta message goes straight to
// the subscriber, a training message becomes its own complete single-kind
// bundle.
func (s *Subscription) deliverSingle(msg *messaging.Message) error {
	if msg.IsMeta() {
		return s.subscriber.ProcessMeta(msg)
	}

	bundle := messaging.NewBundle(msg.Key, []messaging.Kind{msg.Kind})
	if err := bundle.Add(msg); err != nil {
		return err
	}
	return s.subscriber.ProcessData(bundle)
}
