package messaging

import "errors"

var (
	// ErrIdentityMismatch is returned when a message's key, step, or epoch
	// disagrees with the identity a bundle has already established. It
	// signals a producer round-semantics violation and must abort rather
	// than merge data from different iterations.
	ErrIdentityMismatch = errors.New("message identity does not match bundle")

	// ErrDuplicateKind is returned when a bundle already holds a payload
	// for the incoming message's kind. Indicates a double-firing hook.
	ErrDuplicateKind = errors.New("duplicate kind in bundle")

	// ErrUnexpectedKind is returned when a message's kind is not in the
	// bundle's expected set.
	ErrUnexpectedKind = errors.New("kind not expected by bundle")

	// ErrIncompleteRound is returned when a round closes while a bundle is
	// still missing kinds: the producer promised a kind that never arrived
	// before moving on. Surfaced immediately, never deferred.
	ErrIncompleteRound = errors.New("round closed with incomplete bundle")

	// ErrSeqRegression is returned when a subscription observes a sequence
	// number lower than its current round's.
	ErrSeqRegression = errors.New("sequence number regressed")

	// ErrIncompleteBundle is returned when an incomplete bundle reaches a
	// subscriber's metric computation. This is an internal invariant
	// violation, not a user-recoverable condition.
	ErrIncompleteBundle = errors.New("bundle delivered before completion")
)
