// Package messaging provides the message, bundle, and bus primitives of
// the training-instrumentation core.
//
// This package implements the foundational pub/sub layer: immutable
// messages carrying one tensor artifact each, bundles that group the
// messages of one unit within one round, and a synchronous in-process bus
// fanning messages out to registered handlers.
//
// # Message Identity
//
// Every message carries:
//
//   - Seq: round identifier, globally monotonic, shared by all messages of
//     one training iteration
//   - Step: iteration counter within the epoch (resets at epoch boundary)
//   - Epoch: 0-based epoch index
//   - Kind: semantic category of the payload (activations, gradients, ...)
//   - Key: stable label of the producing unit, or a free-form meta key
//   - Tag: optional stream label for filtering
//
// # Rounds and Bundles
//
// A round is the set of all messages sharing one Seq, nominally one
// training step. A Bundle accumulates the payloads of one key within one
// round until every expected kind is present; adding a message that
// disagrees with the bundle's established identity, or repeats a kind, is
// a fatal protocol error rather than a silent merge.
//
// # Delivery Model
//
// The bus is single-producer and fully synchronous: Publish returns after
// every handler has run, and handler errors propagate to the publisher.
// There is no queueing, no background goroutine, and no retry; invariant
// violations surface at the call site.
package messaging
