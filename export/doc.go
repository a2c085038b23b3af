// Package export implements the producer side of the instrumentation bus.
//
// An Exporter sits between a model's training hooks and the messaging
// core: the training loop calls Step once per iteration, the model's
// forward/backward hooks call ObserveActivations and ObserveGradients per
// tracked unit, and the exporter turns those raw tensors into tagged,
// sequence-numbered messages on the bus.
//
// # Counters
//
// The exporter exclusively owns three counters: the global step (monotonic
// across epochs; it becomes the round sequence number), the train step
// (resets at every epoch boundary), and the epoch index (advances only via
// EpochFinished). No external actor mutates them.
//
// # Parameter Deltas
//
// For units exposing weights or biases, the exporter keeps a snapshot of
// the previous value and publishes the per-step delta alongside the
// current value. The first observation publishes a zero delta of the right
// shape so synchronized consumers see their complete kind set from
// iteration one.
//
// # Integration Contract
//
// There is no hook patching or model introspection: the integration
// boundary is explicit method calls. The caller must invoke Step before an
// iteration's payloads, SetMode when switching between training and
// evaluation, and EpochFinished once per epoch.
package export
