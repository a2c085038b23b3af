// Package subscribe implements the consumer side of the instrumentation
// bus: subscriptions that filter and group the message stream, and
// subscribers that turn grouped payloads into metrics.
//
// # Subscriptions
//
// A Subscription filters by tag, kind, and subsample factor. The base
// subscription delivers every surviving message on its own (a training
// message as a degenerate single-kind bundle, a meta message as-is).
// A SynchronizedSubscription instead buffers messages per round and per
// key, delivering a bundle only once every expected kind has arrived, so
// consumers get a consistent snapshot of one training step.
//
// # Subsampling
//
// Each subscription keeps an occurrence counter per (key, kind), or per
// kind alone for meta messages, and forwards every factor-th occurrence
// (0, N, 2N, ...). Counters advance on every message whether or not it is
// forwarded, so different kinds of the same key stay in lockstep and
// synchronized rounds are either forwarded whole or skipped whole.
//
// # Subscribers
//
// A Subscriber pairs with exactly one subscription. PlotSubscriber is the
// shared base: it asserts completeness, runs the metric computation, and
// forwards the scalar to a visualization backend keyed by the bundle's
// identifier and round. RatioSubscriber, VarianceSubscriber, and
// TrainAccuracySubscriber are thin specializations supplying the metric.
//
// # Error Model
//
// Construction problems (wrong kind count, bad subsample factor) return
// ErrConfiguration. Everything a subscription raises while handling
// messages (identity mismatches, duplicate kinds, abandoned rounds,
// sequence regressions) is a producer-protocol violation that propagates
// to the publisher; nothing is caught and logged internally.
package subscribe
