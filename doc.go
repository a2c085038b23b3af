// Package modeltap is the assembly layer for live training
// instrumentation: it turns a JSON Config into a wired Runtime holding
// one message bus, one exporter, and the configured metric subscribers.
//
// The subpackages carry the actual machinery: messaging (bus, message,
// bundle), subscribe (subscriptions and metric subscribers), export (the
// producer side), backend (value sinks), tensor (payload math), and
// observability (lifecycle events). Applications that need non-standard
// wiring can skip this package and compose those directly.
package modeltap
