// Package backend defines the visualization-backend collaborator consumed
// by subscribers, plus reference implementations: a slog backend for
// console output, an in-memory backend for tests and inspection, and a
// CBOR file backend for persisting metric series.
//
// The messaging core hands a backend scalar data points tagged with the
// producing identifier and round sequence number; how points are rendered
// or persisted is entirely the backend's concern. Retry logic, if any,
// belongs here, never in the messaging layer.
package backend

import "errors"

// Backend receives computed metric values from subscribers. AddData is
// called once per delivered bundle (or meta message) with the identifier
// of the producing unit and the round's sequence number.
type Backend interface {
	AddData(identifier string, value float64, seq uint64) error
	Close() error
}

// PlotConfig is the construction record of recognized display options.
// Backends are free to ignore fields that make no sense for them.
type PlotConfig struct {
	Title  string     `json:"title"`
	XLabel string     `json:"xlabel"`
	YLabel string     `json:"ylabel"`
	YLims  *[2]float64 `json:"ylims,omitempty"`
}

// ErrUnknownBackend is returned by Open for an unregistered backend kind.
var ErrUnknownBackend = errors.New("unknown backend kind")
