package modeltap

import (
	"encoding/json"
	"fmt"
	"os"
)

const defaultBackend = "slog"

// SubscriberSpec configures one metric subscriber.
type SubscriberSpec struct {
	// Type selects the subscriber: "ratio", "variance", or
	// "train_accuracy".
	Type string `json:"type"`

	// Kinds are the message kinds the subscriber consumes. Ignored for
	// train_accuracy, which has a fixed kind pair.
	Kinds []string `json:"kinds,omitempty"`

	Tag       string `json:"tag,omitempty"`
	Subsample int    `json:"subsample,omitempty"`

	// Backend overrides the Config-level backend kind for this
	// subscriber. See Config.Backend for the registration requirements.
	Backend string `json:"backend,omitempty"`

	YLims    *[2]float64 `json:"ylims,omitempty"`
	Absolute *bool       `json:"absolute,omitempty"`
}

// Config holds initialization parameters for a full instrumentation
// setup: the bus, the exporter, and the subscriber roster.
type Config struct {
	// Tag overrides the exporter's default stream tag (its run ID).
	Tag string `json:"tag,omitempty"`

	// Backend is the default backend kind for subscribers that do not
	// name their own. "slog" and "memory" are always available; any
	// other kind, including the CBOR file backend (which needs a path),
	// must be registered by the application with backend.Register before
	// NewRuntime runs.
	Backend string `json:"backend,omitempty"`

	// LegacyLabelNumbering reproduces the historical label-ordinal
	// miscount; see export.WithLegacyLabelNumbering.
	LegacyLabelNumbering bool `json:"legacy_label_numbering,omitempty"`

	Subscribers []SubscriberSpec `json:"subscribers,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend: defaultBackend,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Tag != "" {
		c.Tag = source.Tag
	}
	if source.Backend != "" {
		c.Backend = source.Backend
	}
	if source.LegacyLabelNumbering {
		c.LegacyLabelNumbering = true
	}
	if len(source.Subscribers) > 0 {
		c.Subscribers = source.Subscribers
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and
// returns the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
