package backend

import "log/slog"

// SlogBackend logs each metric point. Useful for quick console runs where
// no plotting frontend is attached.
type SlogBackend struct {
	config PlotConfig
	logger *slog.Logger
}

// NewSlogBackend creates a backend that logs points at info level. The
// plot title becomes the log message.
func NewSlogBackend(config PlotConfig, logger *slog.Logger) *SlogBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogBackend{config: config, logger: logger}
}

func (b *SlogBackend) AddData(identifier string, value float64, seq uint64) error {
	b.logger.Info(
		b.config.Title,
		slog.String("identifier", identifier),
		slog.Float64("value", value),
		slog.Uint64("seq", seq),
	)
	return nil
}

func (b *SlogBackend) Close() error {
	return nil
}
