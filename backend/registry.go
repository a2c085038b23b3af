package backend

import (
	"fmt"
	"sync"
)

// Factory constructs a backend from display options. Backends needing
// extra parameters (such as the file backend's path) are registered as
// closures over them.
type Factory func(config PlotConfig) (Backend, error)

var (
	factories = map[string]Factory{
		"slog": func(config PlotConfig) (Backend, error) {
			return NewSlogBackend(config, nil), nil
		},
		"memory": func(config PlotConfig) (Backend, error) {
			return NewMemoryBackend(config), nil
		},
	}
	mutex sync.RWMutex
)

// Register adds or replaces a named backend factory.
func Register(kind string, factory Factory) {
	mutex.Lock()
	defer mutex.Unlock()

	factories[kind] = factory
}

// Open constructs a backend by registered kind name.
// Pre-registered kinds: "slog" and "memory".
func Open(kind string, config PlotConfig) (Backend, error) {
	mutex.RLock()
	factory, exists := factories[kind]
	mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, kind)
	}
	return factory(config)
}
