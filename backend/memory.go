package backend

import "sync"

// Point is one recorded metric value.
type Point struct {
	Value float64
	Seq   uint64
}

// MemoryBackend stores metric series in process memory, keyed by
// identifier. It doubles as the test backend and as a data source for
// ad-hoc inspection.
type MemoryBackend struct {
	config PlotConfig
	series map[string][]Point
	mu     sync.RWMutex
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend(config PlotConfig) *MemoryBackend {
	return &MemoryBackend{
		config: config,
		series: make(map[string][]Point),
	}
}

func (b *MemoryBackend) AddData(identifier string, value float64, seq uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.series[identifier] = append(b.series[identifier], Point{Value: value, Seq: seq})
	return nil
}

func (b *MemoryBackend) Close() error {
	return nil
}

// Series returns a copy of the points recorded for identifier, in arrival
// order.
func (b *MemoryBackend) Series(identifier string) []Point {
	b.mu.RLock()
	defer b.mu.RUnlock()

	copied := make([]Point, len(b.series[identifier]))
	copy(copied, b.series[identifier])
	return copied
}

// Identifiers returns all identifiers that have recorded at least one
// point.
func (b *MemoryBackend) Identifiers() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.series))
	for id := range b.series {
		ids = append(ids, id)
	}
	return ids
}

// Config returns the display options the backend was constructed with.
func (b *MemoryBackend) Config() PlotConfig {
	return b.config
}
