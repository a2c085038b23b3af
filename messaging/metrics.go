package messaging

import "sync/atomic"

// MetricsSnapshot is a point-in-time copy of bus counters.
type MetricsSnapshot struct {
	Subscriptions int64
	Published     int64
	Deliveries    int64
}

// Metrics tracks bus activity. Counters are atomic so diagnostic readers
// may sample them from other goroutines even though delivery itself is
// single-threaded.
type Metrics struct {
	subscriptions atomic.Int64
	published     atomic.Int64
	deliveries    atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordSubscription(delta int) {
	m.subscriptions.Add(int64(delta))
}

func (m *Metrics) RecordPublished(delta int) {
	m.published.Add(int64(delta))
}

func (m *Metrics) RecordDelivery(delta int) {
	m.deliveries.Add(int64(delta))
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Subscriptions: m.subscriptions.Load(),
		Published:     m.published.Load(),
		Deliveries:    m.deliveries.Load(),
	}
}
