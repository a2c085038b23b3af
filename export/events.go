package export

import "github.com/modeltap/modeltap/observability"

const (
	EventStep  observability.EventType = "export.step"
	EventEpoch observability.EventType = "export.epoch"
	EventTrack observability.EventType = "export.track"
	EventMode  observability.EventType = "export.mode"
)
