package subscribe

import "github.com/modeltap/modeltap/observability"

const (
	EventRoundOpen      observability.EventType = "subscription.round.open"
	EventBundleComplete observability.EventType = "subscription.bundle.complete"
)
