package subscribe

import "errors"

// ErrConfiguration is returned at construction time for invalid subscriber
// setups (wrong kind count, non-positive subsample factor). It is fatal to
// that subscriber's setup only; other subscribers are unaffected.
var ErrConfiguration = errors.New("invalid subscriber configuration")
