package export

import "errors"

// ErrStepNotStarted is returned when a payload is published before the
// first Step of the run. Publishing under an unstarted iteration would
// stamp artifacts with a sequence number no round owns.
var ErrStepNotStarted = errors.New("publish before first step")
