package core

import (
	"context"
	"errors"
)

// ErrCaptureUnavailable is returned by an ObservationProvider when no display
// or automation surface exists. Callers must degrade to a placeholder
// observation instead of aborting the run.
var ErrCaptureUnavailable = errors.New("screen capture unavailable")

// Observation is a snapshot of the controlled desktop's visual state: the
// encoded image bytes plus a durable reference (a file path) usable by model
// clients that upload files rather than inline bytes.
type Observation struct {
	PNG  []byte // Encoded PNG image data
	Path string // Durable on-disk reference, may be empty for in-memory only observations

	// Placeholder marks an observation synthesized in degraded mode, i.e.
	// the model receives no real visual grounding for this step.
	Placeholder bool
}

// ObservationProvider produces the current-state snapshot consumed at the
// start of every step. Implementations live outside the core loop (screen
// capture, browser tab, test fakes).
type ObservationProvider interface {
	// Capture returns the current observation or ErrCaptureUnavailable when
	// no visual surface exists.
	Capture(ctx context.Context) (Observation, error)
}
