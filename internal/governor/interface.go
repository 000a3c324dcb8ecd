package governor

import (
	"context"

	"github.com/kasard/thermactl/internal/thermal"
)

// Throttler is implemented by the encoder/stream layer. The governor
// drives it through these callbacks; every call is idempotent from the
// governor's side (it never repeats a callback for an unchanged state).
type Throttler interface {
	// ReduceBitrate lowers the encode bitrate by the given percentage
	// of the configured baseline. A later call replaces the earlier
	// reduction, it does not stack.
	ReduceBitrate(percent int)

	// ReduceResolution steps the capture down one resolution tier.
	ReduceResolution()

	// ReduceFramerate steps the capture down one framerate tier.
	ReduceFramerate()

	// PauseStreaming suspends encode and upload entirely.
	PauseStreaming()

	// ResumeStreaming restarts a paused stream.
	ResumeStreaming()

	// RestoreSettings reverts bitrate, resolution and framerate to the
	// configured baseline.
	RestoreSettings()

	// AlertUser surfaces a thermal warning to whoever is watching.
	AlertUser(message string)
}

// Recorder receives one status snapshot per evaluation tick. The
// telemetry sink implements this; a nil recorder disables recording.
type Recorder interface {
	Record(ctx context.Context, status thermal.Status) error
}
