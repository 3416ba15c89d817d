// Package geo wraps the device's continuous position reporting behind a small
// Source interface. A Source yields a lazy, infinite stream of readings or
// classified failures; it never terminates on its own, only when the caller
// cancels the watch.
package geo

import (
	"context"
	"time"

	"github.com/crewlink/crewlink/internal/domain"
)

// FailureKind classifies why a position sample could not be produced.
type FailureKind string

const (
	// PermissionDenied means the user has not granted location access.
	// Durable: it will not self-resolve without user action outside the app.
	PermissionDenied FailureKind = "permission-denied"

	// PositionUnavailable means the device could not compute a fix.
	// Transient: poor signal, indoors, cold GPS start.
	PositionUnavailable FailureKind = "position-unavailable"

	// Timeout means no fix arrived within the configured window. Transient.
	Timeout FailureKind = "timeout"

	// Unsupported means the device has no position capability at all. Durable.
	Unsupported FailureKind = "unsupported"

	// Unknown covers everything else.
	Unknown FailureKind = "unknown"
)

// Durable reports whether the failure is unlikely to self-resolve and should
// be surfaced to the user immediately rather than absorbed.
func (k FailureKind) Durable() bool {
	return k == PermissionDenied || k == Unsupported
}

// Reading is one successful position sample. Readings are ephemeral: they are
// never persisted directly, only the pushes derived from them.
type Reading struct {
	Lat       float64
	Lng       float64
	Speed     float64 // meters per second
	Timestamp time.Time
}

// Location returns the reading's coordinates as a domain Location.
func (r Reading) Location() domain.Location {
	return domain.Location{Lat: r.Lat, Lng: r.Lng}
}

// Failure is one failed position sample.
type Failure struct {
	Kind    FailureKind
	Message string
}

// Error implements the error interface so failures can flow through logging.
func (f *Failure) Error() string {
	if f.Message != "" {
		return f.Message
	}
	return string(f.Kind)
}

// Update is one item of the watch stream: exactly one of Reading or Failure
// is non-nil.
type Update struct {
	Reading *Reading
	Failure *Failure
}

// Options control how eagerly a Source chases fixes.
type Options struct {
	// HighAccuracy requests GPS-grade fixes instead of cell/wifi positioning.
	HighAccuracy bool

	// MaxAge allows reuse of a cached fix up to this old, reducing battery
	// drain on devices that share one sensor across consumers.
	MaxAge time.Duration

	// FirstFixTimeout bounds the wait for the very first fix. Cold GPS starts
	// are slow, so this is longer than FixTimeout.
	FirstFixTimeout time.Duration

	// FixTimeout bounds the wait for every fix after the first.
	FixTimeout time.Duration
}

// DefaultOptions returns the production policy: high accuracy, 30s cached-fix
// reuse, 15s first-fix window, 10s thereafter.
func DefaultOptions() Options {
	return Options{
		HighAccuracy:    true,
		MaxAge:          30 * time.Second,
		FirstFixTimeout: 15 * time.Second,
		FixTimeout:      10 * time.Second,
	}
}

// Source produces a continuous best-effort stream of the device's position.
//
// Watch holds exactly one underlying device subscription; a second Watch call
// while one is active fails. The stream is not buffered from before the call:
// subscribers only see samples taken after they subscribe. Cancelling ctx
// releases the device sensor and closes the channel.
type Source interface {
	Watch(ctx context.Context) (<-chan Update, error)
}

// FailureMessage returns the user-visible message for a failure kind.
// first softens the timeout message for the very first fix, where a slow
// answer usually just means a cold GPS start rather than a real problem.
func FailureMessage(kind FailureKind, first bool) string {
	switch kind {
	case PermissionDenied:
		return "Location permission denied. Enable location access in your device settings to share your position."
	case PositionUnavailable:
		return "Unable to determine your location. Check your device settings."
	case Timeout:
		if first {
			return "Getting your location is taking longer than expected. Make sure you have a clear view of the sky or a strong signal."
		}
		return "Location request timed out. Your position may be updating slowly."
	case Unsupported:
		return "Location services are not supported on this device."
	default:
		return "Location error."
	}
}
