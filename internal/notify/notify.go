// Package notify provides the single-slot transient notification channel used
// for all sync-core-originated user feedback: geolocation errors, connectivity
// loss, push failures, session-restore failures.
package notify

import (
	"sync"
	"time"
)

// Kind distinguishes informational from error toasts.
type Kind string

const (
	Info  Kind = "info"
	Error Kind = "error"
)

// Toast is one transient user-facing message.
type Toast struct {
	Message string
	Kind    Kind
}

// DefaultTTL is how long a toast stays visible before auto-dismissing.
const DefaultTTL = 3500 * time.Millisecond

// Notifier holds at most one live toast. A new toast replaces the current one
// (latest wins); an expired toast reads as absent. Safe for concurrent use.
type Notifier struct {
	mu      sync.Mutex
	current *Toast
	shownAt time.Time
	ttl     time.Duration
	now     func() time.Time
}

// New returns a Notifier with the default 3.5s auto-dismiss.
func New() *Notifier {
	return &Notifier{ttl: DefaultTTL, now: time.Now}
}

// NewWithClock returns a Notifier with an injected clock and TTL, for tests.
func NewWithClock(ttl time.Duration, now func() time.Time) *Notifier {
	return &Notifier{ttl: ttl, now: now}
}

// Infof posts an informational toast.
func (n *Notifier) Infof(message string) { n.push(Toast{Message: message, Kind: Info}) }

// Errorf posts an error toast.
func (n *Notifier) Errorf(message string) { n.push(Toast{Message: message, Kind: Error}) }

func (n *Notifier) push(t Toast) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = &t
	n.shownAt = n.now()
}

// Current returns the live toast, or nil if none is showing or the last one
// has expired.
func (n *Notifier) Current() *Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil || n.now().Sub(n.shownAt) >= n.ttl {
		return nil
	}
	t := *n.current
	return &t
}

// Dismiss clears the current toast immediately. Idempotent.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = nil
}
