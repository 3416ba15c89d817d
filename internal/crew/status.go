package crew

import (
	"sort"

	"github.com/google/uuid"

	"github.com/crewlink/crewlink/internal/domain"
)

// State is the sync core's connectivity state for the active session.
type State string

const (
	// StateIdle: no session. The only terminal state, reached via leave or
	// session invalidation.
	StateIdle State = "idle"

	// StateSubscribing: session set, membership subscription requested, no
	// snapshot yet.
	StateSubscribing State = "subscribing"

	// StateLive: snapshots are flowing.
	StateLive State = "live"

	// StateDegraded: the feed errored or went silent past the bounded wait.
	// Outbound pushes continue; the next successful snapshot returns to Live.
	StateDegraded State = "degraded"
)

// Status is the derived view the presentation layer renders from. It is
// recomputed on demand, never stored.
type Status struct {
	State       State
	IsConnected bool

	// LastPushOK is nil until the first push attempt, then reports the most
	// recent push outcome.
	LastPushOK *bool

	// CrewID and SelfID identify the active session; zero values when idle.
	CrewID string
	SelfID uuid.UUID

	// Members is the cached snapshot of the crew, sorted by name for stable
	// rendering. Always a fresh copy; callers may keep it.
	Members []domain.Member
}

// Status returns a consistent copy of the engine's derived state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Status{
		State:       e.state,
		IsConnected: e.state == StateLive,
	}
	if e.lastPushOK != nil {
		ok := *e.lastPushOK
		s.LastPushOK = &ok
	}
	if e.sess != nil {
		s.CrewID = e.sess.CrewID
		s.SelfID = e.sess.Member.ID
	}
	s.Members = make([]domain.Member, len(e.members))
	copy(s.Members, e.members)
	sort.Slice(s.Members, func(i, j int) bool {
		if s.Members[i].Name != s.Members[j].Name {
			return s.Members[i].Name < s.Members[j].Name
		}
		return s.Members[i].ID.String() < s.Members[j].ID.String()
	})
	return s
}

// Center picks the map center: the device's own position when known,
// otherwise the first crew member with a usable location.
func (e *Engine) Center() (domain.Location, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lastReading != nil {
		return e.lastReading.Location(), true
	}
	for _, m := range e.members {
		if m.CurrentLocation.Lat != 0 || m.CurrentLocation.Lng != 0 {
			return m.CurrentLocation, true
		}
	}
	return domain.Location{}, false
}
