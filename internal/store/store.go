// Package store defines the group membership store contract the sync core
// consumes. The store is remote and multi-writer: it holds each member's last
// known location, speed, and timestamp per crew, and notifies subscribers
// when anything in a crew changes.
//
// Implementations: store/rest speaks to a crewd server over HTTP and
// WebSocket; store/memory is an in-process fake for tests and demo mode.
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/crewlink/crewlink/internal/domain"
)

// CrewStore is the full membership store contract.
//
// Change notifications carry no payload beyond "something changed": consumers
// re-fetch the full member list. Not-found crews surface as domain.ErrNotFound
// and duplicate crew creation as domain.ErrConflict, regardless of backend.
type CrewStore interface {
	// FetchMembers returns an eventually consistent snapshot of the crew's
	// current members.
	FetchMembers(ctx context.Context, crewID string) ([]domain.Member, error)

	// Subscribe registers for change notifications on a crew. onChange fires
	// on any member mutation within the crew; onError fires on subscription
	// failure, timeout, or close, each as a distinct human-readable condition.
	// Both callbacks may be invoked from internal goroutines.
	Subscribe(ctx context.Context, crewID string, onChange func(), onError func(error)) (Subscription, error)

	// UpsertLocation records a member's latest position and speed. The store
	// stamps last_update itself so it is monotonic per member.
	UpsertLocation(ctx context.Context, crewID string, memberID uuid.UUID, loc domain.Location, speed float64) error

	// CreateCrew registers a new crew. Returns domain.ErrConflict if the ID
	// is already taken.
	CreateCrew(ctx context.Context, crewID string) error

	// CreateMember registers memberID as a member of an existing crew.
	CreateMember(ctx context.Context, crewID string, memberID uuid.UUID, name, color string) (domain.Member, error)

	// UpsertMember inserts or updates a member of an existing crew. Rejoining
	// with the same identity updates rather than duplicates. Returns
	// domain.ErrNotFound when the crew does not exist, with no writes done.
	UpsertMember(ctx context.Context, crewID string, memberID uuid.UUID, name string) (domain.Member, error)

	// DeleteMember removes a member's record from a crew.
	DeleteMember(ctx context.Context, crewID string, memberID uuid.UUID) error
}

// Subscription is the cancellable handle returned by Subscribe.
type Subscription interface {
	// Unsubscribe stops the change feed. Idempotent and safe to call from
	// any goroutine; after it returns no further callbacks are delivered.
	Unsubscribe()
}

// NewSubscription wraps stop in an idempotent Subscription.
func NewSubscription(stop func()) Subscription {
	return &subscription{stop: stop}
}

type subscription struct {
	once sync.Once
	stop func()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.stop)
}
