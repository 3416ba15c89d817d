// Package memory is an in-process CrewStore used by the sync core tests and
// the client's demo mode. It keeps every crew in a map and delivers change
// notifications synchronously after each mutation.
package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crewlink/crewlink/internal/domain"
	"github.com/crewlink/crewlink/internal/store"
)

// Ensure Store implements the contract.
var _ store.CrewStore = (*Store)(nil)

type subscriber struct {
	crewID   string
	onChange func()
	onError  func(error)
}

// Store is the in-memory CrewStore. The error-injection setters let tests
// simulate remote failures on specific operations.
type Store struct {
	mu      sync.Mutex
	crews   map[string]domain.Crew
	members map[string]map[uuid.UUID]domain.Member
	subs    map[int]*subscriber
	nextSub int
	now     func() time.Time
	rng     *rand.Rand

	upsertLocationErr error
	deleteErr         error
	fetchErr          error
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		crews:   make(map[string]domain.Crew),
		members: make(map[string]map[uuid.UUID]domain.Member),
		subs:    make(map[int]*subscriber),
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetClock replaces the store's clock. Tests use this to control last_update
// stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SetUpsertLocationErr makes subsequent UpsertLocation calls fail with err
// (nil restores normal behavior).
func (s *Store) SetUpsertLocationErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertLocationErr = err
}

// SetDeleteMemberErr makes subsequent DeleteMember calls fail with err.
func (s *Store) SetDeleteMemberErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteErr = err
}

// SetFetchMembersErr makes subsequent FetchMembers calls fail with err.
func (s *Store) SetFetchMembersErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErr = err
}

// EmitSubscriptionError delivers err to every subscriber of crewID, as a
// remote feed would on failure, timeout, or close.
func (s *Store) EmitSubscriptionError(crewID string, err error) {
	for _, onError := range s.collectOnError(crewID) {
		onError(err)
	}
}

// FetchMembers returns a snapshot copy of the crew's members.
func (s *Store) FetchMembers(ctx context.Context, crewID string) ([]domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if _, ok := s.crews[crewID]; !ok {
		return nil, fmt.Errorf("memory: crew %q: %w", crewID, domain.ErrNotFound)
	}
	out := make([]domain.Member, 0, len(s.members[crewID]))
	for _, m := range s.members[crewID] {
		out = append(out, m)
	}
	return out, nil
}

// Subscribe registers the callbacks for crewID change notifications.
func (s *Store) Subscribe(ctx context.Context, crewID string, onChange func(), onError func(error)) (store.Subscription, error) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = &subscriber{crewID: crewID, onChange: onChange, onError: onError}
	s.mu.Unlock()

	return store.NewSubscription(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}), nil
}

// UpsertLocation records a member's latest position, stamping last_update.
func (s *Store) UpsertLocation(ctx context.Context, crewID string, memberID uuid.UUID, loc domain.Location, speed float64) error {
	s.mu.Lock()
	if s.upsertLocationErr != nil {
		err := s.upsertLocationErr
		s.mu.Unlock()
		return err
	}
	m, ok := s.members[crewID][memberID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("memory: member %s in crew %q: %w", memberID, crewID, domain.ErrNotFound)
	}
	m.CurrentLocation = loc
	m.Speed = speed
	m.LastUpdate = s.now()
	s.members[crewID][memberID] = m
	s.mu.Unlock()

	s.notify(crewID)
	return nil
}

// CreateCrew registers a new crew ID.
func (s *Store) CreateCrew(ctx context.Context, crewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.crews[crewID]; ok {
		return fmt.Errorf("memory: crew %q: %w", crewID, domain.ErrConflict)
	}
	s.crews[crewID] = domain.Crew{ID: crewID, CreatedAt: s.now()}
	s.members[crewID] = make(map[uuid.UUID]domain.Member)
	return nil
}

// CreateMember registers a brand-new member of an existing crew.
func (s *Store) CreateMember(ctx context.Context, crewID string, memberID uuid.UUID, name, color string) (domain.Member, error) {
	s.mu.Lock()
	if _, ok := s.crews[crewID]; !ok {
		s.mu.Unlock()
		return domain.Member{}, fmt.Errorf("memory: crew %q: %w", crewID, domain.ErrNotFound)
	}
	m := domain.Member{
		ID:         memberID,
		Name:       name,
		Color:      color,
		Path:       []domain.Location{},
		LastUpdate: s.now(),
	}
	s.members[crewID][memberID] = m
	s.mu.Unlock()

	s.notify(crewID)
	return m, nil
}

// UpsertMember inserts or updates a member. Rejoining updates the name and
// keeps the existing color and location.
func (s *Store) UpsertMember(ctx context.Context, crewID string, memberID uuid.UUID, name string) (domain.Member, error) {
	s.mu.Lock()
	if _, ok := s.crews[crewID]; !ok {
		s.mu.Unlock()
		return domain.Member{}, fmt.Errorf("memory: crew %q: %w", crewID, domain.ErrNotFound)
	}
	m, ok := s.members[crewID][memberID]
	if !ok {
		m = domain.Member{ID: memberID, Path: []domain.Location{}}
	}
	m.Name = name
	m.LastUpdate = s.now()
	s.members[crewID][memberID] = m
	s.mu.Unlock()

	s.notify(crewID)
	return m, nil
}

// DeleteMember removes a member's record.
func (s *Store) DeleteMember(ctx context.Context, crewID string, memberID uuid.UUID) error {
	s.mu.Lock()
	if s.deleteErr != nil {
		err := s.deleteErr
		s.mu.Unlock()
		return err
	}
	if _, ok := s.members[crewID][memberID]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("memory: member %s in crew %q: %w", memberID, crewID, domain.ErrNotFound)
	}
	delete(s.members[crewID], memberID)
	s.mu.Unlock()

	s.notify(crewID)
	return nil
}

// Drift nudges every member of crewID by a small random step, like the
// original demo fixture: the client's --demo mode calls this on a ticker so
// the map has something to show.
func (s *Store) Drift(crewID string) {
	s.mu.Lock()
	for id, m := range s.members[crewID] {
		m.CurrentLocation.Lat += (s.rng.Float64() - 0.5) * 0.0005
		m.CurrentLocation.Lng += (s.rng.Float64() - 0.5) * 0.0005
		m.Speed = s.rng.Float64() * 15
		m.LastUpdate = s.now()
		s.members[crewID][id] = m
	}
	s.mu.Unlock()

	s.notify(crewID)
}

// notify invokes onChange for every subscriber of crewID. Callbacks run
// outside the store lock so they can call back into the store (the sync core
// re-fetches the member list from inside onChange).
func (s *Store) notify(crewID string) {
	s.mu.Lock()
	var callbacks []func()
	for _, sub := range s.subs {
		if sub.crewID == crewID && sub.onChange != nil {
			callbacks = append(callbacks, sub.onChange)
		}
	}
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
}

func (s *Store) collectOnError(crewID string) []func(error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var callbacks []func(error)
	for _, sub := range s.subs {
		if sub.crewID == crewID && sub.onError != nil {
			callbacks = append(callbacks, sub.onError)
		}
	}
	return callbacks
}
