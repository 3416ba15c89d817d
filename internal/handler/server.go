// Package handler implements the HTTP surface of the crewd server.
// All handlers are methods on Server; methods are split into resource-specific
// files (crew.go, member.go, events.go, health.go) but share the same struct
// so they can access its dependencies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crewlink/crewlink/internal/domain"
)

// CrewServicer defines the business operations the crew handlers depend on.
// Defining the interface here, in the consumer package, lets handler tests
// inject a mock without touching the database or service layer.
type CrewServicer interface {
	Create(ctx context.Context, id string) (domain.Crew, error)
	GetByID(ctx context.Context, id string) (domain.Crew, error)
}

// MemberServicer defines the business operations the member handlers depend on.
type MemberServicer interface {
	Create(ctx context.Context, crewID string, memberID uuid.UUID, name, color string) (domain.Member, error)
	Upsert(ctx context.Context, crewID string, memberID uuid.UUID, name string) (domain.Member, error)
	UpdateLocation(ctx context.Context, crewID string, memberID uuid.UUID, loc domain.Location, speed float64) (domain.Member, error)
	ListByCrew(ctx context.Context, crewID string) ([]domain.Member, error)
	Delete(ctx context.Context, crewID string, memberID uuid.UUID) error
}

// ChangeFeed hands WebSocket subscribers to the change-feed hub. The handler
// layer only upgrades the connection; fan-out lives in the feed package.
type ChangeFeed interface {
	ServeWS(w http.ResponseWriter, r *http.Request, crewID string)
}

// Server holds the dependencies all HTTP handlers share.
type Server struct {
	crews   CrewServicer
	members MemberServicer
	feed    ChangeFeed
}

// NewServer constructs the Server with all its dependencies. feed may be nil
// in tests that never hit the events endpoint.
func NewServer(crews CrewServicer, members MemberServicer, feed ChangeFeed) *Server {
	return &Server{crews: crews, members: members, feed: feed}
}

// Routes registers every endpoint on r. Mounted under / by the caller, which
// owns the middleware stack.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.GetHealth)

	r.Route("/crews", func(r chi.Router) {
		r.Post("/", s.CreateCrew)
		r.Route("/{crewID}", func(r chi.Router) {
			r.Get("/", s.GetCrew)
			r.Get("/events", s.CrewEvents)
			r.Route("/members", func(r chi.Router) {
				r.Get("/", s.ListMembers)
				r.Post("/", s.CreateMember)
				r.Put("/{memberID}", s.UpsertMember)
				r.Put("/{memberID}/location", s.UpdateLocation)
				r.Delete("/{memberID}", s.DeleteMember)
			})
		})
	})
}

// memberIDParam parses the {memberID} path parameter, writing a 400 itself on
// failure. The bool reports whether the caller should continue.
func memberIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		writeBadRequest(w, "member id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
