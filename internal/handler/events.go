package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crewlink/crewlink/internal/domain"
)

// CrewEvents handles GET /crews/{crewID}/events: the per-crew change feed.
// The crew must exist before the upgrade — a WebSocket handshake is the wrong
// place to learn about a typo'd crew ID.
func (s *Server) CrewEvents(w http.ResponseWriter, r *http.Request) {
	crewID := chi.URLParam(r, "crewID")

	if _, err := s.crews.GetByID(r.Context(), crewID); err != nil {
		writeError(w, err)
		return
	}
	if s.feed == nil {
		writeError(w, domain.ErrNotFound)
		return
	}
	s.feed.ServeWS(w, r, crewID)
}
