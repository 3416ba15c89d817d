package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crewlink/crewlink/internal/domain"
	"github.com/crewlink/crewlink/internal/metrics"
)

// createMemberRequest is the body of POST /crews/{crewID}/members.
type createMemberRequest struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
}

// upsertMemberRequest is the body of PUT /crews/{crewID}/members/{memberID}.
type upsertMemberRequest struct {
	Name string `json:"name"`
}

// locationRequest is the body of PUT /crews/{crewID}/members/{memberID}/location.
type locationRequest struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Speed float64 `json:"speed"`
}

// membersResponse is the body of GET /crews/{crewID}/members.
type membersResponse struct {
	Members []domain.Member `json:"members"`
}

// ListMembers handles GET /crews/{crewID}/members. This is the full-refresh
// snapshot clients re-fetch on every change notification.
func (s *Server) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.members.ListByCrew(r.Context(), chi.URLParam(r, "crewID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, membersResponse{Members: members})
}

// CreateMember handles POST /crews/{crewID}/members.
func (s *Server) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	member, err := s.members.Create(r.Context(), chi.URLParam(r, "crewID"), req.ID, req.Name, req.Color)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

// UpsertMember handles PUT /crews/{crewID}/members/{memberID} — the join
// operation. Idempotent: rejoining updates the existing member.
func (s *Server) UpsertMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDParam(w, r)
	if !ok {
		return
	}
	var req upsertMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	member, err := s.members.Upsert(r.Context(), chi.URLParam(r, "crewID"), memberID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

// UpdateLocation handles PUT /crews/{crewID}/members/{memberID}/location —
// the push operation, the hottest endpoint on the server. Responds 204: the
// pusher has no use for its own echo.
func (s *Server) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDParam(w, r)
	if !ok {
		return
	}
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	loc := domain.Location{Lat: req.Lat, Lng: req.Lng}
	if _, err := s.members.UpdateLocation(r.Context(), chi.URLParam(r, "crewID"), memberID, loc, req.Speed); err != nil {
		writeError(w, err)
		return
	}
	metrics.LocationPushes.Inc()
	w.WriteHeader(http.StatusNoContent)
}

// DeleteMember handles DELETE /crews/{crewID}/members/{memberID} — the leave
// operation.
func (s *Server) DeleteMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDParam(w, r)
	if !ok {
		return
	}
	if err := s.members.Delete(r.Context(), chi.URLParam(r, "crewID"), memberID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
