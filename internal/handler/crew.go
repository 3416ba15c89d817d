package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// createCrewRequest is the body of POST /crews.
type createCrewRequest struct {
	ID string `json:"id"`
}

// CreateCrew handles POST /crews. The client generates the human-readable
// crew ID and retries with a fresh one on 409.
func (s *Server) CreateCrew(w http.ResponseWriter, r *http.Request) {
	var req createCrewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	crew, err := s.crews.Create(r.Context(), req.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, crew)
}

// GetCrew handles GET /crews/{crewID}.
func (s *Server) GetCrew(w http.ResponseWriter, r *http.Request) {
	crew, err := s.crews.GetByID(r.Context(), chi.URLParam(r, "crewID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, crew)
}
