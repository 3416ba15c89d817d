package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewlink/crewlink/internal/domain"
	"github.com/crewlink/crewlink/internal/logging"
	"github.com/crewlink/crewlink/internal/store/rest"
)

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

func TestClient_FetchMembers(t *testing.T) {
	memberID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/crews/quick-river-482/members", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"members": []map[string]any{{
				"id":    memberID,
				"name":  "Ada",
				"color": "#EF4444",
				"current_location": map[string]float64{
					"lat": 34.0522, "lng": -118.2437,
				},
				"speed": 4.5,
			}},
		})
	}))
	defer srv.Close()

	c := rest.New(srv.URL, logging.SetupClient("error"))

	members, err := c.FetchMembers(context.Background(), "quick-river-482")

	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, memberID, members[0].ID)
	assert.Equal(t, "Ada", members[0].Name)
	assert.Equal(t, 34.0522, members[0].CurrentLocation.Lat)
	assert.Equal(t, 4.5, members[0].Speed)
}

func TestClient_FetchMembers_EmptyCrewIsNotNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"members": nil})
	}))
	defer srv.Close()

	c := rest.New(srv.URL, logging.SetupClient("error"))

	members, err := c.FetchMembers(context.Background(), "quick-river-482")

	require.NoError(t, err)
	assert.NotNil(t, members)
	assert.Empty(t, members)
}

func TestClient_FetchMembers_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "crew not found")
	}))
	defer srv.Close()

	c := rest.New(srv.URL, logging.SetupClient("error"))

	_, err := c.FetchMembers(context.Background(), "ghost-crew-000")

	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "crew not found")
}

func TestClient_CreateCrew_Conflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/crews", r.URL.Path)
		writeError(w, http.StatusConflict, "conflict", "crew already exists")
	}))
	defer srv.Close()

	c := rest.New(srv.URL, logging.SetupClient("error"))

	err := c.CreateCrew(context.Background(), "quick-river-482")

	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestClient_CreateMember(t *testing.T) {
	memberID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/crews/quick-river-482/members", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			ID    uuid.UUID `json:"id"`
			Name  string    `json:"name"`
			Color string    `json:"color"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, memberID, body.ID)
		assert.Equal(t, "Ada", body.Name)
		assert.Equal(t, "#EF4444", body.Color)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id": body.ID, "name": body.Name, "color": body.Color,
		})
	}))
	defer srv.Close()

	c := rest.New(srv.URL, logging.SetupClient("error"))

	m, err := c.CreateMember(context.Background(), "quick-river-482", memberID, "Ada", "#EF4444")

	require.NoError(t, err)
	assert.Equal(t, memberID, m.ID)
	assert.Equal(t, "Ada", m.Name)
}

func TestClient_UpsertMember_MissingCrew(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "crew not found")
	}))
	defer srv.Close()

	c := rest.New(srv.URL, logging.SetupClient("error"))

	_, err := c.UpsertMember(context.Background(), "ghost-crew-000", uuid.New(), "Ada")

	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_UpsertLocation(t *testing.T) {
	memberID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/crews/quick-river-482/members/"+memberID.String()+"/location", r.URL.Path)

		var body struct {
			Lat   float64 `json:"lat"`
			Lng   float64 `json:"lng"`
			Speed float64 `json:"speed"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 34.0522, body.Lat)
		assert.Equal(t, -118.2437, body.Lng)
		assert.Equal(t, 4.5, body.Speed)

		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := rest.New(srv.URL, logging.SetupClient("error"))

	err := c.UpsertLocation(context.Background(), "quick-river-482", memberID,
		domain.Location{Lat: 34.0522, Lng: -118.2437}, 4.5)

	require.NoError(t, err)
}

func TestClient_UpsertLocation_ValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnprocessableEntity, "validation", "lat out of range")
	}))
	defer srv.Close()

	c := rest.New(srv.URL, logging.SetupClient("error"))

	err := c.UpsertLocation(context.Background(), "quick-river-482", uuid.New(),
		domain.Location{Lat: 91, Lng: 0}, 0)

	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "lat out of range")
}

func TestClient_DeleteMember(t *testing.T) {
	memberID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/crews/quick-river-482/members/"+memberID.String(), r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := rest.New(srv.URL, logging.SetupClient("error"))

	require.NoError(t, c.DeleteMember(context.Background(), "quick-river-482", memberID))
}

func TestClient_ServerErrorWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := rest.New(srv.URL, logging.SetupClient("error"))

	err := c.CreateCrew(context.Background(), "quick-river-482")

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrConflict)
	assert.NotErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "500")
}
