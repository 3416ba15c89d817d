package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewlink/crewlink/internal/domain"
)

func TestCreateCrew(t *testing.T) {
	h := newTestRouter(&mockCrewService{
		create: func(_ context.Context, id string) (domain.Crew, error) {
			return domain.Crew{ID: id, CreatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}, nil
		},
	}, nil)

	rec := doRequest(t, h, http.MethodPost, "/crews", strings.NewReader(`{"id":"quick-river-482"}`))

	require.Equal(t, http.StatusCreated, rec.Code)

	var got domain.Crew
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "quick-river-482", got.ID)
}

func TestCreateCrew_Conflict(t *testing.T) {
	h := newTestRouter(&mockCrewService{
		create: func(context.Context, string) (domain.Crew, error) {
			return domain.Crew{}, domain.ErrConflict
		},
	}, nil)

	rec := doRequest(t, h, http.MethodPost, "/crews", strings.NewReader(`{"id":"quick-river-482"}`))

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"conflict"`)
}

func TestCreateCrew_MalformedJSON(t *testing.T) {
	h := newTestRouter(&mockCrewService{
		create: func(context.Context, string) (domain.Crew, error) {
			t.Fatal("service must not be reached for malformed JSON")
			return domain.Crew{}, nil
		},
	}, nil)

	rec := doRequest(t, h, http.MethodPost, "/crews", strings.NewReader(`{not json`))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"bad_request"`)
}

func TestCreateCrew_ValidationError(t *testing.T) {
	h := newTestRouter(&mockCrewService{
		create: func(context.Context, string) (domain.Crew, error) {
			return domain.Crew{}, domain.ErrValidation
		},
	}, nil)

	rec := doRequest(t, h, http.MethodPost, "/crews", strings.NewReader(`{"id":"NOPE"}`))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"validation_error"`)
}

func TestGetCrew(t *testing.T) {
	h := newTestRouter(&mockCrewService{
		getByID: func(_ context.Context, id string) (domain.Crew, error) {
			return domain.Crew{ID: id}, nil
		},
	}, nil)

	rec := doRequest(t, h, http.MethodGet, "/crews/quick-river-482", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "quick-river-482")
}

func TestGetCrew_NotFound(t *testing.T) {
	h := newTestRouter(&mockCrewService{
		getByID: func(context.Context, string) (domain.Crew, error) {
			return domain.Crew{}, domain.ErrNotFound
		},
	}, nil)

	rec := doRequest(t, h, http.MethodGet, "/crews/ghost-crew-000", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"not_found"`)
}
