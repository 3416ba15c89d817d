package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/crewlink/crewlink/internal/domain"
	"github.com/crewlink/crewlink/internal/handler"
)

// mockCrewService is a hand-written test double for handler.CrewServicer.
type mockCrewService struct {
	create  func(ctx context.Context, id string) (domain.Crew, error)
	getByID func(ctx context.Context, id string) (domain.Crew, error)
}

func (m *mockCrewService) Create(ctx context.Context, id string) (domain.Crew, error) {
	return m.create(ctx, id)
}
func (m *mockCrewService) GetByID(ctx context.Context, id string) (domain.Crew, error) {
	return m.getByID(ctx, id)
}

var _ handler.CrewServicer = (*mockCrewService)(nil)

// mockMemberService is a hand-written test double for handler.MemberServicer.
type mockMemberService struct {
	create         func(ctx context.Context, crewID string, memberID uuid.UUID, name, color string) (domain.Member, error)
	upsert         func(ctx context.Context, crewID string, memberID uuid.UUID, name string) (domain.Member, error)
	updateLocation func(ctx context.Context, crewID string, memberID uuid.UUID, loc domain.Location, speed float64) (domain.Member, error)
	listByCrew     func(ctx context.Context, crewID string) ([]domain.Member, error)
	delete         func(ctx context.Context, crewID string, memberID uuid.UUID) error
}

func (m *mockMemberService) Create(ctx context.Context, crewID string, memberID uuid.UUID, name, color string) (domain.Member, error) {
	return m.create(ctx, crewID, memberID, name, color)
}
func (m *mockMemberService) Upsert(ctx context.Context, crewID string, memberID uuid.UUID, name string) (domain.Member, error) {
	return m.upsert(ctx, crewID, memberID, name)
}
func (m *mockMemberService) UpdateLocation(ctx context.Context, crewID string, memberID uuid.UUID, loc domain.Location, speed float64) (domain.Member, error) {
	return m.updateLocation(ctx, crewID, memberID, loc, speed)
}
func (m *mockMemberService) ListByCrew(ctx context.Context, crewID string) ([]domain.Member, error) {
	return m.listByCrew(ctx, crewID)
}
func (m *mockMemberService) Delete(ctx context.Context, crewID string, memberID uuid.UUID) error {
	return m.delete(ctx, crewID, memberID)
}

var _ handler.MemberServicer = (*mockMemberService)(nil)

// newTestRouter mounts a Server built from the given mocks on a fresh chi
// router, the same way cmd/crewd does in production.
func newTestRouter(crews handler.CrewServicer, members handler.MemberServicer) http.Handler {
	r := chi.NewRouter()
	handler.NewServer(crews, members, nil).Routes(r)
	return r
}

// doRequest executes an HTTP request against h and returns the recorder.
func doRequest(t *testing.T, h http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetHealth(t *testing.T) {
	rec := doRequest(t, newTestRouter(nil, nil), http.MethodGet, "/healthz", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
