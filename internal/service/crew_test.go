package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewlink/crewlink/internal/domain"
	"github.com/crewlink/crewlink/internal/repo"
	"github.com/crewlink/crewlink/internal/service"
)

// mockCrewRepo is a hand-written test double for repo.CrewRepo.
// Each method is a function field — set only the ones your test needs.
type mockCrewRepo struct {
	create  func(ctx context.Context, id string) (domain.Crew, error)
	getByID func(ctx context.Context, id string) (domain.Crew, error)
}

func (m *mockCrewRepo) Create(ctx context.Context, id string) (domain.Crew, error) {
	return m.create(ctx, id)
}
func (m *mockCrewRepo) GetByID(ctx context.Context, id string) (domain.Crew, error) {
	return m.getByID(ctx, id)
}

// compile-time check: mockCrewRepo must satisfy repo.CrewRepo.
var _ repo.CrewRepo = (*mockCrewRepo)(nil)

func echoCrewRepo() *mockCrewRepo {
	return &mockCrewRepo{
		create: func(_ context.Context, id string) (domain.Crew, error) {
			return domain.Crew{ID: id, CreatedAt: time.Now()}, nil
		},
	}
}

func TestCrewService_Create_Valid(t *testing.T) {
	svc := service.NewCrewService(echoCrewRepo())

	got, err := svc.Create(context.Background(), "quick-river-482")

	require.NoError(t, err)
	assert.Equal(t, "quick-river-482", got.ID)
}

func TestCrewService_Create_MalformedID(t *testing.T) {
	svc := service.NewCrewService(&mockCrewRepo{
		create: func(context.Context, string) (domain.Crew, error) {
			t.Fatal("repo must not be reached for a malformed id")
			return domain.Crew{}, nil
		},
	})

	for _, id := range []string{"", "QUICK-RIVER-482", "quick river 482", "quick-river", "quick-river-48", "quick-river-4821"} {
		_, err := svc.Create(context.Background(), id)
		assert.ErrorIs(t, err, domain.ErrValidation, "id %q", id)
	}
}

func TestCrewService_Create_Conflict(t *testing.T) {
	svc := service.NewCrewService(&mockCrewRepo{
		create: func(context.Context, string) (domain.Crew, error) {
			return domain.Crew{}, domain.ErrConflict
		},
	})

	_, err := svc.Create(context.Background(), "quick-river-482")

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCrewService_GetByID(t *testing.T) {
	svc := service.NewCrewService(&mockCrewRepo{
		getByID: func(_ context.Context, id string) (domain.Crew, error) {
			return domain.Crew{ID: id}, nil
		},
	})

	got, err := svc.GetByID(context.Background(), "quick-river-482")

	require.NoError(t, err)
	assert.Equal(t, "quick-river-482", got.ID)
}

func TestCrewService_GetByID_NotFound(t *testing.T) {
	svc := service.NewCrewService(&mockCrewRepo{
		getByID: func(context.Context, string) (domain.Crew, error) {
			return domain.Crew{}, errors.New("wrapped: " + domain.ErrNotFound.Error())
		},
	})

	_, err := svc.GetByID(context.Background(), "ghost-crew-000")

	require.Error(t, err)
}
