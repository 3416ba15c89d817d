package session_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewlink/crewlink/internal/domain"
	"github.com/crewlink/crewlink/internal/session"
)

func newStore(t *testing.T) *session.Store {
	t.Helper()
	s, err := session.Open(filepath.Join(t.TempDir(), "crewlink", "crew-session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_LoadEmpty(t *testing.T) {
	s := newStore(t)

	sess, err := s.Load(context.Background())

	require.NoError(t, err)
	assert.Nil(t, sess, "empty slot loads as nil, nil")
}

func TestStore_SaveAndLoad(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	in := domain.Session{
		CrewID: "quick-river-482",
		Member: domain.Member{ID: uuid.New(), Name: "Ada", Color: "#EF4444"},
	}
	require.NoError(t, s.Save(ctx, in))

	got, err := s.Load(ctx)

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, in.CrewID, got.CrewID)
	assert.Equal(t, in.Member.ID, got.Member.ID)
	assert.Equal(t, "Ada", got.Member.Name)
	assert.Equal(t, "#EF4444", got.Member.Color)
	assert.True(t, got.Valid())
}

func TestStore_SaveReplacesSlot(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	first := domain.Session{CrewID: "quick-river-482", Member: domain.Member{ID: uuid.New()}}
	second := domain.Session{CrewID: "blue-truck-113", Member: domain.Member{ID: uuid.New()}}

	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "blue-truck-113", got.CrewID, "exactly one session per device; newest wins")
}

func TestStore_Clear(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, domain.Session{
		CrewID: "quick-river-482",
		Member: domain.Member{ID: uuid.New()},
	}))

	require.NoError(t, s.Clear(ctx))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Clearing an already-empty slot is fine.
	require.NoError(t, s.Clear(ctx))
}

func TestStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crew-session.db")
	ctx := context.Background()

	s1, err := session.Open(path)
	require.NoError(t, err)
	in := domain.Session{CrewID: "green-field-733", Member: domain.Member{ID: uuid.New()}}
	require.NoError(t, s1.Save(ctx, in))
	require.NoError(t, s1.Close())

	s2, err := session.Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, in.CrewID, got.CrewID)
	assert.Equal(t, in.Member.ID, got.Member.ID)
}
