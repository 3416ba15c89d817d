package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoStore_SeedsCrewmatesWithLocations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := demoStore(ctx)

	members, err := st.FetchMembers(ctx, "quick-river-482")
	require.NoError(t, err)
	require.Len(t, members, 2)
	for _, m := range members {
		assert.NotZero(t, m.CurrentLocation.Lat, "%s must start near the sim origin", m.Name)
		assert.NotZero(t, m.CurrentLocation.Lng, "%s must start near the sim origin", m.Name)
		assert.InDelta(t, simLat, m.CurrentLocation.Lat, 0.01)
		assert.InDelta(t, simLng, m.CurrentLocation.Lng, 0.01)
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ada", displayName("  Ada "))
	t.Setenv("USER", "scout")
	assert.Equal(t, "scout", displayName(""))
	t.Setenv("USER", "")
	assert.Equal(t, "anonymous", displayName("   "))
}
