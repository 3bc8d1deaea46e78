package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodging/internal/app/dto"
	domainrooms "lodging/internal/domain/rooms"
	"lodging/internal/domain/shared/daterange"
)

func TestEntryKeyIncludesGenerationAndWindow(t *testing.T) {
	w, err := daterange.NewWindow(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "lodging:availability:R:3:2024-06-01:2024-06-30", entryKey("R", 3, w))
	assert.Equal(t, "lodging:availability:gen:R", generationKey("R"))
}

// Runs against a real server when REDIS_ADDR is set.
func TestAvailabilityCacheAgainstRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := Connect(ctx, Options{Addr: addr})
	require.NoError(t, err)
	defer client.Close()

	cache := NewAvailabilityCache(client, time.Minute)
	room := domainrooms.RoomID("test-" + uuid.NewString())
	w, _ := daterange.NewWindow(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC))
	value := dto.RoomAvailability{RoomID: string(room), From: "2024-06-01", To: "2024-06-02"}

	gen, err := cache.Generation(ctx, room)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	require.NoError(t, cache.Put(ctx, room, gen, w, value))
	got, ok, err := cache.Get(ctx, room, gen, w)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value.RoomID, got.RoomID)

	require.NoError(t, cache.Invalidate(ctx, room))
	next, _ := cache.Generation(ctx, room)
	assert.Equal(t, int64(1), next)

	require.NoError(t, cache.Put(ctx, room, gen, w, value))
	_, ok, _ = cache.Get(ctx, room, next, w)
	assert.False(t, ok, "a put for an old generation is dropped")
}
