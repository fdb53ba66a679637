package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"pickem-go/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func exerciseStore(t *testing.T, store PendingPickStore) {
	t.Helper()
	ctx := context.Background()
	token := uuid.NewString()

	merged, err := store.Stage(ctx, token, models.NewPendingPicks(models.PickCandidate{GameID: 1, TeamID: 10}))
	require.NoError(t, err)
	assert.Equal(t, 1, merged.Len())

	merged, err = store.Stage(ctx, token, models.NewPendingPicks(
		models.PickCandidate{GameID: 2, TeamID: 20},
		models.PickCandidate{GameID: 1, TeamID: 11},
	))
	require.NoError(t, err)
	assert.Equal(t, []models.PickCandidate{{GameID: 2, TeamID: 20}, {GameID: 1, TeamID: 11}}, merged.Candidates())

	taken, err := store.Take(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, merged.Candidates(), taken.Candidates())

	again, err := store.Take(ctx, token)
	require.NoError(t, err)
	assert.True(t, again.IsEmpty(), "take forgets the staged picks")
}

func TestMemoryPendingPickStore(t *testing.T) {
	exerciseStore(t, NewMemoryPendingPickStore())
}

func TestMemoryPendingPickStore_Expires(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryPendingPickStore()

	now := time.Date(2024, 4, 18, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, err := store.Stage(ctx, "abc", models.NewPendingPicks(models.PickCandidate{GameID: 1, TeamID: 10}))
	require.NoError(t, err)

	now = now.Add(PendingPicksTTL)
	picks, err := store.Take(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, picks.IsEmpty())
}

func TestRedisPendingPickStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_URL")
	if addr == "" || testing.Short() {
		t.Skip("REDIS_TEST_URL not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 1})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { client.Close() })

	exerciseStore(t, NewRedisPendingPickStore(client))
}

func TestRedisPendingPickStore_ConcurrentStagesAllLand(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_URL")
	if addr == "" || testing.Short() {
		t.Skip("REDIS_TEST_URL not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 1})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { client.Close() })

	store := NewRedisPendingPickStore(client)
	ctx := context.Background()
	token := uuid.NewString()

	const tabs = 4
	var g errgroup.Group
	for i := 1; i <= tabs; i++ {
		c := models.PickCandidate{GameID: i, TeamID: i * 10}
		g.Go(func() error {
			_, err := store.Stage(ctx, token, models.NewPendingPicks(c))
			return err
		})
	}
	require.NoError(t, g.Wait())

	taken, err := store.Take(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, tabs, taken.Len())
}
