package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*mr.Miniredis, *RedisRepository) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	return m, NewRedisRepository(client, "test:botsession:", 7*24*time.Hour)
}

func TestRedisRepository_UpsertGetDelete(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()

	s := &Session{
		UserID:  "27831234567",
		Step:    "CONSENT",
		Payload: map[string]any{"greeted": true},
	}
	require.NoError(t, repo.Upsert(ctx, s))
	require.False(t, s.LastActivityAt.IsZero(), "Upsert must refresh LastActivityAt")

	got, err := repo.Get(ctx, "27831234567")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "CONSENT", got.Step)
	require.Equal(t, true, got.Payload["greeted"])

	// unknown user yields nil, nil
	none, err := repo.Get(ctx, "27830000000")
	require.NoError(t, err)
	require.Nil(t, none)

	require.NoError(t, repo.Delete(ctx, "27831234567"))
	gone, err := repo.Get(ctx, "27831234567")
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestRedisRepository_UpsertReplacesPayload(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &Session{UserID: "u1", Step: "ID_NUMBER", Payload: map[string]any{"a": "1", "b": "2"}}))
	require.NoError(t, repo.Upsert(ctx, &Session{UserID: "u1", Step: "ID_UPLOAD", Payload: map[string]any{"a": "9"}}))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "ID_UPLOAD", got.Step)
	require.Equal(t, "9", got.Payload["a"])
	_, hasB := got.Payload["b"]
	require.False(t, hasB, "Upsert is a full payload replace")
}

func TestRedisRepository_ExpireOlderThan(t *testing.T) {
	m, repo := newTestRepo(t)
	ctx := context.Background()

	stale := &Session{
		UserID:         "stale",
		Step:           "EMAIL",
		Payload:        map[string]any{},
		LastActivityAt: time.Now().UTC().Add(-8 * 24 * time.Hour),
	}
	// write the stale session directly so Upsert doesn't refresh its clock
	b, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, m.Set("test:botsession:stale", string(b)))

	require.NoError(t, repo.Upsert(ctx, &Session{UserID: "fresh", Step: "IDLE", Payload: map[string]any{}}))

	n, err := repo.ExpireOlderThan(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	gone, err := repo.Get(ctx, "stale")
	require.NoError(t, err)
	require.Nil(t, gone)

	kept, err := repo.Get(ctx, "fresh")
	require.NoError(t, err)
	require.NotNil(t, kept)
}
