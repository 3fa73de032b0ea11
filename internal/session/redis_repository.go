package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository implements Repository using Redis as the backing store.
// Sessions are stored as JSON under key: "botsession:<userID>". A TTL of
// retention+grace is set on every write as a second line of cleanup behind
// the explicit retention sweep.
type RedisRepository struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

// NewRedisRepository creates a Redis-based session repository. Prefix may be
// empty; retention bounds the key TTL.
func NewRedisRepository(client *redis.Client, prefix string, retention time.Duration) *RedisRepository {
	if prefix == "" {
		prefix = "botsession:"
	}
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	return &RedisRepository{client: client, prefix: prefix, retention: retention}
}

func (r *RedisRepository) key(userID string) string {
	return r.prefix + userID
}

func (r *RedisRepository) Get(ctx context.Context, userID string) (*Session, error) {
	b, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisRepository) Upsert(ctx context.Context, s *Session) error {
	s.LastActivityAt = time.Now().UTC()
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	// TTL slightly past the sweep cutoff so the sweep sees the session first
	return r.client.Set(ctx, r.key(s.UserID), b, r.retention+24*time.Hour).Err()
}

func (r *RedisRepository) Delete(ctx context.Context, userID string) error {
	return r.client.Del(ctx, r.key(userID)).Err()
}

// ExpireOlderThan scans the session keyspace and deletes sessions whose
// LastActivityAt precedes the cutoff. Returns the number deleted.
func (r *RedisRepository) ExpireOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", 100).Result()
		if err != nil {
			return deleted, err
		}
		for _, key := range keys {
			b, err := r.client.Get(ctx, key).Bytes()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				return deleted, err
			}
			var s Session
			if err := json.Unmarshal(b, &s); err != nil {
				// unreadable entry: remove it rather than leak it forever
				if delErr := r.client.Del(ctx, key).Err(); delErr == nil {
					deleted++
				}
				continue
			}
			if s.LastActivityAt.Before(cutoff) {
				if err := r.client.Del(ctx, key).Err(); err != nil {
					return deleted, err
				}
				deleted++
			}
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}
