package session

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// OptOutRegister records identifiers that declined the consent prompt so the
// platform does not keep contacting them. Entries have no TTL; an opt-out
// holds until the user explicitly starts over.
type OptOutRegister struct {
	client *redis.Client
}

// NewOptOutRegister creates the register. A nil client disables it (all
// operations become no-ops).
func NewOptOutRegister(client *redis.Client) *OptOutRegister {
	return &OptOutRegister{client: client}
}

func optOutKey(userID string) string {
	return "optout:" + userID
}

func (o *OptOutRegister) Add(ctx context.Context, userID string) error {
	if o == nil || o.client == nil {
		return nil
	}
	return o.client.Set(ctx, optOutKey(userID), "1", 0).Err()
}

func (o *OptOutRegister) Remove(ctx context.Context, userID string) error {
	if o == nil || o.client == nil {
		return nil
	}
	return o.client.Del(ctx, optOutKey(userID)).Err()
}

func (o *OptOutRegister) Contains(ctx context.Context, userID string) (bool, error) {
	if o == nil || o.client == nil {
		return false, nil
	}
	n, err := o.client.Exists(ctx, optOutKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
