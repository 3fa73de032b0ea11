package session

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository provides conversation-session persistence operations.
// Get returns (nil, nil) when no session exists for the user.
type Repository interface {
	Get(ctx context.Context, userID string) (*Session, error)
	Upsert(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID string) error
	ExpireOlderThan(ctx context.Context, maxAge time.Duration) (int, error)
}

// MongoRepository implements Repository using a Mongo collection; used when
// Redis is not configured.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Get(ctx context.Context, userID string) (*Session, error) {
	var s Session
	if err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&s); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *MongoRepository) Upsert(ctx context.Context, s *Session) error {
	s.LastActivityAt = time.Now().UTC()
	filter := bson.M{"_id": s.UserID}
	repl := bson.M{"$set": bson.M{
		"step":           s.Step,
		"payload":        s.Payload,
		"lastActivityAt": s.LastActivityAt,
	}}
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, filter, repl, opts)
	return err
}

func (r *MongoRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": userID})
	return err
}

func (r *MongoRepository) ExpireOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	res, err := r.col.DeleteMany(ctx, bson.M{"lastActivityAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}
