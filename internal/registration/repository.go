package registration

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// IdentityRepository defines persistence for base identities. Find methods
// return (nil, nil) when no record matches.
type IdentityRepository interface {
	FindByContact(ctx context.Context, phone, email string) (*Identity, error)
	Create(ctx context.Context, id *Identity) (*Identity, error)
}

// ProfileRepository persists base profiles, one per identity.
type ProfileRepository interface {
	FindByIdentity(ctx context.Context, identityID string) (*Profile, error)
	Create(ctx context.Context, p *Profile) (*Profile, error)
}

// WorkerProfileRepository persists worker registration profiles.
type WorkerProfileRepository interface {
	FindByIdentity(ctx context.Context, identityID string) (*WorkerProfile, error)
	Create(ctx context.Context, p *WorkerProfile) (*WorkerProfile, error)
}

// DocumentRepository persists document records.
type DocumentRepository interface {
	FindByOwnerAndType(ctx context.Context, identityID, typeCode string) (*DocumentRecord, error)
	Insert(ctx context.Context, d *DocumentRecord) error
}

// MongoIdentityRepository implements IdentityRepository using MongoDB.
type MongoIdentityRepository struct {
	col *mongo.Collection
}

func NewMongoIdentityRepository(col *mongo.Collection) *MongoIdentityRepository {
	return &MongoIdentityRepository{col: col}
}

func (r *MongoIdentityRepository) FindByContact(ctx context.Context, phone, email string) (*Identity, error) {
	or := []bson.M{}
	if phone != "" {
		or = append(or, bson.M{"phone": phone})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return nil, nil
	}
	var id Identity
	if err := r.col.FindOne(ctx, bson.M{"$or": or}).Decode(&id); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &id, nil
}

func (r *MongoIdentityRepository) Create(ctx context.Context, id *Identity) (*Identity, error) {
	now := time.Now().UTC()
	if id.ID == "" {
		id.ID = uuid.NewString()
	}
	id.CreatedAt = now
	id.UpdatedAt = now
	if _, err := r.col.InsertOne(ctx, id); err != nil {
		return nil, err
	}
	return id, nil
}

// MongoProfileRepository implements ProfileRepository using MongoDB.
type MongoProfileRepository struct {
	col *mongo.Collection
}

func NewMongoProfileRepository(col *mongo.Collection) *MongoProfileRepository {
	return &MongoProfileRepository{col: col}
}

func (r *MongoProfileRepository) FindByIdentity(ctx context.Context, identityID string) (*Profile, error) {
	var p Profile
	if err := r.col.FindOne(ctx, bson.M{"identityId": identityID}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *MongoProfileRepository) Create(ctx context.Context, p *Profile) (*Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC()
	if _, err := r.col.InsertOne(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// MongoWorkerProfileRepository implements WorkerProfileRepository using MongoDB.
type MongoWorkerProfileRepository struct {
	col *mongo.Collection
}

func NewMongoWorkerProfileRepository(col *mongo.Collection) *MongoWorkerProfileRepository {
	return &MongoWorkerProfileRepository{col: col}
}

func (r *MongoWorkerProfileRepository) FindByIdentity(ctx context.Context, identityID string) (*WorkerProfile, error) {
	var p WorkerProfile
	if err := r.col.FindOne(ctx, bson.M{"identityId": identityID}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *MongoWorkerProfileRepository) Create(ctx context.Context, p *WorkerProfile) (*WorkerProfile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC()
	if _, err := r.col.InsertOne(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// MongoDocumentRepository implements DocumentRepository using MongoDB.
type MongoDocumentRepository struct {
	col *mongo.Collection
}

func NewMongoDocumentRepository(col *mongo.Collection) *MongoDocumentRepository {
	return &MongoDocumentRepository{col: col}
}

func (r *MongoDocumentRepository) FindByOwnerAndType(ctx context.Context, identityID, typeCode string) (*DocumentRecord, error) {
	var d DocumentRecord
	err := r.col.FindOne(ctx, bson.M{"identityId": identityID, "typeCode": typeCode}).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *MongoDocumentRepository) Insert(ctx context.Context, d *DocumentRecord) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = DocStatusPending
	}
	d.UploadedAt = time.Now().UTC()
	_, err := r.col.InsertOne(ctx, d)
	return err
}
