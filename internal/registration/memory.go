package registration

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of all four repositories, used
// by unit tests and by dev deployments without MongoDB.
type MemoryStore struct {
	mu         sync.RWMutex
	identities map[string]*Identity
	profiles   map[string]*Profile
	workers    map[string]*WorkerProfile
	documents  []*DocumentRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		identities: map[string]*Identity{},
		profiles:   map[string]*Profile{},
		workers:    map[string]*WorkerProfile{},
	}
}

func (m *MemoryStore) FindByContact(ctx context.Context, phone, email string) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.identities {
		if (phone != "" && id.Phone == phone) || (email != "" && id.Email == email) {
			cp := *id
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) Create(ctx context.Context, id *Identity) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id.ID == "" {
		id.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	id.CreatedAt = now
	id.UpdatedAt = now
	cp := *id
	m.identities[id.ID] = &cp
	return id, nil
}

// Profiles returns a ProfileRepository view of the store.
func (m *MemoryStore) Profiles() ProfileRepository { return (*memoryProfiles)(m) }

// Workers returns a WorkerProfileRepository view of the store.
func (m *MemoryStore) Workers() WorkerProfileRepository { return (*memoryWorkers)(m) }

// Documents returns a DocumentRepository view of the store.
func (m *MemoryStore) Documents() DocumentRepository { return (*memoryDocuments)(m) }

// CountIdentities reports stored identities; test helper.
func (m *MemoryStore) CountIdentities() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.identities)
}

// CountProfiles reports stored base profiles; test helper.
func (m *MemoryStore) CountProfiles() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.profiles)
}

// DocumentRecords returns a copy of the stored document records; test helper.
func (m *MemoryStore) DocumentRecords() []*DocumentRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*DocumentRecord, len(m.documents))
	copy(out, m.documents)
	return out
}

type memoryProfiles MemoryStore

func (m *memoryProfiles) FindByIdentity(ctx context.Context, identityID string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if p.IdentityID == identityID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryProfiles) Create(ctx context.Context, p *Profile) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC()
	cp := *p
	m.profiles[p.ID] = &cp
	return p, nil
}

type memoryWorkers MemoryStore

func (m *memoryWorkers) FindByIdentity(ctx context.Context, identityID string) (*WorkerProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.workers {
		if p.IdentityID == identityID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryWorkers) Create(ctx context.Context, p *WorkerProfile) (*WorkerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC()
	cp := *p
	m.workers[p.ID] = &cp
	return p, nil
}

type memoryDocuments MemoryStore

func (m *memoryDocuments) FindByOwnerAndType(ctx context.Context, identityID, typeCode string) (*DocumentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.documents {
		if d.IdentityID == identityID && d.TypeCode == typeCode {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryDocuments) Insert(ctx context.Context, d *DocumentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = DocStatusPending
	}
	d.UploadedAt = time.Now().UTC()
	cp := *d
	m.documents = append(m.documents, &cp)
	return nil
}
