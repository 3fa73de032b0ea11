package registration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jobbridge/jobbridge/backend/bot-services/internal/catalog"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/email"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/session"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/staging"
	"github.com/jobbridge/jobbridge/backend/bot-services/pkg/logger"
)

// BlobStore stores decoded documents durably and returns their location.
type BlobStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
}

// FinalizeInput is the fully-accumulated registration payload.
type FinalizeInput struct {
	Phone      string
	Email      string
	FirstName  string
	LastName   string
	IDNumber   string
	BirthDate  time.Time
	Sex        string
	SACitizen  bool
	IDVerified bool
	CategoryID string
	TitleID    string
	Location   string
	Documents  []staging.StagedDocument // checklist order
}

// FinalizeResult reports what the transaction created or reused.
type FinalizeResult struct {
	IdentityID string
	ProfileID  string
	Documents  int
}

// Finalizer runs the multi-record commit that turns an accumulated session
// payload into durable identity, profile and document records. Every step is
// individually idempotent so a retried trigger (webhook redelivery, partial
// failure) never duplicates records.
type Finalizer struct {
	identities IdentityRepository
	profiles   ProfileRepository
	workers    WorkerProfileRepository
	documents  DocumentRepository
	blobs      BlobStore
	sessions   *session.Service
	mailer     email.Mailer
}

func NewFinalizer(
	identities IdentityRepository,
	profiles ProfileRepository,
	workers WorkerProfileRepository,
	documents DocumentRepository,
	blobs BlobStore,
	sessions *session.Service,
	mailer email.Mailer,
) *Finalizer {
	return &Finalizer{
		identities: identities,
		profiles:   profiles,
		workers:    workers,
		documents:  documents,
		blobs:      blobs,
		sessions:   sessions,
		mailer:     mailer,
	}
}

// Finalize executes the ordered commit. A failure at any step aborts the
// remainder and returns an error without touching the session, so the caller
// can leave the user on the pre-finalization step and retry later. Prior
// completed steps are skipped on retry via existence checks.
func (f *Finalizer) Finalize(ctx context.Context, userID string, in FinalizeInput) (*FinalizeResult, error) {
	// 1. identity: reuse an existing record for this contact
	identity, err := f.identities.FindByContact(ctx, in.Phone, in.Email)
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}
	if identity == nil {
		identity, err = f.identities.Create(ctx, &Identity{
			Phone:     in.Phone,
			Email:     in.Email,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Role:      RoleWorker,
		})
		if err != nil {
			return nil, fmt.Errorf("create identity: %w", err)
		}
	}

	// 2. base profile
	profile, err := f.profiles.FindByIdentity(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	if profile == nil {
		profile, err = f.profiles.Create(ctx, &Profile{
			IdentityID:  identity.ID,
			Status:      "active",
			ConsentedAt: time.Now().UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("create profile: %w", err)
		}
	}

	// 3. worker profile
	worker, err := f.workers.FindByIdentity(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("find worker profile: %w", err)
	}
	if worker == nil {
		worker, err = f.workers.Create(ctx, &WorkerProfile{
			IdentityID: identity.ID,
			IDNumber:   in.IDNumber,
			BirthDate:  in.BirthDate,
			Sex:        in.Sex,
			SACitizen:  in.SACitizen,
			IDVerified: in.IDVerified,
			CategoryID: in.CategoryID,
			TitleID:    in.TitleID,
			Location:   in.Location,
		})
		if err != nil {
			return nil, fmt.Errorf("create worker profile: %w", err)
		}
	}

	// 4+5. promote staged documents, preserving checklist order. Identity and
	// profiles exist by now, so a failure here leaves a valid (if
	// document-incomplete) identity rather than orphaned documents.
	stored := 0
	for _, doc := range in.Documents {
		code := catalog.DocumentTypeCode(doc.Type)
		existing, err := f.documents.FindByOwnerAndType(ctx, identity.ID, code)
		if err != nil {
			return nil, fmt.Errorf("find document %s: %w", code, err)
		}
		if existing != nil {
			stored++
			continue
		}
		raw, err := doc.Decode()
		if err != nil {
			return nil, fmt.Errorf("decode document %s: %w", code, err)
		}
		key := fmt.Sprintf("workers/%s/%s", worker.ID, doc.FileName)
		url, err := f.blobs.Upload(ctx, key, bytes.NewReader(raw), int64(len(raw)), doc.MimeType)
		if err != nil {
			return nil, fmt.Errorf("upload document %s: %w", code, err)
		}
		if err := f.documents.Insert(ctx, &DocumentRecord{
			IdentityID: identity.ID,
			ProfileID:  worker.ID,
			TypeCode:   code,
			URL:        url,
			Status:     DocStatusPending,
		}); err != nil {
			return nil, fmt.Errorf("insert document %s: %w", code, err)
		}
		stored++
	}

	// 6. reset the conversation, keeping only the profile reference
	if err := f.sessions.ResetToInitial(ctx, userID, map[string]any{"profileId": worker.ID}); err != nil {
		return nil, fmt.Errorf("reset session: %w", err)
	}

	// 7. welcome email is best-effort
	if in.Email != "" {
		if err := f.mailer.SendTransactional(ctx, "worker_welcome", in.Email, map[string]string{
			"firstName": in.FirstName,
		}); err != nil {
			logger.Warnf("welcome email to %s failed: %v", in.Email, err)
		}
	}

	return &FinalizeResult{IdentityID: identity.ID, ProfileID: worker.ID, Documents: stored}, nil
}
