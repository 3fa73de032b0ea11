package dialogue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jobbridge/jobbridge/backend/bot-services/internal/staging"
)

// Each phase of the flow has its own typed payload instead of one open bag
// of optional fields. Payloads are stored in the session as a generic map;
// decodePayload / encodePayload convert at the phase boundary, and the
// From* constructors carry forward only the fields the next phase needs.

// IdentityPayload accumulates during the identity-collection phase
// (CONSENT through LOCATION).
type IdentityPayload struct {
	Consented           bool                    `json:"consented"`
	IDNumber            string                  `json:"idNumber,omitempty"`
	FirstName           string                  `json:"firstName,omitempty"`
	LastName            string                  `json:"lastName,omitempty"`
	BirthDate           time.Time               `json:"birthDate,omitempty"`
	Sex                 string                  `json:"sex,omitempty"`
	SACitizen           bool                    `json:"saCitizen,omitempty"`
	HomeAffairsVerified bool                    `json:"homeAffairsVerified,omitempty"`
	IDDocument          *staging.StagedDocument `json:"idDocument,omitempty"`
	Selfie              *staging.StagedDocument `json:"selfie,omitempty"`
	Email               string                  `json:"email,omitempty"`
	Location            string                  `json:"location,omitempty"`
}

// SelectionPayload covers the category/title selection phase.
type SelectionPayload struct {
	IdentityPayload
	CategoryID string `json:"categoryId,omitempty"`
	TitleID    string `json:"titleId,omitempty"`
}

// FromIdentity converts an identity payload into a selection payload when
// the flow crosses into category selection.
func FromIdentity(p IdentityPayload) SelectionPayload {
	return SelectionPayload{IdentityPayload: p}
}

// DocQueuePayload covers the required-document upload phase.
// PendingDocuments is the ordered remainder of the checklist;
// UploadedDocuments maps document label to its staged content.
type DocQueuePayload struct {
	SelectionPayload
	PendingDocuments  []string                          `json:"pendingDocuments"`
	UploadedDocuments map[string]staging.StagedDocument `json:"uploadedDocuments"`
}

// FromSelection converts a selection payload into a document-queue payload
// with the given checklist.
func FromSelection(p SelectionPayload, pending []string) DocQueuePayload {
	q := DocQueuePayload{
		SelectionPayload:  p,
		PendingDocuments:  pending,
		UploadedDocuments: map[string]staging.StagedDocument{},
	}
	if p.IDDocument != nil {
		q.UploadedDocuments[p.IDDocument.Type] = *p.IDDocument
	}
	if p.Selfie != nil {
		q.UploadedDocuments[p.Selfie.Type] = *p.Selfie
	}
	return q
}

// decodePayload reads a typed payload back out of the session's generic map.
func decodePayload[T any](m map[string]any) (T, error) {
	var out T
	b, err := json.Marshal(m)
	if err != nil {
		return out, fmt.Errorf("encode payload map: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decode payload: %w", err)
	}
	return out, nil
}

// encodePayload converts a typed payload into the generic map the session
// store persists.
func encodePayload(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return m, nil
}
