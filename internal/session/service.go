package session

import (
	"context"
	"time"
)

// Service wraps repository operations with the merge/reset semantics the
// dialogue engine relies on. initialStep is the step a reset session lands
// on ("IDLE").
type Service struct {
	repo        Repository
	initialStep string
}

func NewService(r Repository, initialStep string) *Service {
	return &Service{repo: r, initialStep: initialStep}
}

// Get returns the current session, or nil when the user has none.
func (s *Service) Get(ctx context.Context, userID string) (*Session, error) {
	return s.repo.Get(ctx, userID)
}

// Upsert fully replaces the session's step and payload and refreshes
// LastActivityAt. Creates the session if absent.
func (s *Service) Upsert(ctx context.Context, userID, step string, payload map[string]any) error {
	if payload == nil {
		payload = map[string]any{}
	}
	return s.repo.Upsert(ctx, &Session{UserID: userID, Step: step, Payload: payload})
}

// MergePayload shallow-merges partial over the existing payload and writes
// the session back. A missing session defaults to the initial step.
// Last-write-wins; a user's events are processed sequentially.
func (s *Service) MergePayload(ctx context.Context, userID string, partial map[string]any) error {
	cur, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if cur == nil {
		cur = &Session{UserID: userID, Step: s.initialStep, Payload: map[string]any{}}
	}
	if cur.Payload == nil {
		cur.Payload = map[string]any{}
	}
	for k, v := range partial {
		cur.Payload[k] = v
	}
	return s.repo.Upsert(ctx, cur)
}

func (s *Service) Delete(ctx context.Context, userID string) error {
	return s.repo.Delete(ctx, userID)
}

// ResetToInitial resets the session to the initial step, keeping only the
// entries in preserve (may be nil).
func (s *Service) ResetToInitial(ctx context.Context, userID string, preserve map[string]any) error {
	payload := map[string]any{}
	for k, v := range preserve {
		payload[k] = v
	}
	return s.repo.Upsert(ctx, &Session{UserID: userID, Step: s.initialStep, Payload: payload})
}

// ExpireOlderThan removes sessions idle beyond maxAge. Run from the admin
// sweep endpoint or the sweeper CLI, not from event handling.
func (s *Service) ExpireOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	return s.repo.ExpireOlderThan(ctx, maxAge)
}

// InitialStep exposes the configured initial step.
func (s *Service) InitialStep() string {
	return s.initialStep
}
