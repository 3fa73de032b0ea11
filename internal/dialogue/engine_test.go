package dialogue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobbridge/jobbridge/backend/bot-services/internal/catalog"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/messaging"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/registration"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/session"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/staging"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/verify"
)

const testUser = "27831234567"

type fakeMessenger struct {
	texts    []string
	buttons  []string
	lists    []string
	lastBody string
}

func (f *fakeMessenger) SendText(ctx context.Context, to, body string) error {
	f.texts = append(f.texts, body)
	f.lastBody = body
	return nil
}

func (f *fakeMessenger) SendButtons(ctx context.Context, to, body string, buttons []messaging.Button) error {
	f.buttons = append(f.buttons, body)
	f.lastBody = body
	return nil
}

func (f *fakeMessenger) SendList(ctx context.Context, to, body, buttonLabel string, sections []messaging.Section) error {
	f.lists = append(f.lists, body)
	f.lastBody = body
	return nil
}

func (f *fakeMessenger) SendMedia(ctx context.Context, to, url, caption string) error {
	f.lastBody = caption
	return nil
}

type fakeFetcher struct {
	err error
}

func (f *fakeFetcher) Fetch(ctx context.Context, mediaID string) ([]byte, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return []byte("jpeg-bytes-" + mediaID), "image/jpeg", nil
}

type fakeVerifier struct {
	result verify.Result
	err    error
	calls  int
}

func (f *fakeVerifier) VerifyNationalID(ctx context.Context, idNumber string) (verify.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeFinalizer struct {
	calls  int
	err    error
	last   registration.FinalizeInput
	onSucc func(ctx context.Context, userID string)
}

func (f *fakeFinalizer) Finalize(ctx context.Context, userID string, in registration.FinalizeInput) (*registration.FinalizeResult, error) {
	f.calls++
	f.last = in
	if f.err != nil {
		return nil, f.err
	}
	if f.onSucc != nil {
		f.onSucc(ctx, userID)
	}
	return &registration.FinalizeResult{IdentityID: "identity-1", ProfileID: "profile-1", Documents: len(in.Documents)}, nil
}

type harness struct {
	engine    *Engine
	sessions  *session.Service
	messenger *fakeMessenger
	verifier  *fakeVerifier
	finalizer *fakeFinalizer
	store     *registration.MemoryStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := session.NewService(session.NewRedisRepository(client, "", time.Hour), StepIdle.String())
	h := &harness{
		sessions:  sessions,
		messenger: &fakeMessenger{},
		verifier:  &fakeVerifier{result: verify.Result{Matched: true, FirstName: "Thandi", LastName: "Mokoena"}},
		finalizer: &fakeFinalizer{},
		store:     registration.NewMemoryStore(),
	}
	// finalization clears the session the way the real transaction does
	h.finalizer.onSucc = func(ctx context.Context, userID string) {
		_ = sessions.ResetToInitial(ctx, userID, map[string]any{"profileId": "profile-1"})
	}
	h.engine = NewEngine(
		sessions,
		session.NewOptOutRegister(client),
		staging.NewStager(&fakeFetcher{}, 0, 0),
		h.verifier,
		h.finalizer,
		h.messenger,
		h.store,
	)
	return h
}

func (h *harness) send(t *testing.T, ev Event) {
	t.Helper()
	require.NoError(t, h.engine.HandleEvent(context.Background(), testUser, ev))
}

func (h *harness) step(t *testing.T) Step {
	t.Helper()
	sess, err := h.sessions.Get(context.Background(), testUser)
	require.NoError(t, err)
	if sess == nil {
		return StepIdle
	}
	return Step(sess.Step)
}

func (h *harness) payload(t *testing.T) map[string]any {
	t.Helper()
	sess, err := h.sessions.Get(context.Background(), testUser)
	require.NoError(t, err)
	require.NotNil(t, sess)
	return sess.Payload
}

// walks a new user up to the title selection step
func (h *harness) advanceToTitles(t *testing.T, categoryID string) {
	t.Helper()
	h.send(t, TextEvent("hi"))
	h.send(t, ButtonEvent(btnConsentYes))
	h.send(t, TextEvent("8001015009087"))
	h.send(t, MediaEvent("media-id-doc", "image/jpeg"))
	h.send(t, MediaEvent("media-selfie", "image/jpeg"))
	h.send(t, TextEvent("thandi@example.com"))
	h.send(t, TextEvent("Soweto, Johannesburg"))
	require.Equal(t, StepSelectCategory, h.step(t))
	h.send(t, RowEvent(categoryID))
	require.Equal(t, StepSelectTitle, h.step(t))
}

func TestEngine_GreetingToVerifiedIdentity(t *testing.T) {
	h := newHarness(t)

	h.send(t, TextEvent("hi"))
	assert.Equal(t, StepConsent, h.step(t))
	assert.Contains(t, h.messenger.buttons[0], "Do you agree?")

	h.send(t, ButtonEvent(btnConsentYes))
	assert.Equal(t, StepIDNumber, h.step(t))

	h.send(t, TextEvent("800101 5009 087"))
	assert.Equal(t, StepIDUpload, h.step(t))
	assert.Equal(t, 1, h.verifier.calls)

	p := h.payload(t)
	assert.Equal(t, "8001015009087", p["idNumber"])
	assert.Equal(t, true, p["homeAffairsVerified"])
	assert.Equal(t, "Thandi", p["firstName"])
	assert.Equal(t, "male", p["sex"])
}

func TestEngine_InvalidIDNumberStays(t *testing.T) {
	h := newHarness(t)
	h.send(t, TextEvent("hi"))
	h.send(t, ButtonEvent(btnConsentYes))

	h.send(t, TextEvent("8001015009086")) // bad checksum
	assert.Equal(t, StepIDNumber, h.step(t))
	assert.Equal(t, promptIDNumberInvalid, h.messenger.lastBody)
	assert.Zero(t, h.verifier.calls, "invalid numbers must not reach the registry")
}

func TestEngine_RegistryMismatchStays(t *testing.T) {
	h := newHarness(t)
	h.verifier.result = verify.Result{Matched: false}
	h.send(t, TextEvent("hi"))
	h.send(t, ButtonEvent(btnConsentYes))

	h.send(t, TextEvent("8001015009087"))
	assert.Equal(t, StepIDNumber, h.step(t))
	assert.Equal(t, promptIDNotFound, h.messenger.lastBody)
}

func TestEngine_RegistryErrorIsSurfaced(t *testing.T) {
	h := newHarness(t)
	h.verifier.err = errors.New("registry timeout")
	h.send(t, TextEvent("hi"))
	h.send(t, ButtonEvent(btnConsentYes))

	err := h.engine.HandleEvent(context.Background(), testUser, TextEvent("8001015009087"))
	require.Error(t, err)
	assert.Equal(t, StepIDNumber, h.step(t))
	assert.Equal(t, promptGenericError, h.messenger.lastBody)
}

func TestEngine_ConsentDeclineOptsOut(t *testing.T) {
	h := newHarness(t)
	h.send(t, TextEvent("hi"))
	h.send(t, ButtonEvent(btnConsentNo))

	assert.Equal(t, StepIdle, h.step(t))
	assert.Equal(t, promptConsentDeclined, h.messenger.lastBody)

	// a fresh greeting re-enters the flow and clears the opt-out
	h.send(t, TextEvent("hello"))
	assert.Equal(t, StepConsent, h.step(t))
}

func TestEngine_SkipDrainsQueueAndFinalizesOnce(t *testing.T) {
	h := newHarness(t)
	h.advanceToTitles(t, "cat_care")

	// Nanny requires three documents beyond ID and selfie
	h.send(t, RowEvent("title_nanny"))
	require.Equal(t, StepUploadRequired, h.step(t))

	pending := h.payload(t)["pendingDocuments"].([]any)
	require.Len(t, pending, 3)
	assert.Equal(t, catalog.DocFirstAid, pending[0])

	h.send(t, ButtonEvent(btnSkipDoc))
	assert.Len(t, h.payload(t)["pendingDocuments"], 2)
	assert.Zero(t, h.finalizer.calls)

	h.send(t, TextEvent("skip"))
	assert.Len(t, h.payload(t)["pendingDocuments"], 1)
	assert.Zero(t, h.finalizer.calls)

	h.send(t, ButtonEvent(btnSkipDoc))
	assert.Equal(t, 1, h.finalizer.calls, "empty queue triggers finalization exactly once")
	assert.Equal(t, StepIdle, h.step(t))
	assert.Equal(t, promptRegistered, h.messenger.lastBody)

	// only the identity documents survive three skips
	types := make([]string, 0, len(h.finalizer.last.Documents))
	for _, d := range h.finalizer.last.Documents {
		types = append(types, d.Type)
	}
	assert.Equal(t, []string{catalog.DocIDDocument, catalog.DocSelfie}, types)
}

func TestEngine_EmptyChecklistFinalizesImmediately(t *testing.T) {
	h := newHarness(t)
	h.advanceToTitles(t, "cat_domestic")

	h.send(t, RowEvent("title_cleaner"))
	assert.Equal(t, 1, h.finalizer.calls)
	assert.Equal(t, StepIdle, h.step(t))

	in := h.finalizer.last
	assert.Equal(t, testUser, in.Phone)
	assert.Equal(t, "thandi@example.com", in.Email)
	assert.Equal(t, "cat_domestic", in.CategoryID)
	assert.Equal(t, "title_cleaner", in.TitleID)
	assert.True(t, in.IDVerified)
	assert.Len(t, in.Documents, 2)
}

func TestEngine_UploadedDocumentsKeepChecklistOrder(t *testing.T) {
	h := newHarness(t)
	h.advanceToTitles(t, "cat_driving")

	h.send(t, RowEvent("title_pdp_driver"))
	require.Equal(t, StepUploadRequired, h.step(t))

	h.send(t, MediaEvent("media-licence", "image/jpeg"))
	h.send(t, MediaEvent("media-pdp", "image/jpeg"))

	require.Equal(t, 1, h.finalizer.calls)
	types := make([]string, 0, 4)
	for _, d := range h.finalizer.last.Documents {
		types = append(types, d.Type)
	}
	assert.Equal(t, []string{catalog.DocIDDocument, catalog.DocSelfie, catalog.DocDriversLic, catalog.DocPDPPermit}, types)
}

func TestEngine_FinalizeFailureRetries(t *testing.T) {
	h := newHarness(t)
	h.advanceToTitles(t, "cat_domestic")

	h.finalizer.err = errors.New("mongo down")
	err := h.engine.HandleEvent(context.Background(), testUser, RowEvent("title_cleaner"))
	require.Error(t, err)
	assert.Equal(t, 1, h.finalizer.calls)
	assert.Equal(t, StepUploadRequired, h.step(t), "failed commit leaves the session in the pre-finalization step")
	assert.Equal(t, promptGenericError, h.messenger.lastBody)

	// any further event retries the commit without re-collecting
	h.finalizer.err = nil
	h.send(t, TextEvent("try again"))
	assert.Equal(t, 2, h.finalizer.calls)
	assert.Equal(t, StepIdle, h.step(t))
}

func TestEngine_MismatchedEventReprompts(t *testing.T) {
	h := newHarness(t)
	h.send(t, TextEvent("hi"))
	h.send(t, ButtonEvent(btnConsentYes))
	require.Equal(t, StepIDNumber, h.step(t))

	h.send(t, MediaEvent("media-1", "image/jpeg"))
	assert.Equal(t, StepIDNumber, h.step(t), "media while expecting text does not advance")

	h.send(t, TextEvent("8001015009087"))
	require.Equal(t, StepIDUpload, h.step(t))
	h.send(t, TextEvent("here you go"))
	assert.Equal(t, StepIDUpload, h.step(t), "text while expecting media does not advance")
}

func TestEngine_StagingFailureKeepsQueuePosition(t *testing.T) {
	h := newHarness(t)
	h.advanceToTitles(t, "cat_driving")
	h.send(t, RowEvent("title_driver"))
	require.Equal(t, StepUploadRequired, h.step(t))

	broken := staging.NewStager(&fakeFetcher{err: errors.New("media expired")}, 0, 0)
	h.engine.stager = broken
	h.send(t, MediaEvent("media-licence", "image/jpeg"))
	assert.Len(t, h.payload(t)["pendingDocuments"], 1, "failed download does not advance the queue")
	assert.Zero(t, h.finalizer.calls)
}

func TestEngine_GlobalKeywords(t *testing.T) {
	h := newHarness(t)
	h.send(t, TextEvent("hi"))
	h.send(t, ButtonEvent(btnConsentYes))
	require.Equal(t, StepIDNumber, h.step(t))

	h.send(t, TextEvent("help"))
	assert.Equal(t, StepIDNumber, h.step(t), "help does not change state")
	assert.Equal(t, promptHelp, h.messenger.lastBody)

	h.send(t, TextEvent("cancel"))
	assert.Equal(t, StepIdle, h.step(t))
}

func TestEngine_ReturningUserMenu(t *testing.T) {
	h := newHarness(t)
	_, err := h.store.Create(context.Background(), &registration.Identity{
		Phone:     testUser,
		FirstName: "Sipho",
	})
	require.NoError(t, err)

	h.send(t, TextEvent("hi"))
	assert.Equal(t, StepIdle, h.step(t))
	assert.Contains(t, h.messenger.lastBody, "Sipho")

	h.send(t, ButtonEvent(btnFindJobs))
	assert.Equal(t, promptComingSoon, h.messenger.lastBody)
}
