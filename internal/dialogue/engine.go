package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/jobbridge/jobbridge/backend/bot-services/internal/catalog"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/messaging"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/normalize"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/registration"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/session"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/staging"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/verify"
	"github.com/jobbridge/jobbridge/backend/bot-services/pkg/logger"
	"github.com/jobbridge/jobbridge/backend/bot-services/pkg/metrics"
)

// FinalizeRunner runs the registration commit; satisfied by
// *registration.Finalizer and by fakes in tests.
type FinalizeRunner interface {
	Finalize(ctx context.Context, userID string, in registration.FinalizeInput) (*registration.FinalizeResult, error)
}

type stepHandler func(ctx context.Context, sess *session.Session, ev Event) error

// Engine is the conversation state machine. Given the current session and an
// inbound event it computes the transition, performs side effects, writes the
// new state back and selects the outbound prompt. All collaborators are
// injected; nothing here holds global state.
type Engine struct {
	sessions   *session.Service
	optOut     *session.OptOutRegister
	stager     *staging.Stager
	verifier   verify.Verifier
	finalizer  FinalizeRunner
	messenger  messaging.Messenger
	identities registration.IdentityRepository
	handlers   map[Step]stepHandler
}

func NewEngine(
	sessions *session.Service,
	optOut *session.OptOutRegister,
	stager *staging.Stager,
	verifier verify.Verifier,
	finalizer FinalizeRunner,
	messenger messaging.Messenger,
	identities registration.IdentityRepository,
) *Engine {
	e := &Engine{
		sessions:   sessions,
		optOut:     optOut,
		stager:     stager,
		verifier:   verifier,
		finalizer:  finalizer,
		messenger:  messenger,
		identities: identities,
	}
	// transition table; adding a step means adding a row here
	e.handlers = map[Step]stepHandler{
		StepIdle:           e.handleIdle,
		StepConsent:        e.handleConsent,
		StepIDNumber:       e.handleIDNumber,
		StepIDUpload:       e.handleIDUpload,
		StepSelfie:         e.handleSelfie,
		StepEmail:          e.handleEmail,
		StepLocation:       e.handleLocation,
		StepSelectCategory: e.handleSelectCategory,
		StepSelectTitle:    e.handleSelectTitle,
		StepUploadRequired: e.handleUploadRequired,
	}
	return e
}

// HandleEvent processes one inbound event for userID. A store failure aborts
// without advancing the step; the next inbound event re-attempts from the
// last persisted state.
func (e *Engine) HandleEvent(ctx context.Context, userID string, ev Event) error {
	sess, err := e.sessions.Get(ctx, userID)
	if err != nil {
		metrics.EventsProcessed.WithLabelValues("unknown", "store_error").Inc()
		return fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		sess = &session.Session{UserID: userID, Step: StepIdle.String(), Payload: map[string]any{}}
	}
	step := Step(sess.Step)

	// global keywords are an escape hatch from any step
	if ev.Type == EventText {
		switch strings.ToLower(strings.TrimSpace(ev.Text)) {
		case "help":
			metrics.EventsProcessed.WithLabelValues(sess.Step, "ok").Inc()
			return e.messenger.SendText(ctx, userID, promptHelp)
		case "cancel":
			if err := e.sessions.ResetToInitial(ctx, userID, nil); err != nil {
				metrics.EventsProcessed.WithLabelValues(sess.Step, "store_error").Inc()
				return fmt.Errorf("reset session: %w", err)
			}
			metrics.EventsProcessed.WithLabelValues(sess.Step, "ok").Inc()
			return e.messenger.SendText(ctx, userID, promptCancelled)
		case "menu":
			if err := e.sessions.ResetToInitial(ctx, userID, nil); err != nil {
				metrics.EventsProcessed.WithLabelValues(sess.Step, "store_error").Inc()
				return fmt.Errorf("reset session: %w", err)
			}
			metrics.EventsProcessed.WithLabelValues(sess.Step, "ok").Inc()
			sess.Step = StepIdle.String()
			sess.Payload = map[string]any{}
			return e.handleIdle(ctx, sess, TextEvent("menu"))
		}
	}

	h, ok := e.handlers[step]
	if !ok {
		logger.Warnf("session %s has unknown step %q, treating as %s", userID, sess.Step, StepIdle)
		h = e.handleIdle
	}
	if err := h(ctx, sess, ev); err != nil {
		metrics.EventsProcessed.WithLabelValues(sess.Step, "error").Inc()
		return err
	}
	metrics.EventsProcessed.WithLabelValues(sess.Step, "ok").Inc()
	return nil
}

var greetings = map[string]bool{
	"hi": true, "hello": true, "hey": true, "menu": true,
	"start": true, "register": true, "good day": true,
}

func (e *Engine) handleIdle(ctx context.Context, sess *session.Session, ev Event) error {
	userID := sess.UserID

	existing, err := e.identities.FindByContact(ctx, userID, "")
	if err != nil {
		// systemic: apologize, do not advance
		_ = e.messenger.SendText(ctx, userID, promptGenericError)
		return fmt.Errorf("identity lookup: %w", err)
	}
	if existing != nil {
		return e.handleReturning(ctx, userID, existing, ev)
	}

	if ev.Type != EventText || !greetings[strings.ToLower(strings.TrimSpace(ev.Text))] {
		// unrecognized input while idle: nudge, no state change
		return e.messenger.SendText(ctx, userID, promptHelp)
	}

	// a fresh greeting clears any earlier opt-out
	if err := e.optOut.Remove(ctx, userID); err != nil {
		logger.Warnf("opt-out clear for %s: %v", userID, err)
	}
	if err := e.sessions.Upsert(ctx, userID, StepConsent.String(), map[string]any{}); err != nil {
		return fmt.Errorf("advance to consent: %w", err)
	}
	return e.messenger.SendButtons(ctx, userID, promptConsent, consentButtons())
}

func (e *Engine) handleReturning(ctx context.Context, userID string, id *registration.Identity, ev Event) error {
	if ev.Type == EventButton {
		switch ev.ButtonID {
		case btnFindJobs, btnMyProfile:
			return e.messenger.SendText(ctx, userID, promptComingSoon)
		case btnHelp:
			return e.messenger.SendText(ctx, userID, promptHelp)
		}
	}
	greeting := "Welcome back"
	if id.FirstName != "" {
		greeting = "Welcome back, " + id.FirstName
	}
	return e.messenger.SendButtons(ctx, userID, greeting+"! What would you like to do?", returningMenuButtons())
}

func (e *Engine) handleConsent(ctx context.Context, sess *session.Session, ev Event) error {
	userID := sess.UserID
	text := strings.ToLower(strings.TrimSpace(ev.Text))

	accepted := ev.ButtonID == btnConsentYes ||
		(ev.Type == EventText && (text == "yes" || text == "y" || text == "agree" || text == "i agree" || text == "accept"))
	declined := ev.ButtonID == btnConsentNo ||
		(ev.Type == EventText && (text == "no" || text == "n" || text == "decline" || text == "no thanks"))

	switch {
	case accepted:
		payload, err := encodePayload(IdentityPayload{Consented: true})
		if err != nil {
			return err
		}
		if err := e.sessions.Upsert(ctx, userID, StepIDNumber.String(), payload); err != nil {
			return fmt.Errorf("advance to id number: %w", err)
		}
		return e.messenger.SendText(ctx, userID, promptIDNumber)
	case declined:
		if err := e.optOut.Add(ctx, userID); err != nil {
			logger.Warnf("opt-out record for %s: %v", userID, err)
		}
		if err := e.sessions.ResetToInitial(ctx, userID, nil); err != nil {
			return fmt.Errorf("reset after decline: %w", err)
		}
		return e.messenger.SendText(ctx, userID, promptConsentDeclined)
	default:
		return e.messenger.SendButtons(ctx, userID, promptConsent, consentButtons())
	}
}

func (e *Engine) handleIDNumber(ctx context.Context, sess *session.Session, ev Event) error {
	userID := sess.UserID
	if ev.Type != EventText {
		return e.messenger.SendText(ctx, userID, promptTextExpected+" "+promptIDNumber)
	}
	details, err := normalize.ValidateIDNumber(ev.Text)
	if err != nil {
		return e.messenger.SendText(ctx, userID, promptIDNumberInvalid)
	}

	res, err := e.verifier.VerifyNationalID(ctx, details.IDNumber)
	if err != nil {
		_ = e.messenger.SendText(ctx, userID, promptGenericError)
		return fmt.Errorf("verify id %s: %w", details.IDNumber, err)
	}
	if !res.Matched {
		return e.messenger.SendText(ctx, userID, promptIDNotFound)
	}

	p, err := decodePayload[IdentityPayload](sess.Payload)
	if err != nil {
		return err
	}
	p.IDNumber = details.IDNumber
	p.BirthDate = details.BirthDate
	p.Sex = string(details.Sex)
	p.SACitizen = details.SACitizen
	p.HomeAffairsVerified = true
	if res.FirstName != "" {
		p.FirstName = res.FirstName
	}
	if res.LastName != "" {
		p.LastName = res.LastName
	}
	payload, err := encodePayload(p)
	if err != nil {
		return err
	}
	if err := e.sessions.Upsert(ctx, userID, StepIDUpload.String(), payload); err != nil {
		return fmt.Errorf("advance to id upload: %w", err)
	}
	return e.messenger.SendText(ctx, userID, promptIDUpload)
}

func (e *Engine) handleIDUpload(ctx context.Context, sess *session.Session, ev Event) error {
	return e.stageIdentityDoc(ctx, sess, ev, catalog.DocIDDocument, StepSelfie, promptSelfie)
}

func (e *Engine) handleSelfie(ctx context.Context, sess *session.Session, ev Event) error {
	return e.stageIdentityDoc(ctx, sess, ev, catalog.DocSelfie, StepEmail, promptEmail)
}

// stageIdentityDoc handles the two mandatory media steps (ID photo, selfie).
func (e *Engine) stageIdentityDoc(ctx context.Context, sess *session.Session, ev Event, docType string, next Step, nextPrompt string) error {
	userID := sess.UserID
	if ev.Type != EventMedia {
		return e.messenger.SendText(ctx, userID, fmt.Sprintf("Please send a photo of your %s.", strings.ToLower(docType)))
	}
	doc, err := e.stager.Stage(ctx, docType, ev.MediaID)
	if err != nil {
		logger.Warnf("staging %s for %s: %v", docType, userID, err)
		return e.messenger.SendText(ctx, userID, "We couldn't download that file. Please send it again.")
	}
	metrics.DocumentsStaged.Inc()

	p, err := decodePayload[IdentityPayload](sess.Payload)
	if err != nil {
		return err
	}
	switch docType {
	case catalog.DocIDDocument:
		p.IDDocument = doc
	case catalog.DocSelfie:
		p.Selfie = doc
	}
	payload, err := encodePayload(p)
	if err != nil {
		return err
	}
	if err := e.sessions.Upsert(ctx, userID, next.String(), payload); err != nil {
		return fmt.Errorf("advance to %s: %w", next, err)
	}
	return e.messenger.SendText(ctx, userID, nextPrompt)
}

func (e *Engine) handleEmail(ctx context.Context, sess *session.Session, ev Event) error {
	userID := sess.UserID
	if ev.Type != EventText {
		return e.messenger.SendText(ctx, userID, promptTextExpected+" "+promptEmail)
	}
	addr, err := normalize.NormalizeEmail(ev.Text)
	if err != nil {
		return e.messenger.SendText(ctx, userID, promptEmailInvalid)
	}
	p, err := decodePayload[IdentityPayload](sess.Payload)
	if err != nil {
		return err
	}
	p.Email = addr
	payload, err := encodePayload(p)
	if err != nil {
		return err
	}
	if err := e.sessions.Upsert(ctx, userID, StepLocation.String(), payload); err != nil {
		return fmt.Errorf("advance to location: %w", err)
	}
	return e.messenger.SendText(ctx, userID, promptLocation)
}

func (e *Engine) handleLocation(ctx context.Context, sess *session.Session, ev Event) error {
	userID := sess.UserID
	var loc string
	switch ev.Type {
	case EventLocation:
		switch {
		case ev.Location.Name != "" && ev.Location.Address != "":
			loc = ev.Location.Name + ", " + ev.Location.Address
		case ev.Location.Name != "":
			loc = ev.Location.Name
		case ev.Location.Address != "":
			loc = ev.Location.Address
		default:
			loc = fmt.Sprintf("%.5f,%.5f", ev.Location.Latitude, ev.Location.Longitude)
		}
	case EventText:
		loc = normalize.SanitizeFreeText(ev.Text)
	}
	if loc == "" {
		return e.messenger.SendText(ctx, userID, promptLocation)
	}

	p, err := decodePayload[IdentityPayload](sess.Payload)
	if err != nil {
		return err
	}
	p.Location = loc
	payload, err := encodePayload(FromIdentity(p))
	if err != nil {
		return err
	}
	if err := e.sessions.Upsert(ctx, userID, StepSelectCategory.String(), payload); err != nil {
		return fmt.Errorf("advance to category selection: %w", err)
	}
	return e.messenger.SendList(ctx, userID, promptCategory, "Categories", categorySections())
}

func (e *Engine) handleSelectCategory(ctx context.Context, sess *session.Session, ev Event) error {
	userID := sess.UserID
	if ev.Type != EventListRow {
		return e.messenger.SendList(ctx, userID, promptCategory, "Categories", categorySections())
	}
	c, ok := catalog.CategoryByID(ev.RowID)
	if !ok {
		return e.messenger.SendList(ctx, userID, promptCategory, "Categories", categorySections())
	}

	p, err := decodePayload[SelectionPayload](sess.Payload)
	if err != nil {
		return err
	}
	p.CategoryID = c.ID
	payload, err := encodePayload(p)
	if err != nil {
		return err
	}
	if err := e.sessions.Upsert(ctx, userID, StepSelectTitle.String(), payload); err != nil {
		return fmt.Errorf("advance to title selection: %w", err)
	}
	return e.messenger.SendList(ctx, userID, "Great. Which job are you looking for?", "Job titles", titleSections(c))
}

func (e *Engine) handleSelectTitle(ctx context.Context, sess *session.Session, ev Event) error {
	userID := sess.UserID
	p, err := decodePayload[SelectionPayload](sess.Payload)
	if err != nil {
		return err
	}
	c, haveCat := catalog.CategoryByID(p.CategoryID)

	reprompt := func() error {
		if !haveCat {
			return e.messenger.SendList(ctx, userID, promptCategory, "Categories", categorySections())
		}
		return e.messenger.SendList(ctx, userID, "Please pick a job title from the list.", "Job titles", titleSections(c))
	}

	if ev.Type != EventListRow {
		return reprompt()
	}
	title, ok := catalog.TitleByID(ev.RowID)
	if !ok || !titleInCategory(c, title.ID) {
		return reprompt()
	}
	p.TitleID = title.ID

	q := FromSelection(p, remainingDocuments(title, p))
	payload, err := encodePayload(q)
	if err != nil {
		return err
	}
	if len(q.PendingDocuments) == 0 {
		// nothing to collect: commit straight away, parking the session in
		// the upload step only if the commit fails so a later event retries
		if err := e.finalize(ctx, userID, q); err != nil {
			if uerr := e.sessions.Upsert(ctx, userID, StepUploadRequired.String(), payload); uerr != nil {
				logger.Warnf("parking failed finalization for %s: %v", userID, uerr)
			}
			return err
		}
		return nil
	}

	if err := e.sessions.Upsert(ctx, userID, StepUploadRequired.String(), payload); err != nil {
		return fmt.Errorf("advance to document upload: %w", err)
	}
	head := q.PendingDocuments[0]
	return e.messenger.SendButtons(ctx, userID, documentPrompt(head, len(q.PendingDocuments)), skipButton())
}

func (e *Engine) handleUploadRequired(ctx context.Context, sess *session.Session, ev Event) error {
	userID := sess.UserID
	q, err := decodePayload[DocQueuePayload](sess.Payload)
	if err != nil {
		return err
	}
	if len(q.PendingDocuments) == 0 {
		// queue already drained; this state holds only when an earlier
		// finalization failed, so any event retries the commit
		return e.finalize(ctx, userID, q)
	}
	head := q.PendingDocuments[0]

	skip := ev.ButtonID == btnSkipDoc ||
		(ev.Type == EventText && strings.EqualFold(strings.TrimSpace(ev.Text), "skip"))

	switch {
	case ev.Type == EventMedia:
		doc, err := e.stager.Stage(ctx, head, ev.MediaID)
		if err != nil {
			logger.Warnf("staging %s for %s: %v", head, userID, err)
			// queue position is not advanced on a failed download
			return e.messenger.SendText(ctx, userID, "We couldn't download that file. Please send it again.")
		}
		metrics.DocumentsStaged.Inc()
		q.UploadedDocuments[head] = *doc
		q.PendingDocuments = q.PendingDocuments[1:]
	case skip:
		q.PendingDocuments = q.PendingDocuments[1:]
	default:
		return e.messenger.SendButtons(ctx, userID, promptMediaExpected, skipButton())
	}

	payload, err := encodePayload(q)
	if err != nil {
		return err
	}
	if err := e.sessions.Upsert(ctx, userID, StepUploadRequired.String(), payload); err != nil {
		return fmt.Errorf("store document queue: %w", err)
	}

	if len(q.PendingDocuments) == 0 {
		return e.finalize(ctx, userID, q)
	}
	next := q.PendingDocuments[0]
	return e.messenger.SendButtons(ctx, userID, documentPrompt(next, len(q.PendingDocuments)), skipButton())
}

// finalize runs the registration commit. On failure the persisted session is
// left at the pre-finalization step so the next event retries without
// re-collecting anything.
func (e *Engine) finalize(ctx context.Context, userID string, q DocQueuePayload) error {
	in := registration.FinalizeInput{
		Phone:      userID,
		Email:      q.Email,
		FirstName:  q.FirstName,
		LastName:   q.LastName,
		IDNumber:   q.IDNumber,
		BirthDate:  q.BirthDate,
		Sex:        q.Sex,
		SACitizen:  q.SACitizen,
		IDVerified: q.HomeAffairsVerified,
		CategoryID: q.CategoryID,
		TitleID:    q.TitleID,
		Location:   q.Location,
		Documents:  orderedDocuments(q),
	}
	res, err := e.finalizer.Finalize(ctx, userID, in)
	if err != nil {
		metrics.Finalizations.WithLabelValues("error").Inc()
		_ = e.messenger.SendText(ctx, userID, promptGenericError)
		return fmt.Errorf("finalize registration for %s: %w", userID, err)
	}
	metrics.Finalizations.WithLabelValues("ok").Inc()
	logger.Infof("registered worker profile %s (identity %s, %d documents)", res.ProfileID, res.IdentityID, res.Documents)
	return e.messenger.SendText(ctx, userID, promptRegistered)
}

// orderedDocuments flattens the uploaded map back into checklist order:
// identity documents first, then the title's declaration order.
func orderedDocuments(q DocQueuePayload) []staging.StagedDocument {
	order := []string{catalog.DocIDDocument, catalog.DocSelfie}
	if t, ok := catalog.TitleByID(q.TitleID); ok {
		order = append(order, t.RequiredDocuments...)
	}
	var out []staging.StagedDocument
	seen := map[string]bool{}
	for _, label := range order {
		if seen[label] {
			continue
		}
		seen[label] = true
		if doc, ok := q.UploadedDocuments[label]; ok {
			out = append(out, doc)
		}
	}
	return out
}

func titleInCategory(c catalog.Category, titleID string) bool {
	for _, t := range c.Titles {
		if t.ID == titleID {
			return true
		}
	}
	return false
}

// remainingDocuments filters a title's checklist down to what the session
// has not collected yet, preserving declaration order.
func remainingDocuments(title catalog.Title, p SelectionPayload) []string {
	collected := map[string]bool{}
	if p.IDDocument != nil {
		collected[p.IDDocument.Type] = true
	}
	if p.Selfie != nil {
		collected[p.Selfie.Type] = true
	}
	var out []string
	for _, label := range title.RequiredDocuments {
		if !collected[label] {
			out = append(out, label)
		}
	}
	return out
}
