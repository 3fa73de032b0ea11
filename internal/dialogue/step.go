// Package dialogue implements the table-driven conversation state machine
// that drives worker registration over WhatsApp.
package dialogue

// Step identifies the user's position in the conversation. Persisted as a
// string in the session store.
type Step string

const (
	StepIdle           Step = "IDLE"
	StepConsent        Step = "CONSENT"
	StepIDNumber       Step = "ID_NUMBER"
	StepIDUpload       Step = "ID_UPLOAD"
	StepSelfie         Step = "SELFIE"
	StepEmail          Step = "EMAIL"
	StepLocation       Step = "LOCATION"
	StepSelectCategory Step = "SELECTING_CATEGORY"
	StepSelectTitle    Step = "SELECTING_TITLE"
	StepUploadRequired Step = "UPLOADING_REQUIRED_DOCS"
)

func (s Step) String() string { return string(s) }
