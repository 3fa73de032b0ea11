package dialogue

import (
	"fmt"

	"github.com/jobbridge/jobbridge/backend/bot-services/internal/catalog"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/messaging"
)

// Button and row IDs the engine emits and matches on.
const (
	btnConsentYes = "consent_yes"
	btnConsentNo  = "consent_no"
	btnSkipDoc    = "skip_doc"
	btnFindJobs   = "menu_find_jobs"
	btnMyProfile  = "menu_my_profile"
	btnHelp       = "menu_help"
)

const (
	promptHelp = "Send *hi* to get started, *menu* for the main menu, or *cancel* to stop your current registration."

	promptConsent = "Welcome to JobBridge! 👋\n\n" +
		"We connect workers with local jobs. To register you we need to collect and store your personal details and documents (POPIA applies). Do you agree?"

	promptConsentDeclined = "No problem, we won't store your details. Send *hi* any time if you change your mind."

	promptCancelled = "Okay, your registration has been cancelled. Send *hi* whenever you'd like to start again."

	promptIDNumber = "Great! Let's get you registered.\n\nPlease reply with your 13-digit South African ID number."

	promptIDNumberInvalid = "That doesn't look like a valid SA ID number. Please check the 13 digits and send it again."

	promptIDNotFound = "We couldn't match that ID number with Home Affairs. Please double-check it and send it again."

	promptIDUpload = "Thanks, your ID checks out ✅\n\nNow please send a clear *photo of your ID document*."

	promptSelfie = "Got it. Now send a *selfie* so we can match you to your ID photo."

	promptEmail = "Almost there. What is your *email address*?"

	promptEmailInvalid = "That email address doesn't look right. Please send it like name@example.com."

	promptLocation = "Where are you based? Share your *location* or type your suburb and city."

	promptCategory = "What kind of work are you looking for? Pick a category:"

	promptMediaExpected = "Please send a photo or document here (or tap Skip if you don't have it)."

	promptTextExpected = "Please reply with text for this step."

	promptGenericError = "Sorry, something went wrong on our side. Please try again in a moment, or contact support if it keeps happening."

	promptRegistered = "You're all set! 🎉 Your profile is registered and your documents are being reviewed. We'll send you matching jobs as they come in."

	promptComingSoon = "That feature is coming soon. We'll let you know!"
)

func consentButtons() []messaging.Button {
	return []messaging.Button{
		{ID: btnConsentYes, Label: "I agree"},
		{ID: btnConsentNo, Label: "No thanks"},
	}
}

func returningMenuButtons() []messaging.Button {
	return []messaging.Button{
		{ID: btnFindJobs, Label: "Find jobs"},
		{ID: btnMyProfile, Label: "My profile"},
		{ID: btnHelp, Label: "Help"},
	}
}

// categorySections renders the catalog as one list section per message.
func categorySections() []messaging.Section {
	rows := make([]messaging.Row, 0, len(catalog.Categories()))
	for _, c := range catalog.Categories() {
		rows = append(rows, messaging.Row{ID: c.ID, Title: c.Name})
	}
	return messaging.ClampSections([]messaging.Section{{Title: "Categories", Rows: rows}})
}

// titleSections renders one category's titles, with the document count as
// the row description.
func titleSections(c catalog.Category) []messaging.Section {
	rows := make([]messaging.Row, 0, len(c.Titles))
	for _, t := range c.Titles {
		desc := "No documents needed"
		if n := len(t.RequiredDocuments); n == 1 {
			desc = "1 document needed"
		} else if n > 1 {
			desc = fmt.Sprintf("%d documents needed", n)
		}
		rows = append(rows, messaging.Row{ID: t.ID, Title: t.Name, Description: desc})
	}
	return messaging.ClampSections([]messaging.Section{{Title: c.Name, Rows: rows}})
}

func documentPrompt(label string, remaining int) string {
	if remaining > 1 {
		return fmt.Sprintf("Please send your *%s* (%d documents left). Tap Skip if you don't have it right now.", label, remaining)
	}
	return fmt.Sprintf("Last one: please send your *%s*. Tap Skip if you don't have it right now.", label)
}

func skipButton() []messaging.Button {
	return []messaging.Button{{ID: btnSkipDoc, Label: "Skip"}}
}
