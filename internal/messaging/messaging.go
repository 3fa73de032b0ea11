// Package messaging defines the outbound message collaborator the dialogue
// engine talks to, plus the WhatsApp interactive-message size limits the
// engine must satisfy before handing content over.
package messaging

import "context"

// Button is an interactive reply button (max 3 per message).
type Button struct {
	ID    string
	Label string
}

// Row is one selectable row of a list message.
type Row struct {
	ID          string
	Title       string
	Description string
}

// Section groups list rows under an optional header.
type Section struct {
	Title string
	Rows  []Row
}

// Messenger is the outbound messaging collaborator. Implementations are thin
// request/response wrappers; retries and backoff are not their concern.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
	SendButtons(ctx context.Context, to, body string, buttons []Button) error
	SendList(ctx context.Context, to, body, buttonLabel string, sections []Section) error
	SendMedia(ctx context.Context, to, url, caption string) error
}

// MediaFetcher resolves an inbound media reference to its raw bytes and mime
// type. Used only by the document staging buffer.
type MediaFetcher interface {
	Fetch(ctx context.Context, mediaID string) ([]byte, string, error)
}
