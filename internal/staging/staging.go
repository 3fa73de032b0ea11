// Package staging downloads referenced media and holds it, base64-encoded,
// inside the conversation payload until finalization promotes it to durable
// storage.
package staging

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jobbridge/jobbridge/backend/bot-services/internal/messaging"
)

var ErrTooLarge = errors.New("media exceeds size limit")

// StagedDocument is a downloaded document held in the session payload.
// Immutable after creation; consumed by the finalization transaction.
type StagedDocument struct {
	Type     string `json:"type"`
	Content  string `json:"content"` // base64
	MimeType string `json:"mimeType"`
	FileName string `json:"fileName"`
}

// Stager fetches media through the messaging collaborator and encodes it for
// payload storage.
type Stager struct {
	fetcher  messaging.MediaFetcher
	maxBytes int
	timeout  time.Duration
}

// NewStager creates a stager. maxBytes <= 0 selects the 10 MiB default;
// timeout <= 0 selects 30s.
func NewStager(fetcher messaging.MediaFetcher, maxBytes int, timeout time.Duration) *Stager {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Stager{fetcher: fetcher, maxBytes: maxBytes, timeout: timeout}
}

// Stage downloads the referenced media and returns it as a staged document
// labelled docType. A failed download or an oversized file returns an error
// and stages nothing; the caller re-prompts without advancing.
func (s *Stager) Stage(ctx context.Context, docType, mediaID string) (*StagedDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, mime, err := s.fetcher.Fetch(ctx, mediaID)
	if err != nil {
		return nil, fmt.Errorf("fetch media %s: %w", mediaID, err)
	}
	if len(data) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	return &StagedDocument{
		Type:     docType,
		Content:  base64.StdEncoding.EncodeToString(data),
		MimeType: mime,
		FileName: suggestFileName(docType, mime),
	}, nil
}

// Decode returns the raw bytes of a staged document.
func (d *StagedDocument) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(d.Content)
}

func suggestFileName(docType, mime string) string {
	base := strings.ToLower(docType)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '_'
		}
		return -1
	}, base)
	if base == "" {
		base = "document"
	}
	return base + extensionFor(mime)
}

func extensionFor(mime string) string {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(mime, ";", 2)[0])) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	default:
		return ".bin"
	}
}
