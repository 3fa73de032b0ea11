package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jobbridge/jobbridge/backend/bot-services/internal/config"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/dialogue"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/normalize"
	"github.com/jobbridge/jobbridge/backend/bot-services/pkg/logger"
)

// webhookEnvelope is the subset of the Meta Cloud API notification payload
// the bot cares about.
type webhookEnvelope struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []inboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type inboundMessage struct {
	From string `json:"from"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Interactive *struct {
		Type        string `json:"type"`
		ButtonReply *struct {
			ID string `json:"id"`
		} `json:"button_reply"`
		ListReply *struct {
			ID string `json:"id"`
		} `json:"list_reply"`
	} `json:"interactive"`
	Image    *inboundMedia `json:"image"`
	Document *inboundMedia `json:"document"`
	Location *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Name      string  `json:"name"`
		Address   string  `json:"address"`
	} `json:"location"`
}

type inboundMedia struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
}

// WebhookHandler terminates the WhatsApp webhook: the GET verification
// handshake and the POST notification stream feeding the dialogue engine.
type WebhookHandler struct {
	cfg    *config.WhatsAppConfig
	engine *dialogue.Engine
}

func NewWebhookHandler(cfg *config.WhatsAppConfig, engine *dialogue.Engine) *WebhookHandler {
	return &WebhookHandler{cfg: cfg, engine: engine}
}

func (h *WebhookHandler) Register(r *gin.Engine) {
	r.GET("/webhook", h.Verify)
	r.POST("/webhook", h.Receive)
}

// Verify answers Meta's subscription handshake by echoing hub.challenge.
func (h *WebhookHandler) Verify(c *gin.Context) {
	if c.Query("hub.mode") != "subscribe" || c.Query("hub.verify_token") != h.cfg.VerifyToken {
		c.JSON(http.StatusForbidden, gin.H{"error": "verification failed"})
		return
	}
	c.String(http.StatusOK, c.Query("hub.challenge"))
}

// Receive ingests one notification batch. The response is always 200 once the
// signature checks out; per-message processing errors are logged, not
// surfaced, so Meta does not redeliver a poison message forever.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	if !h.signatureValid(c.GetHeader("X-Hub-Signature-256"), body) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}

	ctx := c.Request.Context()
	for _, entry := range env.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				userID := normalize.CanonicalizePhone(msg.From)
				if !normalize.ValidPhone(userID) {
					logger.Warnf("webhook: dropping message from unroutable sender %q", msg.From)
					continue
				}
				ev, ok := toEvent(msg)
				if !ok {
					logger.Debugf("webhook: ignoring unsupported message type %q from %s", msg.Type, userID)
					continue
				}
				if err := h.engine.HandleEvent(ctx, userID, ev); err != nil {
					logger.Errorf("webhook: processing event from %s: %v", userID, err)
				}
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// signatureValid checks the X-Hub-Signature-256 HMAC. With no app secret
// configured (local dev) the check is skipped.
func (h *WebhookHandler) signatureValid(header string, body []byte) bool {
	if h.cfg.AppSecret == "" {
		return true
	}
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.cfg.AppSecret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(sig), []byte(want))
}

// toEvent maps an inbound Cloud API message onto a dialogue event.
func toEvent(msg inboundMessage) (dialogue.Event, bool) {
	switch msg.Type {
	case "text":
		if msg.Text == nil {
			return dialogue.Event{}, false
		}
		return dialogue.TextEvent(msg.Text.Body), true
	case "interactive":
		if msg.Interactive == nil {
			return dialogue.Event{}, false
		}
		if msg.Interactive.ButtonReply != nil {
			return dialogue.ButtonEvent(msg.Interactive.ButtonReply.ID), true
		}
		if msg.Interactive.ListReply != nil {
			return dialogue.RowEvent(msg.Interactive.ListReply.ID), true
		}
		return dialogue.Event{}, false
	case "image":
		if msg.Image == nil {
			return dialogue.Event{}, false
		}
		return dialogue.MediaEvent(msg.Image.ID, msg.Image.MimeType), true
	case "document":
		if msg.Document == nil {
			return dialogue.Event{}, false
		}
		return dialogue.MediaEvent(msg.Document.ID, msg.Document.MimeType), true
	case "location":
		if msg.Location == nil {
			return dialogue.Event{}, false
		}
		return dialogue.LocationEvent(dialogue.Location{
			Latitude:  msg.Location.Latitude,
			Longitude: msg.Location.Longitude,
			Name:      msg.Location.Name,
			Address:   msg.Location.Address,
		}), true
	default:
		return dialogue.Event{}, false
	}
}
