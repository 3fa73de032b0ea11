package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/jobbridge/jobbridge/backend/bot-services/internal/config"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/dialogue"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/messaging"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/registration"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/session"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/staging"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/verify"
)

type recordingMessenger struct {
	sent int
}

func (r *recordingMessenger) SendText(ctx context.Context, to, body string) error {
	r.sent++
	return nil
}
func (r *recordingMessenger) SendButtons(ctx context.Context, to, body string, buttons []messaging.Button) error {
	r.sent++
	return nil
}
func (r *recordingMessenger) SendList(ctx context.Context, to, body, buttonLabel string, sections []messaging.Section) error {
	r.sent++
	return nil
}
func (r *recordingMessenger) SendMedia(ctx context.Context, to, url, caption string) error {
	r.sent++
	return nil
}

type nopFetcher struct{}

func (nopFetcher) Fetch(ctx context.Context, mediaID string) ([]byte, string, error) {
	return []byte("bytes"), "image/jpeg", nil
}

type nopFinalizer struct{}

func (nopFinalizer) Finalize(ctx context.Context, userID string, in registration.FinalizeInput) (*registration.FinalizeResult, error) {
	return &registration.FinalizeResult{}, nil
}

func newWebhookTestServer(t *testing.T, appSecret string) (*gin.Engine, *session.Service, *recordingMessenger) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := session.NewService(session.NewRedisRepository(client, "", time.Hour), "IDLE")
	msgr := &recordingMessenger{}
	engine := dialogue.NewEngine(
		sessions,
		session.NewOptOutRegister(client),
		staging.NewStager(nopFetcher{}, 0, 0),
		verify.StubVerifier{},
		nopFinalizer{},
		msgr,
		registration.NewMemoryStore(),
	)

	g := gin.New()
	h := NewWebhookHandler(&config.WhatsAppConfig{VerifyToken: "verify-me", AppSecret: appSecret}, engine)
	h.Register(g)
	return g, sessions, msgr
}

func textEnvelope(from, body string) string {
	return fmt.Sprintf(`{"entry":[{"changes":[{"value":{"messages":[{"from":%q,"type":"text","text":{"body":%q}}]}}]}]}`, from, body)
}

func TestWebhook_VerifyHandshake(t *testing.T) {
	g, _, _ := newWebhookTestServer(t, "")

	req := httptest.NewRequest("GET", "/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", nil)
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "12345", w.Body.String())

	req2 := httptest.NewRequest("GET", "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	w2 := httptest.NewRecorder()
	g.ServeHTTP(w2, req2)
	require.Equal(t, http.StatusForbidden, w2.Code)
}

func TestWebhook_InboundTextAdvancesSession(t *testing.T) {
	g, sessions, msgr := newWebhookTestServer(t, "")

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(textEnvelope("0831234567", "hi")))
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// trunk-prefixed sender is canonicalized before it becomes a session key
	sess, err := sessions.Get(context.Background(), "27831234567")
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Equal(t, "CONSENT", sess.Step)
	require.Equal(t, 1, msgr.sent)
}

func TestWebhook_UnroutableSenderDropped(t *testing.T) {
	g, sessions, msgr := newWebhookTestServer(t, "")

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(textEnvelope("12125550100", "hi")))
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, "dropping a message is still an acknowledged delivery")

	sess, err := sessions.Get(context.Background(), "12125550100")
	require.NoError(t, err)
	require.Nil(t, sess)
	require.Zero(t, msgr.sent)
}

func TestWebhook_UnsupportedMessageTypeIgnored(t *testing.T) {
	g, _, msgr := newWebhookTestServer(t, "")

	body := `{"entry":[{"changes":[{"value":{"messages":[{"from":"27831234567","type":"sticker"}]}}]}]}`
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(body))
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Zero(t, msgr.sent)
}

func TestWebhook_SignatureChecked(t *testing.T) {
	secret := "app-secret"
	g, _, _ := newWebhookTestServer(t, secret)
	body := textEnvelope("27831234567", "hi")

	// missing signature
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(body))
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// wrong signature
	req2 := httptest.NewRequest("POST", "/webhook", strings.NewReader(body))
	req2.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")
	w2 := httptest.NewRecorder()
	g.ServeHTTP(w2, req2)
	require.Equal(t, http.StatusUnauthorized, w2.Code)

	// valid signature
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	req3 := httptest.NewRequest("POST", "/webhook", strings.NewReader(body))
	req3.Header.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	w3 := httptest.NewRecorder()
	g.ServeHTTP(w3, req3)
	require.Equal(t, http.StatusOK, w3.Code)
}

func TestWebhook_MalformedPayload(t *testing.T) {
	g, _, _ := newWebhookTestServer(t, "")

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
