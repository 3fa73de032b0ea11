package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jobbridge/jobbridge/backend/bot-services/internal/config"
	"github.com/jobbridge/jobbridge/backend/bot-services/internal/session"
	"github.com/jobbridge/jobbridge/backend/bot-services/pkg/logger"
	"github.com/jobbridge/jobbridge/backend/bot-services/pkg/metrics"
	"github.com/jobbridge/jobbridge/backend/bot-services/pkg/middleware"
)

// AdminHandler exposes the operational API: session retention sweeps and
// per-user session inspection. All routes require an admin bearer token.
type AdminHandler struct {
	cfg      *config.Config
	sessions *session.Service
}

func NewAdminHandler(cfg *config.Config, sessions *session.Service) *AdminHandler {
	return &AdminHandler{cfg: cfg, sessions: sessions}
}

func (h *AdminHandler) Register(r *gin.Engine) {
	a := r.Group("/admin", middleware.AdminAuth(h.cfg.Admin.JWTSecret))
	a.POST("/sessions/expire", h.ExpireSessions)
	a.GET("/sessions/:userId", h.GetSession)
	a.DELETE("/sessions/:userId", h.DeleteSession)
}

// ExpireSessions deletes every session idle longer than the configured
// retention window. The same sweep the sweeper CLI runs, exposed for ops.
func (h *AdminHandler) ExpireSessions(c *gin.Context) {
	removed, err := h.sessions.ExpireOlderThan(c.Request.Context(), h.cfg.Sessions.Retention)
	if err != nil {
		logger.Errorf("admin sweep: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed"})
		return
	}
	metrics.SessionsExpired.Add(float64(removed))
	logger.Infof("admin sweep removed %d sessions (retention %s)", removed, h.cfg.Sessions.Retention)
	c.JSON(http.StatusOK, gin.H{"removed": removed, "retention": h.cfg.Sessions.Retention.String()})
}

func (h *AdminHandler) GetSession(c *gin.Context) {
	sess, err := h.sessions.Get(c.Request.Context(), c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no session"})
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *AdminHandler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("userId")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
