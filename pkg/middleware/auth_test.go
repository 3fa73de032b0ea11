package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/jobbridge/jobbridge/backend/bot-services/internal/tokens"
)

const testSecret = "admin-secret-32-bytes-xxxxxxxxxxxx"

func TestAdminAuth_NoHeader(t *testing.T) {
	g := gin.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rw := httptest.NewRecorder()

	g.GET("/", AdminAuth(testSecret), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAdminAuth_InvalidHeader(t *testing.T) {
	g := gin.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "BadHeader")
	rw := httptest.NewRecorder()

	g.GET("/", AdminAuth(testSecret), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAdminAuth_BadToken(t *testing.T) {
	g := gin.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rw := httptest.NewRecorder()

	g.GET("/", AdminAuth(testSecret), func(c *gin.Context) { c.Status(http.StatusOK) })
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAdminAuth_WrongSecret(t *testing.T) {
	tok, err := tokens.GenerateAdminToken("some-other-secret-xxxxxxxxxxxxxx", "ops", time.Minute)
	require.NoError(t, err)

	g := gin.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rw := httptest.NewRecorder()

	g.GET("/", AdminAuth(testSecret), func(c *gin.Context) { c.Status(http.StatusOK) })
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAdminAuth_ValidToken(t *testing.T) {
	tok, err := tokens.GenerateAdminToken(testSecret, "ops", time.Minute)
	require.NoError(t, err)

	g := gin.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rw := httptest.NewRecorder()

	g.GET("/", AdminAuth(testSecret), func(c *gin.Context) {
		claims, ok := c.Get("claims")
		require.True(t, ok)
		resp, _ := json.Marshal(gin.H{"claims": claims})
		c.Writer.Write(resp)
	})
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusOK, rw.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	require.Contains(t, got, "claims")
}
