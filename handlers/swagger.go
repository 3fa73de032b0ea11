package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the bot service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Header("Content-Type", "application/json")
		c.String(http.StatusOK, swaggerJSON)
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>jobbridge-bot — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the webhook and operational endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "jobbridge-bot", "version": "v0.1.0" },
  "paths": {
    "/webhook": {
      "get": {
        "summary": "Meta webhook verification handshake",
        "parameters": [
          {"name":"hub.mode","in":"query","schema":{"type":"string"}},
          {"name":"hub.verify_token","in":"query","schema":{"type":"string"}},
          {"name":"hub.challenge","in":"query","schema":{"type":"string"}}
        ],
        "responses": { "200": { "description": "challenge echoed" }, "403": { "description": "verification failed" } }
      },
      "post": {
        "summary": "Inbound WhatsApp message notifications",
        "responses": { "200": { "description": "batch accepted" }, "401": { "description": "bad signature" } }
      }
    },
    "/admin/sessions/expire": {
      "post": { "summary": "Remove sessions idle past the retention window", "security": [{"bearerAuth": []}], "responses": { "200": { "description": "count of removed sessions" }, "401": { "description": "missing or invalid admin token" } } }
    },
    "/admin/sessions/{userId}": {
      "get": { "summary": "Inspect one user's session", "security": [{"bearerAuth": []}], "responses": { "200": { "description": "session" }, "404": { "description": "no session" } } },
      "delete": { "summary": "Delete one user's session", "security": [{"bearerAuth": []}], "responses": { "200": { "description": "deleted" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  },
  "components": { "securitySchemes": { "bearerAuth": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } } }
}`
