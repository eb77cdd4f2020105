package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(r *gin.Engine) {
	r.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	r.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>notevault - Swagger</title>
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

// Minimal OpenAPI document describing the main endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "notevault", "version": "v0.1.0" },
  "paths": {
    "/api/v1/auth/signup": {
      "post": { "summary": "Create an account (upgrades a signed-in guest)", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"name":{"type":"string"},"email":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "201": { "description": "account created, tokens returned" }, "400": { "description": "email taken" } } }
    },
    "/api/v1/auth/login": {
      "post": { "summary": "Login with email and password", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "200": { "description": "tokens returned, refresh cookie set" }, "401": { "description": "invalid credentials" } } }
    },
    "/api/v1/auth/guest": {
      "post": { "summary": "Create and sign in a guest account", "responses": { "201": { "description": "tokens returned" } } }
    },
    "/api/v1/auth/refresh": {
      "post": { "summary": "Exchange the refresh cookie for a new access token", "responses": { "200": { "description": "new access token" }, "401": { "description": "invalid or expired refresh token" } } }
    },
    "/api/v1/auth/logout": {
      "post": { "summary": "Revoke the current session and clear the refresh cookie", "responses": { "200": { "description": "logged out" }, "404": { "description": "session already revoked" } } }
    },
    "/api/v1/sessions": {
      "get": { "summary": "List the caller's sessions", "responses": { "200": { "description": "session page" } } }
    },
    "/api/v1/sessions/{id}": {
      "delete": { "summary": "Revoke one of the caller's sessions", "responses": { "200": { "description": "revoked" }, "404": { "description": "already revoked" } } }
    },
    "/api/v1/sessions/logs": {
      "get": { "summary": "Session audit trail", "responses": { "200": { "description": "audit page" } } }
    },
    "/api/v1/notes": {
      "get": { "summary": "List the caller's notes", "responses": { "200": { "description": "note page" } } },
      "post": { "summary": "Create a note", "responses": { "201": { "description": "note created" } } }
    },
    "/api/v1/notes/{id}/attachment": {
      "post": { "summary": "Upload a note attachment", "responses": { "200": { "description": "attachment stored" }, "503": { "description": "storage not configured" } } },
      "get": { "summary": "Presigned attachment download URL", "responses": { "200": { "description": "url returned" } } }
    },
    "/api/v1/notes/{id}/attachment/content": {
      "get": { "summary": "Stream the attachment bytes", "responses": { "200": { "description": "attachment body" }, "503": { "description": "storage not configured" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
