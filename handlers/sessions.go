package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/notevault/notevault/internal/sessions"
	"github.com/notevault/notevault/pkg/middleware"
)

// SessionHandler exposes session inspection and revocation endpoints.
// Every route requires authentication; users only ever see their own
// sessions.
type SessionHandler struct {
	sessions *sessions.Manager
}

func NewSessionHandler(s *sessions.Manager) *SessionHandler {
	return &SessionHandler{sessions: s}
}

func (h *SessionHandler) Register(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	s := rg.Group("/sessions", requireAuth)
	s.GET("", h.List)
	s.GET("/me", h.Current)
	s.GET("/logs", h.Logs)
	s.DELETE("/me", h.RevokeCurrent)
	s.DELETE("/:id", h.RevokeByID)
}

// List returns a page of the caller's active sessions, newest first.
func (h *SessionHandler) List(c *gin.Context) {
	authCtx := middleware.FromContext(c)
	page, limit := pageQuery(c)
	result, err := h.sessions.ListForUser(c.Request.Context(), authCtx.User.ID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Current returns the session backing this request.
func (h *SessionHandler) Current(c *gin.Context) {
	authCtx := middleware.FromContext(c)
	sess, err := h.sessions.GetCurrent(c.Request.Context(), authCtx.User.ID, authCtx.SessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Logs returns the caller's session audit trail.
func (h *SessionHandler) Logs(c *gin.Context) {
	authCtx := middleware.FromContext(c)
	page, limit := pageQuery(c)
	result, err := h.sessions.ListLogsForUser(c.Request.Context(), authCtx.User.ID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RevokeCurrent ends the session backing this request.
func (h *SessionHandler) RevokeCurrent(c *gin.Context) {
	authCtx := middleware.FromContext(c)
	h.revoke(c, authCtx.SessionID)
}

// RevokeByID ends one of the caller's other sessions, e.g. "sign out
// that browser".
func (h *SessionHandler) RevokeByID(c *gin.Context) {
	h.revoke(c, c.Param("id"))
}

func (h *SessionHandler) revoke(c *gin.Context, sessionID string) {
	authCtx := middleware.FromContext(c)
	if err := h.sessions.Revoke(c.Request.Context(), authCtx.User.ID, sessionID, clientEnv(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session revoked"})
}
