package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/notevault/notevault/internal/config"
	"github.com/notevault/notevault/internal/models"
	"github.com/notevault/notevault/internal/oidc"
	"github.com/notevault/notevault/internal/sessions"
	"github.com/notevault/notevault/internal/users"
	"github.com/notevault/notevault/pkg/logger"
	"github.com/notevault/notevault/pkg/middleware"
)

// SignupRequest creates a full account. When the caller is currently
// authenticated as a guest, the guest account is upgraded in place.
type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type OIDCLoginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

// AuthHandler holds dependencies for the authentication endpoints.
type AuthHandler struct {
	cfg      *config.Config
	users    *users.Service
	sessions *sessions.Manager
	verifier oidc.TokenVerifier
}

func NewAuthHandler(cfg *config.Config, u *users.Service, s *sessions.Manager, v oidc.TokenVerifier) *AuthHandler {
	return &AuthHandler{cfg: cfg, users: u, sessions: s, verifier: v}
}

// Register routes under /auth. requireAuth protects logout, which needs
// a live session to revoke.
func (h *AuthHandler) Register(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	a := rg.Group("/auth")
	a.POST("/signup", h.Signup)
	a.POST("/login", h.Login)
	a.POST("/guest", h.Guest)
	a.POST("/refresh", h.Refresh)
	a.POST("/oidc", h.OIDCLogin)
	a.POST("/logout", requireAuth, h.Logout)

	// historical alias for guest provisioning
	rg.POST("/users/guest", h.Guest)
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// a signed-in guest upgrading to a full account keeps their data
	guestID := ""
	if auth := c.GetHeader("Authorization"); auth != "" {
		refreshToken, _ := c.Cookie(middleware.RefreshCookieName)
		if authCtx, err := h.sessions.Authenticate(c.Request.Context(), auth, refreshToken); err == nil && authCtx.Role == models.RoleGuest {
			guestID = authCtx.User.ID
		}
	}

	u, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password, guestID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.issueSession(c, u, http.StatusCreated)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.users.VerifyCredentials(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.issueSession(c, u, http.StatusOK)
}

// Guest provisions a throwaway account and signs it in.
func (h *AuthHandler) Guest(c *gin.Context) {
	u, err := h.users.CreateGuest(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	h.issueSession(c, u, http.StatusCreated)
}

// OIDCLogin exchanges a verified ID token for a local session.
func (h *AuthHandler) OIDCLogin(c *gin.Context) {
	if h.verifier == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "OIDC login not configured"})
		return
	}
	var req OIDCLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.verifier.Verify(c.Request.Context(), req.IDToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid id token"})
		return
	}
	var claims map[string]interface{}
	if err := token.Claims(&claims); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
		return
	}

	u, err := h.users.UpsertFromClaims(c.Request.Context(), claims)
	if err != nil {
		logger.Errorf("user upsert error: %v", err)
		respondError(c, err)
		return
	}
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "id token missing subject"})
		return
	}
	h.issueSession(c, u, http.StatusOK)
}

// Refresh explicitly exchanges the refresh cookie (or a JSON body for
// non-browser clients) for a new access token. Browser clients normally
// never need this: the auth middleware refreshes transparently.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, _ := c.Cookie(middleware.RefreshCookieName)
	if refreshToken == "" {
		var req struct {
			RefreshToken string `json:"refreshToken" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "refresh token required"})
			return
		}
		refreshToken = req.RefreshToken
	}

	authCtx, err := h.sessions.Regenerate(c.Request.Context(), refreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken": authCtx.NewAccessToken,
		"sessionId":   authCtx.SessionID,
		"expiresIn":   int(h.cfg.Auth.AccessTokenTTL.Seconds()),
	})
}

// Logout revokes the caller's current session and clears the refresh
// cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	authCtx := middleware.FromContext(c)
	if authCtx == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	if err := h.sessions.Revoke(c.Request.Context(), authCtx.User.ID, authCtx.SessionID, clientEnv(c)); err != nil {
		respondError(c, err)
		return
	}
	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// issueSession creates a session for the user, sets the refresh cookie
// and writes the login response.
func (h *AuthHandler) issueSession(c *gin.Context, u *models.User, status int) {
	created, err := h.sessions.CreateSession(c.Request.Context(), u.ID, u.Role, clientEnv(c))
	if err != nil {
		logger.Errorf("failed to create session for user %s: %v", u.ID, err)
		respondError(c, err)
		return
	}
	h.setRefreshCookie(c, created.RefreshToken)
	c.JSON(status, gin.H{
		"accessToken": created.AccessToken,
		"sessionId":   created.SessionID,
		"expiresIn":   int(h.cfg.Auth.AccessTokenTTL.Seconds()),
		"user":        u,
	})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	secure := h.cfg.Server.Environment == "production"
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.RefreshCookieName, token, int(h.cfg.Auth.RefreshTokenTTL.Seconds()), "/", "", secure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	secure := h.cfg.Server.Environment == "production"
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.RefreshCookieName, "", -1, "/", "", secure, true)
}
