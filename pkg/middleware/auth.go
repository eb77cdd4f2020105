package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/notevault/notevault/internal/apperr"
	"github.com/notevault/notevault/internal/sessions"
)

// ContextKey is the gin context key under which the authenticated
// context is stored.
const ContextKey = "auth"

// RefreshCookieName is the cookie carrying the refresh token.
const RefreshCookieName = "refreshToken"

// NewTokenHeader carries a transparently refreshed access token back to
// the client.
const NewTokenHeader = "X-Access-Token"

// Authenticator is the minimal surface the middleware needs from the
// session manager.
type Authenticator interface {
	Authenticate(ctx context.Context, authorization, refreshToken string) (*sessions.AuthContext, error)
}

// RequireAuth verifies the Authorization header, transparently renewing
// expired access tokens from the refresh cookie. On success the auth
// context is stored on the request; when a new access token was minted
// it is surfaced in the response headers so the client can swap it in.
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		refreshToken, _ := c.Cookie(RefreshCookieName)
		authCtx, err := auth.Authenticate(c.Request.Context(), c.GetHeader("Authorization"), refreshToken)
		if err != nil {
			c.AbortWithStatusJSON(apperr.StatusOf(err), gin.H{"error": apperr.MessageOf(err)})
			return
		}
		if authCtx.NewAccessToken != "" {
			c.Header(NewTokenHeader, authCtx.NewAccessToken)
		}
		c.Set(ContextKey, authCtx)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated user carries the
// given role. Must run after RequireAuth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authCtx := FromContext(c)
		if authCtx == nil || authCtx.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": apperr.ErrForbidden.Message})
			return
		}
		c.Next()
	}
}

// FromContext returns the auth context stored by RequireAuth, or nil.
func FromContext(c *gin.Context) *sessions.AuthContext {
	v, ok := c.Get(ContextKey)
	if !ok {
		return nil
	}
	authCtx, ok := v.(*sessions.AuthContext)
	if !ok {
		return nil
	}
	return authCtx
}
