package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/notevault/notevault/internal/apperr"
	"github.com/notevault/notevault/internal/clientenv"
	"github.com/notevault/notevault/internal/models"
	"github.com/notevault/notevault/internal/tokens"
	"github.com/notevault/notevault/pkg/logger"
	"github.com/notevault/notevault/pkg/metrics"
)

// placeholderHash fills the token hash fields of a provisional session row.
// Tokens embed the generated session id, so the row must exist before they
// can be minted; the placeholder is replaced in the same transaction.
const placeholderHash = "-"

// UserDirectory is the slice of the user service the manager needs: it
// resolves a user id to a user, returning (nil, nil) when absent.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Manager orchestrates the session lifecycle: creation, request
// authentication with transparent refresh, token regeneration, and
// revocation. It holds no mutable state between requests and is safe to
// share across concurrent handlers.
type Manager struct {
	store   Store
	users   UserDirectory
	access  *tokens.Issuer
	refresh *tokens.Issuer
}

func NewManager(store Store, users UserDirectory, access, refresh *tokens.Issuer) *Manager {
	return &Manager{store: store, users: users, access: access, refresh: refresh}
}

// Created is the result of CreateSession.
type Created struct {
	SessionID    string `json:"sessionId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthContext is the immutable result of a successful authentication,
// threaded explicitly to downstream handlers. NewAccessToken is set only
// when a transparent refresh happened during this request.
type AuthContext struct {
	User           *models.User
	SessionID      string
	Role           string
	NewAccessToken string
}

// CreateSession creates a session for userID in one atomic transaction:
// insert a provisional row to obtain the session id, mint both tokens with
// that id in their claims, persist the token hashes, and append one
// SESSION_CREATED audit entry. Any failure aborts the whole transaction;
// no partial session is ever observable outside it.
func (m *Manager) CreateSession(ctx context.Context, userID, role string, env clientenv.Env) (*Created, error) {
	var created Created
	err := m.store.WithTransaction(ctx, func(ctx context.Context) error {
		provisional, err := m.store.Create(ctx, &Session{
			UserID:           userID,
			AccessTokenHash:  placeholderHash,
			RefreshTokenHash: placeholderHash,
		})
		if err != nil {
			return err
		}

		claims := tokens.Claims{UserID: userID, SessionID: provisional.ID, Role: role}
		refreshToken, err := m.refresh.Generate(claims)
		if err != nil {
			return err
		}
		accessToken, err := m.access.Generate(claims)
		if err != nil {
			return err
		}

		updated, err := m.store.SetTokenHashes(ctx, provisional.ID, accessToken, refreshToken)
		if err != nil {
			return err
		}
		if updated == nil {
			return fmt.Errorf("provisional session %s vanished before commit", provisional.ID)
		}

		if err := m.store.AppendLog(ctx, newAuditLogEntry(userID, EventSessionCreated, env)); err != nil {
			return err
		}

		created = Created{SessionID: provisional.ID, AccessToken: accessToken, RefreshToken: refreshToken}
		return nil
	})
	if err != nil {
		return nil, apperr.ErrSessionCreationFailed.With(err)
	}
	metrics.SessionsCreated.Inc()
	return &created, nil
}

// Authenticate is the protected gate. It extracts the bearer token from
// the authorization header and verifies it; when the only problem is
// expiry and a refresh token is present, it transparently regenerates the
// access token. Refresh failures are re-classified as session expiry so
// callers see a stable taxonomy regardless of the internal cause.
func (m *Manager) Authenticate(ctx context.Context, authorization, refreshToken string) (*AuthContext, error) {
	raw := bearerToken(authorization)
	if raw == "" {
		return nil, apperr.ErrUnauthenticated
	}

	claims, err := m.access.Verify(raw)
	if err != nil {
		if errors.Is(err, apperr.ErrTokenExpired) && refreshToken != "" {
			auth, rerr := m.Regenerate(ctx, refreshToken)
			if rerr != nil {
				logger.Debugf("token refresh failed: %v", rerr)
				metrics.TokenRefreshes.WithLabelValues("failure").Inc()
				return nil, apperr.ErrSessionExpired.With(rerr)
			}
			metrics.TokenRefreshes.WithLabelValues("success").Inc()
			return auth, nil
		}
		// refresh is only attempted when the specific failure is expiry
		return nil, apperr.ErrInvalidToken.With(err)
	}

	return m.resolve(ctx, claims, "")
}

// Regenerate mints a new access token from a valid refresh token and
// persists its hash on the session row. An expired refresh token is a hard
// failure; there is no further renewal path. Losing a race against
// revocation surfaces as ErrSessionNotFound.
func (m *Manager) Regenerate(ctx context.Context, refreshToken string) (*AuthContext, error) {
	claims, err := m.refresh.Verify(refreshToken)
	if err != nil {
		return nil, err
	}

	accessToken, err := m.access.Generate(tokens.Claims{
		UserID:    claims.UserID,
		SessionID: claims.SessionID,
		Role:      claims.Role,
	})
	if err != nil {
		return nil, err
	}

	updated, err := m.store.SetAccessTokenHash(ctx, claims.SessionID, accessToken)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperr.ErrSessionNotFound
	}

	return m.resolve(ctx, claims, accessToken)
}

// resolve performs the double lookup: both the user and the session must
// still exist, so deleting either row immediately invalidates an otherwise
// unexpired token.
func (m *Manager) resolve(ctx context.Context, claims *tokens.Claims, newAccessToken string) (*AuthContext, error) {
	user, err := m.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.ErrUserNotFound
	}

	sess, err := m.store.GetByID(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, apperr.ErrSessionNotFound
	}

	return &AuthContext{
		User:           user,
		SessionID:      sess.ID,
		Role:           user.Role,
		NewAccessToken: newAccessToken,
	}, nil
}

// Revoke deletes the session matched by {userID, sessionID} and appends
// one SESSION_REVOKED audit entry. The two steps are deliberately not
// transactional: a crash in between loses the audit entry but never
// leaves a dangling session.
func (m *Manager) Revoke(ctx context.Context, userID, sessionID string, env clientenv.Env) error {
	deleted, err := m.store.Delete(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if deleted == nil {
		return apperr.ErrAlreadyRevoked
	}

	if err := m.store.AppendLog(ctx, newAuditLogEntry(userID, EventSessionRevoked, env)); err != nil {
		logger.Warnf("session %s revoked but audit entry failed: %v", sessionID, err)
		return err
	}
	metrics.SessionsRevoked.Inc()
	return nil
}

// GetCurrent returns the caller's own session record.
func (m *Manager) GetCurrent(ctx context.Context, userID, sessionID string) (*Session, error) {
	sess, err := m.store.GetByUserAndID(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, apperr.ErrSessionNotFound
	}
	return sess, nil
}

// ListForUser returns the user's sessions, newest first.
func (m *Manager) ListForUser(ctx context.Context, userID string, page, limit int) (*SessionPage, error) {
	return m.store.ListByUser(ctx, userID, page, limit)
}

// ListLogsForUser returns the user's audit log entries, newest first.
func (m *Manager) ListLogsForUser(ctx context.Context, userID string, page, limit int) (*AuditLogPage, error) {
	return m.store.ListLogsByUser(ctx, userID, page, limit)
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
