package sessions

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notevault/notevault/internal/apperr"
	"github.com/notevault/notevault/internal/clientenv"
	"github.com/notevault/notevault/internal/models"
	"github.com/notevault/notevault/internal/tokens"
)

const (
	accessTTL  = 60 * time.Second
	refreshTTL = 7 * 24 * time.Hour
)

var testEnv = clientenv.Env{Browser: "Chrome", Device: "Desktop", OperatingSystem: "Linux"}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// fake user directory
type fakeUsers struct {
	byID map[string]*models.User
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func newTestManager(store Store) (*Manager, *fakeUsers, *fakeClock) {
	clk := &fakeClock{t: time.Now()}
	access := tokens.NewIssuer("access-secret-32-bytes-xxxxxxxxxx", accessTTL).WithClock(clk.Now)
	refresh := tokens.NewIssuer("refresh-secret-32-bytes-xxxxxxxxx", refreshTTL).WithClock(clk.Now)
	users := &fakeUsers{byID: map[string]*models.User{
		"U1": {ID: "U1", Name: "Alice", Email: "alice@example.com", Role: models.RoleUser, IsActive: true},
	}}
	return NewManager(store, users, access, refresh), users, clk
}

func bearer(token string) string { return "Bearer " + token }

func TestCreateSession_MintsTokensBoundToSession(t *testing.T) {
	store := NewMemoryStore()
	mgr, _, _ := newTestManager(store)
	ctx := context.Background()

	created, err := mgr.CreateSession(ctx, "U1", models.RoleUser, testEnv)
	require.NoError(t, err)
	require.NotEmpty(t, created.SessionID)
	require.NotEmpty(t, created.AccessToken)
	require.NotEmpty(t, created.RefreshToken)

	// the persisted row must carry the real tokens, never the placeholder
	sess, err := store.GetByID(ctx, created.SessionID)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, created.AccessToken, sess.AccessTokenHash)
	assert.Equal(t, created.RefreshToken, sess.RefreshTokenHash)
	assert.Equal(t, "U1", sess.UserID)

	// exactly one SESSION_CREATED audit entry
	logs, err := store.ListLogsByUser(ctx, "U1", 1, 10)
	require.NoError(t, err)
	require.Len(t, logs.Data, 1)
	assert.Equal(t, EventSessionCreated, logs.Data[0].Event)
	assert.Equal(t, "Chrome", logs.Data[0].Browser)
}

// failure-injecting decorators

type failingHashesStore struct {
	Store
}

func (f *failingHashesStore) SetTokenHashes(ctx context.Context, id, a, r string) (*Session, error) {
	return nil, fmt.Errorf("injected: hash update rejected")
}

type failingLogStore struct {
	Store
	calls int
}

func (f *failingLogStore) AppendLog(ctx context.Context, e *AuditLogEntry) error {
	f.calls++
	return fmt.Errorf("injected: audit insert rejected")
}

func TestCreateSession_AtomicOnHashUpdateFailure(t *testing.T) {
	mem := NewMemoryStore()
	mgr, _, _ := newTestManager(&failingHashesStore{Store: mem})

	_, err := mgr.CreateSession(context.Background(), "U1", models.RoleUser, testEnv)
	require.True(t, errors.Is(err, apperr.ErrSessionCreationFailed))

	assert.Equal(t, 0, mem.SessionCount(), "aborted transaction must leave zero session rows")
	assert.Equal(t, 0, mem.LogCount())
}

func TestCreateSession_AtomicOnAuditFailure(t *testing.T) {
	mem := NewMemoryStore()
	failing := &failingLogStore{Store: mem}
	mgr, _, _ := newTestManager(failing)

	_, err := mgr.CreateSession(context.Background(), "U1", models.RoleUser, testEnv)
	require.True(t, errors.Is(err, apperr.ErrSessionCreationFailed))
	require.Equal(t, 1, failing.calls)

	assert.Equal(t, 0, mem.SessionCount(), "session row must roll back with the failed audit insert")
}

func TestCreateSession_ConfigurationErrorSurfaces(t *testing.T) {
	store := NewMemoryStore()
	clk := &fakeClock{t: time.Now()}
	access := tokens.NewIssuer("", accessTTL).WithClock(clk.Now)
	refresh := tokens.NewIssuer("refresh-secret-32-bytes-xxxxxxxxx", refreshTTL).WithClock(clk.Now)
	users := &fakeUsers{byID: map[string]*models.User{"U1": {ID: "U1", Role: models.RoleUser}}}
	mgr := NewManager(store, users, access, refresh)

	_, err := mgr.CreateSession(context.Background(), "U1", models.RoleUser, testEnv)
	require.True(t, errors.Is(err, apperr.ErrSessionCreationFailed))
	require.True(t, errors.Is(err, apperr.ErrConfiguration), "cause must stay visible through the wrap")
	assert.Equal(t, 0, store.SessionCount())
}

func TestAuthenticate_FreshAccessToken(t *testing.T) {
	store := NewMemoryStore()
	mgr, _, _ := newTestManager(store)
	ctx := context.Background()

	created, err := mgr.CreateSession(ctx, "U1", models.RoleUser, testEnv)
	require.NoError(t, err)

	auth, err := mgr.Authenticate(ctx, bearer(created.AccessToken), created.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "U1", auth.User.ID)
	assert.Equal(t, created.SessionID, auth.SessionID)
	assert.Equal(t, models.RoleUser, auth.Role)
	assert.Empty(t, auth.NewAccessToken, "no refresh should happen for a valid token")
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	mgr, _, _ := newTestManager(NewMemoryStore())

	for _, header := range []string{"", "Bearer", "Basic abc"} {
		_, err := mgr.Authenticate(context.Background(), header, "")
		require.True(t, errors.Is(err, apperr.ErrUnauthenticated), "header=%q err=%v", header, err)
	}
}

func TestAuthenticate_TransparentRefresh(t *testing.T) {
	store := NewMemoryStore()
	mgr, _, clk := newTestManager(store)
	ctx := context.Background()

	created, err := mgr.CreateSession(ctx, "U1", models.RoleUser, testEnv)
	require.NoError(t, err)

	clk.Advance(accessTTL + time.Second)

	auth, err := mgr.Authenticate(ctx, bearer(created.AccessToken), created.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, auth.NewAccessToken)
	assert.NotEqual(t, created.AccessToken, auth.NewAccessToken)

	// the fresh token carries the original claims
	verifier := tokens.NewIssuer("access-secret-32-bytes-xxxxxxxxxx", accessTTL).WithClock(clk.Now)
	claims, err := verifier.Verify(auth.NewAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "U1", claims.UserID)
	assert.Equal(t, created.SessionID, claims.SessionID)
	assert.Equal(t, models.RoleUser, claims.Role)

	// the session row now holds the new access hash
	sess, err := store.GetByID(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, auth.NewAccessToken, sess.AccessTokenHash)

	// refresh produced no audit entry
	assert.Equal(t, 1, store.LogCount())
}

func TestAuthenticate_ExpiredWithoutRefreshToken(t *testing.T) {
	mgr, _, clk := newTestManager(NewMemoryStore())
	ctx := context.Background()

	created, err := mgr.CreateSession(ctx, "U1", models.RoleUser, testEnv)
	require.NoError(t, err)

	clk.Advance(accessTTL + time.Second)

	_, err = mgr.Authenticate(ctx, bearer(created.AccessToken), "")
	require.True(t, errors.Is(err, apperr.ErrInvalidToken))
}

func TestAuthenticate_GarbageAccessTokenIsInvalidNotExpired(t *testing.T) {
	mgr, _, _ := newTestManager(NewMemoryStore())
	ctx := context.Background()

	created, err := mgr.CreateSession(ctx, "U1", models.RoleUser, testEnv)
	require.NoError(t, err)

	// even with a valid refresh token present, a structurally invalid
	// access token must not trigger the refresh path
	_, err = mgr.Authenticate(ctx, bearer("garbage.token.here"), created.RefreshToken)
	require.True(t, errors.Is(err, apperr.ErrInvalidToken))
	require.False(t, errors.Is(err, apperr.ErrSessionExpired))
}

func TestAuthenticate_ExpiredRefreshIsSessionExpired(t *testing.T) {
	mgr, _, clk := newTestManager(NewMemoryStore())
	ctx := context.Background()

	created, err := mgr.CreateSession(ctx, "U1", models.RoleUser, testEnv)
	require.NoError(t, err)

	// push past the refresh TTL as well: no renewal path remains
	clk.Advance(refreshTTL + time.Second)

	_, err = mgr.Authenticate(ctx, bearer(created.AccessToken), created.RefreshToken)
	require.True(t, errors.Is(err, apperr.ErrSessionExpired))
}

func TestAuthenticate_RevokedSessionFailsDespiteValidToken(t *testing.T) {
	mgr, _, _ := newTestManager(NewMemoryStore())
	ctx := context.Background()

	created, err := mgr.CreateSession(ctx, "U1", models.RoleUser, testEnv)
	require.NoError(t, err)
	require.NoError(t, mgr.Revoke(ctx, "U1", created.SessionID, testEnv))

	_, err = mgr.Authenticate(ctx, bearer(created.AccessToken), "")
	require.True(t, errors.Is(err, apperr.ErrSessionNotFound))
}

func TestAuthenticate_DeletedUserFailsDespiteValidToken(t *testing.T) {
	mgr, users, _ := newTestManager(NewMemoryStore())
	ctx := context.Background()

	created, err := mgr.CreateSession(ctx, "U1", models.RoleUser, testEnv)
	require.NoError(t, err)

	delete(users.byID, "U1")
	_, err = mgr.Authenticate(ctx, bearer(created.AccessToken), "")
	require.True(t, errors.Is(err, apperr.ErrUserNotFound))
}

func TestRegenerate_LostRaceAgainstRevocation(t *testing.T) {
	mgr, _, _ := newTestManager(NewMemoryStore())
	ctx := context.Background()

	created, err := mgr.CreateSession(ctx, "U1", models.RoleUser, testEnv)
	require.NoError(t, err)
	require.NoError(t, mgr.Revoke(ctx, "U1", created.SessionID, testEnv))

	// the session row is gone; the matched update must not resurrect it
	_, err = mgr.Regenerate(ctx, created.RefreshToken)
	require.True(t, errors.Is(err, apperr.ErrSessionNotFound))
}

func TestAuthenticate_RefreshAfterRevocationIsSessionExpired(t *testing.T) {
	mgr, _, clk := newTestManager(NewMemoryStore())
	ctx := context.Background()

	created, err := mgr.CreateSession(ctx, "U1", models.RoleUser, testEnv)
	require.NoError(t, err)
	require.NoError(t, mgr.Revoke(ctx, "U1", created.SessionID, testEnv))

	clk.Advance(accessTTL + time.Second)

	_, err = mgr.Authenticate(ctx, bearer(created.AccessToken), created.RefreshToken)
	require.True(t, errors.Is(err, apperr.ErrSessionExpired))
	require.True(t, errors.Is(err, apperr.ErrSessionNotFound), "cause must stay visible through the wrap")
}

func TestRevoke_DoubleRevocation(t *testing.T) {
	store := NewMemoryStore()
	mgr, _, _ := newTestManager(store)
	ctx := context.Background()

	created, err := mgr.CreateSession(ctx, "U1", models.RoleUser, testEnv)
	require.NoError(t, err)

	require.NoError(t, mgr.Revoke(ctx, "U1", created.SessionID, testEnv))
	err = mgr.Revoke(ctx, "U1", created.SessionID, testEnv)
	require.True(t, errors.Is(err, apperr.ErrAlreadyRevoked))

	// one created + one revoked entry, nothing for the failed second call
	logs, err := store.ListLogsByUser(ctx, "U1", 1, 10)
	require.NoError(t, err)
	require.Len(t, logs.Data, 2)
	assert.Equal(t, EventSessionRevoked, logs.Data[0].Event)
	assert.Equal(t, EventSessionCreated, logs.Data[1].Event)
}

func TestRevoke_WrongUserDoesNotMatch(t *testing.T) {
	mgr, _, _ := newTestManager(NewMemoryStore())
	ctx := context.Background()

	created, err := mgr.CreateSession(ctx, "U1", models.RoleUser, testEnv)
	require.NoError(t, err)

	err = mgr.Revoke(ctx, "someone-else", created.SessionID, testEnv)
	require.True(t, errors.Is(err, apperr.ErrAlreadyRevoked))

	// the session survives a mismatched revocation attempt
	_, err = mgr.Authenticate(ctx, bearer(created.AccessToken), "")
	require.NoError(t, err)
}

func TestSessionLifecycle_EndToEnd(t *testing.T) {
	store := NewMemoryStore()
	mgr, _, clk := newTestManager(store)
	ctx := context.Background()

	created, err := mgr.CreateSession(ctx, "U1", "user", testEnv)
	require.NoError(t, err)

	// immediately valid, no new token issued
	auth, err := mgr.Authenticate(ctx, bearer(created.AccessToken), created.RefreshToken)
	require.NoError(t, err)
	require.Empty(t, auth.NewAccessToken)

	// past the access TTL the same token only works via refresh
	clk.Advance(accessTTL + time.Second)
	auth, err = mgr.Authenticate(ctx, bearer(created.AccessToken), created.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, auth.NewAccessToken)
	assert.Equal(t, "U1", auth.User.ID)
	assert.Equal(t, created.SessionID, auth.SessionID)

	// the refreshed token authenticates on its own
	auth2, err := mgr.Authenticate(ctx, bearer(auth.NewAccessToken), created.RefreshToken)
	require.NoError(t, err)
	require.Empty(t, auth2.NewAccessToken)

	// revocation ends the lifecycle for good
	require.NoError(t, mgr.Revoke(ctx, "U1", created.SessionID, testEnv))
	_, err = mgr.Authenticate(ctx, bearer(auth.NewAccessToken), created.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, 0, store.SessionCount())
}

func TestListForUser_Pagination(t *testing.T) {
	store := NewMemoryStore()
	mgr, _, _ := newTestManager(store)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := mgr.CreateSession(ctx, "U1", models.RoleUser, testEnv)
		require.NoError(t, err)
	}

	page, err := mgr.ListForUser(ctx, "U1", 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)

	last, err := mgr.ListForUser(ctx, "U1", 3, 2)
	require.NoError(t, err)
	assert.Len(t, last.Data, 1)
}
