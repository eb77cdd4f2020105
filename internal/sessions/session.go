package sessions

import (
	"time"

	"github.com/notevault/notevault/internal/clientenv"
)

// Session binds a user to one live token pair. Deleting the row is the
// revocation mechanism; there is no separate revoked flag.
type Session struct {
	ID               string    `bson:"_id,omitempty" json:"id"`
	UserID           string    `bson:"userId" json:"userId"`
	AccessTokenHash  string    `bson:"accessTokenHash" json:"-"`
	RefreshTokenHash string    `bson:"refreshTokenHash" json:"-"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt" json:"updatedAt"`
}

// EventKind labels a session lifecycle event in the audit log.
type EventKind string

const (
	EventSessionCreated EventKind = "SESSION_CREATED"
	EventSessionRevoked EventKind = "SESSION_REVOKED"
)

// AuditLogEntry is an append-only record of a lifecycle event. Entries are
// never updated or deleted. One entry per create/revoke; none per refresh.
type AuditLogEntry struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	UserID          string    `bson:"userId" json:"userId"`
	Browser         string    `bson:"browser" json:"browser"`
	Device          string    `bson:"device" json:"device"`
	OperatingSystem string    `bson:"operatingSystem" json:"operatingSystem"`
	Event           EventKind `bson:"event" json:"event"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
}

func newAuditLogEntry(userID string, event EventKind, env clientenv.Env) *AuditLogEntry {
	return &AuditLogEntry{
		UserID:          userID,
		Browser:         env.Browser,
		Device:          env.Device,
		OperatingSystem: env.OperatingSystem,
		Event:           event,
	}
}

// SessionPage is a paginated slice of sessions.
type SessionPage struct {
	Data        []*Session `json:"data"`
	Total       int64      `json:"total"`
	TotalPages  int        `json:"totalPages"`
	CurrentPage int        `json:"currentPage"`
}

// AuditLogPage is a paginated slice of audit log entries.
type AuditLogPage struct {
	Data        []*AuditLogEntry `json:"data"`
	Total       int64            `json:"total"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
