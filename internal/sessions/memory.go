package sessions

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-memory Store used for unit tests and for running
// the service without MongoDB. Transactions are serialized; rollback
// restores a snapshot taken when the transaction began, so an aborted
// createSession leaves zero rows behind.
type MemoryStore struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	sessions map[string]*Session
	logs     []*AuditLogEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapSessions := make(map[string]*Session, len(m.sessions))
	for k, v := range m.sessions {
		cp := *v
		snapSessions[k] = &cp
	}
	snapLogs := append([]*AuditLogEntry(nil), m.logs...)
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.sessions = snapSessions
		m.logs = snapLogs
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *MemoryStore) Create(ctx context.Context, s *Session) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	if s.ID == "" {
		s.ID = primitive.NewObjectID().Hex()
	}
	cp := *s
	m.sessions[s.ID] = &cp
	return s, nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryStore) GetByUserAndID(ctx context.Context, userID, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok && s.UserID == userID {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryStore) ListByUser(ctx context.Context, userID string, page, limit int) (*SessionPage, error) {
	page, limit = normalizePage(page, limit)
	m.mu.Lock()
	defer m.mu.Unlock()

	all := []*Session{}
	for _, s := range m.sessions {
		if s.UserID == userID {
			cp := *s
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return &SessionPage{Data: all[start:end], Total: total, TotalPages: totalPages(total, limit), CurrentPage: page}, nil
}

func (m *MemoryStore) SetTokenHashes(ctx context.Context, id, accessHash, refreshHash string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	s.AccessTokenHash = accessHash
	s.RefreshTokenHash = refreshHash
	s.UpdatedAt = time.Now().UTC()
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) SetAccessTokenHash(ctx context.Context, id, accessHash string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	s.AccessTokenHash = accessHash
	s.UpdatedAt = time.Now().UTC()
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Delete(ctx context.Context, userID, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return nil, nil
	}
	delete(m.sessions, id)
	return s, nil
}

func (m *MemoryStore) AppendLog(ctx context.Context, e *AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = primitive.NewObjectID().Hex()
	}
	e.CreatedAt = time.Now().UTC()
	cp := *e
	m.logs = append(m.logs, &cp)
	return nil
}

func (m *MemoryStore) ListLogsByUser(ctx context.Context, userID string, page, limit int) (*AuditLogPage, error) {
	page, limit = normalizePage(page, limit)
	m.mu.Lock()
	defer m.mu.Unlock()

	all := []*AuditLogEntry{}
	for _, e := range m.logs {
		if e.UserID == userID {
			cp := *e
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return &AuditLogPage{Data: all[start:end], Total: total, TotalPages: totalPages(total, limit), CurrentPage: page}, nil
}

// SessionCount reports the number of live session rows. Test helper.
func (m *MemoryStore) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// LogCount reports the number of audit log entries. Test helper.
func (m *MemoryStore) LogCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.logs)
}
