package users

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/notevault/notevault/internal/models"
)

// MemoryRepository is an in-memory Repository used in tests and when no
// MongoDB URI is configured.
type MemoryRepository struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: map[string]*models.User{}}
}

// emailTakenLocked mirrors the unique index on users.email. Caller
// holds r.mu.
func (r *MemoryRepository) emailTakenLocked(email, excludeID string) bool {
	for _, u := range r.users {
		if u.ID != excludeID && u.Email == email {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTakenLocked(u.Email, "") {
		return nil, fmt.Errorf("duplicate key: users.email %q", u.Email)
	}
	now := time.Now().UTC()
	cp := *u
	if cp.ID == "" {
		cp.ID = primitive.NewObjectID().Hex()
	}
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	if email, ok := fields["email"].(string); ok && r.emailTakenLocked(email, id) {
		return nil, fmt.Errorf("duplicate key: users.email %q", email)
	}
	for k, v := range fields {
		switch k {
		case "name":
			u.Name, _ = v.(string)
		case "email":
			u.Email, _ = v.(string)
		case "hashedPassword":
			u.HashedPassword, _ = v.(string)
		case "role":
			u.Role, _ = v.(string)
		case "isActive":
			u.IsActive, _ = v.(bool)
		}
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	delete(r.users, id)
	return u, nil
}

func (r *MemoryRepository) List(ctx context.Context, page, limit int) ([]*models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := []*models.User{}
	for _, u := range r.users {
		cp := *u
		all = append(all, &cp)
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
	return all[start:end], total, nil
}

func (r *MemoryRepository) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for _, existing := range r.users {
		if existing.Sub == u.Sub {
			if r.emailTakenLocked(u.Email, existing.ID) {
				return nil, fmt.Errorf("duplicate key: users.email %q", u.Email)
			}
			existing.Email = u.Email
			existing.Name = u.Name
			existing.UpdatedAt = now
			cp := *existing
			return &cp, nil
		}
	}
	if r.emailTakenLocked(u.Email, "") {
		return nil, fmt.Errorf("duplicate key: users.email %q", u.Email)
	}
	cp := *u
	cp.ID = primitive.NewObjectID().Hex()
	cp.Role = models.RoleUser
	cp.IsActive = true
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.users[cp.ID] = &cp
	out := cp
	return &out, nil
}
