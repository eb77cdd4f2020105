package notes

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepository is an in-memory Repository used in tests and when no
// MongoDB URI is configured.
type MemoryRepository struct {
	mu    sync.Mutex
	notes map[string]*Note
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{notes: map[string]*Note{}}
}

func (r *MemoryRepository) Create(ctx context.Context, n *Note) (*Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	cp := *n
	if cp.ID == "" {
		cp.ID = primitive.NewObjectID().Hex()
	}
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.notes[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID string, page, limit int) (*Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := []*Note{}
	for _, n := range r.notes {
		if n.UserID == userID {
			cp := *n
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
	return &Page{Data: all[start:end], Total: total, TotalPages: totalPages(total, limit), CurrentPage: page}, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (*Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	if !ok {
		return nil, nil
	}
	for k, v := range fields {
		switch k {
		case "title":
			n.Title, _ = v.(string)
		case "content":
			n.Content, _ = v.(string)
		case "attachmentKey":
			n.AttachmentKey, _ = v.(string)
		}
	}
	n.UpdatedAt = time.Now().UTC()
	cp := *n
	return &cp, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) (*Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	if !ok {
		return nil, nil
	}
	delete(r.notes, id)
	return n, nil
}

func (r *MemoryRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for id, n := range r.notes {
		if n.UserID == userID {
			delete(r.notes, id)
			count++
		}
	}
	return count, nil
}
