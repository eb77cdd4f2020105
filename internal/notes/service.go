package notes

import (
	"context"
	"strings"

	"github.com/notevault/notevault/internal/apperr"
)

// Service applies ownership rules on top of the repository. Every
// operation except Create takes the caller's user id and refuses to
// touch notes owned by someone else.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, userID, title, content string) (*Note, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled"
	}
	return s.repo.Create(ctx, &Note{UserID: userID, Title: title, Content: content})
}

// owned loads a note and enforces ownership. A missing note is
// apperr.ErrNotFound; someone else's note is apperr.ErrForbidden.
func (s *Service) owned(ctx context.Context, userID, noteID string) (*Note, error) {
	n, err := s.repo.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, apperr.ErrNotFound
	}
	if n.UserID != userID {
		return nil, apperr.ErrForbidden
	}
	return n, nil
}

func (s *Service) Get(ctx context.Context, userID, noteID string) (*Note, error) {
	return s.owned(ctx, userID, noteID)
}

func (s *Service) List(ctx context.Context, userID string, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByUser(ctx, userID, page, limit)
}

func (s *Service) Update(ctx context.Context, userID, noteID string, title, content *string) (*Note, error) {
	if _, err := s.owned(ctx, userID, noteID); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if title != nil {
		fields["title"] = strings.TrimSpace(*title)
	}
	if content != nil {
		fields["content"] = *content
	}
	if len(fields) == 0 {
		return s.repo.GetByID(ctx, noteID)
	}
	n, err := s.repo.Update(ctx, noteID, fields)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, apperr.ErrNotFound
	}
	return n, nil
}

// Delete removes a note and reports its attachment key, if any, so the
// caller can clean up blob storage.
func (s *Service) Delete(ctx context.Context, userID, noteID string) (string, error) {
	if _, err := s.owned(ctx, userID, noteID); err != nil {
		return "", err
	}
	n, err := s.repo.Delete(ctx, noteID)
	if err != nil {
		return "", err
	}
	if n == nil {
		return "", apperr.ErrNotFound
	}
	return n.AttachmentKey, nil
}

// SetAttachment records the storage key of an uploaded file on the note
// and returns the key it replaced, if any.
func (s *Service) SetAttachment(ctx context.Context, userID, noteID, key string) (*Note, string, error) {
	prev, err := s.owned(ctx, userID, noteID)
	if err != nil {
		return nil, "", err
	}
	n, err := s.repo.Update(ctx, noteID, map[string]interface{}{"attachmentKey": key})
	if err != nil {
		return nil, "", err
	}
	if n == nil {
		return nil, "", apperr.ErrNotFound
	}
	return n, prev.AttachmentKey, nil
}

// PurgeUser removes every note owned by the given user.
func (s *Service) PurgeUser(ctx context.Context, userID string) (int64, error) {
	return s.repo.DeleteByUser(ctx, userID)
}
