package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/notevault/notevault/internal/apperr"
	"github.com/notevault/notevault/internal/models"
	"github.com/notevault/notevault/internal/password"
)

// Service encapsulates user-related business logic
type Service struct {
	repo   Repository
	hasher *password.Hasher
}

func NewService(repo Repository, hasher *password.Hasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// Register creates a full account for the given credentials. When
// guestID names an existing guest user, the guest account is upgraded
// in place so its sessions and notes carry over.
func (s *Service) Register(ctx context.Context, name, email, plain, guestID string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if existing, err := s.repo.GetByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperr.ErrEmailTaken
	}

	hashed, err := s.hasher.Hash(plain)
	if err != nil {
		return nil, err
	}

	if guestID != "" {
		guest, err := s.repo.GetByID(ctx, guestID)
		if err != nil {
			return nil, err
		}
		if guest != nil && guest.Role == models.RoleGuest {
			return s.repo.Update(ctx, guestID, map[string]interface{}{
				"name":           name,
				"email":          email,
				"hashedPassword": hashed,
				"role":           models.RoleUser,
			})
		}
	}

	return s.repo.Create(ctx, &models.User{
		Name:           name,
		Email:          email,
		HashedPassword: hashed,
		Role:           models.RoleUser,
		IsActive:       true,
	})
}

// CreateGuest provisions a throwaway account with no credentials. The
// synthetic email keeps the unique index on users.email satisfied; a
// later upgrade via Register replaces it with a real address.
func (s *Service) CreateGuest(ctx context.Context) (*models.User, error) {
	u, err := s.repo.Create(ctx, &models.User{
		Name:     "Guest",
		Email:    fmt.Sprintf("guest_%s@example.com", uuid.NewString()),
		Role:     models.RoleGuest,
		IsActive: true,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, u.ID, map[string]interface{}{
		"name": fmt.Sprintf("Guest-%s", shortID(u.ID)),
	})
}

func shortID(id string) string {
	if len(id) <= 6 {
		return id
	}
	return id[len(id)-6:]
}

// VerifyCredentials returns the user matching email+password. Missing
// users, wrong passwords and deactivated accounts all collapse into
// the same error so callers can't probe which emails exist.
func (s *Service) VerifyCredentials(ctx context.Context, email, plain string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive || u.HashedPassword == "" {
		return nil, apperr.ErrInvalidCredentials
	}
	if !s.hasher.Compare(plain, u.HashedPassword) {
		return nil, apperr.ErrInvalidCredentials
	}
	return u, nil
}

// GetByID satisfies the session manager's user directory. Absent users
// are reported as (nil, nil).
func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetMe(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.ErrUserNotFound
	}
	return u, nil
}

// UpdateMe applies the caller-editable profile fields.
func (s *Service) UpdateMe(ctx context.Context, id, name string) (*models.User, error) {
	u, err := s.repo.Update(ctx, id, map[string]interface{}{"name": name})
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.ErrUserNotFound
	}
	return u, nil
}

func (s *Service) DeleteMe(ctx context.Context, id string) error {
	u, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return apperr.ErrUserNotFound
	}
	return nil
}

// List returns a page of users. Handlers gate this on the admin role.
func (s *Service) List(ctx context.Context, page, limit int) ([]*models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, page, limit)
}

// UpsertFromClaims creates or updates a user from OIDC claims.
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if sub == "" {
		return nil, nil
	}
	if email == "" {
		// providers may omit the email claim; keep the unique index happy
		email = fmt.Sprintf("oidc_%s@example.com", sub)
	}
	return s.repo.UpsertBySub(ctx, &models.User{
		Sub:   sub,
		Email: strings.ToLower(email),
		Name:  name,
	})
}
