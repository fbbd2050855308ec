package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/lanhub-app/lanhub/internal/shared"
)

// MinPasswordLength is enforced on create and on password change.
const MinPasswordLength = 8

// Service handles user management business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns users matching search, newest first.
func (s *Service) List(ctx context.Context, search string, page shared.Pagination) ([]User, int, error) {
	return s.repo.List(ctx, strings.TrimSpace(search), page)
}

// Get fetches a user by ID.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// CreateInput carries the fields for a new user.
type CreateInput struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	IsActive bool   `json:"is_active"`
	IsAdmin  bool   `json:"is_admin"`
	RoleID   *int64 `json:"role_id"`
	Theme    string `json:"theme"`
}

// Create hashes the password and inserts the user.
func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	theme := in.Theme
	if theme == "" {
		theme = "light"
	}
	if !ValidThemes[theme] {
		return User{}, fmt.Errorf("%w: unknown theme %q", shared.ErrValidation, theme)
	}
	return s.repo.Create(ctx, User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		IsActive:     in.IsActive,
		IsAdmin:      in.IsAdmin,
		RoleID:       in.RoleID,
		Theme:        theme,
	})
}

// UpdateInput carries the editable fields of an existing user.
type UpdateInput struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
	IsActive bool   `json:"is_active"`
	IsAdmin  bool   `json:"is_admin"`
	RoleID   *int64 `json:"role_id"`
}

// Update modifies a user; a non-empty password is rehashed.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	user.Username = strings.TrimSpace(in.Username)
	user.Email = strings.ToLower(strings.TrimSpace(in.Email))
	user.IsActive = in.IsActive
	user.IsAdmin = in.IsAdmin
	user.RoleID = in.RoleID
	if err := s.repo.Update(ctx, user); err != nil {
		return User{}, err
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
			return User{}, err
		}
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a user. actorID guards against self-deletion.
func (s *Service) Delete(ctx context.Context, id, actorID int64) error {
	if id == actorID {
		return fmt.Errorf("%w: you cannot delete your own account", shared.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}

// Toggle flips the active flag. actorID guards against self-deactivation.
func (s *Service) Toggle(ctx context.Context, id, actorID int64) (User, error) {
	if id == actorID {
		return User{}, fmt.Errorf("%w: you cannot deactivate your own account", shared.ErrValidation)
	}
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := s.repo.SetActive(ctx, id, !user.IsActive); err != nil {
		return User{}, err
	}
	user.IsActive = !user.IsActive
	return user, nil
}

// ChangePassword verifies the current password before storing the new one.
func (s *Service) ChangePassword(ctx context.Context, id int64, current, next string) error {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return fmt.Errorf("current password: %w", shared.ErrInvalidCredentials)
	}
	if len(next) < MinPasswordLength {
		return fmt.Errorf("%w: new password must be at least %d characters", shared.ErrValidation, MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, string(hash))
}

// SetTheme persists the user's theme preference.
func (s *Service) SetTheme(ctx context.Context, id int64, theme string) error {
	if !ValidThemes[theme] {
		return fmt.Errorf("%w: unknown theme %q", shared.ErrValidation, theme)
	}
	return s.repo.UpdateTheme(ctx, id, theme)
}
