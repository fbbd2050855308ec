package auth

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/lanhub-app/lanhub/internal/shared"
	"github.com/lanhub-app/lanhub/internal/users"
)

// dummyHash is a valid bcrypt digest of a random string, only ever
// compared against to equalize timing for unknown usernames.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a new Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Authenticate validates username/password credentials. Every failure
// mode collapses into ErrInvalidCredentials so responses never reveal
// whether the username exists or the account is disabled.
func (s *Service) Authenticate(ctx context.Context, username, password string) (users.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		// Compare against a throwaway hash to keep the timing of
		// missing and present usernames comparable.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return users.User{}, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return users.User{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return users.User{}, shared.ErrInvalidCredentials
	}
	if err := s.repo.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("touch last login", "user_id", user.ID, "error", err)
	}
	return user, nil
}
