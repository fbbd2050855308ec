package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lanhub-app/lanhub/internal/shared"
	"github.com/lanhub-app/lanhub/internal/users"
)

type mockRepository struct {
	byUsername map[string]users.User
	touched    []int64
}

func (m *mockRepository) FindByUsername(ctx context.Context, username string) (users.User, error) {
	u, ok := m.byUsername[username]
	if !ok {
		return users.User{}, fmt.Errorf("user %q: %w", username, shared.ErrNotFound)
	}
	return u, nil
}

func (m *mockRepository) TouchLastLogin(ctx context.Context, userID int64) error {
	m.touched = append(m.touched, userID)
	return nil
}

func seedRepo(t *testing.T) *mockRepository {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("open sesame"), bcrypt.MinCost)
	require.NoError(t, err)
	return &mockRepository{byUsername: map[string]users.User{
		"alice": {ID: 1, Username: "alice", PasswordHash: string(hash), IsActive: true, CreatedAt: time.Now()},
		"mallory": {ID: 2, Username: "mallory", PasswordHash: string(hash), IsActive: false},
	}}
}

func TestAuthenticate(t *testing.T) {
	repo := seedRepo(t)
	svc := NewService(repo, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "alice", "open sesame")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, []int64{1}, repo.touched)
}

func TestAuthenticateFailures(t *testing.T) {
	repo := seedRepo(t)
	svc := NewService(repo, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	cases := map[string]struct {
		username string
		password string
	}{
		"wrong password":   {"alice", "not it"},
		"unknown username": {"nobody", "open sesame"},
		"inactive account": {"mallory", "open sesame"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Authenticate(ctx, tc.username, tc.password)
			require.Error(t, err)
			// One indistinguishable error for all failure modes.
			assert.True(t, errors.Is(err, shared.ErrInvalidCredentials))
		})
	}
	assert.Empty(t, repo.touched)
}
