package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proctorx_backend/internals/constants"
	"proctorx_backend/internals/features/users/auth/dto"
	"proctorx_backend/internals/features/users/auth/provider"
	authRepo "proctorx_backend/internals/features/users/auth/repository"
	profileRepo "proctorx_backend/internals/features/users/user_profiles/repository"
)

func newTestService() *Service {
	creds := authRepo.NewMemoryCredentials()
	return New(
		provider.NewLocalProvider(creds, "secret", time.Hour),
		profileRepo.NewMemoryRepository(),
		authRepo.NewMemoryBlacklist("secret"),
	)
}

func fiberCode(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return 0
}

func TestRegisterCreatesProfileWithDefaultRole(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	user, err := s.Register(ctx, dto.RegisterRequest{Email: " Ana@Example.com ", Password: "password123", FullName: "Ana"})
	require.NoError(t, err)
	require.NotNil(t, user.Profile)
	assert.Equal(t, constants.RoleStudent, user.Profile.Role)
	assert.Equal(t, "ana@example.com", user.Profile.Email)

	_, err = s.Register(ctx, dto.RegisterRequest{Email: "ana@example.com", Password: "password123", FullName: "Ana"})
	assert.Equal(t, fiber.StatusBadRequest, fiberCode(err))
}

func TestLoginAndLogout(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	_, err := s.Register(ctx, dto.RegisterRequest{Email: "teach@example.com", Password: "password123", FullName: "Teach", Role: constants.RoleInstructor})
	require.NoError(t, err)

	_, err = s.Login(ctx, dto.LoginRequest{Email: "teach@example.com", Password: "nope"})
	assert.Equal(t, fiber.StatusUnauthorized, fiberCode(err))

	res, err := s.Login(ctx, dto.LoginRequest{Email: "TEACH@example.com", Password: "password123"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.NotNil(t, res.User.Profile)
	assert.Equal(t, constants.RoleInstructor, res.User.Profile.Role)

	require.NoError(t, s.Logout(ctx, res.Token))
	revoked, err := s.Blacklist.IsBlacklisted(ctx, res.Token)
	require.NoError(t, err)
	assert.True(t, revoked)

	assert.Equal(t, fiber.StatusUnauthorized, fiberCode(s.Logout(ctx, "")))
}

func TestMeWithoutProfile(t *testing.T) {
	s := newTestService()
	user, err := s.Me(context.Background(), uuid.New(), "ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, user.Profile)
	assert.Equal(t, "ghost@example.com", user.Email)
}

func TestTokenExpiryFallback(t *testing.T) {
	fallback := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, fallback, tokenExpiry("garbage", fallback))
}

func TestPurgeBlacklistKeepsRecentRows(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Blacklist.Add(ctx, "old-token", base.Add(-10*24*time.Hour)))
	require.NoError(t, s.Blacklist.Add(ctx, "fresh-token", base.Add(-time.Hour)))

	s.now = func() time.Time { return base }
	n, err := s.PurgeBlacklist(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	gone, _ := s.Blacklist.IsBlacklisted(ctx, "old-token")
	kept, _ := s.Blacklist.IsBlacklisted(ctx, "fresh-token")
	assert.False(t, gone)
	assert.True(t, kept)
}
