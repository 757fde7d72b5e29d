package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	database "proctorx_backend/internals/databases"
	"proctorx_backend/internals/features/users/auth/dto"
	"proctorx_backend/internals/features/users/auth/provider"
	authRepo "proctorx_backend/internals/features/users/auth/repository"
	profileModel "proctorx_backend/internals/features/users/user_profiles/model"
	profileRepo "proctorx_backend/internals/features/users/user_profiles/repository"
)

// fallback blacklist lifetime for tokens without a readable exp
const defaultTokenTTL = 24 * time.Hour

type Service struct {
	Provider  provider.Provider
	Profiles  profileRepo.Repository
	Blacklist authRepo.BlacklistRepository
	now       func() time.Time
}

func New(p provider.Provider, profiles profileRepo.Repository, bl authRepo.BlacklistRepository) *Service {
	return &Service{
		Provider:  p,
		Profiles:  profiles,
		Blacklist: bl,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func providerMessage(err error, fallback string) string {
	var re *provider.RejectedError
	if errors.As(err, &re) {
		return re.Message
	}
	if errors.Is(err, provider.ErrInvalidCredentials) {
		return err.Error()
	}
	return fallback
}

/* ===================== Register ===================== */

func (s *Service) Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error) {
	req.Normalize()

	ident, err := s.Provider.SignUp(ctx, req.Email, req.Password, map[string]any{
		"full_name": req.FullName,
		"role":      req.Role,
	})
	if err != nil {
		var re *provider.RejectedError
		if errors.As(err, &re) {
			return nil, fiber.NewError(fiber.StatusBadRequest, re.Message)
		}
		return nil, err
	}

	profile := &profileModel.UserProfileModel{
		ID:       ident.ID,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
	}
	// the account already exists at the provider; a missing profile only degrades the role to ""
	if err := s.Profiles.Create(ctx, profile); err != nil {
		log.Printf("[WARN] register: profile for %s not created: %v", ident.ID, err)
		profile = nil
	}

	return &dto.UserResponse{ID: ident.ID, Email: ident.Email, Profile: profile}, nil
}

/* ===================== Login ===================== */

func (s *Service) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	req.Normalize()

	sess, err := s.Provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		msg := providerMessage(err, "")
		if msg == "" {
			log.Printf("[ERROR] login: provider unavailable: %v", err)
			msg = "Authentication service unavailable"
		}
		return nil, fiber.NewError(fiber.StatusUnauthorized, msg)
	}

	profile, err := s.Profiles.FindByID(ctx, sess.User.ID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	return &dto.LoginResponse{
		Token:     sess.AccessToken,
		ExpiresAt: sess.ExpiresAt.Unix(),
		User:      dto.UserResponse{ID: sess.User.ID, Email: sess.User.Email, Profile: profile},
	}, nil
}

/* ===================== Logout ===================== */

// tokenExpiry reads exp without verifying; the middleware already did.
func tokenExpiry(token string, fallback time.Time) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return fallback
	}
	switch v := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(v), 0).UTC()
	case int64:
		return time.Unix(v, 0).UTC()
	}
	return fallback
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "No token provided")
	}
	exp := tokenExpiry(token, s.now().Add(defaultTokenTTL))
	if err := s.Blacklist.Add(ctx, token, exp); err != nil {
		return err
	}
	if err := s.Provider.SignOut(ctx, token); err != nil {
		log.Printf("[WARN] logout: provider sign-out failed: %v", err)
	}
	return nil
}

/* ===================== Me ===================== */

func (s *Service) Me(ctx context.Context, userID uuid.UUID, email string) (*dto.UserResponse, error) {
	profile, err := s.Profiles.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return nil, err
		}
		profile = nil
	}
	if email == "" && profile != nil {
		email = profile.Email
	}
	return &dto.UserResponse{ID: userID, Email: email, Profile: profile}, nil
}

/* ===================== Cleanup ===================== */

// PurgeBlacklist drops rows that expired more than ttl ago.
func (s *Service) PurgeBlacklist(ctx context.Context, ttl time.Duration) (int64, error) {
	return s.Blacklist.PurgeExpired(ctx, s.now().Add(-ttl))
}
