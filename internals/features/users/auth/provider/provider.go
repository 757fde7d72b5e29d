package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"proctorx_backend/internals/configs"
	authRepo "proctorx_backend/internals/features/users/auth/repository"
)

var (
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	ErrEmailTaken         = errors.New("User already registered")
)

// RejectedError is a provider-side refusal whose message is safe to show.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string { return e.Message }

type Identity struct {
	ID        uuid.UUID      `json:"id"`
	Email     string         `json:"email"`
	Metadata  map[string]any `json:"user_metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        Identity  `json:"user"`
}

// Provider is the hosted identity service (or its local stand-in).
type Provider interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// NewFromEnv returns the GoTrue provider unless AUTH_PROVIDER=local.
func NewFromEnv(creds authRepo.CredentialRepository) Provider {
	if strings.EqualFold(configs.GetEnv("AUTH_PROVIDER", "supabase"), "local") {
		return NewLocalProvider(creds, configs.JWTSecret, 24*time.Hour)
	}
	return NewGoTrueProvider(
		configs.GetEnv("SUPABASE_PROJECT_URL"),
		configs.GetEnv("SUPABASE_ANON_KEY"),
	)
}
