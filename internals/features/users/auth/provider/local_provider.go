package provider

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	database "proctorx_backend/internals/databases"
	authModel "proctorx_backend/internals/features/users/auth/model"
	authRepo "proctorx_backend/internals/features/users/auth/repository"
)

// LocalProvider keeps credentials in Postgres and mints HS256 tokens shaped
// like the hosted service's, so the same middleware verifies both.
type LocalProvider struct {
	creds  authRepo.CredentialRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

var errNoSecret = errors.New("local provider: no signing secret")

func NewLocalProvider(creds authRepo.CredentialRepository, secret string, ttl time.Duration) *LocalProvider {
	return &LocalProvider{creds: creds, secret: []byte(secret), ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	c := &authModel.AuthCredential{UserID: uuid.New(), Email: email, PasswordHash: string(hash)}
	if err := p.creds.Create(ctx, c); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, &RejectedError{Message: ErrEmailTaken.Error()}
		}
		return nil, err
	}
	return &Identity{ID: c.UserID, Email: c.Email, Metadata: metadata, CreatedAt: p.now()}, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	c, err := p.creds.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := p.now()
	exp := now.Add(p.ttl)
	claims := jwt.MapClaims{
		"sub":   c.UserID.String(),
		"email": c.Email,
		"role":  "authenticated",
		"aud":   "authenticated",
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}
	if len(p.secret) == 0 {
		return nil, errNoSecret
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken: signed,
		ExpiresAt:   exp,
		User:        Identity{ID: c.UserID, Email: c.Email, CreatedAt: c.CreatedAt},
	}, nil
}

// SignOut is a no-op; revocation is the blacklist's job.
func (p *LocalProvider) SignOut(context.Context, string) error { return nil }
