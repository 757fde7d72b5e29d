package auth

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"proctorx_backend/internals/configs"
	database "proctorx_backend/internals/databases"
	authRepo "proctorx_backend/internals/features/users/auth/repository"
	profileRepo "proctorx_backend/internals/features/users/user_profiles/repository"
	helperAuth "proctorx_backend/internals/helpers/auth"
)

const (
	msgNoToken      = "No token provided"
	msgInvalidToken = "Invalid or expired token"

	expirySkew = 30 * time.Second
)

type Config struct {
	Secret    string
	Blacklist authRepo.BlacklistRepository
	Profiles  profileRepo.Repository
	// Now is overridable in tests.
	Now func() time.Time
}

// Authenticate verifies the bearer token and loads the caller's profile into locals.
func Authenticate(cfg Config) fiber.Handler {
	if cfg.Secret == "" {
		cfg.Secret = configs.JWTSecret
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		log.Println("[ERROR] auth: no JWT secret configured, rejecting every token")
	}

	return func(c *fiber.Ctx) error {
		if len(secret) == 0 {
			return fiber.NewError(fiber.StatusUnauthorized, msgInvalidToken)
		}
		raw, err := extractToken(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, msgNoToken)
		}

		if cfg.Blacklist != nil {
			revoked, err := cfg.Blacklist.IsBlacklisted(c.UserContext(), raw)
			if err != nil {
				log.Printf("[ERROR] auth: blacklist lookup failed: %v", err)
				return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
			}
			if revoked {
				return fiber.NewError(fiber.StatusUnauthorized, msgInvalidToken)
			}
		}

		claims, err := parseToken(secret, raw)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, msgInvalidToken)
		}
		if err := validateTokenExpiry(claims, cfg.Now(), expirySkew); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, msgInvalidToken)
		}
		userID, err := extractUserID(claims)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, msgInvalidToken)
		}

		c.Locals(helperAuth.LocUserID, userID.String())
		c.Locals(helperAuth.LocToken, raw)
		if email, ok := claims["email"].(string); ok {
			c.Locals(helperAuth.LocEmail, email)
		}

		// a user without a profile row keeps an empty role and fails every role gate
		role := ""
		if cfg.Profiles != nil {
			p, err := cfg.Profiles.FindByID(c.UserContext(), userID)
			switch {
			case err == nil:
				role = p.Role
				c.Locals(helperAuth.LocProfile, p)
			case !errors.Is(err, database.ErrNotFound):
				log.Printf("[ERROR] auth: profile lookup for %s failed: %v", userID, err)
				return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
			}
		}
		c.Locals(helperAuth.LocRole, role)

		return c.Next()
	}
}
