package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var errNoToken = errors.New("no token")

// extractToken reads the bearer header; websocket upgrades may pass ?token= instead.
func extractToken(c *fiber.Ctx) (string, error) {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if auth == "" {
		if websocket.IsWebSocketUpgrade(c) {
			if tok := strings.TrimSpace(c.Query("token")); tok != "" {
				return tok, nil
			}
		}
		return "", errNoToken
	}

	fields := strings.Fields(auth)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", errNoToken
	}
	tok := strings.Trim(strings.TrimSpace(fields[1]), "\"'")
	if tok == "" {
		return "", errNoToken
	}
	return tok, nil
}

func parseToken(secret []byte, raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.Parser{
		ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
		SkipClaimsValidation: true,
	}
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}); err != nil {
		return nil, err
	}
	return claims, nil
}

func validateTokenExpiry(claims jwt.MapClaims, now time.Time, skew time.Duration) error {
	var expUnix int64
	switch t := claims["exp"].(type) {
	case float64:
		expUnix = int64(t)
	case int64:
		expUnix = t
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid exp format")
		}
		expUnix = n
	case nil:
		return fmt.Errorf("token has no exp")
	default:
		return fmt.Errorf("invalid exp type %T", t)
	}

	expTime := time.Unix(expUnix, 0).UTC()
	if now.After(expTime.Add(skew)) {
		return fmt.Errorf("token expired at %v", expTime)
	}
	return nil
}

// extractUserID takes sub, falling back to a legacy id claim.
func extractUserID(claims jwt.MapClaims) (uuid.UUID, error) {
	for _, key := range []string{"sub", "id"} {
		if v, ok := claims[key].(string); ok && strings.TrimSpace(v) != "" {
			return uuid.Parse(strings.TrimSpace(v))
		}
	}
	return uuid.Nil, fmt.Errorf("no user id")
}
