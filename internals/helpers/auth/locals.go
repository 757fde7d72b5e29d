package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"proctorx_backend/internals/constants"
	profileModel "proctorx_backend/internals/features/users/user_profiles/model"
)

// Locals keys written by the auth middleware.
const (
	LocUserID  = "user_id"
	LocRole    = "userRole"
	LocProfile = "user_profile"
	LocToken   = "access_token"
	LocEmail   = "user_email"
)

var (
	ErrUserIDMissing = fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
)

func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := c.Locals(LocUserID).(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return uuid.Nil, ErrUserIDMissing
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrUserIDMissing
	}
	return id, nil
}

func GetRole(c *fiber.Ctx) string {
	role, _ := c.Locals(LocRole).(string)
	return role
}

func GetProfile(c *fiber.Ctx) *profileModel.UserProfileModel {
	p, _ := c.Locals(LocProfile).(*profileModel.UserProfileModel)
	return p
}

func GetAccessToken(c *fiber.Ctx) string {
	tok, _ := c.Locals(LocToken).(string)
	return tok
}

func IsAdmin(c *fiber.Ctx) bool { return GetRole(c) == constants.RoleAdmin }

func IsStaff(c *fiber.Ctx) bool { return constants.IsStaff(GetRole(c)) }

// Actor is the caller identity handed to services.
type Actor struct {
	ID   uuid.UUID
	Role string
}

func (a Actor) IsAdmin() bool { return a.Role == constants.RoleAdmin }
func (a Actor) IsStaff() bool { return constants.IsStaff(a.Role) }

func GetActor(c *fiber.Ctx) (Actor, error) {
	id, err := GetUserIDFromToken(c)
	if err != nil {
		return Actor{}, err
	}
	return Actor{ID: id, Role: GetRole(c)}, nil
}
