package auth

import (
	"github.com/gofiber/fiber/v2"

	"proctorx_backend/internals/constants"
	helperAuth "proctorx_backend/internals/helpers/auth"
)

// RequireRoles lets the request through when the caller holds one of roles.
func RequireRoles(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals(helperAuth.LocUserID).(string); !ok {
			return fiber.NewError(fiber.StatusUnauthorized, msgInvalidToken)
		}
		if _, ok := allowed[helperAuth.GetRole(c)]; !ok {
			return fiber.NewError(fiber.StatusForbidden, constants.ErrInsufficientPermissions)
		}
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler { return RequireRoles(constants.AdminOnly...) }

func RequireInstructor() fiber.Handler { return RequireRoles(constants.InstructorAndAbove...) }

// RequireStudent admits every signed-in role; staff may take exams too.
func RequireStudent() fiber.Handler { return RequireRoles(constants.AllRoles...) }
