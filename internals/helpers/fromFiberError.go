package helper

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"proctorx_backend/internals/helpers/reporting"
)

// FromFiberError renders service errors. *fiber.Error keeps its code,
// validation errors become 400, everything else is logged and hidden behind 500.
func FromFiberError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return JsonValidationError(c, err)
	}
	log.Printf("[ERROR] %s %s: %v", c.Method(), c.OriginalURL(), err)
	reporting.Error(err, map[string]interface{}{
		"method":     c.Method(),
		"path":       c.Path(),
		"request_id": c.Locals("reqid"),
	})
	return JsonError(c, fiber.StatusInternalServerError, "Internal server error")
}
