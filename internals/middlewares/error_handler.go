package middlewares

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	helper "proctorx_backend/internals/helpers"
	"proctorx_backend/internals/helpers/reporting"
)

// ErrorHandler is the app-level fallback for errors no controller rendered.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		log.Printf("[ERROR] %s %s: %v", c.Method(), c.OriginalURL(), err)
		reporting.Error(err, map[string]interface{}{
			"method":     c.Method(),
			"path":       c.Path(),
			"request_id": c.Locals("reqid"),
		})
		if fe == nil {
			msg = "Internal server error"
		}
	}
	return helper.JsonError(c, code, msg)
}

// NotFound closes the handler chain.
func NotFound(c *fiber.Ctx) error {
	return helper.JsonError(c, fiber.StatusNotFound, "Route not found")
}
