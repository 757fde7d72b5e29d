package middlewares

import (
	"fmt"
	"log"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"proctorx_backend/internals/helpers/reporting"
)

// RecoveryMiddleware turns panics into 500s and reports them.
func RecoveryMiddleware() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			log.Printf("[PANIC] %s %s: %v\n%s", c.Method(), c.OriginalURL(), e, debug.Stack())
			reporting.Error(fmt.Errorf("panic: %v", e), map[string]interface{}{
				"method":     c.Method(),
				"path":       c.Path(),
				"request_id": c.Locals("reqid"),
			})
		},
	})
}
