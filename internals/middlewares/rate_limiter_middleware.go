package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	helper "proctorx_backend/internals/helpers"
)

func newLimiter(max int, window time.Duration, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, message)
		},
	})
}

// Global limiter for everything under /api
func GlobalRateLimiter() fiber.Handler {
	return newLimiter(100, 15*time.Minute, "Too many requests from this IP, please try again later.")
}

// Register and login
func AuthRateLimiter() fiber.Handler {
	return newLimiter(5, 15*time.Minute, "Too many authentication attempts, please try again later.")
}

func ExamStartRateLimiter() fiber.Handler {
	return newLimiter(30, time.Minute, "Too many exam start requests, please slow down.")
}

func CodeExecutionRateLimiter() fiber.Handler {
	return newLimiter(10, time.Minute, "Too many code execution requests, please wait a minute.")
}
