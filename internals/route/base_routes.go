package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	databases "proctorx_backend/internals/databases"
)

func BaseRoutes(app *fiber.App, d *Deps) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("ProctorX API is running")
	})

	health := func(c *fiber.Ctx) error {
		dbStatus := "Connected"
		status := "OK"
		httpStatus := fiber.StatusOK

		if d.DB == nil {
			dbStatus = "memory"
		} else if err := databases.Ping(); err != nil {
			dbStatus = "Database connection error"
			status = "DOWN"
			httpStatus = fiber.StatusServiceUnavailable
		}

		return c.Status(httpStatus).JSON(fiber.Map{
			"status":    status,
			"database":  dbStatus,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(startTime).Seconds(),
		})
	}
	app.Get("/health", health)
	app.Get("/api/health", health)
}
