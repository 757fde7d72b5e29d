package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"

	"proctorx_backend/internals/configs"
	"proctorx_backend/internals/middlewares/logger"
)

// SetupMiddlewares installs the global chain, outermost first.
func SetupMiddlewares(app *fiber.App) {
	app.Use(RecoveryMiddleware())
	app.Use(RequestContext(time.Duration(configs.GetEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second))
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())
	app.Use(CorsMiddleware(configs.FrontendURL))
	app.Use(logger.LoggerMiddleware(configs.GetEnv("TZ", "UTC")))
}
