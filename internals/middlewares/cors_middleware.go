package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CorsMiddleware allows the configured frontend plus local dev origins.
// frontendURL may hold several comma separated origins.
func CorsMiddleware(frontendURL string) fiber.Handler {
	origins := []string{"http://localhost:3000", "http://localhost:5173"}
	for _, o := range strings.Split(frontendURL, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" && o != origins[0] && o != origins[1] {
			origins = append(origins, o)
		}
	}
	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		ExposeHeaders:    "X-Request-ID, Content-Disposition",
		AllowCredentials: true,
	})
}
