package route

import (
	"github.com/gofiber/fiber/v2"

	"proctorx_backend/internals/features/users/auth/controller"
	"proctorx_backend/internals/features/users/auth/service"
)

// AuthRoutes mounts /auth under api. authLimit guards the credential endpoints.
func AuthRoutes(api fiber.Router, svc *service.Service, requireAuth, authLimit fiber.Handler) {
	ctl := controller.NewAuthController(svc)

	g := api.Group("/auth")
	g.Post("/register", authLimit, ctl.Register)
	g.Post("/login", authLimit, ctl.Login)
	g.Post("/logout", requireAuth, ctl.Logout)
	g.Get("/me", requireAuth, ctl.Me)
}
