package route

import (
	"github.com/gofiber/fiber/v2"

	"proctorx_backend/internals/features/users/user_profiles/controller"
	"proctorx_backend/internals/features/users/user_profiles/service"
)

// AdminRoutes mounts /admin; guards run before every handler (auth, admin role).
func AdminRoutes(api fiber.Router, svc *service.Service, guards ...fiber.Handler) {
	ctl := controller.NewAdminController(svc)

	g := api.Group("/admin", guards...)
	g.Get("/dashboard", ctl.Dashboard)
	g.Get("/users", ctl.ListUsers)
	g.Put("/users/:id/role", ctl.UpdateRole)
}
