package route

import (
	"github.com/gofiber/fiber/v2"

	"proctorx_backend/internals/features/code/controller"
)

func CodeRoutes(api fiber.Router, runner controller.Runner, requireAuth, execLimit fiber.Handler) {
	ctl := controller.NewCodeController(runner)

	g := api.Group("/code")
	g.Get("/languages", ctl.Languages)
	g.Post("/execute", requireAuth, execLimit, ctl.Execute)
}
