package route

import (
	"github.com/gofiber/fiber/v2"

	"proctorx_backend/internals/features/analytics/controller"
	"proctorx_backend/internals/features/analytics/service"
)

func AnalyticsRoutes(api fiber.Router, svc *service.Service, requireAuth, requireInstructor fiber.Handler) {
	ctl := controller.NewAnalyticsController(svc)

	g := api.Group("/analytics", requireAuth)
	g.Get("/dashboard", ctl.Dashboard)
	g.Get("/exam/:examId", requireInstructor, ctl.Exam)
}
