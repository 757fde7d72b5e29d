package route

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"proctorx_backend/internals/features/proctoring/controller"
	"proctorx_backend/internals/features/proctoring/realtime"
	"proctorx_backend/internals/features/proctoring/service"
)

func ProctoringRoutes(api fiber.Router, svc *service.Service, requireAuth fiber.Handler) {
	ctl := controller.NewProctoringController(svc)

	g := api.Group("/proctoring", requireAuth)
	g.Post("/violation", ctl.Violation)
	g.Post("/snapshot", ctl.Snapshot)
	g.Post("/activity", ctl.Activity)
	g.Get("/exam/:examId/data", ctl.ExamData)
}

// SocketRoutes mounts GET /ws/proctoring. Auth runs before the upgrade so
// the token may come from ?token=.
func SocketRoutes(app fiber.Router, h *realtime.Handler, requireAuth fiber.Handler) {
	ws := app.Group("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	ws.Get("/proctoring", requireAuth, websocket.New(h.Serve))
}
