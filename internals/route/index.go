package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	analyticsRoute "proctorx_backend/internals/features/analytics/route"
	codeRoute "proctorx_backend/internals/features/code/route"
	examRoute "proctorx_backend/internals/features/exams/route"
	"proctorx_backend/internals/features/proctoring/realtime"
	proctorRoute "proctorx_backend/internals/features/proctoring/route"
	authRoute "proctorx_backend/internals/features/users/auth/route"
	adminRoute "proctorx_backend/internals/features/users/user_profiles/route"
	"proctorx_backend/internals/middlewares"
	authMiddleware "proctorx_backend/internals/middlewares/auth"
)

var startTime time.Time

// Limits are the per-route rate limiters; tests pass pass-through handlers.
type Limits struct {
	Global    fiber.Handler
	Auth      fiber.Handler
	ExamStart fiber.Handler
	Code      fiber.Handler
}

func DefaultLimits() Limits {
	return Limits{
		Global:    middlewares.GlobalRateLimiter(),
		Auth:      middlewares.AuthRateLimiter(),
		ExamStart: middlewares.ExamStartRateLimiter(),
		Code:      middlewares.CodeExecutionRateLimiter(),
	}
}

func SetupRoutes(app *fiber.App, d *Deps, lim Limits) {
	startTime = time.Now()

	requireAuth := authMiddleware.Authenticate(authMiddleware.Config{
		Blacklist: d.Blacklist,
		Profiles:  d.Profiles,
	})
	requireInstructor := authMiddleware.RequireInstructor()

	BaseRoutes(app, d)

	log.Println("[INFO] Mounting websocket routes...")
	proctorRoute.SocketRoutes(app, &realtime.Handler{Hub: d.Hub, Attempts: d.Exams}, requireAuth)

	api := app.Group("/api", lim.Global)

	log.Println("[INFO] Mounting auth + admin routes...")
	authRoute.AuthRoutes(api, d.Auth, requireAuth, lim.Auth)
	adminRoute.AdminRoutes(api, d.Admin, requireAuth, authMiddleware.RequireAdmin())

	log.Println("[INFO] Mounting exam routes...")
	examRoute.ExamRoutes(api, d.Exam, examRoute.Guards{
		Auth:       requireAuth,
		Instructor: requireInstructor,
		StartLimit: lim.ExamStart,
	})

	log.Println("[INFO] Mounting proctoring, analytics and code routes...")
	proctorRoute.ProctoringRoutes(api, d.Proctoring, requireAuth)
	analyticsRoute.AnalyticsRoutes(api, d.Analytics, requireAuth, requireInstructor)
	codeRoute.CodeRoutes(api, d.Judge0, requireAuth, lim.Code)

	app.Use(middlewares.NotFound)
}
