package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"proctorx_backend/internals/features/analytics/service"
	helper "proctorx_backend/internals/helpers"
	helperAuth "proctorx_backend/internals/helpers/auth"
)

type AnalyticsController struct {
	Svc *service.Service
}

func NewAnalyticsController(svc *service.Service) *AnalyticsController {
	return &AnalyticsController{Svc: svc}
}

// GET /api/analytics/dashboard
func (ctl *AnalyticsController) Dashboard(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	stats, err := ctl.Svc.Dashboard(c.UserContext(), actor)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", fiber.Map{"stats": stats})
}

// GET /api/analytics/exam/:examId
func (ctl *AnalyticsController) Exam(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	examID, err := uuid.Parse(c.Params("examId"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid examId")
	}
	res, err := ctl.Svc.ExamAnalytics(c.UserContext(), actor, examID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", fiber.Map{"analytics": res})
}
