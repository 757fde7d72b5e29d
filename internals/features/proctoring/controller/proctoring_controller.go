package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"proctorx_backend/internals/features/proctoring/dto"
	"proctorx_backend/internals/features/proctoring/service"
	helper "proctorx_backend/internals/helpers"
	helperAuth "proctorx_backend/internals/helpers/auth"
)

type ProctoringController struct {
	Svc       *service.Service
	Validator *validator.Validate
}

func NewProctoringController(svc *service.Service) *ProctoringController {
	return &ProctoringController{Svc: svc, Validator: validator.New()}
}

func (ctl *ProctoringController) parse(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return ctl.Validator.Struct(out)
}

// POST /api/proctoring/violation
func (ctl *ProctoringController) Violation(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.ViolationRequest
	if err := ctl.parse(c, &req); err != nil {
		return helper.FromFiberError(c, err)
	}

	res, err := ctl.Svc.RecordViolation(c.UserContext(), actor, req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Violation recorded", res)
}

// POST /api/proctoring/snapshot
func (ctl *ProctoringController) Snapshot(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.SnapshotRequest
	if err := ctl.parse(c, &req); err != nil {
		return helper.FromFiberError(c, err)
	}

	snap, err := ctl.Svc.SaveSnapshot(c.UserContext(), actor, req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Snapshot saved successfully", fiber.Map{"snapshot": snap})
}

// POST /api/proctoring/activity
func (ctl *ProctoringController) Activity(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.ActivityRequest
	if err := ctl.parse(c, &req); err != nil {
		return helper.FromFiberError(c, err)
	}

	row, err := ctl.Svc.LogActivity(c.UserContext(), actor, req, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Activity logged", fiber.Map{"activity": row})
}

// GET /api/proctoring/exam/:examId/data
func (ctl *ProctoringController) ExamData(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	examID, err := uuid.Parse(c.Params("examId"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid examId")
	}

	rows, err := ctl.Svc.ExamData(c.UserContext(), actor, examID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", rows, nil)
}
