package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"proctorx_backend/internals/features/exams/dto"
	"proctorx_backend/internals/features/exams/service"
	helper "proctorx_backend/internals/helpers"
	helperAuth "proctorx_backend/internals/helpers/auth"
)

type ExamController struct {
	Svc *service.Service
}

func NewExamController(svc *service.Service) *ExamController {
	return &ExamController{Svc: svc}
}

// POST /api/exams
func (ctl *ExamController) Create(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.CreateExamRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	exam, err := ctl.Svc.CreateExam(c.UserContext(), actor, req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Exam created successfully", fiber.Map{"exam": exam})
}

// GET /api/exams?page=&per_page=&q=
func (ctl *ExamController) List(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	p := helper.ResolvePaging(c, 20, 100)

	exams, total, err := ctl.Svc.ListExams(c.UserContext(), actor, strings.TrimSpace(c.Query("q")), p.Offset, p.Limit)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	pg := helper.BuildPaginationFromOffset(total, p.Offset, p.Limit)
	return helper.JsonList(c, "ok", exams, &pg)
}

// GET /api/exams/:id
func (ctl *ExamController) Detail(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	exam, err := ctl.Svc.GetExamDetails(c.UserContext(), actor, id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", fiber.Map{"exam": exam})
}

// PUT /api/exams/:id
func (ctl *ExamController) Update(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.UpdateExamRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	exam, err := ctl.Svc.UpdateExam(c.UserContext(), actor, id, req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Exam updated successfully", fiber.Map{"exam": exam})
}

// DELETE /api/exams/:id
func (ctl *ExamController) Delete(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if err := ctl.Svc.DeleteExam(c.UserContext(), actor, id); err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonDeleted(c, "Exam deleted successfully", nil)
}

// GET /api/exams/:id/eligibility
func (ctl *ExamController) Eligibility(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	res, err := ctl.Svc.CheckEligibility(c.UserContext(), userID, id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", res)
}

// POST /api/exams/start
func (ctl *ExamController) Start(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.StartAttemptRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	res, err := ctl.Svc.StartAttempt(c.UserContext(), actor, req, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Exam attempt started", res)
}

// GET /api/exams/attempts/:attemptId
func (ctl *ExamController) Attempt(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := paramUUID(c, "attemptId")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	attempt, err := ctl.Svc.GetAttempt(c.UserContext(), actor, id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", fiber.Map{"attempt": attempt})
}
