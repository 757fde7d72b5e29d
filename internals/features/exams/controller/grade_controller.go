package controller

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"proctorx_backend/internals/features/exams/dto"
	"proctorx_backend/internals/features/exams/service"
	helper "proctorx_backend/internals/helpers"
	helperAuth "proctorx_backend/internals/helpers/auth"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type GradeController struct {
	Svc *service.Service
}

func NewGradeController(svc *service.Service) *GradeController {
	return &GradeController{Svc: svc}
}

// GET /api/grades/exam/:examId
func (ctl *GradeController) ExamGrades(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	examID, err := paramUUID(c, "examId")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	res, err := ctl.Svc.ExamGrades(c.UserContext(), actor, examID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", res)
}

// GET /api/grades/exam/:examId/export
func (ctl *GradeController) Export(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	examID, err := paramUUID(c, "examId")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	data, filename, err := ctl.Svc.ExportExamGrades(c.UserContext(), actor, examID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Status(fiber.StatusOK).Send(data)
}

// GET /api/grades/my
func (ctl *GradeController) Mine(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	rows, err := ctl.Svc.MyGrades(c.UserContext(), actor)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", rows, nil)
}

// POST /api/grades/submission/:submissionId
func (ctl *GradeController) GradeSubmission(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := paramUUID(c, "submissionId")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.GradeSubmissionRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	sub, total, err := ctl.Svc.GradeSubmission(c.UserContext(), actor, id, req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Submission graded successfully", fiber.Map{"submission": sub, "attempt_score": total})
}
