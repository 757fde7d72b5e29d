package controller

import (
	"github.com/gofiber/fiber/v2"

	"proctorx_backend/internals/features/exams/dto"
	"proctorx_backend/internals/features/exams/service"
	helper "proctorx_backend/internals/helpers"
	helperAuth "proctorx_backend/internals/helpers/auth"
)

type EnrollmentController struct {
	Svc *service.Service
}

func NewEnrollmentController(svc *service.Service) *EnrollmentController {
	return &EnrollmentController{Svc: svc}
}

// POST /api/enrollments
func (ctl *EnrollmentController) Enroll(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.EnrollRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	en, err := ctl.Svc.Enroll(c.UserContext(), actor, req.ExamID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Successfully enrolled in exam", fiber.Map{"enrollment": en})
}

// GET /api/enrollments/my
func (ctl *EnrollmentController) Mine(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	rows, err := ctl.Svc.MyEnrollments(c.UserContext(), actor)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", rows, nil)
}

// GET /api/enrollments/exam/:examId
func (ctl *EnrollmentController) ByExam(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	examID, err := paramUUID(c, "examId")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	rows, err := ctl.Svc.ExamEnrollments(c.UserContext(), actor, examID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", rows, nil)
}
