package controller

import (
	"github.com/gofiber/fiber/v2"

	"proctorx_backend/internals/features/exams/dto"
	"proctorx_backend/internals/features/exams/service"
	helper "proctorx_backend/internals/helpers"
	helperAuth "proctorx_backend/internals/helpers/auth"
)

type SubmissionController struct {
	Svc *service.Service
}

func NewSubmissionController(svc *service.Service) *SubmissionController {
	return &SubmissionController{Svc: svc}
}

// POST /api/submissions
func (ctl *SubmissionController) Submit(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.SubmitAnswerRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	res, err := ctl.Svc.SubmitAnswer(c.UserContext(), actor, req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Answer submitted successfully", fiber.Map{"result": res})
}

// POST /api/submissions/submit-exam
func (ctl *SubmissionController) SubmitExam(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.SubmitExamRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	score, err := ctl.Svc.SubmitExam(c.UserContext(), actor, req.ExamAttemptID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Exam submitted successfully", fiber.Map{"score": score})
}

// GET /api/submissions/attempt/:attemptId
func (ctl *SubmissionController) ByAttempt(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := paramUUID(c, "attemptId")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	rows, err := ctl.Svc.ListAttemptSubmissions(c.UserContext(), actor, id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", rows, nil)
}
