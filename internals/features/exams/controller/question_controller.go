package controller

import (
	"github.com/gofiber/fiber/v2"

	"proctorx_backend/internals/features/exams/dto"
	"proctorx_backend/internals/features/exams/service"
	helper "proctorx_backend/internals/helpers"
	helperAuth "proctorx_backend/internals/helpers/auth"
)

type QuestionController struct {
	Svc *service.Service
}

func NewQuestionController(svc *service.Service) *QuestionController {
	return &QuestionController{Svc: svc}
}

// POST /api/questions
func (ctl *QuestionController) Create(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.CreateQuestionRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	q, err := ctl.Svc.CreateQuestion(c.UserContext(), actor, req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Question created successfully", fiber.Map{"question": q})
}

// GET /api/questions/exam/:examId
func (ctl *QuestionController) ListByExam(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	examID, err := paramUUID(c, "examId")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	qs, err := ctl.Svc.ListExamQuestions(c.UserContext(), actor, examID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", qs, nil)
}

// GET /api/questions/exam/:examId/attempt/:attemptId
func (ctl *QuestionController) ListForAttempt(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	examID, err := paramUUID(c, "examId")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	attemptID, err := paramUUID(c, "attemptId")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	qs, err := ctl.Svc.ListAttemptQuestions(c.UserContext(), actor, examID, attemptID)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", qs, nil)
}

// PUT /api/questions/:id
func (ctl *QuestionController) Update(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.UpdateQuestionRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	q, err := ctl.Svc.UpdateQuestion(c.UserContext(), actor, id, req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Question updated successfully", fiber.Map{"question": q})
}

// DELETE /api/questions/:id
func (ctl *QuestionController) Delete(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if err := ctl.Svc.DeleteQuestion(c.UserContext(), actor, id); err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonDeleted(c, "Question deleted successfully", nil)
}

// GET /api/questions/:questionId/templates
func (ctl *QuestionController) Templates(c *fiber.Ctx) error {
	id, err := paramUUID(c, "questionId")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	rows, err := ctl.Svc.ListTemplates(c.UserContext(), id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", rows, nil)
}
