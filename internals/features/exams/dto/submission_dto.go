package dto

import (
	"github.com/google/uuid"

	"proctorx_backend/internals/features/exams/model"
)

type SubmitAnswerRequest struct {
	ExamAttemptID uuid.UUID `json:"exam_attempt_id" validate:"required"`
	QuestionID    uuid.UUID `json:"question_id"     validate:"required"`
	Answer        *string   `json:"answer"          validate:"omitempty,max=20000"`
	Code          *string   `json:"code"            validate:"omitempty,max=100000"`
	LanguageID    *int      `json:"language_id"     validate:"omitempty,min=1"`
}

type SubmitExamRequest struct {
	ExamAttemptID uuid.UUID `json:"exam_attempt_id" validate:"required"`
}

type SubmitResult struct {
	IsCorrect    *bool   `json:"is_correct"`
	PointsEarned float64 `json:"points_earned"`
	Output       *string `json:"output"`
	Stderr       *string `json:"stderr"`
	Status       *string `json:"status"`
	TestsPassed  *int    `json:"tests_passed,omitempty"`
	TestsTotal   *int    `json:"tests_total,omitempty"`
}

type QuestionBrief struct {
	ID           uuid.UUID          `json:"id"`
	Type         model.QuestionType `json:"type"`
	QuestionText string             `json:"question_text"`
	Points       float64            `json:"points"`
}

type SubmissionWithQuestion struct {
	model.SubmissionModel
	Question *QuestionBrief `json:"questions"`
}

func ToQuestionBrief(q *model.QuestionModel) *QuestionBrief {
	if q == nil {
		return nil
	}
	return &QuestionBrief{ID: q.ID, Type: q.Type, QuestionText: q.QuestionText, Points: q.Points}
}
