package dto

import (
	"github.com/google/uuid"

	"proctorx_backend/internals/features/exams/model"
	profileModel "proctorx_backend/internals/features/users/user_profiles/model"
)

type EnrollRequest struct {
	ExamID uuid.UUID `json:"exam_id" validate:"required"`
}

type EnrollmentWithExam struct {
	model.EnrollmentModel
	Exam *ExamBrief `json:"exams"`
}

type EnrollmentWithUser struct {
	model.EnrollmentModel
	User *profileModel.Summary `json:"user_profiles"`
}

type ExamBrief struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     *string   `json:"description,omitempty"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	MaxAttempts     int       `json:"max_attempts"`
	PassingScore    float64   `json:"passing_score"`
}

func ToExamBrief(e *model.ExamModel) *ExamBrief {
	if e == nil {
		return nil
	}
	return &ExamBrief{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		StartTime:       e.StartTime.Format("2006-01-02T15:04:05Z07:00"),
		EndTime:         e.EndTime.Format("2006-01-02T15:04:05Z07:00"),
		DurationMinutes: e.DurationMinutes,
		MaxAttempts:     e.MaxAttempts,
		PassingScore:    e.PassingScore,
	}
}
