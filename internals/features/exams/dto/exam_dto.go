package dto

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"proctorx_backend/internals/features/exams/model"
)

// CreateExamRequest is the body of POST /api/exams.
type CreateExamRequest struct {
	Title           string   `json:"title"            validate:"required,min=1,max=200"`
	Description     *string  `json:"description"      validate:"omitempty,max=5000"`
	StartTime       string   `json:"start_time"       validate:"required"`
	EndTime         string   `json:"end_time"         validate:"required"`
	DurationMinutes int      `json:"duration_minutes" validate:"required,min=1"`
	MaxAttempts     *int     `json:"max_attempts"     validate:"omitempty,min=1"`
	PassingScore    *float64 `json:"passing_score"    validate:"omitempty,min=0,max=100"`
	IsActive        *bool    `json:"is_active"`
}

// Partial update; nil fields are left alone.
type UpdateExamRequest struct {
	Title           *string  `json:"title"            validate:"omitempty,min=1,max=200"`
	Description     *string  `json:"description"      validate:"omitempty,max=5000"`
	StartTime       *string  `json:"start_time"`
	EndTime         *string  `json:"end_time"`
	DurationMinutes *int     `json:"duration_minutes" validate:"omitempty,min=1"`
	MaxAttempts     *int     `json:"max_attempts"     validate:"omitempty,min=1"`
	PassingScore    *float64 `json:"passing_score"    validate:"omitempty,min=0,max=100"`
	IsActive        *bool    `json:"is_active"`
}

type StartAttemptRequest struct {
	ExamID           uuid.UUID      `json:"exam_id"           validate:"required"`
	ScreenResolution string         `json:"screen_resolution" validate:"omitempty,max=32"`
	BrowserInfo      map[string]any `json:"browser_info"`
}

// ParseTimestamp accepts RFC3339 with or without fractional seconds.
func ParseTimestamp(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, field+" must be an RFC3339 timestamp")
	}
	return t.UTC(), nil
}

func (r *CreateExamRequest) ToModel(creator uuid.UUID) (*model.ExamModel, error) {
	start, err := ParseTimestamp("start_time", r.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := ParseTimestamp("end_time", r.EndTime)
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "end_time must be after start_time")
	}

	e := &model.ExamModel{
		Title:           strings.TrimSpace(r.Title),
		Description:     r.Description,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: r.DurationMinutes,
		MaxAttempts:     1,
		PassingScore:    0,
		IsActive:        true,
		CreatedBy:       creator,
	}
	if r.MaxAttempts != nil {
		e.MaxAttempts = *r.MaxAttempts
	}
	if r.PassingScore != nil {
		e.PassingScore = *r.PassingScore
	}
	if r.IsActive != nil {
		e.IsActive = *r.IsActive
	}
	return e, nil
}

// Apply mutates e and re-checks the window.
func (r *UpdateExamRequest) Apply(e *model.ExamModel) error {
	if r.Title != nil {
		e.Title = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		e.Description = r.Description
	}
	if r.StartTime != nil {
		t, err := ParseTimestamp("start_time", *r.StartTime)
		if err != nil {
			return err
		}
		e.StartTime = t
	}
	if r.EndTime != nil {
		t, err := ParseTimestamp("end_time", *r.EndTime)
		if err != nil {
			return err
		}
		e.EndTime = t
	}
	if !e.EndTime.After(e.StartTime) {
		return fiber.NewError(fiber.StatusBadRequest, "end_time must be after start_time")
	}
	if r.DurationMinutes != nil {
		e.DurationMinutes = *r.DurationMinutes
	}
	if r.MaxAttempts != nil {
		e.MaxAttempts = *r.MaxAttempts
	}
	if r.PassingScore != nil {
		e.PassingScore = *r.PassingScore
	}
	if r.IsActive != nil {
		e.IsActive = *r.IsActive
	}
	return nil
}

/* =========================
   Responses
========================= */

type ExamDetail struct {
	model.ExamModel
	Questions    []QuestionView           `json:"questions"`
	UserAttempts []model.ExamAttemptModel `json:"user_attempts"`
	CanAttempt   bool                     `json:"can_attempt"`
}

type Eligibility struct {
	CanAttempt   bool   `json:"canAttempt"`
	Reason       string `json:"reason,omitempty"`
	AttemptsUsed int    `json:"attemptsUsed"`
	MaxAttempts  int    `json:"maxAttempts"`
}

type AttemptExam struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"duration_minutes"`
}

type StartAttemptResponse struct {
	Attempt *model.ExamAttemptModel `json:"attempt"`
	Exam    AttemptExam             `json:"exam"`
}
