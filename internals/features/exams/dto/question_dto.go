package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"proctorx_backend/internals/features/exams/model"
)

type TestCaseInput struct {
	Input          string  `json:"input"`
	ExpectedOutput string  `json:"expected_output" validate:"required"`
	Description    *string `json:"description"`
	IsSample       bool    `json:"is_sample"`
}

type CreateQuestionRequest struct {
	ExamID               uuid.UUID       `json:"exam_id"                validate:"required"`
	Type                 string          `json:"type"                   validate:"required,oneof=mcq code essay"`
	QuestionText         string          `json:"question_text"          validate:"required,min=1"`
	Options              []string        `json:"options"`
	CorrectAnswer        *string         `json:"correct_answer"`
	Points               *float64        `json:"points"                 validate:"omitempty,min=0"`
	Difficulty           string          `json:"difficulty"             validate:"omitempty,oneof=easy medium hard"`
	OrderIndex           int             `json:"order_index"            validate:"min=0"`
	TimeLimitMinutes     *int            `json:"time_limit_minutes"     validate:"omitempty,min=1"`
	LanguageRestrictions []int64         `json:"language_restrictions"`
	StarterCode          *string         `json:"starter_code"`
	CodeTemplate         *string         `json:"code_template"`
	LanguageID           *int            `json:"language_id"`
	TestCases            []TestCaseInput `json:"test_cases"             validate:"omitempty,dive"`
}

type UpdateQuestionRequest struct {
	QuestionText  *string   `json:"question_text"  validate:"omitempty,min=1"`
	Options       *[]string `json:"options"`
	CorrectAnswer *string   `json:"correct_answer"`
	Points        *float64  `json:"points"         validate:"omitempty,min=0"`
	Difficulty    *string   `json:"difficulty"     validate:"omitempty,oneof=easy medium hard"`
	OrderIndex    *int      `json:"order_index"    validate:"omitempty,min=0"`
}

// ToModel keeps mcq fields only for mcq and code fields only for code.
func (r *CreateQuestionRequest) ToModel(creator uuid.UUID) (*model.QuestionModel, []model.TestCaseModel, []model.CodeTemplateModel) {
	qt := model.QuestionType(strings.ToLower(r.Type))
	q := &model.QuestionModel{
		ExamID:           r.ExamID,
		Type:             qt,
		QuestionText:     strings.TrimSpace(r.QuestionText),
		Points:           1,
		Difficulty:       model.DifficultyMedium,
		OrderIndex:       r.OrderIndex,
		TimeLimitMinutes: r.TimeLimitMinutes,
		CreatedBy:        creator,
	}
	if r.Points != nil {
		q.Points = *r.Points
	}
	if d := model.Difficulty(r.Difficulty); d.Valid() {
		q.Difficulty = d
	}

	var cases []model.TestCaseModel
	var templates []model.CodeTemplateModel
	switch qt {
	case model.QuestionTypeMCQ:
		q.Options = pq.StringArray(r.Options)
		q.CorrectAnswer = r.CorrectAnswer
	case model.QuestionTypeCode:
		q.StarterCode = r.StarterCode
		if len(r.LanguageRestrictions) > 0 {
			q.LanguageRestrictions = pq.Int64Array(r.LanguageRestrictions)
		}
		for _, tc := range r.TestCases {
			cases = append(cases, model.TestCaseModel{
				Input:          tc.Input,
				ExpectedOutput: tc.ExpectedOutput,
				Description:    tc.Description,
				IsSample:       tc.IsSample,
			})
		}
		if r.CodeTemplate != nil && r.LanguageID != nil {
			templates = append(templates, model.CodeTemplateModel{
				LanguageID:   *r.LanguageID,
				TemplateCode: *r.CodeTemplate,
			})
		}
	}
	return q, cases, templates
}

func (r *UpdateQuestionRequest) Apply(q *model.QuestionModel) {
	if r.QuestionText != nil {
		q.QuestionText = strings.TrimSpace(*r.QuestionText)
	}
	if q.Type == model.QuestionTypeMCQ {
		if r.Options != nil {
			q.Options = pq.StringArray(*r.Options)
		}
		if r.CorrectAnswer != nil {
			q.CorrectAnswer = r.CorrectAnswer
		}
	}
	if r.Points != nil {
		q.Points = *r.Points
	}
	if r.Difficulty != nil {
		q.Difficulty = model.Difficulty(*r.Difficulty)
	}
	if r.OrderIndex != nil {
		q.OrderIndex = *r.OrderIndex
	}
}

/* =========================
   Views
========================= */

// TestCaseView omits expected_output when it is nil.
type TestCaseView struct {
	ID             uuid.UUID `json:"id"`
	Input          string    `json:"input"`
	ExpectedOutput *string   `json:"expected_output,omitempty"`
	Description    *string   `json:"description,omitempty"`
	IsSample       bool      `json:"is_sample"`
}

type QuestionView struct {
	ID                   uuid.UUID                 `json:"id"`
	ExamID               uuid.UUID                 `json:"exam_id"`
	Type                 model.QuestionType        `json:"type"`
	QuestionText         string                    `json:"question_text"`
	Options              []string                  `json:"options,omitempty"`
	CorrectAnswer        *string                   `json:"correct_answer,omitempty"`
	Points               float64                   `json:"points"`
	Difficulty           model.Difficulty          `json:"difficulty"`
	OrderIndex           int                       `json:"order_index"`
	TimeLimitMinutes     *int                      `json:"time_limit_minutes,omitempty"`
	LanguageRestrictions []int64                   `json:"language_restrictions,omitempty"`
	StarterCode          *string                   `json:"starter_code,omitempty"`
	TestCases            []TestCaseView            `json:"test_cases,omitempty"`
	CodeTemplates        []model.CodeTemplateModel `json:"code_templates,omitempty"`
	CreatedAt            time.Time                 `json:"created_at"`
	Submission           *AttemptSubmission        `json:"submission,omitempty"`
}

type AttemptSubmission struct {
	Answer       *string   `json:"answer,omitempty"`
	Code         *string   `json:"code,omitempty"`
	LanguageID   *int      `json:"language_id,omitempty"`
	IsCorrect    *bool     `json:"is_correct"`
	PointsEarned float64   `json:"points_earned"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// Visibility of the answer key in a question view.
type Visibility int

const (
	// Full: everything, for the exam owner and staff.
	VisibilityFull Visibility = iota
	// Student: no correct_answer, sample test cases only.
	VisibilityStudent
	// Attempt: no correct_answer, all test cases without expected_output.
	VisibilityAttempt
)

func ToQuestionView(q *model.QuestionModel, cases []model.TestCaseModel, vis Visibility) QuestionView {
	v := QuestionView{
		ID:                   q.ID,
		ExamID:               q.ExamID,
		Type:                 q.Type,
		QuestionText:         q.QuestionText,
		Options:              []string(q.Options),
		Points:               q.Points,
		Difficulty:           q.Difficulty,
		OrderIndex:           q.OrderIndex,
		TimeLimitMinutes:     q.TimeLimitMinutes,
		LanguageRestrictions: []int64(q.LanguageRestrictions),
		StarterCode:          q.StarterCode,
		CreatedAt:            q.CreatedAt,
	}
	if vis == VisibilityFull {
		v.CorrectAnswer = q.CorrectAnswer
	}
	for _, tc := range cases {
		if vis == VisibilityStudent && !tc.IsSample {
			continue
		}
		tv := TestCaseView{ID: tc.ID, Input: tc.Input, Description: tc.Description, IsSample: tc.IsSample}
		if vis != VisibilityAttempt {
			exp := tc.ExpectedOutput
			tv.ExpectedOutput = &exp
		}
		v.TestCases = append(v.TestCases, tv)
	}
	return v
}

func ToAttemptSubmission(s *model.SubmissionModel) *AttemptSubmission {
	if s == nil {
		return nil
	}
	return &AttemptSubmission{
		Answer:       s.Answer,
		Code:         s.Code,
		LanguageID:   s.LanguageID,
		IsCorrect:    s.IsCorrect,
		PointsEarned: s.PointsEarned,
		SubmittedAt:  s.UpdatedAt,
	}
}
