package dto

import (
	"github.com/google/uuid"

	"proctorx_backend/internals/features/exams/model"
)

type GradeSubmissionRequest struct {
	PointsEarned *float64 `json:"points_earned" validate:"required,min=0"`
	Feedback     *string  `json:"feedback"      validate:"omitempty,max=5000"`
}

type GradeStatistics struct {
	TotalAttempts int     `json:"total_attempts"`
	AverageScore  float64 `json:"average_score"`
	HighestScore  float64 `json:"highest_score"`
	LowestScore   float64 `json:"lowest_score"`
	PassRate      float64 `json:"pass_rate"`
}

type StudentBrief struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
}

type GradedAttempt struct {
	model.ExamAttemptModel
	Student *StudentBrief `json:"user_profiles"`
}

type ExamGrades struct {
	ExamTitle  string          `json:"exam_title"`
	Attempts   []GradedAttempt `json:"attempts"`
	Statistics GradeStatistics `json:"statistics"`
}

type MyGrade struct {
	model.ExamAttemptModel
	Exam        *model.ExamSummary `json:"exams"`
	TotalPoints float64            `json:"total_points"`
	Percentage  float64            `json:"percentage"`
	LetterGrade string             `json:"letter_grade"`
	Passed      bool               `json:"passed"`
}
