package model

import (
	"time"

	"github.com/google/uuid"
)

type ExamModel struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Title           string    `gorm:"column:title;type:varchar(200);not null"                  json:"title"`
	Description     *string   `gorm:"column:description;type:text"                             json:"description,omitempty"`
	StartTime       time.Time `gorm:"column:start_time;type:timestamptz;not null"              json:"start_time"`
	EndTime         time.Time `gorm:"column:end_time;type:timestamptz;not null"                json:"end_time"`
	DurationMinutes int       `gorm:"column:duration_minutes;not null"                         json:"duration_minutes"`
	MaxAttempts     int       `gorm:"column:max_attempts;not null;default:1"                   json:"max_attempts"`
	PassingScore    float64   `gorm:"column:passing_score;type:numeric(5,2);not null;default:0" json:"passing_score"`
	IsActive        bool      `gorm:"column:is_active;not null;default:true"                   json:"is_active"`
	CreatedBy       uuid.UUID `gorm:"column:created_by;type:uuid;not null;index"               json:"created_by"`
	CreatedAt       time.Time `gorm:"column:created_at;type:timestamptz;autoCreateTime"        json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at;type:timestamptz;autoUpdateTime"        json:"updated_at"`
}

func (ExamModel) TableName() string {
	return "exams"
}

func (e *ExamModel) HasStarted(now time.Time) bool { return !now.Before(e.StartTime) }
func (e *ExamModel) HasEnded(now time.Time) bool   { return now.After(e.EndTime) }

// IsOpen: active and inside its window.
func (e *ExamModel) IsOpen(now time.Time) bool {
	return e.IsActive && e.HasStarted(now) && !e.HasEnded(now)
}

type ExamSummary struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
	PassingScore    float64   `json:"passing_score"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
}

func (e *ExamModel) Summary() *ExamSummary {
	if e == nil {
		return nil
	}
	return &ExamSummary{
		ID:              e.ID,
		Title:           e.Title,
		DurationMinutes: e.DurationMinutes,
		PassingScore:    e.PassingScore,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
	}
}
