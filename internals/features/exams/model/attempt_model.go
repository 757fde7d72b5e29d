package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EnrollmentModel struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"      json:"id"`
	ExamID     uuid.UUID `gorm:"column:exam_id;type:uuid;not null;uniqueIndex:uq_enrollment_exam_user" json:"exam_id"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_enrollment_exam_user;index" json:"user_id"`
	EnrolledAt time.Time `gorm:"column:enrolled_at;type:timestamptz;not null;default:now()"   json:"enrolled_at"`
}

func (EnrollmentModel) TableName() string {
	return "exam_enrollments"
}

/* =========================================================
   ATTEMPTS
========================================================= */

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptSuspended  AttemptStatus = "suspended"
)

func (s AttemptStatus) Valid() bool {
	switch s {
	case AttemptInProgress, AttemptCompleted, AttemptSuspended:
		return true
	}
	return false
}

func (s AttemptStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid attempt status %q", string(s))
	}
	return string(s), nil
}

func (s *AttemptStatus) Scan(v any) error {
	switch x := v.(type) {
	case string:
		*s = AttemptStatus(x)
	case []byte:
		*s = AttemptStatus(string(x))
	case nil:
		*s = ""
	default:
		return fmt.Errorf("cannot scan %T into AttemptStatus", v)
	}
	return nil
}

type ExamAttemptModel struct {
	ID            uuid.UUID     `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"   json:"id"`
	ExamID        uuid.UUID     `gorm:"column:exam_id;type:uuid;not null;uniqueIndex:uq_attempt_number"  json:"exam_id"`
	UserID        uuid.UUID     `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_attempt_number;index" json:"user_id"`
	AttemptNumber int           `gorm:"column:attempt_number;not null;uniqueIndex:uq_attempt_number" json:"attempt_number"`
	Status        AttemptStatus `gorm:"column:status;type:varchar(20);not null;default:'in_progress';index" json:"status"`
	StartedAt     time.Time     `gorm:"column:started_at;type:timestamptz;not null"                json:"started_at"`
	SubmittedAt   *time.Time    `gorm:"column:submitted_at;type:timestamptz"                       json:"submitted_at,omitempty"`
	Score         *float64      `gorm:"column:score;type:numeric(10,2)"                            json:"score"`
	TimeRemaining int           `gorm:"column:time_remaining;not null;default:0"                   json:"time_remaining"`
	IPAddress     *string       `gorm:"column:ip_address;type:varchar(64)"                         json:"ip_address,omitempty"`
	UserAgent     *string       `gorm:"column:user_agent;type:text"                                json:"user_agent,omitempty"`
}

func (ExamAttemptModel) TableName() string {
	return "exam_attempts"
}

func (a *ExamAttemptModel) IsInProgress() bool { return a.Status == AttemptInProgress }

func (a *ExamAttemptModel) ScoreValue() float64 {
	if a.Score == nil {
		return 0
	}
	return *a.Score
}

// Deadline is when the attempt runs out of time: the duration or the exam window, whichever ends first.
func (a *ExamAttemptModel) Deadline(e *ExamModel) time.Time {
	byDuration := a.StartedAt.Add(time.Duration(e.DurationMinutes) * time.Minute)
	if e.EndTime.Before(byDuration) {
		return e.EndTime
	}
	return byDuration
}

// SessionInfo is what the browser reports when an attempt starts.
type SessionInfo struct {
	UserAgent        string
	ScreenResolution string
	Extra            map[string]any
}

/* =========================================================
   SUBMISSIONS
========================================================= */

type SubmissionModel struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ExamAttemptID uuid.UUID  `gorm:"column:exam_attempt_id;type:uuid;not null;uniqueIndex:uq_submission_attempt_question" json:"exam_attempt_id"`
	QuestionID    uuid.UUID  `gorm:"column:question_id;type:uuid;not null;uniqueIndex:uq_submission_attempt_question"    json:"question_id"`
	ExamID        uuid.UUID  `gorm:"column:exam_id;type:uuid;not null;index"                json:"exam_id"`
	UserID        uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"                json:"user_id"`
	Answer        *string    `gorm:"column:answer;type:text"                                json:"answer,omitempty"`
	Code          *string    `gorm:"column:code;type:text"                                  json:"code,omitempty"`
	LanguageID    *int       `gorm:"column:language_id"                                     json:"language_id,omitempty"`
	Output        *string    `gorm:"column:output;type:text"                                json:"output,omitempty"`
	Stderr        *string    `gorm:"column:stderr;type:text"                                json:"stderr,omitempty"`
	ExecutionTime *string    `gorm:"column:execution_time;type:varchar(32)"                 json:"execution_time,omitempty"`
	Status        *string    `gorm:"column:status;type:varchar(64)"                         json:"status,omitempty"`
	IsCorrect     *bool      `gorm:"column:is_correct"                                      json:"is_correct"`
	PointsEarned  float64    `gorm:"column:points_earned;type:numeric(8,2);not null;default:0" json:"points_earned"`
	AutoGraded    bool       `gorm:"column:auto_graded;not null;default:false"              json:"auto_graded"`
	Feedback      *string    `gorm:"column:feedback;type:text"                              json:"feedback,omitempty"`
	GradedBy      *uuid.UUID `gorm:"column:graded_by;type:uuid"                             json:"graded_by,omitempty"`
	GradedAt      *time.Time `gorm:"column:graded_at;type:timestamptz"                      json:"graded_at,omitempty"`
	CreatedAt     time.Time  `gorm:"column:created_at;type:timestamptz;autoCreateTime"      json:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;type:timestamptz;autoUpdateTime"      json:"updated_at"`
}

func (SubmissionModel) TableName() string {
	return "submissions"
}

// All tables of this feature, in dependency order.
func Tables() []any {
	return []any{
		&ExamModel{},
		&QuestionModel{},
		&TestCaseModel{},
		&CodeTemplateModel{},
		&EnrollmentModel{},
		&ExamAttemptModel{},
		&SubmissionModel{},
	}
}
