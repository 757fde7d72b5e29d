package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

/* =========================================================
   ENUMS
========================================================= */

type QuestionType string

const (
	QuestionTypeMCQ   QuestionType = "mcq"
	QuestionTypeCode  QuestionType = "code"
	QuestionTypeEssay QuestionType = "essay"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeMCQ, QuestionTypeCode, QuestionTypeEssay:
		return true
	}
	return false
}

// Auto-graded types are scored at submission time.
func (t QuestionType) AutoGraded() bool { return t != QuestionTypeEssay }

func (t QuestionType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid question type %q", string(t))
	}
	return string(t), nil
}

func (t *QuestionType) Scan(v any) error {
	switch x := v.(type) {
	case string:
		*t = QuestionType(strings.ToLower(x))
	case []byte:
		*t = QuestionType(strings.ToLower(string(x)))
	case nil:
		*t = ""
	default:
		return fmt.Errorf("cannot scan %T into QuestionType", v)
	}
	return nil
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

/* =========================================================
   QUESTIONS
========================================================= */

type QuestionModel struct {
	ID                   uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ExamID               uuid.UUID      `gorm:"column:exam_id;type:uuid;not null;index"                 json:"exam_id"`
	Type                 QuestionType   `gorm:"column:type;type:varchar(10);not null"                   json:"type"`
	QuestionText         string         `gorm:"column:question_text;type:text;not null"                 json:"question_text"`
	Options              pq.StringArray `gorm:"column:options;type:text[]"                              json:"options,omitempty"`
	CorrectAnswer        *string        `gorm:"column:correct_answer;type:text"                         json:"correct_answer,omitempty"`
	Points               float64        `gorm:"column:points;type:numeric(8,2);not null;default:1"      json:"points"`
	Difficulty           Difficulty     `gorm:"column:difficulty;type:varchar(10);not null;default:'medium'" json:"difficulty"`
	OrderIndex           int            `gorm:"column:order_index;not null;default:0"                   json:"order_index"`
	TimeLimitMinutes     *int           `gorm:"column:time_limit_minutes"                               json:"time_limit_minutes,omitempty"`
	LanguageRestrictions pq.Int64Array  `gorm:"column:language_restrictions;type:integer[]"             json:"language_restrictions,omitempty"`
	StarterCode          *string        `gorm:"column:starter_code;type:text"                           json:"starter_code,omitempty"`
	CreatedBy            uuid.UUID      `gorm:"column:created_by;type:uuid;not null"                    json:"created_by"`
	CreatedAt            time.Time      `gorm:"column:created_at;type:timestamptz;autoCreateTime"       json:"created_at"`
	UpdatedAt            time.Time      `gorm:"column:updated_at;type:timestamptz;autoUpdateTime"       json:"updated_at"`
}

func (QuestionModel) TableName() string {
	return "questions"
}

type TestCaseModel struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	QuestionID     uuid.UUID `gorm:"column:question_id;type:uuid;not null;index"             json:"question_id"`
	Input          string    `gorm:"column:input;type:text;not null;default:''"              json:"input"`
	ExpectedOutput string    `gorm:"column:expected_output;type:text;not null"               json:"expected_output"`
	Description    *string   `gorm:"column:description;type:text"                            json:"description,omitempty"`
	IsSample       bool      `gorm:"column:is_sample;not null;default:false"                 json:"is_sample"`
	CreatedAt      time.Time `gorm:"column:created_at;type:timestamptz;autoCreateTime"       json:"created_at"`
}

func (TestCaseModel) TableName() string {
	return "test_cases"
}

type CodeTemplateModel struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	QuestionID   uuid.UUID `gorm:"column:question_id;type:uuid;not null;index"             json:"question_id"`
	LanguageID   int       `gorm:"column:language_id;not null"                             json:"language_id"`
	TemplateCode string    `gorm:"column:template_code;type:text;not null"                 json:"template_code"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamptz;autoCreateTime"       json:"created_at"`
}

func (CodeTemplateModel) TableName() string {
	return "code_templates"
}
