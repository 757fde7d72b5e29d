package seeds

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bytedance/sonic"
	"github.com/lib/pq"

	"proctorx_backend/internals/constants"
	database "proctorx_backend/internals/databases"
	examModel "proctorx_backend/internals/features/exams/model"
	examRepo "proctorx_backend/internals/features/exams/repository"
	authDTO "proctorx_backend/internals/features/users/auth/dto"
	authService "proctorx_backend/internals/features/users/auth/service"
	profileRepo "proctorx_backend/internals/features/users/user_profiles/repository"
)

//go:embed data_demo.json
var demoJSON []byte

type demoUser struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type demoTestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	IsSample       bool   `json:"is_sample"`
}

type demoTemplate struct {
	LanguageID   int    `json:"language_id"`
	TemplateCode string `json:"template_code"`
}

type demoQuestion struct {
	Type                 string         `json:"type"`
	QuestionText         string         `json:"question_text"`
	Options              []string       `json:"options"`
	CorrectAnswer        *string        `json:"correct_answer"`
	Points               float64        `json:"points"`
	Difficulty           string         `json:"difficulty"`
	LanguageRestrictions []int64        `json:"language_restrictions"`
	TestCases            []demoTestCase `json:"test_cases"`
	Templates            []demoTemplate `json:"templates"`
}

type demoData struct {
	Password string     `json:"password"`
	Users    []demoUser `json:"users"`
	Exam     struct {
		Title           string         `json:"title"`
		Description     string         `json:"description"`
		DurationMinutes int            `json:"duration_minutes"`
		OpenDays        int            `json:"open_days"`
		PassingScore    float64        `json:"passing_score"`
		Questions       []demoQuestion `json:"questions"`
	} `json:"exam"`
}

// RunDemo registers the demo accounts and one open exam with the student enrolled.
// Accounts that already exist are skipped, so a second run creates nothing.
func RunDemo(ctx context.Context, auth *authService.Service, profiles profileRepo.Repository, exams examRepo.Repository) error {
	var data demoData
	if err := sonic.Unmarshal(demoJSON, &data); err != nil {
		return fmt.Errorf("decode demo data: %w", err)
	}

	ids := map[string]*authDTO.UserResponse{}
	for _, u := range data.Users {
		role := u.Role
		if role == constants.RoleAdmin {
			role = constants.RoleInstructor // admins cannot self-register; promoted below
		}
		res, err := auth.Register(ctx, authDTO.RegisterRequest{Email: u.Email, Password: data.Password, FullName: u.FullName, Role: role})
		if err != nil {
			log.Printf("[SEED] %s skipped: %v", u.Email, err)
			continue
		}
		if u.Role == constants.RoleAdmin {
			if _, err := profiles.UpdateRole(ctx, res.ID, constants.RoleAdmin); err != nil {
				return fmt.Errorf("promote %s: %w", u.Email, err)
			}
		}
		ids[u.Role] = res
		log.Printf("[SEED] created %s (%s)", u.Email, u.Role)
	}

	instructor, student := ids[constants.RoleInstructor], ids[constants.RoleStudent]
	if instructor == nil {
		log.Println("[SEED] instructor already present, demo exam not created")
		return nil
	}

	now := time.Now().UTC()
	desc := data.Exam.Description
	exam := &examModel.ExamModel{
		Title:           data.Exam.Title,
		Description:     &desc,
		StartTime:       now.Add(-time.Hour),
		EndTime:         now.AddDate(0, 0, data.Exam.OpenDays),
		DurationMinutes: data.Exam.DurationMinutes,
		MaxAttempts:     1,
		PassingScore:    data.Exam.PassingScore,
		IsActive:        true,
		CreatedBy:       instructor.ID,
	}
	if err := exams.CreateExam(ctx, exam); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}

	for i, dq := range data.Exam.Questions {
		q := &examModel.QuestionModel{
			ExamID:               exam.ID,
			Type:                 examModel.QuestionType(dq.Type),
			QuestionText:         dq.QuestionText,
			Options:              pq.StringArray(dq.Options),
			CorrectAnswer:        dq.CorrectAnswer,
			Points:               dq.Points,
			Difficulty:           examModel.Difficulty(dq.Difficulty),
			OrderIndex:           i,
			LanguageRestrictions: pq.Int64Array(dq.LanguageRestrictions),
			CreatedBy:            instructor.ID,
		}
		cases := make([]examModel.TestCaseModel, 0, len(dq.TestCases))
		for _, tc := range dq.TestCases {
			cases = append(cases, examModel.TestCaseModel{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput, IsSample: tc.IsSample})
		}
		templates := make([]examModel.CodeTemplateModel, 0, len(dq.Templates))
		for _, t := range dq.Templates {
			templates = append(templates, examModel.CodeTemplateModel{LanguageID: t.LanguageID, TemplateCode: t.TemplateCode})
		}
		if err := exams.CreateQuestion(ctx, q, cases, templates); err != nil {
			return fmt.Errorf("create question %d: %w", i+1, err)
		}
	}

	if student != nil {
		err := exams.CreateEnrollment(ctx, &examModel.EnrollmentModel{ExamID: exam.ID, UserID: student.ID})
		if err != nil && !errors.Is(err, database.ErrDuplicate) {
			return fmt.Errorf("enroll student: %w", err)
		}
	}
	log.Printf("[SEED] demo exam %s ready with %d question(s)", exam.ID, len(data.Exam.Questions))
	return nil
}
