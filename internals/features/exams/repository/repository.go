package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"proctorx_backend/internals/features/exams/model"
)

type ExamFilter struct {
	CreatedBy    *uuid.UUID
	EnrolledUser *uuid.UUID
	Q            string
	Offset       int
	Limit        int // 0 = all
}

type AttemptFilter struct {
	ExamIDs  []uuid.UUID
	UserID   *uuid.UUID
	Statuses []model.AttemptStatus
}

type GradeUpdate struct {
	PointsEarned float64
	Feedback     *string
	GradedBy     uuid.UUID
	GradedAt     time.Time
}

// Repository is the persistence boundary of the exams feature.
type Repository interface {
	// exams
	CreateExam(ctx context.Context, e *model.ExamModel) error
	FindExam(ctx context.Context, id uuid.UUID) (*model.ExamModel, error)
	FindExams(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.ExamModel, error)
	ListExams(ctx context.Context, f ExamFilter) ([]model.ExamModel, int64, error)
	UpdateExam(ctx context.Context, e *model.ExamModel) error
	DeleteExam(ctx context.Context, id uuid.UUID) error
	CountExams(ctx context.Context) (int64, error)
	CountActiveExams(ctx context.Context, now time.Time) (int64, error)

	// questions
	CreateQuestion(ctx context.Context, q *model.QuestionModel, cases []model.TestCaseModel, templates []model.CodeTemplateModel) error
	FindQuestion(ctx context.Context, id uuid.UUID) (*model.QuestionModel, error)
	UpdateQuestion(ctx context.Context, q *model.QuestionModel) error
	DeleteQuestion(ctx context.Context, id uuid.UUID) error
	ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.QuestionModel, error)
	ListTestCases(ctx context.Context, questionIDs []uuid.UUID) (map[uuid.UUID][]model.TestCaseModel, error)
	ListTemplates(ctx context.Context, questionID uuid.UUID) ([]model.CodeTemplateModel, error)

	// enrollments
	CreateEnrollment(ctx context.Context, en *model.EnrollmentModel) error
	FindEnrollment(ctx context.Context, examID, userID uuid.UUID) (*model.EnrollmentModel, error)
	ListEnrollmentsByUser(ctx context.Context, userID uuid.UUID) ([]model.EnrollmentModel, error)
	ListEnrollmentsByExams(ctx context.Context, examIDs []uuid.UUID) ([]model.EnrollmentModel, error)

	// attempts
	CreateAttempt(ctx context.Context, a *model.ExamAttemptModel) error
	FindAttempt(ctx context.Context, id uuid.UUID) (*model.ExamAttemptModel, error)
	ListAttempts(ctx context.Context, f AttemptFilter) ([]model.ExamAttemptModel, error)
	// CompleteAttempt only moves in_progress attempts; false when it was not in progress.
	CompleteAttempt(ctx context.Context, id uuid.UUID, score float64, at time.Time) (bool, error)
	SetAttemptStatus(ctx context.Context, id uuid.UUID, status model.AttemptStatus) error
	UpdateAttemptScore(ctx context.Context, id uuid.UUID, score float64) error
	CountCompletedAttempts(ctx context.Context) (int64, error)

	// submissions
	UpsertSubmission(ctx context.Context, s *model.SubmissionModel) error
	FindSubmission(ctx context.Context, id uuid.UUID) (*model.SubmissionModel, error)
	ListSubmissionsByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.SubmissionModel, error)
	ListSubmissionsByExam(ctx context.Context, examID uuid.UUID) ([]model.SubmissionModel, error)
	SumPoints(ctx context.Context, attemptID uuid.UUID) (float64, error)
	GradeSubmission(ctx context.Context, id uuid.UUID, g GradeUpdate) (*model.SubmissionModel, error)
}
