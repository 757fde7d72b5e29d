package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"proctorx_backend/internals/clients/judge0"
	"proctorx_backend/internals/constants"
	database "proctorx_backend/internals/databases"
	"proctorx_backend/internals/features/exams/model"
	"proctorx_backend/internals/features/exams/repository"
	notif "proctorx_backend/internals/features/notifications/service"
	profileRepo "proctorx_backend/internals/features/users/user_profiles/repository"
	helperAuth "proctorx_backend/internals/helpers/auth"
)

// CodeRunner runs one program through the judge.
type CodeRunner interface {
	Execute(ctx context.Context, req judge0.Request) (*judge0.Result, error)
}

// SessionTracker opens and closes the proctoring session tied to an attempt,
// and drops an exam's proctoring records when the exam is deleted.
type SessionTracker interface {
	OpenSession(ctx context.Context, attempt *model.ExamAttemptModel, info model.SessionInfo) error
	CloseSession(ctx context.Context, attemptID uuid.UUID, at time.Time) error
	DiscardExam(ctx context.Context, examID uuid.UUID, attemptIDs []uuid.UUID) error
}

type Service struct {
	Repo     repository.Repository
	Profiles profileRepo.Repository
	Runner   CodeRunner
	Sessions SessionTracker
	Notifier notif.Notifier

	// RunBudget bounds one judge run during grading; zero means DefaultRunBudget.
	RunBudget time.Duration
}

func New(repo repository.Repository, profiles profileRepo.Repository, runner CodeRunner, sessions SessionTracker, notifier notif.Notifier) *Service {
	if notifier == nil {
		notifier = notif.LogNotifier{}
	}
	return &Service{Repo: repo, Profiles: profiles, Runner: runner, Sessions: sessions, Notifier: notifier}
}

var (
	errExamNotFound      = fiber.NewError(fiber.StatusNotFound, "Exam not found")
	errExamAccess        = fiber.NewError(fiber.StatusNotFound, "Exam not found or access denied")
	errQuestionNotFound  = fiber.NewError(fiber.StatusNotFound, "Question not found")
	errAttemptNotFound   = fiber.NewError(fiber.StatusNotFound, "Exam attempt not found")
	errInactiveAttempt   = fiber.NewError(fiber.StatusNotFound, "Invalid or inactive exam attempt")
	errSubmissionMissing = fiber.NewError(fiber.StatusNotFound, "Submission not found")
	errInsufficient      = fiber.NewError(fiber.StatusForbidden, constants.ErrInsufficientPermissions)
)

// notFound maps the repository sentinel onto a 404 and passes everything else through.
func notFound(err error, fe *fiber.Error) error {
	if errors.Is(err, database.ErrNotFound) {
		return fe
	}
	return err
}

func (s *Service) loadExam(ctx context.Context, id uuid.UUID) (*model.ExamModel, error) {
	e, err := s.Repo.FindExam(ctx, id)
	if err != nil {
		return nil, notFound(err, errExamNotFound)
	}
	return e, nil
}

func isOwner(actor helperAuth.Actor, e *model.ExamModel) bool {
	return e.CreatedBy == actor.ID
}

// canView: creator, admin, or enrolled.
func (s *Service) canView(ctx context.Context, actor helperAuth.Actor, e *model.ExamModel) (bool, error) {
	if isOwner(actor, e) || actor.IsAdmin() {
		return true, nil
	}
	_, err := s.Repo.FindEnrollment(ctx, e.ID, actor.ID)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// canManage: creator or any staff member.
func canManage(actor helperAuth.Actor, e *model.ExamModel) bool {
	return isOwner(actor, e) || actor.IsStaff()
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, exam *model.ExamModel, kind notif.Kind, score *float64, violations int) {
	ev := notif.Event{Kind: kind, ExamTitle: exam.Title, Score: score, Violations: violations}
	if s.Profiles != nil {
		if p, err := s.Profiles.FindByID(ctx, userID); err == nil {
			ev.Email, ev.Name = p.Email, p.FullName
		}
	}
	if err := s.Notifier.Notify(ctx, ev); err != nil {
		log.Printf("[WARN] notify %s user=%s: %v", kind, userID, err)
	}
}
