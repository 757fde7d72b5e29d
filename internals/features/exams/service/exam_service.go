package service

import (
	"context"
	"errors"
	"log"
	"sort"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	database "proctorx_backend/internals/databases"
	"proctorx_backend/internals/features/exams/dto"
	"proctorx_backend/internals/features/exams/model"
	"proctorx_backend/internals/features/exams/repository"
	notif "proctorx_backend/internals/features/notifications/service"
	helperAuth "proctorx_backend/internals/helpers/auth"
	"proctorx_backend/internals/helpers/dbtime"
)

/* =========================
   CRUD
========================= */

func (s *Service) CreateExam(ctx context.Context, actor helperAuth.Actor, req dto.CreateExamRequest) (*model.ExamModel, error) {
	if !actor.IsStaff() {
		return nil, errInsufficient
	}
	e, err := req.ToModel(actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.CreateExam(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListExams: admins see every exam, instructors their own, students the ones they are enrolled in.
func (s *Service) ListExams(ctx context.Context, actor helperAuth.Actor, q string, offset, limit int) ([]model.ExamModel, int64, error) {
	f := repository.ExamFilter{Q: q, Offset: offset, Limit: limit}
	switch {
	case actor.IsAdmin():
	case actor.IsStaff():
		f.CreatedBy = &actor.ID
	default:
		f.EnrolledUser = &actor.ID
	}
	return s.Repo.ListExams(ctx, f)
}

func (s *Service) GetExamDetails(ctx context.Context, actor helperAuth.Actor, id uuid.UUID) (*dto.ExamDetail, error) {
	e, err := s.Repo.FindExam(ctx, id)
	if err != nil {
		return nil, notFound(err, errExamAccess)
	}
	ok, err := s.canView(ctx, actor, e)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errExamAccess
	}

	questions, err := s.questionViews(ctx, actor, e)
	if err != nil {
		return nil, err
	}
	attempts, err := s.Repo.ListAttempts(ctx, repository.AttemptFilter{ExamIDs: []uuid.UUID{id}, UserID: &actor.ID})
	if err != nil {
		return nil, err
	}
	sortAttemptsDesc(attempts)

	return &dto.ExamDetail{
		ExamModel:    *e,
		Questions:    questions,
		UserAttempts: attempts,
		CanAttempt:   len(attempts) < e.MaxAttempts,
	}, nil
}

func (s *Service) UpdateExam(ctx context.Context, actor helperAuth.Actor, id uuid.UUID, req dto.UpdateExamRequest) (*model.ExamModel, error) {
	e, err := s.loadExam(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isOwner(actor, e) && !actor.IsAdmin() {
		return nil, errInsufficient
	}
	if err := req.Apply(e); err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateExam(ctx, e); err != nil {
		return nil, notFound(err, errExamNotFound)
	}
	return e, nil
}

func (s *Service) DeleteExam(ctx context.Context, actor helperAuth.Actor, id uuid.UUID) error {
	e, err := s.loadExam(ctx, id)
	if err != nil {
		return err
	}
	if !isOwner(actor, e) && !actor.IsAdmin() {
		return errInsufficient
	}
	// proctoring rows go first so a failure leaves the exam in place to retry
	if s.Sessions != nil {
		attempts, err := s.Repo.ListAttempts(ctx, repository.AttemptFilter{ExamIDs: []uuid.UUID{id}})
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(attempts))
		for _, a := range attempts {
			ids = append(ids, a.ID)
		}
		if err := s.Sessions.DiscardExam(ctx, id, ids); err != nil {
			return err
		}
	}
	return notFound(s.Repo.DeleteExam(ctx, id), errExamNotFound)
}

/* =========================
   Attempts
========================= */

const (
	reasonNotEnrolled    = "Not enrolled in this exam"
	reasonExamNotFound   = "Exam not found"
	reasonNotActive      = "Exam is not currently active"
	reasonMaxAttempts    = "Maximum attempts exceeded"
	reasonActiveAttempt  = "You have an active exam attempt in progress"
	reasonNotStarted     = "Exam has not started yet"
	reasonEnded          = "Exam has ended"
	examNotFoundOrEnroll = "Exam not found or not enrolled"
)

// CheckEligibility never fails on business rules; it reports the reason instead.
func (s *Service) CheckEligibility(ctx context.Context, userID, examID uuid.UUID) (*dto.Eligibility, error) {
	if _, err := s.Repo.FindEnrollment(ctx, examID, userID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return &dto.Eligibility{Reason: reasonNotEnrolled}, nil
		}
		return nil, err
	}
	e, err := s.Repo.FindExam(ctx, examID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return &dto.Eligibility{Reason: reasonExamNotFound}, nil
		}
		return nil, err
	}
	if !e.IsOpen(dbtime.Now()) {
		return &dto.Eligibility{Reason: reasonNotActive, MaxAttempts: e.MaxAttempts}, nil
	}

	attempts, err := s.Repo.ListAttempts(ctx, repository.AttemptFilter{ExamIDs: []uuid.UUID{examID}, UserID: &userID})
	if err != nil {
		return nil, err
	}
	out := &dto.Eligibility{AttemptsUsed: len(attempts), MaxAttempts: e.MaxAttempts}
	if len(attempts) >= e.MaxAttempts {
		out.Reason = reasonMaxAttempts
		return out, nil
	}
	for _, a := range attempts {
		if a.IsInProgress() {
			out.Reason = reasonActiveAttempt
			return out, nil
		}
	}
	out.CanAttempt = true
	return out, nil
}

func (s *Service) StartAttempt(ctx context.Context, actor helperAuth.Actor, req dto.StartAttemptRequest, ip, userAgent string) (*dto.StartAttemptResponse, error) {
	if _, err := s.Repo.FindEnrollment(ctx, req.ExamID, actor.ID); err != nil {
		return nil, notFound(err, fiber.NewError(fiber.StatusNotFound, examNotFoundOrEnroll))
	}
	e, err := s.Repo.FindExam(ctx, req.ExamID)
	if err != nil {
		return nil, notFound(err, fiber.NewError(fiber.StatusNotFound, examNotFoundOrEnroll))
	}

	now := dbtime.Now()
	if !e.HasStarted(now) {
		return nil, fiber.NewError(fiber.StatusForbidden, reasonNotStarted)
	}
	if e.HasEnded(now) {
		return nil, fiber.NewError(fiber.StatusForbidden, reasonEnded)
	}
	if !e.IsActive {
		return nil, fiber.NewError(fiber.StatusForbidden, reasonNotActive)
	}

	attempts, err := s.Repo.ListAttempts(ctx, repository.AttemptFilter{ExamIDs: []uuid.UUID{e.ID}, UserID: &actor.ID})
	if err != nil {
		return nil, err
	}
	if len(attempts) >= e.MaxAttempts {
		return nil, fiber.NewError(fiber.StatusForbidden, reasonMaxAttempts)
	}
	for _, a := range attempts {
		if a.IsInProgress() {
			return nil, fiber.NewError(fiber.StatusForbidden, reasonActiveAttempt)
		}
	}

	a := &model.ExamAttemptModel{
		ExamID:        e.ID,
		UserID:        actor.ID,
		AttemptNumber: len(attempts) + 1,
		Status:        model.AttemptInProgress,
		StartedAt:     now,
		TimeRemaining: e.DurationMinutes * 60,
	}
	if ip != "" {
		a.IPAddress = &ip
	}
	if userAgent != "" {
		a.UserAgent = &userAgent
	}
	if err := s.Repo.CreateAttempt(ctx, a); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			// lost a race with a concurrent start for the same attempt number
			return nil, fiber.NewError(fiber.StatusForbidden, reasonActiveAttempt)
		}
		return nil, err
	}

	if s.Sessions != nil {
		info := model.SessionInfo{UserAgent: userAgent, ScreenResolution: req.ScreenResolution, Extra: req.BrowserInfo}
		if info.ScreenResolution == "" {
			info.ScreenResolution = "unknown"
		}
		if err := s.Sessions.OpenSession(ctx, a, info); err != nil {
			log.Printf("[ERROR] proctor session for attempt %s: %v", a.ID, err)
		}
	}
	s.notify(ctx, actor.ID, e, notif.KindStarted, nil, 0)

	return &dto.StartAttemptResponse{
		Attempt: a,
		Exam:    dto.AttemptExam{ID: e.ID, Title: e.Title, DurationMinutes: e.DurationMinutes},
	}, nil
}

// GetAttempt returns the caller's attempt with a live time_remaining.
func (s *Service) GetAttempt(ctx context.Context, actor helperAuth.Actor, attemptID uuid.UUID) (*model.ExamAttemptModel, error) {
	a, err := s.Repo.FindAttempt(ctx, attemptID)
	if err != nil {
		return nil, notFound(err, errAttemptNotFound)
	}
	if a.UserID != actor.ID {
		return nil, errAttemptNotFound
	}
	e, err := s.loadExam(ctx, a.ExamID)
	if err != nil {
		return nil, err
	}
	if a.IsInProgress() {
		a.TimeRemaining = dbtime.RemainingSeconds(a.StartedAt, e.EndTime, e.DurationMinutes, dbtime.Now())
	}
	return a, nil
}

func sortAttemptsDesc(rows []model.ExamAttemptModel) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].AttemptNumber > rows[j].AttemptNumber })
}
