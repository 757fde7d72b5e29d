package service

import (
	"context"
	"errors"
	"log"
	"strings"

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

var errTimeOver = fiber.NewError(fiber.StatusForbidden, "Exam time is over")

func strPtr(s string) *string {
	return &s
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// activeAttempt loads an attempt that belongs to userID and is still in progress.
func (s *Service) activeAttempt(ctx context.Context, attemptID, userID uuid.UUID, missing *fiber.Error) (*model.ExamAttemptModel, error) {
	a, err := s.Repo.FindAttempt(ctx, attemptID)
	if err != nil {
		return nil, notFound(err, missing)
	}
	if a.UserID != userID || !a.IsInProgress() {
		return nil, missing
	}
	return a, nil
}

func languageAllowed(q *model.QuestionModel, languageID int) bool {
	if len(q.LanguageRestrictions) == 0 {
		return true
	}
	for _, id := range q.LanguageRestrictions {
		if int(id) == languageID {
			return true
		}
	}
	return false
}

func (s *Service) SubmitAnswer(ctx context.Context, actor helperAuth.Actor, req dto.SubmitAnswerRequest) (*dto.SubmitResult, error) {
	a, err := s.activeAttempt(ctx, req.ExamAttemptID, actor.ID, errInactiveAttempt)
	if err != nil {
		return nil, err
	}
	e, err := s.loadExam(ctx, a.ExamID)
	if err != nil {
		return nil, err
	}
	if dbtime.Expired(a.StartedAt, e.EndTime, e.DurationMinutes, dbtime.Now()) {
		return nil, errTimeOver
	}

	q, err := s.Repo.FindQuestion(ctx, req.QuestionID)
	if err != nil {
		return nil, notFound(err, errQuestionNotFound)
	}
	if q.ExamID != a.ExamID {
		return nil, errQuestionNotFound
	}

	sub := &model.SubmissionModel{
		ExamAttemptID: a.ID,
		QuestionID:    q.ID,
		ExamID:        a.ExamID,
		UserID:        actor.ID,
		Answer:        req.Answer,
		Code:          req.Code,
		LanguageID:    req.LanguageID,
		AutoGraded:    q.Type.AutoGraded(),
	}
	result := &dto.SubmitResult{}

	switch q.Type {
	case model.QuestionTypeMCQ:
		if req.Answer == nil || strings.TrimSpace(*req.Answer) == "" {
			return nil, fiber.NewError(fiber.StatusBadRequest, "answer is required")
		}
		ok, pts := MCQPoints(*req.Answer, q)
		sub.IsCorrect = &ok
		sub.PointsEarned = pts

	case model.QuestionTypeCode:
		if req.Code == nil || strings.TrimSpace(*req.Code) == "" || req.LanguageID == nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "code and language_id are required")
		}
		if !languageAllowed(q, *req.LanguageID) {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Language not allowed for this question")
		}
		if s.Runner == nil {
			return nil, fiber.NewError(fiber.StatusInternalServerError, "Code execution failed")
		}
		cases, err := s.Repo.ListTestCases(ctx, []uuid.UUID{q.ID})
		if err != nil {
			return nil, err
		}
		gctx, cancel := s.gradingContext(ctx, len(cases[q.ID]))
		g := GradeCode(gctx, s.Runner, *req.Code, *req.LanguageID, cases[q.ID], q.Points)
		cancel()
		sub.Output = optStr(g.Output)
		sub.Stderr = optStr(g.Stderr)
		sub.Status = strPtr(g.Status)
		sub.ExecutionTime = optStr(g.ExecutionTime)
		if !g.RunFailed {
			ok := g.IsCorrect
			sub.IsCorrect = &ok
			sub.PointsEarned = g.Points
			passed, total := g.Passed, g.Total
			result.TestsPassed, result.TestsTotal = &passed, &total
		}
	}

	// a graded code answer is saved even if grading outlived the request
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	if err := s.Repo.UpsertSubmission(saveCtx, sub); err != nil {
		return nil, err
	}

	result.IsCorrect = sub.IsCorrect
	result.PointsEarned = sub.PointsEarned
	result.Output = sub.Output
	result.Stderr = sub.Stderr
	result.Status = sub.Status
	return result, nil
}

// finalizeAttempt totals the attempt, completes it, closes the proctor
// session and notifies the student. done is false when the attempt had
// already left in_progress.
func (s *Service) finalizeAttempt(ctx context.Context, a *model.ExamAttemptModel, e *model.ExamModel) (score float64, done bool, err error) {
	score, err = s.Repo.SumPoints(ctx, a.ID)
	if err != nil {
		return 0, false, err
	}
	now := dbtime.Now()
	done, err = s.Repo.CompleteAttempt(ctx, a.ID, score, now)
	if err != nil || !done {
		return score, done, err
	}
	if s.Sessions != nil {
		if err := s.Sessions.CloseSession(ctx, a.ID, now); err != nil {
			log.Printf("[WARN] close proctor session for attempt %s: %v", a.ID, err)
		}
	}
	if e != nil {
		s.notify(ctx, a.UserID, e, notif.KindCompleted, &score, 0)
	}
	return score, true, nil
}

func (s *Service) SubmitExam(ctx context.Context, actor helperAuth.Actor, attemptID uuid.UUID) (float64, error) {
	missing := fiber.NewError(fiber.StatusNotFound, "Invalid exam attempt")
	a, err := s.activeAttempt(ctx, attemptID, actor.ID, missing)
	if err != nil {
		return 0, err
	}
	e, err := s.Repo.FindExam(ctx, a.ExamID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return 0, err
	}
	score, done, err := s.finalizeAttempt(ctx, a, e)
	if err != nil {
		return 0, err
	}
	if !done {
		return 0, missing
	}
	return score, nil
}

func (s *Service) ListAttemptSubmissions(ctx context.Context, actor helperAuth.Actor, attemptID uuid.UUID) ([]dto.SubmissionWithQuestion, error) {
	a, err := s.Repo.FindAttempt(ctx, attemptID)
	if err != nil {
		return nil, notFound(err, errAttemptNotFound)
	}
	if a.UserID != actor.ID {
		return nil, errAttemptNotFound
	}
	subs, err := s.Repo.ListSubmissionsByAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	qs, err := s.Repo.ListQuestions(ctx, a.ExamID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*model.QuestionModel, len(qs))
	for i := range qs {
		byID[qs[i].ID] = &qs[i]
	}
	out := make([]dto.SubmissionWithQuestion, 0, len(subs))
	for _, sub := range subs {
		out = append(out, dto.SubmissionWithQuestion{SubmissionModel: sub, Question: dto.ToQuestionBrief(byID[sub.QuestionID])})
	}
	return out, nil
}

// ExpireOverdueAttempts auto-submits in-progress attempts whose time has run out.
func (s *Service) ExpireOverdueAttempts(ctx context.Context) (int, error) {
	attempts, err := s.Repo.ListAttempts(ctx, repository.AttemptFilter{Statuses: []model.AttemptStatus{model.AttemptInProgress}})
	if err != nil {
		return 0, err
	}
	if len(attempts) == 0 {
		return 0, nil
	}
	ids := make([]uuid.UUID, 0, len(attempts))
	for _, a := range attempts {
		ids = append(ids, a.ExamID)
	}
	exams, err := s.Repo.FindExams(ctx, ids)
	if err != nil {
		return 0, err
	}

	now := dbtime.Now()
	expired := 0
	for i := range attempts {
		a := &attempts[i]
		e := exams[a.ExamID]
		if e == nil || !dbtime.Expired(a.StartedAt, e.EndTime, e.DurationMinutes, now) {
			continue
		}
		if _, done, err := s.finalizeAttempt(ctx, a, e); err != nil {
			log.Printf("[ERROR] expire attempt %s: %v", a.ID, err)
		} else if done {
			expired++
		}
	}
	return expired, nil
}
