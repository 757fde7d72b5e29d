package service

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"proctorx_backend/internals/features/exams/dto"
	"proctorx_backend/internals/features/exams/model"
	helperAuth "proctorx_backend/internals/helpers/auth"
)

func visibilityFor(actor helperAuth.Actor, e *model.ExamModel) dto.Visibility {
	if isOwner(actor, e) || actor.IsStaff() {
		return dto.VisibilityFull
	}
	return dto.VisibilityStudent
}

func questionIDs(qs []model.QuestionModel) []uuid.UUID {
	ids := make([]uuid.UUID, len(qs))
	for i := range qs {
		ids[i] = qs[i].ID
	}
	return ids
}

func (s *Service) questionViews(ctx context.Context, actor helperAuth.Actor, e *model.ExamModel) ([]dto.QuestionView, error) {
	qs, err := s.Repo.ListQuestions(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	cases, err := s.Repo.ListTestCases(ctx, questionIDs(qs))
	if err != nil {
		return nil, err
	}
	vis := visibilityFor(actor, e)
	out := make([]dto.QuestionView, 0, len(qs))
	for i := range qs {
		v := dto.ToQuestionView(&qs[i], cases[qs[i].ID], vis)
		if qs[i].Type == model.QuestionTypeCode {
			tpls, err := s.Repo.ListTemplates(ctx, qs[i].ID)
			if err != nil {
				return nil, err
			}
			v.CodeTemplates = tpls
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) CreateQuestion(ctx context.Context, actor helperAuth.Actor, req dto.CreateQuestionRequest) (*dto.QuestionView, error) {
	e, err := s.loadExam(ctx, req.ExamID)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, e) {
		return nil, errInsufficient
	}
	q, cases, templates := req.ToModel(actor.ID)
	if q.Type == model.QuestionTypeMCQ && (q.CorrectAnswer == nil || len(q.Options) == 0) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "mcq questions need options and correct_answer")
	}
	if err := s.Repo.CreateQuestion(ctx, q, cases, templates); err != nil {
		return nil, err
	}
	v := dto.ToQuestionView(q, cases, dto.VisibilityFull)
	v.CodeTemplates = templates
	return &v, nil
}

func (s *Service) ListExamQuestions(ctx context.Context, actor helperAuth.Actor, examID uuid.UUID) ([]dto.QuestionView, error) {
	e, err := s.Repo.FindExam(ctx, examID)
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
	return s.questionViews(ctx, actor, e)
}

// ListAttemptQuestions is the student's exam sheet: questions in order with
// their own saved answers, no answer key and no expected outputs.
func (s *Service) ListAttemptQuestions(ctx context.Context, actor helperAuth.Actor, examID, attemptID uuid.UUID) ([]dto.QuestionView, error) {
	a, err := s.Repo.FindAttempt(ctx, attemptID)
	if err != nil {
		return nil, notFound(err, errAttemptNotFound)
	}
	if a.UserID != actor.ID || a.ExamID != examID {
		return nil, errAttemptNotFound
	}

	qs, err := s.Repo.ListQuestions(ctx, examID)
	if err != nil {
		return nil, err
	}
	cases, err := s.Repo.ListTestCases(ctx, questionIDs(qs))
	if err != nil {
		return nil, err
	}
	subs, err := s.Repo.ListSubmissionsByAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	byQuestion := make(map[uuid.UUID]*model.SubmissionModel, len(subs))
	for i := range subs {
		byQuestion[subs[i].QuestionID] = &subs[i]
	}

	out := make([]dto.QuestionView, 0, len(qs))
	for i := range qs {
		v := dto.ToQuestionView(&qs[i], cases[qs[i].ID], dto.VisibilityAttempt)
		v.Submission = dto.ToAttemptSubmission(byQuestion[qs[i].ID])
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) findQuestionWithExam(ctx context.Context, id uuid.UUID) (*model.QuestionModel, *model.ExamModel, error) {
	q, err := s.Repo.FindQuestion(ctx, id)
	if err != nil {
		return nil, nil, notFound(err, errQuestionNotFound)
	}
	e, err := s.Repo.FindExam(ctx, q.ExamID)
	if err != nil {
		return nil, nil, notFound(err, errQuestionNotFound)
	}
	return q, e, nil
}

func (s *Service) UpdateQuestion(ctx context.Context, actor helperAuth.Actor, id uuid.UUID, req dto.UpdateQuestionRequest) (*model.QuestionModel, error) {
	q, e, err := s.findQuestionWithExam(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, e) {
		return nil, errInsufficient
	}
	req.Apply(q)
	if err := s.Repo.UpdateQuestion(ctx, q); err != nil {
		return nil, notFound(err, errQuestionNotFound)
	}
	return q, nil
}

func (s *Service) DeleteQuestion(ctx context.Context, actor helperAuth.Actor, id uuid.UUID) error {
	_, e, err := s.findQuestionWithExam(ctx, id)
	if err != nil {
		return err
	}
	if !isOwner(actor, e) && !actor.IsAdmin() {
		return errInsufficient
	}
	return notFound(s.Repo.DeleteQuestion(ctx, id), errQuestionNotFound)
}

func (s *Service) ListTemplates(ctx context.Context, questionID uuid.UUID) ([]model.CodeTemplateModel, error) {
	if _, err := s.Repo.FindQuestion(ctx, questionID); err != nil {
		return nil, notFound(err, errQuestionNotFound)
	}
	return s.Repo.ListTemplates(ctx, questionID)
}
