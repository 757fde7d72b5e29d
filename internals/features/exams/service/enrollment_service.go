package service

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	database "proctorx_backend/internals/databases"
	"proctorx_backend/internals/features/exams/dto"
	"proctorx_backend/internals/features/exams/model"
	helperAuth "proctorx_backend/internals/helpers/auth"
)

var errAlreadyEnrolled = fiber.NewError(fiber.StatusBadRequest, "Already enrolled in this exam")

func (s *Service) Enroll(ctx context.Context, actor helperAuth.Actor, examID uuid.UUID) (*model.EnrollmentModel, error) {
	if _, err := s.loadExam(ctx, examID); err != nil {
		return nil, err
	}
	if _, err := s.Repo.FindEnrollment(ctx, examID, actor.ID); err == nil {
		return nil, errAlreadyEnrolled
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	en := &model.EnrollmentModel{ExamID: examID, UserID: actor.ID}
	if err := s.Repo.CreateEnrollment(ctx, en); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, errAlreadyEnrolled
		}
		return nil, err
	}
	return en, nil
}

func (s *Service) MyEnrollments(ctx context.Context, actor helperAuth.Actor) ([]dto.EnrollmentWithExam, error) {
	rows, err := s.Repo.ListEnrollmentsByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		ids[i] = rows[i].ExamID
	}
	exams, err := s.Repo.FindExams(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EnrollmentWithExam, 0, len(rows))
	for _, en := range rows {
		out = append(out, dto.EnrollmentWithExam{EnrollmentModel: en, Exam: dto.ToExamBrief(exams[en.ExamID])})
	}
	return out, nil
}

func (s *Service) ExamEnrollments(ctx context.Context, actor helperAuth.Actor, examID uuid.UUID) ([]dto.EnrollmentWithUser, error) {
	e, err := s.loadExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, e) {
		return nil, errInsufficient
	}
	rows, err := s.Repo.ListEnrollmentsByExams(ctx, []uuid.UUID{examID})
	if err != nil {
		return nil, err
	}
	userIDs := make([]uuid.UUID, len(rows))
	for i := range rows {
		userIDs[i] = rows[i].UserID
	}
	profiles, err := s.Profiles.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EnrollmentWithUser, 0, len(rows))
	for _, en := range rows {
		out = append(out, dto.EnrollmentWithUser{EnrollmentModel: en, User: profiles[en.UserID].Summary()})
	}
	return out, nil
}
