package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"proctorx_backend/internals/constants"
	database "proctorx_backend/internals/databases"
	"proctorx_backend/internals/features/users/user_profiles/dto"
	"proctorx_backend/internals/features/users/user_profiles/model"
	"proctorx_backend/internals/features/users/user_profiles/repository"
	"proctorx_backend/internals/helpers/dbtime"
)

// ExamStats is the slice of the exams store the dashboard reads.
type ExamStats interface {
	CountExams(ctx context.Context) (int64, error)
	CountActiveExams(ctx context.Context, now time.Time) (int64, error)
	CountCompletedAttempts(ctx context.Context) (int64, error)
}

type Service struct {
	Profiles repository.Repository
	Exams    ExamStats
}

func New(profiles repository.Repository, exams ExamStats) *Service {
	return &Service{Profiles: profiles, Exams: exams}
}

func (s *Service) Dashboard(ctx context.Context) (*dto.Dashboard, error) {
	var (
		out dto.Dashboard
		err error
	)
	if out.TotalUsers, err = s.Profiles.Count(ctx); err != nil {
		return nil, err
	}
	if out.TotalExams, err = s.Exams.CountExams(ctx); err != nil {
		return nil, err
	}
	if out.ActiveExams, err = s.Exams.CountActiveExams(ctx, dbtime.Now()); err != nil {
		return nil, err
	}
	if out.CompletedAttempts, err = s.Exams.CountCompletedAttempts(ctx); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) ListUsers(ctx context.Context, offset, limit int) ([]model.UserProfileModel, int64, error) {
	return s.Profiles.List(ctx, offset, limit)
}

func (s *Service) UpdateRole(ctx context.Context, id uuid.UUID, role string) (*model.UserProfileModel, error) {
	if !constants.IsValidRole(role) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid role")
	}
	p, err := s.Profiles.UpdateRole(ctx, id, role)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		return nil, err
	}
	return p, nil
}
