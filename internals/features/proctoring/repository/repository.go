package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"proctorx_backend/internals/features/proctoring/model"
)

type Repository interface {
	CreateSession(ctx context.Context, s *model.ProctorSessionModel) error
	FindSession(ctx context.Context, attemptID, userID uuid.UUID) (*model.ProctorSessionModel, error)
	EndSession(ctx context.Context, attemptID uuid.UUID, at time.Time) error
	// IncrementViolations bumps the counter in one statement and returns the new value.
	IncrementViolations(ctx context.Context, sessionID uuid.UUID) (int, error)
	ListSessionsByExam(ctx context.Context, examID uuid.UUID) ([]model.ProctorSessionModel, error)

	CreateViolation(ctx context.Context, v *model.ViolationModel) error
	ListViolations(ctx context.Context, sessionIDs []uuid.UUID) (map[uuid.UUID][]model.ViolationModel, error)

	CreateSnapshot(ctx context.Context, s *model.SnapshotModel) error
	ListSnapshots(ctx context.Context, sessionIDs []uuid.UUID) (map[uuid.UUID][]model.SnapshotModel, error)

	CreateActivity(ctx context.Context, a *model.ActivityLogModel) error
	ListActivities(ctx context.Context, attemptIDs []uuid.UUID) (map[uuid.UUID][]model.ActivityLogModel, error)

	// DeleteExamData removes the sessions of an exam with their violations and
	// snapshots, plus the activity logs of the given attempts.
	DeleteExamData(ctx context.Context, examID uuid.UUID, attemptIDs []uuid.UUID) error
}
