package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	database "proctorx_backend/internals/databases"
	"proctorx_backend/internals/features/proctoring/model"
)

type gormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateSession(ctx context.Context, s *model.ProctorSessionModel) error {
	return database.Normalize(r.db.WithContext(ctx).Create(s).Error)
}

func (r *gormRepository) FindSession(ctx context.Context, attemptID, userID uuid.UUID) (*model.ProctorSessionModel, error) {
	var s model.ProctorSessionModel
	err := r.db.WithContext(ctx).
		Where("exam_attempt_id = ? AND user_id = ?", attemptID, userID).
		First(&s).Error
	if err != nil {
		return nil, database.Normalize(err)
	}
	return &s, nil
}

func (r *gormRepository) EndSession(ctx context.Context, attemptID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.ProctorSessionModel{}).
		Where("exam_attempt_id = ? AND ended_at IS NULL", attemptID).
		Update("ended_at", at).Error
}

func (r *gormRepository) IncrementViolations(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var s model.ProctorSessionModel
	res := r.db.WithContext(ctx).Model(&s).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "violations_count"}}}).
		Where("id = ?", sessionID).
		UpdateColumn("violations_count", gorm.Expr("violations_count + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, database.ErrNotFound
	}
	return s.ViolationsCount, nil
}

func (r *gormRepository) ListSessionsByExam(ctx context.Context, examID uuid.UUID) ([]model.ProctorSessionModel, error) {
	var rows []model.ProctorSessionModel
	err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("started_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *gormRepository) CreateViolation(ctx context.Context, v *model.ViolationModel) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *gormRepository) ListViolations(ctx context.Context, sessionIDs []uuid.UUID) (map[uuid.UUID][]model.ViolationModel, error) {
	out := map[uuid.UUID][]model.ViolationModel{}
	if len(sessionIDs) == 0 {
		return out, nil
	}
	var rows []model.ViolationModel
	if err := r.db.WithContext(ctx).
		Where("proctor_session_id IN ?", sessionIDs).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, v := range rows {
		out[v.ProctorSessionID] = append(out[v.ProctorSessionID], v)
	}
	return out, nil
}

func (r *gormRepository) CreateSnapshot(ctx context.Context, s *model.SnapshotModel) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *gormRepository) ListSnapshots(ctx context.Context, sessionIDs []uuid.UUID) (map[uuid.UUID][]model.SnapshotModel, error) {
	out := map[uuid.UUID][]model.SnapshotModel{}
	if len(sessionIDs) == 0 {
		return out, nil
	}
	var rows []model.SnapshotModel
	if err := r.db.WithContext(ctx).
		Where("proctor_session_id IN ?", sessionIDs).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, s := range rows {
		out[s.ProctorSessionID] = append(out[s.ProctorSessionID], s)
	}
	return out, nil
}

func (r *gormRepository) CreateActivity(ctx context.Context, a *model.ActivityLogModel) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *gormRepository) ListActivities(ctx context.Context, attemptIDs []uuid.UUID) (map[uuid.UUID][]model.ActivityLogModel, error) {
	out := map[uuid.UUID][]model.ActivityLogModel{}
	if len(attemptIDs) == 0 {
		return out, nil
	}
	var rows []model.ActivityLogModel
	err := r.db.WithContext(ctx).
		Where("exam_attempt_id IN ?", attemptIDs).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, a := range rows {
		out[*a.ExamAttemptID] = append(out[*a.ExamAttemptID], a)
	}
	return out, nil
}

func (r *gormRepository) DeleteExamData(ctx context.Context, examID uuid.UUID, attemptIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sids := tx.Model(&model.ProctorSessionModel{}).Select("id").Where("exam_id = ?", examID)
		if err := tx.Where("proctor_session_id IN (?)", sids).Delete(&model.ViolationModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("proctor_session_id IN (?)", sids).Delete(&model.SnapshotModel{}).Error; err != nil {
			return err
		}
		if len(attemptIDs) > 0 {
			if err := tx.Where("exam_attempt_id IN ?", attemptIDs).Delete(&model.ActivityLogModel{}).Error; err != nil {
				return err
			}
		}
		return tx.Where("exam_id = ?", examID).Delete(&model.ProctorSessionModel{}).Error
	})
}
