package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	database "proctorx_backend/internals/databases"
	"proctorx_backend/internals/features/exams/model"
)

type gormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

/* =======================
   Exams
======================= */

func (r *gormRepository) CreateExam(ctx context.Context, e *model.ExamModel) error {
	return database.Normalize(r.db.WithContext(ctx).Create(e).Error)
}

func (r *gormRepository) FindExam(ctx context.Context, id uuid.UUID) (*model.ExamModel, error) {
	var e model.ExamModel
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, database.Normalize(err)
	}
	return &e, nil
}

func (r *gormRepository) FindExams(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.ExamModel, error) {
	out := make(map[uuid.UUID]*model.ExamModel, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []model.ExamModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

func (r *gormRepository) ListExams(ctx context.Context, f ExamFilter) ([]model.ExamModel, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ExamModel{})
	if f.CreatedBy != nil {
		q = q.Where("created_by = ?", *f.CreatedBy)
	}
	if f.EnrolledUser != nil {
		q = q.Where("id IN (?)", r.db.Model(&model.EnrollmentModel{}).
			Select("exam_id").Where("user_id = ?", *f.EnrolledUser))
	}
	if s := strings.TrimSpace(f.Q); s != "" {
		like := "%" + s + "%"
		q = q.Where("(title ILIKE ? OR COALESCE(description,'') ILIKE ?)", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q = q.Order("start_time DESC")
	if f.Limit > 0 {
		q = q.Offset(f.Offset).Limit(f.Limit)
	}
	var rows []model.ExamModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *gormRepository) UpdateExam(ctx context.Context, e *model.ExamModel) error {
	return database.Normalize(r.db.WithContext(ctx).Save(e).Error)
}

func (r *gormRepository) DeleteExam(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qids := tx.Model(&model.QuestionModel{}).Select("id").Where("exam_id = ?", id)
		aids := tx.Model(&model.ExamAttemptModel{}).Select("id").Where("exam_id = ?", id)

		if err := tx.Where("question_id IN (?)", qids).Delete(&model.TestCaseModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id IN (?)", qids).Delete(&model.CodeTemplateModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("exam_attempt_id IN (?)", aids).Delete(&model.SubmissionModel{}).Error; err != nil {
			return err
		}
		for _, m := range []any{&model.QuestionModel{}, &model.ExamAttemptModel{}, &model.EnrollmentModel{}} {
			if err := tx.Where("exam_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&model.ExamModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return database.ErrNotFound
		}
		return nil
	})
}

func (r *gormRepository) CountExams(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ExamModel{}).Count(&n).Error
	return n, err
}

func (r *gormRepository) CountActiveExams(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ExamModel{}).
		Where("is_active = TRUE AND start_time <= ? AND end_time >= ?", now, now).
		Count(&n).Error
	return n, err
}

/* =======================
   Questions
======================= */

func (r *gormRepository) CreateQuestion(ctx context.Context, q *model.QuestionModel, cases []model.TestCaseModel, templates []model.CodeTemplateModel) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(q).Error; err != nil {
			return err
		}
		for i := range cases {
			cases[i].QuestionID = q.ID
		}
		for i := range templates {
			templates[i].QuestionID = q.ID
		}
		if len(cases) > 0 {
			if err := tx.Create(&cases).Error; err != nil {
				return err
			}
		}
		if len(templates) > 0 {
			if err := tx.Create(&templates).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *gormRepository) FindQuestion(ctx context.Context, id uuid.UUID) (*model.QuestionModel, error) {
	var q model.QuestionModel
	if err := r.db.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		return nil, database.Normalize(err)
	}
	return &q, nil
}

func (r *gormRepository) UpdateQuestion(ctx context.Context, q *model.QuestionModel) error {
	return database.Normalize(r.db.WithContext(ctx).Save(q).Error)
}

func (r *gormRepository) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&model.TestCaseModel{}, &model.CodeTemplateModel{}, &model.SubmissionModel{}} {
			if err := tx.Where("question_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&model.QuestionModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return database.ErrNotFound
		}
		return nil
	})
}

func (r *gormRepository) ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.QuestionModel, error) {
	var rows []model.QuestionModel
	err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("order_index ASC, created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *gormRepository) ListTestCases(ctx context.Context, questionIDs []uuid.UUID) (map[uuid.UUID][]model.TestCaseModel, error) {
	out := make(map[uuid.UUID][]model.TestCaseModel, len(questionIDs))
	if len(questionIDs) == 0 {
		return out, nil
	}
	var rows []model.TestCaseModel
	if err := r.db.WithContext(ctx).
		Where("question_id IN ?", questionIDs).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, tc := range rows {
		out[tc.QuestionID] = append(out[tc.QuestionID], tc)
	}
	return out, nil
}

func (r *gormRepository) ListTemplates(ctx context.Context, questionID uuid.UUID) ([]model.CodeTemplateModel, error) {
	var rows []model.CodeTemplateModel
	err := r.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("language_id ASC").
		Find(&rows).Error
	return rows, err
}

/* =======================
   Enrollments
======================= */

func (r *gormRepository) CreateEnrollment(ctx context.Context, en *model.EnrollmentModel) error {
	return database.Normalize(r.db.WithContext(ctx).Create(en).Error)
}

func (r *gormRepository) FindEnrollment(ctx context.Context, examID, userID uuid.UUID) (*model.EnrollmentModel, error) {
	var en model.EnrollmentModel
	if err := r.db.WithContext(ctx).
		Where("exam_id = ? AND user_id = ?", examID, userID).
		First(&en).Error; err != nil {
		return nil, database.Normalize(err)
	}
	return &en, nil
}

func (r *gormRepository) ListEnrollmentsByUser(ctx context.Context, userID uuid.UUID) ([]model.EnrollmentModel, error) {
	var rows []model.EnrollmentModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("enrolled_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *gormRepository) ListEnrollmentsByExams(ctx context.Context, examIDs []uuid.UUID) ([]model.EnrollmentModel, error) {
	var rows []model.EnrollmentModel
	if len(examIDs) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).
		Where("exam_id IN ?", examIDs).
		Order("enrolled_at DESC").
		Find(&rows).Error
	return rows, err
}

/* =======================
   Attempts
======================= */

func (r *gormRepository) CreateAttempt(ctx context.Context, a *model.ExamAttemptModel) error {
	return database.Normalize(r.db.WithContext(ctx).Create(a).Error)
}

func (r *gormRepository) FindAttempt(ctx context.Context, id uuid.UUID) (*model.ExamAttemptModel, error) {
	var a model.ExamAttemptModel
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, database.Normalize(err)
	}
	return &a, nil
}

func (r *gormRepository) ListAttempts(ctx context.Context, f AttemptFilter) ([]model.ExamAttemptModel, error) {
	q := r.db.WithContext(ctx).Model(&model.ExamAttemptModel{})
	if f.ExamIDs != nil {
		if len(f.ExamIDs) == 0 {
			return []model.ExamAttemptModel{}, nil
		}
		q = q.Where("exam_id IN ?", f.ExamIDs)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	var rows []model.ExamAttemptModel
	err := q.Order("started_at DESC, attempt_number DESC").Find(&rows).Error
	return rows, err
}

func (r *gormRepository) CompleteAttempt(ctx context.Context, id uuid.UUID, score float64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.ExamAttemptModel{}).
		Where("id = ? AND status = ?", id, model.AttemptInProgress).
		Updates(map[string]any{
			"status":         model.AttemptCompleted,
			"submitted_at":   at,
			"score":          score,
			"time_remaining": 0,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormRepository) SetAttemptStatus(ctx context.Context, id uuid.UUID, status model.AttemptStatus) error {
	res := r.db.WithContext(ctx).Model(&model.ExamAttemptModel{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

func (r *gormRepository) UpdateAttemptScore(ctx context.Context, id uuid.UUID, score float64) error {
	return r.db.WithContext(ctx).Model(&model.ExamAttemptModel{}).
		Where("id = ?", id).
		Update("score", score).Error
}

func (r *gormRepository) CountCompletedAttempts(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ExamAttemptModel{}).
		Where("status = ?", model.AttemptCompleted).
		Count(&n).Error
	return n, err
}

/* =======================
   Submissions
======================= */

func (r *gormRepository) UpsertSubmission(ctx context.Context, s *model.SubmissionModel) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "exam_attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"answer", "code", "language_id", "output", "stderr", "execution_time",
			"status", "is_correct", "points_earned", "auto_graded", "updated_at",
		}),
	}).Create(s).Error
}

func (r *gormRepository) FindSubmission(ctx context.Context, id uuid.UUID) (*model.SubmissionModel, error) {
	var s model.SubmissionModel
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, database.Normalize(err)
	}
	return &s, nil
}

func (r *gormRepository) ListSubmissionsByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.SubmissionModel, error) {
	var rows []model.SubmissionModel
	err := r.db.WithContext(ctx).
		Where("exam_attempt_id = ?", attemptID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *gormRepository) ListSubmissionsByExam(ctx context.Context, examID uuid.UUID) ([]model.SubmissionModel, error) {
	var rows []model.SubmissionModel
	err := r.db.WithContext(ctx).Where("exam_id = ?", examID).Find(&rows).Error
	return rows, err
}

func (r *gormRepository) SumPoints(ctx context.Context, attemptID uuid.UUID) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&model.SubmissionModel{}).
		Select("COALESCE(SUM(points_earned), 0)").
		Where("exam_attempt_id = ?", attemptID).
		Scan(&total).Error
	return total, err
}

func (r *gormRepository) GradeSubmission(ctx context.Context, id uuid.UUID, g GradeUpdate) (*model.SubmissionModel, error) {
	res := r.db.WithContext(ctx).Model(&model.SubmissionModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"points_earned": g.PointsEarned,
			"feedback":      g.Feedback,
			"graded_by":     g.GradedBy,
			"graded_at":     g.GradedAt,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, database.ErrNotFound
	}
	return r.FindSubmission(ctx, id)
}
