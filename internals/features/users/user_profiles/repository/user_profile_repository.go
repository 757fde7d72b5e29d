package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	database "proctorx_backend/internals/databases"
	"proctorx_backend/internals/features/users/user_profiles/model"
)

type Repository interface {
	Create(ctx context.Context, p *model.UserProfileModel) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.UserProfileModel, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.UserProfileModel, error)
	List(ctx context.Context, offset, limit int) ([]model.UserProfileModel, int64, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role string) (*model.UserProfileModel, error)
	Count(ctx context.Context) (int64, error)
}

/* =========================
   GORM
========================= */

type gormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, p *model.UserProfileModel) error {
	return database.Normalize(r.db.WithContext(ctx).Create(p).Error)
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.UserProfileModel, error) {
	var p model.UserProfileModel
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, database.Normalize(err)
	}
	return &p, nil
}

func (r *gormRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.UserProfileModel, error) {
	out := make(map[uuid.UUID]*model.UserProfileModel, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []model.UserProfileModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

func (r *gormRepository) List(ctx context.Context, offset, limit int) ([]model.UserProfileModel, int64, error) {
	var (
		rows  []model.UserProfileModel
		total int64
	)
	q := r.db.WithContext(ctx).Model(&model.UserProfileModel{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *gormRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) (*model.UserProfileModel, error) {
	res := r.db.WithContext(ctx).Model(&model.UserProfileModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"role": role, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, database.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *gormRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.UserProfileModel{}).Count(&n).Error
	return n, err
}

/* =========================
   Memory
========================= */

type memoryRepository struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]model.UserProfileModel
}

func NewMemoryRepository() Repository {
	return &memoryRepository{rows: map[uuid.UUID]model.UserProfileModel{}}
}

func (r *memoryRepository) Create(_ context.Context, p *model.UserProfileModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if _, ok := r.rows[p.ID]; ok {
		return database.ErrDuplicate
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	r.rows[p.ID] = *p
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id uuid.UUID) (*model.UserProfileModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &p, nil
}

func (r *memoryRepository) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.UserProfileModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[uuid.UUID]*model.UserProfileModel, len(ids))
	for _, id := range ids {
		if p, ok := r.rows[id]; ok {
			cp := p
			out[id] = &cp
		}
	}
	return out, nil
}

func (r *memoryRepository) List(_ context.Context, offset, limit int) ([]model.UserProfileModel, int64, error) {
	r.mu.RLock()
	all := make([]model.UserProfileModel, 0, len(r.rows))
	for _, p := range r.rows {
		all = append(all, p)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.UserProfileModel{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *memoryRepository) UpdateRole(_ context.Context, id uuid.UUID, role string) (*model.UserProfileModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	p.Role = role
	p.UpdatedAt = time.Now().UTC()
	r.rows[id] = p
	return &p, nil
}

func (r *memoryRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.rows)), nil
}
