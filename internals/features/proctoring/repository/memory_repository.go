package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	database "proctorx_backend/internals/databases"
	"proctorx_backend/internals/features/proctoring/model"
)

type memoryRepository struct {
	mu         sync.Mutex
	sessions   map[uuid.UUID]*model.ProctorSessionModel
	violations []model.ViolationModel
	snapshots  []model.SnapshotModel
	activities []model.ActivityLogModel
}

func NewMemoryRepository() Repository {
	return &memoryRepository{sessions: map[uuid.UUID]*model.ProctorSessionModel{}}
}

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
}

func (r *memoryRepository) CreateSession(_ context.Context, s *model.ProctorSessionModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sessions {
		if existing.ExamAttemptID == s.ExamAttemptID {
			return database.ErrDuplicate
		}
	}
	newID(&s.ID)
	stamp(&s.StartedAt)
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *memoryRepository) FindSession(_ context.Context, attemptID, userID uuid.UUID) (*model.ProctorSessionModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ExamAttemptID == attemptID && s.UserID == userID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (r *memoryRepository) EndSession(_ context.Context, attemptID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ExamAttemptID == attemptID && s.EndedAt == nil {
			t := at
			s.EndedAt = &t
		}
	}
	return nil
}

func (r *memoryRepository) IncrementViolations(_ context.Context, sessionID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return 0, database.ErrNotFound
	}
	s.ViolationsCount++
	return s.ViolationsCount, nil
}

func (r *memoryRepository) ListSessionsByExam(_ context.Context, examID uuid.UUID) ([]model.ProctorSessionModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ProctorSessionModel
	for _, s := range r.sessions {
		if s.ExamID == examID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (r *memoryRepository) CreateViolation(_ context.Context, v *model.ViolationModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	newID(&v.ID)
	stamp(&v.CreatedAt)
	r.violations = append(r.violations, *v)
	return nil
}

func (r *memoryRepository) ListViolations(_ context.Context, sessionIDs []uuid.UUID) (map[uuid.UUID][]model.ViolationModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := idSet(sessionIDs)
	out := map[uuid.UUID][]model.ViolationModel{}
	for _, v := range r.violations {
		if _, ok := want[v.ProctorSessionID]; ok {
			out[v.ProctorSessionID] = append(out[v.ProctorSessionID], v)
		}
	}
	return out, nil
}

func (r *memoryRepository) CreateSnapshot(_ context.Context, s *model.SnapshotModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	newID(&s.ID)
	stamp(&s.CreatedAt)
	r.snapshots = append(r.snapshots, *s)
	return nil
}

func (r *memoryRepository) ListSnapshots(_ context.Context, sessionIDs []uuid.UUID) (map[uuid.UUID][]model.SnapshotModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := idSet(sessionIDs)
	out := map[uuid.UUID][]model.SnapshotModel{}
	for _, s := range r.snapshots {
		if _, ok := want[s.ProctorSessionID]; ok {
			out[s.ProctorSessionID] = append(out[s.ProctorSessionID], s)
		}
	}
	return out, nil
}

func (r *memoryRepository) CreateActivity(_ context.Context, a *model.ActivityLogModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	newID(&a.ID)
	stamp(&a.CreatedAt)
	r.activities = append(r.activities, *a)
	return nil
}

func (r *memoryRepository) ListActivities(_ context.Context, attemptIDs []uuid.UUID) (map[uuid.UUID][]model.ActivityLogModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := idSet(attemptIDs)
	out := map[uuid.UUID][]model.ActivityLogModel{}
	for _, a := range r.activities {
		if a.ExamAttemptID == nil {
			continue
		}
		if _, ok := want[*a.ExamAttemptID]; ok {
			out[*a.ExamAttemptID] = append(out[*a.ExamAttemptID], a)
		}
	}
	return out, nil
}

func (r *memoryRepository) DeleteExamData(_ context.Context, examID uuid.UUID, attemptIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	gone := map[uuid.UUID]struct{}{}
	for id, s := range r.sessions {
		if s.ExamID == examID {
			gone[id] = struct{}{}
			delete(r.sessions, id)
		}
	}
	violations := r.violations[:0]
	for _, v := range r.violations {
		if _, ok := gone[v.ProctorSessionID]; !ok {
			violations = append(violations, v)
		}
	}
	r.violations = violations
	snapshots := r.snapshots[:0]
	for _, s := range r.snapshots {
		if _, ok := gone[s.ProctorSessionID]; !ok {
			snapshots = append(snapshots, s)
		}
	}
	r.snapshots = snapshots
	attempts := idSet(attemptIDs)
	activities := r.activities[:0]
	for _, a := range r.activities {
		if a.ExamAttemptID != nil {
			if _, ok := attempts[*a.ExamAttemptID]; ok {
				continue
			}
		}
		activities = append(activities, a)
	}
	r.activities = activities
	return nil
}

func idSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	m := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}
