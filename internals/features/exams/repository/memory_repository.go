package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	database "proctorx_backend/internals/databases"
	"proctorx_backend/internals/features/exams/model"
)

// memoryRepository backs DB_DRIVER=memory and the service tests.
type memoryRepository struct {
	mu          sync.RWMutex
	exams       map[uuid.UUID]model.ExamModel
	questions   map[uuid.UUID]model.QuestionModel
	testCases   map[uuid.UUID]model.TestCaseModel
	templates   map[uuid.UUID]model.CodeTemplateModel
	enrollments map[uuid.UUID]model.EnrollmentModel
	attempts    map[uuid.UUID]model.ExamAttemptModel
	submissions map[uuid.UUID]model.SubmissionModel
}

func NewMemoryRepository() Repository {
	return &memoryRepository{
		exams:       map[uuid.UUID]model.ExamModel{},
		questions:   map[uuid.UUID]model.QuestionModel{},
		testCases:   map[uuid.UUID]model.TestCaseModel{},
		templates:   map[uuid.UUID]model.CodeTemplateModel{},
		enrollments: map[uuid.UUID]model.EnrollmentModel{},
		attempts:    map[uuid.UUID]model.ExamAttemptModel{},
		submissions: map[uuid.UUID]model.SubmissionModel{},
	}
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func now() time.Time { return time.Now().UTC() }

/* =======================
   Exams
======================= */

func (r *memoryRepository) CreateExam(_ context.Context, e *model.ExamModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ensureID(&e.ID)
	e.CreatedAt, e.UpdatedAt = now(), now()
	r.exams[e.ID] = *e
	return nil
}

func (r *memoryRepository) FindExam(_ context.Context, id uuid.UUID) (*model.ExamModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.exams[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &e, nil
}

func (r *memoryRepository) FindExams(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.ExamModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[uuid.UUID]*model.ExamModel, len(ids))
	for _, id := range ids {
		if e, ok := r.exams[id]; ok {
			cp := e
			out[id] = &cp
		}
	}
	return out, nil
}

func (r *memoryRepository) ListExams(_ context.Context, f ExamFilter) ([]model.ExamModel, int64, error) {
	r.mu.RLock()
	enrolled := map[uuid.UUID]bool{}
	if f.EnrolledUser != nil {
		for _, en := range r.enrollments {
			if en.UserID == *f.EnrolledUser {
				enrolled[en.ExamID] = true
			}
		}
	}
	q := strings.ToLower(strings.TrimSpace(f.Q))
	var rows []model.ExamModel
	for _, e := range r.exams {
		if f.CreatedBy != nil && e.CreatedBy != *f.CreatedBy {
			continue
		}
		if f.EnrolledUser != nil && !enrolled[e.ID] {
			continue
		}
		if q != "" {
			desc := ""
			if e.Description != nil {
				desc = *e.Description
			}
			if !strings.Contains(strings.ToLower(e.Title), q) && !strings.Contains(strings.ToLower(desc), q) {
				continue
			}
		}
		rows = append(rows, e)
	}
	r.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].StartTime.After(rows[j].StartTime) })
	total := int64(len(rows))
	if f.Limit > 0 {
		if f.Offset >= len(rows) {
			return []model.ExamModel{}, total, nil
		}
		end := f.Offset + f.Limit
		if end > len(rows) {
			end = len(rows)
		}
		rows = rows[f.Offset:end]
	}
	return rows, total, nil
}

func (r *memoryRepository) UpdateExam(_ context.Context, e *model.ExamModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.exams[e.ID]; !ok {
		return database.ErrNotFound
	}
	e.UpdatedAt = now()
	r.exams[e.ID] = *e
	return nil
}

func (r *memoryRepository) DeleteExam(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.exams[id]; !ok {
		return database.ErrNotFound
	}
	for qid, q := range r.questions {
		if q.ExamID == id {
			r.deleteQuestionLocked(qid)
		}
	}
	for aid, a := range r.attempts {
		if a.ExamID == id {
			delete(r.attempts, aid)
		}
	}
	for eid, en := range r.enrollments {
		if en.ExamID == id {
			delete(r.enrollments, eid)
		}
	}
	for sid, s := range r.submissions {
		if s.ExamID == id {
			delete(r.submissions, sid)
		}
	}
	delete(r.exams, id)
	return nil
}

func (r *memoryRepository) CountExams(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.exams)), nil
}

func (r *memoryRepository) CountActiveExams(_ context.Context, at time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, e := range r.exams {
		if e.IsActive && !e.StartTime.After(at) && !e.EndTime.Before(at) {
			n++
		}
	}
	return n, nil
}

/* =======================
   Questions
======================= */

func (r *memoryRepository) CreateQuestion(_ context.Context, q *model.QuestionModel, cases []model.TestCaseModel, templates []model.CodeTemplateModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ensureID(&q.ID)
	q.CreatedAt, q.UpdatedAt = now(), now()
	r.questions[q.ID] = *q
	for i := range cases {
		ensureID(&cases[i].ID)
		cases[i].QuestionID = q.ID
		cases[i].CreatedAt = now().Add(time.Duration(i))
		r.testCases[cases[i].ID] = cases[i]
	}
	for i := range templates {
		ensureID(&templates[i].ID)
		templates[i].QuestionID = q.ID
		templates[i].CreatedAt = now()
		r.templates[templates[i].ID] = templates[i]
	}
	return nil
}

func (r *memoryRepository) FindQuestion(_ context.Context, id uuid.UUID) (*model.QuestionModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.questions[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &q, nil
}

func (r *memoryRepository) UpdateQuestion(_ context.Context, q *model.QuestionModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[q.ID]; !ok {
		return database.ErrNotFound
	}
	q.UpdatedAt = now()
	r.questions[q.ID] = *q
	return nil
}

func (r *memoryRepository) deleteQuestionLocked(id uuid.UUID) {
	for k, tc := range r.testCases {
		if tc.QuestionID == id {
			delete(r.testCases, k)
		}
	}
	for k, t := range r.templates {
		if t.QuestionID == id {
			delete(r.templates, k)
		}
	}
	for k, s := range r.submissions {
		if s.QuestionID == id {
			delete(r.submissions, k)
		}
	}
	delete(r.questions, id)
}

func (r *memoryRepository) DeleteQuestion(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[id]; !ok {
		return database.ErrNotFound
	}
	r.deleteQuestionLocked(id)
	return nil
}

func (r *memoryRepository) ListQuestions(_ context.Context, examID uuid.UUID) ([]model.QuestionModel, error) {
	r.mu.RLock()
	var rows []model.QuestionModel
	for _, q := range r.questions {
		if q.ExamID == examID {
			rows = append(rows, q)
		}
	}
	r.mu.RUnlock()
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].OrderIndex != rows[j].OrderIndex {
			return rows[i].OrderIndex < rows[j].OrderIndex
		}
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
	return rows, nil
}

func (r *memoryRepository) ListTestCases(_ context.Context, questionIDs []uuid.UUID) (map[uuid.UUID][]model.TestCaseModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	want := make(map[uuid.UUID]bool, len(questionIDs))
	for _, id := range questionIDs {
		want[id] = true
	}
	out := make(map[uuid.UUID][]model.TestCaseModel, len(questionIDs))
	for _, tc := range r.testCases {
		if want[tc.QuestionID] {
			out[tc.QuestionID] = append(out[tc.QuestionID], tc)
		}
	}
	for k := range out {
		cases := out[k]
		sort.Slice(cases, func(i, j int) bool { return cases[i].CreatedAt.Before(cases[j].CreatedAt) })
	}
	return out, nil
}

func (r *memoryRepository) ListTemplates(_ context.Context, questionID uuid.UUID) ([]model.CodeTemplateModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := []model.CodeTemplateModel{}
	for _, t := range r.templates {
		if t.QuestionID == questionID {
			rows = append(rows, t)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].LanguageID < rows[j].LanguageID })
	return rows, nil
}

/* =======================
   Enrollments
======================= */

func (r *memoryRepository) CreateEnrollment(_ context.Context, en *model.EnrollmentModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.enrollments {
		if x.ExamID == en.ExamID && x.UserID == en.UserID {
			return database.ErrDuplicate
		}
	}
	ensureID(&en.ID)
	if en.EnrolledAt.IsZero() {
		en.EnrolledAt = now()
	}
	r.enrollments[en.ID] = *en
	return nil
}

func (r *memoryRepository) FindEnrollment(_ context.Context, examID, userID uuid.UUID) (*model.EnrollmentModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, en := range r.enrollments {
		if en.ExamID == examID && en.UserID == userID {
			cp := en
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (r *memoryRepository) filterEnrollments(keep func(model.EnrollmentModel) bool) []model.EnrollmentModel {
	r.mu.RLock()
	rows := []model.EnrollmentModel{}
	for _, en := range r.enrollments {
		if keep(en) {
			rows = append(rows, en)
		}
	}
	r.mu.RUnlock()
	sort.Slice(rows, func(i, j int) bool { return rows[i].EnrolledAt.After(rows[j].EnrolledAt) })
	return rows
}

func (r *memoryRepository) ListEnrollmentsByUser(_ context.Context, userID uuid.UUID) ([]model.EnrollmentModel, error) {
	return r.filterEnrollments(func(en model.EnrollmentModel) bool { return en.UserID == userID }), nil
}

func (r *memoryRepository) ListEnrollmentsByExams(_ context.Context, examIDs []uuid.UUID) ([]model.EnrollmentModel, error) {
	want := make(map[uuid.UUID]bool, len(examIDs))
	for _, id := range examIDs {
		want[id] = true
	}
	return r.filterEnrollments(func(en model.EnrollmentModel) bool { return want[en.ExamID] }), nil
}

/* =======================
   Attempts
======================= */

func (r *memoryRepository) CreateAttempt(_ context.Context, a *model.ExamAttemptModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.attempts {
		if x.ExamID == a.ExamID && x.UserID == a.UserID && x.AttemptNumber == a.AttemptNumber {
			return database.ErrDuplicate
		}
	}
	ensureID(&a.ID)
	r.attempts[a.ID] = *a
	return nil
}

func (r *memoryRepository) FindAttempt(_ context.Context, id uuid.UUID) (*model.ExamAttemptModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.attempts[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &a, nil
}

func (r *memoryRepository) ListAttempts(_ context.Context, f AttemptFilter) ([]model.ExamAttemptModel, error) {
	var exams map[uuid.UUID]bool
	if f.ExamIDs != nil {
		exams = make(map[uuid.UUID]bool, len(f.ExamIDs))
		for _, id := range f.ExamIDs {
			exams[id] = true
		}
	}
	r.mu.RLock()
	rows := []model.ExamAttemptModel{}
	for _, a := range r.attempts {
		if exams != nil && !exams[a.ExamID] {
			continue
		}
		if f.UserID != nil && a.UserID != *f.UserID {
			continue
		}
		if len(f.Statuses) > 0 && !hasStatus(f.Statuses, a.Status) {
			continue
		}
		rows = append(rows, a)
	}
	r.mu.RUnlock()
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].StartedAt.Equal(rows[j].StartedAt) {
			return rows[i].StartedAt.After(rows[j].StartedAt)
		}
		return rows[i].AttemptNumber > rows[j].AttemptNumber
	})
	return rows, nil
}

func hasStatus(list []model.AttemptStatus, s model.AttemptStatus) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func (r *memoryRepository) CompleteAttempt(_ context.Context, id uuid.UUID, score float64, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	if !ok || a.Status != model.AttemptInProgress {
		return false, nil
	}
	a.Status = model.AttemptCompleted
	a.SubmittedAt = &at
	a.Score = &score
	a.TimeRemaining = 0
	r.attempts[id] = a
	return true, nil
}

func (r *memoryRepository) SetAttemptStatus(_ context.Context, id uuid.UUID, status model.AttemptStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	if !ok {
		return database.ErrNotFound
	}
	a.Status = status
	r.attempts[id] = a
	return nil
}

func (r *memoryRepository) UpdateAttemptScore(_ context.Context, id uuid.UUID, score float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	if !ok {
		return database.ErrNotFound
	}
	a.Score = &score
	r.attempts[id] = a
	return nil
}

func (r *memoryRepository) CountCompletedAttempts(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, a := range r.attempts {
		if a.Status == model.AttemptCompleted {
			n++
		}
	}
	return n, nil
}

/* =======================
   Submissions
======================= */

func (r *memoryRepository) UpsertSubmission(_ context.Context, s *model.SubmissionModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, x := range r.submissions {
		if x.ExamAttemptID == s.ExamAttemptID && x.QuestionID == s.QuestionID {
			s.ID = id
			s.CreatedAt = x.CreatedAt
			s.Feedback, s.GradedBy, s.GradedAt = x.Feedback, x.GradedBy, x.GradedAt
			s.UpdatedAt = now()
			r.submissions[id] = *s
			return nil
		}
	}
	ensureID(&s.ID)
	s.CreatedAt, s.UpdatedAt = now(), now()
	r.submissions[s.ID] = *s
	return nil
}

func (r *memoryRepository) FindSubmission(_ context.Context, id uuid.UUID) (*model.SubmissionModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.submissions[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &s, nil
}

func (r *memoryRepository) filterSubmissions(keep func(model.SubmissionModel) bool) []model.SubmissionModel {
	r.mu.RLock()
	rows := []model.SubmissionModel{}
	for _, s := range r.submissions {
		if keep(s) {
			rows = append(rows, s)
		}
	}
	r.mu.RUnlock()
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	return rows
}

func (r *memoryRepository) ListSubmissionsByAttempt(_ context.Context, attemptID uuid.UUID) ([]model.SubmissionModel, error) {
	return r.filterSubmissions(func(s model.SubmissionModel) bool { return s.ExamAttemptID == attemptID }), nil
}

func (r *memoryRepository) ListSubmissionsByExam(_ context.Context, examID uuid.UUID) ([]model.SubmissionModel, error) {
	return r.filterSubmissions(func(s model.SubmissionModel) bool { return s.ExamID == examID }), nil
}

func (r *memoryRepository) SumPoints(_ context.Context, attemptID uuid.UUID) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total float64
	for _, s := range r.submissions {
		if s.ExamAttemptID == attemptID {
			total += s.PointsEarned
		}
	}
	return total, nil
}

func (r *memoryRepository) GradeSubmission(_ context.Context, id uuid.UUID, g GradeUpdate) (*model.SubmissionModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	gradedBy, gradedAt := g.GradedBy, g.GradedAt
	s.PointsEarned = g.PointsEarned
	s.Feedback = g.Feedback
	s.GradedBy = &gradedBy
	s.GradedAt = &gradedAt
	s.UpdatedAt = now()
	r.submissions[id] = s
	return &s, nil
}
