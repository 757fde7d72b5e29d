package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proctorx_backend/internals/clients/judge0"
	"proctorx_backend/internals/constants"
	"proctorx_backend/internals/features/exams/dto"
	"proctorx_backend/internals/features/exams/model"
	"proctorx_backend/internals/features/exams/repository"
	notif "proctorx_backend/internals/features/notifications/service"
	profileModel "proctorx_backend/internals/features/users/user_profiles/model"
	profileRepo "proctorx_backend/internals/features/users/user_profiles/repository"
	helperAuth "proctorx_backend/internals/helpers/auth"
	"proctorx_backend/internals/helpers/dbtime"
)

/* =========================
   fakes
========================= */

// echoRunner answers with outputs[stdin]; failOn makes a given stdin error out.
type echoRunner struct {
	outputs map[string]string
	failOn  map[string]bool
	failAll bool
	calls   int
}

func (r *echoRunner) Execute(_ context.Context, req judge0.Request) (*judge0.Result, error) {
	r.calls++
	if r.failAll || r.failOn[req.Stdin] {
		return nil, errors.New("judge down")
	}
	return &judge0.Result{
		Stdout: r.outputs[req.Stdin],
		Status: &judge0.Status{ID: 3, Description: "Accepted"},
		Time:   "0.01",
	}, nil
}

type fakeSessions struct {
	mu        sync.Mutex
	opened    map[uuid.UUID]model.SessionInfo
	closed    map[uuid.UUID]bool
	discarded map[uuid.UUID][]uuid.UUID
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		opened:    map[uuid.UUID]model.SessionInfo{},
		closed:    map[uuid.UUID]bool{},
		discarded: map[uuid.UUID][]uuid.UUID{},
	}
}

func (f *fakeSessions) OpenSession(_ context.Context, a *model.ExamAttemptModel, info model.SessionInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened[a.ID] = info
	return nil
}

func (f *fakeSessions) CloseSession(_ context.Context, id uuid.UUID, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed[id] = true
	return nil
}

func (f *fakeSessions) DiscardExam(_ context.Context, examID uuid.UUID, attemptIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discarded[examID] = attemptIDs
	return nil
}

type fixture struct {
	svc        *Service
	repo       repository.Repository
	runner     *echoRunner
	sessions   *fakeSessions
	notes      *notif.Recorder
	instructor helperAuth.Actor
	student    helperAuth.Actor
	admin      helperAuth.Actor
	exam       *model.ExamModel
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	restore := dbtime.SetClock(func() time.Time { return now })
	t.Cleanup(restore)

	profiles := profileRepo.NewMemoryRepository()
	f := &fixture{
		repo:       repository.NewMemoryRepository(),
		runner:     &echoRunner{outputs: map[string]string{}, failOn: map[string]bool{}},
		sessions:   newFakeSessions(),
		notes:      &notif.Recorder{},
		instructor: helperAuth.Actor{ID: uuid.New(), Role: constants.RoleInstructor},
		student:    helperAuth.Actor{ID: uuid.New(), Role: constants.RoleStudent},
		admin:      helperAuth.Actor{ID: uuid.New(), Role: constants.RoleAdmin},
		now:        now,
	}
	for _, a := range []helperAuth.Actor{f.instructor, f.student, f.admin} {
		require.NoError(t, profiles.Create(ctx, &profileModel.UserProfileModel{
			ID: a.ID, Email: a.Role + "@proctorx.test", FullName: "User " + a.Role, Role: a.Role,
		}))
	}
	f.svc = New(f.repo, profiles, f.runner, f.sessions, f.notes)

	exam, err := f.svc.CreateExam(ctx, f.instructor, dto.CreateExamRequest{
		Title:           "Go Fundamentals",
		StartTime:       now.Add(-time.Hour).Format(time.RFC3339),
		EndTime:         now.Add(2 * time.Hour).Format(time.RFC3339),
		DurationMinutes: 60,
		MaxAttempts:     intPtr(2),
		PassingScore:    floatPtr(2),
	})
	require.NoError(t, err)
	f.exam = exam
	return f
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func stringPtr(v string) *string  { return &v }

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var fe *fiber.Error
	require.True(t, errors.As(err, &fe), "expected *fiber.Error, got %v", err)
	return fe.Code
}

func (f *fixture) mcq(t *testing.T, points float64) *dto.QuestionView {
	t.Helper()
	q, err := f.svc.CreateQuestion(context.Background(), f.instructor, dto.CreateQuestionRequest{
		ExamID:        f.exam.ID,
		Type:          "mcq",
		QuestionText:  "Which keyword starts a goroutine?",
		Options:       []string{"go", "async", "spawn"},
		CorrectAnswer: stringPtr("go"),
		Points:        &points,
	})
	require.NoError(t, err)
	return q
}

func (f *fixture) code(t *testing.T, points float64, cases int) *dto.QuestionView {
	t.Helper()
	var tcs []dto.TestCaseInput
	for i := 0; i < cases; i++ {
		in := string(rune('a' + i))
		tcs = append(tcs, dto.TestCaseInput{Input: in, ExpectedOutput: in + "!", IsSample: i == 0})
	}
	q, err := f.svc.CreateQuestion(context.Background(), f.instructor, dto.CreateQuestionRequest{
		ExamID:       f.exam.ID,
		Type:         "code",
		QuestionText: "Echo with a bang",
		Points:       &points,
		TestCases:    tcs,
		CodeTemplate: stringPtr("package main"),
		LanguageID:   intPtr(60),
	})
	require.NoError(t, err)
	return q
}

func (f *fixture) start(t *testing.T) *model.ExamAttemptModel {
	t.Helper()
	ctx := context.Background()
	if _, err := f.repo.FindEnrollment(ctx, f.exam.ID, f.student.ID); err != nil {
		_, err := f.svc.Enroll(ctx, f.student, f.exam.ID)
		require.NoError(t, err)
	}
	res, err := f.svc.StartAttempt(ctx, f.student, dto.StartAttemptRequest{ExamID: f.exam.ID}, "10.0.0.1", "test-agent")
	require.NoError(t, err)
	return res.Attempt
}

/* =========================
   grading
========================= */

func TestGradeMCQ(t *testing.T) {
	assert.True(t, GradeMCQ("  Go ", stringPtr("go")))
	assert.True(t, GradeMCQ("CAFÉ", stringPtr("café")))
	assert.False(t, GradeMCQ("goroutine", stringPtr("go")))
	assert.False(t, GradeMCQ("go", nil))
}

func TestGradeCodeThreshold(t *testing.T) {
	cases := []model.TestCaseModel{
		{Input: "1", ExpectedOutput: "one"},
		{Input: "2", ExpectedOutput: "two"},
		{Input: "3", ExpectedOutput: "three"},
		{Input: "4", ExpectedOutput: "four"},
		{Input: "5", ExpectedOutput: "five"},
	}
	runner := &echoRunner{outputs: map[string]string{"1": "one\n", "2": " two", "3": "three", "4": "four"}}

	g := GradeCode(context.Background(), runner, "src", 71, cases, 10)
	assert.Equal(t, 4, g.Passed)
	assert.Equal(t, 5, g.Total)
	assert.InDelta(t, 8.0, g.Points, 1e-9)
	assert.True(t, g.IsCorrect)
	assert.Equal(t, "Accepted", g.Status)
	assert.Equal(t, 6, runner.calls)

	runner.outputs["4"] = "nope"
	g = GradeCode(context.Background(), runner, "src", 71, cases, 10)
	assert.InDelta(t, 6.0, g.Points, 1e-9)
	assert.False(t, g.IsCorrect)
}

func TestGradeCodeFailures(t *testing.T) {
	cases := []model.TestCaseModel{{Input: "x", ExpectedOutput: "x"}, {Input: "y", ExpectedOutput: "y"}}

	g := GradeCode(context.Background(), &echoRunner{failAll: true}, "src", 71, cases, 4)
	assert.True(t, g.RunFailed)
	assert.Equal(t, "Execution failed", g.Stderr)
	assert.Equal(t, "Error", g.Status)
	assert.Zero(t, g.Points)

	g = GradeCode(context.Background(), &echoRunner{
		outputs: map[string]string{"x": "x", "y": "y"},
		failOn:  map[string]bool{"y": true},
	}, "src", 71, cases, 4)
	assert.Equal(t, 1, g.Passed)
	assert.InDelta(t, 2.0, g.Points, 1e-9)
	assert.False(t, g.IsCorrect)

	g = GradeCode(context.Background(), &echoRunner{outputs: map[string]string{}}, "src", 71, nil, 4)
	assert.Zero(t, g.Points)
	assert.False(t, g.IsCorrect)
}

// slowRunner echoes stdin with a bang after delay, giving up when ctx ends.
type slowRunner struct{ delay time.Duration }

func (r slowRunner) Execute(ctx context.Context, req judge0.Request) (*judge0.Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(r.delay):
	}
	return &judge0.Result{Stdout: req.Stdin + "!", Status: &judge0.Status{ID: 3, Description: "Accepted"}}, nil
}

// deadlineRepo fails writes on a finished context, as the gorm repository does.
type deadlineRepo struct{ repository.Repository }

func (r deadlineRepo) UpsertSubmission(ctx context.Context, sub *model.SubmissionModel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.Repository.UpsertSubmission(ctx, sub)
}

func TestSubmitCodeOutlivesRequestDeadline(t *testing.T) {
	f := newFixture(t)
	code := f.code(t, 5, 6)
	a := f.start(t)
	f.svc.Runner = slowRunner{delay: 20 * time.Millisecond}
	f.svc.Repo = deadlineRepo{f.repo}
	f.svc.RunBudget = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	res, err := f.svc.SubmitAnswer(ctx, f.student, dto.SubmitAnswerRequest{
		ExamAttemptID: a.ID, QuestionID: code.ID, Code: stringPtr("print"), LanguageID: intPtr(60),
	})
	require.NoError(t, err)
	require.NotNil(t, res.TestsPassed)
	assert.Equal(t, 6, *res.TestsPassed)
	assert.True(t, *res.IsCorrect)
	assert.InDelta(t, 5.0, res.PointsEarned, 1e-9)

	subs, err := f.repo.ListSubmissionsByAttempt(context.Background(), a.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.InDelta(t, 5.0, subs[0].PointsEarned, 1e-9)
}

func TestSubmitCodeStopsAtRunBudget(t *testing.T) {
	f := newFixture(t)
	code := f.code(t, 5, 3)
	a := f.start(t)
	f.svc.Runner = slowRunner{delay: time.Second}
	f.svc.RunBudget = 5 * time.Millisecond

	res, err := f.svc.SubmitAnswer(context.Background(), f.student, dto.SubmitAnswerRequest{
		ExamAttemptID: a.ID, QuestionID: code.ID, Code: stringPtr("print"), LanguageID: intPtr(60),
	})
	require.NoError(t, err)
	assert.Nil(t, res.TestsPassed)
	assert.Equal(t, "Error", *res.Status)
	assert.Zero(t, res.PointsEarned)
}

func TestLetterGrade(t *testing.T) {
	assert.Equal(t, "A", LetterGrade(90))
	assert.Equal(t, "B", LetterGrade(89.9))
	assert.Equal(t, "C", LetterGrade(70))
	assert.Equal(t, "D", LetterGrade(60))
	assert.Equal(t, "F", LetterGrade(59.99))
}

func TestStatistics(t *testing.T) {
	st := Statistics([]float64{2, 4, 6}, 4)
	assert.Equal(t, 3, st.TotalAttempts)
	assert.InDelta(t, 4.0, st.AverageScore, 1e-9)
	assert.Equal(t, 6.0, st.HighestScore)
	assert.Equal(t, 2.0, st.LowestScore)
	assert.InDelta(t, 66.666, st.PassRate, 0.01)

	assert.Zero(t, Statistics([]float64{1, 2}, 0).PassRate)
	assert.Zero(t, Statistics(nil, 5).AverageScore)
}

/* =========================
   exams + enrollments
========================= */

func TestCreateExamValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateExam(context.Background(), f.instructor, dto.CreateExamRequest{
		Title: "bad", StartTime: f.now.Format(time.RFC3339), EndTime: f.now.Add(-time.Minute).Format(time.RFC3339), DurationMinutes: 10,
	})
	assert.Equal(t, fiber.StatusBadRequest, statusOf(t, err))

	_, err = f.svc.CreateExam(context.Background(), f.student, dto.CreateExamRequest{Title: "x"})
	assert.Equal(t, fiber.StatusForbidden, statusOf(t, err))

	assert.Equal(t, 2, f.exam.MaxAttempts)
	assert.True(t, f.exam.IsActive)
}

func TestEnrollTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Enroll(ctx, f.student, f.exam.ID)
	require.NoError(t, err)

	_, err = f.svc.Enroll(ctx, f.student, f.exam.ID)
	assert.Equal(t, fiber.StatusBadRequest, statusOf(t, err))

	_, err = f.svc.Enroll(ctx, f.student, uuid.New())
	assert.Equal(t, fiber.StatusNotFound, statusOf(t, err))

	mine, err := f.svc.MyEnrollments(ctx, f.student)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Go Fundamentals", mine[0].Exam.Title)
}

func TestListExamsByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rows, total, err := f.svc.ListExams(ctx, f.student, "", 0, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)

	_, err = f.svc.Enroll(ctx, f.student, f.exam.ID)
	require.NoError(t, err)
	_, total, err = f.svc.ListExams(ctx, f.student, "", 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	other := helperAuth.Actor{ID: uuid.New(), Role: constants.RoleInstructor}
	_, total, _ = f.svc.ListExams(ctx, other, "", 0, 0)
	assert.Zero(t, total)
	_, total, _ = f.svc.ListExams(ctx, f.admin, "fundamentals", 0, 0)
	assert.EqualValues(t, 1, total)
}

func TestExamDetailsAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mcq(t, 1)

	_, err := f.svc.GetExamDetails(ctx, f.student, f.exam.ID)
	assert.Equal(t, fiber.StatusNotFound, statusOf(t, err))

	_, err = f.svc.Enroll(ctx, f.student, f.exam.ID)
	require.NoError(t, err)
	d, err := f.svc.GetExamDetails(ctx, f.student, f.exam.ID)
	require.NoError(t, err)
	assert.True(t, d.CanAttempt)
	require.Len(t, d.Questions, 1)
	assert.Nil(t, d.Questions[0].CorrectAnswer)

	d, err = f.svc.GetExamDetails(ctx, f.instructor, f.exam.ID)
	require.NoError(t, err)
	require.NotNil(t, d.Questions[0].CorrectAnswer)
}

func TestStudentsNeverSeeAnswerKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mcq(t, 1)
	code := f.code(t, 3, 3)
	_, err := f.svc.Enroll(ctx, f.student, f.exam.ID)
	require.NoError(t, err)

	qs, err := f.svc.ListExamQuestions(ctx, f.student, f.exam.ID)
	require.NoError(t, err)
	for _, q := range qs {
		assert.Nil(t, q.CorrectAnswer)
		for _, tc := range q.TestCases {
			assert.True(t, tc.IsSample)
		}
	}

	a := f.start(t)
	sheet, err := f.svc.ListAttemptQuestions(ctx, f.student, f.exam.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, sheet, 2)
	for _, q := range sheet {
		assert.Nil(t, q.CorrectAnswer)
		for _, tc := range q.TestCases {
			assert.Nil(t, tc.ExpectedOutput)
		}
		if q.ID == code.ID {
			assert.Len(t, q.TestCases, 3)
		}
	}

	_, err = f.svc.ListAttemptQuestions(ctx, f.admin, f.exam.ID, a.ID)
	assert.Equal(t, fiber.StatusNotFound, statusOf(t, err))
}

/* =========================
   attempts
========================= */

func TestStartAttemptRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartAttempt(ctx, f.student, dto.StartAttemptRequest{ExamID: f.exam.ID}, "", "")
	assert.Equal(t, fiber.StatusNotFound, statusOf(t, err))

	a := f.start(t)
	assert.Equal(t, 1, a.AttemptNumber)
	assert.Equal(t, 3600, a.TimeRemaining)
	require.NotNil(t, a.IPAddress)
	assert.Equal(t, "10.0.0.1", *a.IPAddress)
	assert.Equal(t, "unknown", f.sessions.opened[a.ID].ScreenResolution)
	assert.Equal(t, notif.KindStarted, f.notes.Events()[0].Kind)

	_, err = f.svc.StartAttempt(ctx, f.student, dto.StartAttemptRequest{ExamID: f.exam.ID}, "", "")
	assert.Equal(t, fiber.StatusForbidden, statusOf(t, err))

	el, err := f.svc.CheckEligibility(ctx, f.student.ID, f.exam.ID)
	require.NoError(t, err)
	assert.False(t, el.CanAttempt)
	assert.Equal(t, reasonActiveAttempt, el.Reason)

	_, err = f.svc.SubmitExam(ctx, f.student, a.ID)
	require.NoError(t, err)
	second := f.start(t)
	assert.Equal(t, 2, second.AttemptNumber)
	_, err = f.svc.SubmitExam(ctx, f.student, second.ID)
	require.NoError(t, err)

	_, err = f.svc.StartAttempt(ctx, f.student, dto.StartAttemptRequest{ExamID: f.exam.ID}, "", "")
	require.Error(t, err)
	assert.Equal(t, reasonMaxAttempts, err.(*fiber.Error).Message)

	d, err := f.svc.GetExamDetails(ctx, f.student, f.exam.ID)
	require.NoError(t, err)
	assert.False(t, d.CanAttempt)
	assert.Equal(t, 2, d.UserAttempts[0].AttemptNumber)
}

func TestStartAttemptOutsideWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Enroll(ctx, f.student, f.exam.ID)
	require.NoError(t, err)

	restore := dbtime.SetClock(func() time.Time { return f.now.Add(-2 * time.Hour) })
	_, err = f.svc.StartAttempt(ctx, f.student, dto.StartAttemptRequest{ExamID: f.exam.ID}, "", "")
	assert.Equal(t, reasonNotStarted, err.(*fiber.Error).Message)
	restore()

	restore = dbtime.SetClock(func() time.Time { return f.now.Add(3 * time.Hour) })
	defer restore()
	_, err = f.svc.StartAttempt(ctx, f.student, dto.StartAttemptRequest{ExamID: f.exam.ID}, "", "")
	assert.Equal(t, reasonEnded, err.(*fiber.Error).Message)
}

func TestGetAttemptTimeRemaining(t *testing.T) {
	f := newFixture(t)
	a := f.start(t)

	restore := dbtime.SetClock(func() time.Time { return f.now.Add(10*time.Minute + 500*time.Millisecond) })
	defer restore()
	got, err := f.svc.GetAttempt(context.Background(), f.student, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 3000-1, got.TimeRemaining)

	_, err = f.svc.GetAttempt(context.Background(), f.instructor, a.ID)
	assert.Equal(t, fiber.StatusNotFound, statusOf(t, err))
}

/* =========================
   submissions
========================= */

func TestSubmitAndFinishExam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mcq := f.mcq(t, 2)
	code := f.code(t, 5, 5)
	a := f.start(t)

	f.runner.outputs = map[string]string{"a": "a!", "b": "b!", "c": "c!", "d": "d!", "e": "wrong"}

	res, err := f.svc.SubmitAnswer(ctx, f.student, dto.SubmitAnswerRequest{
		ExamAttemptID: a.ID, QuestionID: mcq.ID, Answer: stringPtr(" GO "),
	})
	require.NoError(t, err)
	assert.True(t, *res.IsCorrect)
	assert.Equal(t, 2.0, res.PointsEarned)

	// resubmitting replaces the earlier answer
	res, err = f.svc.SubmitAnswer(ctx, f.student, dto.SubmitAnswerRequest{
		ExamAttemptID: a.ID, QuestionID: mcq.ID, Answer: stringPtr("spawn"),
	})
	require.NoError(t, err)
	assert.False(t, *res.IsCorrect)
	res, err = f.svc.SubmitAnswer(ctx, f.student, dto.SubmitAnswerRequest{
		ExamAttemptID: a.ID, QuestionID: mcq.ID, Answer: stringPtr("go"),
	})
	require.NoError(t, err)

	res, err = f.svc.SubmitAnswer(ctx, f.student, dto.SubmitAnswerRequest{
		ExamAttemptID: a.ID, QuestionID: code.ID, Code: stringPtr("print"), LanguageID: intPtr(71),
	})
	require.NoError(t, err)
	assert.True(t, *res.IsCorrect)
	assert.InDelta(t, 4.0, res.PointsEarned, 1e-9)
	assert.Equal(t, 4, *res.TestsPassed)

	subs, err := f.svc.ListAttemptSubmissions(ctx, f.student, a.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 2)

	score, err := f.svc.SubmitExam(ctx, f.student, a.ID)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, score, 1e-9)
	assert.True(t, f.sessions.closed[a.ID])

	events := f.notes.Events()
	last := events[len(events)-1]
	assert.Equal(t, notif.KindCompleted, last.Kind)
	assert.Equal(t, "student@proctorx.test", last.Email)

	_, err = f.svc.SubmitAnswer(ctx, f.student, dto.SubmitAnswerRequest{
		ExamAttemptID: a.ID, QuestionID: mcq.ID, Answer: stringPtr("go"),
	})
	assert.Equal(t, fiber.StatusNotFound, statusOf(t, err))

	_, err = f.svc.SubmitExam(ctx, f.student, a.ID)
	assert.Equal(t, fiber.StatusNotFound, statusOf(t, err))
}

func TestSubmitAnswerGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mcq := f.mcq(t, 1)
	a := f.start(t)

	_, err := f.svc.SubmitAnswer(ctx, f.instructor, dto.SubmitAnswerRequest{ExamAttemptID: a.ID, QuestionID: mcq.ID, Answer: stringPtr("go")})
	assert.Equal(t, fiber.StatusNotFound, statusOf(t, err))

	other, err := f.svc.CreateExam(ctx, f.instructor, dto.CreateExamRequest{
		Title: "Other", StartTime: f.now.Format(time.RFC3339), EndTime: f.now.Add(time.Hour).Format(time.RFC3339), DurationMinutes: 5,
	})
	require.NoError(t, err)
	foreign, err := f.svc.CreateQuestion(ctx, f.instructor, dto.CreateQuestionRequest{
		ExamID: other.ID, Type: "essay", QuestionText: "Explain channels",
	})
	require.NoError(t, err)
	_, err = f.svc.SubmitAnswer(ctx, f.student, dto.SubmitAnswerRequest{ExamAttemptID: a.ID, QuestionID: foreign.ID, Answer: stringPtr("x")})
	assert.Equal(t, fiber.StatusNotFound, statusOf(t, err))

	// under a second left still accepts answers
	restore := dbtime.SetClock(func() time.Time { return f.now.Add(time.Hour - 900*time.Millisecond) })
	_, err = f.svc.SubmitAnswer(ctx, f.student, dto.SubmitAnswerRequest{ExamAttemptID: a.ID, QuestionID: mcq.ID, Answer: stringPtr("go")})
	require.NoError(t, err)
	restore()

	restore = dbtime.SetClock(func() time.Time { return f.now.Add(61 * time.Minute) })
	defer restore()
	_, err = f.svc.SubmitAnswer(ctx, f.student, dto.SubmitAnswerRequest{ExamAttemptID: a.ID, QuestionID: mcq.ID, Answer: stringPtr("go")})
	assert.Equal(t, fiber.StatusForbidden, statusOf(t, err))
}

func TestEssayIsNotAutoGraded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	essay, err := f.svc.CreateQuestion(ctx, f.instructor, dto.CreateQuestionRequest{
		ExamID: f.exam.ID, Type: "essay", QuestionText: "Why interfaces?", Points: floatPtr(5),
	})
	require.NoError(t, err)
	a := f.start(t)

	res, err := f.svc.SubmitAnswer(ctx, f.student, dto.SubmitAnswerRequest{ExamAttemptID: a.ID, QuestionID: essay.ID, Answer: stringPtr("because")})
	require.NoError(t, err)
	assert.Nil(t, res.IsCorrect)
	assert.Zero(t, res.PointsEarned)

	subs, err := f.repo.ListSubmissionsByAttempt(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.False(t, subs[0].AutoGraded)
}

/* =========================
   grades
========================= */

func TestGradeSubmissionRecomputesScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mcq := f.mcq(t, 2)
	essay, err := f.svc.CreateQuestion(ctx, f.instructor, dto.CreateQuestionRequest{
		ExamID: f.exam.ID, Type: "essay", QuestionText: "Explain select", Points: floatPtr(8),
	})
	require.NoError(t, err)
	a := f.start(t)

	_, err = f.svc.SubmitAnswer(ctx, f.student, dto.SubmitAnswerRequest{ExamAttemptID: a.ID, QuestionID: mcq.ID, Answer: stringPtr("go")})
	require.NoError(t, err)
	_, err = f.svc.SubmitAnswer(ctx, f.student, dto.SubmitAnswerRequest{ExamAttemptID: a.ID, QuestionID: essay.ID, Answer: stringPtr("it waits")})
	require.NoError(t, err)
	score, err := f.svc.SubmitExam(ctx, f.student, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, score)

	subs, _ := f.repo.ListSubmissionsByAttempt(ctx, a.ID)
	var essaySub model.SubmissionModel
	for _, s := range subs {
		if s.QuestionID == essay.ID {
			essaySub = s
		}
	}

	_, _, err = f.svc.GradeSubmission(ctx, f.student, essaySub.ID, dto.GradeSubmissionRequest{PointsEarned: floatPtr(6)})
	assert.Equal(t, fiber.StatusForbidden, statusOf(t, err))
	_, _, err = f.svc.GradeSubmission(ctx, f.instructor, uuid.New(), dto.GradeSubmissionRequest{PointsEarned: floatPtr(6)})
	assert.Equal(t, fiber.StatusNotFound, statusOf(t, err))

	graded, total, err := f.svc.GradeSubmission(ctx, f.instructor, essaySub.ID, dto.GradeSubmissionRequest{
		PointsEarned: floatPtr(6), Feedback: stringPtr("good"),
	})
	require.NoError(t, err)
	assert.Equal(t, 8.0, total)
	require.NotNil(t, graded.GradedBy)
	assert.Equal(t, f.instructor.ID, *graded.GradedBy)

	attempt, err := f.repo.FindAttempt(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 8.0, attempt.ScoreValue())

	grades, err := f.svc.ExamGrades(ctx, f.instructor, f.exam.ID)
	require.NoError(t, err)
	require.Len(t, grades.Attempts, 1)
	assert.Equal(t, "User student", grades.Attempts[0].Student.FullName)
	assert.Equal(t, 100.0, grades.Statistics.PassRate)

	mine, err := f.svc.MyGrades(ctx, f.student)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, 10.0, mine[0].TotalPoints)
	assert.Equal(t, "B", mine[0].LetterGrade)

	data, name, err := f.svc.ExportExamGrades(ctx, f.instructor, f.exam.ID)
	require.NoError(t, err)
	assert.Equal(t, "go-fundamentals-grades.xlsx", name)
	assert.NotEmpty(t, data)
}

func TestExpireOverdueAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mcq := f.mcq(t, 3)
	a := f.start(t)
	_, err := f.svc.SubmitAnswer(ctx, f.student, dto.SubmitAnswerRequest{ExamAttemptID: a.ID, QuestionID: mcq.ID, Answer: stringPtr("go")})
	require.NoError(t, err)

	n, err := f.svc.ExpireOverdueAttempts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	restore := dbtime.SetClock(func() time.Time { return f.now.Add(time.Hour) })
	defer restore()
	n, err = f.svc.ExpireOverdueAttempts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.repo.FindAttempt(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptCompleted, got.Status)
	assert.Equal(t, 3.0, got.ScoreValue())
	assert.True(t, f.sessions.closed[a.ID])
}

func TestDeleteExamDiscardsProctoringRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mcq(t, 1)
	a := f.start(t)

	err := f.svc.DeleteExam(ctx, f.student, f.exam.ID)
	assert.Equal(t, fiber.StatusForbidden, statusOf(t, err))
	assert.Empty(t, f.sessions.discarded)

	require.NoError(t, f.svc.DeleteExam(ctx, f.instructor, f.exam.ID))
	assert.Equal(t, []uuid.UUID{a.ID}, f.sessions.discarded[f.exam.ID])

	_, err = f.repo.FindAttempt(ctx, a.ID)
	assert.Error(t, err)
	err = f.svc.DeleteExam(ctx, f.instructor, f.exam.ID)
	assert.Equal(t, fiber.StatusNotFound, statusOf(t, err))
}
