package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proctorx_backend/internals/constants"
	examModel "proctorx_backend/internals/features/exams/model"
	examRepo "proctorx_backend/internals/features/exams/repository"
	notif "proctorx_backend/internals/features/notifications/service"
	"proctorx_backend/internals/features/proctoring/dto"
	"proctorx_backend/internals/features/proctoring/model"
	"proctorx_backend/internals/features/proctoring/repository"
	profileModel "proctorx_backend/internals/features/users/user_profiles/model"
	profileRepo "proctorx_backend/internals/features/users/user_profiles/repository"
	helperAuth "proctorx_backend/internals/helpers/auth"
	"proctorx_backend/internals/helpers/storage"
)

type emitted struct {
	room, event string
}

type hubRecorder struct {
	mu     sync.Mutex
	events []emitted
}

func (h *hubRecorder) Emit(room, event string, _ any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, emitted{room, event})
}

func (h *hubRecorder) count(event string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, e := range h.events {
		if e.event == event {
			n++
		}
	}
	return n
}

type fixture struct {
	svc     *Service
	exams   examRepo.Repository
	store   *storage.MemoryStorage
	hub     *hubRecorder
	notes   *notif.Recorder
	owner   helperAuth.Actor
	student helperAuth.Actor
	exam    *examModel.ExamModel
	attempt *examModel.ExamAttemptModel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		exams:   examRepo.NewMemoryRepository(),
		store:   storage.NewMemoryStorage("memory://snaps"),
		hub:     &hubRecorder{},
		notes:   &notif.Recorder{},
		owner:   helperAuth.Actor{ID: uuid.New(), Role: constants.RoleInstructor},
		student: helperAuth.Actor{ID: uuid.New(), Role: constants.RoleStudent},
	}
	profiles := profileRepo.NewMemoryRepository()
	require.NoError(t, profiles.Create(ctx, &profileModel.UserProfileModel{
		ID: f.student.ID, Email: "student@example.com", FullName: "Sam Student", Role: constants.RoleStudent,
	}))
	f.svc = New(repository.NewMemoryRepository(), f.exams, profiles, f.store, f.hub, f.notes)

	now := time.Now().UTC()
	f.exam = &examModel.ExamModel{
		Title: "Networks", StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour),
		DurationMinutes: 60, MaxAttempts: 1, IsActive: true, CreatedBy: f.owner.ID,
	}
	require.NoError(t, f.exams.CreateExam(ctx, f.exam))
	f.attempt = &examModel.ExamAttemptModel{
		ExamID: f.exam.ID, UserID: f.student.ID, AttemptNumber: 1,
		Status: examModel.AttemptInProgress, StartedAt: now, TimeRemaining: 3600,
	}
	require.NoError(t, f.exams.CreateAttempt(ctx, f.attempt))
	require.NoError(t, f.svc.OpenSession(ctx, f.attempt, examModel.SessionInfo{UserAgent: "test-agent"}))
	return f
}

func pngDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func codeOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return 0
}

func TestViolationWithoutSessionIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RecordViolation(context.Background(), f.owner, dto.ViolationRequest{
		ExamAttemptID: f.attempt.ID, ViolationType: "tab-switch",
	})
	assert.Equal(t, fiber.StatusNotFound, codeOf(err))
}

func TestFiveViolationsSuspendAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for i := 1; i <= 4; i++ {
		res, err := f.svc.RecordViolation(ctx, f.student, dto.ViolationRequest{
			ExamAttemptID: f.attempt.ID, ViolationType: "focus-lost",
		})
		require.NoError(t, err)
		assert.Equal(t, i, res.ViolationsCount)
		assert.False(t, res.Suspended)
		assert.Equal(t, model.SeverityMedium, res.Violation.Severity)
	}

	res, err := f.svc.RecordViolation(ctx, f.student, dto.ViolationRequest{
		ExamAttemptID: f.attempt.ID, ViolationType: "multiple-faces", Severity: "high",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, res.ViolationsCount)
	assert.True(t, res.Suspended)

	a, err := f.exams.FindAttempt(ctx, f.attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, examModel.AttemptSuspended, a.Status)

	assert.Equal(t, 5, f.hub.count("violation-detected"))
	assert.Equal(t, 1, f.hub.count("attempt-suspended"))

	events := f.notes.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notif.KindViolation, events[0].Kind)
	assert.Equal(t, "student@example.com", events[0].Email)

	// a sixth violation is still recorded but does not suspend again
	res, err = f.svc.RecordViolation(ctx, f.student, dto.ViolationRequest{
		ExamAttemptID: f.attempt.ID, ViolationType: "no-face",
	})
	require.NoError(t, err)
	assert.Equal(t, 6, res.ViolationsCount)
	assert.Equal(t, 1, f.hub.count("attempt-suspended"))
}

func TestViolationSnapshotIsStored(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.RecordViolation(context.Background(), f.student, dto.ViolationRequest{
		ExamAttemptID: f.attempt.ID, ViolationType: "no-face", SnapshotBase64: pngDataURL(t),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Violation.SnapshotURL)
	assert.True(t, strings.HasPrefix(*res.Violation.SnapshotURL, "memory://snaps/violations/"))

	// undecodable snapshots are dropped, not fatal
	res, err = f.svc.RecordViolation(context.Background(), f.student, dto.ViolationRequest{
		ExamAttemptID: f.attempt.ID, ViolationType: "no-face", SnapshotBase64: "data:image/png;base64,AAAA",
	})
	require.NoError(t, err)
	assert.Nil(t, res.Violation.SnapshotURL)
}

func TestSaveSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.SaveSnapshot(ctx, f.student, dto.SnapshotRequest{ExamAttemptID: f.attempt.ID})
	assert.Equal(t, fiber.StatusBadRequest, codeOf(err))

	_, err = f.svc.SaveSnapshot(ctx, f.owner, dto.SnapshotRequest{ExamAttemptID: f.attempt.ID, ImageBase64: pngDataURL(t)})
	assert.Equal(t, fiber.StatusNotFound, codeOf(err))

	snap, err := f.svc.SaveSnapshot(ctx, f.student, dto.SnapshotRequest{ExamAttemptID: f.attempt.ID, ImageBase64: pngDataURL(t)})
	require.NoError(t, err)
	assert.Contains(t, snap.ImageURL, "/snapshots/")
	assert.Len(t, f.store.Keys(), 1)
}

func TestExamDataAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.RecordViolation(ctx, f.student, dto.ViolationRequest{ExamAttemptID: f.attempt.ID, ViolationType: "tab-switch"})
	require.NoError(t, err)

	_, err = f.svc.ExamData(ctx, f.student, f.exam.ID)
	assert.Equal(t, fiber.StatusForbidden, codeOf(err))
	_, err = f.svc.ExamData(ctx, helperAuth.Actor{ID: uuid.New(), Role: constants.RoleInstructor}, f.exam.ID)
	assert.Equal(t, fiber.StatusForbidden, codeOf(err))
	_, err = f.svc.ExamData(ctx, f.owner, uuid.New())
	assert.Equal(t, fiber.StatusForbidden, codeOf(err))

	rows, err := f.svc.ExamData(ctx, f.owner, f.exam.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0].Violations, 1)
	assert.Empty(t, rows[0].Snapshots)
	assert.NotNil(t, rows[0].Activities)
	require.NotNil(t, rows[0].Attempt.Profile)
	assert.Equal(t, "Sam Student", rows[0].Attempt.Profile.FullName)

	admin := helperAuth.Actor{ID: uuid.New(), Role: constants.RoleAdmin}
	rows, err = f.svc.ExamData(ctx, admin, f.exam.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCloseSessionAndActivity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.svc.CloseSession(ctx, f.attempt.ID, time.Now().UTC()))

	rows, err := f.svc.Repo.ListSessionsByExam(ctx, f.exam.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotNil(t, rows[0].EndedAt)

	attemptID := f.attempt.ID
	row, err := f.svc.LogActivity(ctx, f.student, dto.ActivityRequest{
		ExamAttemptID: &attemptID, ActivityType: "copy", Details: map[string]any{"chars": 12},
	}, "10.0.0.1", "agent")
	require.NoError(t, err)
	assert.JSONEq(t, `{"chars":12}`, string(row.Details))

	data, err := f.svc.ExamData(ctx, f.owner, f.exam.ID)
	require.NoError(t, err)
	require.Len(t, data, 1)
	require.Len(t, data[0].Activities, 1)
	assert.Equal(t, "copy", data[0].Activities[0].ActivityType)
}

func TestDiscardExamRemovesProctoringRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	attemptID := f.attempt.ID
	_, err := f.svc.RecordViolation(ctx, f.student, dto.ViolationRequest{ExamAttemptID: attemptID, ViolationType: "tab-switch"})
	require.NoError(t, err)
	_, err = f.svc.LogActivity(ctx, f.student, dto.ActivityRequest{ExamAttemptID: &attemptID, ActivityType: "blur"}, "10.0.0.1", "agent")
	require.NoError(t, err)

	sessions, err := f.svc.Repo.ListSessionsByExam(ctx, f.exam.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	sid := sessions[0].ID

	require.NoError(t, f.svc.DiscardExam(ctx, f.exam.ID, []uuid.UUID{attemptID}))

	sessions, err = f.svc.Repo.ListSessionsByExam(ctx, f.exam.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	violations, err := f.svc.Repo.ListViolations(ctx, []uuid.UUID{sid})
	require.NoError(t, err)
	assert.Empty(t, violations[sid])
	activities, err := f.svc.Repo.ListActivities(ctx, []uuid.UUID{attemptID})
	require.NoError(t, err)
	assert.Empty(t, activities[attemptID])
}
