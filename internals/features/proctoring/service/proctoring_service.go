package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"proctorx_backend/internals/constants"
	database "proctorx_backend/internals/databases"
	examModel "proctorx_backend/internals/features/exams/model"
	notif "proctorx_backend/internals/features/notifications/service"
	"proctorx_backend/internals/features/proctoring/dto"
	"proctorx_backend/internals/features/proctoring/model"
	"proctorx_backend/internals/features/proctoring/realtime"
	"proctorx_backend/internals/features/proctoring/repository"
	profileRepo "proctorx_backend/internals/features/users/user_profiles/repository"
	helperAuth "proctorx_backend/internals/helpers/auth"
	"proctorx_backend/internals/helpers/dbtime"
	"proctorx_backend/internals/helpers/storage"
)

var errSessionNotFound = fiber.NewError(fiber.StatusNotFound, "Proctor session not found")

// ExamStore is the part of the exams repository proctoring needs.
type ExamStore interface {
	FindExam(ctx context.Context, id uuid.UUID) (*examModel.ExamModel, error)
	FindAttempt(ctx context.Context, id uuid.UUID) (*examModel.ExamAttemptModel, error)
	SetAttemptStatus(ctx context.Context, id uuid.UUID, status examModel.AttemptStatus) error
}

type Broadcaster interface {
	Emit(room, event string, data any)
}

type Service struct {
	Repo     repository.Repository
	Exams    ExamStore
	Profiles profileRepo.Repository
	Storage  storage.ObjectStorage
	Hub      Broadcaster
	Notifier notif.Notifier
	Images   storage.WebPOptions
}

func New(repo repository.Repository, exams ExamStore, profiles profileRepo.Repository, store storage.ObjectStorage, hub Broadcaster, n notif.Notifier) *Service {
	if n == nil {
		n = notif.LogNotifier{}
	}
	return &Service{
		Repo: repo, Exams: exams, Profiles: profiles,
		Storage: store, Hub: hub, Notifier: n,
		Images: storage.DefaultWebPOptions(),
	}
}

func toJSON(v map[string]any) datatypes.JSON {
	if len(v) == 0 {
		return nil
	}
	b, err := sonic.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func (s *Service) emit(attemptID uuid.UUID, event string, data any) {
	if s.Hub != nil {
		s.Hub.Emit(realtime.RoomForAttempt(attemptID), event, data)
	}
}

/* =========================================================
   Session lifecycle (called by the exams service)
========================================================= */

func (s *Service) OpenSession(ctx context.Context, a *examModel.ExamAttemptModel, info examModel.SessionInfo) error {
	browser := map[string]any{}
	for k, v := range info.Extra {
		browser[k] = v
	}
	if info.UserAgent != "" {
		browser["user_agent"] = info.UserAgent
	}
	res := info.ScreenResolution
	if res == "" {
		res = "unknown"
	}
	return s.Repo.CreateSession(ctx, &model.ProctorSessionModel{
		ExamAttemptID:    a.ID,
		ExamID:           a.ExamID,
		UserID:           a.UserID,
		BrowserInfo:      toJSON(browser),
		ScreenResolution: res,
		StartedAt:        a.StartedAt,
	})
}

func (s *Service) CloseSession(ctx context.Context, attemptID uuid.UUID, at time.Time) error {
	return s.Repo.EndSession(ctx, attemptID, at)
}

// DiscardExam drops the proctoring records of an exam that is being deleted.
func (s *Service) DiscardExam(ctx context.Context, examID uuid.UUID, attemptIDs []uuid.UUID) error {
	return s.Repo.DeleteExamData(ctx, examID, attemptIDs)
}

func (s *Service) session(ctx context.Context, attemptID, userID uuid.UUID) (*model.ProctorSessionModel, error) {
	sess, err := s.Repo.FindSession(ctx, attemptID, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, errSessionNotFound
		}
		return nil, err
	}
	return sess, nil
}

// storeImage decodes a data URL, re-encodes it and uploads it under folder/.
func (s *Service) storeImage(ctx context.Context, folder string, userID uuid.UUID, raw string) (string, error) {
	data, err := storage.DecodeDataURL(raw)
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "Invalid image data")
	}
	img, err := storage.PrepareSnapshot(data, s.Images)
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "Unsupported image format")
	}
	key := fmt.Sprintf("%s/%s_%d.%s", folder, userID, dbtime.Now().UnixMilli(), img.Ext)
	return s.Storage.Put(ctx, key, img.ContentType, img.Data)
}

/* =========================================================
   Violations
========================================================= */

func (s *Service) RecordViolation(ctx context.Context, actor helperAuth.Actor, req dto.ViolationRequest) (*dto.ViolationResult, error) {
	sess, err := s.session(ctx, req.ExamAttemptID, actor.ID)
	if err != nil {
		return nil, err
	}

	var snapURL *string
	if req.SnapshotBase64 != "" {
		// a broken snapshot must not lose the violation itself
		if u, err := s.storeImage(ctx, "violations", actor.ID, req.SnapshotBase64); err != nil {
			log.Printf("[WARN] violation snapshot for attempt %s not stored: %v", req.ExamAttemptID, err)
		} else {
			snapURL = &u
		}
	}

	severity := model.Severity(req.Severity)
	if severity == "" {
		severity = model.SeverityMedium
	}
	v := &model.ViolationModel{
		ProctorSessionID: sess.ID,
		ViolationType:    req.ViolationType,
		Severity:         severity,
		Details:          toJSON(req.Details),
		SnapshotURL:      snapURL,
		CreatedAt:        dbtime.Now(),
	}
	if err := s.Repo.CreateViolation(ctx, v); err != nil {
		return nil, err
	}

	count, err := s.Repo.IncrementViolations(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	s.emit(req.ExamAttemptID, realtime.EventViolationDetected, map[string]any{
		"type":             req.ViolationType,
		"severity":         severity,
		"timestamp":        v.CreatedAt.Format(time.RFC3339Nano),
		"userId":           actor.ID,
		"violations_count": count,
	})

	res := &dto.ViolationResult{Violation: v, ViolationsCount: count}
	if count >= model.SuspendThreshold {
		suspended, err := s.suspend(ctx, req.ExamAttemptID, actor.ID, count)
		if err != nil {
			return nil, err
		}
		res.Suspended = suspended
	}
	return res, nil
}

// suspend moves an in-progress attempt to suspended; later violations leave it alone.
func (s *Service) suspend(ctx context.Context, attemptID, userID uuid.UUID, count int) (bool, error) {
	a, err := s.Exams.FindAttempt(ctx, attemptID)
	if err != nil {
		return false, err
	}
	if !a.IsInProgress() {
		return a.Status == examModel.AttemptSuspended, nil
	}
	if err := s.Exams.SetAttemptStatus(ctx, attemptID, examModel.AttemptSuspended); err != nil {
		return false, err
	}
	if err := s.Repo.EndSession(ctx, attemptID, dbtime.Now()); err != nil {
		log.Printf("[WARN] ending proctor session for %s: %v", attemptID, err)
	}

	s.emit(attemptID, realtime.EventAttemptSuspended, map[string]any{
		"exam_attempt_id":  attemptID,
		"userId":           userID,
		"violations_count": count,
	})
	s.notifySuspended(ctx, a, count)
	return true, nil
}

func (s *Service) notifySuspended(ctx context.Context, a *examModel.ExamAttemptModel, count int) {
	p, err := s.Profiles.FindByID(ctx, a.UserID)
	if err != nil {
		log.Printf("[WARN] suspension notice: no profile for %s", a.UserID)
		return
	}
	title := ""
	if e, err := s.Exams.FindExam(ctx, a.ExamID); err == nil {
		title = e.Title
	}
	ev := notif.Event{Kind: notif.KindViolation, Email: p.Email, Name: p.FullName, ExamTitle: title, Violations: count}
	if err := s.Notifier.Notify(ctx, ev); err != nil {
		log.Printf("[WARN] suspension notice for %s: %v", a.UserID, err)
	}
}

/* =========================================================
   Snapshots & activity
========================================================= */

func (s *Service) SaveSnapshot(ctx context.Context, actor helperAuth.Actor, req dto.SnapshotRequest) (*model.SnapshotModel, error) {
	if req.ImageBase64 == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Image data missing")
	}
	sess, err := s.session(ctx, req.ExamAttemptID, actor.ID)
	if err != nil {
		return nil, err
	}
	url, err := s.storeImage(ctx, "snapshots", actor.ID, req.ImageBase64)
	if err != nil {
		return nil, err
	}
	snap := &model.SnapshotModel{ProctorSessionID: sess.ID, UserID: actor.ID, ImageURL: url, CreatedAt: dbtime.Now()}
	if err := s.Repo.CreateSnapshot(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Service) LogActivity(ctx context.Context, actor helperAuth.Actor, req dto.ActivityRequest, ip, userAgent string) (*model.ActivityLogModel, error) {
	a := &model.ActivityLogModel{
		UserID:        actor.ID,
		ExamAttemptID: req.ExamAttemptID,
		ActivityType:  req.ActivityType,
		Details:       toJSON(req.Details),
		CreatedAt:     dbtime.Now(),
	}
	if ip != "" {
		a.IPAddress = &ip
	}
	if userAgent != "" {
		a.UserAgent = &userAgent
	}
	if err := s.Repo.CreateActivity(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

/* =========================================================
   Review
========================================================= */

// ExamData lists every proctor session of an exam; creator or admin only.
func (s *Service) ExamData(ctx context.Context, actor helperAuth.Actor, examID uuid.UUID) ([]dto.SessionDetail, error) {
	e, err := s.Exams.FindExam(ctx, examID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	if e == nil || (e.CreatedBy != actor.ID && actor.Role != constants.RoleAdmin) {
		return nil, fiber.NewError(fiber.StatusForbidden, constants.ErrAccessDenied)
	}

	sessions, err := s.Repo.ListSessionsByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(sessions))
	attempts := make([]uuid.UUID, 0, len(sessions))
	users := make([]uuid.UUID, 0, len(sessions))
	for _, ss := range sessions {
		ids = append(ids, ss.ID)
		attempts = append(attempts, ss.ExamAttemptID)
		users = append(users, ss.UserID)
	}
	violations, err := s.Repo.ListViolations(ctx, ids)
	if err != nil {
		return nil, err
	}
	snaps, err := s.Repo.ListSnapshots(ctx, ids)
	if err != nil {
		return nil, err
	}
	activities, err := s.Repo.ListActivities(ctx, attempts)
	if err != nil {
		return nil, err
	}
	profiles, err := s.Profiles.FindByIDs(ctx, users)
	if err != nil {
		return nil, err
	}

	out := make([]dto.SessionDetail, 0, len(sessions))
	for _, ss := range sessions {
		d := dto.SessionDetail{
			ProctorSessionModel: ss,
			Attempt:             dto.AttemptBrief{UserID: ss.UserID, Profile: profiles[ss.UserID].Summary()},
			Violations:          violations[ss.ID],
			Snapshots:           snaps[ss.ID],
			Activities:          activities[ss.ExamAttemptID],
		}
		if d.Violations == nil {
			d.Violations = []model.ViolationModel{}
		}
		if d.Snapshots == nil {
			d.Snapshots = []model.SnapshotModel{}
		}
		if d.Activities == nil {
			d.Activities = []model.ActivityLogModel{}
		}
		out = append(out, d)
	}
	return out, nil
}
