package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"proctorx_backend/internals/constants"
	database "proctorx_backend/internals/databases"
	"proctorx_backend/internals/features/analytics/dto"
	examModel "proctorx_backend/internals/features/exams/model"
	examRepo "proctorx_backend/internals/features/exams/repository"
	proctorRepo "proctorx_backend/internals/features/proctoring/repository"
	helperAuth "proctorx_backend/internals/helpers/auth"
)

type Service struct {
	Exams   examRepo.Repository
	Proctor proctorRepo.Repository
}

func New(exams examRepo.Repository, proctor proctorRepo.Repository) *Service {
	return &Service{Exams: exams, Proctor: proctor}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// attemptStats returns (completed, average score of completed).
func attemptStats(rows []examModel.ExamAttemptModel) (int, float64) {
	var (
		completed int
		scored    int
		sum       float64
	)
	for _, a := range rows {
		if a.Status != examModel.AttemptCompleted {
			continue
		}
		completed++
		if a.Score != nil {
			scored++
			sum += *a.Score
		}
	}
	if scored == 0 {
		return completed, 0
	}
	return completed, round2(sum / float64(scored))
}

/* ===================== Dashboard ===================== */

func (s *Service) Dashboard(ctx context.Context, actor helperAuth.Actor) (*dto.Dashboard, error) {
	if actor.IsStaff() {
		return s.staffDashboard(ctx, actor)
	}

	enrollments, err := s.Exams.ListEnrollmentsByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	userID := actor.ID
	attempts, err := s.Exams.ListAttempts(ctx, examRepo.AttemptFilter{UserID: &userID})
	if err != nil {
		return nil, err
	}
	completed, avg := attemptStats(attempts)
	return &dto.Dashboard{
		TotalEnrollments:  len(enrollments),
		TotalAttempts:     len(attempts),
		CompletedAttempts: completed,
		AverageScore:      avg,
	}, nil
}

func (s *Service) staffDashboard(ctx context.Context, actor helperAuth.Actor) (*dto.Dashboard, error) {
	creator := actor.ID
	exams, _, err := s.Exams.ListExams(ctx, examRepo.ExamFilter{CreatedBy: &creator})
	if err != nil {
		return nil, err
	}
	total := len(exams)
	out := &dto.Dashboard{TotalExams: &total}
	if total == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, 0, total)
	for _, e := range exams {
		ids = append(ids, e.ID)
	}
	enrollments, err := s.Exams.ListEnrollmentsByExams(ctx, ids)
	if err != nil {
		return nil, err
	}
	attempts, err := s.Exams.ListAttempts(ctx, examRepo.AttemptFilter{ExamIDs: ids})
	if err != nil {
		return nil, err
	}
	out.TotalEnrollments = len(enrollments)
	out.TotalAttempts = len(attempts)
	out.CompletedAttempts, out.AverageScore = attemptStats(attempts)
	return out, nil
}

/* ===================== Exam analytics ===================== */

// scoreBucket maps a percentage to its 10-point bucket; 100 falls into "90-100".
func scoreBucket(pct float64) string {
	if pct < 0 {
		pct = 0
	}
	lo := int(pct/10) * 10
	if lo >= 90 {
		return "90-100"
	}
	return fmt.Sprintf("%d-%d", lo, lo+9)
}

func (s *Service) ExamAnalytics(ctx context.Context, actor helperAuth.Actor, examID uuid.UUID) (*dto.ExamAnalytics, error) {
	exam, err := s.Exams.FindExam(ctx, examID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Exam not found")
		}
		return nil, err
	}
	if exam.CreatedBy != actor.ID && !actor.IsAdmin() {
		return nil, fiber.NewError(fiber.StatusForbidden, constants.ErrInsufficientPermissions)
	}

	enrollments, err := s.Exams.ListEnrollmentsByExams(ctx, []uuid.UUID{examID})
	if err != nil {
		return nil, err
	}
	attempts, err := s.Exams.ListAttempts(ctx, examRepo.AttemptFilter{ExamIDs: []uuid.UUID{examID}})
	if err != nil {
		return nil, err
	}
	questions, err := s.Exams.ListQuestions(ctx, examID)
	if err != nil {
		return nil, err
	}
	submissions, err := s.Exams.ListSubmissionsByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	out := &dto.ExamAnalytics{
		Participation: dto.Participation{TotalEnrolled: len(enrollments), TotalAttempts: len(attempts)},
		Performance: dto.Performance{
			ScoreDistribution: map[string]int{},
			QuestionAnalytics: map[string]dto.QuestionAnalytics{},
		},
		Proctoring: dto.Proctoring{ViolationTypes: map[string]int{}},
	}

	var completed int
	completed, out.Performance.AverageScore = attemptStats(attempts)
	if len(attempts) > 0 {
		out.Participation.CompletionRate = round2(float64(completed) / float64(len(attempts)) * 100)
	}

	var totalPoints float64
	qType := make(map[uuid.UUID]string, len(questions))
	for _, q := range questions {
		totalPoints += q.Points
		qType[q.ID] = string(q.Type)
	}

	limit := float64(exam.DurationMinutes * 60)
	var durSum float64
	for _, a := range attempts {
		switch a.Status {
		case examModel.AttemptSuspended:
			out.Proctoring.SuspendedAttempts++
		case examModel.AttemptCompleted:
			if totalPoints > 0 {
				out.Performance.ScoreDistribution[scoreBucket(a.ScoreValue()/totalPoints*100)]++
			}
			if a.SubmittedAt != nil {
				d := a.SubmittedAt.Sub(a.StartedAt).Seconds()
				durSum += d
				if d < limit {
					out.TimeAnalytics.EarlySubmissions++
				}
			}
		}
	}
	if completed > 0 {
		out.TimeAnalytics.AverageDuration = round2(durSum / float64(completed))
	}

	pointSums := map[uuid.UUID]float64{}
	for _, sub := range submissions {
		key := sub.QuestionID.String()
		qa := out.Performance.QuestionAnalytics[key]
		qa.QuestionType = qType[sub.QuestionID]
		qa.TotalSubmissions++
		if sub.IsCorrect != nil && *sub.IsCorrect {
			qa.CorrectSubmissions++
		}
		pointSums[sub.QuestionID] += sub.PointsEarned
		qa.AverageScore = round2(pointSums[sub.QuestionID] / float64(qa.TotalSubmissions))
		out.Performance.QuestionAnalytics[key] = qa
	}

	if err := s.violationStats(ctx, examID, &out.Proctoring); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) violationStats(ctx context.Context, examID uuid.UUID, p *dto.Proctoring) error {
	if s.Proctor == nil {
		return nil
	}
	sessions, err := s.Proctor.ListSessionsByExam(ctx, examID)
	if err != nil {
		return err
	}
	ids := make([]uuid.UUID, 0, len(sessions))
	for _, ss := range sessions {
		ids = append(ids, ss.ID)
	}
	bySession, err := s.Proctor.ListViolations(ctx, ids)
	if err != nil {
		return err
	}
	for _, vs := range bySession {
		for _, v := range vs {
			p.TotalViolations++
			p.ViolationTypes[v.ViolationType]++
		}
	}
	return nil
}
