package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"proctorx_backend/internals/features/exams/dto"
	"proctorx_backend/internals/features/exams/model"
	"proctorx_backend/internals/features/exams/repository"
	helperAuth "proctorx_backend/internals/helpers/auth"
	"proctorx_backend/internals/helpers/dbtime"
)

// Statistics over completed attempt scores. pass_rate is only computed when
// the exam has a positive passing score.
func Statistics(scores []float64, passingScore float64) dto.GradeStatistics {
	st := dto.GradeStatistics{TotalAttempts: len(scores)}
	if len(scores) == 0 {
		return st
	}
	sum, hi, lo := 0.0, math.Inf(-1), math.Inf(1)
	passed := 0
	for _, sc := range scores {
		sum += sc
		hi = math.Max(hi, sc)
		lo = math.Min(lo, sc)
		if sc >= passingScore {
			passed++
		}
	}
	st.AverageScore = sum / float64(len(scores))
	st.HighestScore = hi
	st.LowestScore = lo
	if passingScore > 0 {
		st.PassRate = float64(passed) / float64(len(scores)) * 100
	}
	return st
}

func (s *Service) ExamGrades(ctx context.Context, actor helperAuth.Actor, examID uuid.UUID) (*dto.ExamGrades, error) {
	e, err := s.loadExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, e) {
		return nil, errInsufficient
	}

	attempts, err := s.Repo.ListAttempts(ctx, repository.AttemptFilter{
		ExamIDs:  []uuid.UUID{examID},
		Statuses: []model.AttemptStatus{model.AttemptCompleted},
	})
	if err != nil {
		return nil, err
	}
	sortBySubmittedDesc(attempts)

	userIDs := make([]uuid.UUID, 0, len(attempts))
	for _, a := range attempts {
		userIDs = append(userIDs, a.UserID)
	}
	profiles, err := s.Profiles.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.GradedAttempt, 0, len(attempts))
	scores := make([]float64, 0, len(attempts))
	for _, a := range attempts {
		ga := dto.GradedAttempt{ExamAttemptModel: a}
		if p := profiles[a.UserID]; p != nil {
			ga.Student = &dto.StudentBrief{ID: p.ID, FullName: p.FullName}
		}
		rows = append(rows, ga)
		scores = append(scores, a.ScoreValue())
	}

	return &dto.ExamGrades{
		ExamTitle:  e.Title,
		Attempts:   rows,
		Statistics: Statistics(scores, e.PassingScore),
	}, nil
}

// ExportExamGrades renders ExamGrades as a single-sheet workbook.
func (s *Service) ExportExamGrades(ctx context.Context, actor helperAuth.Actor, examID uuid.UUID) ([]byte, string, error) {
	grades, err := s.ExamGrades(ctx, actor, examID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("[WARN] close workbook: %v", err)
		}
	}()
	const sheet = "Grades"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, "", err
	}

	header := []any{"Student", "Attempt", "Score", "Started At", "Submitted At"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, "", err
	}
	for i, a := range grades.Attempts {
		name := ""
		if a.Student != nil {
			name = a.Student.FullName
		}
		submitted := ""
		if a.SubmittedAt != nil {
			submitted = a.SubmittedAt.Format("2006-01-02 15:04:05")
		}
		row := []any{name, a.AttemptNumber, a.ScoreValue(), a.StartedAt.Format("2006-01-02 15:04:05"), submitted}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, "", err
		}
	}

	st := grades.Statistics
	statsRow := len(grades.Attempts) + 3
	summary := [][]any{
		{"Total attempts", st.TotalAttempts},
		{"Average score", st.AverageScore},
		{"Highest score", st.HighestScore},
		{"Lowest score", st.LowestScore},
		{"Pass rate (%)", st.PassRate},
	}
	for i, r := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, statsRow+i)
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return nil, "", err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), exportFilename(grades.ExamTitle), nil
}

func exportFilename(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = "exam"
	}
	return name + "-grades.xlsx"
}

func (s *Service) examTotalPoints(ctx context.Context, examID uuid.UUID) (float64, error) {
	qs, err := s.Repo.ListQuestions(ctx, examID)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, q := range qs {
		total += q.Points
	}
	return total, nil
}

func (s *Service) MyGrades(ctx context.Context, actor helperAuth.Actor) ([]dto.MyGrade, error) {
	attempts, err := s.Repo.ListAttempts(ctx, repository.AttemptFilter{
		UserID:   &actor.ID,
		Statuses: []model.AttemptStatus{model.AttemptCompleted},
	})
	if err != nil {
		return nil, err
	}
	sortBySubmittedDesc(attempts)

	ids := make([]uuid.UUID, 0, len(attempts))
	for _, a := range attempts {
		ids = append(ids, a.ExamID)
	}
	exams, err := s.Repo.FindExams(ctx, ids)
	if err != nil {
		return nil, err
	}

	totals := map[uuid.UUID]float64{}
	out := make([]dto.MyGrade, 0, len(attempts))
	for _, a := range attempts {
		e := exams[a.ExamID]
		total, ok := totals[a.ExamID]
		if !ok {
			if total, err = s.examTotalPoints(ctx, a.ExamID); err != nil {
				return nil, err
			}
			totals[a.ExamID] = total
		}
		g := dto.MyGrade{ExamAttemptModel: a, Exam: e.Summary(), TotalPoints: total}
		if total > 0 {
			g.Percentage = a.ScoreValue() / total * 100
		}
		g.LetterGrade = LetterGrade(g.Percentage)
		if e != nil {
			g.Passed = a.ScoreValue() >= e.PassingScore
		}
		out = append(out, g)
	}
	return out, nil
}

// GradeSubmission records a manual grade and recomputes the attempt total.
func (s *Service) GradeSubmission(ctx context.Context, actor helperAuth.Actor, submissionID uuid.UUID, req dto.GradeSubmissionRequest) (*model.SubmissionModel, float64, error) {
	sub, err := s.Repo.FindSubmission(ctx, submissionID)
	if err != nil {
		return nil, 0, notFound(err, errSubmissionMissing)
	}
	e, err := s.loadExam(ctx, sub.ExamID)
	if err != nil {
		return nil, 0, err
	}
	if !canManage(actor, e) {
		return nil, 0, errInsufficient
	}

	updated, err := s.Repo.GradeSubmission(ctx, submissionID, repository.GradeUpdate{
		PointsEarned: *req.PointsEarned,
		Feedback:     req.Feedback,
		GradedBy:     actor.ID,
		GradedAt:     dbtime.Now(),
	})
	if err != nil {
		return nil, 0, notFound(err, errSubmissionMissing)
	}
	total, err := s.Repo.SumPoints(ctx, sub.ExamAttemptID)
	if err != nil {
		return nil, 0, err
	}
	if err := s.Repo.UpdateAttemptScore(ctx, sub.ExamAttemptID, total); err != nil {
		return nil, 0, err
	}
	return updated, total, nil
}

func sortBySubmittedDesc(rows []model.ExamAttemptModel) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].SubmittedAt, rows[j].SubmittedAt
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.After(*b)
	})
}
