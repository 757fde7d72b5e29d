package service

import (
	"context"
	"log"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"proctorx_backend/internals/clients/judge0"
	"proctorx_backend/internals/features/exams/model"
)

// PassRateThreshold is the share of test cases a code answer must pass to count as correct.
const PassRateThreshold = 0.8

// DefaultRunBudget bounds a single judge run when Service.RunBudget is unset.
const DefaultRunBudget = 30 * time.Second

// saveTimeout bounds persisting a graded submission.
const saveTimeout = 10 * time.Second

// gradingContext detaches grading from the caller's deadline: a request
// timeout must not fail the remaining test cases. The budget is one
// RunBudget per run (the bare run plus each test case).
func (s *Service) gradingContext(ctx context.Context, cases int) (context.Context, context.CancelFunc) {
	per := s.RunBudget
	if per <= 0 {
		per = DefaultRunBudget
	}
	return context.WithTimeout(context.WithoutCancel(ctx), time.Duration(cases+1)*per)
}

func normalizeAnswer(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}

// GradeMCQ compares trimmed, NFC-normalised answers case-insensitively.
func GradeMCQ(answer string, correct *string) bool {
	if correct == nil {
		return false
	}
	return normalizeAnswer(answer) == normalizeAnswer(*correct)
}

func MCQPoints(answer string, q *model.QuestionModel) (bool, float64) {
	ok := GradeMCQ(answer, q.CorrectAnswer)
	if ok {
		return true, q.Points
	}
	return false, 0
}

type CodeGrade struct {
	Output        string
	Stderr        string
	Status        string
	ExecutionTime string
	Passed        int
	Total         int
	Points        float64
	IsCorrect     bool
	// RunFailed is set when the first run could not reach the judge.
	RunFailed bool
}

func (g CodeGrade) PassRate() float64 {
	if g.Total == 0 {
		return 0
	}
	return float64(g.Passed) / float64(g.Total)
}

// GradeCode runs the program once without input, then once per test case.
// A test case passes when trimmed stdout equals the trimmed expected output;
// a test case whose run fails counts as not passed.
func GradeCode(ctx context.Context, runner CodeRunner, code string, languageID int, cases []model.TestCaseModel, points float64) CodeGrade {
	var g CodeGrade
	first, err := runner.Execute(ctx, judge0.Request{SourceCode: code, LanguageID: languageID})
	if err != nil {
		log.Printf("[WARN] code execution failed: %v", err)
		g.Stderr = "Execution failed"
		g.Status = "Error"
		g.RunFailed = true
		return g
	}
	g.Output = first.Stdout
	g.Stderr = first.ErrorOutput()
	g.Status = first.StatusDescription()
	if g.Status == "" {
		g.Status = "Unknown"
	}
	g.ExecutionTime = first.Time

	g.Total = len(cases)
	for _, tc := range cases {
		res, err := runner.Execute(ctx, judge0.Request{SourceCode: code, LanguageID: languageID, Stdin: tc.Input})
		if err != nil {
			log.Printf("[WARN] test case %s: %v", tc.ID, err)
			continue
		}
		if strings.TrimSpace(res.Stdout) == strings.TrimSpace(tc.ExpectedOutput) {
			g.Passed++
		}
	}
	if g.Total > 0 {
		rate := g.PassRate()
		g.Points = rate * points
		g.IsCorrect = rate >= PassRateThreshold
	}
	return g
}

// LetterGrade maps a percentage (0..100) onto A-F.
func LetterGrade(pct float64) string {
	switch {
	case pct >= 90:
		return "A"
	case pct >= 80:
		return "B"
	case pct >= 70:
		return "C"
	case pct >= 60:
		return "D"
	}
	return "F"
}
