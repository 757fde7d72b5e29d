package dto

// Dashboard counts; TotalExams is only set for staff.
type Dashboard struct {
	TotalExams        *int    `json:"total_exams,omitempty"`
	TotalEnrollments  int     `json:"total_enrollments"`
	TotalAttempts     int     `json:"total_attempts"`
	CompletedAttempts int     `json:"completed_attempts"`
	AverageScore      float64 `json:"average_score"`
}

type Participation struct {
	TotalEnrolled  int     `json:"total_enrolled"`
	TotalAttempts  int     `json:"total_attempts"`
	CompletionRate float64 `json:"completion_rate"`
}

type QuestionAnalytics struct {
	QuestionType       string  `json:"question_type"`
	TotalSubmissions   int     `json:"total_submissions"`
	CorrectSubmissions int     `json:"correct_submissions"`
	AverageScore       float64 `json:"average_score"`
}

type Performance struct {
	AverageScore      float64                      `json:"average_score"`
	ScoreDistribution map[string]int               `json:"score_distribution"`
	QuestionAnalytics map[string]QuestionAnalytics `json:"question_analytics"`
}

type Proctoring struct {
	TotalViolations   int            `json:"total_violations"`
	ViolationTypes    map[string]int `json:"violation_types"`
	SuspendedAttempts int            `json:"suspended_attempts"`
}

type TimeAnalytics struct {
	AverageDuration  float64 `json:"average_duration"`
	EarlySubmissions int     `json:"early_submissions"`
}

type ExamAnalytics struct {
	Participation Participation `json:"participation"`
	Performance   Performance   `json:"performance"`
	Proctoring    Proctoring    `json:"proctoring"`
	TimeAnalytics TimeAnalytics `json:"time_analytics"`
}
