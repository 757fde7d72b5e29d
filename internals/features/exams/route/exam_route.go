package route

import (
	"github.com/gofiber/fiber/v2"

	"proctorx_backend/internals/features/exams/controller"
	"proctorx_backend/internals/features/exams/service"
)

// Guards are the middlewares the exam routes compose.
type Guards struct {
	Auth       fiber.Handler
	Instructor fiber.Handler
	StartLimit fiber.Handler
}

func next(c *fiber.Ctx) error { return c.Next() }

func (g Guards) withDefaults() Guards {
	if g.Auth == nil {
		g.Auth = next
	}
	if g.Instructor == nil {
		g.Instructor = next
	}
	if g.StartLimit == nil {
		g.StartLimit = next
	}
	return g
}

func ExamRoutes(api fiber.Router, svc *service.Service, g Guards) {
	g = g.withDefaults()
	exams := controller.NewExamController(svc)
	questions := controller.NewQuestionController(svc)
	enrollments := controller.NewEnrollmentController(svc)
	submissions := controller.NewSubmissionController(svc)
	grades := controller.NewGradeController(svc)

	ex := api.Group("/exams", g.Auth)
	ex.Post("/start", g.StartLimit, exams.Start)
	ex.Get("/attempts/:attemptId", exams.Attempt)
	ex.Get("/", exams.List)
	ex.Post("/", g.Instructor, exams.Create)
	ex.Get("/:id/eligibility", exams.Eligibility)
	ex.Get("/:id", exams.Detail)
	ex.Put("/:id", g.Instructor, exams.Update)
	ex.Delete("/:id", g.Instructor, exams.Delete)

	qs := api.Group("/questions", g.Auth)
	qs.Post("/", g.Instructor, questions.Create)
	qs.Get("/exam/:examId/attempt/:attemptId", questions.ListForAttempt)
	qs.Get("/exam/:examId", questions.ListByExam)
	qs.Get("/:questionId/templates", questions.Templates)
	qs.Put("/:id", g.Instructor, questions.Update)
	qs.Delete("/:id", g.Instructor, questions.Delete)

	en := api.Group("/enrollments", g.Auth)
	en.Post("/", enrollments.Enroll)
	en.Get("/my", enrollments.Mine)
	en.Get("/exam/:examId", g.Instructor, enrollments.ByExam)

	sub := api.Group("/submissions", g.Auth)
	sub.Post("/", submissions.Submit)
	sub.Post("/submit-exam", submissions.SubmitExam)
	sub.Get("/attempt/:attemptId", submissions.ByAttempt)

	gr := api.Group("/grades", g.Auth)
	gr.Get("/my", grades.Mine)
	gr.Get("/exam/:examId/export", g.Instructor, grades.Export)
	gr.Get("/exam/:examId", g.Instructor, grades.ExamGrades)
	gr.Post("/submission/:submissionId", g.Instructor, grades.GradeSubmission)
}
