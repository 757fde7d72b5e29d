package controller_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proctorx_backend/internals/constants"
	"proctorx_backend/internals/features/exams/repository"
	"proctorx_backend/internals/features/exams/route"
	"proctorx_backend/internals/features/exams/service"
	notif "proctorx_backend/internals/features/notifications/service"
	profileModel "proctorx_backend/internals/features/users/user_profiles/model"
	profileRepo "proctorx_backend/internals/features/users/user_profiles/repository"
	helperAuth "proctorx_backend/internals/helpers/auth"
	"proctorx_backend/internals/clients/judge0"
)

type stubRunner struct{}

func (stubRunner) Execute(context.Context, judge0.Request) (*judge0.Result, error) {
	return &judge0.Result{Stdout: "ok\n", Status: &judge0.Status{ID: 3, Description: "Accepted"}}, nil
}

// fakeAuth trusts X-User / X-Role headers.
func fakeAuth(c *fiber.Ctx) error {
	id := c.Get("X-User")
	if id == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "No token provided")
	}
	c.Locals(helperAuth.LocUserID, id)
	c.Locals(helperAuth.LocRole, c.Get("X-Role"))
	return c.Next()
}

func requireStaff(c *fiber.Ctx) error {
	if !constants.IsStaff(c.Get("X-Role")) {
		return fiber.NewError(fiber.StatusForbidden, constants.ErrInsufficientPermissions)
	}
	return c.Next()
}

type client struct {
	t   *testing.T
	app *fiber.App
}

type user struct {
	id   uuid.UUID
	role string
}

func (cl client) do(u user, method, path string, body any) (*http.Response, map[string]any) {
	cl.t.Helper()
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(cl.t, err)
		rdr = strings.NewReader(string(buf))
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", u.id.String())
	req.Header.Set("X-Role", u.role)
	resp, err := cl.app.Test(req, -1)
	require.NoError(cl.t, err)

	out := map[string]any{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(cl.t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func setup(t *testing.T) (client, user, user) {
	t.Helper()
	profiles := profileRepo.NewMemoryRepository()
	teacher := user{uuid.New(), constants.RoleInstructor}
	student := user{uuid.New(), constants.RoleStudent}
	for _, u := range []user{teacher, student} {
		require.NoError(t, profiles.Create(context.Background(), &profileModel.UserProfileModel{
			ID: u.id, Email: u.role + "@example.com", FullName: "User " + u.role, Role: u.role,
		}))
	}
	svc := service.New(repository.NewMemoryRepository(), profiles, stubRunner{}, nil, &notif.Recorder{})

	app := fiber.New()
	route.ExamRoutes(app.Group("/api"), svc, route.Guards{Auth: fakeAuth, Instructor: requireStaff})
	return client{t: t, app: app}, teacher, student
}

func dataOf(body map[string]any) map[string]any {
	d, _ := body["data"].(map[string]any)
	return d
}

func TestExamLifecycleOverHTTP(t *testing.T) {
	cl, teacher, student := setup(t)
	now := time.Now().UTC()

	resp, _ := cl.do(student, fiber.MethodPost, "/api/exams", map[string]any{"title": "x"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = cl.do(teacher, fiber.MethodPost, "/api/exams", map[string]any{
		"title": "Bad window", "start_time": now.Format(time.RFC3339), "end_time": now.Add(-time.Hour).Format(time.RFC3339), "duration_minutes": 30,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body := cl.do(teacher, fiber.MethodPost, "/api/exams", map[string]any{
		"title":            "Algorithms",
		"start_time":       now.Add(-time.Hour).Format(time.RFC3339),
		"end_time":         now.Add(time.Hour).Format(time.RFC3339),
		"duration_minutes": 30,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	examID := dataOf(body)["exam"].(map[string]any)["id"].(string)

	resp, body = cl.do(teacher, fiber.MethodPost, "/api/questions", map[string]any{
		"exam_id": examID, "type": "mcq", "question_text": "2+2?",
		"options": []string{"3", "4"}, "correct_answer": "4", "points": 5,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	questionID := dataOf(body)["question"].(map[string]any)["id"].(string)

	// not enrolled yet
	resp, _ = cl.do(student, fiber.MethodGet, "/api/exams/"+examID, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = cl.do(student, fiber.MethodPost, "/api/enrollments", map[string]any{"exam_id": examID})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp, body = cl.do(student, fiber.MethodPost, "/api/enrollments", map[string]any{"exam_id": examID})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Already enrolled in this exam", body["error"])

	resp, body = cl.do(student, fiber.MethodGet, "/api/exams/"+examID+"/eligibility", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, dataOf(body)["canAttempt"])

	resp, body = cl.do(student, fiber.MethodPost, "/api/exams/start", map[string]any{"exam_id": examID})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	attemptID := dataOf(body)["attempt"].(map[string]any)["id"].(string)

	resp, body = cl.do(student, fiber.MethodGet, "/api/questions/exam/"+examID+"/attempt/"+attemptID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	q0 := body["data"].([]any)[0].(map[string]any)
	_, leaked := q0["correct_answer"]
	assert.False(t, leaked)

	resp, body = cl.do(student, fiber.MethodPost, "/api/submissions", map[string]any{
		"exam_attempt_id": attemptID, "question_id": questionID, "answer": " 4 ",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	result := dataOf(body)["result"].(map[string]any)
	assert.Equal(t, true, result["is_correct"])
	assert.EqualValues(t, 5, result["points_earned"])

	resp, body = cl.do(student, fiber.MethodPost, "/api/submissions/submit-exam", map[string]any{"exam_attempt_id": attemptID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 5, dataOf(body)["score"])

	// the attempt is closed now
	resp, _ = cl.do(student, fiber.MethodPost, "/api/submissions", map[string]any{
		"exam_attempt_id": attemptID, "question_id": questionID, "answer": "4",
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, body = cl.do(student, fiber.MethodGet, "/api/grades/my", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	mine := body["data"].([]any)
	require.Len(t, mine, 1)
	assert.Equal(t, "A", mine[0].(map[string]any)["letter_grade"])

	resp, _ = cl.do(teacher, fiber.MethodGet, "/api/grades/exam/"+examID+"/export", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "algorithms-grades.xlsx")
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))

	resp, _ = cl.do(student, fiber.MethodGet, "/api/grades/exam/"+examID, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestInvalidPathIDs(t *testing.T) {
	cl, teacher, _ := setup(t)
	resp, _ := cl.do(teacher, fiber.MethodGet, "/api/exams/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = cl.do(teacher, fiber.MethodGet, "/api/exams/"+uuid.NewString(), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
