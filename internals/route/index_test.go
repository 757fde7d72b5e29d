package routes

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proctorx_backend/internals/configs"
	"proctorx_backend/internals/middlewares"
)

func pass(c *fiber.Ctx) error { return c.Next() }

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("AUTH_PROVIDER", "local")
	t.Setenv("REDIS_URL", "")
	t.Setenv("SENDGRID_API_KEY", "")
	configs.JWTSecret = "routes-test-secret"

	d, err := BuildDeps(context.Background(), nil)
	require.NoError(t, err)
	t.Cleanup(d.Close)

	app := fiber.New(fiber.Config{
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ErrorHandler: middlewares.ErrorHandler,
	})
	SetupRoutes(app, d, Limits{Global: pass, Auth: pass, ExamStart: pass, Code: pass})
	return app
}

func do(t *testing.T, app *fiber.App, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, sonic.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func login(t *testing.T, app *fiber.App, email, role string) string {
	t.Helper()
	status, _ := do(t, app, "POST", "/api/auth/register", "",
		fmt.Sprintf(`{"email":%q,"password":"secret-pass","fullName":"Test User","role":%q}`, email, role))
	require.Equal(t, fiber.StatusOK, status)

	status, body := do(t, app, "POST", "/api/auth/login", "",
		fmt.Sprintf(`{"email":%q,"password":"secret-pass"}`, email))
	require.Equal(t, fiber.StatusOK, status)
	return body["data"].(map[string]any)["token"].(string)
}

func TestHealthAndNotFound(t *testing.T) {
	app := newTestApp(t)

	for _, p := range []string{"/health", "/api/health"} {
		status, body := do(t, app, "GET", p, "", "")
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "OK", body["status"])
		assert.Equal(t, "memory", body["database"])
	}

	status, body := do(t, app, "GET", "/api/nope", "", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Route not found", body["error"])
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app, "stu@example.com", "student")

	status, body := do(t, app, "GET", "/api/auth/me", token, "")
	require.Equal(t, fiber.StatusOK, status)
	profile := body["data"].(map[string]any)["user"].(map[string]any)["profile"].(map[string]any)
	assert.Equal(t, "student", profile["role"])

	status, _ = do(t, app, "GET", "/api/admin/users", token, "")
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = do(t, app, "POST", "/api/auth/logout", token, "")
	require.Equal(t, fiber.StatusOK, status)

	status, body = do(t, app, "GET", "/api/auth/me", token, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Invalid or expired token", body["error"])
}

func TestInstructorCreatesExamStudentCannot(t *testing.T) {
	app := newTestApp(t)
	instructor := login(t, app, "teach@example.com", "instructor")
	student := login(t, app, "kid@example.com", "student")

	start := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	end := time.Now().UTC().Add(time.Hour).Format(time.RFC3339)
	payload := fmt.Sprintf(`{"title":"Go basics","start_time":%q,"end_time":%q,"duration_minutes":30}`, start, end)

	status, _ := do(t, app, "POST", "/api/exams", student, payload)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := do(t, app, "POST", "/api/exams", instructor, payload)
	require.Equal(t, fiber.StatusCreated, status)
	exam := body["data"].(map[string]any)["exam"].(map[string]any)
	examID := exam["id"].(string)

	status, body = do(t, app, "GET", "/api/analytics/exam/"+examID, instructor, "")
	require.Equal(t, fiber.StatusOK, status)
	analytics := body["data"].(map[string]any)["analytics"].(map[string]any)
	assert.Equal(t, float64(0), analytics["participation"].(map[string]any)["total_attempts"])

	status, _ = do(t, app, "GET", "/api/analytics/exam/"+examID, student, "")
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = do(t, app, "GET", "/api/analytics/dashboard", student, "")
	require.Equal(t, fiber.StatusOK, status)
	_, hasExams := body["data"].(map[string]any)["stats"].(map[string]any)["total_exams"]
	assert.False(t, hasExams)
}

func TestCodeExecuteRequiresAuth(t *testing.T) {
	app := newTestApp(t)
	status, body := do(t, app, "POST", "/api/code/execute", "", `{"source_code":"x","language_id":71}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "No token provided", body["error"])
}
