package controller_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proctorx_backend/internals/constants"
	"proctorx_backend/internals/features/users/user_profiles/model"
	"proctorx_backend/internals/features/users/user_profiles/repository"
	"proctorx_backend/internals/features/users/user_profiles/route"
	"proctorx_backend/internals/features/users/user_profiles/service"
)

type stubStats struct{}

func (stubStats) CountExams(context.Context) (int64, error)                  { return 4, nil }
func (stubStats) CountActiveExams(context.Context, time.Time) (int64, error) { return 2, nil }
func (stubStats) CountCompletedAttempts(context.Context) (int64, error)      { return 9, nil }

func setup(t *testing.T) (*fiber.App, repository.Repository) {
	t.Helper()
	profiles := repository.NewMemoryRepository()
	app := fiber.New()
	route.AdminRoutes(app.Group("/api"), service.New(profiles, stubStats{}))
	return app, profiles
}

func decode(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestDashboard(t *testing.T) {
	app, profiles := setup(t)
	require.NoError(t, profiles.Create(context.Background(), &model.UserProfileModel{Email: "a@example.com", FullName: "A", Role: constants.RoleAdmin}))

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/admin/dashboard", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := decode(t, resp.Body)["data"].(map[string]any)
	assert.EqualValues(t, 1, data["totalUsers"])
	assert.EqualValues(t, 4, data["totalExams"])
	assert.EqualValues(t, 2, data["activeExams"])
	assert.EqualValues(t, 9, data["completedAttempts"])
}

func TestListUsersPaginates(t *testing.T) {
	app, profiles := setup(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, profiles.Create(context.Background(), &model.UserProfileModel{
			Email: uuid.NewString() + "@example.com", FullName: "U", Role: constants.RoleStudent,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/admin/users?page=2&per_page=2", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decode(t, resp.Body)
	assert.Len(t, body["data"], 1)
	pg := body["pagination"].(map[string]any)
	assert.EqualValues(t, 3, pg["total"])
	assert.EqualValues(t, 2, pg["page"])
}

func TestUpdateRole(t *testing.T) {
	app, profiles := setup(t)
	u := &model.UserProfileModel{Email: "s@example.com", FullName: "S", Role: constants.RoleStudent}
	require.NoError(t, profiles.Create(context.Background(), u))

	put := func(id, body string) int {
		req := httptest.NewRequest(fiber.MethodPut, "/api/admin/users/"+id+"/role", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusBadRequest, put(u.ID.String(), `{"role":"superuser"}`))
	assert.Equal(t, fiber.StatusNotFound, put(uuid.NewString(), `{"role":"instructor"}`))
	assert.Equal(t, fiber.StatusOK, put(u.ID.String(), `{"role":"Instructor"}`))

	got, err := profiles.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RoleInstructor, got.Role)
}
