package seeds

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proctorx_backend/internals/constants"
	examRepo "proctorx_backend/internals/features/exams/repository"
	"proctorx_backend/internals/features/users/auth/provider"
	authRepo "proctorx_backend/internals/features/users/auth/repository"
	authService "proctorx_backend/internals/features/users/auth/service"
	profileRepo "proctorx_backend/internals/features/users/user_profiles/repository"
)

func TestRunDemoIsIdempotent(t *testing.T) {
	ctx := context.Background()
	profiles := profileRepo.NewMemoryRepository()
	exams := examRepo.NewMemoryRepository()
	auth := authService.New(
		provider.NewLocalProvider(authRepo.NewMemoryCredentials(), "seed-secret", time.Hour),
		profiles,
		authRepo.NewMemoryBlacklist("seed-secret"),
	)

	require.NoError(t, RunDemo(ctx, auth, profiles, exams))

	users, total, err := profiles.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	roles := map[string]int{}
	for _, u := range users {
		roles[u.Role]++
	}
	assert.Equal(t, map[string]int{constants.RoleAdmin: 1, constants.RoleInstructor: 1, constants.RoleStudent: 1}, roles)

	list, n, err := exams.ListExams(ctx, examRepo.ExamFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	qs, err := exams.ListQuestions(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Len(t, qs, 3)

	var student string
	for _, u := range users {
		if u.Role == constants.RoleStudent {
			student = u.ID.String()
			en, err := exams.ListEnrollmentsByUser(ctx, u.ID)
			require.NoError(t, err)
			assert.Len(t, en, 1)
		}
	}
	assert.NotEmpty(t, student)

	require.NoError(t, RunDemo(ctx, auth, profiles, exams))
	_, n, err = exams.ListExams(ctx, examRepo.ExamFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
