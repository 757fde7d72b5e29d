package dto

import (
	"strings"

	"github.com/google/uuid"

	"proctorx_backend/internals/constants"
	profileModel "proctorx_backend/internals/features/users/user_profiles/model"
)

type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"fullName" validate:"required,min=2,max=120"`
	Role     string `json:"role"     validate:"omitempty,oneof=student instructor"`
}

// Normalize trims input and applies the default role.
func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	if r.Role == "" {
		r.Role = constants.RoleStudent
	}
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

type UserResponse struct {
	ID      uuid.UUID                      `json:"id"`
	Email   string                         `json:"email"`
	Profile *profileModel.UserProfileModel `json:"profile"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expires_at"`
	User      UserResponse `json:"user"`
}
