package dto

import "strings"

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin instructor student"`
}

func (r *UpdateRoleRequest) Normalize() {
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

type Dashboard struct {
	TotalUsers        int64 `json:"totalUsers"`
	TotalExams        int64 `json:"totalExams"`
	ActiveExams       int64 `json:"activeExams"`
	CompletedAttempts int64 `json:"completedAttempts"`
}
