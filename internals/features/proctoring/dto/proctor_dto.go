package dto

import (
	"github.com/google/uuid"

	"proctorx_backend/internals/features/proctoring/model"
	profileModel "proctorx_backend/internals/features/users/user_profiles/model"
)

type ViolationRequest struct {
	ExamAttemptID  uuid.UUID      `json:"exam_attempt_id" validate:"required"`
	ViolationType  string         `json:"violation_type"  validate:"required,max=64"`
	Severity       string         `json:"severity"        validate:"omitempty,oneof=low medium high"`
	Details        map[string]any `json:"details"`
	SnapshotBase64 string         `json:"snapshot_base64"`
}

type SnapshotRequest struct {
	ExamAttemptID uuid.UUID `json:"exam_attempt_id" validate:"required"`
	ImageBase64   string    `json:"image_base64"`
}

type ActivityRequest struct {
	ExamAttemptID *uuid.UUID     `json:"exam_attempt_id"`
	ActivityType  string         `json:"activity_type" validate:"required,max=64"`
	Details       map[string]any `json:"details"`
}

type ViolationResult struct {
	Violation       *model.ViolationModel `json:"violation"`
	ViolationsCount int                   `json:"violations_count"`
	Suspended       bool                  `json:"suspended"`
}

type AttemptBrief struct {
	UserID  uuid.UUID             `json:"user_id"`
	Profile *profileModel.Summary `json:"user_profiles"`
}

// SessionDetail is one proctor session with everything recorded against it.
type SessionDetail struct {
	model.ProctorSessionModel
	Attempt    AttemptBrief             `json:"exam_attempts"`
	Violations []model.ViolationModel   `json:"proctor_violations"`
	Snapshots  []model.SnapshotModel    `json:"snapshots"`
	Activities []model.ActivityLogModel `json:"activity_logs"`
}
