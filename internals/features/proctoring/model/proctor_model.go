package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SuspendThreshold is the violation count at which an attempt is suspended.
const SuspendThreshold = 5

type ProctorSessionModel struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"          json:"id"`
	ExamAttemptID    uuid.UUID      `gorm:"column:exam_attempt_id;type:uuid;not null;uniqueIndex"           json:"exam_attempt_id"`
	ExamID           uuid.UUID      `gorm:"column:exam_id;type:uuid;not null;index"                         json:"exam_id"`
	UserID           uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index"                         json:"user_id"`
	BrowserInfo      datatypes.JSON `gorm:"column:browser_info;type:jsonb"                                  json:"browser_info,omitempty"`
	ScreenResolution string         `gorm:"column:screen_resolution;type:varchar(32);not null;default:'unknown'" json:"screen_resolution"`
	ViolationsCount  int            `gorm:"column:violations_count;not null;default:0"                      json:"violations_count"`
	StartedAt        time.Time      `gorm:"column:started_at;type:timestamptz;not null"                     json:"started_at"`
	EndedAt          *time.Time     `gorm:"column:ended_at;type:timestamptz"                                json:"ended_at,omitempty"`
}

func (ProctorSessionModel) TableName() string { return "proctor_sessions" }

type ViolationModel struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProctorSessionID uuid.UUID      `gorm:"column:proctor_session_id;type:uuid;not null;index"     json:"proctor_session_id"`
	ViolationType    string         `gorm:"column:violation_type;type:varchar(64);not null;index"  json:"violation_type"`
	Severity         Severity       `gorm:"column:severity;type:varchar(10);not null;default:'medium'" json:"severity"`
	Details          datatypes.JSON `gorm:"column:details;type:jsonb"                              json:"details,omitempty"`
	SnapshotURL      *string        `gorm:"column:snapshot_url;type:text"                          json:"snapshot_url"`
	CreatedAt        time.Time      `gorm:"column:created_at;type:timestamptz;autoCreateTime"      json:"created_at"`
}

func (ViolationModel) TableName() string { return "proctor_violations" }

type SnapshotModel struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProctorSessionID uuid.UUID `gorm:"column:proctor_session_id;type:uuid;not null;index"     json:"proctor_session_id"`
	UserID           uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"                json:"user_id"`
	ImageURL         string    `gorm:"column:image_url;type:text;not null"                    json:"image_url"`
	CreatedAt        time.Time `gorm:"column:created_at;type:timestamptz;autoCreateTime"      json:"created_at"`
}

func (SnapshotModel) TableName() string { return "snapshots" }

type ActivityLogModel struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID        uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index"                json:"user_id"`
	ExamAttemptID *uuid.UUID     `gorm:"column:exam_attempt_id;type:uuid;index"                 json:"exam_attempt_id,omitempty"`
	ActivityType  string         `gorm:"column:activity_type;type:varchar(64);not null"         json:"activity_type"`
	Details       datatypes.JSON `gorm:"column:details;type:jsonb"                              json:"details,omitempty"`
	IPAddress     *string        `gorm:"column:ip_address;type:varchar(64)"                     json:"ip_address,omitempty"`
	UserAgent     *string        `gorm:"column:user_agent;type:text"                            json:"user_agent,omitempty"`
	CreatedAt     time.Time      `gorm:"column:created_at;type:timestamptz;autoCreateTime"      json:"created_at"`
}

func (ActivityLogModel) TableName() string { return "activity_logs" }

func Tables() []any {
	return []any{
		&ProctorSessionModel{},
		&ViolationModel{},
		&SnapshotModel{},
		&ActivityLogModel{},
	}
}
