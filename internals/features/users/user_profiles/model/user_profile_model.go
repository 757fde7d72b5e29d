package model

import (
	"time"

	"github.com/google/uuid"
)

// UserProfileModel mirrors the auth user: same id, plus display name and role.
type UserProfileModel struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"                      json:"id"`
	Email     string    `gorm:"column:email;type:varchar(255);not null;index"       json:"email"`
	FullName  string    `gorm:"column:full_name;type:varchar(120);not null"         json:"full_name"`
	Role      string    `gorm:"column:role;type:varchar(20);not null;default:'student'" json:"role"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;autoCreateTime"   json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz;autoUpdateTime"   json:"updated_at"`
}

func (UserProfileModel) TableName() string {
	return "user_profiles"
}

// Summary is the compact shape embedded in other resources.
type Summary struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email,omitempty"`
	Role     string    `json:"role"`
}

func (p *UserProfileModel) Summary() *Summary {
	if p == nil {
		return nil
	}
	return &Summary{ID: p.ID, FullName: p.FullName, Email: p.Email, Role: p.Role}
}
