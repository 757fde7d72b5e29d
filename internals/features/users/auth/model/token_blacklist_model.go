package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenBlacklist holds logged-out access tokens until they expire.
// Token is an HMAC of the raw JWT, never the JWT itself.
type TokenBlacklist struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Token     string         `gorm:"type:varchar(64);not null;unique" json:"-"`
	ExpiredAt time.Time      `gorm:"type:timestamptz;not null;index" json:"expired_at"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (TokenBlacklist) TableName() string {
	return "token_blacklist"
}

// AuthCredential backs the local auth provider.
type AuthCredential struct {
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"                json:"user_id"`
	Email        string    `gorm:"column:email;type:varchar(255);not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;type:text;not null"            json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamptz;autoCreateTime"  json:"created_at"`
}

func (AuthCredential) TableName() string {
	return "auth_credentials"
}
