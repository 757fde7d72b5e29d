package repository

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	database "proctorx_backend/internals/databases"
	authModel "proctorx_backend/internals/features/users/auth/model"
)

type BlacklistRepository interface {
	Add(ctx context.Context, token string, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
	// PurgeExpired hard-deletes rows that expired before the cutoff.
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

type CredentialRepository interface {
	Create(ctx context.Context, c *authModel.AuthCredential) error
	FindByEmail(ctx context.Context, email string) (*authModel.AuthCredential, error)
}

// hashToken keys the blacklist on HMAC-SHA256(secret, token).
func hashToken(secret, token string) string {
	m := hmac.New(sha256.New, []byte(secret))
	_, _ = m.Write([]byte(token))
	return hex.EncodeToString(m.Sum(nil))
}

func normEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

/* ====================== GORM ====================== */

type gormBlacklist struct {
	db     *gorm.DB
	secret string
}

func NewGormBlacklist(db *gorm.DB, secret string) BlacklistRepository {
	return &gormBlacklist{db: db, secret: secret}
}

func (r *gormBlacklist) Add(ctx context.Context, token string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&authModel.TokenBlacklist{Token: hashToken(r.secret, token), ExpiredAt: expiresAt.UTC()}).Error
}

func (r *gormBlacklist) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&authModel.TokenBlacklist{}).
		Where("token = ?", hashToken(r.secret, token)).
		Count(&n).Error
	return n > 0, err
}

func (r *gormBlacklist) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Unscoped().
		Where("expired_at < ?", before).
		Delete(&authModel.TokenBlacklist{})
	return res.RowsAffected, res.Error
}

type gormCredentials struct {
	db *gorm.DB
}

func NewGormCredentials(db *gorm.DB) CredentialRepository {
	return &gormCredentials{db: db}
}

func (r *gormCredentials) Create(ctx context.Context, c *authModel.AuthCredential) error {
	c.Email = normEmail(c.Email)
	return database.Normalize(r.db.WithContext(ctx).Create(c).Error)
}

func (r *gormCredentials) FindByEmail(ctx context.Context, email string) (*authModel.AuthCredential, error) {
	var c authModel.AuthCredential
	if err := r.db.WithContext(ctx).Where("email = ?", normEmail(email)).First(&c).Error; err != nil {
		return nil, database.Normalize(err)
	}
	return &c, nil
}

/* ====================== MEMORY ====================== */

type memoryBlacklist struct {
	mu     sync.RWMutex
	secret string
	rows   map[string]time.Time
}

func NewMemoryBlacklist(secret string) BlacklistRepository {
	return &memoryBlacklist{secret: secret, rows: map[string]time.Time{}}
}

func (r *memoryBlacklist) Add(_ context.Context, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := hashToken(r.secret, token)
	if _, ok := r.rows[key]; !ok {
		r.rows[key] = expiresAt.UTC()
	}
	return nil
}

func (r *memoryBlacklist) IsBlacklisted(_ context.Context, token string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rows[hashToken(r.secret, token)]
	return ok, nil
}

func (r *memoryBlacklist) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, exp := range r.rows {
		if exp.Before(before) {
			delete(r.rows, k)
			n++
		}
	}
	return n, nil
}

type memoryCredentials struct {
	mu      sync.RWMutex
	byEmail map[string]authModel.AuthCredential
}

func NewMemoryCredentials() CredentialRepository {
	return &memoryCredentials{byEmail: map[string]authModel.AuthCredential{}}
}

func (r *memoryCredentials) Create(_ context.Context, c *authModel.AuthCredential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.Email = normEmail(c.Email)
	if _, ok := r.byEmail[c.Email]; ok {
		return database.ErrDuplicate
	}
	c.CreatedAt = time.Now().UTC()
	r.byEmail[c.Email] = *c
	return nil
}

func (r *memoryCredentials) FindByEmail(_ context.Context, email string) (*authModel.AuthCredential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byEmail[normEmail(email)]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &c, nil
}
