package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger persists the hashed representation of every issued refresh token.
type Ledger interface {
	Record(tokenHash string, userID uuid.UUID, expiresAt time.Time) (*RefreshToken, error)
	FindByHash(tokenHash string) (*RefreshToken, error)
	Revoke(tokenHash string) error
	PurgeExpiredBefore(cutoff time.Time) (int64, error)
}

// GormLedger is the Postgres-backed ledger.
type GormLedger struct {
	DB *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{DB: db}
}

// Record inserts a fresh, non-revoked row. The unique index on token_hash
// rejects duplicates; under correct hashing that never fires.
func (l *GormLedger) Record(tokenHash string, userID uuid.UUID, expiresAt time.Time) (*RefreshToken, error) {
	rt := &RefreshToken{
		ID:        uuid.New(),
		TokenHash: tokenHash,
		UserID:    userID,
		ExpiresAt: expiresAt,
		IsRevoked: false,
	}
	if err := l.DB.Create(rt).Error; err != nil {
		return nil, err
	}
	return rt, nil
}

func (l *GormLedger) FindByHash(tokenHash string) (*RefreshToken, error) {
	var rt RefreshToken
	if err := l.DB.Where("token_hash = ?", tokenHash).First(&rt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &rt, nil
}

func (l *GormLedger) Revoke(tokenHash string) error {
	return l.DB.Model(&RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("is_revoked", true).Error
}

// PurgeExpiredBefore deletes every row whose expiry precedes the cutoff and
// reports how many were removed.
func (l *GormLedger) PurgeExpiredBefore(cutoff time.Time) (int64, error) {
	res := l.DB.Where("expires_at < ?", cutoff).Delete(&RefreshToken{})
	return res.RowsAffected, res.Error
}
