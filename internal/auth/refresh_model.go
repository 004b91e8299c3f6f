package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/keyline-labs/auth-service/internal/user"
)

// RefreshToken is a ledger row. The raw token never touches storage; only its
// keyed hash does. Rows are removed by the reaper once stale, or together
// with their owner via the cascade constraint.
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TokenHash string    `gorm:"size:64;not null;uniqueIndex"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	User      user.User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ExpiresAt time.Time `gorm:"not null;index"`
	IsRevoked bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
}
