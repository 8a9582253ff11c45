package model

import (
	"time"

	"github.com/google/uuid"
)

// PasswordReset is a single-use, time-bounded reset credential. The token
// itself is never stored; only its bcrypt hash.
type PasswordReset struct {
	ID        int64      `db:"id"`
	UserID    uuid.UUID  `db:"user_id"`
	TokenHash string     `db:"token_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
	IPAddress string     `db:"ip_address"`
	CreatedAt time.Time  `db:"created_at"`

	// Joined from users for the reset email.
	Email     string `db:"email"`
	FirstName string `db:"first_name"`
}
