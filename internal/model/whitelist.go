package model

import (
	"time"

	"github.com/google/uuid"
)

// WhitelistRow is a whitelist entry with joined display names for listings.
type WhitelistRow struct {
	ID        int64      `db:"id" json:"id"`
	Email     string     `db:"email" json:"email"`
	UserID    *uuid.UUID `db:"user_id" json:"userId"`
	UserName  *string    `db:"user_name" json:"userName"`
	AddedBy   string     `db:"added_by_name" json:"addedBy"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}
