package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                       uuid.UUID  `db:"id"`
	Email                    string     `db:"email"`
	PasswordHash             string     `db:"password_hash"`
	FirstName                string     `db:"first_name"`
	LastName                 string     `db:"last_name"`
	Team                     string     `db:"team"`
	EmailVerified            bool       `db:"email_verified"`
	VerificationToken        *string    `db:"verification_token"`
	VerificationTokenExpires *time.Time `db:"verification_token_expires"`
	CreatedAt                time.Time  `db:"created_at"`
	UpdatedAt                time.Time  `db:"updated_at"`
}

// FullName is the display name used in entry listings and emails.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
