package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/model"
)

type PasswordResetRepository interface {
	// InvalidateForUser marks any outstanding resets for the user as used.
	InvalidateForUser(ctx context.Context, userID uuid.UUID) error
	Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time, ipAddress string) error
	// ListActive returns unexpired, unused resets with the owner's email and
	// first name joined in, newest first.
	ListActive(ctx context.Context) ([]model.PasswordReset, error)
	MarkUsed(ctx context.Context, id int64) error
}

type postgresPasswordResetRepository struct {
	db *sqlx.DB
}

func NewPasswordResetRepository(db *sqlx.DB) PasswordResetRepository {
	return &postgresPasswordResetRepository{db: db}
}

func (r *postgresPasswordResetRepository) InvalidateForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE password_resets SET used_at = NOW()
		WHERE user_id = $1 AND used_at IS NULL`, userID)
	if err != nil {
		return fmt.Errorf("failed to invalidate password resets: %w", err)
	}
	return nil
}

func (r *postgresPasswordResetRepository) Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time, ipAddress string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO password_resets (user_id, token_hash, expires_at, ip_address)
		VALUES ($1, $2, $3, $4)`, userID, tokenHash, expiresAt, ipAddress)
	if err != nil {
		return fmt.Errorf("failed to create password reset: %w", err)
	}
	return nil
}

func (r *postgresPasswordResetRepository) ListActive(ctx context.Context) ([]model.PasswordReset, error) {
	var resets []model.PasswordReset
	err := r.db.SelectContext(ctx, &resets, `
		SELECT p.id, p.user_id, p.token_hash, p.expires_at, p.used_at,
			p.ip_address, p.created_at, u.email, u.first_name
		FROM password_resets p
		JOIN users u ON u.id = p.user_id
		WHERE p.used_at IS NULL AND p.expires_at > NOW()
		ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list password resets: %w", err)
	}
	return resets, nil
}

func (r *postgresPasswordResetRepository) MarkUsed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE password_resets SET used_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark password reset used: %w", err)
	}
	return nil
}
