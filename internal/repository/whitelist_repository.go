package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/model"
)

type WhitelistRepository interface {
	List(ctx context.Context) ([]model.WhitelistRow, error)
	Contains(ctx context.Context, email string) (bool, error)
	Add(ctx context.Context, email string, addedBy uuid.UUID) error
	// LinkUser attaches a registered user to their whitelist row.
	LinkUser(ctx context.Context, email string, userID uuid.UUID) error
	// Remove deletes a whitelist row, but only when no user has registered
	// against it.
	Remove(ctx context.Context, email string) (bool, error)
	HasRegisteredUser(ctx context.Context, email string) (bool, error)
}

type postgresWhitelistRepository struct {
	db *sqlx.DB
}

func NewWhitelistRepository(db *sqlx.DB) WhitelistRepository {
	return &postgresWhitelistRepository{db: db}
}

func (r *postgresWhitelistRepository) List(ctx context.Context) ([]model.WhitelistRow, error) {
	var rows []model.WhitelistRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT w.id, w.email, w.user_id,
			NULLIF(TRIM(u.first_name || ' ' || u.last_name), '') AS user_name,
			COALESCE(TRIM(a.first_name || ' ' || a.last_name), '') AS added_by_name,
			w.created_at
		FROM user_whitelist w
		LEFT JOIN users u ON u.id = w.user_id
		LEFT JOIN users a ON a.id = w.added_by
		ORDER BY w.email`)
	if err != nil {
		return nil, fmt.Errorf("failed to list whitelist: %w", err)
	}
	return rows, nil
}

func (r *postgresWhitelistRepository) Contains(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM user_whitelist WHERE LOWER(email) = LOWER($1))`, email)
	if err != nil {
		return false, fmt.Errorf("failed to check whitelist: %w", err)
	}
	return exists, nil
}

func (r *postgresWhitelistRepository) Add(ctx context.Context, email string, addedBy uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_whitelist (email, added_by)
		VALUES (LOWER($1), $2)
		ON CONFLICT (email) DO NOTHING`, email, addedBy)
	if err != nil {
		return fmt.Errorf("failed to add to whitelist: %w", err)
	}
	return nil
}

func (r *postgresWhitelistRepository) LinkUser(ctx context.Context, email string, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_whitelist SET user_id = $1
		WHERE LOWER(email) = LOWER($2)`, userID, email)
	if err != nil {
		return fmt.Errorf("failed to link whitelist user: %w", err)
	}
	return nil
}

func (r *postgresWhitelistRepository) Remove(ctx context.Context, email string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM user_whitelist
		WHERE LOWER(email) = LOWER($1) AND user_id IS NULL`, email)
	if err != nil {
		return false, fmt.Errorf("failed to remove from whitelist: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *postgresWhitelistRepository) HasRegisteredUser(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM user_whitelist
			WHERE LOWER(email) = LOWER($1) AND user_id IS NOT NULL)`, email)
	if err != nil {
		return false, fmt.Errorf("failed to check whitelist registration: %w", err)
	}
	return exists, nil
}
