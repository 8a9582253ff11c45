package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/UN-EOSG-Analytics/un-morning-briefings-sub001/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*model.User, error)
	ConsumeVerificationToken(ctx context.Context, token string) (bool, error)
	UpdateName(ctx context.Context, id uuid.UUID, firstName, lastName string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type postgresUserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, team,
			email_verified, verification_token, verification_token_expires)
		VALUES (:id, :email, :password_hash, :first_name, :last_name, :team,
			:email_verified, :verification_token, :verification_token_expires)`
	_, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user,
		`SELECT * FROM users WHERE LOWER(email) = LOWER($1)`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return &user, nil
}

func (r *postgresUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}
	return &user, nil
}

func (r *postgresUserRepository) FindByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user,
		`SELECT * FROM users WHERE verification_token = $1`, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by verification token: %w", err)
	}
	return &user, nil
}

// ConsumeVerificationToken marks the token's owner verified and clears the
// token in one conditional UPDATE. It returns false when no row matched,
// which means the token was already consumed by a concurrent request.
func (r *postgresUserRepository) ConsumeVerificationToken(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email_verified = TRUE,
			verification_token = NULL,
			verification_token_expires = NULL,
			updated_at = NOW()
		WHERE verification_token = $1
			AND email_verified = FALSE
			AND verification_token_expires > NOW()`, token)
	if err != nil {
		return false, fmt.Errorf("failed to consume verification token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *postgresUserRepository) UpdateName(ctx context.Context, id uuid.UUID, firstName, lastName string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET first_name = $1, last_name = $2, updated_at = NOW()
		WHERE id = $3`, firstName, lastName, id)
	if err != nil {
		return fmt.Errorf("failed to update user name: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $1, updated_at = NOW()
		WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
