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

type ImageRepository interface {
	InsertForEntry(ctx context.Context, image *model.Image) error
	ListByEntry(ctx context.Context, entryID uuid.UUID) ([]model.Image, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Image, error)
	// DeleteByEntry removes the entry's image rows and returns their blob
	// URLs so the caller can clean up storage.
	DeleteByEntry(ctx context.Context, entryID uuid.UUID) ([]string, error)
}

type postgresImageRepository struct {
	db *sqlx.DB
}

func NewImageRepository(db *sqlx.DB) ImageRepository {
	return &postgresImageRepository{db: db}
}

func (r *postgresImageRepository) InsertForEntry(ctx context.Context, image *model.Image) error {
	query := `
		INSERT INTO entry_images (id, entry_id, filename, mime_type, blob_url, width, height, position)
		VALUES (:id, :entry_id, :filename, :mime_type, :blob_url, :width, :height, :position)`
	if _, err := r.db.NamedExecContext(ctx, query, image); err != nil {
		return fmt.Errorf("failed to insert image: %w", err)
	}
	return nil
}

func (r *postgresImageRepository) ListByEntry(ctx context.Context, entryID uuid.UUID) ([]model.Image, error) {
	var images []model.Image
	err := r.db.SelectContext(ctx, &images, `
		SELECT * FROM entry_images
		WHERE entry_id = $1
		ORDER BY position NULLS LAST, id`, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return images, nil
}

func (r *postgresImageRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Image, error) {
	var image model.Image
	err := r.db.GetContext(ctx, &image, `SELECT * FROM entry_images WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find image: %w", err)
	}
	return &image, nil
}

func (r *postgresImageRepository) DeleteByEntry(ctx context.Context, entryID uuid.UUID) ([]string, error) {
	var urls []string
	err := r.db.SelectContext(ctx, &urls, `
		DELETE FROM entry_images WHERE entry_id = $1 RETURNING blob_url`, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete images: %w", err)
	}
	return urls, nil
}
