package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateEntryImagesTable, downCreateEntryImagesTable)
}

func upCreateEntryImagesTable(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE entry_images (
	  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	  entry_id UUID NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
	  filename TEXT NOT NULL,
	  mime_type TEXT NOT NULL,
	  blob_url TEXT NOT NULL,
	  width INTEGER,
	  height INTEGER,
	  position INTEGER
	);

	CREATE INDEX idx_entry_images_entry ON entry_images (entry_id);
	`

	_, err := tx.ExecContext(ctx, query)
	if err != nil {
		return err
	}

	return nil
}

func downCreateEntryImagesTable(ctx context.Context, tx *sql.Tx) error {
	query := `DROP TABLE IF EXISTS entry_images;`
	_, err := tx.ExecContext(ctx, query)
	if err != nil {
		return err
	}
	return nil
}
