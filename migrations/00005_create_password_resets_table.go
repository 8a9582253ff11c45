package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreatePasswordResetsTable, downCreatePasswordResetsTable)
}

func upCreatePasswordResetsTable(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE password_resets (
	  id BIGSERIAL PRIMARY KEY,
	  user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	  token_hash TEXT NOT NULL,
	  expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
	  used_at TIMESTAMP WITH TIME ZONE,
	  ip_address TEXT,
	  created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);

	CREATE INDEX idx_password_resets_user ON password_resets (user_id)
	  WHERE used_at IS NULL;
	`

	_, err := tx.ExecContext(ctx, query)
	if err != nil {
		return err
	}

	return nil
}

func downCreatePasswordResetsTable(ctx context.Context, tx *sql.Tx) error {
	query := `DROP TABLE IF EXISTS password_resets;`
	_, err := tx.ExecContext(ctx, query)
	if err != nil {
		return err
	}
	return nil
}
