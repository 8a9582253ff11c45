package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateUserWhitelistTable, downCreateUserWhitelistTable)
}

func upCreateUserWhitelistTable(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE user_whitelist (
	  id BIGSERIAL PRIMARY KEY,
	  email TEXT UNIQUE NOT NULL,
	  user_id UUID REFERENCES users(id) ON DELETE SET NULL,
	  added_by UUID REFERENCES users(id) ON DELETE SET NULL,
	  created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);
	`

	_, err := tx.ExecContext(ctx, query)
	if err != nil {
		return err
	}

	return nil
}

func downCreateUserWhitelistTable(ctx context.Context, tx *sql.Tx) error {
	query := `DROP TABLE IF EXISTS user_whitelist;`
	_, err := tx.ExecContext(ctx, query)
	if err != nil {
		return err
	}
	return nil
}
