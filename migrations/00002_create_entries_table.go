package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateEntriesTable, downCreateEntriesTable)
}

func upCreateEntriesTable(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE entries (
	  id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	  category TEXT NOT NULL,
	  priority TEXT NOT NULL DEFAULT 'situational-awareness',
	  region TEXT NOT NULL,
	  country TEXT NOT NULL DEFAULT '',
	  headline TEXT NOT NULL,
	  date TIMESTAMP WITH TIME ZONE NOT NULL,
	  entry TEXT NOT NULL,
	  source_name TEXT,
	  source_url TEXT,
	  source_date TEXT,
	  pu_note TEXT,
	  author_id UUID REFERENCES users(id) ON DELETE SET NULL,
	  comment TEXT,
	  status TEXT,
	  approval_status TEXT NOT NULL DEFAULT 'pending',
	  ai_summary TEXT,
	  created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
	  updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);

	CREATE INDEX idx_entries_date ON entries (date);
	CREATE INDEX idx_entries_author ON entries (author_id);
	`

	_, err := tx.ExecContext(ctx, query)
	if err != nil {
		return err
	}

	return nil
}

func downCreateEntriesTable(ctx context.Context, tx *sql.Tx) error {
	query := `DROP TABLE IF EXISTS entries;`
	_, err := tx.ExecContext(ctx, query)
	if err != nil {
		return err
	}
	return nil
}
