package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateUsersTable, downCreateUsersTable)
}

func upCreateUsersTable(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
	  id SERIAL PRIMARY KEY,
	  name TEXT NOT NULL,
	  age INTEGER NOT NULL,
	  email TEXT NOT NULL UNIQUE,
	  dob DATE NOT NULL,
	  "profilePic" TEXT,
	  gender TEXT NOT NULL,
	  skills JSONB NOT NULL DEFAULT '[]',
	  bio TEXT NOT NULL
	);
	`

	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreateUsersTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS users;`)
	return err
}
