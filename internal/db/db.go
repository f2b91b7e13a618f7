package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
            username TEXT PRIMARY KEY,
            display_name TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS chats (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL UNIQUE,
            img TEXT NOT NULL DEFAULT '',
            last_seq BIGINT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS chat_members (
            chat_id UUID NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
            username TEXT NOT NULL REFERENCES users(username),
            joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (chat_id, username)
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            chat_id UUID NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
            position BIGINT NOT NULL,
            sent_by TEXT NOT NULL,
            content TEXT NOT NULL,
            media BOOLEAN NOT NULL DEFAULT FALSE,
            media_key TEXT NOT NULL DEFAULT '',
            sent_at TIMESTAMPTZ NOT NULL,
            PRIMARY KEY (chat_id, position)
        );`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
