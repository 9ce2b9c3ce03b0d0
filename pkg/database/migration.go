package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		username   TEXT NOT NULL UNIQUE,
		email      TEXT NOT NULL UNIQUE,
		password   TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id   BIGSERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		slug VARCHAR(255) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id   BIGSERIAL PRIMARY KEY,
		tag  VARCHAR(100) NOT NULL,
		slug VARCHAR(255) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS recipes (
		id           TEXT PRIMARY KEY,
		title        VARCHAR(255) NOT NULL,
		slug         VARCHAR(255) NOT NULL UNIQUE,
		content      TEXT NOT NULL DEFAULT '',
		photo        TEXT NOT NULL DEFAULT '',
		is_published BOOLEAN NOT NULL DEFAULT TRUE,
		time_create  TIMESTAMPTZ NOT NULL,
		time_update  TIMESTAMPTZ NOT NULL,
		cat_id       BIGINT NOT NULL REFERENCES categories (id),
		author_id    TEXT REFERENCES users (id) ON DELETE SET NULL
	)`,
	`CREATE INDEX IF NOT EXISTS recipes_time_create_idx ON recipes (time_create)`,
	`CREATE TABLE IF NOT EXISTS recipe_tags (
		recipe_id TEXT NOT NULL REFERENCES recipes (id) ON DELETE CASCADE,
		tag_id    BIGINT NOT NULL REFERENCES tags (id) ON DELETE CASCADE,
		PRIMARY KEY (recipe_id, tag_id)
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		username   TEXT NOT NULL UNIQUE,
		email      TEXT NOT NULL UNIQUE,
		password   TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		tag  TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS recipes (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		slug         TEXT NOT NULL UNIQUE,
		content      TEXT NOT NULL DEFAULT '',
		photo        TEXT NOT NULL DEFAULT '',
		is_published BOOLEAN NOT NULL DEFAULT 1,
		time_create  DATETIME NOT NULL,
		time_update  DATETIME NOT NULL,
		cat_id       INTEGER NOT NULL REFERENCES categories (id),
		author_id    TEXT REFERENCES users (id) ON DELETE SET NULL
	)`,
	`CREATE INDEX IF NOT EXISTS recipes_time_create_idx ON recipes (time_create)`,
	`CREATE TABLE IF NOT EXISTS recipe_tags (
		recipe_id TEXT NOT NULL REFERENCES recipes (id) ON DELETE CASCADE,
		tag_id    INTEGER NOT NULL REFERENCES tags (id) ON DELETE CASCADE,
		PRIMARY KEY (recipe_id, tag_id)
	)`,
}

// Migrate creates any missing table for the dialect db was opened with.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	statements := postgresSchema
	if db.DriverName() == DriverSQLite {
		statements = sqliteSchema
	}

	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}

	logrus.WithField("driver", db.DriverName()).Info("Database schema is up to date")
	return nil
}
