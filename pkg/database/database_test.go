package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestMigrateAndUniqueViolation(t *testing.T) {
	db, err := Open(DriverSQLite, SQLiteDSN(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	// running twice is a no-op
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	insert := `INSERT INTO users (id, username, email, password, created_at) VALUES (?, ?, ?, ?, ?)`
	now := time.Now().UTC().Truncate(time.Second)

	if _, err := db.ExecContext(ctx, insert, "u1", "anna", "anna@example.com", "x", now); err != nil {
		t.Fatalf("first insert error = %v", err)
	}

	_, err = db.ExecContext(ctx, insert, "u2", "anna", "other@example.com", "x", now)
	if err == nil {
		t.Fatal("expected duplicate username to fail")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false, want true", err)
	}

	if IsUniqueViolation(errors.New("boom")) {
		t.Error("IsUniqueViolation(plain error) = true, want false")
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("mysql", "whatever"); err == nil {
		t.Fatal("expected an error for an unsupported driver")
	}
}
