package database

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/ncruces/go-sqlite3"
	"github.com/sirupsen/logrus"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// New opens the database selected by DB_DRIVER. DB_DSN wins over the
// individual DB_* connection variables when it is set.
func New() (*sqlx.DB, error) {
	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = DriverPostgres
	}

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		switch driver {
		case DriverPostgres:
			dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
				os.Getenv("DB_HOST"),
				os.Getenv("DB_PORT"),
				os.Getenv("DB_USER"),
				os.Getenv("DB_PASSWORD"),
				os.Getenv("DB_NAME"),
			)
		case DriverSQLite:
			name := os.Getenv("DB_NAME")
			if name == "" {
				name = "./storage/sitecooking.db"
			}
			dsn = SQLiteDSN(name)
		}
	}

	return Open(driver, dsn)
}

func Open(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// a single writer keeps transactions from hitting SQLITE_BUSY
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxIdleConns(10)
		db.SetMaxOpenConns(100)
		db.SetConnMaxLifetime(time.Hour)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	logrus.WithField("driver", driver).Info("Database connection established")
	return db, nil
}

func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// IsUniqueViolation reports whether err was raised by a unique constraint.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return errors.Is(err, sqlite3.CONSTRAINT_UNIQUE)
}
