package config

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"sitecooking/pkg/database"
	"sitecooking/pkg/validation"

	"github.com/sirupsen/logrus"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("JWT_ACCESS_TOKEN_SECRET", "test-secret")

	db, err := database.Open(database.DriverSQLite, database.SQLiteDSN(filepath.Join(t.TempDir(), "server.db")))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	validator, err := validation.New()
	if err != nil {
		t.Fatalf("validation.New() error = %v", err)
	}

	server, err := NewServer(
		WithFiber(NewFiber(logger)),
		WithLogger(logger),
		WithValidator(validator),
		WithDB(db),
		WithMiddleware(),
		WithUtils(),
		WithBcryptUtils(),
	)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	server.RegisterHandler()
	server.Mount()
	return server
}

func TestNewServerRequiresDependencies(t *testing.T) {
	if _, err := NewServer(WithLogger(logrus.New())); err == nil {
		t.Fatal("NewServer() without fiber app should fail")
	}
	if _, err := NewServer(WithMiddleware()); err == nil {
		t.Fatal("WithMiddleware() before WithLogger() should fail")
	}
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(t)

	resp, err := server.engine.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if err != nil {
		t.Fatalf("request error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Server is Healthy!") {
		t.Fatalf("body = %s", body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID header")
	}
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/no/such/page", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := server.engine.Test(req)
	if err != nil {
		t.Fatalf("request error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHomePageRendersThroughServer(t *testing.T) {
	server := newTestServer(t)

	resp, err := server.engine.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("request error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q", ct)
	}
}
