package jwtPkg

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

const testSecretKey = "TEST_JWT_SECRET"

func TestSignAndVerify(t *testing.T) {
	t.Setenv("JWT_ACCESS_TOKEN_SECRET", "secret")
	t.Setenv(testSecretKey, "secret")

	token, exp, err := Sign(map[string]interface{}{
		"id":       "user-1",
		"email":    "anna@example.com",
		"username": "anna",
	}, time.Hour)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if exp <= time.Now().Unix() {
		t.Errorf("Sign() expiry %d is not in the future", exp)
	}

	parsed, err := Verify(token, testSecretKey)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	user, err := UserFromToken(parsed)
	if err != nil {
		t.Fatalf("UserFromToken() error = %v", err)
	}
	if user.ID != "user-1" || user.Username != "anna" || user.Email != "anna@example.com" {
		t.Errorf("UserFromToken() = %+v", user)
	}

	t.Setenv(testSecretKey, "another")
	if _, err := Verify(token, testSecretKey); err == nil {
		t.Error("Verify() with wrong secret should fail")
	}
}

func TestUserFromTokenMissingClaims(t *testing.T) {
	t.Setenv("JWT_ACCESS_TOKEN_SECRET", "secret")

	token, _, err := Sign(map[string]interface{}{"id": "user-1"}, time.Hour)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	parsed, err := Verify(token, "JWT_ACCESS_TOKEN_SECRET")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if _, err := UserFromToken(parsed); err == nil {
		t.Error("UserFromToken() should reject incomplete claims")
	}
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		cookie  string
		want    string
		wantErr bool
	}{
		{name: "bearer header", header: "Bearer abc", want: "abc"},
		{name: "cookie", cookie: "xyz", want: "xyz"},
		{name: "header wins", header: "Bearer abc", cookie: "xyz", want: "abc"},
		{name: "bad scheme", header: "Basic abc", wantErr: true},
		{name: "nothing", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				got, err := TokenFromRequest(c)
				if (err != nil) != tt.wantErr {
					t.Errorf("TokenFromRequest() error = %v, wantErr %v", err, tt.wantErr)
				}
				if got != tt.want {
					t.Errorf("TokenFromRequest() = %q, want %q", got, tt.want)
				}
				return nil
			})

			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.Header.Set("Cookie", CookieName+"="+tt.cookie)
			}
			if _, err := app.Test(req); err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
		})
	}
}
