package recipeHandler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	recipeRepository "sitecooking/internal/api/recipe/repository"
	recipeService "sitecooking/internal/api/recipe/service"
	"sitecooking/internal/middleware"
	"sitecooking/pkg/database"
	jwtPkg "sitecooking/pkg/jwt"
	"sitecooking/pkg/utils"
	"sitecooking/pkg/validation"
	"sitecooking/pkg/view"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv("JWT_ACCESS_TOKEN_SECRET", "test-secret")

	db, err := database.Open(database.DriverSQLite, database.SQLiteDSN(filepath.Join(t.TempDir(), "handler.db")))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	seed := []string{
		`INSERT INTO users (id, username, email, password, created_at) VALUES ('u1', 'anna', 'anna@example.com', '', '2024-01-01T00:00:00Z'), ('u2', 'bob', 'bob@example.com', '', '2024-01-01T00:00:00Z')`,
		`INSERT INTO categories (id, name, slug) VALUES (1, 'Soups', 'soups'), (2, 'Salads', 'salads')`,
		`INSERT INTO tags (id, tag, slug) VALUES (1, 'Vegan', 'vegan')`,
		`INSERT INTO recipes (id, title, slug, content, photo, is_published, time_create, time_update, cat_id, author_id) VALUES
			('01', 'Tomato soup', 'tomato-soup', 'Cook the tomatoes', '', true, '2024-01-01T09:30:00Z', '2024-01-01T09:30:00Z', 1, 'u1'),
			('02', 'Secret soup', 'secret-soup', 'Hidden', '', false, '2024-01-01T09:40:00Z', '2024-01-01T09:40:00Z', 1, 'u1')`,
	}
	for _, stmt := range seed {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	validator, err := validation.New()
	if err != nil {
		t.Fatalf("validation.New() error = %v", err)
	}

	app := fiber.New(fiber.Config{
		Views:       view.NewEngine(),
		JSONEncoder: jsoniter.Marshal,
		JSONDecoder: jsoniter.Unmarshal,
	})

	mw := middleware.New(logger)
	app.Use(mw.NewRequestIDMiddleware())

	service := recipeService.NewRecipesService(logger, recipeRepository.New(db, logger), nil, nil, utils.New())
	New(logger, validator, mw, service).Start(app)

	return app
}

func tokenFor(t *testing.T, id, username string) string {
	t.Helper()
	token, _, err := jwtPkg.Sign(map[string]interface{}{
		"id":       id,
		"email":    username + "@example.com",
		"username": username,
	}, time.Hour)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	return token
}

type requestOption func(r *http.Request)

func ajax(r *http.Request) {
	r.Header.Set("X-Requested-With", "XMLHttpRequest")
}

func bearer(token string) requestOption {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func cookie(token string) requestOption {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: jwtPkg.CookieName, Value: token})
	}
}

func do(t *testing.T, app *fiber.App, method, target string, form url.Values, opts ...requestOption) (*http.Response, string) {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test(%s %s) error = %v", method, target, err)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(raw)
}

func TestPublicPages(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name       string
		target     string
		opts       []requestOption
		wantStatus int
		wantBody   string
	}{
		{name: "home page", target: "/", wantStatus: http.StatusOK, wantBody: "Tomato soup"},
		{name: "home json", target: "/", opts: []requestOption{ajax}, wantStatus: http.StatusOK, wantBody: `"page_obj"`},
		{name: "category", target: "/category/soups", wantStatus: http.StatusOK, wantBody: "Category - Soups"},
		{name: "empty category", target: "/category/salads", wantStatus: http.StatusNotFound, wantBody: "no recipes found"},
		{name: "unknown tag", target: "/tag/spicy", opts: []requestOption{ajax}, wantStatus: http.StatusNotFound, wantBody: `"error"`},
		{name: "detail", target: "/post/tomato-soup", wantStatus: http.StatusOK, wantBody: "Cook the tomatoes"},
		{name: "draft detail", target: "/post/secret-soup", wantStatus: http.StatusNotFound},
		{name: "page out of range", target: "/?page=3", wantStatus: http.StatusNotFound},
		{name: "search", target: "/search?q=SOUP", opts: []requestOption{ajax}, wantStatus: http.StatusOK, wantBody: `"query":"SOUP"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, app, http.MethodGet, tt.target, nil, tt.opts...)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body = %s", resp.StatusCode, tt.wantStatus, body)
			}
			if tt.wantBody != "" && !strings.Contains(body, tt.wantBody) {
				t.Errorf("body does not contain %q: %s", tt.wantBody, body)
			}
		})
	}
}

func TestSearchResults(t *testing.T) {
	app := newTestApp(t)

	_, body := do(t, app, http.MethodGet, "/search?q=soup", nil, ajax)

	var got struct {
		Results []struct {
			Slug string `json:"slug"`
		} `json:"results"`
		Query string `json:"query"`
	}
	if err := jsoniter.UnmarshalFromString(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Query != "soup" || len(got.Results) != 1 || got.Results[0].Slug != "tomato-soup" {
		t.Errorf("search = %+v, want only tomato-soup", got)
	}
}

func TestProtectedPagesRequireLogin(t *testing.T) {
	app := newTestApp(t)

	resp, _ := do(t, app, http.MethodPost, "/add", url.Values{"title": {"Onion soup"}, "cat": {"1"}}, ajax)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("ajax status = %d, want 401", resp.StatusCode)
	}

	resp, _ = do(t, app, http.MethodGet, "/about", nil)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("browser status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login?next=%2Fabout" {
		t.Errorf("Location = %q, want /login?next=%%2Fabout", loc)
	}

	resp, _ = do(t, app, http.MethodGet, "/about", nil, cookie("not-a-token"))
	if resp.StatusCode != http.StatusFound {
		t.Errorf("invalid cookie status = %d, want 302", resp.StatusCode)
	}
}

func TestCreateRecipeAjax(t *testing.T) {
	app := newTestApp(t)
	token := tokenFor(t, "u2", "bob")

	resp, body := do(t, app, http.MethodPost, "/add", url.Values{
		"title":        {"Onion soup"},
		"content":      {"Slice the onions"},
		"is_published": {"true"},
		"cat":          {"1"},
		"tags":         {"1"},
	}, ajax, bearer(token))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", resp.StatusCode, body)
	}

	var saved struct {
		Success bool   `json:"success"`
		PostID  string `json:"post_id"`
	}
	if err := jsoniter.UnmarshalFromString(body, &saved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !saved.Success || saved.PostID == "" {
		t.Errorf("response = %+v, want success with post id", saved)
	}

	resp, _ = do(t, app, http.MethodGet, "/post/onion-soup", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("new recipe status = %d, want 200", resp.StatusCode)
	}
}

func TestCreateRecipeAjaxInvalid(t *testing.T) {
	app := newTestApp(t)
	token := tokenFor(t, "u2", "bob")

	resp, body := do(t, app, http.MethodPost, "/add", url.Values{
		"title": {"Soup"},
		"cat":   {""},
	}, ajax, bearer(token))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", resp.StatusCode, body)
	}

	var got struct {
		Success bool                `json:"success"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := jsoniter.UnmarshalFromString(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Success {
		t.Error("success should be false")
	}
	for _, field := range []string{"title", "cat"} {
		if len(got.Errors[field]) == 0 {
			t.Errorf("errors = %v, want an error on %q", got.Errors, field)
		}
	}

	resp, body = do(t, app, http.MethodPost, "/add", url.Values{
		"title": {"Onion soup"},
		"cat":   {"9"},
	}, ajax, bearer(token))
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body, `"cat"`) {
		t.Errorf("unknown category: status = %d, body = %s", resp.StatusCode, body)
	}
}

func TestCreateRecipeBrowser(t *testing.T) {
	app := newTestApp(t)
	token := tokenFor(t, "u1", "anna")

	resp, body := do(t, app, http.MethodPost, "/add", url.Values{
		"title": {"Garden salad"},
		"cat":   {"2"},
	}, cookie(token))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, "The recipe was added successfully!") {
		t.Error("success message missing")
	}
	if strings.Contains(body, `value="Garden salad"`) {
		t.Error("form should be emptied after success")
	}

	resp, body = do(t, app, http.MethodPost, "/add", url.Values{
		"title": {"Garden salad"},
		"slug":  {"tomato-soup"},
		"cat":   {"2"},
	}, cookie(token))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", resp.StatusCode, body)
	}
	if strings.Contains(body, "The recipe was added successfully!") {
		t.Error("invalid form should not report success")
	}
	if !strings.Contains(body, `class="error"`) || !strings.Contains(body, `value="Garden salad"`) {
		t.Errorf("form should show inline errors and keep input: %s", body)
	}
}

func TestEditAndDeleteRecipe(t *testing.T) {
	app := newTestApp(t)
	anna := tokenFor(t, "u1", "anna")
	bob := tokenFor(t, "u2", "bob")

	update := url.Values{
		"title":        {"Tomato soup deluxe"},
		"content":      {"More tomatoes"},
		"is_published": {"true"},
		"cat":          {"1"},
	}

	resp, _ := do(t, app, http.MethodPost, "/post/01/edit", update, ajax, bearer(bob))
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("edit by another user status = %d, want 403", resp.StatusCode)
	}

	resp, _ = do(t, app, http.MethodGet, "/post/01/edit", nil, cookie(anna))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("edit page status = %d, want 200", resp.StatusCode)
	}

	resp, _ = do(t, app, http.MethodPost, "/post/01/edit", update, cookie(anna))
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/" {
		t.Errorf("edit status = %d, Location = %q, want redirect home", resp.StatusCode, resp.Header.Get("Location"))
	}

	_, body := do(t, app, http.MethodGet, "/post/tomato-soup", nil)
	if !strings.Contains(body, "Tomato soup deluxe") {
		t.Error("updated title missing from detail page")
	}

	resp, _ = do(t, app, http.MethodPost, "/post/01/delete", nil, ajax, bearer(bob))
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("delete by another user status = %d, want 403", resp.StatusCode)
	}

	resp, body = do(t, app, http.MethodPost, "/post/01/delete", nil, ajax, bearer(anna))
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"success":true`) {
		t.Errorf("delete status = %d, body = %s", resp.StatusCode, body)
	}

	resp, _ = do(t, app, http.MethodGet, "/post/tomato-soup", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("deleted recipe status = %d, want 404", resp.StatusCode)
	}
}

func TestUserPosts(t *testing.T) {
	app := newTestApp(t)

	resp, body := do(t, app, http.MethodGet, "/user/posts", nil, ajax, bearer(tokenFor(t, "u1", "anna")))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "secret-soup") || !strings.Contains(body, "tomato-soup") {
		t.Errorf("own recipes should include drafts: %s", body)
	}
}
