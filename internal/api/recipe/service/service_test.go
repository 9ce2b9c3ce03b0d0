package recipeService

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"sitecooking/internal/api/recipe"
	recipeRepository "sitecooking/internal/api/recipe/repository"
	"sitecooking/internal/entity"
	"sitecooking/pkg/database"
	"sitecooking/pkg/redis"
	"sitecooking/pkg/response"
	"sitecooking/pkg/utils"

	jsoniter "github.com/json-iterator/go"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (f *fakeCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.data[key]
	if !ok {
		return redis.ErrCacheMiss
	}
	return jsoniter.Unmarshal(raw, dest)
}

func (f *fakeCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := jsoniter.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = raw
	return nil
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeCache) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

type fakeS3 struct {
	mu       sync.Mutex
	uploaded []string
	deleted  []string
}

func (f *fakeS3) UploadFile(_ context.Context, file *multipart.FileHeader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	url := "https://bucket.s3.amazonaws.com/photos/" + file.Filename
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeS3) PresignUrl(fileUrl string) (string, error) {
	return fileUrl + "?signed=1", nil
}

func (f *fakeS3) DeleteFile(_ context.Context, fileUrl string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileUrl)
	return nil
}

func (f *fakeS3) deletedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

type testEnv struct {
	svc   IRecipesService
	db    *sqlx.DB
	cache *fakeCache
	s3    *fakeS3
}

var (
	anna = &entity.UserLoginData{ID: "u1", Username: "anna", Email: "anna@example.com"}
	bob  = &entity.UserLoginData{ID: "u2", Username: "bob", Email: "bob@example.com"}
)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, database.SQLiteDSN(filepath.Join(t.TempDir(), "service.db")))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	stamp := func(minutes int) string {
		return base.Add(time.Duration(minutes) * time.Minute).Format(time.RFC3339)
	}

	seed := []string{
		`INSERT INTO users (id, username, email, password, created_at) VALUES ('u1', 'anna', 'anna@example.com', '', '2024-01-01T00:00:00Z'), ('u2', 'bob', 'bob@example.com', '', '2024-01-01T00:00:00Z')`,
		`INSERT INTO categories (id, name, slug) VALUES (1, 'Soups', 'soups'), (2, 'Desserts', 'desserts'), (3, 'Salads', 'salads')`,
		`INSERT INTO tags (id, tag, slug) VALUES (1, 'Vegan', 'vegan'), (2, 'Quick', 'quick'), (3, 'Spicy', 'spicy')`,
		`INSERT INTO recipes (id, title, slug, content, photo, is_published, time_create, time_update, cat_id, author_id) VALUES
			('01', 'Tomato soup', 'tomato-soup', '# Tomato soup', 'https://bucket.s3.amazonaws.com/photos/1.jpg', true, '` + stamp(30) + `', '` + stamp(30) + `', 1, 'u1'),
			('02', 'Soup base', 'soup-base', 'Boil water', '', true, '` + stamp(10) + `', '` + stamp(10) + `', 1, 'u1'),
			('03', 'Chocolate cake', 'chocolate-cake', 'Bake it', '', true, '` + stamp(50) + `', '` + stamp(50) + `', 2, 'u2'),
			('04', 'Secret soup', 'secret-soup', 'Hidden', '', false, '` + stamp(40) + `', '` + stamp(40) + `', 1, 'u1')`,
		`INSERT INTO recipe_tags (recipe_id, tag_id) VALUES ('01', 1), ('01', 2), ('04', 3)`,
	}
	for _, stmt := range seed {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	env := &testEnv{db: db, cache: newFakeCache(), s3: &fakeS3{}}
	env.svc = NewRecipesService(logger, recipeRepository.New(db, logger), env.s3, env.cache, utils.New())
	return env
}

func postIDs(list []recipes.RecipeResponse) []string {
	out := make([]string, 0, len(list))
	for _, r := range list {
		out = append(out, r.ID)
	}
	return out
}

func imageHeader(name string, size int64) *multipart.FileHeader {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", "image/jpeg")
	return &multipart.FileHeader{Filename: name, Size: size, Header: h}
}

func TestListing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		scope   recipes.Scope
		order   recipes.Order
		page    string
		want    []string
		title   string
		wantErr error
	}{
		{name: "home", scope: recipes.HomeScope(), want: []string{"01", "02", "03"}, title: "Home page"},
		{name: "home newest", scope: recipes.HomeScope(), order: recipes.OrderNewest, want: []string{"03", "01", "02"}, title: "Home page"},
		{name: "home with photo", scope: recipes.HomeScope(), order: recipes.OrderWithPhoto, want: []string{"01"}, title: "Home page"},
		{name: "category", scope: recipes.CategoryScope("soups"), want: []string{"01", "02"}, title: "Category - Soups"},
		{name: "category ignores order", scope: recipes.CategoryScope("soups"), order: recipes.OrderNewest, want: []string{"01", "02"}, title: "Category - Soups"},
		{name: "tag", scope: recipes.TagScope("vegan"), want: []string{"01"}, title: "Tag: Vegan"},
		{name: "author includes drafts", scope: recipes.AuthorScope("u1"), want: []string{"04", "01", "02"}, title: "My recipes"},
		{name: "about clamps page", scope: recipes.AboutScope(), page: "7", want: []string{"01", "02", "03"}, title: "About"},
		{name: "category without published recipes", scope: recipes.CategoryScope("salads"), wantErr: recipes.ErrEmptyListing},
		{name: "tag with only drafts", scope: recipes.TagScope("spicy"), wantErr: recipes.ErrEmptyListing},
		{name: "unknown category", scope: recipes.CategoryScope("bread"), wantErr: recipes.ErrCategoryNotFound},
		{name: "unknown tag", scope: recipes.TagScope("bread"), wantErr: recipes.ErrTagNotFound},
		{name: "page beyond range", scope: recipes.HomeScope(), page: "2", wantErr: recipes.ErrPageNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.svc.Listing(ctx, tt.scope, tt.order, tt.page, nil)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Listing() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Listing() unexpected error: %v", err)
			}

			ids := postIDs(got.Posts)
			if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Listing() ids = %v, want %v", ids, tt.want)
			}
			if got.Title != tt.title {
				t.Errorf("Title = %q, want %q", got.Title, tt.title)
			}
		})
	}
}

func TestListingFrame(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	home, err := env.svc.Listing(ctx, recipes.HomeScope(), recipes.OrderNewest, "", anna)
	if err != nil {
		t.Fatalf("Listing() unexpected error: %v", err)
	}

	if !home.ShowFilterForm || home.FilterForm == nil || home.FilterForm.Order != recipes.OrderNewest {
		t.Errorf("filter form = %+v, want shown with order new", home.FilterForm)
	}
	if !home.CatSelected.IsAll() {
		t.Error("home should highlight all categories")
	}
	if home.User == nil || home.User.Username != "anna" {
		t.Errorf("User = %+v, want anna", home.User)
	}
	if got := home.Page.URL(1); got != "?order=new&page=1" {
		t.Errorf("page URL = %q, want order kept", got)
	}
	if home.Posts[1].Photo != "https://bucket.s3.amazonaws.com/photos/1.jpg?signed=1" {
		t.Errorf("photo = %q, want presigned URL", home.Posts[1].Photo)
	}

	// sidebar lists only categories and tags with published recipes
	cats := make([]string, 0, len(home.Categories))
	for _, c := range home.Categories {
		cats = append(cats, c.Slug)
	}
	if strings.Join(cats, ",") != "soups,desserts" {
		t.Errorf("sidebar categories = %v, want [soups desserts]", cats)
	}
	for _, tag := range home.Tags {
		if tag.Slug == "spicy" {
			t.Error("sidebar lists a tag used only by drafts")
		}
	}
	if !env.cache.has(sidebarCategoriesKey) || !env.cache.has(sidebarTagsKey) {
		t.Error("sidebar was not cached")
	}

	category, err := env.svc.Listing(ctx, recipes.CategoryScope("desserts"), "", "", nil)
	if err != nil {
		t.Fatalf("Listing() unexpected error: %v", err)
	}
	if category.ShowFilterForm {
		t.Error("category listing should not show the filter form")
	}
	if !category.CatSelected.Is(2) {
		t.Error("category listing should highlight its category")
	}
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "empty query", query: "", want: []string{}},
		{name: "blank query", query: "   ", want: []string{}},
		{name: "case insensitive", query: "soup", want: []string{"01", "02"}},
		{name: "mixed case", query: "cHOCOLATE", want: []string{"03"}},
		{name: "wildcards are literal", query: "%", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.svc.Search(ctx, tt.query, nil)
			if err != nil {
				t.Fatalf("Search() unexpected error: %v", err)
			}
			if got.Query != tt.query {
				t.Errorf("Query = %q, want %q", got.Query, tt.query)
			}
			ids := postIDs(got.Results)
			if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Search() ids = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestDetail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	got, err := env.svc.Detail(ctx, "tomato-soup", anna)
	if err != nil {
		t.Fatalf("Detail() unexpected error: %v", err)
	}
	if !got.CanEdit {
		t.Error("author should be able to edit")
	}
	if !strings.Contains(string(got.ContentHTML), "<h1") {
		t.Errorf("ContentHTML = %q, want rendered heading", got.ContentHTML)
	}
	if len(got.Post.Tags) != 2 {
		t.Errorf("tags = %v, want 2", got.Post.Tags)
	}
	if got.Post.Category.Name != "Soups" {
		t.Errorf("category = %q, want Soups", got.Post.Category.Name)
	}

	other, err := env.svc.Detail(ctx, "tomato-soup", bob)
	if err != nil {
		t.Fatalf("Detail() unexpected error: %v", err)
	}
	if other.CanEdit {
		t.Error("other users should not be able to edit")
	}

	if _, err := env.svc.Detail(ctx, "secret-soup", anna); !errors.Is(err, recipes.ErrRecipeNotFound) {
		t.Errorf("Detail(draft) error = %v, want ErrRecipeNotFound", err)
	}
	if _, err := env.svc.Detail(ctx, "missing", nil); !errors.Is(err, recipes.ErrRecipeNotFound) {
		t.Errorf("Detail(missing) error = %v, want ErrRecipeNotFound", err)
	}
}

func TestCreateRecipe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// warm the sidebar so the write has something to invalidate
	env.svc.Frame(ctx, "Home page", nil, recipes.Selection(recipes.HomeScope(), 0))

	id, err := env.svc.CreateRecipe(ctx, recipes.RecipeRequest{
		Title:       "Pumpkin soup",
		Content:     "Roast the pumpkin",
		IsPublished: true,
		Cat:         "1",
		Tags:        []string{"1", "3"},
	}, "u2", imageHeader("pumpkin.jpg", 1024))
	if err != nil {
		t.Fatalf("CreateRecipe() unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("CreateRecipe() returned empty id")
	}
	if env.cache.has(sidebarCategoriesKey) {
		t.Error("sidebar cache should be invalidated")
	}

	got, err := env.svc.Detail(ctx, "pumpkin-soup", nil)
	if err != nil {
		t.Fatalf("Detail() unexpected error: %v", err)
	}
	if got.Post.ID != id || got.Post.AuthorID != "u2" || len(got.Post.Tags) != 2 {
		t.Errorf("created recipe = %+v", got.Post)
	}
	if !strings.HasPrefix(got.Post.Photo, "https://bucket.s3.amazonaws.com/photos/pumpkin.jpg") {
		t.Errorf("photo = %q, want uploaded URL", got.Post.Photo)
	}

	// same title again gets a suffixed slug
	second, err := env.svc.CreateRecipe(ctx, recipes.RecipeRequest{
		Title: "Pumpkin soup",
		Cat:   "1",
	}, "u2", nil)
	if err != nil {
		t.Fatalf("CreateRecipe() unexpected error: %v", err)
	}
	var slug string
	if err := env.db.Get(&slug, `SELECT slug FROM recipes WHERE id = ?`, second); err != nil {
		t.Fatalf("select slug: %v", err)
	}
	if !strings.HasPrefix(slug, "pumpkin-soup-") {
		t.Errorf("slug = %q, want pumpkin-soup-<suffix>", slug)
	}
}

func TestCreateRecipeKeepsInsertionOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var created []string
	for i := 1; i <= 5; i++ {
		id, err := env.svc.CreateRecipe(ctx, recipes.RecipeRequest{
			Title:       fmt.Sprintf("Salad number %d", i),
			IsPublished: true,
			Cat:         "3",
		}, "u1", nil)
		if err != nil {
			t.Fatalf("CreateRecipe(%d) unexpected error: %v", i, err)
		}
		created = append(created, id)
	}

	got, err := env.svc.Listing(ctx, recipes.CategoryScope("salads"), recipes.OrderDefault, "", nil)
	if err != nil {
		t.Fatalf("Listing() unexpected error: %v", err)
	}

	ids := postIDs(got.Posts)
	if strings.Join(ids, ",") != strings.Join(created, ",") {
		t.Errorf("Listing() ids = %v, want creation order %v", ids, created)
	}
}

func TestCreateRecipeValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		req       recipes.RecipeRequest
		photo     *multipart.FileHeader
		wantField string
	}{
		{name: "unknown category", req: recipes.RecipeRequest{Title: "Onion soup", Cat: "99"}, wantField: "cat"},
		{name: "unknown tag", req: recipes.RecipeRequest{Title: "Onion soup", Cat: "1", Tags: []string{"1", "42"}}, wantField: "tags"},
		{name: "slug taken", req: recipes.RecipeRequest{Title: "Onion soup", Slug: "soup-base", Cat: "1"}, wantField: "slug"},
		{name: "photo too large", req: recipes.RecipeRequest{Title: "Onion soup", Cat: "1"}, photo: imageHeader("big.jpg", 10*1024*1024), wantField: "photo"},
		{name: "photo wrong type", req: recipes.RecipeRequest{Title: "Onion soup", Cat: "1"}, photo: imageHeader("notes.txt", 10), wantField: "photo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.CreateRecipe(ctx, tt.req, "u1", tt.photo)

			var verr *response.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("CreateRecipe() error = %v, want ValidationError", err)
			}
			if !verr.Fields.Has(tt.wantField) {
				t.Errorf("fields = %v, want error on %q", verr.Fields, tt.wantField)
			}
		})
	}

	var count int
	if err := env.db.Get(&count, `SELECT COUNT(*) FROM recipes`); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 4 {
		t.Errorf("recipes = %d, want 4", count)
	}
	if len(env.s3.uploaded) != 0 {
		t.Errorf("uploaded = %v, want nothing", env.s3.uploaded)
	}
}

func TestUpdateRecipe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := recipes.RecipeRequest{
		Title:       "Tomato soup deluxe",
		Content:     "More tomatoes",
		IsPublished: true,
		Cat:         "2",
		Tags:        []string{"3"},
	}

	if err := env.svc.UpdateRecipe(ctx, "01", req, "u2", nil); !errors.Is(err, recipes.ErrRecipeNotOwned) {
		t.Fatalf("UpdateRecipe(other user) error = %v, want ErrRecipeNotOwned", err)
	}
	if err := env.svc.UpdateRecipe(ctx, "99", req, "u1", nil); !errors.Is(err, recipes.ErrRecipeNotFound) {
		t.Fatalf("UpdateRecipe(missing) error = %v, want ErrRecipeNotFound", err)
	}

	if err := env.svc.UpdateRecipe(ctx, "01", req, "u1", imageHeader("new.png", 100)); err != nil {
		t.Fatalf("UpdateRecipe() unexpected error: %v", err)
	}

	got, err := env.svc.Detail(ctx, "tomato-soup", nil)
	if err != nil {
		t.Fatalf("Detail() unexpected error: %v", err)
	}
	if got.Post.Title != "Tomato soup deluxe" || got.Post.Category.ID != 2 {
		t.Errorf("updated recipe = %+v", got.Post)
	}
	if len(got.Post.Tags) != 1 || got.Post.Tags[0].Slug != "spicy" {
		t.Errorf("tags = %+v, want [spicy]", got.Post.Tags)
	}

	// the old photo is removed in the background
	deadline := time.Now().Add(2 * time.Second)
	for len(env.s3.deletedURLs()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	deleted := env.s3.deletedURLs()
	if len(deleted) != 1 || deleted[0] != "https://bucket.s3.amazonaws.com/photos/1.jpg" {
		t.Errorf("deleted = %v, want old photo", deleted)
	}
}

func TestUpdateRecipeDiscardsPhotoOnFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	trigger := `CREATE TRIGGER reject_quick BEFORE INSERT ON recipe_tags WHEN NEW.tag_id = 2
		BEGIN SELECT RAISE(ABORT, 'tag rejected'); END`
	if _, err := env.db.Exec(trigger); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	req := recipes.RecipeRequest{
		Title:       "Soup base v2",
		IsPublished: true,
		Cat:         "1",
		Tags:        []string{"2"},
	}
	err := env.svc.UpdateRecipe(ctx, "02", req, "u1", imageHeader("fresh.jpg", 100))
	if !errors.Is(err, recipes.ErrUpdateRecipe) {
		t.Fatalf("UpdateRecipe() error = %v, want ErrUpdateRecipe", err)
	}

	deleted := env.s3.deletedURLs()
	if len(deleted) != 1 || deleted[0] != "https://bucket.s3.amazonaws.com/photos/fresh.jpg" {
		t.Errorf("deleted = %v, want the freshly uploaded photo", deleted)
	}

	var title string
	if err := env.db.Get(&title, `SELECT title FROM recipes WHERE id = '02'`); err != nil {
		t.Fatalf("select title: %v", err)
	}
	if title != "Soup base" {
		t.Errorf("title = %q, want the update rolled back", title)
	}
}

func TestDeleteRecipe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.svc.DeleteRecipe(ctx, "01", "u2"); !errors.Is(err, recipes.ErrRecipeNotOwned) {
		t.Fatalf("DeleteRecipe(other user) error = %v, want ErrRecipeNotOwned", err)
	}

	if err := env.svc.DeleteRecipe(ctx, "01", "u1"); err != nil {
		t.Fatalf("DeleteRecipe() unexpected error: %v", err)
	}
	if _, err := env.svc.Detail(ctx, "tomato-soup", nil); !errors.Is(err, recipes.ErrRecipeNotFound) {
		t.Errorf("Detail() after delete error = %v, want ErrRecipeNotFound", err)
	}
	if deleted := env.s3.deletedURLs(); len(deleted) != 1 {
		t.Errorf("deleted = %v, want the recipe photo", deleted)
	}

	var tags int
	if err := env.db.Get(&tags, `SELECT COUNT(*) FROM recipe_tags WHERE recipe_id = '01'`); err != nil {
		t.Fatalf("count tags: %v", err)
	}
	if tags != 0 {
		t.Errorf("recipe_tags rows = %d, want 0", tags)
	}
}

func TestForms(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	form, err := env.svc.NewForm(ctx, anna)
	if err != nil {
		t.Fatalf("NewForm() unexpected error: %v", err)
	}
	if !form.Form.IsPublished || form.Action != "/add" || form.Editing {
		t.Errorf("NewForm() = %+v", form)
	}
	if len(form.Choices.Categories) != 3 || len(form.Choices.Tags) != 3 {
		t.Errorf("choices = %+v, want every category and tag", form.Choices)
	}

	edit, err := env.svc.EditForm(ctx, "01", anna)
	if err != nil {
		t.Fatalf("EditForm() unexpected error: %v", err)
	}
	if edit.Form.Title != "Tomato soup" || !edit.Form.HasTag(2) || edit.Form.HasTag(3) {
		t.Errorf("EditForm() form = %+v", edit.Form)
	}
	if edit.Action != "/post/01/edit" || !edit.Editing {
		t.Errorf("EditForm() action = %q, editing = %v", edit.Action, edit.Editing)
	}

	if _, err := env.svc.EditForm(ctx, "01", bob); !errors.Is(err, recipes.ErrRecipeNotOwned) {
		t.Errorf("EditForm(other user) error = %v, want ErrRecipeNotOwned", err)
	}

	page, err := env.svc.DeletePage(ctx, "04", anna)
	if err != nil {
		t.Fatalf("DeletePage() unexpected error: %v", err)
	}
	if page.Post.Title != "Secret soup" || page.Title != "Delete recipe" {
		t.Errorf("DeletePage() = %+v", page)
	}
}
