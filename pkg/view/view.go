// Package view renders pages with the fiber html engine and carries the page
// frame every page shares: menu, sidebar, current user and selected category.
package view

import (
	"embed"
	"io/fs"
	"net/http"
	"strconv"

	"sitecooking/internal/entity"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	jsoniter "github.com/json-iterator/go"
)

const Layout = "layouts/main"

//go:embed templates
var templatesFS embed.FS

func NewEngine() *html.Engine {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}

	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("add", func(a, b int) int { return a + b })
	return engine
}

type MenuItem struct {
	Title string `json:"title"`
	URL   string `json:"url_name"`
}

var Menu = []MenuItem{
	{Title: "About", URL: "/about"},
	{Title: "Add recipe", URL: "/add"},
}

type CategoryLink struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type TagLink struct {
	ID   int64  `json:"id"`
	Tag  string `json:"tag"`
	Slug string `json:"slug"`
}

type CurrentUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Selection is the sidebar's highlighted category. The zero value selects
// nothing and encodes as null.
type Selection struct {
	set bool
	id  int64
}

// SelectAll highlights the "all categories" entry.
func SelectAll() Selection {
	return Selection{set: true}
}

func SelectCategory(id int64) Selection {
	return Selection{set: true, id: id}
}

func (s Selection) IsAll() bool {
	return s.set && s.id == 0
}

func (s Selection) Is(id int64) bool {
	return s.set && s.id == id
}

func (s Selection) MarshalJSON() ([]byte, error) {
	if !s.set {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(s.id, 10)), nil
}

func (s *Selection) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Selection{}
		return nil
	}
	var id int64
	if err := jsoniter.Unmarshal(data, &id); err != nil {
		return err
	}
	*s = SelectCategory(id)
	return nil
}

type Frame struct {
	Title       string         `json:"title"`
	Menu        []MenuItem     `json:"menu"`
	User        *CurrentUser   `json:"user"`
	Categories  []CategoryLink `json:"cats"`
	Tags        []TagLink      `json:"tags"`
	CatSelected Selection      `json:"cat_selected"`
}

func NewFrame(title string, user *entity.UserLoginData) Frame {
	f := Frame{
		Title: title,
		Menu:  Menu,
	}
	if user != nil {
		f.User = &CurrentUser{ID: user.ID, Username: user.Username}
	}
	return f
}

// WantsJSON reports whether the caller is a script rather than a browser.
func WantsJSON(c *fiber.Ctx) bool {
	if IsAjax(c) {
		return true
	}
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}

func IsAjax(c *fiber.Ctx) bool {
	return c.Get("X-Requested-With") == "XMLHttpRequest"
}

// Render writes data as JSON for script clients and as the named template
// inside the main layout otherwise.
func Render(c *fiber.Ctx, status int, name string, data interface{}) error {
	if WantsJSON(c) {
		return c.Status(status).JSON(data)
	}
	return c.Status(status).Render(name, data, Layout)
}
