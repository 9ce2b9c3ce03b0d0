package recipes

import (
	"html/template"
	"strconv"
	"strings"
	"time"

	"sitecooking/internal/entity"
	"sitecooking/pkg/response"
	"sitecooking/pkg/view"
)

const excerptWords = 40

// RecipeRequest is the authoring form as submitted. Category and tag ids stay
// strings until validated so bad input becomes a field error.
type RecipeRequest struct {
	Title       string   `json:"title" form:"title" validate:"required,min=5,max=255"`
	Slug        string   `json:"slug" form:"slug" validate:"omitempty,max=255,slug"`
	Content     string   `json:"content" form:"content"`
	IsPublished bool     `json:"is_published" form:"is_published"`
	Cat         string   `json:"cat" form:"cat" validate:"required,number"`
	Tags        []string `json:"tags" form:"tags" validate:"dive,number"`
}

func (r RecipeRequest) CatID() int64 {
	id, _ := strconv.ParseInt(r.Cat, 10, 64)
	return id
}

func (r RecipeRequest) TagIDs() []int64 {
	ids := make([]int64, 0, len(r.Tags))
	seen := make(map[int64]bool, len(r.Tags))
	for _, raw := range r.Tags {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// Form is the authoring form as echoed back to the page.
func (r RecipeRequest) Form() RecipeForm {
	return RecipeForm{
		Title:       r.Title,
		Slug:        r.Slug,
		Content:     r.Content,
		IsPublished: r.IsPublished,
		CatID:       r.CatID(),
		TagIDs:      r.TagIDs(),
	}
}

type RecipeForm struct {
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Content     string  `json:"content"`
	IsPublished bool    `json:"is_published"`
	CatID       int64   `json:"cat"`
	TagIDs      []int64 `json:"tags"`
}

// EmptyForm is a fresh authoring form. New recipes are published by default.
func EmptyForm() RecipeForm {
	return RecipeForm{IsPublished: true}
}

func FormFromRecipe(r entity.Recipe) RecipeForm {
	form := RecipeForm{
		Title:       r.Title,
		Slug:        r.Slug,
		Content:     r.Content,
		IsPublished: r.IsPublished,
		CatID:       r.CatID,
	}
	for _, t := range r.Tags {
		form.TagIDs = append(form.TagIDs, t.ID)
	}
	return form
}

func (f RecipeForm) HasTag(id int64) bool {
	for _, t := range f.TagIDs {
		if t == id {
			return true
		}
	}
	return false
}

type RecipeResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Content     string            `json:"content"`
	Photo       string            `json:"photo"`
	IsPublished bool              `json:"is_published"`
	TimeCreate  time.Time         `json:"time_create"`
	TimeUpdate  time.Time         `json:"time_update"`
	AuthorID    string            `json:"author_id,omitempty"`
	Category    view.CategoryLink `json:"cat"`
	Tags        []view.TagLink    `json:"tags"`
}

func NewRecipeResponse(r entity.Recipe) RecipeResponse {
	tags := make([]view.TagLink, 0, len(r.Tags))
	for _, t := range r.Tags {
		tags = append(tags, view.TagLink{ID: t.ID, Tag: t.Tag, Slug: t.Slug})
	}

	return RecipeResponse{
		ID:          r.ID,
		Title:       r.Title,
		Slug:        r.Slug,
		Content:     r.Content,
		Photo:       r.Photo,
		IsPublished: r.IsPublished,
		TimeCreate:  r.TimeCreate,
		TimeUpdate:  r.TimeUpdate,
		AuthorID:    r.AuthorID,
		Category: view.CategoryLink{
			ID:   r.Category.ID,
			Name: r.Category.Name,
			Slug: r.Category.Slug,
		},
		Tags: tags,
	}
}

func NewRecipeResponses(list []entity.Recipe) []RecipeResponse {
	out := make([]RecipeResponse, 0, len(list))
	for _, r := range list {
		out = append(out, NewRecipeResponse(r))
	}
	return out
}

// Excerpt is the first words of the content for listing cards.
func (r RecipeResponse) Excerpt() string {
	words := strings.Fields(r.Content)
	if len(words) <= excerptWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:excerptWords], " ") + "..."
}

type ListingContext struct {
	view.Frame
	Posts          []RecipeResponse `json:"posts"`
	Page           PageInfo         `json:"page_obj"`
	ShowFilterForm bool             `json:"show_filter_form,omitempty"`
	FilterForm     *FilterForm      `json:"filter_form,omitempty"`
}

type DetailContext struct {
	view.Frame
	Post        RecipeResponse `json:"post"`
	ContentHTML template.HTML  `json:"content_html"`
	CanEdit     bool           `json:"can_edit"`
}

type SearchContext struct {
	view.Frame
	Results []RecipeResponse `json:"results"`
	Query   string           `json:"query"`
}

type FormChoices struct {
	Categories []view.CategoryLink `json:"categories"`
	Tags       []view.TagLink      `json:"tags"`
}

type FormContext struct {
	view.Frame
	Form    RecipeForm           `json:"form"`
	Errors  response.FieldErrors `json:"errors,omitempty"`
	Success bool                 `json:"success"`
	Message string               `json:"message,omitempty"`
	Choices FormChoices          `json:"choices"`
	Action  string               `json:"-"`
	Editing bool                 `json:"-"`
}

type DeleteContext struct {
	view.Frame
	Post RecipeResponse `json:"post"`
}

// MsgRecipeCreated is shown above the emptied form after a browser create.
const MsgRecipeCreated = "The recipe was added successfully!"

type SavedResponse struct {
	Success bool   `json:"success"`
	PostID  string `json:"post_id,omitempty"`
}
