package recipeService

import (
	"context"
	"errors"
	"html/template"
	"net/url"
	"strings"

	"sitecooking/internal/api/recipe"
	recipeRepository "sitecooking/internal/api/recipe/repository"
	"sitecooking/internal/entity"
	contextPkg "sitecooking/pkg/context"
	"sitecooking/pkg/markdown"
	"sitecooking/pkg/utils"
	"sitecooking/pkg/view"

	"github.com/sirupsen/logrus"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *recipesService) Listing(ctx context.Context, scope recipes.Scope, order recipes.Order, page string, user *entity.UserLoginData) (*recipes.ListingContext, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.recipesRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, err
	}

	filter := recipeRepository.ListFilter{
		PublishedOnly: scope.Kind != recipes.ScopeAuthor,
		Order:         scope.EffectiveOrder(order),
	}

	var scopeName string
	var categoryID int64

	switch scope.Kind {
	case recipes.ScopeCategory:
		category, err := repo.Categories.GetCategoryBySlug(ctx, scope.Slug)
		if err != nil {
			return nil, err
		}
		filter.CategoryID = category.ID
		categoryID = category.ID
		scopeName = category.Name
	case recipes.ScopeTag:
		tag, err := repo.Tags.GetTagBySlug(ctx, scope.Slug)
		if err != nil {
			return nil, err
		}
		filter.TagID = tag.ID
		scopeName = tag.Tag
	case recipes.ScopeAuthor:
		filter.AuthorID = scope.AuthorID
	}

	total, err := repo.Recipes.CountRecipes(ctx, filter)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"scope":      scope,
			"error":      err.Error(),
		}).Error("Failed to count recipes")
		return nil, err
	}

	if total == 0 && !scope.AllowsEmpty() {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"slug":       scope.Slug,
		}).Warn("Listing has no published recipes")
		return nil, recipes.ErrEmptyListing
	}

	pageInfo, err := recipes.Paginate(total, scope.PageSize(), page, scope.PagePolicy())
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"page":       page,
			"total":      total,
		}).Warn("Requested page is out of range")
		return nil, err
	}

	list := []entity.Recipe{}
	if total > 0 {
		list, err = repo.Recipes.ListRecipes(ctx, filter, pageInfo.PerPage, pageInfo.Offset())
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"scope":      scope,
				"error":      err.Error(),
			}).Error("Failed to list recipes")
			return nil, err
		}
	}

	title := recipes.ListingTitle(scope, scopeName)
	result := &recipes.ListingContext{
		Frame: s.Frame(ctx, title, user, recipes.Selection(scope, categoryID)),
		Posts: s.withPresignedPhotos(ctx, recipes.NewRecipeResponses(list)),
		Page:  pageInfo,
	}

	if scope.Orderable() {
		result.ShowFilterForm = true
		result.FilterForm = recipes.NewFilterForm(filter.Order)
		if filter.Order != recipes.OrderDefault {
			result.Page = pageInfo.WithQuery(url.Values{"order": {string(filter.Order)}})
		}
	}

	return result, nil
}

// Search matches the capitalised query against published titles. An empty
// query finds nothing.
func (s *recipesService) Search(ctx context.Context, query string, user *entity.UserLoginData) (*recipes.SearchContext, error) {
	requestID := contextPkg.GetRequestID(ctx)

	result := &recipes.SearchContext{
		Frame:   s.Frame(ctx, "Search results", user, view.Selection{}),
		Results: []recipes.RecipeResponse{},
		Query:   query,
	}

	term := utils.Capitalize(strings.TrimSpace(query))
	if term == "" {
		return result, nil
	}

	repo, err := s.recipesRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, err
	}

	found, err := repo.Recipes.SearchPublishedRecipes(ctx, "%"+likeEscaper.Replace(term)+"%")
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"query":      query,
			"error":      err.Error(),
		}).Error("Failed to search recipes")
		return nil, err
	}

	result.Results = s.withPresignedPhotos(ctx, recipes.NewRecipeResponses(found))
	return result, nil
}

func (s *recipesService) Detail(ctx context.Context, slug string, user *entity.UserLoginData) (*recipes.DetailContext, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.recipesRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, err
	}

	recipe, err := repo.Recipes.GetPublishedRecipeBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, recipes.ErrRecipeNotFound) {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"slug":       slug,
				"error":      err.Error(),
			}).Error("Failed to get recipe")
		}
		return nil, err
	}

	recipe.Tags, err = repo.Tags.GetTagsForRecipe(ctx, recipe.ID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"id":         recipe.ID,
			"error":      err.Error(),
		}).Error("Failed to get recipe tags")
		return nil, err
	}

	content, err := markdown.ToHTML(recipe.Content)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"id":         recipe.ID,
			"error":      err.Error(),
		}).Warn("Failed to render recipe content, showing it as text")
		content = template.HTML(template.HTMLEscapeString(recipe.Content))
	}

	post := recipes.NewRecipeResponse(recipe)
	post.Photo = s.presign(ctx, post.ID, post.Photo)

	return &recipes.DetailContext{
		Frame:       s.Frame(ctx, recipe.Title, user, view.Selection{}),
		Post:        post,
		ContentHTML: content,
		CanEdit:     user != nil && recipe.AuthorID == user.ID,
	}, nil
}

func (s *recipesService) withPresignedPhotos(ctx context.Context, list []recipes.RecipeResponse) []recipes.RecipeResponse {
	for i := range list {
		list[i].Photo = s.presign(ctx, list[i].ID, list[i].Photo)
	}
	return list
}

// presign keeps the stored URL when signing fails.
func (s *recipesService) presign(ctx context.Context, id string, photo string) string {
	if photo == "" || s.s3Client == nil {
		return photo
	}

	signed, err := s.s3Client.PresignUrl(photo)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"id":         id,
			"photo":      photo,
			"error":      err.Error(),
		}).Warn("Failed to create presigned URL for photo")
		return photo
	}
	return signed
}
