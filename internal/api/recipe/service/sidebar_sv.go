package recipeService

import (
	"context"
	"errors"

	"sitecooking/internal/entity"
	contextPkg "sitecooking/pkg/context"
	"sitecooking/pkg/redis"
	"sitecooking/pkg/view"

	"github.com/sirupsen/logrus"
)

const (
	sidebarCategoriesKey = "sidebar:categories"
	sidebarTagsKey       = "sidebar:tags"
)

// Frame builds the shared page frame. Sidebar failures are logged and leave
// the sidebar empty rather than failing the page.
func (s *recipesService) Frame(ctx context.Context, title string, user *entity.UserLoginData, selected view.Selection) view.Frame {
	frame := view.NewFrame(title, user)
	frame.CatSelected = selected

	categories, tags, err := s.sidebar(ctx)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Warn("Failed to load sidebar")
		return frame
	}

	frame.Categories = categories
	frame.Tags = tags
	return frame
}

func (s *recipesService) sidebar(ctx context.Context) ([]view.CategoryLink, []view.TagLink, error) {
	requestID := contextPkg.GetRequestID(ctx)

	var categories []view.CategoryLink
	var tags []view.TagLink

	if s.cache != nil {
		catErr := s.cache.GetJSON(ctx, sidebarCategoriesKey, &categories)
		tagErr := s.cache.GetJSON(ctx, sidebarTagsKey, &tags)
		if catErr == nil && tagErr == nil {
			return categories, tags, nil
		}
		for _, err := range []error{catErr, tagErr} {
			if err != nil && !errors.Is(err, redis.ErrCacheMiss) {
				s.log.WithFields(logrus.Fields{
					"request_id": requestID,
					"error":      err.Error(),
				}).Warn("Sidebar cache read failed, falling back to database")
			}
		}
	}

	repo, err := s.recipesRepo.NewClient(false)
	if err != nil {
		return nil, nil, err
	}

	cats, err := repo.Categories.GetPublishedCategories(ctx)
	if err != nil {
		return nil, nil, err
	}
	tagList, err := repo.Tags.GetPublishedTags(ctx)
	if err != nil {
		return nil, nil, err
	}

	categories = make([]view.CategoryLink, 0, len(cats))
	for _, c := range cats {
		categories = append(categories, view.CategoryLink{ID: c.ID, Name: c.Name, Slug: c.Slug})
	}
	tags = make([]view.TagLink, 0, len(tagList))
	for _, t := range tagList {
		tags = append(tags, view.TagLink{ID: t.ID, Tag: t.Tag, Slug: t.Slug})
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, sidebarCategoriesKey, categories, s.sidebarTTL); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Failed to cache sidebar categories")
		}
		if err := s.cache.SetJSON(ctx, sidebarTagsKey, tags, s.sidebarTTL); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Failed to cache sidebar tags")
		}
	}

	return categories, tags, nil
}

// invalidateSidebar runs after any write that can change which categories
// or tags have published recipes.
func (s *recipesService) invalidateSidebar(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, sidebarCategoriesKey, sidebarTagsKey); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Warn("Failed to invalidate sidebar cache")
	}
}
