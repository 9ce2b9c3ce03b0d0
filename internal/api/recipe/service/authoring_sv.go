package recipeService

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"time"

	"sitecooking/internal/api/recipe"
	recipeRepository "sitecooking/internal/api/recipe/repository"
	"sitecooking/internal/entity"
	contextPkg "sitecooking/pkg/context"
	"sitecooking/pkg/response"
	"sitecooking/pkg/utils"
	"sitecooking/pkg/view"

	"github.com/sirupsen/logrus"
)

const (
	msgInvalidCategory = "Select a valid category"
	msgInvalidTags     = "Select valid tags"
	msgSlugTaken       = "A recipe with this URL already exists"
	msgPhotoTooLarge   = "Photo must be at most 5MB"
	msgPhotoType       = "Upload a valid image: jpg, jpeg, png, gif or webp"
)

func (s *recipesService) NewForm(ctx context.Context, user *entity.UserLoginData) (*recipes.FormContext, error) {
	form := &recipes.FormContext{
		Frame:  view.NewFrame("Add recipe", user),
		Form:   recipes.EmptyForm(),
		Action: "/add",
	}
	if err := s.prepareForm(ctx, form); err != nil {
		return nil, err
	}
	return form, nil
}

func (s *recipesService) EditForm(ctx context.Context, id string, user *entity.UserLoginData) (*recipes.FormContext, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.recipesRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, err
	}

	recipe, err := s.ownedRecipe(ctx, repo, id, user.ID)
	if err != nil {
		return nil, err
	}

	recipe.Tags, err = repo.Tags.GetTagsForRecipe(ctx, recipe.ID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"id":         id,
			"error":      err.Error(),
		}).Error("Failed to get recipe tags")
		return nil, err
	}

	form := &recipes.FormContext{
		Frame:   view.NewFrame("Edit recipe", user),
		Form:    recipes.FormFromRecipe(recipe),
		Action:  "/post/" + recipe.ID + "/edit",
		Editing: true,
	}
	if err := s.prepareForm(ctx, form); err != nil {
		return nil, err
	}
	return form, nil
}

// prepareForm fills in the sidebar and the category and tag choices.
func (s *recipesService) prepareForm(ctx context.Context, form *recipes.FormContext) error {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.recipesRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return err
	}

	categories, err := repo.Categories.GetAllCategories(ctx)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to get categories")
		return err
	}

	tags, err := repo.Tags.GetAllTags(ctx)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to get tags")
		return err
	}

	choices := recipes.FormChoices{
		Categories: make([]view.CategoryLink, 0, len(categories)),
		Tags:       make([]view.TagLink, 0, len(tags)),
	}
	for _, c := range categories {
		choices.Categories = append(choices.Categories, view.CategoryLink{ID: c.ID, Name: c.Name, Slug: c.Slug})
	}
	for _, t := range tags {
		choices.Tags = append(choices.Tags, view.TagLink{ID: t.ID, Tag: t.Tag, Slug: t.Slug})
	}

	var user *entity.UserLoginData
	if form.User != nil {
		user = &entity.UserLoginData{ID: form.User.ID, Username: form.User.Username}
	}
	form.Frame = s.Frame(ctx, form.Title, user, view.Selection{})
	form.Choices = choices
	return nil
}

func (s *recipesService) DeletePage(ctx context.Context, id string, user *entity.UserLoginData) (*recipes.DeleteContext, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.recipesRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return nil, err
	}

	recipe, err := s.ownedRecipe(ctx, repo, id, user.ID)
	if err != nil {
		return nil, err
	}

	return &recipes.DeleteContext{
		Frame: s.Frame(ctx, "Delete recipe", user, view.Selection{}),
		Post:  recipes.NewRecipeResponse(recipe),
	}, nil
}

// CreateRecipe stores a new recipe written by userID and returns its id.
// Rejected input comes back as a *response.ValidationError.
func (s *recipesService) CreateRecipe(ctx context.Context, req recipes.RecipeRequest, userID string, photo *multipart.FileHeader) (string, error) {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.recipesRepo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return "", err
	}
	defer repo.Rollback()

	fields, err := s.checkReferences(ctx, repo, req, photo)
	if err != nil {
		return "", err
	}

	if req.Slug != "" {
		taken, err := repo.Recipes.SlugExists(ctx, req.Slug, "")
		if err != nil {
			return "", err
		}
		if taken {
			fields.Add("slug", msgSlugTaken)
		}
	}

	if len(fields) > 0 {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"fields":     fields,
		}).Warn("Recipe rejected")
		return "", response.NewValidationError(fields)
	}

	created := time.Now().UTC()
	recipeID, err := s.utils.NewULIDFromTimestamp(created)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate ULID")
		return "", err
	}

	slug := req.Slug
	if slug == "" {
		slug, err = s.deriveSlug(ctx, repo, req.Title, recipeID)
		if err != nil {
			return "", err
		}
	}

	photoURL, err := s.uploadPhoto(ctx, photo)
	if err != nil {
		return "", err
	}

	now := created.Truncate(time.Second)
	recipe := entity.Recipe{
		ID:          recipeID,
		Title:       req.Title,
		Slug:        slug,
		Content:     req.Content,
		Photo:       photoURL,
		IsPublished: req.IsPublished,
		TimeCreate:  now,
		TimeUpdate:  now,
		CatID:       req.CatID(),
		AuthorID:    userID,
	}

	if err := repo.Recipes.CreateRecipe(ctx, recipe); err != nil {
		s.discardPhoto(ctx, photoURL)
		if errors.Is(err, recipes.ErrSlugTaken) {
			fields.Add("slug", msgSlugTaken)
			return "", response.NewValidationError(fields)
		}
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create recipe")
		return "", recipes.ErrCreateRecipe
	}

	if err := repo.Recipes.SetRecipeTags(ctx, recipeID, req.TagIDs()); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"id":         recipeID,
			"error":      err.Error(),
		}).Error("Failed to set recipe tags")
		s.discardPhoto(ctx, photoURL)
		return "", recipes.ErrCreateRecipe
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit transaction")
		s.discardPhoto(ctx, photoURL)
		return "", recipes.ErrCreateRecipe
	}

	s.invalidateSidebar(ctx)

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"id":         recipeID,
		"author_id":  userID,
	}).Info("Recipe created")

	return recipeID, nil
}

// UpdateRecipe edits a recipe owned by userID. The slug never changes.
func (s *recipesService) UpdateRecipe(ctx context.Context, id string, req recipes.RecipeRequest, userID string, photo *multipart.FileHeader) error {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.recipesRepo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return err
	}
	defer repo.Rollback()

	existing, err := s.ownedRecipe(ctx, repo, id, userID)
	if err != nil {
		return err
	}

	fields, err := s.checkReferences(ctx, repo, req, photo)
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"id":         id,
			"fields":     fields,
		}).Warn("Recipe update rejected")
		return response.NewValidationError(fields)
	}

	photoURL := existing.Photo
	if photo != nil {
		photoURL, err = s.uploadPhoto(ctx, photo)
		if err != nil {
			return err
		}
	}

	updated := existing
	updated.Title = req.Title
	updated.Content = req.Content
	updated.Photo = photoURL
	updated.IsPublished = req.IsPublished
	updated.CatID = req.CatID()
	updated.TimeUpdate = time.Now().UTC().Truncate(time.Second)

	if err := repo.Recipes.UpdateRecipe(ctx, updated); err != nil {
		s.discardNewPhoto(ctx, photoURL, existing.Photo)
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"id":         id,
			"error":      err.Error(),
		}).Error("Failed to update recipe")
		return recipes.ErrUpdateRecipe
	}

	if err := repo.Recipes.SetRecipeTags(ctx, id, req.TagIDs()); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"id":         id,
			"error":      err.Error(),
		}).Error("Failed to set recipe tags")
		s.discardNewPhoto(ctx, photoURL, existing.Photo)
		return recipes.ErrUpdateRecipe
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit transaction")
		s.discardNewPhoto(ctx, photoURL, existing.Photo)
		return recipes.ErrUpdateRecipe
	}

	if existing.Photo != "" && photoURL != existing.Photo {
		oldPhoto := existing.Photo
		go func() {
			bg, cancel := context.WithTimeout(contextPkg.WithRequestID(context.Background(), requestID), 30*time.Second)
			defer cancel()
			s.discardPhoto(bg, oldPhoto)
		}()
	}

	s.invalidateSidebar(ctx)
	return nil
}

func (s *recipesService) DeleteRecipe(ctx context.Context, id string, userID string) error {
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.recipesRepo.NewClient(true)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return err
	}
	defer repo.Rollback()

	existing, err := s.ownedRecipe(ctx, repo, id, userID)
	if err != nil {
		return err
	}

	if err := repo.Recipes.DeleteRecipe(ctx, id); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"id":         id,
			"error":      err.Error(),
		}).Error("Failed to delete recipe")
		return recipes.ErrDeleteRecipe
	}

	if err := repo.Commit(); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to commit transaction")
		return recipes.ErrDeleteRecipe
	}

	s.discardPhoto(ctx, existing.Photo)
	s.invalidateSidebar(ctx)
	return nil
}

func (s *recipesService) ownedRecipe(ctx context.Context, repo recipeRepository.Client, id string, userID string) (entity.Recipe, error) {
	requestID := contextPkg.GetRequestID(ctx)

	recipe, err := repo.Recipes.GetRecipeByID(ctx, id)
	if err != nil {
		if !errors.Is(err, recipes.ErrRecipeNotFound) {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"id":         id,
				"error":      err.Error(),
			}).Error("Failed to get recipe")
		}
		return entity.Recipe{}, err
	}

	if recipe.AuthorID != userID {
		s.log.WithFields(logrus.Fields{
			"request_id":   requestID,
			"id":           id,
			"author_id":    recipe.AuthorID,
			"request_user": userID,
		}).Warn("User is not the author of the recipe")
		return entity.Recipe{}, recipes.ErrRecipeNotOwned
	}

	return recipe, nil
}

// checkReferences validates what the struct tags cannot: the category and
// tags must exist and the photo must be an acceptable image.
func (s *recipesService) checkReferences(ctx context.Context, repo recipeRepository.Client, req recipes.RecipeRequest, photo *multipart.FileHeader) (response.FieldErrors, error) {
	fields := response.FieldErrors{}

	if _, err := repo.Categories.GetCategoryByID(ctx, req.CatID()); err != nil {
		if !errors.Is(err, recipes.ErrCategoryNotFound) {
			return nil, err
		}
		fields.Add("cat", msgInvalidCategory)
	}

	tagIDs := req.TagIDs()
	if len(tagIDs) > 0 {
		found, err := repo.Tags.GetTagsByIDs(ctx, tagIDs)
		if err != nil {
			return nil, err
		}
		if len(found) != len(tagIDs) {
			fields.Add("tags", msgInvalidTags)
		}
	}

	if photo != nil {
		switch err := s.utils.ValidateImageFile(photo); {
		case err == nil:
		case errors.Is(err, utils.ErrFileTooLarge):
			fields.Add("photo", msgPhotoTooLarge)
		default:
			fields.Add("photo", msgPhotoType)
		}
	}

	return fields, nil
}

// deriveSlug turns the title into a slug and appends part of the recipe id
// when the plain form is taken.
func (s *recipesService) deriveSlug(ctx context.Context, repo recipeRepository.Client, title string, recipeID string) (string, error) {
	base := s.utils.Slugify(title)
	if base == "" {
		base = "recipe"
	}

	taken, err := repo.Recipes.SlugExists(ctx, base, "")
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}

	return base + "-" + strings.ToLower(recipeID[len(recipeID)-6:]), nil
}

func (s *recipesService) uploadPhoto(ctx context.Context, photo *multipart.FileHeader) (string, error) {
	if photo == nil {
		return "", nil
	}
	if s.s3Client == nil {
		return "", recipes.ErrFailedToUpload
	}

	url, err := s.s3Client.UploadFile(ctx, photo)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Error("Failed to upload photo")
		return "", recipes.ErrFailedToUpload
	}
	return url, nil
}

func (s *recipesService) discardPhoto(ctx context.Context, photoURL string) {
	if photoURL == "" || s.s3Client == nil {
		return
	}
	if err := s.s3Client.DeleteFile(ctx, photoURL); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"photo":      photoURL,
			"error":      err.Error(),
		}).Warn("Failed to delete photo")
	}
}

// discardNewPhoto removes photoURL unless it is the photo the recipe already had.
func (s *recipesService) discardNewPhoto(ctx context.Context, photoURL, previous string) {
	if photoURL == previous {
		return
	}
	s.discardPhoto(ctx, photoURL)
}
