package recipes

import "sitecooking/pkg/response"

var (
	ErrRecipeNotFound   = response.NewError(404, "recipe not found")
	ErrCategoryNotFound = response.NewError(404, "category not found")
	ErrTagNotFound      = response.NewError(404, "tag not found")
	ErrPageNotFound     = response.NewError(404, "page not found")
	ErrEmptyListing     = response.NewError(404, "no recipes found")
	ErrRecipeNotOwned   = response.NewError(403, "you are not the author of this recipe")
	ErrSlugTaken        = response.NewError(409, "recipe with this slug already exists")
	ErrCreateRecipe     = response.NewError(500, "failed to create recipe")
	ErrUpdateRecipe     = response.NewError(500, "failed to update recipe")
	ErrDeleteRecipe     = response.NewError(500, "failed to delete recipe")
	ErrFailedToUpload   = response.NewError(500, "failed to upload photo")
)
