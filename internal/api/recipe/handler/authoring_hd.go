package recipeHandler

import (
	"errors"
	"mime/multipart"
	"time"

	"sitecooking/internal/api/recipe"
	contextPkg "sitecooking/pkg/context"
	"sitecooking/pkg/handlerUtil"
	jwtPkg "sitecooking/pkg/jwt"
	"sitecooking/pkg/log"
	"sitecooking/pkg/response"
	"sitecooking/pkg/view"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

const formTemplate = "recipes/addpage"

func (h *RecipesHandler) AddPage(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	form, err := h.recipesService.NewForm(c, &user)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "add_page")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return view.Render(ctx, fiber.StatusOK, formTemplate, form)
	}
}

// CreateRecipe answers scripts with the new id, or 400 and the field errors.
// Browsers get the form back: emptied with a success note, or refilled with
// inline errors.
func (h *RecipesHandler) CreateRecipe(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing create recipe request")

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	req, fields := h.parseRecipeRequest(ctx)

	var recipeID string
	if len(fields) == 0 {
		recipeID, err = h.recipesService.CreateRecipe(c, req, user.ID, photoFrom(ctx))
		if err != nil {
			var validationErr *response.ValidationError
			if !errors.As(err, &validationErr) {
				return errHandler.Handle(ctx, requestID, err, ctx.Path(), "create_recipe")
			}
			fields = validationErr.Fields
		}
	}

	if len(fields) > 0 {
		if view.WantsJSON(ctx) {
			return errHandler.HandleValidationError(ctx, requestID, fields, ctx.Path())
		}

		form, err := h.recipesService.NewForm(c, &user)
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "create_recipe")
		}
		form.Form = req.Form()
		form.Errors = fields
		return view.Render(ctx, fiber.StatusOK, formTemplate, form)
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
	}

	if view.WantsJSON(ctx) {
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, recipes.SavedResponse{
			Success: true,
			PostID:  recipeID,
		})
	}

	form, err := h.recipesService.NewForm(c, &user)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "create_recipe")
	}
	form.Success = true
	form.Message = recipes.MsgRecipeCreated
	return view.Render(ctx, fiber.StatusOK, formTemplate, form)
}

func (h *RecipesHandler) EditPage(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	form, err := h.recipesService.EditForm(c, ctx.Params("id"), &user)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "edit_page")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return view.Render(ctx, fiber.StatusOK, formTemplate, form)
	}
}

func (h *RecipesHandler) UpdateRecipe(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	id := ctx.Params("id")
	req, fields := h.parseRecipeRequest(ctx)

	if len(fields) == 0 {
		err = h.recipesService.UpdateRecipe(c, id, req, user.ID, photoFrom(ctx))
		if err != nil {
			var validationErr *response.ValidationError
			if !errors.As(err, &validationErr) {
				return errHandler.Handle(ctx, requestID, err, ctx.Path(), "update_recipe")
			}
			fields = validationErr.Fields
		}
	}

	if len(fields) > 0 {
		// the edit form also checks that the user owns the recipe
		form, err := h.recipesService.EditForm(c, id, &user)
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "update_recipe")
		}
		if view.WantsJSON(ctx) {
			return errHandler.HandleValidationError(ctx, requestID, fields, ctx.Path())
		}
		form.Form = req.Form()
		form.Errors = fields
		return view.Render(ctx, fiber.StatusOK, formTemplate, form)
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
	}

	if view.WantsJSON(ctx) {
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, recipes.SavedResponse{
			Success: true,
			PostID:  id,
		})
	}
	return ctx.Redirect("/", fiber.StatusFound)
}

func (h *RecipesHandler) DeletePage(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	page, err := h.recipesService.DeletePage(c, ctx.Params("id"), &user)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "delete_page")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return view.Render(ctx, fiber.StatusOK, "recipes/delete_post", page)
	}
}

func (h *RecipesHandler) DeleteRecipe(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	if err := h.recipesService.DeleteRecipe(c, ctx.Params("id"), user.ID); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "delete_recipe")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
	}

	if view.WantsJSON(ctx) {
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, recipes.SavedResponse{Success: true})
	}
	return ctx.Redirect("/", fiber.StatusFound)
}

func (h *RecipesHandler) parseRecipeRequest(ctx *fiber.Ctx) (recipes.RecipeRequest, response.FieldErrors) {
	var req recipes.RecipeRequest
	if err := ctx.BodyParser(&req); err != nil {
		h.log.WithFields(log.Fields{
			"request_id": h.middleware.GetRequestID(ctx),
			"error":      err.Error(),
		}).Warn("Failed to parse recipe form")
		return req, response.FieldErrors{"__all__": {"Invalid form data"}}
	}
	return req, h.validator.Struct(req)
}

// photoFrom returns the uploaded photo, or nil when the field was left empty.
func photoFrom(ctx *fiber.Ctx) *multipart.FileHeader {
	photo, err := ctx.FormFile("photo")
	if err != nil || photo.Filename == "" {
		return nil
	}
	return photo
}
