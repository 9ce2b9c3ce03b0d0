package recipeHandler

import (
	"time"

	"sitecooking/internal/api/recipe"
	contextPkg "sitecooking/pkg/context"
	"sitecooking/pkg/handlerUtil"
	jwtPkg "sitecooking/pkg/jwt"
	"sitecooking/pkg/log"
	"sitecooking/pkg/view"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *RecipesHandler) Home(ctx *fiber.Ctx) error {
	return h.listing(ctx, recipes.HomeScope(), "recipes/index", "home")
}

func (h *RecipesHandler) Category(ctx *fiber.Ctx) error {
	return h.listing(ctx, recipes.CategoryScope(ctx.Params("slug")), "recipes/index", "category")
}

func (h *RecipesHandler) Tag(ctx *fiber.Ctx) error {
	return h.listing(ctx, recipes.TagScope(ctx.Params("slug")), "recipes/index", "tag")
}

func (h *RecipesHandler) About(ctx *fiber.Ctx) error {
	return h.listing(ctx, recipes.AboutScope(), "recipes/about", "about")
}

func (h *RecipesHandler) UserPosts(ctx *fiber.Ctx) error {
	user, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return handlerUtil.New(h.log).HandleUnauthorized(ctx, h.middleware.GetRequestID(ctx), "Unauthorized")
	}
	return h.listing(ctx, recipes.AuthorScope(user.ID), "recipes/user_posts", "user_posts")
}

func (h *RecipesHandler) listing(ctx *fiber.Ctx, scope recipes.Scope, name string, operation string) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"operation":  operation,
	}).Debug("Processing listing request")

	order := recipes.ParseOrder(ctx.Query("order"))

	result, err := h.recipesService.Listing(c, scope, order, ctx.Query("page"), jwtPkg.CurrentUser(ctx))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), operation)
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return view.Render(ctx, fiber.StatusOK, name, result)
	}
}

func (h *RecipesHandler) Detail(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	result, err := h.recipesService.Detail(c, ctx.Params("slug"), jwtPkg.CurrentUser(ctx))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_recipe")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return view.Render(ctx, fiber.StatusOK, "recipes/post", result)
	}
}

func (h *RecipesHandler) Search(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"query":      ctx.Query("q"),
	}).Debug("Processing search request")

	result, err := h.recipesService.Search(c, ctx.Query("q"), jwtPkg.CurrentUser(ctx))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "search_recipes")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return view.Render(ctx, fiber.StatusOK, "recipes/search_results", result)
	}
}
