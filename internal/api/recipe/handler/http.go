package recipeHandler

import (
	recipeService "sitecooking/internal/api/recipe/service"
	"sitecooking/internal/middleware"
	"sitecooking/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type RecipesHandler struct {
	log            *logrus.Logger
	validator      *validation.Validator
	middleware     middleware.Middleware
	recipesService recipeService.IRecipesService
}

func New(
	log *logrus.Logger,
	validate *validation.Validator,
	middleware middleware.Middleware,
	rs recipeService.IRecipesService,
) *RecipesHandler {
	return &RecipesHandler{
		log:            log,
		validator:      validate,
		middleware:     middleware,
		recipesService: rs,
	}
}

func (h *RecipesHandler) Start(srv fiber.Router) {
	optional := h.middleware.NewOptionalTokenMiddleware
	required := h.middleware.NewTokenMiddleware

	// Public pages
	srv.Get("/", optional, h.Home)
	srv.Get("/category/:slug", optional, h.Category)
	srv.Get("/tag/:slug", optional, h.Tag)
	srv.Get("/post/:slug", optional, h.Detail)
	srv.Get("/search", optional, h.Search)

	// Pages for signed in users
	srv.Get("/about", required, h.About)
	srv.Get("/user/posts", required, h.UserPosts)

	srv.Get("/add", required, h.AddPage)
	srv.Post("/add", required, h.middleware.NewRateLimiter, h.CreateRecipe)

	srv.Get("/post/:id/edit", required, h.EditPage)
	srv.Post("/post/:id/edit", required, h.middleware.NewRateLimiter, h.UpdateRecipe)

	srv.Get("/post/:id/delete", required, h.DeletePage)
	srv.Post("/post/:id/delete", required, h.DeleteRecipe)
}
