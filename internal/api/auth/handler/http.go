package authHandler

import (
	authService "sitecooking/internal/api/auth/service"
	"sitecooking/internal/middleware"
	"sitecooking/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	log         *logrus.Logger
	authService authService.AuthService
	validator   *validation.Validator
	middleware  middleware.Middleware
}

func New(
	log *logrus.Logger,
	as authService.AuthService,
	validate *validation.Validator,
	middleware middleware.Middleware,
) *AuthHandler {
	return &AuthHandler{
		log:         log,
		authService: as,
		validator:   validate,
		middleware:  middleware,
	}
}

func (h *AuthHandler) Start(srv fiber.Router) {
	srv.Get("/login", h.middleware.NewOptionalTokenMiddleware, h.LoginPage)
	srv.Post("/login", h.middleware.NewRateLimiter, h.HandleLogin)
	srv.Post("/logout", h.HandleLogout)

	srv.Get("/register", h.middleware.NewOptionalTokenMiddleware, h.RegisterPage)
	srv.Post("/register", h.middleware.NewRateLimiter, h.HandleRegister)

	google := srv.Group("/auth/google")
	google.Get("", h.HandleGoogleLogin)
	google.Get("/callback", h.CallBackFromGoogle)
}
