package authHandler

import (
	"os"
	"time"

	"sitecooking/internal/api/auth"
	authService "sitecooking/internal/api/auth/service"
	contextPkg "sitecooking/pkg/context"
	"sitecooking/pkg/handlerUtil"
	"sitecooking/pkg/log"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

const oauthStateCookie = "oauth_state"

func (h *AuthHandler) HandleGoogleLogin(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	state := authService.NewState()

	url, err := h.authService.Auth().LoginGoogle(state)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "google_login")
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth/google",
		HTTPOnly: true,
		Secure:   os.Getenv("APP_ENV") == "production",
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(10 * time.Minute),
	})

	return ctx.Redirect(url, fiber.StatusTemporaryRedirect)
}

func (h *AuthHandler) CallBackFromGoogle(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	state := ctx.Query("state")
	if state == "" || state != ctx.Cookies(oauthStateCookie) {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
		}).Warn("Invalid state parameter")
		return errHandler.Handle(ctx, requestID, auth.ErrInvalidOAuthState, ctx.Path(), "google_callback")
	}
	ctx.ClearCookie(oauthStateCookie)

	code := ctx.Query("code")
	if code == "" {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"reason":     ctx.Query("error"),
		}).Info("Google login was not completed")
		return errHandler.HandleUnauthorized(ctx, requestID, "Access denied by user")
	}

	token, err := h.authService.Auth().UserLoginGoogle(c, code)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "google_callback")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		setSessionCookie(ctx, token)
		return ctx.Redirect("/", fiber.StatusFound)
	}
}
