package authHandler

import (
	"errors"
	"os"
	"strings"
	"time"

	"sitecooking/internal/api/auth"
	contextPkg "sitecooking/pkg/context"
	"sitecooking/pkg/handlerUtil"
	jwtPkg "sitecooking/pkg/jwt"
	"sitecooking/pkg/log"
	"sitecooking/pkg/response"
	"sitecooking/pkg/view"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

const allFields = "__all__"

func (h *AuthHandler) LoginPage(ctx *fiber.Ctx) error {
	return view.Render(ctx, fiber.StatusOK, "auth/login", h.loginPage(ctx, ctx.Query("next"), "", nil))
}

func (h *AuthHandler) HandleLogin(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req auth.LoginUserRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, fiber.ErrBadRequest, ctx.Path(), "parse_request_body")
	}

	if fields := h.validator.Struct(req); fields != nil {
		if view.WantsJSON(ctx) {
			return errHandler.HandleValidationError(ctx, requestID, fields, ctx.Path())
		}
		return view.Render(ctx, fiber.StatusOK, "auth/login", h.loginPage(ctx, req.Next, req.Username, fields))
	}

	token, err := h.authService.Auth().Login(c, req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidUsernameOrPassword) && !view.WantsJSON(ctx) {
			fields := response.FieldErrors{}
			fields.Add(allFields, "Please enter a correct username and password.")
			return view.Render(ctx, fiber.StatusOK, "auth/login", h.loginPage(ctx, req.Next, req.Username, fields))
		}
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "login")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"username":   req.Username,
	}).Info("User logged in")

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
	}

	if view.WantsJSON(ctx) {
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, token)
	}

	setSessionCookie(ctx, token)
	return ctx.Redirect(safeNext(req.Next), fiber.StatusFound)
}

func (h *AuthHandler) HandleLogout(ctx *fiber.Ctx) error {
	ctx.Cookie(&fiber.Cookie{
		Name:     jwtPkg.CookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Expires:  time.Unix(0, 0),
	})

	if view.WantsJSON(ctx) {
		return handlerUtil.New(h.log).HandleSuccess(ctx, fiber.StatusOK, fiber.Map{"success": true})
	}
	return ctx.Redirect("/", fiber.StatusFound)
}

func (h *AuthHandler) RegisterPage(ctx *fiber.Ctx) error {
	return view.Render(ctx, fiber.StatusOK, "auth/register", auth.RegisterPage{
		Frame: view.NewFrame("Sign up", jwtPkg.CurrentUser(ctx)),
	})
}

func (h *AuthHandler) HandleRegister(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req auth.RegisterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.Handle(ctx, requestID, fiber.ErrBadRequest, ctx.Path(), "parse_request_body")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	fields := h.validator.Struct(req)

	var user auth.UserResponse
	var token auth.LoginUserResponse
	if fields == nil {
		created, err := h.authService.User().RegisterUser(c, req)
		if err != nil {
			var validationErr *response.ValidationError
			if !errors.As(err, &validationErr) {
				return errHandler.Handle(ctx, requestID, err, ctx.Path(), "register")
			}
			fields = validationErr.Fields
		} else {
			user = auth.UserResponse{ID: created.ID, Username: created.Username, Email: created.Email}
			token, err = h.authService.Auth().IssueToken(created)
			if err != nil {
				return errHandler.Handle(ctx, requestID, err, ctx.Path(), "register")
			}
		}
	}

	if len(fields) > 0 {
		if view.WantsJSON(ctx) {
			return errHandler.HandleValidationError(ctx, requestID, fields, ctx.Path())
		}
		return view.Render(ctx, fiber.StatusOK, "auth/register", auth.RegisterPage{
			Frame:  view.NewFrame("Sign up", nil),
			Form:   auth.RegisterForm{Username: req.Username, Email: req.Email},
			Errors: fields,
		})
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
	}

	if view.WantsJSON(ctx) {
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, fiber.Map{
			"user":  user,
			"token": token,
		})
	}

	setSessionCookie(ctx, token)
	return ctx.Redirect("/", fiber.StatusFound)
}

func (h *AuthHandler) loginPage(ctx *fiber.Ctx, next, username string, fields response.FieldErrors) auth.LoginPage {
	return auth.LoginPage{
		Frame:         view.NewFrame("Log in", jwtPkg.CurrentUser(ctx)),
		Errors:        fields,
		Next:          safeNext(next),
		Username:      username,
		GoogleEnabled: h.authService.Auth().GoogleEnabled(),
	}
}

func setSessionCookie(ctx *fiber.Ctx, token auth.LoginUserResponse) {
	ctx.Cookie(&fiber.Cookie{
		Name:     jwtPkg.CookieName,
		Value:    token.AccessToken,
		Path:     "/",
		HTTPOnly: true,
		Secure:   os.Getenv("APP_ENV") == "production",
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(time.Duration(token.ExpiresInMinutes) * time.Minute),
	})
}

// safeNext only allows redirects to paths on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
