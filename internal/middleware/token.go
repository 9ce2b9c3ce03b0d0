package middleware

import (
	"errors"

	"sitecooking/pkg/handlerUtil"
	jwtPkg "sitecooking/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	AccessTokenSecret = "JWT_ACCESS_TOKEN_SECRET"
)

type tokenMiddleware struct {
	secretEnvKey string
}

func newTokenMiddleware(secretEnvKey string) *tokenMiddleware {
	return &tokenMiddleware{secretEnvKey: secretEnvKey}
}

// NewTokenMiddleware rejects requests without a valid access token.
func (m *middleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	requestID := m.GetRequestID(ctx)

	if err := m.authenticate(ctx); err != nil {
		m.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"client_ip":  ctx.IP(),
			"error":      err.Error(),
		}).Warn("Token verification failed")
		return handlerUtil.New(m.log).HandleUnauthorized(ctx, requestID, "Unauthorized, access token invalid or expired")
	}

	return ctx.Next()
}

// NewOptionalTokenMiddleware identifies the user when a valid token is
// present and lets anonymous requests through.
func (m *middleware) NewOptionalTokenMiddleware(ctx *fiber.Ctx) error {
	if err := m.authenticate(ctx); err != nil && !errors.Is(err, jwtPkg.ErrNoToken) {
		m.log.WithFields(logrus.Fields{
			"request_id": m.GetRequestID(ctx),
			"path":       ctx.Path(),
			"error":      err.Error(),
		}).Debug("Ignoring invalid access token")
	}

	return ctx.Next()
}

func (m *middleware) authenticate(ctx *fiber.Ctx) error {
	accessToken, err := jwtPkg.TokenFromRequest(ctx)
	if err != nil {
		return err
	}

	userToken, err := jwtPkg.Verify(accessToken, m.token.secretEnvKey)
	if err != nil {
		return err
	}

	user, err := jwtPkg.UserFromToken(userToken)
	if err != nil {
		return err
	}

	ctx.Locals("user", user)

	m.log.WithFields(logrus.Fields{
		"request_id": m.GetRequestID(ctx),
		"user_id":    user.ID,
	}).Debug("Authentication successful")
	return nil
}
