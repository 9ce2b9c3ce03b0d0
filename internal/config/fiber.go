package config

import (
	"errors"

	"sitecooking/internal/middleware"
	"sitecooking/pkg/handlerUtil"
	"sitecooking/pkg/view"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

func NewFiber(logger *logrus.Logger) *fiber.App {
	app := fiber.New(
		fiber.Config{
			AppName:           "Sitecooking",
			BodyLimit:         10 * 1024 * 1024,
			DisableKeepalive:  false,
			StrictRouting:     false,
			CaseSensitive:     true,
			EnablePrintRoutes: false,
			JSONEncoder:       jsoniter.Marshal,
			JSONDecoder:       jsoniter.Unmarshal,
			Views:             view.NewEngine(),
			ErrorHandler:      errorHandler(logger),
		})

	return app
}

// errorHandler catches errors that escape the handlers, such as body limit
// violations and panics turned into errors.
func errorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		errHandler := handlerUtil.New(logger)

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) && fiberErr.Code == fiber.StatusNotFound {
			return errHandler.HandleNotFound(ctx)
		}

		requestID, _ := ctx.Locals(middleware.RequestIDKey).(string)
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "unhandled")
	}
}
