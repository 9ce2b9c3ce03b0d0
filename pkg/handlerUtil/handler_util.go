package handlerUtil

import (
	"errors"
	"net/url"

	jwtPkg "sitecooking/pkg/jwt"
	"sitecooking/pkg/log"
	"sitecooking/pkg/response"
	"sitecooking/pkg/view"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

const errorTemplate = "errors/error"

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

type ErrorPage struct {
	view.Frame
	Status  int    `json:"status"`
	Message string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	fields := log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}

	var validationErr *response.ValidationError
	if errors.As(err, &validationErr) {
		return h.HandleValidationError(c, requestID, validationErr.Fields, path)
	}

	var respErr *response.Error
	if errors.As(err, &respErr) && respErr.Code < fiber.StatusInternalServerError {
		fields["code"] = respErr.Code
		h.logger.WithFields(fields).Warn("Operation failed with error response")
		return h.render(c, respErr.Code, respErr.Error(), "")
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
		h.logger.WithFields(fields).Warn("Operation failed with framework error")
		return h.render(c, fiberErr.Code, fiberErr.Message, "")
	}

	traceID := log.ErrorWithTraceID(fields, "Unexpected error")
	return h.render(c, fiber.StatusInternalServerError, "An unexpected error occurred", traceID)
}

// HandleValidationError answers script clients with the per-field messages.
// Browser forms render their own inline errors and never reach this.
func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, requestID string, fields response.FieldErrors, path string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"fields":     fields,
		"path":       path,
	}).Warn("Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"errors":  fields,
	})
}

func (h *ErrorHandler) HandleRequestTimeout(c *fiber.Ctx) error {
	return h.render(c, fiber.StatusRequestTimeout, utils.StatusMessage(fiber.StatusRequestTimeout), "")
}

// HandleUnauthorized sends browsers to the login page and remembers where
// they were going.
func (h *ErrorHandler) HandleUnauthorized(c *fiber.Ctx, requestID string, message string) error {
	h.logger.WithFields(log.Fields{
		"request_id": requestID,
		"path":       c.Path(),
		"message":    message,
	}).Warn("Unauthorized access")

	if !view.WantsJSON(c) {
		return c.Redirect("/login?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
	}

	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error: message,
		Code:  "UNAUTHORIZED",
	})
}

func (h *ErrorHandler) HandleNotFound(c *fiber.Ctx) error {
	return h.render(c, fiber.StatusNotFound, "Page not found", "")
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}

func (h *ErrorHandler) render(c *fiber.Ctx, status int, message string, traceID string) error {
	if view.WantsJSON(c) {
		return c.Status(status).JSON(ErrorResponse{Error: message, TraceID: traceID})
	}

	return view.Render(c, status, errorTemplate, ErrorPage{
		Frame:   view.NewFrame(message, jwtPkg.CurrentUser(c)),
		Status:  status,
		Message: message,
		TraceID: traceID,
	})
}
