package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ApiError carries an HTTP status alongside a client-safe message. Any
// other error surfaces as a plain 500 without leaking internals.
type ApiError struct {
	Status  int
	Code    string
	Message string
	Errs    interface{}
}

func (e *ApiError) Error() string {
	return e.Message
}

func NewApiError(status int, code string, message string) *ApiError {
	return &ApiError{Status: status, Code: code, Message: message}
}

func NewValidationError(message string, errs interface{}) *ApiError {
	return &ApiError{Status: fiber.StatusBadRequest, Code: "VALIDATION_FAILED", Message: message, Errs: errs}
}

func NewUnauthorizedError(message string) *ApiError {
	return NewApiError(fiber.StatusUnauthorized, "UNAUTHORIZED", message)
}

func NewForbiddenError(message string) *ApiError {
	return NewApiError(fiber.StatusForbidden, "FORBIDDEN", message)
}

func NewNotFoundError(message string) *ApiError {
	return NewApiError(fiber.StatusNotFound, "NOT_FOUND", message)
}

func NewBadRequestError(code string, message string) *ApiError {
	return NewApiError(fiber.StatusBadRequest, code, message)
}

// NewContentUnavailableError signals that a document's stored bytes are
// gone, e.g. a reprocess after a restart with the memory driver.
func NewContentUnavailableError(message string) *ApiError {
	return NewApiError(fiber.StatusBadRequest, "CONTENT_UNAVAILABLE", message)
}

// NewAIUnavailableError signals that the AI provider failed to answer.
// Chat has no fallback answer, the client should retry.
func NewAIUnavailableError(message string) *ApiError {
	return NewApiError(fiber.StatusServiceUnavailable, "AI_UNAVAILABLE", message)
}

// ErrorHandlerMiddleware converts errors returned from handlers into
// the standard JSON envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var apiErr *ApiError
		if errors.As(err, &apiErr) {
			resp := ErrorResponse(apiErr.Message, apiErr.Errs)
			return ctx.Status(apiErr.Status).JSON(resp)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message, nil))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("Internal server error", nil))
	}
}
