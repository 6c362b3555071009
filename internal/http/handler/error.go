package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"surveyapi/internal/http/middleware"
	"surveyapi/internal/model"
	"surveyapi/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	Error     string              `json:"error"`
	Message   string              `json:"message"`
	Field     string              `json:"field,omitempty"`
	State     model.InstanceState `json:"state,omitempty"`
	RequestID string              `json:"request_id"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		Error:     code,
		Message:   message,
		RequestID: requestIDFromCtx(c),
	})
}

// fail translates a service error into its HTTP response. Unknown errors are
// logged with the request id and answered with a generic 500.
func fail(c *fiber.Ctx, err error) error {
	var (
		verr    *service.ValidationError
		notOpen *service.NotOpenError
	)
	switch {
	case errors.As(err, &verr):
		code := verr.Code
		if code == "" {
			code = "VALIDATION_ERROR"
		}
		return c.Status(fiber.StatusBadRequest).JSON(errorPayload{
			Error:     code,
			Message:   verr.Message,
			Field:     verr.Field,
			RequestID: requestIDFromCtx(c),
		})
	case errors.As(err, &notOpen):
		return c.Status(fiber.StatusForbidden).JSON(errorPayload{
			Error:     "INSTANCE_NOT_OPEN",
			Message:   notOpen.Error(),
			State:     notOpen.State,
			RequestID: requestIDFromCtx(c),
		})
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrForbidden):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return writeError(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error())
	case errors.Is(err, service.ErrAccountInactive):
		return writeError(c, fiber.StatusForbidden, "ACCOUNT_INACTIVE", err.Error())
	case errors.Is(err, service.ErrInvalidToken):
		return writeError(c, fiber.StatusBadRequest, "INVALID_TOKEN", err.Error())
	case errors.Is(err, service.ErrAlreadyCompleted):
		return writeError(c, fiber.StatusBadRequest, "ALREADY_COMPLETED", err.Error())
	case errors.Is(err, service.ErrAlreadyClosed):
		return writeError(c, fiber.StatusBadRequest, "ALREADY_CLOSED", err.Error())
	case errors.Is(err, service.ErrNotClosed):
		return writeError(c, fiber.StatusBadRequest, "NOT_CLOSED", err.Error())
	}

	slog.Default().ErrorContext(c.UserContext(), "request_failed",
		"request_id", requestIDFromCtx(c),
		"method", c.Method(),
		"path", c.Path(),
		"error", err.Error(),
	)
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := ""
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
			message = fe.Message
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHENTICATED", message)
		case fiber.StatusForbidden:
			return writeError(c, status, "FORBIDDEN", message)
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		case fiber.StatusServiceUnavailable:
			return writeError(c, status, "SERVICE_UNAVAILABLE", message)
		default:
			slog.Default().ErrorContext(c.UserContext(), "unhandled_error",
				"request_id", requestIDFromCtx(c),
				"path", c.Path(),
				"error", err.Error(),
			)
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
}

// logFailure records an error the client is not told about.
func logFailure(c *fiber.Ctx, event string, err error) {
	slog.Default().WarnContext(c.UserContext(), event,
		"request_id", requestIDFromCtx(c),
		"path", c.Path(),
		"error", err.Error(),
	)
}
