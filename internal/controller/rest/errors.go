package rest

import (
	"errors"
	"net/http"

	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	CodeNotFound        = "NotFound"
	CodeAlreadyBooked   = "AlreadyBooked"
	CodeNotCancelable   = "NotCancelable"
	CodeInvalidArgument = "InvalidArgument"
	CodeInternal        = "Internal"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// requestError is a failure detected by a handler before any service call.
type requestError struct {
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(msg string) error {
	return &requestError{message: msg}
}

// statusFor maps an error to its HTTP status and code.
func statusFor(err error) (int, string) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, CodeInvalidArgument
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, service.ErrAlreadyBooked):
		return http.StatusBadRequest, CodeAlreadyBooked
	case errors.Is(err, service.ErrNotCancelable):
		return http.StatusBadRequest, CodeNotCancelable
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest, CodeInvalidArgument
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// NewErrorHandler renders handler errors as ErrorResponse. Echo's own errors
// (unknown route, wrong method) keep their status.
func NewErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			status int
			body   ErrorResponse
		)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			body = ErrorResponse{Message: http.StatusText(he.Code), Code: http.StatusText(he.Code)}
			if msg, ok := he.Message.(string); ok {
				body.Message = msg
			}
		} else {
			var code string
			status, code = statusFor(err)
			body = ErrorResponse{Message: err.Error(), Code: code}
		}

		if status >= http.StatusInternalServerError {
			logger.Error("Request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err))
			body = ErrorResponse{Message: "internal server error", Code: CodeInternal}
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.Error("Failed to write error response", zap.Error(writeErr))
		}
	}
}
