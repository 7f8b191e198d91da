package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	detailEmptyText   = "Text input cannot be empty"
	detailInvalidBody = "Request body must be a JSON object with a string field 'text'"
	detailInternal    = "Internal Server Error"
)

// Error is a failure with a client-facing detail message. Cause is logged but
// never sent to the client.
type Error struct {
	Status int
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Detail, e.Cause)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Detail)
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(status int, detail string, cause error) *Error {
	return &Error{Status: status, Detail: detail, Cause: cause}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// errorHandler renders every handler error as {"detail": ...}.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	apiErr := asAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		slog.Error("[API] Request failed",
			slog.String("method", c.Request().Method),
			slog.String("path", c.Request().URL.Path),
			slog.Int("status", apiErr.Status),
			slog.Any("error", err))
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(apiErr.Status)
	} else {
		writeErr = c.JSON(apiErr.Status, errorResponse{Detail: apiErr.Detail})
	}
	if writeErr != nil {
		slog.Error("[API] Failed to write error response", slog.String("error", writeErr.Error()))
	}
}

func asAPIError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		detail := http.StatusText(httpErr.Code)
		if msg, ok := httpErr.Message.(string); ok && msg != "" {
			detail = msg
		}
		if httpErr.Code >= http.StatusInternalServerError {
			detail = detailInternal
		}
		return newError(httpErr.Code, detail, httpErr.Internal)
	}

	return newError(http.StatusInternalServerError, detailInternal, err)
}
