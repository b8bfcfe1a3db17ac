package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	apperrors "usermanager/internal/errors"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that renders every
// failure as an apperrors.ErrorResponse. Errors outside the taxonomy are
// logged and reported as a generic 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, apperrors.ErrorResponse) {
	// Echo's own errors (bind failures, unknown routes, bad ids)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			if mapped, ok := apperrors.MapErrorToHTTP(he.Internal); ok {
				return mapped.StatusCode, mapped.ToErrorResponse()
			}
		}
		return he.Code, apperrors.ErrorResponse{
			Error: fmt.Sprintf("%v", he.Message),
			Code:  statusCode(he.Code),
		}
	}

	mapped, known := apperrors.MapErrorToHTTP(err)
	if !known {
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("unhandled error")
	}
	return mapped.StatusCode, mapped.ToErrorResponse()
}

// statusCode turns "Not Found" into "NOT_FOUND".
func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}
