package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/api/rpc"
	"github.com/99minutos/auth-service/internal/core/domain"
)

const codeHTTP = "http-error"

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps command error codes to HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the same {"code","message"} envelope the RPC transport uses.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, *rpc.Error) {
	var re *rpc.Error
	if errors.As(err, &re) {
		return statusFor(re.Code), re
	}

	// Echo's own errors (404 from router, middleware rejections, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, &rpc.Error{Code: codeHTTP, Message: fmt.Sprintf("%v", he.Message)}
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, &rpc.Error{Code: rpc.CodeInternal, Message: "Internal server error"}
}

func statusFor(code string) int {
	switch code {
	case domain.ErrUserExists.Code:
		return http.StatusConflict
	case domain.ErrInvalidCredentials.Code, domain.ErrMissingToken.Code, domain.ErrInvalidToken.Code:
		return http.StatusUnauthorized
	case domain.ErrUserNotFound.Code, rpc.CodeUnknownCommand:
		return http.StatusNotFound
	case rpc.CodeValidation, rpc.CodeInvalidPayload:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
