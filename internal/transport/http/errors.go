package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog/internal/logging"
	"github.com/Skotchmaster/blog/internal/service"
)

// ErrorHandler is the only place error kinds become status codes.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, detail := translate(err)
	if status == http.StatusUnauthorized {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	}
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "error", err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, ErrorResponse{Detail: detail})
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("error_response_failed", "error", werr)
	}
}

// StatusOf reports the status ErrorHandler writes for err.
func StatusOf(err error) int {
	status, _ := translate(err)
	return status
}

func translate(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusUnprocessableEntity, service.Detail(err)
	case errors.Is(err, service.ErrConflict):
		return http.StatusBadRequest, service.Detail(err)
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, service.Detail(err)
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, service.Detail(err)
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, service.Detail(err)
	case errors.As(err, &he):
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		if he.Message != nil {
			return he.Code, fmt.Sprint(he.Message)
		}
		return he.Code, http.StatusText(he.Code)
	default:
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
}
