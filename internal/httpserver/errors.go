package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sweet_shop/internal/service"
	"github.com/Skotchmaster/sweet_shop/internal/transport"
	"github.com/Skotchmaster/sweet_shop/pkg/logging"
	middleware "github.com/Skotchmaster/sweet_shop/pkg/middleware/auth"
)

// Error kinds sent in the "error" field.
const (
	KindInvalidRequest     = "Invalid request"
	KindAuthFailed         = "Authentication failed"
	KindInvalidCredentials = "Invalid credentials"
	KindRegistrationFailed = "Registration failed"
	KindInternal           = "Internal server error"
)

type kindError string

func (k kindError) Error() string { return string(k) }

// withKind overrides the kind errorKind would pick from the status code.
func withKind(he *echo.HTTPError, kind string) *echo.HTTPError {
	return he.SetInternal(kindError(kind))
}

func errorKind(code int, err error) string {
	var k kindError
	if errors.As(err, &k) {
		return string(k)
	}
	switch code {
	case http.StatusBadRequest:
		return KindInvalidRequest
	case http.StatusUnauthorized:
		return KindAuthFailed
	case http.StatusInternalServerError:
		return KindInternal
	}
	return http.StatusText(code)
}

// ErrorHandler renders every error as {"error": ..., "message": ...}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		case nil:
			msg = http.StatusText(code)
		default:
			msg = fmt.Sprint(m)
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, transport.ErrorResponse{
		Error:   errorKind(code, err),
		Message: msg,
	})
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("id %q is not a positive integer", c.Param("id"))
	}
	return uint(id), nil
}

func userIDFrom(c echo.Context) (uint, error) {
	s, ok := c.Get(middleware.CtxUserID).(string)
	if !ok || s == "" {
		return 0, errors.New("unauthorized")
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.New("unauthorized")
	}
	return uint(id), nil
}

// serviceError maps service sentinels onto HTTP statuses and logs them once.
func serviceError(c echo.Context, event string, err error, internalMsg string) error {
	l := logging.FromContext(c.Request().Context())
	switch {
	case errors.Is(err, service.ErrValidation):
		l.Warn(event, "status", 400, "reason", service.Reason(err))
		return echo.NewHTTPError(http.StatusBadRequest, service.Reason(err))
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 404, "reason", service.Reason(err))
		return echo.NewHTTPError(http.StatusNotFound, service.Reason(err))
	case errors.Is(err, service.ErrConflict):
		l.Warn(event, "status", 409, "reason", service.Reason(err))
		return echo.NewHTTPError(http.StatusConflict, service.Reason(err))
	default:
		l.Error(event, "status", 500, "reason", internalMsg, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, internalMsg)
	}
}
