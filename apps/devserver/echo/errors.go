package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core"
	"github.com/trezcool/preceptor/core/user"
	backendsvc "github.com/trezcool/preceptor/services/backend"
)

var (
	errUnauthorized     = newHTTPError(http.StatusUnauthorized, "general_unauthorized_scope", "User (role: guests) missing scope (account)")
	errProjectNotFound  = newHTTPError(http.StatusNotFound, "project_not_found", "Project with the requested ID could not be found.")
	errSessionNotFound  = newHTTPError(http.StatusNotFound, "user_session_not_found", "The current user session could not be found.")
	errFunctionNotFound = newHTTPError(http.StatusNotFound, "function_not_found", "Function with the requested ID could not be found.")
	errInvalidBody      = newHTTPError(http.StatusBadRequest, "general_argument_invalid", "Invalid request body.")
)

// newHTTPError builds an echo.HTTPError whose message is the body sent to the client.
func newHTTPError(code int, typ, msg string) *echo.HTTPError {
	return echo.NewHTTPError(code, backendsvc.Error{Message: msg, Code: code, Type: typ})
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that renders every error as
// {message, code, type}.
func newAppHTTPErrorHandler(logger core.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var body backendsvc.Error

		var vErr *core.ValidationError
		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			switch {
			case origErr == middleware.ErrJWTMissing:
				body = errUnauthorized.Message.(backendsvc.Error)
			case origErr.Code == http.StatusUnauthorized:
				body = errUnauthorized.Message.(backendsvc.Error)
			default:
				if b, ok := origErr.Message.(backendsvc.Error); ok {
					body = b
				} else {
					body = backendsvc.Error{Code: origErr.Code, Type: "general_unknown", Message: http.StatusText(origErr.Code)}
				}
			}
		default:
			switch {
			case errors.As(err, &vErr):
				body = backendsvc.Error{Code: http.StatusBadRequest, Type: "general_argument_invalid", Message: vErr.Error()}
			case errors.Is(err, user.ErrUserExists):
				body = backendsvc.Error{Code: http.StatusConflict, Type: "user_already_exists", Message: user.ErrUserExists.Error()}
			case errors.Is(err, user.ErrInvalidCredentials):
				body = backendsvc.Error{Code: http.StatusUnauthorized, Type: "user_invalid_credentials", Message: user.ErrInvalidCredentials.Error()}
			default: // any other error is a server error
				msg := http.StatusText(http.StatusInternalServerError)
				body = backendsvc.Error{Code: http.StatusInternalServerError, Type: "general_server_error", Message: msg}

				if usr, uErr := getContextUser(ctx); uErr == nil {
					logger.Error(msg, errors.Wrap(err, msg), usr.Account())
				} else {
					logger.Error(msg, errors.Wrap(err, msg))
				}
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(body.Code)
			} else {
				err = ctx.JSON(body.Code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
