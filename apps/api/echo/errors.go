package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Kuroson/cs3900-project-sub002/core"
	"github.com/Kuroson/cs3900-project-sub002/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that maps the
// service error taxonomy onto HTTP statuses. Access denials carry their stable
// reason code in the payload so clients can branch on it.
func newAppHTTPErrorHandler(logger core.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		var (
			httpErr   *echo.HTTPError
			fieldErrs validator.ValidationErrors
			valErr    *core.ValidationError
			forbidden *core.ForbiddenError
		)
		switch {
		case errors.As(err, &httpErr):
			if httpErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = httpErr.Message
				break
			}
			if httpErr.Internal != nil {
				if herr, ok := httpErr.Internal.(*echo.HTTPError); ok {
					httpErr = herr
				}
			}
			code = httpErr.Code
			message = httpErr.Message
		case errors.As(err, &fieldErrs):
			fldErrs := make(map[string]string, len(fieldErrs))
			for _, vErr := range fieldErrs {
				fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case errors.As(err, &valErr):
			if valErr.Fields != nil {
				fldErrs := make(map[string]string, len(valErr.Fields))
				for _, fErr := range valErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = valErr.Error()
			}
			code = http.StatusBadRequest
		case errors.As(err, &forbidden):
			code = http.StatusForbidden
			message = echo.Map{"error": "permission denied", "reason": forbidden.Reason}
		case errors.Is(err, core.ErrNotFound):
			code = http.StatusNotFound
			message = errors.Cause(err).Error()
		case errors.Is(err, core.ErrConflict):
			code = http.StatusConflict
			message = errors.Cause(err).Error()
		case errors.Is(err, core.ErrInvalid):
			code = http.StatusBadRequest
			message = errors.Cause(err).Error()
		case errors.Is(err, core.ErrForbidden):
			code = http.StatusForbidden
			message = "permission denied"
		case errors.Is(err, core.ErrDependency):
			code = http.StatusServiceUnavailable
			message = "a dependency is unavailable, try again later"
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID = claims.Subject
				usr.Name = claims.Name
				usr.Email = claims.Email
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
