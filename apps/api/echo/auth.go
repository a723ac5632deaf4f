package echoapi

import (
	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Kuroson/cs3900-project-sub002/core"
	"github.com/Kuroson/cs3900-project-sub002/core/user"
	"github.com/Kuroson/cs3900-project-sub002/services/auth"
)

var (
	// appJWTConfig is the default JWT auth middleware config.
	appJWTConfig = middleware.JWTConfig{
		SigningKey:    []byte(core.Conf.GetString("secretKey")),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "userToken",
		Claims:        new(authsvc.Claims),
	}
	contextUserKey = "user"
)

func authenticate(email, pwd string, svc *user.Service, verifier *authsvc.Verifier) (string, error) {
	usr, err := svc.GetByEmail(email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", errAuthenticationFailed
		}
		return "", errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return "", errAuthenticationFailed
	}
	return verifier.Issue(usr)
}

func getContextClaims(ctx echo.Context) (authsvc.Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*authsvc.Claims); ok {
			return *claims, nil
		}
	}
	return authsvc.Claims{}, errUnauthorized
}

// getContextUserID returns the authenticated user's id without a store lookup.
func getContextUserID(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func getContextUser(ctx echo.Context, svc *user.Service) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, err
	}
	usr, err := svc.GetByID(claims.Subject)
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}
