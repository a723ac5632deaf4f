package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Kuroson/cs3900-project-sub002/core"
	"github.com/Kuroson/cs3900-project-sub002/core/user"
)

type userApi struct {
	opts *Options
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := userApi{opts: opts}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/register", api.register)
	ug.POST("/login", api.login)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.GET("", api.query)
	ag.GET("/me", api.retrieveSelf)
	ag.PUT("/:id/instructor", api.setInstructor)
	ag.POST("/avatar", api.purchaseAvatar)

	g.GET("/avatars", api.queryAvatars, jwt)
}

// Handlers

// register creates a student account. Instructor rights are granted separately
// by an existing instructor.
func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	data.Role = user.RoleStudent
	if err := data.Validate(api.opts.UserSvc); err != nil {
		return err
	}

	usr, err := api.opts.UserSvc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	token, err := authenticate(data.Email, data.Password, api.opts.UserSvc, api.opts.Verifier)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) query(ctx echo.Context) error {
	users, err := api.opts.UserSvc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) retrieveSelf(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.opts.UserSvc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) setInstructor(ctx echo.Context) error {
	var data InstructorGrantRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to InstructorGrantRequest")
	}

	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	usr, err := api.opts.UserSvc.SetInstructor(actorID, ctx.Param("id"), data.Grant)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) purchaseAvatar(ctx echo.Context) error {
	var data AvatarPurchaseRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AvatarPurchaseRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	actorID, err := getContextUserID(ctx)
	if err != nil {
		return err
	}
	usr, err := api.opts.Ledger.PurchaseAvatar(actorID, data.Avatar)
	if err != nil {
		return err
	}
	ctx.Set(contextUserKey, usr) // balance changed
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) queryAvatars(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.opts.Catalog.Avatars())
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	InstructorGrantRequest struct {
		Grant bool `json:"grant"`
	}

	AvatarPurchaseRequest struct {
		Avatar string `json:"avatar" validate:"required"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return core.Validate.Struct(lr)
}

func (ar *AvatarPurchaseRequest) Validate() error {
	ar.Avatar = core.CleanString(ar.Avatar, true /* lower */)
	return core.Validate.Struct(ar)
}
