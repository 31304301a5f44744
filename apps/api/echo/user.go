package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/core/user"
)

type userApi struct {
	svc  *user.Service
	auth authenticator
}

func registerUserAPI(app *echo.Echo, auth authenticator, svc *user.Service) {
	api := userApi{svc: svc, auth: auth}

	// un-authed endpoints
	app.POST("/login", api.login)
	app.POST("/signup", api.signup)

	// admin endpoints
	ag := app.Group("/admin/users", append(auth.middlewares(), typeMiddleware(user.TypeAdmin))...)
	ag.GET("", api.query)
	ag.POST("", api.create)
	ag.PATCH("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	data.Email = core.CleanString(data.Email, true /* lower */)
	if data.Email == "" || data.Password == "" {
		return user.ErrInvalidCredentials
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.auth.generateToken(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{User: usr, Token: token})
}

func (api *userApi) signup(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	usr, err := api.svc.Signup(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "signing up")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	isActive, err := queryBool(ctx, "is_active")
	if err != nil {
		return err
	}
	filter := &user.QueryFilter{
		Search:   ctx.QueryParam("search"),
		Types:    queryList(ctx, "type"),
		IsActive: isActive,
	}
	filter.Clean()

	users, err := api.svc.Query(ctx.Request().Context(), filter, bindOrdering(ctx, user.OrderingFields...))
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}

	// an admin cannot deactivate or demote themselves
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if ctx.Param("id") == ctxUsr.ID {
		if (data.IsActive != nil && !*data.IsActive) || (data.Type != "" && data.Type != user.TypeAdmin) {
			return errHttpForbidden
		}
	}

	usr, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	// Say No to Suicide! ctxUser cannot delete themselves
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if ctx.Param("id") == ctxUsr.ID {
		return errHttpForbidden
	}

	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding user")
	}
	if err = api.svc.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}
