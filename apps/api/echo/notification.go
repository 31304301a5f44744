package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lms/core/notification"
)

type notificationApi struct {
	svc *notification.Service
}

func registerNotificationAPI(app *echo.Echo, auth authenticator, svc *notification.Service) {
	api := notificationApi{svc: svc}

	ng := app.Group("/notifications", auth.middlewares()...)
	ng.GET("", api.query)
	ng.GET("/unread-count", api.unreadCount)
	ng.PATCH("/read-all", api.markAllRead)
	ng.PATCH("/:id/read", api.markRead)
}

func (api *notificationApi) query(ctx echo.Context) error {
	unread, err := queryBool(ctx, "unread")
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	notifs, err := api.svc.List(ctx.Request().Context(), usr.ID, unread != nil && *unread)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *notificationApi) unreadCount(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	count, err := api.svc.UnreadCount(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "counting notifications")
	}
	return ctx.JSON(http.StatusOK, count)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	n, err := api.svc.MarkRead(ctx.Request().Context(), usr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *notificationApi) markAllRead(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	marked, err := api.svc.MarkAllRead(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	return ctx.JSON(http.StatusOK, MarkedResponse{Marked: marked})
}
