package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lms/core/message"
)

type messageApi struct {
	svc *message.Service
}

func registerMessageAPI(app *echo.Echo, auth authenticator, svc *message.Service) {
	api := messageApi{svc: svc}

	mg := app.Group("/messages", auth.middlewares()...)
	mg.POST("/send", api.send)
	mg.GET("/contacts", api.contacts)
	mg.GET("/conversation", api.conversation)
}

func (api *messageApi) send(ctx echo.Context) error {
	var data message.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	msg, err := api.svc.Send(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusCreated, msg)
}

func (api *messageApi) contacts(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	contacts, err := api.svc.Contacts(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying contacts")
	}
	return ctx.JSON(http.StatusOK, contacts)
}

func (api *messageApi) conversation(ctx echo.Context) error {
	after, err := queryTime(ctx, "after")
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	msgs, err := api.svc.Conversation(ctx.Request().Context(), usr, message.ConversationFilter{
		ContactID: ctx.QueryParam("contact_id"),
		CourseID:  ctx.QueryParam("course_id"),
		After:     after,
	})
	if err != nil {
		return errors.Wrap(err, "querying conversation")
	}
	return ctx.JSON(http.StatusOK, msgs)
}
