package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/padhaidunia/padhaidunia/core/notification"
)

type notificationApi struct {
	svc      notification.Service
	validate *validator.Validate
}

func registerNotificationAPI(g *echo.Group, svc notification.Service, validate *validator.Validate) {
	api := notificationApi{svc: svc, validate: validate}

	ng := g.Group("/notifications")
	ng.GET("", api.list)
	ng.PATCH("", api.markRead)
	ng.GET("/unread-count", api.unreadCount)
}

// Handlers

func (api *notificationApi) list(ctx echo.Context) error {
	viewer, err := getViewer(ctx)
	if err != nil {
		return err
	}
	var filter notification.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to notification.QueryFilter")
	}

	notifs, err := api.svc.List(ctx.Request().Context(), viewer.ID, filter)
	if err != nil {
		return errors.Wrap(err, "listing notifications")
	}
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *notificationApi) unreadCount(ctx echo.Context) error {
	viewer, err := getViewer(ctx)
	if err != nil {
		return err
	}
	count, err := api.svc.UnreadCount(ctx.Request().Context(), viewer.ID)
	if err != nil {
		return errors.Wrap(err, "counting unread notifications")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"count": count})
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	viewer, err := getViewer(ctx)
	if err != nil {
		return err
	}
	var data notification.MarkRead
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to notification.MarkRead")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	n, err := api.svc.MarkRead(ctx.Request().Context(), viewer.ID, data)
	if err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "updated": n})
}
