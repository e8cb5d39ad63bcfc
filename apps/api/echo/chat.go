package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/padhaidunia/padhaidunia/core"
	"github.com/padhaidunia/padhaidunia/core/chat"
)

type chatApi struct {
	svc      chat.Service
	validate *validator.Validate
}

func registerChatAPI(g *echo.Group, svc chat.Service, validate *validator.Validate, limiter RateLimiter, logger core.Logger) {
	api := chatApi{svc: svc, validate: validate}

	cg := g.Group("/chat")
	cg.GET("/conversations", api.listConversations)
	cg.GET("/messages", api.listMessages)
	cg.POST("/messages", api.send, rateLimitMiddleware(limiter, logger))
	cg.POST("/seen", api.markSeen)
}

// Handlers

func (api *chatApi) listConversations(ctx echo.Context) error {
	viewer, err := getViewer(ctx)
	if err != nil {
		return err
	}
	var filter chat.ThreadFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to chat.ThreadFilter")
	}

	convs, err := api.svc.ListConversations(ctx.Request().Context(), viewer, filter)
	if err != nil {
		return errors.Wrap(err, "listing conversations")
	}
	if convs == nil {
		convs = []chat.Conversation{}
	}
	return ctx.JSON(http.StatusOK, convs)
}

func (api *chatApi) listMessages(ctx echo.Context) error {
	viewer, err := getViewer(ctx)
	if err != nil {
		return err
	}
	var filter chat.ThreadFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to chat.ThreadFilter")
	}

	msgs, err := api.svc.ListMessages(ctx.Request().Context(), viewer, filter)
	if err != nil {
		return errors.Wrap(err, "listing messages")
	}
	if msgs == nil {
		msgs = []chat.MessageDetail{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *chatApi) send(ctx echo.Context) error {
	viewer, err := getViewer(ctx)
	if err != nil {
		return err
	}
	var data chat.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to chat.NewMessage")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	msg, err := api.svc.Send(ctx.Request().Context(), viewer, data)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusCreated, msg)
}

func (api *chatApi) markSeen(ctx echo.Context) error {
	viewer, err := getViewer(ctx)
	if err != nil {
		return err
	}
	var data chat.SeenRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to chat.SeenRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if _, err := api.svc.MarkSeen(ctx.Request().Context(), viewer, data); err != nil {
		return errors.Wrap(err, "marking messages seen")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true})
}
