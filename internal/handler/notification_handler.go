package handler

import (
	"net/http"
	"strconv"

	"github.com/josealejferFB/krizo-backend/internal/logger"
	"github.com/josealejferFB/krizo-backend/internal/service"
	"github.com/josealejferFB/krizo-backend/pkg/api"
	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	svc service.NotificationService
	log logger.ILogger
}

func NewNotificationHandler(svc service.NotificationService, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{svc: svc, log: log}
}

func (h *NotificationHandler) List(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	unreadOnly := c.QueryParam("unread_only") == "true"
	limit := 20
	if lStr := c.QueryParam("limit"); lStr != "" {
		if lParsed, err := strconv.Atoi(lStr); err == nil && lParsed > 0 {
			limit = lParsed
		}
	}
	list, unreadCount, err := h.svc.List(c.Request().Context(), uid, unreadOnly, limit)
	if err != nil {
		return fail(c, h.log, err)
	}
	resp := api.NotificationList{Items: make([]api.Notification, 0, len(list)), UnreadCount: unreadCount}
	for _, n := range list {
		resp.Items = append(resp.Items, toNotification(n))
	}
	return ok(c, http.StatusOK, resp)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	if err := h.svc.MarkAllRead(c.Request().Context(), uid); err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, nil)
}
