package handler

import (
	"net/http"
	"strings"

	"github.com/josealejferFB/krizo-backend/internal/logger"
	"github.com/josealejferFB/krizo-backend/internal/service"
	"github.com/josealejferFB/krizo-backend/pkg/api"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
	"github.com/labstack/echo/v4"
)

type ChatHandler struct {
	svc service.ChatService
	log logger.ILogger
}

func NewChatHandler(svc service.ChatService, log logger.ILogger) *ChatHandler {
	return &ChatHandler{svc: svc, log: log}
}

func (h *ChatHandler) ListSessions(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	list, err := h.svc.ListSessions(c.Request().Context(), uid)
	if err != nil {
		return fail(c, h.log, err)
	}
	resp := make([]api.ChatSession, 0, len(list))
	for i := range list {
		resp = append(resp, toSession(&list[i]))
	}
	return ok(c, http.StatusOK, resp)
}

// Search answers data:null when the pair never opened a chat.
func (h *ChatHandler) Search(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	cs, err := h.svc.Search(c.Request().Context(), uid, c.QueryParam("client_id"), c.QueryParam("worker_id"))
	if err != nil {
		return fail(c, h.log, err)
	}
	if cs == nil {
		return ok(c, http.StatusOK, nil)
	}
	return ok(c, http.StatusOK, toSession(cs))
}

func (h *ChatHandler) CreateSession(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var body api.CreateSessionBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, msgBadBody)
	}
	cs, err := h.svc.FindOrCreate(c.Request().Context(), uid, body.ClientID, body.WorkerID, body.ServiceType)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, toSession(cs))
}

func (h *ChatHandler) UpdateAgreedPrice(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "Chat no válido")
	}
	var body api.AgreedPriceBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, msgBadBody)
	}
	cs, err := h.svc.UpdateAgreedPrice(c.Request().Context(), uid, id, body.AgreedPrice)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, toSession(cs))
}

func (h *ChatHandler) Messages(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, valid := paramID(c, "sessionId")
	if !valid {
		return badRequest(c, "Chat no válido")
	}
	viewer := workflow.SenderType(strings.ToLower(c.QueryParam("sender_type")))
	msgs, err := h.svc.FetchMessages(c.Request().Context(), uid, id, viewer)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, toMessages(msgs))
}

func (h *ChatHandler) Send(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var body api.SendMessageBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, msgBadBody)
	}
	if body.SessionID == 0 {
		return badRequest(c, "Chat no válido")
	}
	msg, err := h.svc.SendMessage(c.Request().Context(), uid, body.SessionID, body.SenderType, body.Message)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusCreated, toMessage(msg))
}

func (h *ChatHandler) Purchase(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var body api.PurchaseRequestBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, msgBadBody)
	}
	if body.SessionID == 0 {
		return badRequest(c, "Chat no válido")
	}
	msg, err := h.svc.SendPurchaseRequest(c.Request().Context(), uid, body.SessionID, body.ProductDetails)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusCreated, toMessage(msg))
}

func (h *ChatHandler) PurchaseDecision(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, valid := paramID(c, "messageId")
	if !valid {
		return badRequest(c, "Mensaje no válido")
	}
	var body api.PurchaseDecisionBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, msgBadBody)
	}
	decision := workflow.PurchaseStatus(strings.ToLower(strings.TrimSpace(string(body.Action))))
	msg, err := h.svc.RespondToPurchase(c.Request().Context(), uid, id, decision)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, toMessage(msg))
}
