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

type QuoteHandler struct {
	svc      service.QuoteService
	payments service.PaymentService
	log      logger.ILogger
}

func NewQuoteHandler(svc service.QuoteService, payments service.PaymentService, log logger.ILogger) *QuoteHandler {
	return &QuoteHandler{svc: svc, payments: payments, log: log}
}

func (h *QuoteHandler) Create(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var body api.CreateQuoteBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, msgBadBody)
	}
	q, err := h.svc.Submit(c.Request().Context(), uid, workflow.NewQuote{
		RequestID:     body.RequestID,
		WorkerID:      body.WorkerID,
		ClientID:      body.ClientID,
		Services:      body.Services,
		TransportFee:  body.TransportFee,
		TotalPrice:    body.TotalPrice,
		EstimatedTime: body.EstimatedTime,
		Notes:         body.Notes,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusCreated, toQuote(q))
}

func (h *QuoteHandler) Get(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "Cotización no válida")
	}
	q, err := h.svc.Get(c.Request().Context(), id, uid)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, toQuote(q))
}

func (h *QuoteHandler) Respond(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "Cotización no válida")
	}
	var body api.StatusBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, msgBadBody)
	}
	decision := workflow.QuoteStatus(strings.ToLower(strings.TrimSpace(body.Status)))
	q, err := h.svc.Respond(c.Request().Context(), id, uid, decision)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, toQuote(q))
}

// Pay is the quote-scoped variant of POST /payments; the quote id comes from the path.
func (h *QuoteHandler) Pay(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "Cotización no válida")
	}
	var body api.SubmitPaymentBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, msgBadBody)
	}
	in := toPaymentInput(body)
	in.QuoteID = id
	p, err := h.payments.Submit(c.Request().Context(), uid, in)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusCreated, toPayment(p))
}
