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

type RequestHandler struct {
	svc    service.RequestService
	quotes service.QuoteService
	log    logger.ILogger
}

func NewRequestHandler(svc service.RequestService, quotes service.QuoteService, log logger.ILogger) *RequestHandler {
	return &RequestHandler{svc: svc, quotes: quotes, log: log}
}

func (h *RequestHandler) Create(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var body api.CreateRequestBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, msgBadBody)
	}
	if body.ClientID != "" && body.ClientID != uid {
		return fail(c, h.log, workflow.Forbiddenf("Solo puedes crear solicitudes a tu nombre"))
	}
	req, err := h.svc.Create(c.Request().Context(), workflow.NewRequest{
		ClientID:           uid,
		WorkerID:           body.WorkerID,
		ServiceType:        body.ServiceType,
		ProblemDescription: body.ProblemDescription,
		VehicleInfo:        body.VehicleInfo,
		UrgencyLevel:       body.UrgencyLevel,
		Coordinates:        body.Coordinates,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusCreated, toRequest(req))
}

// List serves both sides: role=worker (the default for status=pending) lists the
// caller's incoming requests, role=client the ones they created.
func (h *RequestHandler) List(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	status := workflow.RequestStatus(strings.ToLower(c.QueryParam("status")))
	if status != "" && !status.Valid() {
		return badRequest(c, "Estado no válido")
	}
	role := strings.ToLower(c.QueryParam("role"))
	if role == "" {
		role = string(workflow.RoleClient)
		if status == workflow.RequestPending {
			role = string(workflow.RoleWorker)
		}
	}
	ctx := c.Request().Context()
	var err error
	var list []api.Request
	switch workflow.Role(role) {
	case workflow.RoleWorker:
		rows, lerr := h.svc.ListForWorker(ctx, uid, status)
		list, err = toRequests(rows), lerr
	case workflow.RoleClient:
		rows, lerr := h.svc.ListForClient(ctx, uid, status)
		list, err = toRequests(rows), lerr
	default:
		return badRequest(c, "Rol no válido")
	}
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, list)
}

func (h *RequestHandler) Get(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "Solicitud no válida")
	}
	req, err := h.svc.Get(c.Request().Context(), id, uid)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, toRequest(req))
}

func (h *RequestHandler) UpdateStatus(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "Solicitud no válida")
	}
	var body api.StatusBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, msgBadBody)
	}
	to := workflow.RequestStatus(strings.ToLower(strings.TrimSpace(body.Status)))
	expected := workflow.RequestStatus(strings.ToLower(strings.TrimSpace(body.ExpectedStatus)))
	req, err := h.svc.Transition(c.Request().Context(), id, uid, to, expected)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, toRequest(req))
}

func (h *RequestHandler) Quotes(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "Solicitud no válida")
	}
	list, err := h.quotes.ListByRequest(c.Request().Context(), id, uid)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, toQuotes(list))
}
