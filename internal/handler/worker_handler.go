package handler

import (
	"net/http"

	"github.com/josealejferFB/krizo-backend/internal/logger"
	"github.com/josealejferFB/krizo-backend/internal/service"
	"github.com/josealejferFB/krizo-backend/pkg/api"
	"github.com/labstack/echo/v4"
)

type WorkerHandler struct {
	svc      service.WorkerService
	earnings service.EarningsService
	log      logger.ILogger
}

func NewWorkerHandler(svc service.WorkerService, earnings service.EarningsService, log logger.ILogger) *WorkerHandler {
	return &WorkerHandler{svc: svc, earnings: earnings, log: log}
}

// List is public: anyone can browse workers, optionally by service type.
func (h *WorkerHandler) List(c echo.Context) error {
	list, err := h.svc.List(c.Request().Context(), c.QueryParam("service_type"))
	if err != nil {
		return fail(c, h.log, err)
	}
	resp := make([]api.Worker, 0, len(list))
	for i := range list {
		resp = append(resp, toWorker(&list[i]))
	}
	return ok(c, http.StatusOK, resp)
}

func (h *WorkerHandler) Get(c echo.Context) error {
	w, err := h.svc.Get(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, toWorker(w))
}

func (h *WorkerHandler) ConfigureServices(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var body api.ConfigureServicesBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, msgBadBody)
	}
	w, err := h.svc.ConfigureServices(c.Request().Context(), uid, service.WorkerProfile{
		DisplayName: body.DisplayName,
		Phone:       body.Phone,
		Zone:        body.Zone,
		Services:    body.Services,
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, toWorker(w))
}

func (h *WorkerHandler) Earnings(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	e, err := h.earnings.Get(c.Request().Context(), uid)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, api.Earnings{
		WorkerUID:   uid,
		Earned:      float64(e.EarnedCents) / 100,
		EarnedCents: e.EarnedCents,
		Payments:    e.Payments,
	})
}
