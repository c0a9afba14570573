package handler

import (
	"errors"
	"net/http"

	"github.com/josealejferFB/krizo-backend/internal/logger"
	"github.com/josealejferFB/krizo-backend/internal/service"
	"github.com/josealejferFB/krizo-backend/internal/storage"
	"github.com/josealejferFB/krizo-backend/pkg/api"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	svc service.PaymentService
	log logger.ILogger
}

func NewPaymentHandler(svc service.PaymentService, log logger.ILogger) *PaymentHandler {
	return &PaymentHandler{svc: svc, log: log}
}

func (h *PaymentHandler) Submit(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var body api.SubmitPaymentBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, msgBadBody)
	}
	p, err := h.svc.Submit(c.Request().Context(), uid, toPaymentInput(body))
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusCreated, toPayment(p))
}

// UploadProof takes the multipart field "file" and returns the stored image URL.
func (h *PaymentHandler) UploadProof(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "Adjunta la imagen del comprobante")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "No se pudo leer la imagen")
	}
	defer f.Close()
	data, err := storage.ReadLimited(f)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return fail(c, h.log, workflow.Validationf("La imagen no puede superar %d MB", storage.MaxProofBytes>>20))
		}
		return badRequest(c, "No se pudo leer la imagen")
	}
	url, err := h.svc.UploadProof(c.Request().Context(), uid, data)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusCreated, api.ProofUpload{URL: url})
}

func (h *PaymentHandler) ListForWorker(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	list, err := h.svc.ListForWorker(c.Request().Context(), uid, c.Param("workerId"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, toPayments(list))
}

func (h *PaymentHandler) ListForClient(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	list, err := h.svc.ListForClient(c.Request().Context(), uid, c.Param("clientId"))
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, toPayments(list))
}

func (h *PaymentHandler) Verify(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, valid := paramID(c, "id")
	if !valid {
		return badRequest(c, "Pago no válido")
	}
	var body api.VerifyBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, msgBadBody)
	}
	p, err := h.svc.Verify(c.Request().Context(), uid, id, body.Status)
	if err != nil {
		return fail(c, h.log, err)
	}
	return ok(c, http.StatusOK, toPayment(p))
}
