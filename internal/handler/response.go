package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/josealejferFB/krizo-backend/internal/logger"
	"github.com/josealejferFB/krizo-backend/internal/repository"
	"github.com/josealejferFB/krizo-backend/internal/reqctx"
	"github.com/josealejferFB/krizo-backend/pkg/api"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
	"github.com/labstack/echo/v4"
)

const (
	msgUnauthorized = "Inicia sesión para continuar"
	msgBadBody      = "Solicitud mal formada"
	msgInternal     = "Ocurrió un error, intenta de nuevo más tarde"
	msgNotReady     = "El servicio se está iniciando, intenta en unos segundos"
)

func NewErrorResponse(code, message string) api.Envelope {
	return api.Fail(code, message)
}

func ok(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, api.OK(data))
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, NewErrorResponse(workflow.CodeUnauthorized, msgUnauthorized))
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, NewErrorResponse(workflow.CodeValidation, message))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, workflow.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, repository.ErrDBNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a failure envelope. Workflow errors keep their message; anything
// else is logged and answered with a generic one.
func fail(c echo.Context, log logger.ILogger, err error) error {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		log.Error("request failed",
			logger.String("rid", reqctx.RID(c.Request().Context())),
			logger.String("path", c.Path()),
			logger.Error(err))
		return c.JSON(status, NewErrorResponse(workflow.CodeInternal, msgInternal))
	case http.StatusServiceUnavailable:
		return c.JSON(status, NewErrorResponse(workflow.CodeInternal, msgNotReady))
	}
	return c.JSON(status, NewErrorResponse(workflow.Code(err), workflow.Message(err, msgInternal)))
}

func currentUID(c echo.Context) string {
	uid, _ := c.Get("uid").(string)
	return uid
}

func paramID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
