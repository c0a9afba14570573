package middleware

import (
	"github.com/google/uuid"
	"github.com/josealejferFB/krizo-backend/internal/reqctx"
	"github.com/labstack/echo/v4"
)

const HeaderRequestID = "X-Request-ID"

// RequestID reuses an incoming X-Request-ID or mints one, echoes it back and stores it
// in the request context.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(HeaderRequestID)
			if rid == "" || len(rid) > 64 {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(HeaderRequestID, rid)
			c.SetRequest(c.Request().WithContext(reqctx.WithRID(c.Request().Context(), rid)))
			return next(c)
		}
	}
}
