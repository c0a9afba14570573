package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRecordTransition(t *testing.T) {
	RecordTransition("quote", "pending", "accepted")
	RecordTransition("request", "", "pending")
	RecordConflict("payment")
	RecordSweep(3, true)

	body := scrape(t)
	assert.Contains(t, body, `krizo_workflow_transitions_total{entity="quote",from="pending",to="accepted"}`)
	assert.Contains(t, body, `krizo_workflow_transitions_total{entity="request",from="new",to="pending"}`)
	assert.Contains(t, body, `krizo_workflow_conflicts_total{entity="payment"}`)
	assert.Contains(t, body, `krizo_sweeper_runs_total{success="true"}`)
}

func TestMiddlewareLabelsByRoute(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/ping/:id", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping/7", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Contains(t, scrape(t), `krizo_http_requests_total{method="GET",route="/ping/:id",status="200"}`)
}
