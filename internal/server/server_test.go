package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appmw "github.com/josealejferFB/krizo-backend/internal/middleware"
	"github.com/josealejferFB/krizo-backend/internal/testutil"
	"github.com/josealejferFB/krizo-backend/pkg/api"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenIsUID accepts "Bearer <uid>" for any non-empty uid except "expired".
type tokenIsUID struct{}

func (tokenIsUID) VerifyIDToken(_ context.Context, token string) (string, error) {
	if token == "" || token == "expired" {
		return "", errors.New("invalid token")
	}
	return token, nil
}

type testServer struct {
	t   *testing.T
	srv *Server
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	opts.DB = testutil.NewDB(t)
	opts.Auth = appmw.NewAuthMiddlewareWithVerifier(tokenIsUID{})
	if opts.AllowedOriginSuffix == "" {
		opts.AllowedOriginSuffix = "krizo.app"
	}
	return &testServer{t: t, srv: New(opts)}
}

func (ts *testServer) do(method, path, uid string, body interface{}) (*httptest.ResponseRecorder, api.RawEnvelope) {
	ts.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(ts.t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		req.Header.Set("Authorization", "Bearer "+uid)
	}
	rec := httptest.NewRecorder()
	ts.srv.ServeHTTP(rec, req)
	var env api.RawEnvelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decode[T any](t *testing.T, env api.RawEnvelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func (ts *testServer) worker(uid string, services ...string) {
	ts.t.Helper()
	rec, _ := ts.do(http.MethodPut, "/api/workers/me/services", uid, api.ConfigureServicesBody{DisplayName: "Taller " + uid, Services: services})
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
}

func (ts *testServer) request(client, worker string, st workflow.ServiceType, urgency workflow.Urgency) api.Request {
	ts.t.Helper()
	rec, env := ts.do(http.MethodPost, "/api/requests", client, api.CreateRequestBody{
		WorkerID:           worker,
		ClientID:           client,
		ServiceType:        st,
		ProblemDescription: "Ruido en el motor",
		VehicleInfo:        "Ford Fiesta 2010",
		UrgencyLevel:       urgency,
		Coordinates:        &workflow.Coordinates{Latitude: 10.5, Longitude: -66.9},
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[api.Request](ts.t, env)
}

func (ts *testServer) quote(worker string, requestID uint64) api.Quote {
	ts.t.Helper()
	rec, env := ts.do(http.MethodPost, "/api/quotes", worker, api.CreateQuoteBody{
		RequestID:     requestID,
		Services:      []workflow.ServiceLine{{Description: "Diagnóstico", Price: 100}, {Description: "Reparación", Price: 100}},
		TransportFee:  50,
		EstimatedTime: "3 horas",
		Status:        "pending",
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[api.Quote](ts.t, env)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, Options{GitSHA: "abc123"})
	rec, env := ts.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	h := decode[api.Health](t, env)
	assert.True(t, h.DBReady)
	assert.Equal(t, "abc123", h.GitSHA)
	assert.NotEmpty(t, rec.Header().Get(appmw.HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mrec := httptest.NewRecorder()
	ts.srv.ServeHTTP(mrec, req)
	assert.Equal(t, http.StatusOK, mrec.Code)
	assert.Contains(t, mrec.Body.String(), "krizo_http_requests_total")
}

func TestSetDBLate(t *testing.T) {
	srv := New(Options{Auth: appmw.NewAuthMiddlewareWithVerifier(tokenIsUID{})})
	ts := &testServer{t: t, srv: srv}

	rec, env := ts.do(http.MethodGet, "/api/chat/sessions", "c1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotNil(t, env.Success)
	assert.False(t, *env.Success)

	srv.SetDB(testutil.NewDB(t))
	rec, _ = ts.do(http.MethodGet, "/api/chat/sessions", "c1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t, Options{})
	rec, env := ts.do(http.MethodGet, "/api/requests", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, workflow.CodeUnauthorized, env.Code)

	rec, _ = ts.do(http.MethodGet, "/api/requests", "expired", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = ts.do(http.MethodGet, "/api/workers", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "public listing")
}

func TestNoAuthConfiguredRejects(t *testing.T) {
	srv := New(Options{DB: testutil.NewDB(t)})
	ts := &testServer{t: t, srv: srv}
	rec, _ := ts.do(http.MethodGet, "/api/requests", "c1", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, Options{})
	for origin, allowed := range map[string]bool{
		"http://localhost:8081":     true,
		"https://app.krizo.app":     true,
		"https://evil.example.com":  false,
		"ftp://localhost.krizo.app": false,
	} {
		req := httptest.NewRequest(http.MethodOptions, "/api/requests", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		ts.srv.ServeHTTP(rec, req)
		if allowed {
			assert.Equal(t, origin, rec.Header().Get("Access-Control-Allow-Origin"), origin)
		} else {
			assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"), origin)
		}
	}
}

// Client creates a mechanic request, the worker sees it and quotes 100 + 100 + 50.
func TestScenarioA(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.worker("w1", "mechanic")
	created := ts.request("c1", "w1", workflow.ServiceMechanic, workflow.UrgencyHigh)
	assert.Equal(t, workflow.RequestPending, created.Status)

	rec, env := ts.do(http.MethodGet, "/api/requests?status=pending", "w1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decode[[]api.Request](t, env)
	require.Len(t, pending, 1)
	assert.Equal(t, created.ID, pending[0].ID)
	assert.Equal(t, workflow.UrgencyHigh, pending[0].UrgencyLevel)

	q := ts.quote("w1", created.ID)
	assert.Equal(t, 250.0, q.TotalPrice)
	assert.Equal(t, "c1", q.ClientID)

	rec, env = ts.do(http.MethodGet, "/api/requests?status=pending", "w1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[[]api.Request](t, env)[0].HasQuote)
}

// Opening the chat twice before any message yields one session.
func TestScenarioB(t *testing.T) {
	ts := newTestServer(t, Options{})

	rec, env := ts.do(http.MethodGet, "/api/chat/sessions/search?client_id=c1&worker_id=w1", "c1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, env.HasData())

	body := api.CreateSessionBody{ClientID: "c1", WorkerID: "w1", ServiceType: workflow.ServiceMechanic}
	_, env = ts.do(http.MethodPost, "/api/chat/session", "c1", body)
	first := decode[api.ChatSession](t, env)
	_, env = ts.do(http.MethodPost, "/api/chat/session", "c1", body)
	second := decode[api.ChatSession](t, env)
	assert.Equal(t, first.ID, second.ID)

	_, env = ts.do(http.MethodGet, "/api/chat/sessions", "c1", nil)
	assert.Len(t, decode[[]api.ChatSession](t, env), 1)
}

func TestEmptyMessageRejected(t *testing.T) {
	ts := newTestServer(t, Options{})
	_, env := ts.do(http.MethodPost, "/api/chat/session", "c1", api.CreateSessionBody{ClientID: "c1", WorkerID: "w1", ServiceType: workflow.ServiceCrane})
	cs := decode[api.ChatSession](t, env)

	rec, env := ts.do(http.MethodPost, "/api/chat/messages", "c1", api.SendMessageBody{SessionID: cs.ID, Message: "  ", SenderType: workflow.SenderClient})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, workflow.CodeValidation, env.Code)
	assert.Equal(t, "Escribe un mensaje", env.Message)

	rec, env = ts.do(http.MethodPost, "/api/chat/messages", "c1", api.SendMessageBody{SessionID: cs.ID, Message: "Hola", SenderType: workflow.SenderClient})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Hola", decode[api.Message](t, env).Message)

	rec, env = ts.do(http.MethodGet, "/api/chat/messages/"+itoa(cs.ID)+"?sender_type=worker", "w1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	msgs := decode[[]api.Message](t, env)
	require.Len(t, msgs, 1)
	assert.Equal(t, workflow.SenderClient, msgs[0].SenderType)
}

// A worker who does not own the payment cannot verify it.
func TestScenarioD(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.worker("w1", "mechanic")
	ts.worker("w2", "mechanic")
	req := ts.request("c1", "w1", workflow.ServiceMechanic, "")
	q := ts.quote("w1", req.ID)

	rec, _ := ts.do(http.MethodPut, "/api/quotes/"+itoa(q.ID)+"/respond", "c1", api.StatusBody{Status: "accepted"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env := ts.do(http.MethodPost, "/api/payments", "c1", api.SubmitPaymentBody{
		QuoteID: q.ID, Amount: 250, Method: workflow.MethodPagoMovil, Reference: "0102-998877",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[api.Payment](t, env)

	rec, env = ts.do(http.MethodPut, "/api/payments/"+itoa(p.ID)+"/verify", "w2", api.VerifyBody{Status: workflow.PaymentVerified})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, workflow.CodeForbidden, env.Code)

	rec, env = ts.do(http.MethodPut, "/api/payments/"+itoa(p.ID)+"/verify", "w1", api.VerifyBody{Status: workflow.PaymentVerified})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, workflow.PaymentVerified, decode[api.Payment](t, env).Status)

	rec, env = ts.do(http.MethodPut, "/api/payments/"+itoa(p.ID)+"/verify", "w1", api.VerifyBody{Status: workflow.PaymentRejected})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, workflow.CodeInvalidTransition, env.Code)

	_, env = ts.do(http.MethodGet, "/api/requests/"+itoa(req.ID), "c1", nil)
	assert.Equal(t, workflow.RequestCompleted, decode[api.Request](t, env).Status)

	_, env = ts.do(http.MethodGet, "/api/me/earnings", "w1", nil)
	assert.Equal(t, int64(25000), decode[api.Earnings](t, env).EarnedCents)

	_, env = ts.do(http.MethodGet, "/api/payments/worker/w1", "w1", nil)
	assert.Len(t, decode[[]api.Payment](t, env), 1)
	rec, _ = ts.do(http.MethodGet, "/api/payments/worker/w1", "c1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestQuotePayShim(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.worker("w1", "crane")
	req := ts.request("c1", "w1", workflow.ServiceCrane, workflow.UrgencyEmergency)
	q := ts.quote("w1", req.ID)
	ts.do(http.MethodPut, "/api/quotes/"+itoa(q.ID)+"/respond", "c1", api.StatusBody{Status: "accepted"})

	rec, env := ts.do(http.MethodPut, "/api/quotes/"+itoa(q.ID)+"/pay", "c1", api.SubmitPaymentBody{
		Amount: 250, Method: workflow.MethodCash, Reference: "efectivo",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, q.ID, decode[api.Payment](t, env).QuoteID)

	rec, env = ts.do(http.MethodPost, "/api/payments", "c1", api.SubmitPaymentBody{
		QuoteID: q.ID, Amount: 250, Method: workflow.MethodCash, Reference: "otra vez",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, workflow.CodeConflict, env.Code)
}

func TestRequestStatusTransitions(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.worker("w1", "parts")
	req := ts.request("c1", "w1", workflow.ServiceParts, workflow.UrgencyLow)

	rec, env := ts.do(http.MethodPut, "/api/requests/"+itoa(req.ID)+"/status", "w1", api.StatusBody{Status: "completed"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "worker cannot complete a pending request")
	assert.Equal(t, workflow.CodeInvalidTransition, env.Code)

	rec, _ = ts.do(http.MethodPut, "/api/requests/"+itoa(req.ID)+"/status", "w1", api.StatusBody{Status: "accepted", ExpectedStatus: "accepted"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env = ts.do(http.MethodPut, "/api/requests/"+itoa(req.ID)+"/status", "w1", api.StatusBody{Status: "accepted", ExpectedStatus: "pending"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, workflow.RequestAccepted, decode[api.Request](t, env).Status)

	rec, _ = ts.do(http.MethodPut, "/api/requests/"+itoa(req.ID)+"/status", "stranger", api.StatusBody{Status: "cancelled"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = ts.do(http.MethodGet, "/api/requests/abc", "c1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = ts.do(http.MethodGet, "/api/requests/999", "c1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = ts.do(http.MethodGet, "/api/requests?role=client", "c1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]api.Request](t, env), 1)

	rec, env = ts.do(http.MethodGet, "/api/notifications", "c1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[api.NotificationList](t, env)
	require.NotEmpty(t, list.Items)
	assert.Equal(t, int64(1), list.UnreadCount)
}

func TestPurchaseOverHTTP(t *testing.T) {
	ts := newTestServer(t, Options{})
	_, env := ts.do(http.MethodPost, "/api/chat/session", "c1", api.CreateSessionBody{ClientID: "c1", WorkerID: "w1", ServiceType: workflow.ServiceParts})
	cs := decode[api.ChatSession](t, env)

	rec, env := ts.do(http.MethodPost, "/api/chat/purchase", "c1", api.PurchaseRequestBody{
		SessionID:      cs.ID,
		ProductDetails: workflow.ProductDetails{Name: "Filtro de aceite", Quantity: 3, UnitPrice: 7.5},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	msg := decode[api.Message](t, env)
	assert.True(t, msg.PurchaseRequest)
	assert.Equal(t, 22.5, msg.Total)

	path := "/api/chat/purchase/" + itoa(msg.ID)
	rec, _ = ts.do(http.MethodPost, path, "w1", api.PurchaseDecisionBody{Action: workflow.PurchaseAccepted})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, env = ts.do(http.MethodPost, path, "w1", api.PurchaseDecisionBody{Action: workflow.PurchaseRejected})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, workflow.CodeConflict, env.Code)

	rec, env = ts.do(http.MethodPut, "/api/chat/sessions/"+itoa(cs.ID)+"/agreed-price", "w1", api.AgreedPriceBody{AgreedPrice: 22.5})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[api.ChatSession](t, env)
	require.NotNil(t, updated.AgreedPrice)
	assert.Equal(t, workflow.SessionPriceAgreed, updated.Status)
}

func TestMessageRateLimit(t *testing.T) {
	ts := newTestServer(t, Options{MessageRatePerSec: 1})
	_, env := ts.do(http.MethodPost, "/api/chat/session", "c1", api.CreateSessionBody{ClientID: "c1", WorkerID: "w1", ServiceType: workflow.ServiceMechanic})
	cs := decode[api.ChatSession](t, env)

	codes := map[int]int{}
	for i := 0; i < 5; i++ {
		rec, _ := ts.do(http.MethodPost, "/api/chat/messages", "c1", api.SendMessageBody{SessionID: cs.ID, Message: "hola"})
		codes[rec.Code]++
	}
	assert.Equal(t, 2, codes[http.StatusCreated], "burst is twice the rate")
	assert.Equal(t, 3, codes[http.StatusTooManyRequests])

	rec, _ := ts.do(http.MethodPost, "/api/chat/messages", "w1", api.SendMessageBody{SessionID: cs.ID, Message: "hola"})
	assert.Equal(t, http.StatusCreated, rec.Code, "buckets are per caller")
}
