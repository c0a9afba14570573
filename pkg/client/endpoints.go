package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/josealejferFB/krizo-backend/pkg/api"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
)

// ListWorkers returns the workers offering serviceType.
func (c *Client) ListWorkers(ctx context.Context, serviceType workflow.ServiceType) ([]api.Worker, error) {
	if !serviceType.Valid() {
		return nil, workflow.Validationf("Tipo de servicio no válido")
	}
	var out []api.Worker
	err := c.do(ctx, http.MethodGet, query("/workers", url.Values{"service_type": {string(serviceType)}}), nil, &out)
	return out, err
}

func (c *Client) GetWorker(ctx context.Context, uid string) (*api.Worker, error) {
	var out api.Worker
	if err := c.do(ctx, http.MethodGet, "/workers/"+url.PathEscape(uid), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ConfigureServices(ctx context.Context, body api.ConfigureServicesBody) (*api.Worker, error) {
	if _, err := workflow.ParseServiceTypes(body.Services); err != nil {
		return nil, err
	}
	var out api.Worker
	if err := c.do(ctx, http.MethodPut, "/workers/me/services", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Earnings(ctx context.Context) (*api.Earnings, error) {
	var out api.Earnings
	if err := c.do(ctx, http.MethodGet, "/me/earnings", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRequest validates nr locally and submits it. Missing coordinates fail here
// without a network call.
func (c *Client) CreateRequest(ctx context.Context, nr workflow.NewRequest) (*api.Request, error) {
	if err := nr.Validate(); err != nil {
		return nil, err
	}
	body := api.CreateRequestBody{
		WorkerID:           nr.WorkerID,
		ClientID:           nr.ClientID,
		ServiceType:        nr.ServiceType,
		ProblemDescription: nr.ProblemDescription,
		VehicleInfo:        nr.VehicleInfo,
		UrgencyLevel:       nr.UrgencyLevel,
		Coordinates:        nr.Coordinates,
	}
	var out api.Request
	if err := c.do(ctx, http.MethodPost, "/requests", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRequests lists the caller's requests as role. Empty status and role use the
// server defaults.
func (c *Client) ListRequests(ctx context.Context, status workflow.RequestStatus, role workflow.Role) ([]api.Request, error) {
	params := url.Values{}
	if status != "" {
		params.Set("status", string(status))
	}
	if role != "" {
		params.Set("role", string(role))
	}
	var out []api.Request
	err := c.do(ctx, http.MethodGet, query("/requests", params), nil, &out)
	return out, err
}

// PendingRequests is the worker inbox.
func (c *Client) PendingRequests(ctx context.Context) ([]api.Request, error) {
	return c.ListRequests(ctx, workflow.RequestPending, workflow.RoleWorker)
}

func (c *Client) GetRequest(ctx context.Context, id uint64) (*api.Request, error) {
	var out api.Request
	if err := c.do(ctx, http.MethodGet, idPath("/requests/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRequestStatus asks for a transition. expected is the status the caller last saw;
// empty skips the check.
func (c *Client) UpdateRequestStatus(ctx context.Context, id uint64, to, expected workflow.RequestStatus) (*api.Request, error) {
	if !to.Valid() {
		return nil, workflow.Validationf("Estado no válido")
	}
	var out api.Request
	body := api.StatusBody{Status: string(to), ExpectedStatus: string(expected)}
	if err := c.do(ctx, http.MethodPut, idPath("/requests/%d/status", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RequestQuotes(ctx context.Context, requestID uint64) ([]api.Quote, error) {
	var out []api.Quote
	err := c.do(ctx, http.MethodGet, idPath("/requests/%d/quotes", requestID), nil, &out)
	return out, err
}

// SubmitQuote validates q locally; the total sent is always the one recomputed from the lines.
func (c *Client) SubmitQuote(ctx context.Context, q workflow.NewQuote) (*api.Quote, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	body := api.CreateQuoteBody{
		RequestID:     q.RequestID,
		WorkerID:      q.WorkerID,
		ClientID:      q.ClientID,
		Services:      q.Services,
		TransportFee:  q.TransportFee,
		TotalPrice:    workflow.QuoteTotal(q.Services, q.TransportFee),
		EstimatedTime: q.EstimatedTime,
		Notes:         q.Notes,
	}
	var out api.Quote
	if err := c.do(ctx, http.MethodPost, "/quotes", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitDraft builds the worker's form state into a quote and submits it.
func (c *Client) SubmitDraft(ctx context.Context, d *workflow.QuoteDraft, requestID uint64, workerID, clientID string) (*api.Quote, error) {
	q, err := d.Build(requestID, workerID, clientID)
	if err != nil {
		return nil, err
	}
	return c.SubmitQuote(ctx, q)
}

func (c *Client) GetQuote(ctx context.Context, id uint64) (*api.Quote, error) {
	var out api.Quote
	if err := c.do(ctx, http.MethodGet, idPath("/quotes/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RespondToQuote(ctx context.Context, id uint64, decision workflow.QuoteStatus) (*api.Quote, error) {
	if decision != workflow.QuoteAccepted && decision != workflow.QuoteRejected {
		return nil, workflow.Validationf("Respuesta no válida")
	}
	var out api.Quote
	if err := c.do(ctx, http.MethodPut, idPath("/quotes/%d/respond", id), api.StatusBody{Status: string(decision)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchSession returns the pair's session, or nil when they have not chatted yet.
func (c *Client) SearchSession(ctx context.Context, clientID, workerID string) (*api.ChatSession, error) {
	var out *api.ChatSession
	params := url.Values{"client_id": {clientID}, "worker_id": {workerID}}
	if err := c.do(ctx, http.MethodGet, query("/chat/sessions/search", params), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateSession(ctx context.Context, clientID, workerID string, st workflow.ServiceType) (*api.ChatSession, error) {
	var out api.ChatSession
	body := api.CreateSessionBody{ClientID: clientID, WorkerID: workerID, ServiceType: st}
	if err := c.do(ctx, http.MethodPost, "/chat/session", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OpenChat reuses the pair's open session for st and creates one otherwise.
func (c *Client) OpenChat(ctx context.Context, clientID, workerID string, st workflow.ServiceType) (*api.ChatSession, error) {
	if !st.Valid() {
		return nil, workflow.Validationf("Tipo de servicio no válido")
	}
	found, err := c.SearchSession(ctx, clientID, workerID)
	if err != nil {
		return nil, err
	}
	if found != nil && found.ServiceType == st && found.Status.Open() {
		return found, nil
	}
	return c.CreateSession(ctx, clientID, workerID, st)
}

func (c *Client) ListSessions(ctx context.Context) ([]api.ChatSession, error) {
	var out []api.ChatSession
	err := c.do(ctx, http.MethodGet, "/chat/sessions", nil, &out)
	return out, err
}

func (c *Client) UpdateAgreedPrice(ctx context.Context, sessionID uint64, price float64) (*api.ChatSession, error) {
	if err := workflow.ValidateAgreedPrice(price); err != nil {
		return nil, err
	}
	var out api.ChatSession
	if err := c.do(ctx, http.MethodPut, idPath("/chat/sessions/%d/agreed-price", sessionID), api.AgreedPriceBody{AgreedPrice: price}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchMessages returns the whole conversation in order and marks it read for viewer.
func (c *Client) FetchMessages(ctx context.Context, sessionID uint64, viewer workflow.SenderType) ([]api.Message, error) {
	params := url.Values{}
	if viewer != "" {
		params.Set("sender_type", string(viewer))
	}
	var out []api.Message
	err := c.do(ctx, http.MethodGet, query(idPath("/chat/messages/%d", sessionID), params), nil, &out)
	return out, err
}

// SendMessage rejects blank text before any network call.
func (c *Client) SendMessage(ctx context.Context, sessionID uint64, sender workflow.SenderType, text string) (*api.Message, error) {
	t, err := workflow.NormalizeMessageText(text)
	if err != nil {
		return nil, err
	}
	if !sender.Valid() {
		return nil, workflow.Validationf("Remitente no válido")
	}
	var out api.Message
	body := api.SendMessageBody{SessionID: sessionID, Message: t, SenderType: sender}
	if err := c.do(ctx, http.MethodPost, "/chat/messages", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendPurchaseRequest(ctx context.Context, sessionID uint64, details workflow.ProductDetails) (*api.Message, error) {
	if err := details.Validate(); err != nil {
		return nil, err
	}
	var out api.Message
	body := api.PurchaseRequestBody{SessionID: sessionID, ProductDetails: details}
	if err := c.do(ctx, http.MethodPost, "/chat/purchase", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RespondToPurchase(ctx context.Context, messageID uint64, decision workflow.PurchaseStatus) (*api.Message, error) {
	if decision != workflow.PurchaseAccepted && decision != workflow.PurchaseRejected {
		return nil, workflow.Validationf("Respuesta de compra no válida")
	}
	var out api.Message
	if err := c.do(ctx, http.MethodPost, idPath("/chat/purchase/%d", messageID), api.PurchaseDecisionBody{Action: decision}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func paymentBody(p workflow.NewPayment) api.SubmitPaymentBody {
	return api.SubmitPaymentBody{
		QuoteID:    p.QuoteID,
		ClientID:   p.ClientID,
		WorkerID:   p.WorkerID,
		Amount:     p.Amount,
		Method:     p.Method,
		Reference:  p.Reference,
		Date:       p.Date,
		Time:       p.Time,
		Screenshot: p.Screenshot,
	}
}

func (c *Client) SubmitPayment(ctx context.Context, p workflow.NewPayment) (*api.Payment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var out api.Payment
	if err := c.do(ctx, http.MethodPost, "/payments", paymentBody(p), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PayQuote submits p through the per-quote route.
func (c *Client) PayQuote(ctx context.Context, quoteID uint64, p workflow.NewPayment) (*api.Payment, error) {
	p.QuoteID = quoteID
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var out api.Payment
	if err := c.do(ctx, http.MethodPut, idPath("/quotes/%d/pay", quoteID), paymentBody(p), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadProof stores a payment screenshot and returns its URL.
func (c *Client) UploadProof(ctx context.Context, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", workflow.Validationf("Selecciona una imagen")
	}
	var out api.ProofUpload
	if err := c.upload(ctx, "/payments/proof", "file", filename, data, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *Client) VerifyPayment(ctx context.Context, id uint64, decision workflow.PaymentStatus) (*api.Payment, error) {
	if decision != workflow.PaymentVerified && decision != workflow.PaymentRejected {
		return nil, workflow.Validationf("Decisión de verificación no válida")
	}
	var out api.Payment
	if err := c.do(ctx, http.MethodPut, idPath("/payments/%d/verify", id), api.VerifyBody{Status: decision}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) WorkerPayments(ctx context.Context, workerID string) ([]api.Payment, error) {
	var out []api.Payment
	err := c.do(ctx, http.MethodGet, "/payments/worker/"+url.PathEscape(workerID), nil, &out)
	return out, err
}

func (c *Client) ClientPayments(ctx context.Context, clientID string) ([]api.Payment, error) {
	var out []api.Payment
	err := c.do(ctx, http.MethodGet, "/payments/client/"+url.PathEscape(clientID), nil, &out)
	return out, err
}

func (c *Client) Notifications(ctx context.Context, unreadOnly bool, limit int) (*api.NotificationList, error) {
	params := url.Values{}
	if unreadOnly {
		params.Set("unread_only", "true")
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var out api.NotificationList
	if err := c.do(ctx, http.MethodGet, query("/notifications", params), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MarkNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/notifications/read", nil, nil)
}
