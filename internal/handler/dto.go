package handler

import (
	"github.com/josealejferFB/krizo-backend/internal/model"
	"github.com/josealejferFB/krizo-backend/pkg/api"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
)

func toRequest(r *model.ServiceRequest) api.Request {
	return api.Request{
		ID:                 r.ID,
		ClientID:           r.ClientID,
		WorkerID:           r.WorkerID,
		ServiceType:        r.ServiceType,
		ProblemDescription: r.ProblemDescription,
		VehicleInfo:        r.VehicleInfo,
		UrgencyLevel:       r.UrgencyLevel,
		Coordinates:        workflow.Coordinates{Latitude: r.Latitude, Longitude: r.Longitude},
		Status:             r.Status,
		HasQuote:           r.HasQuote,
		DecidedAt:          r.DecidedAt,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func toRequests(list []model.ServiceRequest) []api.Request {
	out := make([]api.Request, 0, len(list))
	for i := range list {
		out = append(out, toRequest(&list[i]))
	}
	return out
}

func toQuote(q *model.Quote) api.Quote {
	return api.Quote{
		ID:            q.ID,
		RequestID:     q.RequestID,
		WorkerID:      q.WorkerID,
		ClientID:      q.ClientID,
		Services:      q.ServiceLines(),
		TransportFee:  q.TransportFee,
		TotalPrice:    q.TotalPrice,
		EstimatedTime: q.EstimatedTime,
		Notes:         q.Notes,
		Status:        q.Status,
		RespondedAt:   q.RespondedAt,
		PaidAt:        q.PaidAt,
		CreatedAt:     q.CreatedAt,
	}
}

func toQuotes(list []model.Quote) []api.Quote {
	out := make([]api.Quote, 0, len(list))
	for i := range list {
		out = append(out, toQuote(&list[i]))
	}
	return out
}

func toSession(cs *model.ChatSession) api.ChatSession {
	return api.ChatSession{
		ID:          cs.ID,
		ClientID:    cs.ClientID,
		WorkerID:    cs.WorkerID,
		ServiceType: cs.ServiceType,
		Status:      cs.Status,
		AgreedPrice: cs.AgreedPrice,
		HasUnread:   cs.HasUnread,
		CreatedAt:   cs.CreatedAt,
		UpdatedAt:   cs.UpdatedAt,
	}
}

func toMessage(m *model.Message) api.Message {
	out := api.Message{
		ID:              m.ID,
		SessionID:       m.SessionID,
		SenderID:        m.SenderUID,
		SenderType:      m.SenderType,
		Message:         m.Body,
		PurchaseRequest: m.PurchaseRequest,
		CreatedAt:       m.CreatedAt,
	}
	if p := m.Product(); p != nil {
		out.ProductDetails = p
		out.PurchaseStatus = m.PurchaseStatus
		out.Total = p.Total()
	}
	return out
}

func toMessages(list []model.Message) []api.Message {
	out := make([]api.Message, 0, len(list))
	for i := range list {
		out = append(out, toMessage(&list[i]))
	}
	return out
}

func toPayment(p *model.Payment) api.Payment {
	return api.Payment{
		ID:         p.ID,
		QuoteID:    p.QuoteID,
		RequestID:  p.RequestID,
		ClientID:   p.ClientID,
		WorkerID:   p.WorkerID,
		Amount:     p.Amount,
		Method:     p.Method,
		Reference:  p.Reference,
		Date:       p.PaymentDate,
		Time:       p.PaymentTime,
		Screenshot: p.Screenshot,
		Status:     p.Status,
		VerifiedAt: p.VerifiedAt,
		CreatedAt:  p.CreatedAt,
	}
}

func toPayments(list []model.Payment) []api.Payment {
	out := make([]api.Payment, 0, len(list))
	for i := range list {
		out = append(out, toPayment(&list[i]))
	}
	return out
}

func toWorker(w *model.Worker) api.Worker {
	return api.Worker{
		UID:         w.UID,
		DisplayName: w.DisplayName,
		Phone:       w.Phone,
		Zone:        w.Zone,
		Services:    w.ServiceTypes(),
	}
}

func toNotification(n model.Notification) api.Notification {
	return api.Notification{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		RequestID: n.RequestID,
		QuoteID:   n.QuoteID,
		SessionID: n.SessionID,
		PaymentID: n.PaymentID,
		Read:      n.ReadAt != nil,
		CreatedAt: n.CreatedAt,
	}
}

func toPaymentInput(b api.SubmitPaymentBody) workflow.NewPayment {
	return workflow.NewPayment{
		QuoteID:    b.QuoteID,
		ClientID:   b.ClientID,
		WorkerID:   b.WorkerID,
		Amount:     b.Amount,
		Method:     b.Method,
		Reference:  b.Reference,
		Date:       b.Date,
		Time:       b.Time,
		Screenshot: b.Screenshot,
	}
}
