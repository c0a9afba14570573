package service

import (
	"context"
	"fmt"

	"github.com/josealejferFB/krizo-backend/internal/logger"
	"github.com/josealejferFB/krizo-backend/internal/metrics"
	"github.com/josealejferFB/krizo-backend/internal/model"
	"github.com/josealejferFB/krizo-backend/internal/repository"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
)

type QuoteService interface {
	Submit(ctx context.Context, uid string, in workflow.NewQuote) (*model.Quote, error)
	Get(ctx context.Context, id uint64, uid string) (*model.Quote, error)
	ListByRequest(ctx context.Context, requestID uint64, uid string) ([]model.Quote, error)
	// Respond records the client's answer. Accepting also accepts a pending request.
	Respond(ctx context.Context, id uint64, uid string, decision workflow.QuoteStatus) (*model.Quote, error)
}

type quoteService struct {
	repo     repository.QuoteRepository
	requests repository.RequestRepository
	notify   NotificationService
	notes    systemNotes
	log      logger.ILogger
}

func NewQuoteService(repo repository.QuoteRepository, requests repository.RequestRepository, chats repository.ChatRepository, notify NotificationService, log logger.ILogger) QuoteService {
	return &quoteService{
		repo:     repo,
		requests: requests,
		notify:   notify,
		notes:    systemNotes{chats: chats, log: log},
		log:      log,
	}
}

func (s *quoteService) Submit(ctx context.Context, uid string, in workflow.NewQuote) (*model.Quote, error) {
	if in.WorkerID == "" {
		in.WorkerID = uid
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.WorkerID != uid {
		return nil, workflow.Forbiddenf("Solo puedes cotizar a tu nombre")
	}
	req, err := s.requests.FindByID(ctx, in.RequestID)
	if err != nil {
		return nil, notFound(err, "Solicitud no encontrada")
	}
	if req.WorkerID != uid {
		return nil, workflow.Forbiddenf("Esta solicitud no es tuya")
	}
	if in.ClientID != "" && in.ClientID != req.ClientID {
		return nil, workflow.Validationf("El cliente no corresponde a la solicitud")
	}
	if req.Status.Terminal() {
		return nil, workflow.InvalidTransitionf("La solicitud ya fue cerrada")
	}

	q := &model.Quote{
		RequestID:     req.ID,
		WorkerID:      req.WorkerID,
		ClientID:      req.ClientID,
		TransportFee:  workflow.RoundCents(in.TransportFee),
		TotalPrice:    workflow.QuoteTotal(in.Services, in.TransportFee),
		EstimatedTime: in.EstimatedTime,
		Notes:         in.Notes,
		Status:        workflow.QuotePending,
	}
	for i, l := range in.Services {
		q.Lines = append(q.Lines, model.QuoteLine{Position: i, Description: l.Description, Price: workflow.RoundCents(l.Price)})
	}
	created, err := s.repo.CreateIfNoOpen(ctx, q)
	if err != nil {
		return nil, closed(err, "La solicitud ya fue cerrada")
	}
	if !created {
		return nil, workflow.Conflictf("Esta solicitud ya tiene una cotización abierta")
	}
	metrics.RecordTransition("quote", "", string(workflow.QuotePending))
	ctxLog(ctx, s.log).Info("quote submitted",
		logger.Uint64("quote_id", q.ID),
		logger.Uint64("request_id", q.RequestID),
		logger.Float64("total", q.TotalPrice))

	s.notify.Notify(ctx, q.ClientID, NotifyQuoteSubmitted, "Nueva cotización",
		fmt.Sprintf("Recibiste una cotización por $%.2f", q.TotalPrice),
		NotificationRef{RequestID: uint64Ptr(q.RequestID), QuoteID: uint64Ptr(q.ID)})
	s.notes.post(ctx, q.ClientID, q.WorkerID, fmt.Sprintf("Cotización enviada: total $%.2f, tiempo estimado %s", q.TotalPrice, q.EstimatedTime))
	return q, nil
}

func (s *quoteService) Get(ctx context.Context, id uint64, uid string) (*model.Quote, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Cotización no encontrada")
	}
	if _, err := roleOf(uid, q.ClientID, q.WorkerID); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *quoteService) ListByRequest(ctx context.Context, requestID uint64, uid string) ([]model.Quote, error) {
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err, "Solicitud no encontrada")
	}
	if _, err := roleOf(uid, req.ClientID, req.WorkerID); err != nil {
		return nil, err
	}
	return s.repo.ListByRequest(ctx, requestID)
}

func (s *quoteService) Respond(ctx context.Context, id uint64, uid string, decision workflow.QuoteStatus) (*model.Quote, error) {
	if decision != workflow.QuoteAccepted && decision != workflow.QuoteRejected {
		return nil, workflow.Validationf("Respuesta no válida")
	}
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Cotización no encontrada")
	}
	role, err := roleOf(uid, q.ClientID, q.WorkerID)
	if err != nil {
		return nil, err
	}
	if role != workflow.RoleClient {
		return nil, workflow.Forbiddenf("Solo el cliente puede responder la cotización")
	}
	if err := workflow.CheckQuoteTransition(q.Status, decision, role); err != nil {
		return nil, err
	}
	req, err := s.requests.FindByID(ctx, q.RequestID)
	if err != nil {
		return nil, notFound(err, "Solicitud no encontrada")
	}
	if req.Status.Terminal() {
		return nil, workflow.InvalidTransitionf("La solicitud ya fue cerrada")
	}

	from := q.Status
	n, reqFrom, err := s.repo.RespondIf(ctx, q.ID, from, decision)
	if err != nil {
		return nil, closed(err, "La solicitud ya fue cerrada")
	}
	if n == 0 {
		metrics.RecordConflict("quote")
		return nil, workflow.Conflictf("La cotización cambió mientras tanto")
	}
	metrics.RecordTransition("quote", string(from), string(decision))
	log := ctxLog(ctx, s.log)
	log.Info("quote transition",
		logger.Uint64("quote_id", q.ID),
		logger.String("from", string(from)),
		logger.String("to", string(decision)))
	if decision == workflow.QuoteAccepted && reqFrom == workflow.RequestPending {
		metrics.RecordTransition("request", string(reqFrom), string(workflow.RequestAccepted))
		log.Info("request transition",
			logger.Uint64("request_id", q.RequestID),
			logger.String("from", string(reqFrom)),
			logger.String("to", string(workflow.RequestAccepted)),
			logger.String("role", string(workflow.RoleSystem)))
	}

	label, verb := "aceptada", "aceptó"
	if decision == workflow.QuoteRejected {
		label, verb = "rechazada", "rechazó"
	}
	s.notify.Notify(ctx, q.WorkerID, NotifyQuoteAnswered, "Cotización "+label,
		fmt.Sprintf("El cliente %s tu cotización de $%.2f", verb, q.TotalPrice),
		NotificationRef{RequestID: uint64Ptr(q.RequestID), QuoteID: uint64Ptr(q.ID)})
	s.notes.post(ctx, q.ClientID, q.WorkerID, "Cotización "+label)
	return s.repo.FindByID(ctx, id)
}
