package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/josealejferFB/krizo-backend/internal/logger"
	"github.com/josealejferFB/krizo-backend/internal/metrics"
	"github.com/josealejferFB/krizo-backend/internal/model"
	"github.com/josealejferFB/krizo-backend/internal/repository"
	"github.com/josealejferFB/krizo-backend/internal/storage"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
)

// ProofStore keeps proof-of-payment images and returns a URL for them.
type ProofStore interface {
	Save(ctx context.Context, uid string, data []byte) (string, error)
}

type PaymentService interface {
	Submit(ctx context.Context, uid string, in workflow.NewPayment) (*model.Payment, error)
	Verify(ctx context.Context, uid string, paymentID uint64, decision workflow.PaymentStatus) (*model.Payment, error)
	ListForWorker(ctx context.Context, uid, workerID string) ([]model.Payment, error)
	ListForClient(ctx context.Context, uid, clientID string) ([]model.Payment, error)
	UploadProof(ctx context.Context, uid string, data []byte) (string, error)
}

type paymentService struct {
	repo     repository.PaymentRepository
	quotes   repository.QuoteRepository
	requests repository.RequestRepository
	notify   NotificationService
	proofs   ProofStore
	notes    systemNotes
	log      logger.ILogger
}

type PaymentDeps struct {
	Payments repository.PaymentRepository
	Quotes   repository.QuoteRepository
	Requests repository.RequestRepository
	Chats    repository.ChatRepository
	Notify   NotificationService
	Proofs   ProofStore
}

func NewPaymentService(d PaymentDeps, log logger.ILogger) PaymentService {
	return &paymentService{
		repo:     d.Payments,
		quotes:   d.Quotes,
		requests: d.Requests,
		notify:   d.Notify,
		proofs:   d.Proofs,
		notes:    systemNotes{chats: d.Chats, log: log},
		log:      log,
	}
}

func (s *paymentService) Submit(ctx context.Context, uid string, in workflow.NewPayment) (*model.Payment, error) {
	if in.ClientID == "" {
		in.ClientID = uid
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.ClientID != uid {
		return nil, workflow.Forbiddenf("Solo puedes registrar tus propios pagos")
	}
	q, err := s.quotes.FindByID(ctx, in.QuoteID)
	if err != nil {
		return nil, notFound(err, "Cotización no encontrada")
	}
	if q.ClientID != uid {
		return nil, workflow.Forbiddenf("Esta cotización no es tuya")
	}
	if in.WorkerID != "" && in.WorkerID != q.WorkerID {
		return nil, workflow.Validationf("El trabajador no corresponde a la cotización")
	}
	if q.Status != workflow.QuoteAccepted {
		return nil, workflow.InvalidTransitionf("Solo puedes pagar una cotización aceptada")
	}
	req, err := s.requests.FindByID(ctx, q.RequestID)
	if err != nil {
		return nil, notFound(err, "Solicitud no encontrada")
	}
	if req.Status.Terminal() {
		return nil, workflow.InvalidTransitionf("La solicitud ya fue cerrada")
	}

	p := &model.Payment{
		QuoteID:     q.ID,
		RequestID:   q.RequestID,
		ClientID:    q.ClientID,
		WorkerID:    q.WorkerID,
		Amount:      workflow.RoundCents(in.Amount),
		Method:      in.Method,
		Reference:   in.Reference,
		PaymentDate: in.Date,
		PaymentTime: in.Time,
		Status:      workflow.PaymentPendingVerification,
	}
	if in.Screenshot != "" {
		shot := in.Screenshot
		p.Screenshot = &shot
	}
	created, err := s.repo.CreateIfNoLive(ctx, p)
	if err != nil {
		return nil, closed(err, "La cotización ya no admite pagos")
	}
	if !created {
		return nil, workflow.Conflictf("Ya registraste un pago para esta cotización")
	}
	metrics.RecordTransition("payment", "", string(workflow.PaymentPendingVerification))
	ctxLog(ctx, s.log).Info("payment submitted",
		logger.Uint64("payment_id", p.ID),
		logger.Uint64("quote_id", p.QuoteID),
		logger.Float64("amount", p.Amount),
		logger.String("method", string(p.Method)))

	s.notify.Notify(ctx, p.WorkerID, NotifyPaymentSubmitted, "Pago por verificar",
		fmt.Sprintf("El cliente registró un pago de $%.2f", p.Amount),
		NotificationRef{RequestID: uint64Ptr(p.RequestID), QuoteID: uint64Ptr(p.QuoteID), PaymentID: uint64Ptr(p.ID)})
	s.notes.post(ctx, p.ClientID, p.WorkerID, fmt.Sprintf("Pago registrado: $%.2f por %s (ref. %s)", p.Amount, p.Method, p.Reference))
	return p, nil
}

// Verify is the worker's decision on a pending payment. A verified payment closes the
// quote and the request and credits the worker.
func (s *paymentService) Verify(ctx context.Context, uid string, paymentID uint64, decision workflow.PaymentStatus) (*model.Payment, error) {
	p, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, notFound(err, "Pago no encontrado")
	}
	if uid == "" || p.WorkerID != uid {
		return nil, workflow.Forbiddenf("Solo el trabajador que cobró puede verificar este pago")
	}
	if err := workflow.CheckPaymentVerification(p.Status, decision); err != nil {
		return nil, err
	}
	from := p.Status
	if decision == workflow.PaymentVerified {
		err = s.settle(ctx, p)
	} else {
		err = s.reject(ctx, p)
	}
	if err != nil {
		return nil, err
	}
	metrics.RecordTransition("payment", string(from), string(decision))
	ctxLog(ctx, s.log).Info("payment transition",
		logger.Uint64("payment_id", p.ID),
		logger.String("from", string(from)),
		logger.String("to", string(decision)))

	label := "verificado"
	if decision == workflow.PaymentRejected {
		label = "rechazado"
	}
	s.notify.Notify(ctx, p.ClientID, NotifyPaymentDecided, "Pago "+label,
		fmt.Sprintf("Tu pago de $%.2f fue %s", p.Amount, label),
		NotificationRef{RequestID: uint64Ptr(p.RequestID), QuoteID: uint64Ptr(p.QuoteID), PaymentID: uint64Ptr(p.ID)})
	s.notes.post(ctx, p.ClientID, p.WorkerID, fmt.Sprintf("Pago %s: $%.2f", label, p.Amount))
	return s.repo.FindByID(ctx, p.ID)
}

// settle verifies the payment, closes its quote and request and credits the worker
// in one transaction.
func (s *paymentService) settle(ctx context.Context, p *model.Payment) error {
	err := s.repo.Settle(ctx, p, workflow.ToCents(p.Amount))
	switch {
	case errors.Is(err, repository.ErrStale):
		metrics.RecordConflict("payment")
		return workflow.Conflictf("El pago ya fue procesado")
	case err != nil:
		return closed(err, "La solicitud ya fue cerrada")
	}
	metrics.RecordTransition("quote", string(workflow.QuoteAccepted), string(workflow.QuotePaid))
	metrics.RecordTransition("request", string(workflow.RequestAccepted), string(workflow.RequestCompleted))
	return nil
}

func (s *paymentService) reject(ctx context.Context, p *model.Payment) error {
	n, err := s.repo.UpdateStatusIf(ctx, p.ID, p.Status, workflow.PaymentRejected)
	if err != nil {
		return err
	}
	if n == 0 {
		metrics.RecordConflict("payment")
		return workflow.Conflictf("El pago ya fue procesado")
	}
	return nil
}

func (s *paymentService) ListForWorker(ctx context.Context, uid, workerID string) ([]model.Payment, error) {
	if uid == "" || uid != workerID {
		return nil, workflow.Forbiddenf("Solo puedes ver tus propios pagos")
	}
	return s.repo.ListByWorker(ctx, workerID)
}

func (s *paymentService) ListForClient(ctx context.Context, uid, clientID string) ([]model.Payment, error) {
	if uid == "" || uid != clientID {
		return nil, workflow.Forbiddenf("Solo puedes ver tus propios pagos")
	}
	return s.repo.ListByClient(ctx, clientID)
}

func (s *paymentService) UploadProof(ctx context.Context, uid string, data []byte) (string, error) {
	if uid == "" {
		return "", workflow.Forbiddenf("Inicia sesión para continuar")
	}
	if _, err := storage.DetectImage(data); err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return "", workflow.Validationf("La imagen no puede superar %d MB", storage.MaxProofBytes>>20)
		}
		return "", workflow.Validationf("Sube una imagen PNG, JPG o WEBP")
	}
	if s.proofs == nil {
		return "", errors.New("proof storage is not configured")
	}
	return s.proofs.Save(ctx, uid, data)
}
