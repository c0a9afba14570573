package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/josealejferFB/krizo-backend/internal/logger"
	"github.com/josealejferFB/krizo-backend/internal/metrics"
	"github.com/josealejferFB/krizo-backend/internal/model"
	"github.com/josealejferFB/krizo-backend/internal/repository"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
)

type RequestService interface {
	Create(ctx context.Context, in workflow.NewRequest) (*model.ServiceRequest, error)
	ListPendingForWorker(ctx context.Context, workerID string) ([]model.ServiceRequest, error)
	ListForClient(ctx context.Context, clientID string, status workflow.RequestStatus) ([]model.ServiceRequest, error)
	ListForWorker(ctx context.Context, workerID string, status workflow.RequestStatus) ([]model.ServiceRequest, error)
	Get(ctx context.Context, id uint64, uid string) (*model.ServiceRequest, error)
	// Transition applies a participant-driven status change. When expected is set,
	// the request must still be in that status.
	Transition(ctx context.Context, id uint64, uid string, to workflow.RequestStatus, expected workflow.RequestStatus) (*model.ServiceRequest, error)
	ExpireStale(ctx context.Context, ttl time.Duration, now time.Time) (int, error)
}

type requestService struct {
	repo    repository.RequestRepository
	quotes  repository.QuoteRepository
	workers WorkerService
	notify  NotificationService
	log     logger.ILogger
}

func NewRequestService(repo repository.RequestRepository, quotes repository.QuoteRepository, workers WorkerService, notify NotificationService, log logger.ILogger) RequestService {
	return &requestService{repo: repo, quotes: quotes, workers: workers, notify: notify, log: log}
}

func (s *requestService) Create(ctx context.Context, in workflow.NewRequest) (*model.ServiceRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	types, err := s.workers.ServiceTypes(ctx, in.WorkerID)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		if _, err := s.workers.Get(ctx, in.WorkerID); err != nil {
			return nil, err
		}
	}
	if !containsType(types, in.ServiceType) {
		return nil, workflow.Validationf("El trabajador no ofrece este servicio")
	}

	req := &model.ServiceRequest{
		ClientID:           in.ClientID,
		WorkerID:           in.WorkerID,
		ServiceType:        in.ServiceType,
		ProblemDescription: in.ProblemDescription,
		VehicleInfo:        in.VehicleInfo,
		UrgencyLevel:       in.UrgencyLevel,
		Latitude:           in.Coordinates.Latitude,
		Longitude:          in.Coordinates.Longitude,
		Status:             workflow.RequestPending,
	}
	created, err := s.repo.CreateIfNoActive(ctx, req)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, workflow.Conflictf("Ya tienes una solicitud activa con este trabajador")
	}
	metrics.RecordTransition("request", "", string(workflow.RequestPending))
	ctxLog(ctx, s.log).Info("request created",
		logger.Uint64("request_id", req.ID),
		logger.String("client", req.ClientID),
		logger.String("worker", req.WorkerID),
		logger.String("service_type", string(req.ServiceType)))
	s.notify.Notify(ctx, req.WorkerID, NotifyRequestCreated, "Nueva solicitud",
		fmt.Sprintf("Tienes una nueva solicitud de %s", serviceLabel(req.ServiceType)),
		NotificationRef{RequestID: uint64Ptr(req.ID)})
	return req, nil
}

// ListPendingForWorker only shows requests for service types the worker has configured;
// an empty configuration yields an empty list.
func (s *requestService) ListPendingForWorker(ctx context.Context, workerID string) ([]model.ServiceRequest, error) {
	types, err := s.workers.ServiceTypes(ctx, workerID)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListPendingForWorker(ctx, workerID, types)
	if err != nil {
		return nil, err
	}
	return s.withQuoteFlags(ctx, list)
}

func (s *requestService) ListForClient(ctx context.Context, clientID string, status workflow.RequestStatus) ([]model.ServiceRequest, error) {
	if status != "" && !status.Valid() {
		return nil, workflow.Validationf("Estado de solicitud no válido")
	}
	list, err := s.repo.ListByClient(ctx, clientID, status)
	if err != nil {
		return nil, err
	}
	return s.withQuoteFlags(ctx, list)
}

func (s *requestService) ListForWorker(ctx context.Context, workerID string, status workflow.RequestStatus) ([]model.ServiceRequest, error) {
	if status == workflow.RequestPending {
		return s.ListPendingForWorker(ctx, workerID)
	}
	if status != "" && !status.Valid() {
		return nil, workflow.Validationf("Estado de solicitud no válido")
	}
	list, err := s.repo.ListByWorker(ctx, workerID, status)
	if err != nil {
		return nil, err
	}
	return s.withQuoteFlags(ctx, list)
}

func (s *requestService) Get(ctx context.Context, id uint64, uid string) (*model.ServiceRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Solicitud no encontrada")
	}
	if _, err := roleOf(uid, req.ClientID, req.WorkerID); err != nil {
		return nil, err
	}
	flags, err := s.quotes.RequestsWithQuote(ctx, []uint64{req.ID})
	if err != nil {
		return nil, err
	}
	req.HasQuote = flags[req.ID]
	return req, nil
}

func (s *requestService) Transition(ctx context.Context, id uint64, uid string, to workflow.RequestStatus, expected workflow.RequestStatus) (*model.ServiceRequest, error) {
	if !to.Valid() {
		return nil, workflow.Validationf("Estado de solicitud no válido")
	}
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Solicitud no encontrada")
	}
	role, err := roleOf(uid, req.ClientID, req.WorkerID)
	if err != nil {
		return nil, err
	}
	if expected != "" && expected != req.Status {
		metrics.RecordConflict("request")
		return nil, workflow.Conflictf("La solicitud cambió mientras tanto")
	}
	if err := workflow.CheckRequestTransition(req.Status, to, role); err != nil {
		return nil, err
	}
	if err := s.apply(ctx, req, to, role); err != nil {
		return nil, err
	}

	counterpart, title := req.WorkerID, "Solicitud cancelada"
	if role == workflow.RoleWorker {
		counterpart, title = req.ClientID, "Solicitud "+statusLabel(to)
	}
	s.notify.Notify(ctx, counterpart, NotifyRequestDecided, title,
		fmt.Sprintf("La solicitud de %s fue %s", serviceLabel(req.ServiceType), statusLabel(to)),
		NotificationRef{RequestID: uint64Ptr(req.ID)})
	return s.Get(ctx, id, uid)
}

// apply performs the conditional update from req.Status and updates req in place.
func (s *requestService) apply(ctx context.Context, req *model.ServiceRequest, to workflow.RequestStatus, role workflow.Role) error {
	from := req.Status
	n, err := s.repo.UpdateStatusIf(ctx, req.ID, from, to)
	if err != nil {
		return err
	}
	if n == 0 {
		metrics.RecordConflict("request")
		return workflow.Conflictf("La solicitud cambió mientras tanto")
	}
	req.Status = to
	metrics.RecordTransition("request", string(from), string(to))
	ctxLog(ctx, s.log).Info("request transition",
		logger.Uint64("request_id", req.ID),
		logger.String("from", string(from)),
		logger.String("to", string(to)),
		logger.String("role", string(role)))
	return nil
}

// ExpireStale moves pending requests created before now-ttl to expired and returns how many moved.
func (s *requestService) ExpireStale(ctx context.Context, ttl time.Duration, now time.Time) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}
	stale, err := s.repo.ListPendingBefore(ctx, now.UTC().Add(-ttl), 0)
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range stale {
		req := &stale[i]
		if err := s.apply(ctx, req, workflow.RequestExpired, workflow.RoleSystem); err != nil {
			if errors.Is(err, workflow.ErrConflict) {
				// a worker decided it in the meantime
				continue
			}
			return expired, err
		}
		expired++
		s.notify.Notify(ctx, req.ClientID, NotifyRequestExpired, "Solicitud vencida",
			fmt.Sprintf("Tu solicitud de %s no fue respondida a tiempo", serviceLabel(req.ServiceType)),
			NotificationRef{RequestID: uint64Ptr(req.ID)})
	}
	return expired, nil
}

func (s *requestService) withQuoteFlags(ctx context.Context, list []model.ServiceRequest) ([]model.ServiceRequest, error) {
	if len(list) == 0 {
		return list, nil
	}
	ids := make([]uint64, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.ID)
	}
	flags, err := s.quotes.RequestsWithQuote(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].HasQuote = flags[list[i].ID]
	}
	return list, nil
}

func containsType(types []workflow.ServiceType, st workflow.ServiceType) bool {
	for _, t := range types {
		if t == st {
			return true
		}
	}
	return false
}

func serviceLabel(st workflow.ServiceType) string {
	switch st {
	case workflow.ServiceMechanic:
		return "mecánica"
	case workflow.ServiceCrane:
		return "grúa"
	case workflow.ServiceParts:
		return "repuestos"
	}
	return string(st)
}

func statusLabel(st workflow.RequestStatus) string {
	switch st {
	case workflow.RequestAccepted:
		return "aceptada"
	case workflow.RequestRejected:
		return "rechazada"
	case workflow.RequestCancelled:
		return "cancelada"
	case workflow.RequestCompleted:
		return "completada"
	case workflow.RequestExpired:
		return "vencida"
	}
	return string(st)
}
