package service

import (
	"context"
	"errors"
	"strings"

	"github.com/josealejferFB/krizo-backend/internal/logger"
	"github.com/josealejferFB/krizo-backend/internal/model"
	"github.com/josealejferFB/krizo-backend/internal/repository"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
	"gorm.io/gorm"
)

// ServiceSetCache is an optional read-through cache of worker service sets.
type ServiceSetCache interface {
	Get(ctx context.Context, uid string) ([]workflow.ServiceType, bool, error)
	Set(ctx context.Context, uid string, types []workflow.ServiceType) error
	Invalidate(ctx context.Context, uid string) error
}

// WorkerProfile is the input of ConfigureServices.
type WorkerProfile struct {
	DisplayName string
	Phone       string
	Zone        string
	Services    []string
}

type WorkerService interface {
	List(ctx context.Context, serviceType string) ([]model.Worker, error)
	Get(ctx context.Context, uid string) (*model.Worker, error)
	ConfigureServices(ctx context.Context, uid string, p WorkerProfile) (*model.Worker, error)
	ServiceTypes(ctx context.Context, uid string) ([]workflow.ServiceType, error)
}

type workerService struct {
	repo  repository.WorkerRepository
	cache ServiceSetCache
	log   logger.ILogger
}

// NewWorkerService accepts a nil cache.
func NewWorkerService(repo repository.WorkerRepository, cache ServiceSetCache, log logger.ILogger) WorkerService {
	return &workerService{repo: repo, cache: cache, log: log}
}

func (s *workerService) List(ctx context.Context, serviceType string) ([]model.Worker, error) {
	st := workflow.ServiceType(strings.ToLower(strings.TrimSpace(serviceType)))
	if st != "" && !st.Valid() {
		return nil, workflow.Validationf("Tipo de servicio no válido")
	}
	return s.repo.List(ctx, st)
}

func (s *workerService) Get(ctx context.Context, uid string) (*model.Worker, error) {
	w, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		return nil, notFound(err, "Trabajador no encontrado")
	}
	return w, nil
}

func (s *workerService) ConfigureServices(ctx context.Context, uid string, p WorkerProfile) (*model.Worker, error) {
	if uid == "" {
		return nil, workflow.Forbiddenf("Inicia sesión para continuar")
	}
	types, err := workflow.ParseServiceTypes(p.Services)
	if err != nil {
		return nil, err
	}
	w := &model.Worker{
		UID:         uid,
		DisplayName: strings.TrimSpace(p.DisplayName),
		Phone:       strings.TrimSpace(p.Phone),
		Zone:        strings.TrimSpace(p.Zone),
	}
	existing, err := s.repo.FindByUID(ctx, uid)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		if w.DisplayName == "" {
			w.DisplayName = existing.DisplayName
		}
		if w.Phone == "" {
			w.Phone = existing.Phone
		}
		if w.Zone == "" {
			w.Zone = existing.Zone
		}
	}
	if w.DisplayName == "" {
		return nil, workflow.Validationf("Indica tu nombre")
	}
	if err := s.repo.Upsert(ctx, w); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceServices(ctx, uid, types); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, uid); err != nil {
			ctxLog(ctx, s.log).Warning("service set cache invalidate failed", logger.String("uid", uid), logger.Error(err))
		}
	}
	ctxLog(ctx, s.log).Info("worker services configured", logger.String("uid", uid), logger.Any("services", types))
	return s.Get(ctx, uid)
}

// ServiceTypes returns the configured set; a missing worker has an empty set.
func (s *workerService) ServiceTypes(ctx context.Context, uid string) ([]workflow.ServiceType, error) {
	if s.cache != nil {
		types, ok, err := s.cache.Get(ctx, uid)
		if err != nil {
			ctxLog(ctx, s.log).Warning("service set cache read failed", logger.String("uid", uid), logger.Error(err))
		} else if ok {
			return types, nil
		}
	}
	types, err := s.repo.ServiceTypes(ctx, uid)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, uid, types); err != nil {
			ctxLog(ctx, s.log).Warning("service set cache write failed", logger.String("uid", uid), logger.Error(err))
		}
	}
	return types, nil
}
