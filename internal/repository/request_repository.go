package repository

import (
	"context"
	"errors"
	"time"

	"github.com/josealejferFB/krizo-backend/internal/model"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
	"gorm.io/gorm"
)

type RequestRepository interface {
	// CreateIfNoActive inserts r unless the (client, worker) pair already has a
	// non-terminal request. It reports whether the row was created.
	CreateIfNoActive(ctx context.Context, r *model.ServiceRequest) (bool, error)
	FindByID(ctx context.Context, id uint64) (*model.ServiceRequest, error)
	ListPendingForWorker(ctx context.Context, workerID string, types []workflow.ServiceType) ([]model.ServiceRequest, error)
	ListByClient(ctx context.Context, clientID string, status workflow.RequestStatus) ([]model.ServiceRequest, error)
	ListByWorker(ctx context.Context, workerID string, status workflow.RequestStatus) ([]model.ServiceRequest, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.ServiceRequest, error)
	UpdateStatusIf(ctx context.Context, id uint64, from, to workflow.RequestStatus) (int64, error)
	SetDB(db *gorm.DB)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *requestRepository) CreateIfNoActive(ctx context.Context, req *model.ServiceRequest) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&model.ServiceRequest{}).
		Where("client_id = ? AND worker_id = ? AND status IN ?", req.ClientID, req.WorkerID, workflow.ActiveRequestStatuses).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	if cnt > 0 {
		return false, nil
	}
	if !req.Status.Terminal() {
		key := model.PairKey(req.ClientID, req.WorkerID)
		req.ActivePair = &key
	}
	// a concurrent create that passed the count loses on the active_pair unique index
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			req.ID = 0
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *requestRepository) FindByID(ctx context.Context, id uint64) (*model.ServiceRequest, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var req model.ServiceRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) ListPendingForWorker(ctx context.Context, workerID string, types []workflow.ServiceType) ([]model.ServiceRequest, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	list := []model.ServiceRequest{}
	if len(types) == 0 {
		return list, nil
	}
	if err := r.db.WithContext(ctx).
		Where("worker_id = ? AND status = ? AND service_type IN ?", workerID, workflow.RequestPending, types).
		Order("created_at DESC, id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *requestRepository) ListByClient(ctx context.Context, clientID string, status workflow.RequestStatus) ([]model.ServiceRequest, error) {
	return r.listBy(ctx, "client_id", clientID, status)
}

func (r *requestRepository) ListByWorker(ctx context.Context, workerID string, status workflow.RequestStatus) ([]model.ServiceRequest, error) {
	return r.listBy(ctx, "worker_id", workerID, status)
}

func (r *requestRepository) listBy(ctx context.Context, column, uid string, status workflow.RequestStatus) ([]model.ServiceRequest, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	q := r.db.WithContext(ctx).Where(column+" = ?", uid)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []model.ServiceRequest
	if err := q.Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *requestRepository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.ServiceRequest, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	if limit <= 0 {
		limit = 200
	}
	var list []model.ServiceRequest
	if err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", workflow.RequestPending, cutoff).
		Order("id ASC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateStatusIf moves the request to `to` only while it is still in `from`. Closing a
// request without completing it rejects its open quotes in the same transaction.
func (r *requestRepository) UpdateStatusIf(ctx context.Context, id uint64, from, to workflow.RequestStatus) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	var n int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := tx.NowFunc()
		updates := map[string]interface{}{
			"status":     to,
			"decided_at": now,
		}
		if to.Terminal() {
			updates["active_pair"] = nil
		}
		res := tx.Model(&model.ServiceRequest{}).
			Where("id = ? AND status = ?", id, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		n = res.RowsAffected
		if n == 0 || !to.Terminal() || to == workflow.RequestCompleted {
			return nil
		}
		return tx.Model(&model.Quote{}).
			Where("request_id = ? AND status IN ?", id, workflow.OpenQuoteStatuses).
			Updates(map[string]interface{}{
				"status":       workflow.QuoteRejected,
				"responded_at": now,
			}).Error
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
