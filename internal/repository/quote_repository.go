package repository

import (
	"context"

	"github.com/josealejferFB/krizo-backend/internal/model"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
	"gorm.io/gorm"
)

type QuoteRepository interface {
	// CreateIfNoOpen inserts q with its lines unless the request already has a
	// pending or accepted quote. It fails with ErrClosed when the request is terminal.
	CreateIfNoOpen(ctx context.Context, q *model.Quote) (bool, error)
	FindByID(ctx context.Context, id uint64) (*model.Quote, error)
	ListByRequest(ctx context.Context, requestID uint64) ([]model.Quote, error)
	RequestsWithQuote(ctx context.Context, requestIDs []uint64) (map[uint64]bool, error)
	RespondIf(ctx context.Context, id uint64, from, to workflow.QuoteStatus) (int64, workflow.RequestStatus, error)
	SetDB(db *gorm.DB)
}

type quoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) QuoteRepository {
	return &quoteRepository{db: db}
}

func (r *quoteRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// lockOpenRequest locks the request row and fails with ErrClosed once it is terminal.
func lockOpenRequest(tx *gorm.DB, id uint64) (*model.ServiceRequest, error) {
	var req model.ServiceRequest
	if err := forUpdate(tx).First(&req, id).Error; err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		return nil, ErrClosed
	}
	return &req, nil
}

func (r *quoteRepository) CreateIfNoOpen(ctx context.Context, q *model.Quote) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockOpenRequest(tx, q.RequestID); err != nil {
			return err
		}
		var cnt int64
		if err := tx.Model(&model.Quote{}).
			Where("request_id = ? AND status IN ?", q.RequestID, workflow.OpenQuoteStatuses).
			Count(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return nil
		}
		if err := tx.Create(q).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

func (r *quoteRepository) FindByID(ctx context.Context, id uint64) (*model.Quote, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var q model.Quote
	if err := r.db.WithContext(ctx).Preload("Lines", orderedLines).First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *quoteRepository) ListByRequest(ctx context.Context, requestID uint64) ([]model.Quote, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Quote
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderedLines).
		Where("request_id = ?", requestID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *quoteRepository) RequestsWithQuote(ctx context.Context, requestIDs []uint64) (map[uint64]bool, error) {
	out := make(map[uint64]bool, len(requestIDs))
	if len(requestIDs) == 0 {
		return out, nil
	}
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var ids []uint64
	if err := r.db.WithContext(ctx).
		Model(&model.Quote{}).
		Where("request_id IN ?", requestIDs).
		Distinct().
		Pluck("request_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// RespondIf records the client's answer while the quote is still in `from` and its
// request is open. Accepting advances a pending request to accepted in the same
// transaction; the returned status is the request status before the change.
func (r *quoteRepository) RespondIf(ctx context.Context, id uint64, from, to workflow.QuoteStatus) (int64, workflow.RequestStatus, error) {
	if r.db == nil {
		return 0, "", ErrDBNotReady
	}
	var (
		n       int64
		reqFrom workflow.RequestStatus
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q model.Quote
		if err := tx.Select("id", "request_id").First(&q, id).Error; err != nil {
			return err
		}
		req, err := lockOpenRequest(tx, q.RequestID)
		if err != nil {
			return err
		}
		reqFrom = req.Status
		now := tx.NowFunc()
		res := tx.Model(&model.Quote{}).
			Where("id = ? AND status = ?", id, from).
			Updates(map[string]interface{}{"status": to, "responded_at": now})
		if res.Error != nil {
			return res.Error
		}
		n = res.RowsAffected
		if n == 0 || to != workflow.QuoteAccepted || req.Status != workflow.RequestPending {
			return nil
		}
		return tx.Model(&model.ServiceRequest{}).
			Where("id = ? AND status = ?", req.ID, workflow.RequestPending).
			Updates(map[string]interface{}{"status": workflow.RequestAccepted, "decided_at": now}).Error
	})
	if err != nil {
		return 0, "", err
	}
	return n, reqFrom, nil
}
