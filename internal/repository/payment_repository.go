package repository

import (
	"context"

	"github.com/josealejferFB/krizo-backend/internal/model"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	// CreateIfNoLive inserts p unless the quote already has a payment waiting for
	// verification or verified. It fails with ErrClosed unless the quote is accepted
	// and its request is open.
	CreateIfNoLive(ctx context.Context, p *model.Payment) (bool, error)
	Settle(ctx context.Context, p *model.Payment, cents int64) error
	FindByID(ctx context.Context, id uint64) (*model.Payment, error)
	ListByWorker(ctx context.Context, workerID string) ([]model.Payment, error)
	ListByClient(ctx context.Context, clientID string) ([]model.Payment, error)
	UpdateStatusIf(ctx context.Context, id uint64, from, to workflow.PaymentStatus) (int64, error)
	SetDB(db *gorm.DB)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *paymentRepository) CreateIfNoLive(ctx context.Context, p *model.Payment) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockOpenRequest(tx, p.RequestID); err != nil {
			return err
		}
		var q model.Quote
		if err := forUpdate(tx).First(&q, p.QuoteID).Error; err != nil {
			return err
		}
		if q.Status != workflow.QuoteAccepted {
			return ErrClosed
		}
		var cnt int64
		if err := tx.Model(&model.Payment{}).
			Where("quote_id = ? AND status IN ?", p.QuoteID, workflow.LivePaymentStatuses).
			Count(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return nil
		}
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// Settle verifies a pending payment and, in the same transaction, marks its quote paid,
// completes its request and credits the worker with cents. It fails with ErrClosed when
// the quote is no longer accepted or the request is not accepted, and with ErrStale when
// the payment was already decided.
func (r *paymentRepository) Settle(ctx context.Context, p *model.Payment, cents int64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := lockOpenRequest(tx, p.RequestID)
		if err != nil {
			return err
		}
		var q model.Quote
		if err := forUpdate(tx).First(&q, p.QuoteID).Error; err != nil {
			return err
		}
		if q.Status != workflow.QuoteAccepted || req.Status != workflow.RequestAccepted {
			return ErrClosed
		}
		now := tx.NowFunc()
		res := tx.Model(&model.Payment{}).
			Where("id = ? AND status = ?", p.ID, workflow.PaymentPendingVerification).
			Updates(map[string]interface{}{"status": workflow.PaymentVerified, "verified_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStale
		}
		if err := tx.Model(&model.Quote{}).
			Where("id = ?", q.ID).
			Updates(map[string]interface{}{"status": workflow.QuotePaid, "paid_at": now}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.ServiceRequest{}).
			Where("id = ?", req.ID).
			Updates(map[string]interface{}{
				"status":      workflow.RequestCompleted,
				"decided_at":  now,
				"active_pair": nil,
			}).Error; err != nil {
			return err
		}
		return addEarning(tx, p.WorkerID, cents)
	})
}

func (r *paymentRepository) FindByID(ctx context.Context, id uint64) (*model.Payment, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var p model.Payment
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) ListByWorker(ctx context.Context, workerID string) ([]model.Payment, error) {
	return r.listBy(ctx, "worker_id", workerID)
}

func (r *paymentRepository) ListByClient(ctx context.Context, clientID string) ([]model.Payment, error) {
	return r.listBy(ctx, "client_id", clientID)
}

func (r *paymentRepository) listBy(ctx context.Context, column, uid string) ([]model.Payment, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	list := []model.Payment{}
	if err := r.db.WithContext(ctx).
		Where(column+" = ?", uid).
		Order("created_at DESC, id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateStatusIf is used for rejections; verification goes through Settle.
func (r *paymentRepository) UpdateStatusIf(ctx context.Context, id uint64, from, to workflow.PaymentStatus) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":      to,
			"verified_at": r.db.NowFunc(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
