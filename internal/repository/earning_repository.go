package repository

import (
	"context"

	"github.com/josealejferFB/krizo-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EarningRepository interface {
	Add(ctx context.Context, uid string, cents int64) error
	Get(ctx context.Context, uid string) (*model.WorkerEarning, error)
	SetDB(db *gorm.DB)
}

type earningRepository struct {
	db *gorm.DB
}

func NewEarningRepository(db *gorm.DB) EarningRepository {
	return &earningRepository{db: db}
}

func (r *earningRepository) Add(ctx context.Context, uid string, cents int64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return addEarning(r.db.WithContext(ctx), uid, cents)
}

// addEarning credits one payment of cents to uid; empty uids and non-positive amounts
// are ignored.
func addEarning(tx *gorm.DB, uid string, cents int64) error {
	if uid == "" || cents <= 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "uid"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"earned_cents": gorm.Expr("earned_cents + ?", cents),
			"payments":     gorm.Expr("payments + 1"),
		}),
	}).Create(&model.WorkerEarning{UID: uid, EarnedCents: cents, Payments: 1}).Error
}

// Get returns a zero row for workers that have not been paid yet.
func (r *earningRepository) Get(ctx context.Context, uid string) (*model.WorkerEarning, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var we model.WorkerEarning
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).FirstOrInit(&we, &model.WorkerEarning{UID: uid}).Error; err != nil {
		return nil, err
	}
	return &we, nil
}

func (r *earningRepository) SetDB(db *gorm.DB) {
	r.db = db
}
