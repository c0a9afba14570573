package repository

import (
	"context"

	"github.com/josealejferFB/krizo-backend/internal/model"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WorkerRepository interface {
	Upsert(ctx context.Context, w *model.Worker) error
	FindByUID(ctx context.Context, uid string) (*model.Worker, error)
	List(ctx context.Context, st workflow.ServiceType) ([]model.Worker, error)
	ServiceTypes(ctx context.Context, uid string) ([]workflow.ServiceType, error)
	ReplaceServices(ctx context.Context, uid string, types []workflow.ServiceType) error
	SetDB(db *gorm.DB)
}

type workerRepository struct {
	db *gorm.DB
}

func NewWorkerRepository(db *gorm.DB) WorkerRepository {
	return &workerRepository{db: db}
}

func (r *workerRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *workerRepository) Upsert(ctx context.Context, w *model.Worker) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Omit("Services").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "phone", "zone", "updated_at"}),
		}).
		Create(w).Error
}

func (r *workerRepository) FindByUID(ctx context.Context, uid string) (*model.Worker, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var w model.Worker
	if err := r.db.WithContext(ctx).Preload("Services").Where("uid = ?", uid).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *workerRepository) List(ctx context.Context, st workflow.ServiceType) ([]model.Worker, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	q := r.db.WithContext(ctx).Preload("Services")
	if st != "" {
		q = q.Where("uid IN (?)", r.db.Model(&model.WorkerService{}).Select("worker_uid").Where("service_type = ?", st))
	}
	list := []model.Worker{}
	if err := q.Order("display_name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *workerRepository) ServiceTypes(ctx context.Context, uid string) ([]workflow.ServiceType, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var types []workflow.ServiceType
	if err := r.db.WithContext(ctx).
		Model(&model.WorkerService{}).
		Where("worker_uid = ?", uid).
		Order("service_type ASC").
		Pluck("service_type", &types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

func (r *workerRepository) ReplaceServices(ctx context.Context, uid string, types []workflow.ServiceType) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("worker_uid = ?", uid).Delete(&model.WorkerService{}).Error; err != nil {
			return err
		}
		if len(types) == 0 {
			return nil
		}
		rows := make([]model.WorkerService, 0, len(types))
		for _, st := range types {
			rows = append(rows, model.WorkerService{WorkerUID: uid, ServiceType: st})
		}
		return tx.Create(&rows).Error
	})
}
