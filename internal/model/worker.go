package model

import (
	"time"

	"github.com/josealejferFB/krizo-backend/pkg/workflow"
)

type Worker struct {
	UID         string          `gorm:"column:uid;primaryKey;size:128"`
	DisplayName string          `gorm:"column:display_name;size:255;not null"`
	Phone       string          `gorm:"column:phone;size:32"`
	Zone        string          `gorm:"column:zone;size:128"`
	Services    []WorkerService `gorm:"foreignKey:WorkerUID;references:UID"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"`
}

func (Worker) TableName() string {
	return "workers"
}

// ServiceTypes returns the configured service set.
func (w *Worker) ServiceTypes() []workflow.ServiceType {
	out := make([]workflow.ServiceType, 0, len(w.Services))
	for _, s := range w.Services {
		out = append(out, s.ServiceType)
	}
	return out
}

type WorkerService struct {
	WorkerUID   string               `gorm:"column:worker_uid;primaryKey;size:128"`
	ServiceType workflow.ServiceType `gorm:"column:service_type;primaryKey;size:32"`
	CreatedAt   time.Time            `gorm:"autoCreateTime"`
}

func (WorkerService) TableName() string {
	return "worker_services"
}
