package model

import "time"

type WorkerEarning struct {
	UID         string    `gorm:"column:uid;primaryKey;size:128"`
	EarnedCents int64     `gorm:"column:earned_cents;not null;default:0"`
	Payments    int64     `gorm:"column:payments;not null;default:0"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (WorkerEarning) TableName() string {
	return "worker_earnings"
}
