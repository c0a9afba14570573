package model

import (
	"time"

	"github.com/josealejferFB/krizo-backend/pkg/workflow"
)

type Payment struct {
	ID          uint64                 `gorm:"primaryKey;autoIncrement"`
	QuoteID     uint64                 `gorm:"column:quote_id;index;not null"`
	RequestID   uint64                 `gorm:"column:request_id;index;not null"`
	ClientID    string                 `gorm:"column:client_id;size:128;index;not null"`
	WorkerID    string                 `gorm:"column:worker_id;size:128;index;not null"`
	Amount      float64                `gorm:"column:amount;not null"`
	Method      workflow.PaymentMethod `gorm:"column:method;size:16;not null"`
	Reference   string                 `gorm:"column:reference;size:128;not null"`
	PaymentDate string                 `gorm:"column:payment_date;size:10"`
	PaymentTime string                 `gorm:"column:payment_time;size:5"`
	Screenshot  *string                `gorm:"column:screenshot;type:text"`
	Status      workflow.PaymentStatus `gorm:"column:status;size:24;index;not null"`
	VerifiedAt  *time.Time             `gorm:"column:verified_at"`
	CreatedAt   time.Time              `gorm:"autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"autoUpdateTime"`
}

func (Payment) TableName() string {
	return "payments"
}
