package model

import (
	"time"

	"github.com/josealejferFB/krizo-backend/pkg/workflow"
)

type ChatSession struct {
	ID          uint64                 `gorm:"primaryKey;autoIncrement"`
	ClientID    string                 `gorm:"column:client_id;size:128;uniqueIndex:uniq_chat_triple;index"`
	WorkerID    string                 `gorm:"column:worker_id;size:128;uniqueIndex:uniq_chat_triple;index"`
	ServiceType workflow.ServiceType   `gorm:"column:service_type;size:32;uniqueIndex:uniq_chat_triple"`
	Status      workflow.SessionStatus `gorm:"column:status;size:16;not null"`
	AgreedPrice *float64               `gorm:"column:agreed_price"`
	CreatedAt   time.Time              `gorm:"autoCreateTime"`
	UpdatedAt   time.Time              `gorm:"autoUpdateTime"`

	HasUnread bool `gorm:"-"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
