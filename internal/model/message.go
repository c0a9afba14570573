package model

import (
	"time"

	"github.com/josealejferFB/krizo-backend/pkg/workflow"
	"gorm.io/datatypes"
)

type Message struct {
	ID              uint64                                      `gorm:"primaryKey;autoIncrement"`
	SessionID       uint64                                      `gorm:"column:session_id;index;not null"`
	SenderUID       string                                      `gorm:"column:sender_uid;size:128;index"`
	SenderType      workflow.SenderType                         `gorm:"column:sender_type;size:16;not null"`
	Body            string                                      `gorm:"type:text;not null"`
	PurchaseRequest bool                                        `gorm:"column:purchase_request;not null;default:false"`
	ProductDetails  datatypes.JSONType[workflow.ProductDetails] `gorm:"column:product_details;not null"`
	PurchaseStatus  workflow.PurchaseStatus                     `gorm:"column:purchase_status;size:16"`
	CreatedAt       time.Time                                   `gorm:"autoCreateTime;index"`
	UpdatedAt       time.Time                                   `gorm:"autoUpdateTime"`
}

func (Message) TableName() string {
	return "messages"
}

// Product returns the embedded purchase payload, or nil for plain messages.
func (m *Message) Product() *workflow.ProductDetails {
	if !m.PurchaseRequest {
		return nil
	}
	p := m.ProductDetails.Data()
	return &p
}
