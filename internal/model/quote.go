package model

import (
	"time"

	"github.com/josealejferFB/krizo-backend/pkg/workflow"
)

type Quote struct {
	ID            uint64               `gorm:"primaryKey;autoIncrement"`
	RequestID     uint64               `gorm:"column:request_id;index;not null"`
	WorkerID      string               `gorm:"column:worker_id;size:128;index;not null"`
	ClientID      string               `gorm:"column:client_id;size:128;index;not null"`
	Lines         []QuoteLine          `gorm:"foreignKey:QuoteID"`
	TransportFee  float64              `gorm:"column:transport_fee;not null;default:0"`
	TotalPrice    float64              `gorm:"column:total_price;not null"`
	EstimatedTime string               `gorm:"column:estimated_time;size:128;not null"`
	Notes         string               `gorm:"column:notes;size:1200"`
	Status        workflow.QuoteStatus `gorm:"column:status;size:16;index;not null"`
	RespondedAt   *time.Time           `gorm:"column:responded_at"`
	PaidAt        *time.Time           `gorm:"column:paid_at"`
	CreatedAt     time.Time            `gorm:"autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"autoUpdateTime"`
}

func (Quote) TableName() string {
	return "quotes"
}

// ServiceLines returns the line items in submission order.
func (q *Quote) ServiceLines() []workflow.ServiceLine {
	out := make([]workflow.ServiceLine, 0, len(q.Lines))
	for _, l := range q.Lines {
		out = append(out, workflow.ServiceLine{Description: l.Description, Price: l.Price})
	}
	return out
}

type QuoteLine struct {
	ID          uint64  `gorm:"primaryKey;autoIncrement"`
	QuoteID     uint64  `gorm:"column:quote_id;index;not null"`
	Position    int     `gorm:"column:position;not null"`
	Description string  `gorm:"column:description;size:255;not null"`
	Price       float64 `gorm:"column:price;not null"`
}

func (QuoteLine) TableName() string {
	return "quote_lines"
}
