package model

import (
	"time"

	"github.com/josealejferFB/krizo-backend/pkg/workflow"
)

type ServiceRequest struct {
	ID                 uint64                 `gorm:"primaryKey;autoIncrement"`
	ClientID           string                 `gorm:"column:client_id;size:128;index:idx_request_pair;not null"`
	WorkerID           string                 `gorm:"column:worker_id;size:128;index:idx_request_pair;not null"`
	ServiceType        workflow.ServiceType   `gorm:"column:service_type;size:32;not null"`
	ProblemDescription string                 `gorm:"column:problem_description;type:text;not null"`
	VehicleInfo        string                 `gorm:"column:vehicle_info;size:255;not null"`
	UrgencyLevel       workflow.Urgency       `gorm:"column:urgency_level;size:16;not null"`
	Latitude           float64                `gorm:"column:latitude"`
	Longitude          float64                `gorm:"column:longitude"`
	Status             workflow.RequestStatus `gorm:"column:status;size:16;index;not null"`
	// ActivePair is PairKey while the request is not terminal and NULL afterwards; the
	// unique index keeps one active request per pair.
	ActivePair *string    `gorm:"column:active_pair;size:300;uniqueIndex"`
	DecidedAt  *time.Time `gorm:"column:decided_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime"`

	HasQuote bool `gorm:"-"`
}

func (ServiceRequest) TableName() string {
	return "service_requests"
}

func PairKey(clientID, workerID string) string {
	return clientID + "|" + workerID
}
