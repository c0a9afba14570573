package api

import (
	"time"

	"github.com/josealejferFB/krizo-backend/pkg/workflow"
)

type Request struct {
	ID                 uint64                 `json:"id"`
	ClientID           string                 `json:"client_id"`
	WorkerID           string                 `json:"worker_id"`
	ServiceType        workflow.ServiceType   `json:"service_type"`
	ProblemDescription string                 `json:"problem_description"`
	VehicleInfo        string                 `json:"vehicle_info"`
	UrgencyLevel       workflow.Urgency       `json:"urgency_level"`
	Coordinates        workflow.Coordinates   `json:"coordinates"`
	Status             workflow.RequestStatus `json:"status"`
	HasQuote           bool                   `json:"has_quote"`
	DecidedAt          *time.Time             `json:"decided_at,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

type CreateRequestBody struct {
	WorkerID           string                `json:"worker_id"`
	ClientID           string                `json:"client_id"`
	ServiceType        workflow.ServiceType  `json:"service_type"`
	ProblemDescription string                `json:"problem_description"`
	VehicleInfo        string                `json:"vehicle_info"`
	UrgencyLevel       workflow.Urgency      `json:"urgency_level"`
	Coordinates        *workflow.Coordinates `json:"coordinates"`
}

// StatusBody carries a requested transition. ExpectedStatus is the state the caller last saw.
type StatusBody struct {
	Status         string `json:"status"`
	ExpectedStatus string `json:"expected_status,omitempty"`
}

type Quote struct {
	ID            uint64                 `json:"id"`
	RequestID     uint64                 `json:"request_id"`
	WorkerID      string                 `json:"worker_id"`
	ClientID      string                 `json:"client_id"`
	Services      []workflow.ServiceLine `json:"services"`
	TransportFee  float64                `json:"transport_fee"`
	TotalPrice    float64                `json:"total_price"`
	EstimatedTime string                 `json:"estimated_time"`
	Notes         string                 `json:"notes"`
	Status        workflow.QuoteStatus   `json:"status"`
	RespondedAt   *time.Time             `json:"responded_at,omitempty"`
	PaidAt        *time.Time             `json:"paid_at,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

type CreateQuoteBody struct {
	RequestID     uint64                 `json:"request_id"`
	WorkerID      string                 `json:"worker_id"`
	ClientID      string                 `json:"client_id"`
	Services      []workflow.ServiceLine `json:"services"`
	TransportFee  float64                `json:"transport_fee"`
	TotalPrice    float64                `json:"total_price"`
	EstimatedTime string                 `json:"estimated_time"`
	Notes         string                 `json:"notes"`
	// Status is accepted for compatibility; new quotes are always pending.
	Status string `json:"status,omitempty"`
}

type ChatSession struct {
	ID          uint64                 `json:"id"`
	ClientID    string                 `json:"client_id"`
	WorkerID    string                 `json:"worker_id"`
	ServiceType workflow.ServiceType   `json:"service_type"`
	Status      workflow.SessionStatus `json:"status"`
	AgreedPrice *float64               `json:"agreed_price"`
	HasUnread   bool                   `json:"has_unread"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

type CreateSessionBody struct {
	WorkerID    string               `json:"worker_id"`
	ClientID    string               `json:"client_id"`
	ServiceType workflow.ServiceType `json:"service_type"`
}

type AgreedPriceBody struct {
	AgreedPrice float64 `json:"agreed_price"`
}

type Message struct {
	ID              uint64                   `json:"id"`
	SessionID       uint64                   `json:"session_id"`
	SenderID        string                   `json:"sender_id,omitempty"`
	SenderType      workflow.SenderType      `json:"sender_type"`
	Message         string                   `json:"message"`
	PurchaseRequest bool                     `json:"purchase_request"`
	ProductDetails  *workflow.ProductDetails `json:"product_details,omitempty"`
	PurchaseStatus  workflow.PurchaseStatus  `json:"purchase_status,omitempty"`
	Total           float64                  `json:"total,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
}

type SendMessageBody struct {
	SessionID  uint64              `json:"session_id"`
	Message    string              `json:"message"`
	SenderType workflow.SenderType `json:"sender_type"`
}

type PurchaseRequestBody struct {
	SessionID      uint64                  `json:"session_id"`
	ProductDetails workflow.ProductDetails `json:"product_details"`
}

type PurchaseDecisionBody struct {
	Action workflow.PurchaseStatus `json:"action"`
}

type Payment struct {
	ID         uint64                 `json:"id"`
	QuoteID    uint64                 `json:"quote_id"`
	RequestID  uint64                 `json:"request_id"`
	ClientID   string                 `json:"client_id"`
	WorkerID   string                 `json:"worker_id"`
	Amount     float64                `json:"amount"`
	Method     workflow.PaymentMethod `json:"payment_method"`
	Reference  string                 `json:"payment_reference"`
	Date       string                 `json:"payment_date,omitempty"`
	Time       string                 `json:"payment_time,omitempty"`
	Screenshot *string                `json:"payment_screenshot,omitempty"`
	Status     workflow.PaymentStatus `json:"status"`
	VerifiedAt *time.Time             `json:"verified_at,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

type SubmitPaymentBody struct {
	QuoteID    uint64                 `json:"quote_id"`
	ClientID   string                 `json:"client_id"`
	WorkerID   string                 `json:"worker_id"`
	Amount     float64                `json:"amount"`
	Method     workflow.PaymentMethod `json:"payment_method"`
	Reference  string                 `json:"payment_reference"`
	Date       string                 `json:"payment_date"`
	Time       string                 `json:"payment_time"`
	Screenshot string                 `json:"payment_screenshot"`
}

type VerifyBody struct {
	Status workflow.PaymentStatus `json:"status"`
}

type ProofUpload struct {
	URL string `json:"url"`
}

type Worker struct {
	UID         string                 `json:"uid"`
	DisplayName string                 `json:"display_name"`
	Phone       string                 `json:"phone,omitempty"`
	Zone        string                 `json:"zone,omitempty"`
	Services    []workflow.ServiceType `json:"services"`
}

type ConfigureServicesBody struct {
	DisplayName string   `json:"display_name"`
	Phone       string   `json:"phone"`
	Zone        string   `json:"zone"`
	Services    []string `json:"services"`
}

type Notification struct {
	ID        uint64    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	RequestID *uint64   `json:"request_id,omitempty"`
	QuoteID   *uint64   `json:"quote_id,omitempty"`
	SessionID *uint64   `json:"session_id,omitempty"`
	PaymentID *uint64   `json:"payment_id,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type NotificationList struct {
	Items       []Notification `json:"items"`
	UnreadCount int64          `json:"unread_count"`
}

type Earnings struct {
	WorkerUID   string  `json:"worker_uid"`
	Earned      float64 `json:"earned"`
	EarnedCents int64   `json:"earned_cents"`
	Payments    int64   `json:"payments"`
}

type Health struct {
	OK        bool   `json:"ok"`
	DBReady   bool   `json:"db_ready"`
	GitSHA    string `json:"git_sha"`
	BuildTime string `json:"build_time"`
}
