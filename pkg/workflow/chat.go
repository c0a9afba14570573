package workflow

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

type SenderType string

const (
	SenderClient SenderType = "client"
	SenderWorker SenderType = "worker"
	// SenderSystem marks messages the server posts on workflow events.
	SenderSystem SenderType = "system"
)

// Valid reports whether s is a participant sender; system messages are never user-sent.
func (s SenderType) Valid() bool {
	return s == SenderClient || s == SenderWorker
}

type SessionStatus string

const (
	SessionActive      SessionStatus = "active"
	SessionPriceAgreed SessionStatus = "price_agreed"
	SessionCompleted   SessionStatus = "completed"
	SessionCancelled   SessionStatus = "cancelled"
)

// Open reports whether the session still accepts negotiation.
func (s SessionStatus) Open() bool {
	return s == SessionActive || s == SessionPriceAgreed
}

const MaxMessageLength = 500

// NormalizeMessageText trims text and enforces the non-empty and length rules.
func NormalizeMessageText(text string) (string, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", Validationf("Escribe un mensaje")
	}
	if utf8.RuneCountInString(t) > MaxMessageLength {
		return "", Validationf("El mensaje no puede superar %d caracteres", MaxMessageLength)
	}
	return t, nil
}

type PurchaseStatus string

const (
	PurchaseNone     PurchaseStatus = ""
	PurchasePending  PurchaseStatus = "pending"
	PurchaseAccepted PurchaseStatus = "accepted"
	PurchaseRejected PurchaseStatus = "rejected"
)

// ProductDetails is the payload of a purchase request carried in a chat message.
type ProductDetails struct {
	Name      string  `json:"name"`
	Brand     string  `json:"brand,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Total is quantity × unit price; it is derived, never stored.
func (p ProductDetails) Total() float64 {
	return RoundCents(float64(p.Quantity) * p.UnitPrice)
}

func (p *ProductDetails) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Brand = strings.TrimSpace(p.Brand)
	if p.Name == "" {
		return Validationf("Indica el nombre del producto")
	}
	if p.Quantity < 1 {
		return Validationf("La cantidad debe ser al menos 1")
	}
	if math.IsNaN(p.UnitPrice) || p.UnitPrice <= 0 {
		return Validationf("El precio del producto debe ser mayor a 0")
	}
	return nil
}

// Summary is the chat text shown for a purchase request.
func (p ProductDetails) Summary() string {
	name := p.Name
	if p.Brand != "" {
		name = fmt.Sprintf("%s (%s)", p.Name, p.Brand)
	}
	return fmt.Sprintf("Solicitud de compra: %d x %s, total $%.2f", p.Quantity, name, p.Total())
}

// CheckPurchaseDecision guards the one-way pending → accepted|rejected edge.
func CheckPurchaseDecision(current, decision PurchaseStatus) error {
	if decision != PurchaseAccepted && decision != PurchaseRejected {
		return Validationf("Respuesta de compra no válida")
	}
	if current == PurchaseNone {
		return Validationf("El mensaje no es una solicitud de compra")
	}
	if current != PurchasePending {
		return Conflictf("La solicitud de compra ya fue respondida")
	}
	return nil
}

func ValidateAgreedPrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return Validationf("El precio acordado debe ser mayor a 0")
	}
	return nil
}
