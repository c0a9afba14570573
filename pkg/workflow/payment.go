package workflow

import (
	"math"
	"strings"
	"time"
)

type PaymentMethod string

const (
	MethodPaypal    PaymentMethod = "paypal"
	MethodBinance   PaymentMethod = "binance"
	MethodTransfer  PaymentMethod = "transfer"
	MethodCash      PaymentMethod = "cash"
	MethodPagoMovil PaymentMethod = "pagomovil"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodPaypal, MethodBinance, MethodTransfer, MethodCash, MethodPagoMovil:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPendingVerification PaymentStatus = "pending_verification"
	PaymentVerified            PaymentStatus = "verified"
	PaymentRejected            PaymentStatus = "rejected"
)

// LivePaymentStatuses block a second payment for the same quote.
var LivePaymentStatuses = []PaymentStatus{PaymentPendingVerification, PaymentVerified}

const (
	PaymentDateLayout = "2006-01-02"
	PaymentTimeLayout = "15:04"
)

// NewPayment is the input of submitPayment.
type NewPayment struct {
	QuoteID    uint64
	ClientID   string
	WorkerID   string
	Amount     float64
	Method     PaymentMethod
	Reference  string
	Date       string
	Time       string
	Screenshot string
}

func (p *NewPayment) Validate() error {
	p.ClientID = strings.TrimSpace(p.ClientID)
	p.Reference = strings.TrimSpace(p.Reference)
	p.Date = strings.TrimSpace(p.Date)
	p.Time = strings.TrimSpace(p.Time)
	p.Screenshot = strings.TrimSpace(p.Screenshot)
	p.Method = PaymentMethod(strings.ToLower(strings.TrimSpace(string(p.Method))))
	if p.QuoteID == 0 {
		return Validationf("Cotización no válida")
	}
	if p.ClientID == "" {
		return Validationf("Falta el cliente del pago")
	}
	if math.IsNaN(p.Amount) || math.IsInf(p.Amount, 0) || p.Amount <= 0 {
		return Validationf("El monto debe ser mayor a 0")
	}
	if !p.Method.Valid() {
		return Validationf("Método de pago no soportado")
	}
	if p.Reference == "" {
		return Validationf("Indica la referencia del pago")
	}
	if p.Date != "" {
		if _, err := time.Parse(PaymentDateLayout, p.Date); err != nil {
			return Validationf("Fecha de pago no válida")
		}
	}
	if p.Time != "" {
		if _, err := time.Parse(PaymentTimeLayout, p.Time); err != nil {
			return Validationf("Hora de pago no válida")
		}
	}
	return nil
}

// CheckPaymentVerification guards pending_verification → verified|rejected.
func CheckPaymentVerification(current, decision PaymentStatus) error {
	if decision != PaymentVerified && decision != PaymentRejected {
		return Validationf("Decisión de verificación no válida")
	}
	if current != PaymentPendingVerification {
		return InvalidTransitionf("El pago ya fue procesado")
	}
	return nil
}
