package workflow

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cast"
)

type QuoteStatus string

const (
	QuotePending  QuoteStatus = "pending"
	QuoteAccepted QuoteStatus = "accepted"
	QuoteRejected QuoteStatus = "rejected"
	QuotePaid     QuoteStatus = "paid"
)

// OpenQuoteStatuses are the states that block a second quote on the same Request.
var OpenQuoteStatuses = []QuoteStatus{QuotePending, QuoteAccepted}

const (
	MaxNotesLength = 300
	totalTolerance = 0.005
)

type ServiceLine struct {
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// ToCents converts a money amount to whole cents.
func ToCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// QuoteTotal is the sum of the line prices plus the transport fee, in cents precision.
func QuoteTotal(lines []ServiceLine, transportFee float64) float64 {
	sum := transportFee
	for _, l := range lines {
		sum += l.Price
	}
	return RoundCents(sum)
}

// NewQuote is the input of submitQuote. TotalPrice is the total the caller computed;
// zero means "not sent". Validate drops the rows that carry no description or no price.
type NewQuote struct {
	RequestID     uint64
	WorkerID      string
	ClientID      string
	Services      []ServiceLine
	TransportFee  float64
	TotalPrice    float64
	EstimatedTime string
	Notes         string
}

func (q *NewQuote) Validate() error {
	q.WorkerID = strings.TrimSpace(q.WorkerID)
	q.EstimatedTime = strings.TrimSpace(q.EstimatedTime)
	q.Notes = strings.TrimSpace(q.Notes)
	if q.RequestID == 0 {
		return Validationf("Solicitud no válida")
	}
	if q.WorkerID == "" {
		return Validationf("Falta el trabajador de la cotización")
	}
	// rows without a description or a price are left out, as in the draft form
	kept := make([]ServiceLine, 0, len(q.Services))
	for _, l := range q.Services {
		l.Description = strings.TrimSpace(l.Description)
		if math.IsNaN(l.Price) || math.IsInf(l.Price, 0) || l.Price < 0 {
			return Validationf("Los precios no pueden ser negativos")
		}
		if l.Description == "" || l.Price == 0 {
			continue
		}
		kept = append(kept, l)
	}
	if len(kept) == 0 {
		return Validationf("Agrega al menos un servicio con descripción y precio")
	}
	q.Services = kept
	if math.IsNaN(q.TransportFee) || q.TransportFee < 0 {
		return Validationf("La tarifa de transporte no puede ser negativa")
	}
	if q.EstimatedTime == "" {
		return Validationf("Indica el tiempo estimado")
	}
	if utf8.RuneCountInString(q.Notes) > MaxNotesLength {
		return Validationf("Las notas no pueden superar %d caracteres", MaxNotesLength)
	}
	if q.TotalPrice != 0 && math.Abs(q.TotalPrice-QuoteTotal(q.Services, q.TransportFee)) > totalTolerance {
		return Validationf("El total no coincide con los servicios")
	}
	return nil
}

var quoteTransitions = map[Role]map[QuoteStatus][]QuoteStatus{
	RoleClient: {
		QuotePending: {QuoteAccepted, QuoteRejected},
	},
	RoleSystem: {
		QuoteAccepted: {QuotePaid},
	},
}

func CheckQuoteTransition(from, to QuoteStatus, role Role) error {
	if from == QuotePaid {
		return InvalidTransitionf("La cotización ya fue pagada")
	}
	for _, allowed := range quoteTransitions[role][from] {
		if allowed == to {
			return nil
		}
	}
	return InvalidTransitionf("No se puede cambiar la cotización de %s a %s", from, to)
}

// DraftLine is one editable service row; Price is the raw text typed by the worker.
type DraftLine struct {
	Description string
	Price       string
}

// QuoteDraft is the worker-side form state of a quote. Its total is always derived from
// the current fields, so every edit is reflected immediately.
type QuoteDraft struct {
	Lines         []DraftLine
	TransportFee  string
	EstimatedTime string
	Notes         string
}

func NewQuoteDraft() *QuoteDraft {
	return &QuoteDraft{Lines: []DraftLine{{}}}
}

func (d *QuoteDraft) AddServiceLine(description, price string) {
	d.Lines = append(d.Lines, DraftLine{Description: description, Price: price})
}

// RemoveServiceLine drops line i; the last remaining slot is never removed.
func (d *QuoteDraft) RemoveServiceLine(i int) error {
	if i < 0 || i >= len(d.Lines) {
		return Validationf("Servicio no encontrado")
	}
	if len(d.Lines) == 1 {
		return Validationf("Debe quedar al menos un servicio")
	}
	d.Lines = append(d.Lines[:i], d.Lines[i+1:]...)
	return nil
}

func (d *QuoteDraft) SetServiceLine(i int, description, price string) error {
	if i < 0 || i >= len(d.Lines) {
		return Validationf("Servicio no encontrado")
	}
	d.Lines[i] = DraftLine{Description: description, Price: price}
	return nil
}

func (d *QuoteDraft) SetTransportFee(fee string) {
	d.TransportFee = fee
}

// Total recomputes Σ(valid line prices) + transport fee. Blank or unparsable amounts
// contribute 0.
func (d *QuoteDraft) Total() float64 {
	sum := 0.0
	for _, l := range d.Lines {
		if v, ok := ParseAmount(l.Price); ok {
			sum += v
		}
	}
	if fee, ok := ParseAmount(d.TransportFee); ok {
		sum += fee
	}
	return RoundCents(sum)
}

// ValidLines returns the lines that would be submitted: non-empty description and a
// parseable price above zero.
func (d *QuoteDraft) ValidLines() []ServiceLine {
	out := make([]ServiceLine, 0, len(d.Lines))
	for _, l := range d.Lines {
		desc := strings.TrimSpace(l.Description)
		price, ok := ParseAmount(l.Price)
		if desc == "" || !ok || price <= 0 {
			continue
		}
		out = append(out, ServiceLine{Description: desc, Price: price})
	}
	return out
}

// Build turns the draft into a submittable quote. Rows that are not valid are left out;
// at least one valid row must remain.
func (d *QuoteDraft) Build(requestID uint64, workerID, clientID string) (NewQuote, error) {
	fee := 0.0
	if strings.TrimSpace(d.TransportFee) != "" {
		v, ok := ParseAmount(d.TransportFee)
		if !ok {
			return NewQuote{}, Validationf("La tarifa de transporte no es válida")
		}
		fee = v
	}
	lines := d.ValidLines()
	q := NewQuote{
		RequestID:     requestID,
		WorkerID:      workerID,
		ClientID:      clientID,
		Services:      lines,
		TransportFee:  fee,
		TotalPrice:    QuoteTotal(lines, fee),
		EstimatedTime: d.EstimatedTime,
		Notes:         d.Notes,
	}
	if len(lines) == 0 {
		return q, Validationf("Agrega al menos un servicio con descripción y precio")
	}
	err := q.Validate()
	return q, err
}

// ParseAmount reads a money amount typed by a user ("12.5", "12,50"). Negative, blank
// and non-numeric input is rejected.
func ParseAmount(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if s == "" {
		return 0, false
	}
	v, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}
