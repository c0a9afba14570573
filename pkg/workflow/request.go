package workflow

import (
	"strings"
)

type ServiceType string

const (
	ServiceMechanic ServiceType = "mechanic"
	ServiceCrane    ServiceType = "crane"
	ServiceParts    ServiceType = "parts"
)

func (s ServiceType) Valid() bool {
	switch s {
	case ServiceMechanic, ServiceCrane, ServiceParts:
		return true
	}
	return false
}

// ParseServiceTypes validates and de-duplicates a configured service set.
func ParseServiceTypes(raw []string) ([]ServiceType, error) {
	seen := make(map[ServiceType]bool, len(raw))
	out := make([]ServiceType, 0, len(raw))
	for _, r := range raw {
		st := ServiceType(strings.ToLower(strings.TrimSpace(r)))
		if st == "" {
			continue
		}
		if !st.Valid() {
			return nil, Validationf("Tipo de servicio no válido: %s", r)
		}
		if seen[st] {
			continue
		}
		seen[st] = true
		out = append(out, st)
	}
	return out, nil
}

type Urgency string

const (
	UrgencyLow       Urgency = "low"
	UrgencyNormal    Urgency = "normal"
	UrgencyHigh      Urgency = "high"
	UrgencyEmergency Urgency = "emergency"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyNormal, UrgencyHigh, UrgencyEmergency:
		return true
	}
	return false
}

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestRejected  RequestStatus = "rejected"
	RequestCompleted RequestStatus = "completed"
	RequestCancelled RequestStatus = "cancelled"
	RequestExpired   RequestStatus = "expired"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestAccepted, RequestRejected, RequestCompleted, RequestCancelled, RequestExpired:
		return true
	}
	return false
}

func (s RequestStatus) Terminal() bool {
	switch s {
	case RequestRejected, RequestCompleted, RequestCancelled, RequestExpired:
		return true
	}
	return false
}

// ActiveRequestStatuses are the non-terminal states.
var ActiveRequestStatuses = []RequestStatus{RequestPending, RequestAccepted}

// Role is the party driving a transition.
type Role string

const (
	RoleClient Role = "client"
	RoleWorker Role = "worker"
	RoleSystem Role = "system"
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// NewRequest is the input of createRequest.
type NewRequest struct {
	ClientID           string
	WorkerID           string
	ServiceType        ServiceType
	ProblemDescription string
	VehicleInfo        string
	UrgencyLevel       Urgency
	Coordinates        *Coordinates
}

// Validate trims the free-text fields, defaults the urgency and checks every field.
func (r *NewRequest) Validate() error {
	r.ClientID = strings.TrimSpace(r.ClientID)
	r.WorkerID = strings.TrimSpace(r.WorkerID)
	r.ProblemDescription = strings.TrimSpace(r.ProblemDescription)
	r.VehicleInfo = strings.TrimSpace(r.VehicleInfo)
	if r.ClientID == "" {
		return Validationf("Falta el cliente de la solicitud")
	}
	if r.WorkerID == "" {
		return Validationf("Selecciona un trabajador")
	}
	if r.ClientID == r.WorkerID {
		return Validationf("No puedes solicitarte un servicio a ti mismo")
	}
	if !r.ServiceType.Valid() {
		return Validationf("Tipo de servicio no válido")
	}
	if r.ProblemDescription == "" {
		return Validationf("Describe el problema")
	}
	if r.VehicleInfo == "" {
		return Validationf("Indica la información del vehículo")
	}
	if r.UrgencyLevel == "" {
		r.UrgencyLevel = UrgencyNormal
	}
	if !r.UrgencyLevel.Valid() {
		return Validationf("Nivel de urgencia no válido")
	}
	if r.Coordinates == nil {
		return Validationf("No se pudo obtener tu ubicación")
	}
	if !r.Coordinates.Valid() {
		return Validationf("Ubicación no válida")
	}
	return nil
}

var requestTransitions = map[Role]map[RequestStatus][]RequestStatus{
	RoleWorker: {
		RequestPending: {RequestAccepted, RequestRejected},
	},
	RoleClient: {
		RequestPending:  {RequestCancelled},
		RequestAccepted: {RequestCancelled},
	},
	RoleSystem: {
		RequestPending:  {RequestAccepted, RequestExpired},
		RequestAccepted: {RequestCompleted},
	},
}

// CheckRequestTransition reports whether role may move a Request from one status to another.
func CheckRequestTransition(from, to RequestStatus, role Role) error {
	if from.Terminal() {
		return InvalidTransitionf("La solicitud ya fue cerrada")
	}
	for _, allowed := range requestTransitions[role][from] {
		if allowed == to {
			return nil
		}
	}
	return InvalidTransitionf("No se puede cambiar la solicitud de %s a %s", from, to)
}
