package client

import (
	"errors"
	"fmt"

	"github.com/josealejferFB/krizo-backend/pkg/workflow"
)

var (
	// ErrNetwork matches every *NetworkError.
	ErrNetwork = errors.New("network_error")
	// ErrApplication matches every *ApplicationError.
	ErrApplication = errors.New("application_error")
)

// NetworkError is a failed round trip: transport error, or a response without a
// usable envelope.
type NetworkError struct {
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("network error: status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// ApplicationError is a {success:false} envelope. Code refines it into the workflow
// kinds, so errors.Is(err, workflow.ErrConflict) works across the wire.
type ApplicationError struct {
	Status  int
	Code    string
	Message string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

func (e *ApplicationError) Is(target error) bool {
	if target == ErrApplication {
		return true
	}
	kind := workflow.KindForCode(e.Code)
	return kind != nil && target == kind
}

const (
	msgNetwork = "No pudimos conectar con el servidor. Revisa tu conexión e intenta de nuevo."
	msgGeneric = "Ocurrió un error, intenta de nuevo más tarde."
)

// UserMessage is the short Spanish alert text for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var we *workflow.Error
	if errors.As(err, &we) && we.Msg != "" {
		return we.Msg
	}
	var ae *ApplicationError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	if errors.Is(err, ErrNetwork) {
		return msgNetwork
	}
	return msgGeneric
}
