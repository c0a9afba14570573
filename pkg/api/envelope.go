// Package api holds the JSON wire types shared by the HTTP handlers and the client SDK.
package api

import "encoding/json"

// Envelope wraps every response body.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
}

func OK(data interface{}) Envelope {
	return Envelope{Success: true, Data: data}
}

func Fail(code, message string) Envelope {
	return Envelope{Success: false, Message: message, Code: code}
}

// RawEnvelope is the decoding side of Envelope; Data is left for the caller to unmarshal.
type RawEnvelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
}

// HasData reports whether data was present and not null.
func (e RawEnvelope) HasData() bool {
	return len(e.Data) > 0 && string(e.Data) != "null"
}
