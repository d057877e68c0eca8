package model

import "encoding/json"

const DefaultYear = "Year: 1444"

// Query values of the "action" parameter on /api/data.
const (
	ActionGetYear = "getYear"
	ActionSetYear = "setYear"
	ActionVerify  = "verify"
	ActionRestore = "restore"
)

type YearResponse struct {
	Year string `json:"year"`
}

type VerifyResponse struct {
	Authorized bool `json:"authorized"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// LiveMessage is pushed to WebSocket clients.
type LiveMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}
