// Package rest is the HTTP transport of the library server: a chi router,
// JSON handlers for the auth and books endpoints, the bearer-token gate and
// the operational endpoints (health, metrics).
package rest

import (
	"encoding/json"
	"net/http"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

type successBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// errorBody always carries the error key, null when there is no detail.
type errorBody struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Error   *string `json:"error"`
}

// statusBody is used by the router-level fallbacks, which have no detail.
type statusBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, successBody{Status: statusSuccess, Message: message, Data: data})
}

// writeError writes the error envelope. An empty detail is sent as null.
func writeError(w http.ResponseWriter, status int, message, detail string) {
	body := errorBody{Status: statusError, Message: message}
	if detail != "" {
		body.Error = &detail
	}
	writeJSON(w, status, body)
}

func writeStatus(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, statusBody{Status: statusError, Message: message})
}
