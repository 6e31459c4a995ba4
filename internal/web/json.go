package web

import (
	"encoding/json"
	"net/http"
)

// StatusResponse is the body returned by the status update endpoint.
type StatusResponse struct {
	Success   bool   `json:"success"`
	NewStatus string `json:"new_status,omitempty"`
	Error     string `json:"error,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func writeStatusError(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, &StatusResponse{Success: false, Error: message})
}
