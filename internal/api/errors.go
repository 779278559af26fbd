// Package api serves the local operator HTTP API on top of the router loop.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/thajpo/ceo-dashboard/internal/dashboard"
)

type ErrorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Detail: message})
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, message)
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, message)
}

// writeRuntimeError reports a failed call to the agent runtime.
func writeRuntimeError(w http.ResponseWriter, err error) {
	var se *dashboard.StatusError
	if errors.As(err, &se) {
		writeError(w, http.StatusBadGateway, se.Error())
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
