// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/svskaushik/ArxivPulse/internal/apperr"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeFailure maps err to a status: validation failures are the
// caller's (400, with the reason), everything else is ours (500, with
// message and the error as details).
func writeFailure(w http.ResponseWriter, err error, message string) {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, ve.Error())
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: message, Details: err.Error()})
}
