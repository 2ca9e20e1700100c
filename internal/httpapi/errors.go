package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"ttsd/internal/apperr"
	"ttsd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeErrorBody(w, types.ErrorResponse{Error: msg, Code: status})
}

// writeError maps err onto a status code and writes it. Errors that do not
// carry a status are reported as 500.
func writeError(w http.ResponseWriter, err error) int {
	body := errorBody(err)
	if body.Code == http.StatusTooManyRequests {
		IncrementBackpressure("gate_wait")
	}
	writeErrorBody(w, body)
	return body.Code
}

func errorBody(err error) types.ErrorResponse {
	body := types.ErrorResponse{Error: err.Error(), Code: statusFor(err)}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		body.Kind = string(ae.Kind)
		body.Field = ae.Field
	}
	return body
}

func statusFor(err error) int {
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

func writeErrorBody(w http.ResponseWriter, body types.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.Code)
	_ = json.NewEncoder(w).Encode(body)
}
