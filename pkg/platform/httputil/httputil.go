// Package httputil writes JSON responses and translates coded errors to HTTP.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "fundops/pkg/domain-errors"
)

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

var internalErrorBody = []byte(`{"error":"internal_error"}` + "\n")

// WriteJSON encodes v with the given status. The body is encoded before the
// header is sent, so a value that cannot be encoded becomes a 500.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	if v == nil {
		w.WriteHeader(status)
		return
	}
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode response body", "error", err, "status", status)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(internalErrorBody)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// WriteError maps err to a status and error envelope. Internal errors never
// expose their description; uncoded errors are treated as internal.
func WriteError(w http.ResponseWriter, err error) {
	code, ok := dErrors.CodeOf(err)
	if !ok {
		code = dErrors.CodeInternal
	}
	status := StatusFor(code)
	resp := ErrorResponse{Error: string(code)}
	if status < http.StatusInternalServerError {
		resp.Description = dErrors.MessageOf(err)
	}
	WriteJSON(w, status, resp)
}

// StatusFor returns the HTTP status for a domain error code.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeValidation,
		dErrors.CodeUnknownRole, dErrors.CodeInvalidCommission:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized, dErrors.CodeUnauthenticated:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeAmbiguousRole,
		dErrors.CodeFundNotRaising, dErrors.CodeAlreadyActive:
		return http.StatusConflict
	case dErrors.CodeUnknownAdministrator, dErrors.CodeUnknownInvestor,
		dErrors.CodeCapitalExceeded, dErrors.CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case dErrors.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case dErrors.CodePersistence:
		return http.StatusServiceUnavailable
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
