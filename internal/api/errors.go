package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/safar/store-dashboard/internal/dashboard"
	"github.com/safar/store-dashboard/internal/database"
	"go.uber.org/zap"
)

const (
	codeAuthentication   = "AUTHENTICATION_ERROR"
	codeAuthorization    = "AUTHORIZATION_ERROR"
	codeValidation       = "VALIDATION_ERROR"
	codeNotFound         = "NOT_FOUND"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	codeRequestTooLarge  = "REQUEST_TOO_LARGE"
	codeStoreUnavailable = "STORE_UNAVAILABLE"
	codeInternal         = "INTERNAL_ERROR"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
	// Updated lists the products saved before an inventory batch stopped.
	Updated []int64 `json:"updated,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, r, status, errorResponse{Error: message, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, resp errorResponse) {
	resp.RequestID = requestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, "route not found", codeNotFound, http.StatusNotFound)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, "method not allowed", codeMethodNotAllowed, http.StatusMethodNotAllowed)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps a service error onto the error response.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	resp, status := h.mapError(r, err)
	writeErrorResponse(w, r, status, resp)
}

func (h *Handler) mapError(r *http.Request, err error) (errorResponse, int) {
	var verr *dashboard.ValidationError
	switch {
	case errors.As(err, &verr):
		return errorResponse{Error: verr.Error(), Code: codeValidation}, http.StatusBadRequest
	case database.IsRetryable(err):
		h.log.Warn("store unavailable",
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err))
		return errorResponse{Error: "store temporarily unavailable", Code: codeStoreUnavailable}, http.StatusServiceUnavailable
	default:
		h.log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err))
		return errorResponse{Error: "internal server error", Code: codeInternal}, http.StatusInternalServerError
	}
}

// decodeJSON reports false after writing the error response when the body
// cannot be decoded into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", codeRequestTooLarge, http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), codeValidation, http.StatusBadRequest)
		return false
	}
	return true
}
