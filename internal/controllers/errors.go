package controllers

import (
	"errors"
	"net/http"

	"fpledger/internal/ledger"
	"fpledger/internal/models"
	"fpledger/internal/providers"

	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
)

const (
	CodeValidationFailed        = "VALIDATION_FAILED"
	CodeDuplicateTransaction    = "DUPLICATE_TRANSACTION"
	CodeFingerprintHashMismatch = "FINGERPRINT_HASH_MISMATCH"
	CodeNotFound                = "NOT_FOUND"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeStorageUnavailable      = "STORAGE_UNAVAILABLE"
	CodeInternal                = "INTERNAL"
)

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Detail  string            `json:"detail,omitempty"`
}

type errorResponse struct {
	Error     errorBody `json:"error"`
	RequestID string    `json:"requestId,omitempty"`
}

// apiError maps a service error onto its HTTP status and envelope.
func apiError(err error) (int, errorBody) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorBody{Code: CodeValidationFailed, Message: "request validation failed", Fields: verr.Fields}
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		return http.StatusConflict, errorBody{Code: CodeDuplicateTransaction, Message: "transaction already recorded for this fingerprint"}
	case errors.Is(err, ledger.ErrFingerprintHashMismatch):
		return http.StatusConflict, errorBody{Code: CodeFingerprintHashMismatch, Message: "fingerprint id is registered with a different hash"}
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound, errorBody{Code: CodeNotFound, Message: "fingerprint record not found"}
	case errors.Is(err, ledger.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, errorBody{Code: CodeStorageUnavailable, Message: "storage is temporarily unavailable"}
	default:
		return http.StatusInternalServerError, errorBody{Code: CodeInternal, Message: "internal server error"}
	}
}

func writeJSON(w http.ResponseWriter, status int, gson []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func marshalAndWrite(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, status, gson)
}

// errorWriter renders errors in one envelope. detail carries the raw error
// text and is only filled in debug mode.
type errorWriter struct {
	logger providers.Logger
	debug  bool
}

func (ew errorWriter) write(w http.ResponseWriter, r *http.Request, status int, body errorBody) {
	marshalAndWrite(w, status, errorResponse{Error: body, RequestID: middleware.GetReqID(r.Context())})
}

func (ew errorWriter) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := apiError(err)
	if status >= http.StatusInternalServerError {
		ew.logger.Errorf(providers.GetLogTypeByRequestType(r.Method), "%s %s failed: %v", r.Method, r.URL.Path, err)
	}
	if ew.debug && body.Fields == nil {
		body.Detail = err.Error()
	}
	ew.write(w, r, status, body)
}
