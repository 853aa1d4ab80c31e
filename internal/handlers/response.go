package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/sbilibin2017/gw-home-inventory/internal/jwt"
	"github.com/sbilibin2017/gw-home-inventory/internal/logger"
	"github.com/sbilibin2017/gw-home-inventory/internal/validation"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

var exposeErrorDetail atomic.Bool

// SetErrorDetail controls whether 500 responses carry the underlying error text.
// Enabled only in development.
func SetErrorDetail(enabled bool) {
	exposeErrorDetail.Store(enabled)
}

// ErrorResponse is the body of every non-2xx response
// swagger:model ErrorResponse
type ErrorResponse struct {
	// Error message
	// default: Invalid request body
	Error string `json:"error"`

	// Underlying error, development only
	Detail string `json:"detail,omitempty"`

	// Per-field validation failures
	Fields []validation.FieldError `json:"fields,omitempty"`
}

// MessageResponse is a plain confirmation
// swagger:model MessageResponse
type MessageResponse struct {
	// Confirmation message
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorw("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeInternalError(w http.ResponseWriter, err error) {
	logger.Log.Errorw("internal server error", "err", err)
	resp := ErrorResponse{Error: "Internal server error"}
	if exposeErrorDetail.Load() && err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}

// decodeJSON decodes exactly one JSON object into dst, rejecting unknown fields
// and wrong types, then validates it.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("decode body: unexpected data after JSON object")
	}

	return validation.ValidateStruct(dst)
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  verr.Error(),
			Fields: verr.Fields,
		})
		return
	}

	logger.Log.Infow("rejected request body", "err", err)
	writeError(w, http.StatusBadRequest, "Invalid request body")
}

// sessionUserID returns the subject placed in the context by the auth middleware.
func sessionUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims, ok := jwt.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return claims.UserID, true
}
