package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tables/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// ErrorCode classifies err by the apperrors sentinel it wraps.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return "validation_error"
	case errors.Is(err, apperrors.ErrConflict):
		return "conflict"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrEngine):
		return "engine_error"
	default:
		return "internal_error"
	}
}

// orNop returns logger, or a no-op logger when it is nil.
func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// writeError responds with statusCode and the classified error, logging
// encoding failures.
func writeError(w http.ResponseWriter, logger *zap.Logger, statusCode int, err error) {
	if err := ErrorResponse(w, statusCode, ErrorCode(err), err.Error()); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// decodeJSON decodes the request body into dst. On failure it writes the
// endpoint's failure status and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, failStatus int, logger *zap.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Debug("Rejected request body", zap.String("path", r.URL.Path), zap.Error(err))
		if err := ErrorResponse(w, failStatus, "invalid_request", fmt.Sprintf("Invalid request body: %v", err)); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return false
	}
	return true
}

// logFailure logs a rejected request. Engine and unclassified failures are
// errors; validation, conflict and not-found outcomes are routine.
func logFailure(logger *zap.Logger, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	switch ErrorCode(err) {
	case "engine_error", "internal_error":
		logger.Error(msg, fields...)
	default:
		logger.Info(msg, fields...)
	}
}
