package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// ParseIntID extracts an integer id from the {id} path parameter.
// Returns the id and true on success, or 0 and false after writing an error
// response with failStatus.
func ParseIntID(w http.ResponseWriter, r *http.Request, failStatus int, logger *zap.Logger) (int, bool) {
	idStr := r.PathValue("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		if err := ErrorResponse(w, failStatus, "invalid_id", "Invalid id format: "+strconv.Quote(idStr)); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, false
	}
	return id, true
}
