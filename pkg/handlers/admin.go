package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tables/pkg/services"
)

// AdminHandler exposes maintenance operations.
type AdminHandler struct {
	lifecycleService services.LifecycleService
	logger           *zap.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(lifecycleService services.LifecycleService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		lifecycleService: lifecycleService,
		logger:           orNop(logger),
	}
}

// RegisterRoutes registers the admin routes on the given mux.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/admin/reset", h.Reset)
}

// Reset handles POST /api/admin/reset?drop_tables=bool
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	dropTables := false
	if raw := r.URL.Query().Get("drop_tables"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			if err := ErrorResponse(w, http.StatusInternalServerError, "invalid_request", "drop_tables must be a boolean"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		dropTables = v
	}

	if err := h.lifecycleService.Reset(r.Context(), dropTables); err != nil {
		h.logger.Error("Reset failed", zap.Bool("drop_tables", dropTables), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	h.logger.Info("State reset", zap.Bool("drop_tables", dropTables))
	w.WriteHeader(http.StatusNoContent)
}
