package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tables/pkg/services"
)

// TableHandler handles table DDL and schema lookup requests.
type TableHandler struct {
	tableService services.TableService
	logger       *zap.Logger
}

// NewTableHandler creates a new table handler.
func NewTableHandler(tableService services.TableService, logger *zap.Logger) *TableHandler {
	return &TableHandler{
		tableService: tableService,
		logger:       orNop(logger),
	}
}

// RegisterRoutes registers the table handler's routes on the given mux.
func (h *TableHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/table"

	mux.HandleFunc("POST "+base+"/create-table", h.Create)
	mux.HandleFunc("DELETE "+base+"/drop-table/{name}", h.Drop)
	mux.HandleFunc("GET "+base+"/get-table-by-name/{name}", h.Get)
}

// Create handles POST /api/table/create-table
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTableRequest
	if !decodeJSON(w, r, &req, http.StatusNotAcceptable, h.logger) {
		return
	}

	table := req.toModel()
	if err := h.tableService.CreateTable(r.Context(), table); err != nil {
		logFailure(h.logger, "Create table rejected", err, zap.String("table", table.Name))
		writeError(w, h.logger, http.StatusNotAcceptable, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// Drop handles DELETE /api/table/drop-table/{name}
func (h *TableHandler) Drop(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := h.tableService.DropTable(r.Context(), name); err != nil {
		logFailure(h.logger, "Drop table rejected", err, zap.String("table", name))
		writeError(w, h.logger, http.StatusNotAcceptable, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// Get handles GET /api/table/get-table-by-name/{name}
func (h *TableHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	table, err := h.tableService.GetTable(r.Context(), name)
	if err != nil {
		logFailure(h.logger, "Get table failed", err, zap.String("table", name))
		writeError(w, h.logger, http.StatusNotFound, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, table); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
