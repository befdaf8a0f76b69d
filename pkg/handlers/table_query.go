package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tables/pkg/services"
)

// TableQueryHandler handles statements registered against a table.
type TableQueryHandler struct {
	statementService services.StatementService
	logger           *zap.Logger
}

// NewTableQueryHandler creates a new table statement handler.
func NewTableQueryHandler(statementService services.StatementService, logger *zap.Logger) *TableQueryHandler {
	return &TableQueryHandler{
		statementService: statementService,
		logger:           orNop(logger),
	}
}

// RegisterRoutes registers the table statement routes on the given mux.
func (h *TableQueryHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/table-query"

	mux.HandleFunc("POST "+base+"/add-new-query-to-table", h.Add)
	mux.HandleFunc("PUT "+base+"/modify-query-in-table", h.Update)
	mux.HandleFunc("DELETE "+base+"/delete-table-query-by-id/{id}", h.Delete)
	mux.HandleFunc("GET "+base+"/execute-table-query-by-id/{id}", h.Execute)
	mux.HandleFunc("GET "+base+"/get-all-queries-by-table-name/{name}", h.ListByTable)
	mux.HandleFunc("GET "+base+"/get-table-query-by-id/{id}", h.Get)
	mux.HandleFunc("GET "+base+"/get-all-table-queries", h.List)
}

// Add handles POST /api/table-query/add-new-query-to-table
func (h *TableQueryHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req TableStatementRequest
	if !decodeJSON(w, r, &req, http.StatusNotAcceptable, h.logger) {
		return
	}

	stmt := req.toModel()
	if err := h.statementService.AddTableStatement(r.Context(), stmt); err != nil {
		logFailure(h.logger, "Add table statement rejected", err,
			zap.Int("statement_id", stmt.ID),
			zap.String("table", stmt.TableName))
		writeError(w, h.logger, http.StatusNotAcceptable, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// Update handles PUT /api/table-query/modify-query-in-table
func (h *TableQueryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req TableStatementRequest
	if !decodeJSON(w, r, &req, http.StatusNotAcceptable, h.logger) {
		return
	}

	stmt := req.toModel()
	if err := h.statementService.UpdateTableStatement(r.Context(), stmt); err != nil {
		logFailure(h.logger, "Update table statement rejected", err,
			zap.Int("statement_id", stmt.ID),
			zap.String("table", stmt.TableName))
		writeError(w, h.logger, http.StatusNotAcceptable, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Delete handles DELETE /api/table-query/delete-table-query-by-id/{id}
func (h *TableQueryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIntID(w, r, http.StatusNotAcceptable, h.logger)
	if !ok {
		return
	}

	if err := h.statementService.DeleteTableStatement(r.Context(), id); err != nil {
		logFailure(h.logger, "Delete table statement rejected", err, zap.Int("statement_id", id))
		writeError(w, h.logger, http.StatusNotAcceptable, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// Execute handles GET /api/table-query/execute-table-query-by-id/{id}
func (h *TableQueryHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIntID(w, r, http.StatusNotAcceptable, h.logger)
	if !ok {
		return
	}

	if err := h.statementService.ExecuteTableStatement(r.Context(), id); err != nil {
		logFailure(h.logger, "Execute table statement failed", err, zap.Int("statement_id", id))
		writeError(w, h.logger, http.StatusNotAcceptable, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// ListByTable handles GET /api/table-query/get-all-queries-by-table-name/{name}
func (h *TableQueryHandler) ListByTable(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	stmts, err := h.statementService.ListByTable(r.Context(), name)
	if err != nil {
		logFailure(h.logger, "List table statements failed", err, zap.String("table", name))
		writeError(w, h.logger, http.StatusNotFound, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, nonNil(stmts)); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/table-query/get-table-query-by-id/{id}
func (h *TableQueryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIntID(w, r, http.StatusInternalServerError, h.logger)
	if !ok {
		return
	}

	stmt, err := h.statementService.GetTableStatement(r.Context(), id)
	if err != nil {
		logFailure(h.logger, "Get table statement failed", err, zap.Int("statement_id", id))
		writeError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, stmt); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/table-query/get-all-table-queries
func (h *TableQueryHandler) List(w http.ResponseWriter, r *http.Request) {
	stmts := h.statementService.ListTableStatements(r.Context())

	if err := WriteJSON(w, http.StatusOK, nonNil(stmts)); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
