package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tables/pkg/services"
)

// SingleQueryHandler handles statements with no table association.
type SingleQueryHandler struct {
	statementService services.StatementService
	logger           *zap.Logger
}

// NewSingleQueryHandler creates a new single statement handler.
func NewSingleQueryHandler(statementService services.StatementService, logger *zap.Logger) *SingleQueryHandler {
	return &SingleQueryHandler{
		statementService: statementService,
		logger:           orNop(logger),
	}
}

// RegisterRoutes registers the single statement routes on the given mux.
func (h *SingleQueryHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/single-query"

	mux.HandleFunc("POST "+base+"/add-new-query", h.Add)
	mux.HandleFunc("PUT "+base+"/modify-single-query", h.Update)
	mux.HandleFunc("DELETE "+base+"/delete-single-query-by-id/{id}", h.Delete)
	mux.HandleFunc("GET "+base+"/execute-single-query-by-id/{id}", h.Execute)
	mux.HandleFunc("GET "+base+"/get-single-query-by-id/{id}", h.Get)
	mux.HandleFunc("GET "+base+"/get-all-single-queries", h.List)
}

// Add handles POST /api/single-query/add-new-query.
// Unlike the other write endpoints it rejects with 400.
func (h *SingleQueryHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req SingleStatementRequest
	if !decodeJSON(w, r, &req, http.StatusBadRequest, h.logger) {
		return
	}

	stmt := req.toModel()
	if err := h.statementService.AddSingleStatement(r.Context(), stmt); err != nil {
		logFailure(h.logger, "Add single statement rejected", err, zap.Int("statement_id", stmt.ID))
		writeError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// Update handles PUT /api/single-query/modify-single-query
func (h *SingleQueryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req SingleStatementRequest
	if !decodeJSON(w, r, &req, http.StatusNotAcceptable, h.logger) {
		return
	}

	stmt := req.toModel()
	if err := h.statementService.UpdateSingleStatement(r.Context(), stmt); err != nil {
		logFailure(h.logger, "Update single statement rejected", err, zap.Int("statement_id", stmt.ID))
		writeError(w, h.logger, http.StatusNotAcceptable, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Delete handles DELETE /api/single-query/delete-single-query-by-id/{id}
func (h *SingleQueryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIntID(w, r, http.StatusNotAcceptable, h.logger)
	if !ok {
		return
	}

	if err := h.statementService.DeleteSingleStatement(r.Context(), id); err != nil {
		logFailure(h.logger, "Delete single statement rejected", err, zap.Int("statement_id", id))
		writeError(w, h.logger, http.StatusNotAcceptable, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// Execute handles GET /api/single-query/execute-single-query-by-id/{id}
func (h *SingleQueryHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIntID(w, r, http.StatusNotAcceptable, h.logger)
	if !ok {
		return
	}

	if err := h.statementService.ExecuteSingleStatement(r.Context(), id); err != nil {
		logFailure(h.logger, "Execute single statement failed", err, zap.Int("statement_id", id))
		writeError(w, h.logger, http.StatusNotAcceptable, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// Get handles GET /api/single-query/get-single-query-by-id/{id}
func (h *SingleQueryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIntID(w, r, http.StatusInternalServerError, h.logger)
	if !ok {
		return
	}

	stmt, err := h.statementService.GetSingleStatement(r.Context(), id)
	if err != nil {
		logFailure(h.logger, "Get single statement failed", err, zap.Int("statement_id", id))
		writeError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, stmt); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/single-query/get-all-single-queries
func (h *SingleQueryHandler) List(w http.ResponseWriter, r *http.Request) {
	stmts := h.statementService.ListSingleStatements(r.Context())

	if err := WriteJSON(w, http.StatusOK, nonNil(stmts)); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
