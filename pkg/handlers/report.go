package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tables/pkg/services"
)

// ReportHandler handles report definition and retrieval requests.
type ReportHandler struct {
	reportService services.ReportService
	logger        *zap.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(reportService services.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        orNop(logger),
	}
}

// RegisterRoutes registers the report routes on the given mux.
func (h *ReportHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/report"

	mux.HandleFunc("POST "+base+"/create-report", h.Create)
	mux.HandleFunc("GET "+base+"/get-report-by-id/{id}", h.Get)
}

// Create handles POST /api/report/create-report
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReportRequest
	if !decodeJSON(w, r, &req, http.StatusNotAcceptable, h.logger) {
		return
	}

	report := req.toModel()
	if err := h.reportService.CreateReport(r.Context(), report); err != nil {
		logFailure(h.logger, "Create report rejected", err, zap.Int("report_id", report.ID))
		writeError(w, h.logger, http.StatusNotAcceptable, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// Get handles GET /api/report/get-report-by-id/{id}. A found report is
// answered with 201.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIntID(w, r, http.StatusNotAcceptable, h.logger)
	if !ok {
		return
	}

	report, err := h.reportService.GetReport(r.Context(), id)
	if err != nil {
		logFailure(h.logger, "Get report failed", err, zap.Int("report_id", id))
		writeError(w, h.logger, http.StatusNotAcceptable, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, report); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
