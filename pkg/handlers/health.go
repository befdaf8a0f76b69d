package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tables/pkg/config"
	"github.com/ekaya-inc/ekaya-tables/pkg/logging"
)

// PingResponse contains service status and version information.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
	Engine      string `json:"engine"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Engine string `json:"engine,omitempty"`
}

// EnginePinger is the part of the SQL engine health checks need.
type EnginePinger interface {
	Ping(ctx context.Context) error
}

const engineCheckTimeout = 2 * time.Second

// HealthHandler handles health check and ping endpoints.
type HealthHandler struct {
	cfg    *config.Config
	engine EnginePinger
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. engine may be nil.
func NewHealthHandler(cfg *config.Config, engine EnginePinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, engine: engine, logger: orNop(logger)}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health handles GET /health requests. It always answers 200; an
// unreachable engine is reported as degraded.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{Status: "ok"}
	if h.engine != nil {
		response.Engine = h.engineStatus(r.Context())
		if response.Engine != "ok" {
			response.Status = "degraded"
		}
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}

// Ping handles GET /ping requests.
// Returns detailed service information including version and environment.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     "ekaya-tables",
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
		Engine:      h.cfg.Engine.Type,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}

func (h *HealthHandler) engineStatus(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, engineCheckTimeout)
	defer cancel()

	if err := h.engine.Ping(ctx); err != nil {
		h.logger.Warn("Engine health check failed", zap.String("error", logging.SanitizeError(err)))
		return "unreachable"
	}
	return "ok"
}
