// Package api exposes the expert registry over a read-only HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/ffbrank/ffbrank/internal/app"
	"github.com/ffbrank/ffbrank/internal/domain/model"
	"github.com/ffbrank/ffbrank/internal/domain/registry"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	ExpertsDependencies
	ExpertDependencies
	StatsProvider
}

// Server wires HTTP routes for the registry API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	expertsHandler *ExpertsHandler
	expertHandler  *ExpertHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		expertsHandler: NewExpertsHandler(deps),
		expertHandler:  NewExpertHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/experts", MetricsMiddleware(s.expertsHandler.HandleGetExperts, "experts"))
	mux.HandleFunc("/experts/", MetricsMiddleware(s.expertHandler.HandleGetExpert, "expert"))
}

// Entry is the read shape of one registry row.
type Entry = model.RegistryEntry

// Stats is the read shape of GET /stats.
type Stats = service.Stats

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service error kinds to status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, registry.ErrDataIntegrity):
		writeError(w, http.StatusInternalServerError, "data_integrity", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
