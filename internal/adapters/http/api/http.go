// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/firewatch/internal/adapters/repository"
	"github.com/okian/firewatch/internal/domain/geocell"
	"github.com/okian/firewatch/internal/domain/model"
	"github.com/okian/firewatch/internal/domain/reading"
	"github.com/okian/firewatch/internal/domain/types"
)

// Default limits for list endpoints.
const (
	DefaultListLimit    = 10
	defaultMaxListLimit = 100
	maxBodyBytes        = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AssessDependencies
	HotspotDependencies
	HistoryDependencies
	ModelsDependencies
	StatsProvider
}

// Entry mirrors the read shape returned by hotspot queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	assessHandler   *AssessHandler
	hotspotsHandler *HotspotsHandler
	historyHandler  *HistoryHandler
	modelsHandler   *ModelsHandler
}

// Option configures a Server.
type Option func(*serverConfig)

type serverConfig struct {
	maxHotspotLimit int
	maxHistoryLimit int
}

// WithMaxHotspotLimit caps GET /hotspots?limit.
func WithMaxHotspotLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxHotspotLimit = n
		}
	}
}

// WithMaxHistoryLimit caps GET /history/{cell}?limit.
func WithMaxHistoryLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxHistoryLimit = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{
		maxHotspotLimit: defaultMaxListLimit,
		maxHistoryLimit: defaultMaxListLimit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		assessHandler:   NewAssessHandler(deps),
		hotspotsHandler: NewHotspotsHandler(deps, cfg.maxHotspotLimit),
		historyHandler:  NewHistoryHandler(deps, cfg.maxHistoryLimit),
		modelsHandler:   NewModelsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/assess", MetricsMiddleware(s.assessHandler.HandleAssess, "assess"))
	mux.HandleFunc("/assess/defaults", MetricsMiddleware(s.assessHandler.HandleDefaults, "assess_defaults"))
	mux.HandleFunc("/hotspots", MetricsMiddleware(s.hotspotsHandler.HandleGetHotspots, "hotspots"))
	mux.HandleFunc("/hotspots/", MetricsMiddleware(s.hotspotsHandler.HandleGetLocation, "hotspot"))
	mux.HandleFunc("/history/", MetricsMiddleware(s.historyHandler.HandleGetHistory, "history"))
	mux.HandleFunc("/models", MetricsMiddleware(s.modelsHandler.HandleModels, "models"))
}

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

// writeFailure maps an error to its status code and writes it.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", err)
	case errors.Is(err, ErrLimitExceeded):
		writeError(w, http.StatusBadRequest, "limit_exceeded", err)
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, reading.ErrOutOfRange),
		errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
}

// parseLimit reads ?limit=N, defaulting to DefaultListLimit.
func parseLimit(op string, r *http.Request, maxLimit int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return min(DefaultListLimit, maxLimit), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, WrapKind(op, ErrBadRequest, errors.New("limit must be a positive integer"))
	}
	if n > maxLimit {
		return 0, WrapKind(op, ErrLimitExceeded, errors.New("limit must not exceed "+strconv.Itoa(maxLimit)))
	}
	return n, nil
}

// cellParam extracts and validates the S2 token after prefix.
func cellParam(op string, r *http.Request, prefix string) (string, error) {
	cell := r.URL.Path[len(prefix):]
	if cell == "" {
		return "", WrapKind(op, ErrBadRequest, errors.New("missing cell"))
	}
	if _, err := geocell.Parse(cell); err != nil {
		return "", WrapKind(op, ErrBadRequest, err)
	}
	return cell, nil
}

func renderAssessments(in []model.Assessment) []types.Assessment {
	out := make([]types.Assessment, len(in))
	for i, a := range in {
		out[i] = types.NewAssessment(a)
	}
	return out
}
