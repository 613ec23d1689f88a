package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hostwatch/hostwatch/internal/dispatch"
	hwerrors "github.com/hostwatch/hostwatch/internal/errors"
	"github.com/hostwatch/hostwatch/internal/observability"
	"github.com/hostwatch/hostwatch/internal/store"
)

// CallResult is the HTTP envelope around a generic storage response.
// Status 0 is success; any other value is failure, described by Message.
type CallResult struct {
	Status   int               `json:"status"`
	Message  string            `json:"message"`
	Code     string            `json:"code,omitempty"`
	Response dispatch.Response `json:"response"`
}

// HealthStatus reports the storage layer's health.
type HealthStatus struct {
	Backend  string `json:"backend"`
	Checking bool   `json:"checking"`
}

// StoreServer exposes the active backend to extension processes through
// the generic request protocol.
type StoreServer struct {
	registry *store.Registry
	stats    *observability.StoreStats
	log      *slog.Logger
}

// NewStoreServer creates a store server backed by the given registry.
// stats may be nil.
func NewStoreServer(registry *store.Registry, stats *observability.StoreStats, log *slog.Logger) *StoreServer {
	if log == nil {
		log = slog.Default()
	}
	return &StoreServer{registry: registry, stats: stats, log: log}
}

// Routes returns the server's handler with the default middleware applied.
func (s *StoreServer) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/database", s.handleDatabase)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/stats", s.handleStats)
	return DefaultMiddleware()(mux)
}

// handleDatabase decodes one generic request, dispatches it against the
// active backend, and writes the enveloped response. Protocol errors map
// to 400, backend errors to 500; the caller always receives a status and
// message rather than a bare HTTP failure.
func (s *StoreServer) handleDatabase(w http.ResponseWriter, r *http.Request) {
	var req dispatch.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return
	}

	backend, err := s.registry.Active()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	start := time.Now()
	resp, err := dispatch.Call(backend, req)
	if s.stats != nil {
		s.stats.Record(req["action"], req["domain"], time.Since(start), err)
	}
	if err != nil {
		code := http.StatusInternalServerError
		if hwerrors.GetCategory(err) == hwerrors.ErrCategoryProtocol {
			code = http.StatusBadRequest
		}
		s.log.Warn("database call failed",
			"request_id", GetRequestID(r.Context()),
			"action", req["action"],
			"error", err)
		writeJSON(w, code, CallResult{Status: 1, Message: err.Error(), Code: hwerrors.GetCode(err), Response: resp})
		return
	}

	writeJSON(w, http.StatusOK, CallResult{Status: 0, Message: "OK", Response: resp})
}

// handleHealth reports the active backend and whether a self-test is in
// flight.
func (s *StoreServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthStatus{
		Backend:  s.registry.ActiveName(),
		Checking: store.Checking(),
	})
}

// handleStats reports per-action storage operation statistics.
func (s *StoreServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeJSON(w, http.StatusOK, []observability.OpStats{})
		return
	}
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}
