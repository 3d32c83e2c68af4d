// Package api exposes snapshots over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jobayer109/My-monitor/internal/database"
	"github.com/jobayer109/My-monitor/internal/monitoring"
	"github.com/jobayer109/My-monitor/internal/websockets"
)

const defaultHistoryMinutes = 60

// Collector runs one collection pass on demand.
type Collector interface {
	Collect(ctx context.Context) monitoring.Snapshot
}

// HistoryReader reads persisted samples.
type HistoryReader interface {
	Query(ctx context.Context, metric string, since time.Time) ([]database.Sample, error)
}

// Handler holds the dependencies of the HTTP endpoints. History, Gatherer
// and Hub are optional; their routes answer 404 when unset.
type Handler struct {
	Store     *monitoring.Store
	Collector Collector
	History   HistoryReader
	Gatherer  prometheus.Gatherer
	Hub       *websockets.Hub
	Logger    *zap.Logger

	now func() time.Time
}

// NewHandler creates a Handler for the required dependencies.
func NewHandler(store *monitoring.Store, collector Collector, logger *zap.Logger) *Handler {
	return &Handler{
		Store:     store,
		Collector: collector,
		Logger:    logger,
		now:       time.Now,
	}
}

// RegisterRoutes registers the API routes on r.
func RegisterRoutes(r *mux.Router, h *Handler) {
	r.HandleFunc("/metrics", h.GetMetricsHandler).Methods(http.MethodGet)
	r.HandleFunc("/collect", h.CollectHandler).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/api/history", h.GetHistoryHandler).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/prometheus", h.PrometheusHandler).Methods(http.MethodGet)
	r.HandleFunc("/ws", h.WebSocketHandler)
}

type collectResponse struct {
	Status  string              `json:"status"`
	Metrics monitoring.Snapshot `json:"metrics"`
}

type healthResponse struct {
	Status       string    `json:"status"`
	CollectedAt  time.Time `json:"collectedAt"`
	CollectionID string    `json:"collectionId"`
}

type historyResponse struct {
	Metric  string            `json:"metric"`
	Since   time.Time         `json:"since"`
	Samples []database.Sample `json:"samples"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// GetMetricsHandler returns the current snapshot.
func (h *Handler) GetMetricsHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Store.Get())
}

// CollectHandler forces one collection pass and returns its snapshot.
// The pass is detached from request cancellation so a dropped client
// still stores a complete snapshot.
func (h *Handler) CollectHandler(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("manual collection triggered", zap.String("remote", r.RemoteAddr))
	snap := h.Collector.Collect(context.WithoutCancel(r.Context()))
	h.writeJSON(w, http.StatusOK, collectResponse{Status: "collected", Metrics: snap})
}

// GetHistoryHandler returns stored samples of one metric for the last
// ?minutes= minutes (default 60).
func (h *Handler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		h.writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	metric := r.URL.Query().Get("metric")
	if !database.IsKnownMetric(metric) {
		h.writeError(w, http.StatusBadRequest, "unknown metric: "+strconv.Quote(metric))
		return
	}

	minutes := defaultHistoryMinutes
	if raw := r.URL.Query().Get("minutes"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, "minutes must be a positive integer")
			return
		}
		minutes = n
	}

	since := h.now().Add(-time.Duration(minutes) * time.Minute)
	samples, err := h.History.Query(r.Context(), metric, since)
	if err != nil {
		h.Logger.Error("failed to query history", zap.String("metric", metric), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to query history")
		return
	}
	if samples == nil {
		samples = []database.Sample{}
	}

	h.writeJSON(w, http.StatusOK, historyResponse{Metric: metric, Since: since, Samples: samples})
}

// HealthHandler reports liveness and the age of the current snapshot.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	snap := h.Store.Get()
	h.writeJSON(w, http.StatusOK, healthResponse{
		Status:       "ok",
		CollectedAt:  snap.CollectedAt,
		CollectionID: snap.CollectionID,
	})
}

// PrometheusHandler serves the collector self-metrics.
func (h *Handler) PrometheusHandler(w http.ResponseWriter, r *http.Request) {
	if h.Gatherer == nil {
		h.writeError(w, http.StatusNotFound, "metrics are disabled")
		return
	}
	promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// WebSocketHandler upgrades to a websocket that receives every snapshot.
func (h *Handler) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if h.Hub == nil {
		h.writeError(w, http.StatusNotFound, "live updates are disabled")
		return
	}
	websockets.ServeWs(h.Hub, w, r)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Warn("failed to write response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}
