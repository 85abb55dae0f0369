package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hookpipe/hookpipe/internal/logging"
	"github.com/hookpipe/hookpipe/internal/metrics"
	"github.com/hookpipe/hookpipe/internal/models"
	"github.com/hookpipe/hookpipe/internal/ratelimit"
	"github.com/hookpipe/hookpipe/internal/service"
)

const (
	headerToken   = "cl-x-token"
	headerEventID = "cl-x-event-id"
)

// Ingestor is the slice of the ingest service the HTTP layer needs.
type Ingestor interface {
	Ingest(ctx context.Context, event *models.Event, token string) (*service.Result, error)
	ListDeliveryLogs(ctx context.Context, accountID string, limit, offset int) ([]*models.DeliveryLog, error)
	Ready(ctx context.Context) error
	DLQStats(ctx context.Context) map[string]interface{}
}

type IngestHandler struct {
	service      Ingestor
	limiter      ratelimit.Limiter
	logger       *logging.Logger
	maxEventSize int64
}

func NewIngestHandler(service Ingestor, limiter ratelimit.Limiter, logger *logging.Logger, maxEventSize int64) *IngestHandler {
	if limiter == nil {
		limiter = &ratelimit.NoopLimiter{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &IngestHandler{
		service:      service,
		limiter:      limiter,
		logger:       logger,
		maxEventSize: maxEventSize,
	}
}

// HandleIncomingData accepts one webhook event. The rate limit gate runs
// before header validation so throttled clients pay nothing past the counter.
func (h *IngestHandler) HandleIncomingData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendJSON(w, http.StatusMethodNotAllowed, models.IngestResponse{Success: false, Message: "Method not allowed"})
		return
	}

	sourceIP := getClientIP(r)

	allowed, err := h.limiter.Allow(r.Context(), sourceIP)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "rate limiter failed", logging.Error(err), logging.IP(sourceIP))
		metrics.IngestRequestsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		h.sendJSON(w, http.StatusInternalServerError, models.IngestResponse{Success: false, Message: err.Error()})
		return
	}
	if !allowed {
		metrics.RateLimitHits.Inc()
		metrics.IngestRequestsTotal.WithLabelValues(metrics.OutcomeRateLimited).Inc()
		h.sendJSON(w, http.StatusTooManyRequests, models.IngestResponse{Success: false, Message: "Too many requests, try again later."})
		return
	}

	token := r.Header.Get(headerToken)
	eventID := r.Header.Get(headerEventID)
	if token == "" || eventID == "" {
		metrics.IngestRequestsTotal.WithLabelValues(metrics.OutcomeMissingHeaders).Inc()
		h.sendJSON(w, http.StatusBadRequest, models.IngestResponse{Success: false, Message: "Missing headers"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxEventSize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			metrics.IngestRequestsTotal.WithLabelValues(metrics.OutcomeError).Inc()
			h.sendJSON(w, http.StatusRequestEntityTooLarge, models.IngestResponse{Success: false, Message: "Payload too large"})
			return
		}
		metrics.IngestRequestsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		h.sendJSON(w, http.StatusBadRequest, models.IngestResponse{Success: false, Message: "Invalid body"})
		return
	}
	defer r.Body.Close()

	if !json.Valid(body) {
		metrics.IngestRequestsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		h.sendJSON(w, http.StatusBadRequest, models.IngestResponse{Success: false, Message: "Invalid JSON"})
		return
	}

	metrics.EventBytesTotal.Add(float64(len(body)))

	event := &models.Event{
		ID:       eventID,
		SourceIP: sourceIP,
		Payload:  body,
	}

	result, err := h.service.Ingest(r.Context(), event, token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			metrics.IngestRequestsTotal.WithLabelValues(metrics.OutcomeInvalidToken).Inc()
			h.sendJSON(w, http.StatusUnauthorized, models.IngestResponse{Success: false, Message: "Invalid token"})
			return
		}
		h.logger.ErrorContext(r.Context(), "ingest failed",
			logging.Error(err),
			logging.EventID(eventID),
			logging.IP(sourceIP),
		)
		metrics.IngestRequestsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		h.sendJSON(w, http.StatusInternalServerError, models.IngestResponse{Success: false, Message: err.Error()})
		return
	}

	if result.Destinations == 0 {
		metrics.IngestRequestsTotal.WithLabelValues(metrics.OutcomeNoDestinations).Inc()
		h.sendJSON(w, http.StatusOK, models.IngestResponse{Success: true, Message: "No destinations"})
		return
	}

	metrics.IngestRequestsTotal.WithLabelValues(metrics.OutcomeReceived).Inc()
	h.sendJSON(w, http.StatusOK, models.IngestResponse{Success: true, Message: "Data Received"})
}

// HandleListLogs serves the delivery records for one account.
func (h *IngestHandler) HandleListLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.sendJSON(w, http.StatusMethodNotAllowed, models.IngestResponse{Success: false, Message: "Method not allowed"})
		return
	}

	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		h.sendJSON(w, http.StatusBadRequest, models.IngestResponse{Success: false, Message: "Missing account_id"})
		return
	}

	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)

	logs, err := h.service.ListDeliveryLogs(r.Context(), accountID, limit, offset)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list delivery logs failed", logging.Error(err), logging.AccountID(accountID))
		h.sendJSON(w, http.StatusInternalServerError, models.IngestResponse{Success: false, Message: err.Error()})
		return
	}
	if logs == nil {
		logs = []*models.DeliveryLog{}
	}

	h.sendJSON(w, http.StatusOK, logs)
}

func (h *IngestHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}

func (h *IngestHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ready(r.Context()); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ready",
		"dlq":    h.service.DLQStats(r.Context()),
	})
}

func (h *IngestHandler) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i != -1 {
		host = host[:i]
	}
	return host
}
