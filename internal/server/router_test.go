package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hookpipe/hookpipe/internal/dispatch"
	"github.com/hookpipe/hookpipe/internal/handlers"
	"github.com/hookpipe/hookpipe/internal/models"
	"github.com/hookpipe/hookpipe/internal/ratelimit"
	"github.com/hookpipe/hookpipe/internal/repository"
	"github.com/hookpipe/hookpipe/internal/service"
)

// Mock service for testing
type mockIngestor struct{}

func (m *mockIngestor) Ingest(ctx context.Context, event *models.Event, token string) (*service.Result, error) {
	return &service.Result{Destinations: 1, RecordsCreated: 1}, nil
}

func (m *mockIngestor) ListDeliveryLogs(ctx context.Context, accountID string, limit, offset int) ([]*models.DeliveryLog, error) {
	return nil, nil
}

func (m *mockIngestor) Ready(ctx context.Context) error {
	return nil
}

func (m *mockIngestor) DLQStats(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{"enabled": false}
}

func newTestRouter() http.Handler {
	handler := handlers.NewIngestHandler(&mockIngestor{}, nil, nil, 1<<20)
	return NewRouter(handler)
}

func TestRouter_IncomingDataEndpoint(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/server/incoming_data", strings.NewReader(`{}`))
	req.Header.Set("cl-x-token", "tok")
	req.Header.Set("cl-x-event-id", "evt-1")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("/server/incoming_data returned %d, want 200", rr.Code)
	}
}

func TestRouter_LogsEndpoint(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/logs?account_id=acc-1", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("/logs returned %d, want 200", rr.Code)
	}
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("/healthz returned %d, want 200", rr.Code)
	}
}

func TestRouter_ReadyEndpoint(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("/readyz returned %d, want 200", rr.Code)
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("/metrics returned %d, want 200", rr.Code)
	}
	if rr.Body.Len() == 0 {
		t.Error("/metrics returned empty body")
	}
}

func TestRouter_NotFoundEndpoint(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("/nonexistent returned %d, want 404", rr.Code)
	}
}

func TestRouter_RequestIDMiddleware(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set by middleware")
	}
}

// buildPipeline wires a real service against the in-memory repository and
// returns the router plus the seeded account.
func buildPipeline(t *testing.T, repo *repository.InMemoryRepository, destCount int, token string) http.Handler {
	t.Helper()
	ctx := context.Background()

	account := &models.Account{
		ID:          uuid.New().String(),
		Name:        "tenant-" + token,
		SecretToken: token,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := repo.CreateAccount(ctx, account); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	for i := 0; i < destCount; i++ {
		dest := &models.Destination{
			ID:         uuid.New().String(),
			AccountID:  account.ID,
			URL:        fmt.Sprintf("https://example.com/hook/%d", i),
			HTTPMethod: "POST",
			CreatedAt:  time.Now(),
		}
		if err := repo.CreateDestination(ctx, dest); err != nil {
			t.Fatalf("CreateDestination() error = %v", err)
		}
	}

	svc := service.NewIngestService(repo, dispatch.NewDispatcher(repo, nil), nil)
	handler := handlers.NewIngestHandler(svc, &ratelimit.NoopLimiter{}, nil, 1<<20)
	return NewRouter(handler)
}

func TestPipeline_EndToEnd(t *testing.T) {
	repo := repository.NewInMemoryRepository()
	router := buildPipeline(t, repo, 2, "tok-e2e")

	req := httptest.NewRequest(http.MethodPost, "/server/incoming_data", strings.NewReader(`{"a":1}`))
	req.Header.Set("cl-x-token", "tok-e2e")
	req.Header.Set("cl-x-event-id", "evt-1")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rr.Code, rr.Body.String())
	}

	var resp models.IngestResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Message != "Data Received" {
		t.Errorf("response = %+v, want Data Received", resp)
	}

	account, err := repo.GetAccountByToken(context.Background(), "tok-e2e")
	if err != nil {
		t.Fatalf("GetAccountByToken() error = %v", err)
	}
	logs, err := repo.ListDeliveryLogsByAccount(context.Background(), account.ID, 0, 0)
	if err != nil {
		t.Fatalf("ListDeliveryLogsByAccount() error = %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("found %d delivery logs, want 2", len(logs))
	}
	for _, rec := range logs {
		if rec.EventID != "evt-1" {
			t.Errorf("record event id = %q, want evt-1", rec.EventID)
		}
		if string(rec.ReceivedData) != `{"a":1}` {
			t.Errorf("record payload = %s, want {\"a\":1}", rec.ReceivedData)
		}
	}
}

func TestPipeline_ConcurrentTenants(t *testing.T) {
	repo := repository.NewInMemoryRepository()

	const tenants = 8
	var router http.Handler
	for i := 0; i < tenants; i++ {
		router = buildPipeline(t, repo, 1, fmt.Sprintf("tok-%d", i))
	}

	var wg sync.WaitGroup
	for i := 0; i < tenants; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/server/incoming_data", strings.NewReader(`{"n":1}`))
			req.Header.Set("cl-x-token", fmt.Sprintf("tok-%d", i))
			req.Header.Set("cl-x-event-id", fmt.Sprintf("evt-%d", i))
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Errorf("tenant %d: status = %d, want 200", i, rr.Code)
			}
		}(i)
	}
	wg.Wait()

	// Each tenant's single destination got exactly one record
	for i := 0; i < tenants; i++ {
		account, err := repo.GetAccountByToken(context.Background(), fmt.Sprintf("tok-%d", i))
		if err != nil {
			t.Fatalf("tenant %d: GetAccountByToken() error = %v", i, err)
		}
		logs, err := repo.ListDeliveryLogsByAccount(context.Background(), account.ID, 0, 0)
		if err != nil {
			t.Fatalf("tenant %d: ListDeliveryLogsByAccount() error = %v", i, err)
		}
		if len(logs) != 1 {
			t.Errorf("tenant %d: found %d delivery logs, want 1", i, len(logs))
		}
	}
}
