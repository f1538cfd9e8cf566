package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/closeready/internal/adapters/clients"
	"github.com/eshaffer321/closeready/internal/adapters/sources"
	"github.com/eshaffer321/closeready/internal/api"
	"github.com/eshaffer321/closeready/internal/api/dto"
	"github.com/eshaffer321/closeready/internal/application/service"
	"github.com/eshaffer321/closeready/internal/domain/recon"
	"github.com/eshaffer321/closeready/internal/infrastructure/config"
	"github.com/eshaffer321/closeready/internal/infrastructure/logging"
	"github.com/eshaffer321/closeready/internal/infrastructure/storage"
)

func newTestServer(t *testing.T, store storage.Repository) (*api.Server, *sources.MemorySource) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	src := sources.NewMemorySource()
	svc := service.NewService(config.Default(), &clients.Clients{Payouts: src, Deposits: src}, store, logging.Discard())
	server := api.NewServer(api.DefaultConfig(), svc, logging.Discard())
	return server, src
}

func TestServer_HealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t, storage.NewMockRepository())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.HealthResponse
	err := json.NewDecoder(rec.Body).Decode(&response)
	require.NoError(t, err)
	assert.Equal(t, "ok", response.Status)
}

func TestServer_CORS(t *testing.T) {
	server, _ := newTestServer(t, storage.NewMockRepository())

	req := httptest.NewRequest(http.MethodOptions, "/api/reconciliations", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_ReconcileFlow(t *testing.T) {
	server, src := newTestServer(t, storage.NewMockRepository())
	src.AddPayouts("org_1", recon.Payout{
		ID: "po_1", AmountCents: 25000, Currency: "usd", ArrivalDate: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
	})
	src.AddDeposits("org_1", recon.Deposit{
		ID: "dep_1", AmountCents: 25000, Currency: "USD", TxnDate: time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC),
	})

	body, err := json.Marshal(dto.ReconcileRequest{OrgID: "org_1", Period: "2026-02", ReportsGenerated: true})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/reconciliations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var created dto.ReconcileResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.True(t, created.Run.Ready)
	assert.Equal(t, "none", created.Signals.AlertTier)

	req = httptest.NewRequest(http.MethodGet, "/api/orgs/org_1/periods/2026-02/signals", nil)
	rec = httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var signals dto.SignalsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&signals))
	assert.Equal(t, 0, signals.MismatchCount)
}

func TestServer_WithoutStorage(t *testing.T) {
	server, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/reconciliations", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var apiErr dto.APIError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&apiErr))
	assert.Equal(t, dto.ErrCodeUnavailable, apiErr.Code)
}

func TestServer_UnknownRoute(t *testing.T) {
	server, _ := newTestServer(t, storage.NewMockRepository())

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	server, _ := newTestServer(t, storage.NewMockRepository())

	assert.NoError(t, server.Shutdown(context.Background()))
}
