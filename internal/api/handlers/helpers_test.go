package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/closeready/internal/adapters/clients"
	"github.com/eshaffer321/closeready/internal/adapters/sources"
	"github.com/eshaffer321/closeready/internal/api/handlers"
	"github.com/eshaffer321/closeready/internal/application/service"
	"github.com/eshaffer321/closeready/internal/domain/recon"
	"github.com/eshaffer321/closeready/internal/infrastructure/config"
	"github.com/eshaffer321/closeready/internal/infrastructure/logging"
	"github.com/eshaffer321/closeready/internal/infrastructure/storage"
)

type fixture struct {
	router *gin.Engine
	source *sources.MemorySource
	repo   *storage.MockRepository
	svc    *service.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	src := sources.NewMemorySource()
	repo := storage.NewMockRepository()
	svc := service.NewService(config.Default(), &clients.Clients{Payouts: src, Deposits: src}, repo, logging.Discard())

	router := gin.New()
	runs := handlers.NewReconciliationsHandler(svc)
	router.POST("/api/reconciliations", runs.Create)
	router.GET("/api/reconciliations", runs.List)
	router.POST("/api/reconciliations/batch", runs.StartBatch)
	router.GET("/api/reconciliations/:id", runs.Get)
	router.GET("/api/jobs", runs.ListJobs)
	router.GET("/api/jobs/:id", runs.GetJob)
	router.DELETE("/api/jobs/:id", runs.CancelJob)

	exceptions := handlers.NewExceptionsHandler(svc)
	router.GET("/api/orgs/:org/periods/:period/exceptions", exceptions.List)
	router.GET("/api/orgs/:org/periods/:period/signals", exceptions.Signals)
	router.POST("/api/exceptions/:org/:id/status", exceptions.UpdateStatus)

	return &fixture{router: router, source: src, repo: repo, svc: svc}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func feb(d int) time.Time {
	return time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC)
}

func payout(id string, cents int64, d int) recon.Payout {
	return recon.Payout{ID: id, AmountCents: cents, Currency: "USD", ArrivalDate: feb(d), Status: "paid"}
}

func deposit(id string, cents int64, d int) recon.Deposit {
	return recon.Deposit{ID: id, AmountCents: cents, Currency: "USD", TxnDate: feb(d)}
}
