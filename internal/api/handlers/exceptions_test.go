package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/closeready/internal/api/dto"
	"github.com/eshaffer321/closeready/internal/domain/recon"
)

func seedExceptions(t *testing.T, f *fixture) dto.ReconcileResponse {
	t.Helper()
	f.source.AddPayouts("org_1", payout("po_1", 10150, 5), payout("po_2", 300000, 20))
	f.source.AddDeposits("org_1", deposit("dep_1", 10000, 6), deposit("dep_9", 4200, 25))

	rec := f.do(t, http.MethodPost, "/api/reconciliations", dto.ReconcileRequest{OrgID: "org_1", Period: "2026-02"})
	require.Equal(t, http.StatusCreated, rec.Code)
	return decode[dto.ReconcileResponse](t, rec)
}

func TestExceptionsHandler_List(t *testing.T) {
	f := newFixture(t)
	created := seedExceptions(t, f)
	require.Len(t, created.Exceptions, 3)

	t.Run("lists all exceptions for the period", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/orgs/org_1/periods/2026-02/exceptions", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		response := decode[dto.ExceptionListResponse](t, rec)
		assert.Equal(t, 3, response.Count)
		assert.Equal(t, "org_1", response.OrgID)
		assert.Equal(t, 1, response.OpenBySeverity[recon.SeverityCritical])
		assert.Equal(t, 2, response.OpenBySeverity[recon.SeverityWarning])
	})

	t.Run("filters by type", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/orgs/org_1/periods/2026-02/exceptions?type=missing-stripe-payout", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		response := decode[dto.ExceptionListResponse](t, rec)
		require.Equal(t, 1, response.Count)
		assert.Equal(t, "dep_9", response.Exceptions[0].QBORef)
	})

	t.Run("rejects unknown severity filter", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/orgs/org_1/periods/2026-02/exceptions?severity=urgent", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects unknown type filter", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/orgs/org_1/periods/2026-02/exceptions?type=fx-drift", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("filters by severity", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/orgs/org_1/periods/2026-02/exceptions?severity=critical", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		response := decode[dto.ExceptionListResponse](t, rec)
		require.Equal(t, 1, response.Count)
		assert.Equal(t, recon.ExceptionMissingQBODeposit, response.Exceptions[0].Type)
	})

	t.Run("rejects unknown status filter", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/orgs/org_1/periods/2026-02/exceptions?status=closed", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns empty list for other org", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/orgs/org_2/periods/2026-02/exceptions", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, decode[dto.ExceptionListResponse](t, rec).Count)
	})
}

func TestExceptionsHandler_UpdateStatusAndSignals(t *testing.T) {
	f := newFixture(t)
	created := seedExceptions(t, f)

	var critical recon.Exception
	for _, e := range created.Exceptions {
		if e.Severity == recon.SeverityCritical {
			critical = e
		}
	}
	require.NotEmpty(t, critical.ID)

	rec := f.do(t, http.MethodGet, "/api/orgs/org_1/periods/2026-02/signals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	before := decode[dto.SignalsResponse](t, rec)
	assert.Equal(t, 3, before.MismatchCount)
	assert.Equal(t, int64(300000), before.MaxDeltaCents)
	assert.Equal(t, "escalate", before.AlertTier)

	t.Run("resolves an exception", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/exceptions/org_1/"+critical.ID+"/status", dto.UpdateExceptionStatusRequest{
			Status: "resolved",
			Notes:  "deposit booked late",
		})

		require.Equal(t, http.StatusOK, rec.Code)
		updated := decode[recon.Exception](t, rec)
		assert.Equal(t, recon.StatusResolved, updated.Status)
		assert.Equal(t, "deposit booked late", updated.ResolutionNotes)
		assert.NotNil(t, updated.ResolvedAt)
	})

	t.Run("signals drop resolved exceptions", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/orgs/org_1/periods/2026-02/signals", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		after := decode[dto.SignalsResponse](t, rec)
		assert.Equal(t, 2, after.MismatchCount)
		assert.Equal(t, int64(4200), after.MaxDeltaCents)
		assert.Equal(t, "warn", after.AlertTier)
	})

	t.Run("rejects transition out of terminal status", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/exceptions/org_1/"+critical.ID+"/status", dto.UpdateExceptionStatusRequest{Status: "open"})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("returns 404 for unknown exception", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/exceptions/org_1/RECON-2026-02-999/status", dto.UpdateExceptionStatusRequest{Status: "waived"})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("returns 400 without status", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/exceptions/org_1/"+critical.ID+"/status", map[string]string{"notes": "x"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns 400 for malformed period", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/orgs/org_1/periods/feb/signals", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
