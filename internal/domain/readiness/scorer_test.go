package readiness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/closeready/internal/domain/exceptions"
	"github.com/eshaffer321/closeready/internal/domain/matcher"
	"github.com/eshaffer321/closeready/internal/domain/recon"
)

var now = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC)
}

func payout(id string, cents int64, arrival time.Time) recon.Payout {
	return recon.Payout{ID: id, AmountCents: cents, Currency: "USD", ArrivalDate: arrival, Status: "paid"}
}

func deposit(id string, cents int64, txn time.Time) recon.Deposit {
	return recon.Deposit{ID: id, AmountCents: cents, Currency: "USD", TxnDate: txn}
}

// run wires matcher, generator and scorer the way callers do.
func run(t *testing.T, payouts []recon.Payout, deposits []recon.Deposit, opts Options) recon.CloseReadinessReport {
	t.Helper()
	cfg := recon.DefaultConfig()
	result, err := matcher.Match(payouts, deposits, cfg)
	require.NoError(t, err)
	exs := exceptions.GenerateAt("org_1", "2026-02", result, cfg, opts.Now)
	return Compute("org_1", "2026-02", result, exs, cfg, opts)
}

func factor(t *testing.T, r recon.CloseReadinessReport, name string) recon.Factor {
	t.Helper()
	f, ok := r.Factor(name)
	require.True(t, ok, "factor %s missing", name)
	return f
}

func TestCompute_PerfectMatch(t *testing.T) {
	// Act
	report := run(t,
		[]recon.Payout{payout("po_1", 10000, day(5))},
		[]recon.Deposit{deposit("dep_1", 10000, day(5))},
		Options{ReportsGenerated: true, Now: now},
	)

	// Assert
	assert.Equal(t, 100, report.Score)
	assert.Equal(t, MaxScore, report.MaxScore)
	assert.Equal(t, 100, report.Percentage)
	assert.True(t, report.Ready)
	assert.Empty(t, report.Exceptions)
	assert.Equal(t, now, report.GeneratedAt)
	require.Len(t, report.Factors, 5)
	for _, f := range report.Factors {
		assert.Equal(t, recon.FactorPass, f.Status, f.Name)
		assert.Equal(t, f.MaxScore, f.Score, f.Name)
	}
}

func TestCompute_MissingDeposit(t *testing.T) {
	// Act
	report := run(t, []recon.Payout{payout("po_1", 10000, day(5))}, nil, Options{ReportsGenerated: true, Now: now})

	// Assert
	pm := factor(t, report, FactorPayoutMatching)
	assert.Equal(t, 0, pm.Score)
	assert.Equal(t, recon.FactorFail, pm.Status)

	assert.Equal(t, 20, factor(t, report, FactorToleranceCompliance).Score)

	crit := factor(t, report, FactorNoCriticalExceptions)
	assert.Equal(t, 15, crit.Score)
	assert.Equal(t, recon.FactorWarn, crit.Status)

	assert.Equal(t, 65, report.Score)
	assert.False(t, report.Ready)
	require.Len(t, report.Exceptions, 1)
}

func TestCompute_EmptyPeriod(t *testing.T) {
	tests := []struct {
		name      string
		generated bool
		wantScore int
		wantReady bool
	}{
		{"reports generated", true, 100, true},
		{"reports missing", false, 85, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := run(t, nil, nil, Options{ReportsGenerated: tt.generated, Now: now})

			assert.Equal(t, PayoutMatchingMax, factor(t, report, FactorPayoutMatching).Score)
			assert.Equal(t, ToleranceComplianceMax, factor(t, report, FactorToleranceCompliance).Score)
			assert.Equal(t, tt.wantScore, report.Score)
			assert.Equal(t, tt.wantReady, report.Ready)
		})
	}
}

func TestCompute_NilInputs(t *testing.T) {
	report := Compute("org_1", "2026-02", nil, nil, recon.DefaultConfig(), Options{ReportsGenerated: true, Now: now})

	assert.Equal(t, 100, report.Score)
	assert.NotNil(t, report.Exceptions)
}

func TestCompute_PayoutMatchingRounding(t *testing.T) {
	tests := []struct {
		name       string
		matched    int
		unmatched  int
		wantScore  int
		wantStatus recon.FactorStatus
	}{
		{"9 of 10", 9, 1, 27, recon.FactorPass},
		{"6 of 7 rounds up", 6, 1, 26, recon.FactorWarn},
		{"2 of 3", 2, 1, 20, recon.FactorWarn},
		{"1 of 2", 1, 1, 15, recon.FactorFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := recon.NewMatchResult()
			for i := 0; i < tt.matched; i++ {
				result.Matched = append(result.Matched, recon.MatchedPair{WithinTolerance: true})
			}
			for i := 0; i < tt.unmatched; i++ {
				result.UnmatchedPayouts = append(result.UnmatchedPayouts, recon.Payout{})
			}

			report := Compute("org_1", "2026-02", result, nil, recon.DefaultConfig(), Options{Now: now})

			f := factor(t, report, FactorPayoutMatching)
			assert.Equal(t, tt.wantScore, f.Score)
			assert.Equal(t, tt.wantStatus, f.Status)
		})
	}
}

func TestCompute_ToleranceCompliance(t *testing.T) {
	tests := []struct {
		name       string
		within     int
		outside    int
		wantScore  int
		wantStatus recon.FactorStatus
	}{
		{"all within", 4, 0, 20, recon.FactorPass},
		{"9 of 10", 9, 1, 18, recon.FactorPass},
		{"7 of 10", 7, 3, 14, recon.FactorWarn},
		{"2 of 3", 2, 1, 13, recon.FactorFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := recon.NewMatchResult()
			for i := 0; i < tt.within; i++ {
				result.Matched = append(result.Matched, recon.MatchedPair{WithinTolerance: true})
			}
			for i := 0; i < tt.outside; i++ {
				result.Matched = append(result.Matched, recon.MatchedPair{DeltaCents: 500})
			}

			report := Compute("org_1", "2026-02", result, nil, recon.DefaultConfig(), Options{Now: now})

			f := factor(t, report, FactorToleranceCompliance)
			assert.Equal(t, tt.wantScore, f.Score)
			assert.Equal(t, tt.wantStatus, f.Status)
		})
	}
}

func TestCompute_NoCriticalExceptions(t *testing.T) {
	critical := func(status recon.ExceptionStatus) recon.Exception {
		return recon.Exception{Severity: recon.SeverityCritical, Status: status, DetectedAt: now}
	}

	tests := []struct {
		name       string
		exceptions []recon.Exception
		wantScore  int
		wantStatus recon.FactorStatus
	}{
		{"none", nil, 20, recon.FactorPass},
		{"warnings ignored", []recon.Exception{{Severity: recon.SeverityWarning, Status: recon.StatusOpen, DetectedAt: now}}, 20, recon.FactorPass},
		{"closed criticals ignored", []recon.Exception{critical(recon.StatusResolved), critical(recon.StatusInvestigating)}, 20, recon.FactorPass},
		{"two open", []recon.Exception{critical(recon.StatusOpen), critical(recon.StatusOpen)}, 10, recon.FactorWarn},
		{"three open", []recon.Exception{critical(recon.StatusOpen), critical(recon.StatusOpen), critical(recon.StatusOpen)}, 5, recon.FactorFail},
		{"floor at zero", []recon.Exception{
			critical(recon.StatusOpen), critical(recon.StatusOpen), critical(recon.StatusOpen),
			critical(recon.StatusOpen), critical(recon.StatusOpen),
		}, 0, recon.FactorFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Compute("org_1", "2026-02", nil, tt.exceptions, recon.DefaultConfig(), Options{Now: now})

			f := factor(t, report, FactorNoCriticalExceptions)
			assert.Equal(t, tt.wantScore, f.Score)
			assert.Equal(t, tt.wantStatus, f.Status)
		})
	}
}

func TestCompute_StaleItems(t *testing.T) {
	limit := 7 * 24 * time.Hour

	tests := []struct {
		name      string
		exception recon.Exception
		wantScore int
	}{
		{"fresh", recon.Exception{Status: recon.StatusOpen, DetectedAt: now.Add(-time.Hour)}, 15},
		{"exactly at limit", recon.Exception{Status: recon.StatusOpen, DetectedAt: now.Add(-limit)}, 15},
		{"past limit", recon.Exception{Status: recon.StatusOpen, DetectedAt: now.Add(-limit - time.Second)}, 0},
		{"old but investigating", recon.Exception{Status: recon.StatusInvestigating, DetectedAt: now.Add(-30 * 24 * time.Hour)}, 15},
		{"old but waived", recon.Exception{Status: recon.StatusWaived, DetectedAt: now.Add(-30 * 24 * time.Hour)}, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Compute("org_1", "2026-02", nil, []recon.Exception{tt.exception}, recon.DefaultConfig(), Options{Now: now})

			assert.Equal(t, tt.wantScore, factor(t, report, FactorNoStaleItems).Score)
		})
	}
}

func TestCompute_ReadyThreshold(t *testing.T) {
	// One warning mismatch out of ten pairs: 30 + 18 + 20 + 15 + 15 = 98
	result := recon.NewMatchResult()
	for i := 0; i < 9; i++ {
		result.Matched = append(result.Matched, recon.MatchedPair{WithinTolerance: true})
	}
	result.Matched = append(result.Matched, recon.MatchedPair{DeltaCents: 150})

	cfg := recon.DefaultConfig()
	report := Compute("org_1", "2026-02", result, nil, cfg, Options{ReportsGenerated: true, Now: now})
	assert.Equal(t, 98, report.Percentage)
	assert.True(t, report.Ready)

	cfg.MinCloseReadinessScorePercent = 99
	report = Compute("org_1", "2026-02", result, nil, cfg, Options{ReportsGenerated: true, Now: now})
	assert.False(t, report.Ready)
}

func TestCompute_DefaultsNowWhenZero(t *testing.T) {
	before := time.Now().UTC()
	report := Compute("org_1", "2026-02", nil, nil, recon.DefaultConfig(), Options{})
	assert.False(t, report.GeneratedAt.Before(before))
}
