package recon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		label     string
		wantLabel string
		wantStart time.Time
		wantEnd   time.Time
		wantErr   bool
	}{
		{
			label:     "2026-02",
			wantStart: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			label:     "2026-Q4",
			wantStart: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			label:     "2025",
			wantStart: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			label:     "2026-Q01",
			wantLabel: "2026-Q1",
			wantStart: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		},
		{label: "2026-Q5", wantErr: true},
		{label: "2026-Q+1", wantErr: true},
		{label: "+202", wantErr: true},
		{label: "26-02", wantErr: true},
		{label: "february", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			p, err := ParsePeriod(tt.label)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			want := tt.label
			if tt.wantLabel != "" {
				want = tt.wantLabel
			}
			assert.Equal(t, want, p.Label)
			assert.True(t, tt.wantStart.Equal(p.Start), "start %s", p.Start)
			assert.True(t, tt.wantEnd.Equal(p.End), "end %s", p.End)
		})
	}
}

func TestPeriod_Contains(t *testing.T) {
	p, err := ParsePeriod("2026-02")
	require.NoError(t, err)

	assert.True(t, p.Contains(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, p.Contains(time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)))
}

func TestAlertSignals_Tier(t *testing.T) {
	assert.Equal(t, AlertNone, AlertSignals{}.Tier(100000))
	assert.Equal(t, AlertWarn, AlertSignals{MismatchCount: 2, MaxDeltaCents: 150}.Tier(100000))
	assert.Equal(t, AlertWarn, AlertSignals{MismatchCount: 1, MaxDeltaCents: 100000}.Tier(100000))
	assert.Equal(t, AlertEscalate, AlertSignals{MismatchCount: 1, MaxDeltaCents: 100001}.Tier(100000))
}

func TestExceptionID(t *testing.T) {
	assert.Equal(t, "RECON-2026-02-001", ExceptionID("2026-02", 1))
	assert.Equal(t, "RECON-2026-02-042", ExceptionID("2026-02", 42))
	assert.Equal(t, "RECON-2026-02-1000", ExceptionID("2026-02", 1000))
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, SeverityCritical.Valid())
	assert.False(t, Severity("urgent").Valid())
	assert.True(t, ExceptionMissingStripePayout.Valid())
	assert.False(t, ExceptionType("fx-drift").Valid())
	assert.True(t, StatusInvestigating.Valid())
	assert.False(t, ExceptionStatus("closed").Valid())
}
