package storage

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eshaffer321/closeready/internal/domain/recon"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
// It is safe for concurrent use so batch runs can share one instance.
type MockRepository struct {
	mu         sync.Mutex
	runs       map[string]*Run
	runOrder   []string
	exceptions map[string][]recon.Exception // Keyed by org_id|period_label
	reports    map[string]*recon.CloseReadinessReport

	// Hooks for test assertions
	StartRunCalled          bool
	CompleteRunCalled       bool
	ReplaceExceptionsCalled bool
	SaveReportCalled        bool
	LastCompletedRun        *Run

	// Error injection for testing error paths
	StartRunErr          error
	CompleteRunErr       error
	ReplaceExceptionsErr error
	ListExceptionsErr    error
	UpdateExceptionErr   error
	SaveReportErr        error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		runs:       make(map[string]*Run),
		exceptions: make(map[string][]recon.Exception),
		reports:    make(map[string]*recon.CloseReadinessReport),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

func periodKey(orgID, periodLabel string) string {
	return orgID + "|" + periodLabel
}

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// StartRun creates a running run
func (m *MockRepository) StartRun(_ context.Context, orgID, periodLabel string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartRunCalled = true
	if m.StartRunErr != nil {
		return nil, m.StartRunErr
	}

	run := &Run{
		ID:          uuid.NewString(),
		OrgID:       orgID,
		PeriodLabel: periodLabel,
		Status:      RunRunning,
		StartedAt:   time.Now().UTC(),
		AlertTier:   recon.AlertNone,
	}
	copied := *run
	m.runs[run.ID] = &copied
	m.runOrder = append(m.runOrder, run.ID)
	return run, nil
}

// CompleteRun stores the final state of a run
func (m *MockRepository) CompleteRun(_ context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CompleteRunCalled = true
	if m.CompleteRunErr != nil {
		return m.CompleteRunErr
	}
	if _, ok := m.runs[run.ID]; !ok {
		return fmt.Errorf("%s: %w", run.ID, ErrNotFound)
	}

	now := time.Now().UTC()
	run.Status = RunCompleted
	run.CompletedAt = &now

	// Deep copy to avoid test mutations
	copied := *run
	m.runs[run.ID] = &copied
	m.LastCompletedRun = &copied
	return nil
}

// FailRun marks a run failed
func (m *MockRepository) FailRun(_ context.Context, runID string, cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("%s: %w", runID, ErrNotFound)
	}
	now := time.Now().UTC()
	run.Status = RunFailed
	run.CompletedAt = &now
	if cause != nil {
		run.ErrorMessage = cause.Error()
	}
	return nil
}

// GetRun returns a copy of a stored run
func (m *MockRepository) GetRun(_ context.Context, runID string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	copied := *run
	return &copied, nil
}

// ListRuns returns runs newest first
func (m *MockRepository) ListRuns(_ context.Context, filters RunFilters) ([]*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Run, 0)
	for i := len(m.runOrder) - 1; i >= 0; i-- {
		run := m.runs[m.runOrder[i]]
		if filters.OrgID != "" && run.OrgID != filters.OrgID {
			continue
		}
		if filters.PeriodLabel != "" && run.PeriodLabel != filters.PeriodLabel {
			continue
		}
		if filters.Status != "" && run.Status != filters.Status {
			continue
		}
		copied := *run
		out = append(out, &copied)
	}

	if filters.Offset >= len(out) {
		return []*Run{}, nil
	}
	out = out[filters.Offset:]
	limit := filters.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ReplaceExceptions swaps the period's exceptions
func (m *MockRepository) ReplaceExceptions(_ context.Context, orgID, periodLabel, _ string, exceptions []recon.Exception) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ReplaceExceptionsCalled = true
	if m.ReplaceExceptionsErr != nil {
		return m.ReplaceExceptionsErr
	}

	stored := make([]recon.Exception, len(exceptions))
	for i, e := range exceptions {
		e.OrgID = orgID
		e.PeriodLabel = periodLabel
		stored[i] = e
	}
	m.exceptions[periodKey(orgID, periodLabel)] = stored
	return nil
}

// ListExceptions filters stored exceptions
func (m *MockRepository) ListExceptions(_ context.Context, filters ExceptionFilters) ([]recon.Exception, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListExceptionsErr != nil {
		return nil, m.ListExceptionsErr
	}

	out := make([]recon.Exception, 0)
	for _, list := range m.exceptions {
		for _, e := range list {
			if e.OrgID != filters.OrgID {
				continue
			}
			if filters.PeriodLabel != "" && e.PeriodLabel != filters.PeriodLabel {
				continue
			}
			if filters.Status != "" && e.Status != filters.Status {
				continue
			}
			if filters.Severity != "" && e.Severity != filters.Severity {
				continue
			}
			if filters.Type != "" && e.Type != filters.Type {
				continue
			}
			out = append(out, e)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].PeriodLabel != out[j].PeriodLabel {
			return out[i].PeriodLabel < out[j].PeriodLabel
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetException finds one exception
func (m *MockRepository) GetException(_ context.Context, orgID, id string) (*recon.Exception, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, list := range m.exceptions {
		for _, e := range list {
			if e.OrgID == orgID && e.ID == id {
				copied := e
				return &copied, nil
			}
		}
	}
	return nil, fmt.Errorf("exception %s: %w", id, ErrNotFound)
}

// UpdateException writes back status and resolution fields
func (m *MockRepository) UpdateException(_ context.Context, e recon.Exception) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateExceptionErr != nil {
		return m.UpdateExceptionErr
	}

	for _, list := range m.exceptions {
		idx := slices.IndexFunc(list, func(x recon.Exception) bool {
			return x.OrgID == e.OrgID && x.ID == e.ID
		})
		if idx >= 0 {
			list[idx].Status = e.Status
			list[idx].ResolvedAt = e.ResolvedAt
			list[idx].ResolutionNotes = e.ResolutionNotes
			return nil
		}
	}
	return fmt.Errorf("%s: %w", e.ID, ErrNotFound)
}

// SaveReport stores a report copy without its exceptions
func (m *MockRepository) SaveReport(_ context.Context, runID string, report *recon.CloseReadinessReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveReportCalled = true
	if m.SaveReportErr != nil {
		return m.SaveReportErr
	}
	copied := *report
	copied.Factors = slices.Clone(report.Factors)
	copied.Exceptions = []recon.Exception{}
	m.reports[runID] = &copied
	return nil
}

// GetReport returns a stored report
func (m *MockRepository) GetReport(_ context.Context, runID string) (*recon.CloseReadinessReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	report, ok := m.reports[runID]
	if !ok {
		return nil, fmt.Errorf("report for run %s: %w", runID, ErrNotFound)
	}
	copied := *report
	return &copied, nil
}
