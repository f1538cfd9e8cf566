package recon

import "time"

// FactorStatus is the verdict for a single readiness factor.
type FactorStatus string

const (
	FactorPass FactorStatus = "pass"
	FactorWarn FactorStatus = "warn"
	FactorFail FactorStatus = "fail"
)

// Factor is one scored component of the close readiness report.
type Factor struct {
	Name     string       `json:"name"`
	Score    int          `json:"score"`
	MaxScore int          `json:"max_score"`
	Status   FactorStatus `json:"status"`
	Detail   string       `json:"detail"`
}

// CloseReadinessReport gates whether a financial period may be closed.
type CloseReadinessReport struct {
	OrgID       string      `json:"org_id"`
	PeriodLabel string      `json:"period_label"`
	Score       int         `json:"score"`
	MaxScore    int         `json:"max_score"`
	Percentage  int         `json:"percentage"`
	Ready       bool        `json:"ready"`
	Factors     []Factor    `json:"factors"`
	Exceptions  []Exception `json:"exceptions"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// Factor returns the factor with the given name.
func (r CloseReadinessReport) Factor(name string) (Factor, bool) {
	for _, f := range r.Factors {
		if f.Name == name {
			return f, true
		}
	}
	return Factor{}, false
}
