package recon

// Config holds the reconciliation policy constants.
// It is a value type: callers pass it explicitly to every engine call and
// must treat it as immutable once constructed.
type Config struct {
	ToleranceCents                int64 `json:"tolerance_cents" yaml:"tolerance_cents"`
	MaxUnreconciledDays           int   `json:"max_unreconciled_days" yaml:"max_unreconciled_days"`
	MinCloseReadinessScorePercent int   `json:"min_close_readiness_score_percent" yaml:"min_close_readiness_score_percent"`
}

// Default policy values.
const (
	DefaultToleranceCents                = 100
	DefaultMaxUnreconciledDays           = 7
	DefaultMinCloseReadinessScorePercent = 95
)

// DefaultConfig returns the default reconciliation policy.
func DefaultConfig() Config {
	return Config{
		ToleranceCents:                DefaultToleranceCents,
		MaxUnreconciledDays:           DefaultMaxUnreconciledDays,
		MinCloseReadinessScorePercent: DefaultMinCloseReadinessScorePercent,
	}
}
