package recon

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period is a labelled, half-open date range [Start, End).
type Period struct {
	Label string
	Start time.Time
	End   time.Time
}

// ParsePeriod parses a period label. Supported forms:
//
//	2026-02   calendar month
//	2026-Q1   calendar quarter
//	2026      calendar year
//
// The returned Label is canonical, so "2026-Q01" and "2026-Q1" name the same
// period.
func ParsePeriod(label string) (Period, error) {
	label = strings.TrimSpace(label)

	if t, err := time.Parse("2006-01", label); err == nil {
		return Period{Label: label, Start: t, End: t.AddDate(0, 1, 0)}, nil
	}

	if year, quarter, ok := strings.Cut(label, "-Q"); ok {
		if len(year) != 4 || !allDigits(year) {
			return Period{}, fmt.Errorf("invalid period %q: bad year", label)
		}
		y, _ := strconv.Atoi(year)
		q, err := strconv.Atoi(quarter)
		if err != nil || !allDigits(quarter) || q < 1 || q > 4 {
			return Period{}, fmt.Errorf("invalid period %q: quarter must be Q1-Q4", label)
		}
		start := time.Date(y, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		return Period{Label: fmt.Sprintf("%04d-Q%d", y, q), Start: start, End: start.AddDate(0, 3, 0)}, nil
	}

	if len(label) == 4 && allDigits(label) {
		if y, err := strconv.Atoi(label); err == nil {
			start := time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
			return Period{Label: label, Start: start, End: start.AddDate(1, 0, 0)}, nil
		}
	}

	return Period{}, fmt.Errorf("invalid period %q: expected YYYY-MM, YYYY-Qn or YYYY", label)
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

func (p Period) String() string {
	return p.Label
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
