package exceptions

import "github.com/eshaffer321/closeready/internal/domain/recon"

// Signals computes the mismatch count and max delta over open exceptions.
// These must stay in step with the alert rules that consume them: only
// status "open" counts.
func Signals(exceptions []recon.Exception) recon.AlertSignals {
	var s recon.AlertSignals
	for _, e := range exceptions {
		if !e.IsOpen() {
			continue
		}
		s.MismatchCount++
		if e.DeltaCents > s.MaxDeltaCents {
			s.MaxDeltaCents = e.DeltaCents
		}
	}
	return s
}

// CountBySeverity tallies open exceptions per severity.
func CountBySeverity(exceptions []recon.Exception) map[recon.Severity]int {
	counts := make(map[recon.Severity]int)
	for _, e := range exceptions {
		if e.IsOpen() {
			counts[e.Severity]++
		}
	}
	return counts
}
