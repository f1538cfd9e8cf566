package exceptions

import (
	"errors"
	"fmt"
	"time"

	"github.com/eshaffer321/closeready/internal/domain/recon"
)

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = errors.New("invalid exception status transition")

// Transition returns a copy of e moved to status to. Resolved and waived are
// terminal; moving into either stamps ResolvedAt and records notes.
func Transition(e recon.Exception, to recon.ExceptionStatus, notes string, at time.Time) (recon.Exception, error) {
	if !to.Valid() {
		return e, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	if e.Status.Terminal() {
		return e, fmt.Errorf("%w: %s is already %s", ErrInvalidTransition, e.ID, e.Status)
	}
	if e.Status == to {
		return e, fmt.Errorf("%w: %s is already %s", ErrInvalidTransition, e.ID, to)
	}

	out := e
	out.Status = to
	if to.Terminal() {
		resolvedAt := at
		out.ResolvedAt = &resolvedAt
		out.ResolutionNotes = notes
	} else if notes != "" {
		out.ResolutionNotes = notes
	}
	return out, nil
}

// CarryOver copies review state from a previous run's exceptions onto freshly
// generated ones describing the same discrepancy (same type and refs). The
// first detection time survives, so staleness keeps counting from first
// detection, and resolved or waived items stay closed across re-runs.
func CarryOver(previous, current []recon.Exception) []recon.Exception {
	byPrint := make(map[string]recon.Exception, len(previous))
	for _, p := range previous {
		if _, ok := byPrint[p.Fingerprint()]; !ok {
			byPrint[p.Fingerprint()] = p
		}
	}

	out := make([]recon.Exception, len(current))
	for i, c := range current {
		if p, ok := byPrint[c.Fingerprint()]; ok {
			c.Status = p.Status
			c.DetectedAt = p.DetectedAt
			c.ResolvedAt = p.ResolvedAt
			c.ResolutionNotes = p.ResolutionNotes
		}
		out[i] = c
	}
	return out
}
