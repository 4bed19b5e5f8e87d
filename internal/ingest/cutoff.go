package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/itantech/napista/internal/event"
)

// CutoffPolicy selects the earliest day still shown as upcoming.
type CutoffPolicy string

const (
	// CutoffGrace keeps events from yesterday onwards, so an event that runs
	// past midnight is still listed the next morning.
	CutoffGrace CutoffPolicy = "grace"
	// CutoffStrict keeps events from today onwards.
	CutoffStrict CutoffPolicy = "strict"
)

// ParseCutoff converts a config value into a CutoffPolicy. Empty means grace.
func ParseCutoff(s string) (CutoffPolicy, error) {
	switch CutoffPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", CutoffGrace:
		return CutoffGrace, nil
	case CutoffStrict:
		return CutoffStrict, nil
	default:
		return CutoffGrace, fmt.Errorf("unknown cutoff policy: %s (want grace or strict)", s)
	}
}

// Boundary returns the cutoff instant for now: local midnight of today, or of
// yesterday under the grace policy.
func (c CutoffPolicy) Boundary(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	today := event.Midnight(now.In(loc))
	if c == CutoffStrict {
		return today
	}
	return today.AddDate(0, 0, -1)
}
