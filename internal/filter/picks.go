package filter

import (
	"sort"
	"strings"
	"time"

	"github.com/itantech/napista/internal/event"
)

// DefaultPicks is the number of curator's picks shown.
const DefaultPicks = 5

// DefaultPriority lists the types promoted to the front of the picks.
var DefaultPriority = []string{"Exposição", "Teatro", "Música"}

// Picks returns up to n events: those whose type is in priority first, then
// by ascending date, with undated events last. Ties keep input order.
// A nil priority means DefaultPriority; n <= 0 means DefaultPicks.
func (e Engine) Picks(events []event.Event, priority []string, n int) []event.Event {
	if priority == nil {
		priority = DefaultPriority
	}
	if n <= 0 {
		n = DefaultPicks
	}

	type ranked struct {
		evt       event.Event
		preferred bool
		at        time.Time
	}

	items := make([]ranked, len(events))
	for i, evt := range events {
		items[i] = ranked{
			evt:       evt,
			preferred: inPriority(evt.Type, priority),
			at:        e.instant(evt),
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.preferred != b.preferred {
			return a.preferred
		}
		if a.at.IsZero() || b.at.IsZero() {
			return !a.at.IsZero() && b.at.IsZero()
		}
		return a.at.Before(b.at)
	})

	if len(items) > n {
		items = items[:n]
	}

	out := make([]event.Event, len(items))
	for i, it := range items {
		out[i] = it.evt
	}
	return out
}

func (e Engine) instant(evt event.Event) time.Time {
	if !evt.At.IsZero() {
		return evt.At
	}
	t, err := e.Normalizer.Parse(evt.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

func inPriority(typ string, priority []string) bool {
	typ = strings.TrimSpace(typ)
	for _, p := range priority {
		if strings.EqualFold(typ, strings.TrimSpace(p)) {
			return true
		}
	}
	return false
}
