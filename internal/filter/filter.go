// Package filter provides search, structured filters and the curator's picks
// over an ingested event set.
//
// Every operation is pure: it returns a freshly allocated slice and never
// reorders or modifies its input. Criteria are passed explicitly, so the same
// Engine serves the CLI and concurrent HTTP requests.
//
// Criteria fields:
//   - Search: case-insensitive substring of title, location or type
//   - Date: same calendar day, in either supported date shape
//   - Type: case-insensitive equality
//   - Location: case-insensitive substring
//
// Example usage:
//
//	engine := filter.Engine{Normalizer: event.NewNormalizer(time.Now(), loc)}
//	shows := engine.Apply(events, filter.Criteria{Search: "música"})
//	picks := engine.Picks(events, filter.DefaultPriority, filter.DefaultPicks)
package filter

import (
	"fmt"
	"strings"

	"github.com/itantech/napista/internal/event"
)

// Criteria holds the search text and structured filters. An empty field
// places no constraint; all non-empty fields must match.
type Criteria struct {
	Search   string `json:"search,omitempty"`
	Date     string `json:"date,omitempty"`
	Type     string `json:"type,omitempty"`
	Location string `json:"location,omitempty"`
}

// IsEmpty reports whether the criteria would match every eligible event.
func (c Criteria) IsEmpty() bool {
	return strings.TrimSpace(c.Search) == "" &&
		strings.TrimSpace(c.Date) == "" &&
		strings.TrimSpace(c.Type) == "" &&
		strings.TrimSpace(c.Location) == ""
}

// String returns a human-readable description of the active criteria.
// Format: `Search: "samba" | Date: 12/01/2025 | Type: Música`
func (c Criteria) String() string {
	if c.IsEmpty() {
		return "No active filters"
	}

	var parts []string
	if s := strings.TrimSpace(c.Search); s != "" {
		parts = append(parts, fmt.Sprintf("Search: %q", s))
	}
	if s := strings.TrimSpace(c.Date); s != "" {
		parts = append(parts, fmt.Sprintf("Date: %s", s))
	}
	if s := strings.TrimSpace(c.Type); s != "" {
		parts = append(parts, fmt.Sprintf("Type: %s", s))
	}
	if s := strings.TrimSpace(c.Location); s != "" {
		parts = append(parts, fmt.Sprintf("Location: %s", s))
	}
	return strings.Join(parts, " | ")
}

// Engine evaluates criteria against events. The Normalizer supplies the
// reference year used to compare dates.
type Engine struct {
	Normalizer event.Normalizer
}

// Apply returns the eligible events matching every active criterion, in
// input order.
func (e Engine) Apply(events []event.Event, c Criteria) []event.Event {
	m := e.matcher(c)

	out := make([]event.Event, 0, len(events))
	for _, evt := range events {
		if m.matches(evt) {
			out = append(out, evt)
		}
	}
	return out
}

// Matches reports whether a single event passes the criteria.
func (e Engine) Matches(evt event.Event, c Criteria) bool {
	return e.matcher(c).matches(evt)
}

// matcher holds criteria lowered and normalized once per Apply.
type matcher struct {
	engine   Engine
	search   string
	date     string
	typ      string
	location string
}

func (e Engine) matcher(c Criteria) matcher {
	m := matcher{
		engine:   e,
		search:   strings.ToLower(strings.TrimSpace(c.Search)),
		typ:      strings.TrimSpace(c.Type),
		location: strings.ToLower(strings.TrimSpace(c.Location)),
	}
	if d := strings.TrimSpace(c.Date); d != "" {
		m.date = e.canonicalDay(d)
	}
	return m
}

func (m matcher) matches(evt event.Event) bool {
	if !evt.Eligible() {
		return false
	}

	if m.search != "" {
		haystacks := []string{evt.Title, evt.Location, evt.Type}
		found := false
		for _, h := range haystacks {
			if strings.Contains(strings.ToLower(h), m.search) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if m.date != "" && m.engine.eventDay(evt) != m.date {
		return false
	}

	if m.typ != "" && !strings.EqualFold(strings.TrimSpace(evt.Type), m.typ) {
		return false
	}

	if m.location != "" && !strings.Contains(strings.ToLower(evt.Location), m.location) {
		return false
	}

	return true
}

// canonicalDay returns DD/MM/YYYY for text that normalizes, otherwise the
// trimmed text itself.
func (e Engine) canonicalDay(text string) string {
	s := strings.TrimSpace(text)
	t, err := e.Normalizer.Parse(s)
	if err != nil {
		return s
	}
	return event.FormatDay(t)
}

func (e Engine) eventDay(evt event.Event) string {
	if !evt.At.IsZero() {
		return event.FormatDay(evt.At)
	}
	return e.canonicalDay(evt.Date)
}

// Types returns the distinct non-empty event types in first-seen order.
func (e Engine) Types(events []event.Event) []string {
	seen := make(map[string]bool)
	types := []string{}
	for _, evt := range events {
		t := strings.TrimSpace(evt.Type)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		types = append(types, t)
	}
	return types
}
