package event

import (
	"strings"
	"time"
)

// Event represents one entry of the cultural agenda.
type Event struct {
	Title    string `json:"title"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Location string `json:"location"`
	Type     string `json:"type"`
	URL      string `json:"url"`
	ImageURL string `json:"imageUrl"`

	// At is the normalized instant of Date, set during ingestion.
	At time.Time `json:"-"`
}

// Eligible reports whether the event has the fields required for display.
func (e Event) Eligible() bool {
	return strings.TrimSpace(e.Title) != "" &&
		strings.TrimSpace(e.Location) != "" &&
		strings.TrimSpace(e.Type) != ""
}

// HasLink reports whether the event points to a detail page.
func (e Event) HasLink() bool {
	return strings.TrimSpace(e.URL) != ""
}

// HasImage reports whether the event carries an image reference.
func (e Event) HasImage() bool {
	return strings.TrimSpace(e.ImageURL) != ""
}

// Day returns the canonical DD/MM/YYYY text of the normalized date,
// or the raw date text when the event has not been normalized.
func (e Event) Day() string {
	if e.At.IsZero() {
		return e.Date
	}
	return FormatDay(e.At)
}

// Key identifies an event across reloads of the sheet. Rows have no id
// column, so title, date and location stand in for one.
func (e Event) Key() string {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	return norm(e.Title) + "\x00" + norm(e.Date) + "\x00" + norm(e.Location)
}
