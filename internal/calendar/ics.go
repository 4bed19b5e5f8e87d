// Package calendar exports agenda events as an iCalendar feed.
//
// Event times are free text in the sheet, so every entry is an all-day
// VEVENT on its normalized date; the time text goes into the description.
package calendar

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/itantech/napista/internal/event"
)

const (
	ProductID = "-//Na Pista//napista//PT"
	Name      = "Na Pista! Agenda Cultural"
)

// Options controls feed generation.
type Options struct {
	// Normalizer dates events that carry no normalized instant.
	Normalizer event.Normalizer
	// Stamp is written as DTSTAMP; zero means time.Now.
	Stamp time.Time
	// Name overrides the calendar display name.
	Name string
}

// GenerateICS renders events as an iCalendar document with CRLF line endings.
// Events whose date cannot be normalized are left out; the second result
// counts them.
func GenerateICS(events []event.Event, opts Options) (string, int) {
	cal := Build(events, opts)
	skipped := len(events) - len(cal.Events())
	return cal.Serialize(ics.WithNewLineWindows), skipped
}

// Build assembles the calendar without serializing it.
func Build(events []event.Event, opts Options) *ics.Calendar {
	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}
	name := opts.Name
	if name == "" {
		name = Name
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetXWRCalName(name)

	for _, evt := range events {
		day := evt.At
		if day.IsZero() {
			t, err := opts.Normalizer.Parse(evt.Date)
			if err != nil {
				continue
			}
			day = t
		}

		ve := cal.AddEvent(UID(evt))
		ve.SetDtStampTime(stamp.UTC())
		ve.SetAllDayStartAt(day)
		ve.SetAllDayEndAt(day.AddDate(0, 0, 1))
		ve.SetSummary(evt.Title)
		ve.SetLocation(evt.Location)
		ve.SetDescription(description(evt))
		if evt.Type != "" {
			ve.AddProperty(ics.ComponentPropertyCategories, evt.Type)
		}
		if evt.HasLink() {
			ve.SetURL(strings.TrimSpace(evt.URL))
		}
	}

	return cal
}

// UID derives a stable identifier from the event key, so re-exports update
// entries instead of duplicating them.
func UID(evt event.Event) string {
	sum := sha1.Sum([]byte(evt.Key()))
	return hex.EncodeToString(sum[:])[:16] + "@napista"
}

func description(evt event.Event) string {
	var lines []string
	if evt.Type != "" {
		lines = append(lines, evt.Type)
	}
	if t := strings.TrimSpace(evt.Time); t != "" {
		lines = append(lines, fmt.Sprintf("Horário: %s", t))
	}
	if evt.HasLink() {
		lines = append(lines, fmt.Sprintf("Mais informações: %s", strings.TrimSpace(evt.URL)))
	}
	return strings.Join(lines, "\n")
}
