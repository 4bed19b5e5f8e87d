package event

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrUnrecognizedDate is returned when date text matches neither supported shape.
var ErrUnrecognizedDate = errors.New("unrecognized date")

// DayLayout is the canonical text layout of a normalized day.
const DayLayout = "02/01/2006"

// months maps Portuguese month names and abbreviations to time.Month.
// Lookups are done on lowercased text with any trailing period removed.
var months = map[string]time.Month{
	"jan": time.January, "janeiro": time.January,
	"fev": time.February, "fevereiro": time.February,
	"mar": time.March, "março": time.March, "marco": time.March,
	"abr": time.April, "abril": time.April,
	"mai": time.May, "maio": time.May,
	"jun": time.June, "junho": time.June,
	"jul": time.July, "julho": time.July,
	"ago": time.August, "agosto": time.August,
	"set": time.September, "setembro": time.September,
	"out": time.October, "outubro": time.October,
	"nov": time.November, "novembro": time.November,
	"dez": time.December, "dezembro": time.December,
}

// Normalizer converts event date text into comparable instants.
//
// Year is the reference year assumed for the named-weekday form, which carries
// no year of its own. Location is the zone whose midnight marks the start of
// a day; nil means time.Local.
type Normalizer struct {
	Year     int
	Location *time.Location
}

// NewNormalizer returns a Normalizer whose reference year is the year of now in loc.
func NewNormalizer(now time.Time, loc *time.Location) Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return Normalizer{Year: now.In(loc).Year(), Location: loc}
}

// Parse normalizes text to local midnight of the day it denotes.
func (n Normalizer) Parse(text string) (time.Time, error) {
	return ParseDate(text, n.Year, n.Location)
}

// ParseDate parses either "<Weekday>, <day> de <Month>" (using year) or
// "DD/MM/YYYY" and returns midnight of that day in loc.
// Text that fits neither shape yields an error wrapping ErrUnrecognizedDate.
func ParseDate(text string, year int, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty text", ErrUnrecognizedDate)
	}

	var (
		day   int
		month time.Month
		err   error
	)
	if strings.Contains(s, ",") {
		day, month, err = parseNamed(s)
	} else {
		day, month, year, err = parseNumeric(s)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrUnrecognizedDate, text, err)
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	// time.Date normalizes overflow (31/02 -> 03/03); reject instead.
	if t.Day() != day || t.Month() != month {
		return time.Time{}, fmt.Errorf("%w: %q: day %d out of range", ErrUnrecognizedDate, text, day)
	}
	return t, nil
}

// parseNamed handles "Domingo, 05 de Jan" style text.
func parseNamed(s string) (int, time.Month, error) {
	_, rest, _ := strings.Cut(s, ",")
	// Older sheets append a time range: "Sexta, 10 de Jan - 20h".
	rest, _, _ = strings.Cut(rest, " - ")

	fields := strings.Fields(rest)
	if len(fields) != 3 || !strings.EqualFold(fields[1], "de") {
		return 0, 0, errors.New("expected \"<day> de <month>\"")
	}

	day, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid day %q", fields[0])
	}

	name := strings.TrimSuffix(strings.ToLower(fields[2]), ".")
	month, ok := months[name]
	if !ok {
		return 0, 0, fmt.Errorf("unknown month %q", fields[2])
	}
	return day, month, nil
}

// parseNumeric handles "DD/MM/YYYY" text.
func parseNumeric(s string) (int, time.Month, int, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return 0, 0, 0, errors.New("expected DD/MM/YYYY")
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) > 2 {
		return 0, 0, 0, fmt.Errorf("invalid day %q", parts[0])
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) > 2 || m < 1 || m > 12 {
		return 0, 0, 0, fmt.Errorf("invalid month %q", parts[1])
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil || len(parts[2]) != 4 {
		return 0, 0, 0, fmt.Errorf("invalid year %q", parts[2])
	}
	return day, time.Month(m), year, nil
}

// FormatDay renders t as DD/MM/YYYY.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// Midnight returns the start of the day containing t, in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SortByDate orders events by At, keeping the input order of equal dates.
// Events without a normalized date go last.
func SortByDate(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return Before(events[i], events[j])
	})
}

// Before reports whether a sorts ahead of b by normalized date.
func Before(a, b Event) bool {
	if a.At.IsZero() || b.At.IsZero() {
		return !a.At.IsZero() && b.At.IsZero()
	}
	return a.At.Before(b.At)
}
