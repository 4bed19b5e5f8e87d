package event

import "strings"

// Columns is the number of positional fields a spreadsheet row needs:
// title, date, time, location, type, url, imageUrl.
const Columns = 7

// FromRow converts one positional row into an Event.
// Rows with fewer than Columns fields are rejected; extra fields are ignored.
func FromRow(row []string) (Event, bool) {
	if len(row) < Columns {
		return Event{}, false
	}

	cell := func(i int) string { return strings.TrimSpace(row[i]) }

	return Event{
		Title:    cell(0),
		Date:     cell(1),
		Time:     cell(2),
		Location: cell(3),
		Type:     cell(4),
		URL:      cell(5),
		ImageURL: cell(6),
	}, true
}

// FromRows maps data rows (header already removed) and reports how many rows
// were dropped for missing columns.
func FromRows(rows [][]string) ([]Event, int) {
	events := make([]Event, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		evt, ok := FromRow(row)
		if !ok {
			dropped++
			continue
		}
		events = append(events, evt)
	}
	return events, dropped
}
