package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/itantech/napista/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate  SortOrder = "date"
	SortByTitle SortOrder = "title"
	SortByType  SortOrder = "type"
)

func parseSortOrder(s string) (SortOrder, error) {
	order := SortOrder(strings.ToLower(strings.TrimSpace(s)))
	switch order {
	case SortByDate, SortByTitle, SortByType:
		return order, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (must be 'date', 'title' or 'type')", s)
	}
}

// sortEvents returns events ordered by sortOrder. Ties keep their date order.
func sortEvents(events []event.Event, sortOrder SortOrder) []event.Event {
	sorted := make([]event.Event, len(events))
	copy(sorted, events)

	switch sortOrder {
	case SortByDate:
		event.SortByDate(sorted)
	case SortByTitle:
		sort.SliceStable(sorted, func(i, j int) bool {
			return strings.ToLower(sorted[i].Title) < strings.ToLower(sorted[j].Title)
		})
	case SortByType:
		sort.SliceStable(sorted, func(i, j int) bool {
			return strings.ToLower(sorted[i].Type) < strings.ToLower(sorted[j].Type)
		})
	}
	return sorted
}
