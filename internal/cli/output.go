package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/itantech/napista/internal/event"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ViewMode selects the text layout of an event list
type ViewMode string

const (
	ViewGrid    ViewMode = "grid"
	ViewList    ViewMode = "list"
	ViewCompact ViewMode = "compact"
)

func parseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

func parseView(s string) (ViewMode, error) {
	view := ViewMode(strings.ToLower(strings.TrimSpace(s)))
	switch view {
	case ViewGrid, ViewList, ViewCompact:
		return view, nil
	default:
		return "", fmt.Errorf("invalid view: %s (must be 'grid', 'list' or 'compact')", s)
	}
}

// OutputResult contains data to be output
type OutputResult struct {
	LoadedAt   time.Time     `json:"loaded_at"`
	Source     string        `json:"source"`
	Filters    string        `json:"filters,omitempty"`
	Events     []event.Event `json:"events"`
	EventCount int           `json:"event_count"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, view ViewMode) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, view)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, view ViewMode) error {
	if result.Filters != "" {
		fmt.Fprintf(w, "Filters: %s\n\n", result.Filters)
	}

	if result.EventCount == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	switch view {
	case ViewGrid:
		if err := writeGrid(w, result.Events); err != nil {
			return err
		}
	case ViewCompact:
		for _, evt := range result.Events {
			fmt.Fprintln(w, compactLine(evt))
		}
	default:
		for i, evt := range result.Events {
			if i > 0 {
				fmt.Fprintln(w)
			}
			writeCard(w, evt)
		}
	}

	fmt.Fprintf(w, "\nTotal: %d events\n", result.EventCount)
	return nil
}

func writeGrid(w io.Writer, events []event.Event) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTIME\tTITLE\tTYPE\tLOCATION")
	for _, evt := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", evt.Day(), evt.Time, evt.Title, evt.Type, evt.Location)
	}
	return tw.Flush()
}

func writeCard(w io.Writer, evt event.Event) {
	fmt.Fprintf(w, "%s\n", evt.Title)
	when := evt.Day()
	if evt.Time != "" {
		when += " " + evt.Time
	}
	fmt.Fprintf(w, "     Date: %s\n", when)
	fmt.Fprintf(w, "     Type: %s\n", evt.Type)
	fmt.Fprintf(w, "     Location: %s\n", evt.Location)
	if evt.HasLink() {
		fmt.Fprintf(w, "     Link: %s\n", evt.URL)
	}
	if evt.HasImage() {
		fmt.Fprintf(w, "     Image: %s\n", evt.ImageURL)
	}
}

func compactLine(evt event.Event) string {
	return fmt.Sprintf("%s  %s (%s) @ %s", evt.Day(), evt.Title, evt.Type, evt.Location)
}
