// Package cli implements the command-line interface for napista.
//
// The cli package provides the Cobra-based CLI: listing and searching the
// agenda (text or JSON, with grid, list and compact text views), the
// distinct event types, the curator's picks, an iCalendar export, the
// snapshot export and the HTTP server. Every command loads the agenda
// through the ingestion pipeline, so a sheet outage falls back to the local
// snapshot without surfacing an error.
package cli
