// Package storage provides the local JSON snapshot of the agenda.
//
// The snapshot is a JSON array of event records with the same seven fields as
// the spreadsheet. It is read when the live sheet cannot be used and written
// by the export command (and, optionally, after a successful live refresh).
// The default location is data/events.json.
package storage
