// Package sheets reads the agenda spreadsheet.
//
// Two sources are available: Client talks to the Google Sheets v4 values API
// with an API key, and HTMLSource scrapes the "publish to web" HTML rendering
// of the same sheet. Both return raw positional rows with the header row
// included; mapping them to events is left to the ingestion pipeline.
package sheets
