// Package web serves the ingested agenda over HTTP.
//
// The server holds the result of the latest ingestion and replaces it
// wholesale on every refresh; requests only read it. Refreshes run on a cron
// schedule and never overlap.
//
// Endpoints:
//   - GET /health
//   - GET /api/events?q=&date=&type=&location=
//   - GET /api/types
//   - GET /api/picks
//   - GET /api/status
//   - GET /events.ics?q=&date=&type=&location=
package web
