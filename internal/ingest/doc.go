// Package ingest loads the agenda: it fetches rows from the live sheet, maps
// and validates them, normalizes dates, keeps upcoming events in date order
// and falls back to the local snapshot when anything on the live path fails.
//
// A Pipeline never returns an error to its caller. Every run yields a Result
// whose Outcome says which branch produced the events; failures are logged
// and counted through the logger package.
//
// Example usage:
//
//	p := &ingest.Pipeline{
//	    Source:   sheets.NewClient(id, "Página2", key, 15*time.Second),
//	    Snapshot: store,
//	    Location: loc,
//	}
//	res := p.Run(ctx)
//	fmt.Println(res.Outcome, len(res.Events))
package ingest
