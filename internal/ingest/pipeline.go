package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itantech/napista/internal/event"
	"github.com/itantech/napista/internal/logger"
)

// DefaultTimeout bounds the live fetch when Pipeline.Timeout is unset.
const DefaultTimeout = 15 * time.Second

// Source returns the raw rows of the live sheet, header row first.
type Source interface {
	FetchRows(ctx context.Context) ([][]string, error)
}

// SnapshotReader returns the events stored in the local snapshot.
type SnapshotReader interface {
	Load() ([]event.Event, error)
}

// Observer is told about every freshly loaded event set.
type Observer interface {
	Notify(events []event.Event) error
}

// Outcome tells which branch of a run produced the events.
type Outcome int

const (
	LiveSuccess Outcome = iota
	FallbackSuccess
	FallbackFailure
)

func (o Outcome) String() string {
	switch o {
	case LiveSuccess:
		return "live"
	case FallbackSuccess:
		return "fallback"
	case FallbackFailure:
		return "fallback_failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// MarshalText renders the outcome for JSON status payloads.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Result is the outcome of one ingestion run. Events is never nil.
type Result struct {
	Events      []event.Event
	Outcome     Outcome
	LiveErr     error
	SnapshotErr error
	LoadedAt    time.Time
	// Rejected counts events dropped for unrecognized dates.
	Rejected int
	// Dropped counts rows dropped for missing columns.
	Dropped int
}

// Pipeline runs ingestion against a live source with a snapshot fallback.
type Pipeline struct {
	Source   Source
	Snapshot SnapshotReader
	Observer Observer

	// Now defaults to time.Now.
	Now func() time.Time
	// Location defaults to time.Local.
	Location *time.Location
	Cutoff   CutoffPolicy
	Timeout  time.Duration

	// Logger defaults to the package-level logger.
	Logger  *logger.Logger
	Metrics *logger.Metrics
}

// Run performs one ingestion. It always returns a Result.
func (p *Pipeline) Run(ctx context.Context) *Result {
	now := p.now()
	loc := p.location()
	norm := event.NewNormalizer(now, loc)
	cutoff := p.Cutoff.Boundary(now, loc)
	log := p.log()

	res := &Result{LoadedAt: now, Events: []event.Event{}}

	events, err := p.live(ctx, norm, cutoff, res)
	if err == nil {
		res.Events = events
		res.Outcome = LiveSuccess
		p.incr("ingest.live_success")
		log.Info("Loaded events from sheet", logger.Fields{
			"events":   len(events),
			"dropped":  res.Dropped,
			"rejected": res.Rejected,
		})
	} else {
		res.LiveErr = err
		p.incr("ingest.fallback")
		log.Warn("Sheet unavailable, using local snapshot", logger.Fields{
			"error": err.Error(),
		})

		res.Dropped = 0
		res.Rejected = 0
		events, err = p.fallback(norm, cutoff, res)
		if err != nil {
			res.SnapshotErr = err
			res.Outcome = FallbackFailure
			p.incr("ingest.fallback_failure")
			log.Error("Snapshot unavailable, no events to show", nil, err)
		} else {
			res.Events = events
			res.Outcome = FallbackSuccess
			log.Info("Loaded events from snapshot", logger.Fields{
				"events":   len(events),
				"rejected": res.Rejected,
			})
		}
	}

	if res.Dropped > 0 {
		p.add("ingest.rows_dropped", int64(res.Dropped))
	}
	if res.Rejected > 0 {
		p.add("ingest.dates_rejected", int64(res.Rejected))
	}
	p.gauge("ingest.events", float64(len(res.Events)))

	if p.Observer != nil {
		if err := p.Observer.Notify(res.Events); err != nil {
			log.Error("Observer failed", logger.Fields{"outcome": res.Outcome.String()}, err)
		}
	}

	return res
}

// live fetches and prepares rows from the source. Errors are always one of
// the failure classes in errors.go.
func (p *Pipeline) live(ctx context.Context, norm event.Normalizer, cutoff time.Time, res *Result) ([]event.Event, error) {
	rows, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}

	events, dropped := event.FromRows(rows)
	res.Dropped = dropped
	if dropped > 0 {
		p.log().Debug("Dropped rows with missing columns", logger.Fields{"dropped": dropped})
	}

	prepared, rejected := Prepare(events, norm, cutoff)
	res.Rejected = rejected
	p.logRejected(rejected)
	return prepared, nil
}

// FetchAll reads every eligible row from the source with no cutoff, dated
// events first in date order and undated ones last. It feeds the snapshot
// export and does not fall back.
func (p *Pipeline) FetchAll(ctx context.Context) ([]event.Event, error) {
	rows, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}

	mapped, dropped := event.FromRows(rows)
	norm := event.NewNormalizer(p.now(), p.location())

	events := make([]event.Event, 0, len(mapped))
	undated := 0
	for _, evt := range mapped {
		if !evt.Eligible() {
			continue
		}
		if at, err := norm.Parse(evt.Date); err == nil {
			evt.At = at
		} else {
			undated++
		}
		events = append(events, evt)
	}
	event.SortByDate(events)

	p.log().Info("Fetched sheet for export", logger.Fields{
		"events":  len(events),
		"dropped": dropped,
		"undated": undated,
	})
	return events, nil
}

// fetch returns the data rows of the source, header removed, within the
// configured timeout.
func (p *Pipeline) fetch(ctx context.Context) ([][]string, error) {
	if p.Source == nil {
		return nil, fmt.Errorf("no source configured: %w", ErrMissingCredential)
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	rows, err := p.Source.FetchRows(ctx)
	p.timing("ingest.fetch", time.Since(start))
	if err != nil {
		return nil, classify(err)
	}
	if rows == nil {
		return nil, fmt.Errorf("source returned no values: %w", ErrMalformedPayload)
	}

	// First row holds the column headers.
	if len(rows) > 0 {
		rows = rows[1:]
	}
	return rows, nil
}

func (p *Pipeline) fallback(norm event.Normalizer, cutoff time.Time, res *Result) ([]event.Event, error) {
	if p.Snapshot == nil {
		return nil, fmt.Errorf("no snapshot configured: %w", ErrSnapshotUnavailable)
	}

	events, err := p.Snapshot.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotUnavailable, err)
	}

	prepared, rejected := Prepare(events, norm, cutoff)
	res.Rejected = rejected
	p.logRejected(rejected)
	return prepared, nil
}

func (p *Pipeline) logRejected(n int) {
	if n > 0 {
		p.log().Warn("Excluded events with unrecognized dates", logger.Fields{"rejected": n})
	}
}

// Prepare keeps the eligible events dated on or after cutoff, sorted by date
// with ties in input order. It returns a new slice and the number of eligible
// events excluded because their date could not be normalized.
func Prepare(events []event.Event, norm event.Normalizer, cutoff time.Time) ([]event.Event, int) {
	out := make([]event.Event, 0, len(events))
	rejected := 0
	for _, evt := range events {
		if !evt.Eligible() {
			continue
		}
		at, err := norm.Parse(evt.Date)
		if err != nil {
			rejected++
			continue
		}
		if at.Before(cutoff) {
			continue
		}
		evt.At = at
		out = append(out, evt)
	}
	event.SortByDate(out)
	return out, rejected
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrSourceUnavailable),
		errors.Is(err, ErrMalformedPayload),
		errors.Is(err, ErrMissingCredential):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) location() *time.Location {
	if p.Location != nil {
		return p.Location
	}
	return time.Local
}

func (p *Pipeline) log() *logger.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return logger.Default()
}

func (p *Pipeline) incr(name string) {
	p.add(name, 1)
}

func (p *Pipeline) add(name string, n int64) {
	if p.Metrics != nil {
		p.Metrics.AddCounter(name, n)
		return
	}
	logger.AddCounter(name, n)
}

func (p *Pipeline) gauge(name string, v float64) {
	if p.Metrics != nil {
		p.Metrics.SetGauge(name, v)
		return
	}
	logger.SetGauge(name, v)
}

func (p *Pipeline) timing(name string, d time.Duration) {
	if p.Metrics != nil {
		p.Metrics.RecordTiming(name, d)
		return
	}
	logger.RecordTiming(name, d)
}
