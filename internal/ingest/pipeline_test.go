package ingest

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/itantech/napista/internal/event"
	"github.com/itantech/napista/internal/logger"
)

var brt = time.FixedZone("BRT", -3*60*60)

type fakeSource struct {
	rows [][]string
	err  error
	ctx  context.Context
}

func (f *fakeSource) FetchRows(ctx context.Context) ([][]string, error) {
	f.ctx = ctx
	return f.rows, f.err
}

type fakeSnapshot struct {
	events []event.Event
	err    error
	calls  int
}

func (f *fakeSnapshot) Load() ([]event.Event, error) {
	f.calls++
	return f.events, f.err
}

type recordingObserver struct {
	got   [][]event.Event
	err   error
	calls int
}

func (r *recordingObserver) Notify(events []event.Event) error {
	r.calls++
	r.got = append(r.got, events)
	return r.err
}

var header = []string{"Título", "Data", "Horário", "Local", "Tipo", "Link", "Imagem"}

func newPipeline(src Source, snap SnapshotReader, buf *bytes.Buffer) *Pipeline {
	return &Pipeline{
		Source:   src,
		Snapshot: snap,
		Now:      func() time.Time { return time.Date(2025, 1, 10, 14, 0, 0, 0, brt) },
		Location: brt,
		Logger:   logger.New(logger.LevelDebug, buf),
		Metrics:  logger.NewMetrics(),
	}
}

func titles(events []event.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Title
	}
	return out
}

func equalTitles(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPipeline_Run_Live(t *testing.T) {
	src := &fakeSource{rows: [][]string{
		header,
		{"Concert A", "12/01/2025", "20:00", "Hall 1", "Música", "http://x", "http://img1"},
		{"Expo B", "Domingo, 5 de Jan", "10:00", "Gallery", "Exposição", "", ""},
	}}
	snap := &fakeSnapshot{}
	var buf bytes.Buffer
	p := newPipeline(src, snap, &buf)

	res := p.Run(context.Background())

	if res.Outcome != LiveSuccess {
		t.Fatalf("Outcome = %v, want %v (live err: %v)", res.Outcome, LiveSuccess, res.LiveErr)
	}
	if got := titles(res.Events); !equalTitles(got, []string{"Concert A"}) {
		t.Errorf("Events = %v, want [Concert A]", got)
	}
	if snap.calls != 0 {
		t.Errorf("snapshot loaded %d times on live success", snap.calls)
	}
	want := time.Date(2025, 1, 12, 0, 0, 0, 0, brt)
	if !res.Events[0].At.Equal(want) {
		t.Errorf("At = %v, want %v", res.Events[0].At, want)
	}
	if _, ok := src.ctx.Deadline(); !ok {
		t.Error("fetch context has no deadline")
	}
}

func TestPipeline_Run_Eligibility(t *testing.T) {
	src := &fakeSource{rows: [][]string{
		header,
		{"", "12/01/2025", "20:00", "Hall", "Teatro", "", ""},
		{"Peça", "12/01/2025", "20:00", "Hall", "Teatro", "", ""},
		{"Short", "12/01/2025", "20:00"},
	}}
	var buf bytes.Buffer
	p := newPipeline(src, &fakeSnapshot{}, &buf)

	res := p.Run(context.Background())

	if got := titles(res.Events); !equalTitles(got, []string{"Peça"}) {
		t.Errorf("Events = %v, want [Peça]", got)
	}
	if res.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", res.Dropped)
	}
	counters := p.Metrics.GetSnapshot()["counters"].(map[string]int64)
	if counters["ingest.rows_dropped"] != 1 {
		t.Errorf("ingest.rows_dropped = %d, want 1", counters["ingest.rows_dropped"])
	}
}

func TestPipeline_Run_SortAndCutoff(t *testing.T) {
	src := &fakeSource{rows: [][]string{
		header,
		{"Late", "20/01/2025", "", "L", "Música", "", ""},
		{"Yesterday", "09/01/2025", "", "L", "Música", "", ""},
		{"Old", "08/01/2025", "", "L", "Música", "", ""},
		{"Today named", "Sexta, 10 de Jan", "", "L", "Teatro", "", ""},
		{"Today numeric", "10/01/2025", "", "L", "Teatro", "", ""},
		{"Bad date", "sometime soon", "", "L", "Teatro", "", ""},
	}}

	tests := []struct {
		name   string
		cutoff CutoffPolicy
		want   []string
	}{
		{
			name:   "grace keeps yesterday",
			cutoff: CutoffGrace,
			want:   []string{"Yesterday", "Today named", "Today numeric", "Late"},
		},
		{
			name:   "strict starts today",
			cutoff: CutoffStrict,
			want:   []string{"Today named", "Today numeric", "Late"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			p := newPipeline(src, &fakeSnapshot{}, &buf)
			p.Cutoff = tt.cutoff

			res := p.Run(context.Background())

			if got := titles(res.Events); !equalTitles(got, tt.want) {
				t.Errorf("Events = %v, want %v", got, tt.want)
			}
			if res.Rejected != 1 {
				t.Errorf("Rejected = %d, want 1", res.Rejected)
			}
			for i := 1; i < len(res.Events); i++ {
				if res.Events[i].At.Before(res.Events[i-1].At) {
					t.Errorf("events not sorted at %d", i)
				}
			}
		})
	}
}

func TestPipeline_Run_Fallback(t *testing.T) {
	snapshotEvents := []event.Event{
		{Title: "Expo B", Date: "Domingo, 5 de Jan", Time: "10:00", Location: "Gallery", Type: "Exposição"},
		{Title: "Show C", Date: "15/01/2025", Time: "21:00", Location: "Bar", Type: "Música"},
		{Title: "", Date: "15/01/2025", Time: "21:00", Location: "Bar", Type: "Música"},
		{Title: "Peça D", Date: "Sábado, 11 de jan.", Time: "19:00", Location: "Teatro X", Type: "Teatro"},
	}

	tests := []struct {
		name    string
		src     *fakeSource
		wantErr error
	}{
		{
			name:    "network error",
			src:     &fakeSource{err: errors.New("dial tcp: connection refused")},
			wantErr: ErrSourceUnavailable,
		},
		{
			name:    "classified error kept",
			src:     &fakeSource{err: ErrMissingCredential},
			wantErr: ErrMissingCredential,
		},
		{
			name:    "missing values",
			src:     &fakeSource{rows: nil},
			wantErr: ErrMalformedPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &fakeSnapshot{events: snapshotEvents}
			var buf bytes.Buffer
			p := newPipeline(tt.src, snap, &buf)

			res := p.Run(context.Background())

			if res.Outcome != FallbackSuccess {
				t.Fatalf("Outcome = %v, want %v", res.Outcome, FallbackSuccess)
			}
			if !errors.Is(res.LiveErr, tt.wantErr) {
				t.Errorf("LiveErr = %v, want %v", res.LiveErr, tt.wantErr)
			}
			if snap.calls != 1 {
				t.Errorf("snapshot loaded %d times, want 1", snap.calls)
			}

			now := p.Now()
			want, _ := Prepare(snapshotEvents, event.NewNormalizer(now, brt), CutoffGrace.Boundary(now, brt))
			if got := titles(res.Events); !equalTitles(got, titles(want)) {
				t.Errorf("Events = %v, want %v", got, titles(want))
			}
			if got := titles(res.Events); !equalTitles(got, []string{"Peça D", "Show C"}) {
				t.Errorf("Events = %v, want [Peça D Show C]", got)
			}
			if !strings.Contains(buf.String(), "Sheet unavailable") {
				t.Errorf("fallback not logged: %s", buf.String())
			}
		})
	}
}

func TestPipeline_Run_FallbackFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("timeout")}
	snap := &fakeSnapshot{err: errors.New("open data/events.json: no such file")}
	obs := &recordingObserver{}
	var buf bytes.Buffer
	p := newPipeline(src, snap, &buf)
	p.Observer = obs

	res := p.Run(context.Background())

	if res.Outcome != FallbackFailure {
		t.Fatalf("Outcome = %v, want %v", res.Outcome, FallbackFailure)
	}
	if res.Events == nil || len(res.Events) != 0 {
		t.Errorf("Events = %v, want empty non-nil", res.Events)
	}
	if !errors.Is(res.SnapshotErr, ErrSnapshotUnavailable) {
		t.Errorf("SnapshotErr = %v, want ErrSnapshotUnavailable", res.SnapshotErr)
	}
	if obs.calls != 1 {
		t.Errorf("observer called %d times, want 1", obs.calls)
	}

	counters := p.Metrics.GetSnapshot()["counters"].(map[string]int64)
	if counters["ingest.fallback"] != 1 || counters["ingest.fallback_failure"] != 1 {
		t.Errorf("counters = %v", counters)
	}
}

func TestPipeline_Run_NoSourceConfigured(t *testing.T) {
	snap := &fakeSnapshot{events: []event.Event{
		{Title: "Show C", Date: "15/01/2025", Location: "Bar", Type: "Música"},
	}}
	var buf bytes.Buffer
	p := newPipeline(nil, snap, &buf)

	res := p.Run(context.Background())

	if res.Outcome != FallbackSuccess {
		t.Fatalf("Outcome = %v, want %v", res.Outcome, FallbackSuccess)
	}
	if !errors.Is(res.LiveErr, ErrMissingCredential) {
		t.Errorf("LiveErr = %v, want ErrMissingCredential", res.LiveErr)
	}
}

func TestPipeline_Run_ObserverErrorIsLogged(t *testing.T) {
	src := &fakeSource{rows: [][]string{
		header,
		{"Concert A", "12/01/2025", "20:00", "Hall 1", "Música", "", ""},
	}}
	obs := &recordingObserver{err: errors.New("rate limited")}
	var buf bytes.Buffer
	p := newPipeline(src, &fakeSnapshot{}, &buf)
	p.Observer = obs

	res := p.Run(context.Background())

	if res.Outcome != LiveSuccess {
		t.Fatalf("Outcome = %v, want %v", res.Outcome, LiveSuccess)
	}
	if len(obs.got) != 1 || !equalTitles(titles(obs.got[0]), []string{"Concert A"}) {
		t.Errorf("observer got %v", obs.got)
	}
	if !strings.Contains(buf.String(), "rate limited") {
		t.Errorf("observer error not logged: %s", buf.String())
	}
}

func TestPipeline_Run_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	p := newPipeline(&fakeSource{rows: [][]string{header}}, &fakeSnapshot{}, &buf)

	res := p.Run(context.Background())

	if res.Outcome != LiveSuccess {
		t.Errorf("Outcome = %v, want %v", res.Outcome, LiveSuccess)
	}
	if len(res.Events) != 0 {
		t.Errorf("Events = %v, want none", res.Events)
	}
}

func TestPrepare_StableAndPure(t *testing.T) {
	norm := event.Normalizer{Year: 2025, Location: brt}
	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, brt)
	input := []event.Event{
		{Title: "B1", Date: "12/01/2025", Location: "L", Type: "T"},
		{Title: "A", Date: "05/01/2025", Location: "L", Type: "T"},
		{Title: "B2", Date: "Domingo, 12 de Jan", Location: "L", Type: "T"},
		{Title: "B3", Date: "12/1/2025", Location: "L", Type: "T"},
	}
	before := titles(input)

	got, rejected := Prepare(input, norm, cutoff)

	if rejected != 0 {
		t.Errorf("rejected = %d, want 0", rejected)
	}
	if want := []string{"A", "B1", "B2", "B3"}; !equalTitles(titles(got), want) {
		t.Errorf("Prepare() = %v, want %v", titles(got), want)
	}
	if !equalTitles(titles(input), before) {
		t.Errorf("input reordered: %v", titles(input))
	}
	for _, e := range input {
		if !e.At.IsZero() {
			t.Errorf("input event %q was modified", e.Title)
		}
	}
}

func TestParseCutoff(t *testing.T) {
	tests := []struct {
		in      string
		want    CutoffPolicy
		wantErr bool
	}{
		{"", CutoffGrace, false},
		{"grace", CutoffGrace, false},
		{" Strict ", CutoffStrict, false},
		{"never", CutoffGrace, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCutoff(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCutoff(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCutoff(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCutoffPolicy_Boundary(t *testing.T) {
	// 01:30 UTC on the 10th is still the 9th in BRT.
	now := time.Date(2025, 1, 10, 1, 30, 0, 0, time.UTC)

	if got, want := CutoffStrict.Boundary(now, brt), time.Date(2025, 1, 9, 0, 0, 0, 0, brt); !got.Equal(want) {
		t.Errorf("strict Boundary() = %v, want %v", got, want)
	}
	if got, want := CutoffGrace.Boundary(now, brt), time.Date(2025, 1, 8, 0, 0, 0, 0, brt); !got.Equal(want) {
		t.Errorf("grace Boundary() = %v, want %v", got, want)
	}
}

func TestOutcome_String(t *testing.T) {
	tests := []struct {
		o    Outcome
		want string
	}{
		{LiveSuccess, "live"},
		{FallbackSuccess, "fallback"},
		{FallbackFailure, "fallback_failure"},
		{Outcome(9), "outcome(9)"},
	}
	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(tt.o), got, tt.want)
		}
	}
}

func TestPipeline_FetchAll(t *testing.T) {
	src := &fakeSource{rows: [][]string{
		header,
		{"Late", "20/01/2025", "", "L", "Música", "", ""},
		{"Undated", "em breve", "", "L", "Feira", "", ""},
		{"Past", "02/01/2025", "", "L", "Teatro", "", ""},
		{"", "03/01/2025", "", "L", "Teatro", "", ""},
		{"Short"},
	}}
	var buf bytes.Buffer
	p := newPipeline(src, &fakeSnapshot{}, &buf)

	got, err := p.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if want := []string{"Past", "Late", "Undated"}; !equalTitles(titles(got), want) {
		t.Errorf("FetchAll() = %v, want %v", titles(got), want)
	}

	p.Source = &fakeSource{err: errors.New("connection reset")}
	if _, err := p.FetchAll(context.Background()); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("FetchAll() error = %v, want ErrSourceUnavailable", err)
	}
}
