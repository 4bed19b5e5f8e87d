package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/itantech/napista/internal/event"
	"github.com/itantech/napista/internal/filter"
	"github.com/itantech/napista/internal/ingest"
	"github.com/itantech/napista/internal/logger"
)

// Loader runs one ingestion. *ingest.Pipeline implements it.
type Loader interface {
	Run(ctx context.Context) *ingest.Result
}

// SnapshotWriter persists a freshly loaded event set.
type SnapshotWriter interface {
	Save(events []event.Event) error
}

// Options configures a Server.
type Options struct {
	Location  *time.Location
	Priority  []string
	PicksSize int
	// Snapshot, when set, receives every live result.
	Snapshot SnapshotWriter
}

// Server exposes the current event set over HTTP.
type Server struct {
	loader Loader
	opts   Options
	mux    *http.ServeMux

	mu      sync.RWMutex
	current *ingest.Result
}

// NewServer constructs a Server. It holds an empty set until Refresh runs.
func NewServer(loader Loader, opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	s := &Server{
		loader: loader,
		opts:   opts,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Refresh runs the loader and swaps in its result.
func (s *Server) Refresh(ctx context.Context) *ingest.Result {
	res := s.loader.Run(ctx)

	s.mu.Lock()
	s.current = res
	s.mu.Unlock()

	if res.Outcome == ingest.LiveSuccess && s.opts.Snapshot != nil {
		if err := s.opts.Snapshot.Save(res.Events); err != nil {
			logger.Error("Failed to refresh snapshot", nil, err)
		} else {
			logger.Debug("Snapshot refreshed", logger.Fields{"events": len(res.Events)})
		}
	}

	return res
}

// Current returns the latest result, or an empty one before the first refresh.
func (s *Server) Current() *ingest.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return &ingest.Result{Events: []event.Event{}, Outcome: ingest.FallbackFailure}
	}
	return s.current
}

func (s *Server) loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// Schedule starts a cron scheduler that refreshes on spec. Runs that would
// overlap a refresh still in progress are skipped. Stop the returned cron to
// end the schedule.
func (s *Server) Schedule(ctx context.Context, spec string) (*cron.Cron, error) {
	cl := cronLogger{}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	_, err := c.AddFunc(spec, func() {
		res := s.Refresh(ctx)
		logger.Info("Scheduled refresh finished", logger.Fields{
			"outcome": res.Outcome.String(),
			"events":  len(res.Events),
		})
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", logger.Fields{"listen": "http://" + addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", getOnly(s.handleEvents))
	s.mux.HandleFunc("/api/types", getOnly(s.handleTypes))
	s.mux.HandleFunc("/api/picks", getOnly(s.handlePicks))
	s.mux.HandleFunc("/api/status", getOnly(s.handleStatus))
	s.mux.HandleFunc("/events.ics", getOnly(s.handleICS))
}

func (s *Server) engine(res *ingest.Result) filter.Engine {
	ref := res.LoadedAt
	if ref.IsZero() {
		ref = time.Now()
	}
	return filter.Engine{Normalizer: event.NewNormalizer(ref, s.opts.Location)}
}

func criteriaFrom(r *http.Request) filter.Criteria {
	q := r.URL.Query()
	return filter.Criteria{
		Search:   q.Get("q"),
		Date:     q.Get("date"),
		Type:     q.Get("type"),
		Location: q.Get("location"),
	}
}

func getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to write JSON response", nil, err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// cronLogger routes scheduler messages to the structured logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, kvFields(keysAndValues))
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, kvFields(keysAndValues), err)
}

func kvFields(kv []interface{}) logger.Fields {
	if len(kv) == 0 {
		return nil
	}
	fields := make(logger.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			fields[k] = kv[i+1]
		}
	}
	return fields
}
