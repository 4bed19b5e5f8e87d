package web

import (
	"net/http"
	"time"

	"github.com/itantech/napista/internal/calendar"
	"github.com/itantech/napista/internal/event"
	"github.com/itantech/napista/internal/filter"
	"github.com/itantech/napista/internal/logger"
)

type eventsResponse struct {
	Events   []event.Event   `json:"events"`
	Count    int             `json:"count"`
	Criteria filter.Criteria `json:"criteria"`
}

type typesResponse struct {
	Types []string `json:"types"`
}

type statusResponse struct {
	Outcome       string                 `json:"outcome"`
	LoadedAt      *time.Time             `json:"loaded_at,omitempty"`
	Events        int                    `json:"events"`
	Dropped       int                    `json:"rows_dropped"`
	Rejected      int                    `json:"dates_rejected"`
	LiveError     string                 `json:"live_error,omitempty"`
	SnapshotError string                 `json:"snapshot_error,omitempty"`
	Metrics       map[string]interface{} `json:"metrics"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	res := s.Current()
	c := criteriaFrom(r)
	events := s.engine(res).Apply(res.Events, c)

	logger.Debug("Events requested", logger.Fields{"criteria": c.String(), "count": len(events)})
	writeJSON(w, http.StatusOK, eventsResponse{Events: events, Count: len(events), Criteria: c})
}

func (s *Server) handleTypes(w http.ResponseWriter, _ *http.Request) {
	res := s.Current()
	writeJSON(w, http.StatusOK, typesResponse{Types: s.engine(res).Types(res.Events)})
}

func (s *Server) handlePicks(w http.ResponseWriter, _ *http.Request) {
	res := s.Current()
	picks := s.engine(res).Picks(res.Events, s.opts.Priority, s.opts.PicksSize)
	writeJSON(w, http.StatusOK, eventsResponse{Events: picks, Count: len(picks)})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	res := s.Current()
	status := statusResponse{
		Outcome:  res.Outcome.String(),
		Events:   len(res.Events),
		Dropped:  res.Dropped,
		Rejected: res.Rejected,
		Metrics:  logger.GetMetricsSnapshot(),
	}
	if !s.loaded() {
		status.Outcome = "pending"
	}
	if !res.LoadedAt.IsZero() {
		t := res.LoadedAt
		status.LoadedAt = &t
	}
	if res.LiveErr != nil {
		status.LiveError = res.LiveErr.Error()
	}
	if res.SnapshotErr != nil {
		status.SnapshotError = res.SnapshotErr.Error()
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	res := s.Current()
	engine := s.engine(res)
	events := engine.Apply(res.Events, criteriaFrom(r))

	body, _ := calendar.GenerateICS(events, calendar.Options{Normalizer: engine.Normalizer})

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="napista.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
