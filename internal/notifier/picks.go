package notifier

import (
	"errors"
	"sync"

	"github.com/itantech/napista/internal/event"
	"github.com/itantech/napista/internal/filter"
	"github.com/itantech/napista/internal/logger"
)

// PicksNotifier forwards the curator's picks of each loaded set to Next.
// Picks already forwarded are not repeated while the process runs.
type PicksNotifier struct {
	Next     Notifier
	Engine   filter.Engine
	Priority []string
	Size     int

	mu       sync.Mutex
	notified map[string]bool
}

// Notify computes the picks of events and forwards the ones not seen before.
func (p *PicksNotifier) Notify(events []event.Event) error {
	picks := p.Engine.Picks(events, p.Priority, p.Size)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.notified == nil {
		p.notified = make(map[string]bool)
	}

	var fresh []event.Event
	for _, evt := range picks {
		if !p.notified[evt.Key()] {
			fresh = append(fresh, evt)
		}
	}
	if len(fresh) == 0 {
		logger.Debug("No new picks to announce", logger.Fields{"picks": len(picks)})
		return nil
	}

	if err := p.Next.Notify(fresh); err != nil {
		var partial *PartialError
		if errors.As(err, &partial) && partial.Sent > 0 {
			sent := fresh[:min(partial.Sent, len(fresh))]
			p.markNotified(sent)
			logger.AddCounter("notifier.posts", int64(len(sent)))
			logger.Warn("Picks announced partially", logger.Fields{
				"sent":  len(sent),
				"total": len(fresh),
				"error": err.Error(),
			})
		}
		return err
	}
	p.markNotified(fresh)

	logger.Info("Announced picks", logger.Fields{"count": len(fresh)})
	logger.AddCounter("notifier.posts", int64(len(fresh)))
	return nil
}

func (p *PicksNotifier) markNotified(events []event.Event) {
	for _, evt := range events {
		p.notified[evt.Key()] = true
	}
}
