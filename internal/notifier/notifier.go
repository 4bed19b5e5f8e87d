package notifier

import (
	"github.com/itantech/napista/internal/event"
)

// Notifier defines the interface for posting event notifications
type Notifier interface {
	// Notify posts notifications for the given events
	Notify(events []event.Event) error
}

// PartialError is returned by a Notifier that stopped partway through a
// batch. The first Sent events were delivered.
type PartialError struct {
	Sent int
	Err  error
}

func (e *PartialError) Error() string { return e.Err.Error() }

func (e *PartialError) Unwrap() error { return e.Err }
