// Package notifier announces agenda events outside the process.
//
// A Notifier receives each freshly loaded event set. PicksNotifier narrows
// that set to the curator's picks not announced before and forwards them to
// Twitter, or to a DryRunNotifier that only prints the messages.
package notifier
