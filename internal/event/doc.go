// Package event provides the cultural event record and its date handling.
//
// Events come from a spreadsheet with seven positional columns and carry their
// date as text in one of two shapes: a Portuguese named-weekday form without a
// year ("Domingo, 05 de Jan") or a slash-numeric form ("12/01/2025"). The
// Normalizer turns either shape into local midnight of the denoted day so that
// events can be ordered and compared against a cutoff.
package event
