// Package services defines the lead-capture business flow. This file holds
// the service-level error types so handlers can map them to HTTP results
// consistently.
package services

import "errors"

// ErrNoStore is returned when a LeadService has no LeadStore configured.
var ErrNoStore = errors.New("lead store not configured")

// StoreWriteError reports a failed lead insert. Error() is the underlying
// store message unchanged; handlers expose it to callers as-is.
type StoreWriteError struct {
	Store string
	Err   error
}

func (e *StoreWriteError) Error() string {
	if e.Err == nil {
		return "store write failed"
	}
	return e.Err.Error()
}

func (e *StoreWriteError) Unwrap() error { return e.Err }
