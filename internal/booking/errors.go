// Package booking implements the booking-request lifecycle: reserving
// date slots against a listing, accepting or declining requests, and
// keeping the listing's availability pool and notification state
// consistent while doing so.
package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/ridehive/ridehive-api/internal/model"
)

// Client-input errors: a referenced entity is absent.  Handlers
// translate these into 4xx responses; they are never retried.
var (
	// ErrUnknownUser means the requester id does not reference an
	// existing active user.
	ErrUnknownUser = errors.New("user does not exist")
	// ErrUnknownListing means the listing id does not reference an
	// existing listing.
	ErrUnknownListing = errors.New("listing does not exist")
	// ErrUnknownRequest means the request id does not reference an
	// existing booking request.
	ErrUnknownRequest = errors.New("booking request does not exist")
)

// Business-rule violations.  Surfaced verbatim to the caller with the
// offending detail when known.
var (
	// ErrListingUnavailable means the listing has no open slots at all.
	ErrListingUnavailable = errors.New("listing is not available for booking")
	// ErrNoDatesSelected means the requested dates collapsed to an
	// empty set after normalization.
	ErrNoDatesSelected = errors.New("at least one date must be selected")
	// ErrNotListingOwner means the caller tried to resolve a request on
	// a listing published by somebody else.
	ErrNotListingOwner = errors.New("request targets a listing owned by another user")
)

// ErrOrphanedRequest signals a request referencing a vanished listing.
// This is an internal invariant violation: it is logged as a defect
// server-side and surfaced to the caller as a generic failure.
var ErrOrphanedRequest = errors.New("request references a listing that no longer exists")

// ErrTxRetriesExhausted wraps a storage-level conflict that survived
// the bounded retry loop.  Handlers surface it as a transient server
// error; no partial state was committed, so the caller may retry the
// whole operation safely.
var ErrTxRetriesExhausted = errors.New("transaction retries exhausted")

// DateNotAvailableError reports the first requested date that is not
// in the listing's open slot pool.
type DateNotAvailableError struct {
	Date time.Time
}

func (e *DateNotAvailableError) Error() string {
	return fmt.Sprintf("date %s is not available for booking", e.Date.Format("2006-01-02"))
}

// DateConflictError reports the first requested date already claimed
// by another pending or approved request on the same listing.
type DateConflictError struct {
	Date time.Time
}

func (e *DateConflictError) Error() string {
	return fmt.Sprintf("date %s overlaps with an existing booking", e.Date.Format("2006-01-02"))
}

// AlreadyResolvedError is returned when accepting or declining a
// request that is no longer pending.  Status carries the state the
// request is currently in.
type AlreadyResolvedError struct {
	Status model.RequestStatus
}

func (e *AlreadyResolvedError) Error() string {
	return fmt.Sprintf("request is already %s", e.Status)
}
