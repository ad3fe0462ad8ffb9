package model

import "time"

// RequestStatus is the lifecycle state of a booking request as stored
// in the requests.status column.  Only PENDING, APPROVED and REJECTED
// are driven by the booking coordinator; the remaining states exist
// for the broader system (client cancellation, completion and expiry
// jobs) and are never produced by the core transitions.
type RequestStatus string

const (
	StatusPending   RequestStatus = "PENDING"
	StatusApproved  RequestStatus = "APPROVED"
	StatusRejected  RequestStatus = "REJECTED"
	StatusCancelled RequestStatus = "CANCELLED"
	StatusCompleted RequestStatus = "COMPLETED"
	StatusExpired   RequestStatus = "EXPIRED"
)

// Valid reports whether s is one of the known request statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted, StatusExpired:
		return true
	}
	return false
}

// Live reports whether a request in this status still claims its
// dates.  Dates held by a PENDING or APPROVED request cannot be taken
// by another request on the same listing.
func (s RequestStatus) Live() bool {
	return s == StatusPending || s == StatusApproved
}

// BookingRequest records a client's ask to reserve a subset of a
// listing's available dates, as stored in the `requests` table.  The
// requested dates themselves live in the request_dates table, one row
// per calendar date, deduplicated and truncated to midnight UTC on
// creation.
//
// Fields:
//  ID             – primary key identifier.
//  RequesterID    – client who placed the request.
//  ListingID      – listing being booked.
//  Status         – lifecycle state (RequestStatus).
//  RequestedDates – calendar dates claimed by the request, sorted ascending.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – timestamp of last update.
type BookingRequest struct {
	ID             uint64        // requests.id
	RequesterID    uint64        // requests.requester_id
	ListingID      uint64        // requests.listing_id
	Status         RequestStatus // requests.status
	RequestedDates []time.Time   // request_dates.request_date rows
	CreatedAt      time.Time     // requests.created_at
	UpdatedAt      time.Time     // requests.updated_at
}
