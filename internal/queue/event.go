// Package queue defines message payloads exchanged over the message broker.
package queue

// Booking event names published to the booking.events queue.
const (
	EventRequestCreated  = "request_created"
	EventRequestAccepted = "request_accepted"
	EventRequestDeclined = "request_declined"
)

// BookingEvent is published whenever a booking request is created,
// accepted or declined.  It contains enough information for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database.
type BookingEvent struct {
	Event       string   `json:"event"`
	RequestID   uint64   `json:"request_id"`
	ListingID   uint64   `json:"listing_id"`
	RequesterID uint64   `json:"requester_id"`
	OwnerID     uint64   `json:"owner_id"`
	CarBrand    string   `json:"car_brand"`
	CarModel    string   `json:"car_model"`
	Dates       []string `json:"dates"` // calendar dates, YYYY-MM-DD
	OccurredAt  string   `json:"occurred_at"`
}
