package model

import "time"

// NotificationKind is the closed set of notification types produced
// by the booking flow.  Modelling the kind as a distinct type (rather
// than a free string column) keeps the cleanup logic on request
// resolution exhaustive: there is exactly one kind that becomes stale
// when a request leaves PENDING.
type NotificationKind string

const (
	// KindBookingRequest is addressed to a listing owner when a client
	// places a new booking request.  These are deleted outright (not
	// marked read) once the request is accepted or declined.
	KindBookingRequest NotificationKind = "booking_request"
	// KindBookingAccepted is addressed to the requester when the owner
	// accepts the request.
	KindBookingAccepted NotificationKind = "booking_accepted"
	// KindBookingRejected is addressed to the requester when the owner
	// declines the request.
	KindBookingRejected NotificationKind = "booking_rejected"
)

// Valid reports whether k is one of the known notification kinds.
func (k NotificationKind) Valid() bool {
	switch k {
	case KindBookingRequest, KindBookingAccepted, KindBookingRejected:
		return true
	}
	return false
}

// Notification is an in-app message row from the `notifications`
// table.  Notifications are written in the same transaction as the
// booking state change they announce, so a committed request always
// has its matching notification and vice versa.
//
// Fields:
//  ID          – primary key identifier.
//  RecipientID – user who receives the notification.
//  Kind        – one of the NotificationKind values.
//  RequestID   – booking request this notification refers to.
//  ListingID   – listing the request targets.
//  Title       – short headline shown in the inbox.
//  Message     – human readable body.
//  IsRead      – whether the recipient has opened it.
//  CreatedAt   – creation timestamp.
type Notification struct {
	ID          uint64           // notifications.id
	RecipientID uint64           // notifications.recipient_id
	Kind        NotificationKind // notifications.kind
	RequestID   uint64           // notifications.request_id
	ListingID   uint64           // notifications.listing_id
	Title       string           // notifications.title
	Message     string           // notifications.message
	IsRead      bool             // notifications.is_read
	CreatedAt   time.Time        // notifications.created_at
}
