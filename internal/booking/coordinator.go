package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ridehive/ridehive-api/internal/model"
	"github.com/ridehive/ridehive-api/internal/queue"
	"github.com/ridehive/ridehive-api/internal/repository"
)

// Publisher emits a booking event to the message broker.  Publishing
// happens after commit and is best-effort: a broker outage never rolls
// back a booking.
type Publisher func(ctx context.Context, ev queue.BookingEvent) error

// maxTxRetries bounds how often a deadlocked or lock-timed-out
// transaction is re-run with the same inputs before giving up.  Retry
// is safe because a failed attempt commits nothing.
const maxTxRetries = 3

// Coordinator owns the booking-request lifecycle.  Every public
// operation runs as one database transaction: the listing row is
// locked with SELECT ... FOR UPDATE, state is read and validated, and
// the request, slot and notification writes commit together or not at
// all.  Operations on the same listing therefore serialize; operations
// on different listings never block each other.
type Coordinator struct {
	db            *sql.DB
	users         *repository.UserRepo
	cars          *repository.CarRepo
	listings      *repository.ListingRepo
	requests      *repository.BookingRequestRepo
	notifications *repository.NotificationRepo
	publish       Publisher // may be nil; events are then skipped
}

// NewCoordinator constructs a Coordinator.  All repositories must be
// non-nil and bound to the same database as db; publish may be nil to
// disable event publishing.
func NewCoordinator(db *sql.DB, users *repository.UserRepo, cars *repository.CarRepo, listings *repository.ListingRepo, requests *repository.BookingRequestRepo, notifications *repository.NotificationRepo, publish Publisher) *Coordinator {
	if db == nil || users == nil || cars == nil || listings == nil || requests == nil || notifications == nil {
		panic("nil dependency passed to NewCoordinator")
	}
	return &Coordinator{
		db:            db,
		users:         users,
		cars:          cars,
		listings:      listings,
		requests:      requests,
		notifications: notifications,
		publish:       publish,
	}
}

// CreateRequest validates and persists a new booking request for the
// given client against a listing, removing the requested dates from
// the listing's open slot pool and notifying the owner.  Validation is
// fail-fast and side-effect free: the request only exists if every
// check passed and the whole unit committed.
func (c *Coordinator) CreateRequest(ctx context.Context, requesterID, listingID uint64, dates []time.Time) (*model.BookingRequest, error) {
	ok, err := c.users.Exists(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnknownUser
	}

	var created *model.BookingRequest
	err = c.withRetry(ctx, func(tx *sql.Tx, emit emitFunc) error {
		listing, err := c.listings.GetByIDForUpdateTx(ctx, tx, listingID)
		if err != nil {
			if errors.Is(err, repository.ErrListingNotFound) {
				return ErrUnknownListing
			}
			return err
		}
		if !listing.IsAvailable {
			return ErrListingUnavailable
		}

		requested := NormalizeDates(dates)
		if len(requested) == 0 {
			return ErrNoDatesSelected
		}

		slots, err := c.listings.SlotsTx(ctx, tx, listingID)
		if err != nil {
			return err
		}
		open := dateSet(slots)
		for _, d := range requested {
			if _, ok := open[d]; !ok {
				return &DateNotAvailableError{Date: d}
			}
		}

		// Defence in depth: the slot pool is the source of truth, but a
		// date claimed by another live request must never slip through
		// even if a prior resolution left the pool inconsistent.
		claimed, err := c.requests.LiveDatesByListingTx(ctx, tx, listingID)
		if err != nil {
			return err
		}
		for _, d := range requested {
			if _, ok := claimed[d]; ok {
				return &DateConflictError{Date: d}
			}
		}

		rec := &repository.BookingRequestRecord{
			RequesterID:    requesterID,
			ListingID:      listingID,
			Status:         string(model.StatusPending),
			RequestedDates: requested,
		}
		if err := c.requests.CreateTx(ctx, tx, rec); err != nil {
			return err
		}
		if err := c.listings.RemoveSlotsTx(ctx, tx, listingID, requested); err != nil {
			return err
		}
		remaining, err := c.listings.CountSlotsTx(ctx, tx, listingID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			if err := c.listings.SetAvailabilityTx(ctx, tx, listingID, false); err != nil {
				return err
			}
			log.Printf("booking: listing %d marked unavailable - no open slots left", listingID)
		}

		requesterName, err := c.users.FullNameTx(ctx, tx, requesterID)
		if err != nil {
			return err
		}
		brand, carModel, err := c.cars.SummaryTx(ctx, tx, listing.CarID)
		if err != nil {
			return err
		}
		note := &repository.NotificationRecord{
			RecipientID: listing.OwnerID,
			Kind:        string(model.KindBookingRequest),
			RequestID:   rec.ID,
			ListingID:   listingID,
			Title:       "New booking request",
			Message:     fmt.Sprintf("%s wants to book your %s %s", requesterName, brand, carModel),
		}
		if err := c.notifications.CreateTx(ctx, tx, note); err != nil {
			return err
		}

		created = &model.BookingRequest{
			ID:             rec.ID,
			RequesterID:    rec.RequesterID,
			ListingID:      rec.ListingID,
			Status:         model.RequestStatus(rec.Status),
			RequestedDates: rec.RequestedDates,
			CreatedAt:      rec.CreatedAt,
			UpdatedAt:      rec.UpdatedAt,
		}
		emit(queue.BookingEvent{
			Event:       queue.EventRequestCreated,
			RequestID:   rec.ID,
			ListingID:   listingID,
			RequesterID: requesterID,
			OwnerID:     listing.OwnerID,
			CarBrand:    brand,
			CarModel:    carModel,
			Dates:       formatDates(requested),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("booking: request %d created for listing %d (%d dates reserved)",
		created.ID, listingID, len(created.RequestedDates))
	return created, nil
}

// AcceptRequest transitions a pending request to APPROVED on behalf of
// ownerID, who must own the target listing.  The reserved dates stay
// out of the listing's slot pool; the requester is notified and the
// owner's now-answered booking_request prompt is deleted.
func (c *Coordinator) AcceptRequest(ctx context.Context, ownerID, requestID uint64) error {
	return c.resolve(ctx, ownerID, requestID, model.StatusApproved)
}

// DeclineRequest transitions a pending request to REJECTED on behalf
// of ownerID, who must own the target listing, and unions its dates
// back into the listing's slot pool.  A decline always leaves at least
// the restored dates bookable, so is_available is set unconditionally.
// The requester is notified and the owner's prompt is deleted.
func (c *Coordinator) DeclineRequest(ctx context.Context, ownerID, requestID uint64) error {
	return c.resolve(ctx, ownerID, requestID, model.StatusRejected)
}

// resolve implements the shared accept/decline transition.  target
// must be StatusApproved or StatusRejected.
func (c *Coordinator) resolve(ctx context.Context, ownerID, requestID uint64, target model.RequestStatus) error {
	return c.withRetry(ctx, func(tx *sql.Tx, emit emitFunc) error {
		rec, err := c.requests.GetByIDForUpdateTx(ctx, tx, requestID)
		if err != nil {
			if errors.Is(err, repository.ErrRequestNotFound) {
				return ErrUnknownRequest
			}
			return err
		}
		if model.RequestStatus(rec.Status) != model.StatusPending {
			return &AlreadyResolvedError{Status: model.RequestStatus(rec.Status)}
		}

		listing, err := c.listings.GetByIDForUpdateTx(ctx, tx, rec.ListingID)
		if err != nil {
			if errors.Is(err, repository.ErrListingNotFound) {
				log.Printf("booking: DEFECT request %d references missing listing %d", requestID, rec.ListingID)
				return ErrOrphanedRequest
			}
			return err
		}
		// Ownership is checked under the listing lock so it cannot race
		// with a transfer or deletion of the listing.
		if listing.OwnerID != ownerID {
			return ErrNotListingOwner
		}

		if err := c.requests.UpdateStatusTx(ctx, tx, requestID, string(target)); err != nil {
			return err
		}

		event := queue.EventRequestAccepted
		kind := model.KindBookingAccepted
		title := "Booking Accepted!"
		verb := "accepted"
		if target == model.StatusRejected {
			// Union the request's dates back into the pool; dates already
			// present are idempotent no-ops.  The restored dates make the
			// listing bookable again by definition.
			if err := c.listings.RestoreSlotsTx(ctx, tx, rec.ListingID, rec.RequestedDates); err != nil {
				return err
			}
			if err := c.listings.SetAvailabilityTx(ctx, tx, rec.ListingID, true); err != nil {
				return err
			}
			event = queue.EventRequestDeclined
			kind = model.KindBookingRejected
			title = "Booking Declined"
			verb = "declined"
		}

		ownerName, err := c.users.FullNameTx(ctx, tx, listing.OwnerID)
		if err != nil {
			return err
		}
		brand, carModel, err := c.cars.SummaryTx(ctx, tx, listing.CarID)
		if err != nil {
			return err
		}
		note := &repository.NotificationRecord{
			RecipientID: rec.RequesterID,
			Kind:        string(kind),
			RequestID:   requestID,
			ListingID:   rec.ListingID,
			Title:       title,
			Message:     fmt.Sprintf("%s %s your booking request for %s %s", ownerName, verb, brand, carModel),
		}
		if err := c.notifications.CreateTx(ctx, tx, note); err != nil {
			return err
		}

		removed, err := c.notifications.DeleteByRequestAndKindTx(ctx, tx, requestID, model.KindBookingRequest)
		if err != nil {
			return err
		}
		if removed == 0 {
			log.Printf("booking: no booking_request notifications found for request %d", requestID)
		} else {
			log.Printf("booking: removed %d notification(s) for request %d", removed, requestID)
		}

		emit(queue.BookingEvent{
			Event:       event,
			RequestID:   requestID,
			ListingID:   rec.ListingID,
			RequesterID: rec.RequesterID,
			OwnerID:     listing.OwnerID,
			CarBrand:    brand,
			CarModel:    carModel,
			Dates:       formatDates(rec.RequestedDates),
		})
		return nil
	})
}

// emitFunc queues a booking event for publication once the
// surrounding transaction commits.  Events from rolled-back attempts
// are discarded with the transaction.
type emitFunc func(ev queue.BookingEvent)

// withRetry runs fn inside a transaction, retrying the whole unit a
// bounded number of times when MySQL reports a deadlock (1213) or a
// lock wait timeout (1205).  Any other error rolls back and returns
// immediately.  A retryable error that survives every attempt is
// wrapped in ErrTxRetriesExhausted so callers surface it as transient.
func (c *Coordinator) withRetry(ctx context.Context, fn func(tx *sql.Tx, emit emitFunc) error) error {
	var last error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		if attempt > 0 {
			// Brief backoff before re-running a conflicted transaction.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
			}
		}
		err := c.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		log.Printf("booking: transaction conflict (attempt %d/%d): %v", attempt+1, maxTxRetries, err)
		last = err
	}
	return fmt.Errorf("%w: %v", ErrTxRetriesExhausted, last)
}

func (c *Coordinator) runTx(ctx context.Context, fn func(tx *sql.Tx, emit emitFunc) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var pending []queue.BookingEvent
	emit := func(ev queue.BookingEvent) {
		ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
		pending = append(pending, ev)
	}
	if err := fn(tx, emit); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	// Publish only after the unit committed.  Publish failures are
	// logged and dropped; the booking already committed and must not
	// be affected.
	if c.publish != nil {
		for _, ev := range pending {
			if err := c.publish(ctx, ev); err != nil {
				log.Printf("booking: publish %s event for request %d failed: %v", ev.Event, ev.RequestID, err)
			}
		}
	}
	return nil
}

// isRetryable classifies MySQL deadlocks and lock wait timeouts.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "1213") || strings.Contains(msg, "1205")
}

func formatDates(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.UTC().Format("2006-01-02"))
	}
	return out
}
