package booking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridehive/ridehive-api/internal/model"
	"github.com/ridehive/ridehive-api/internal/queue"
	"github.com/ridehive/ridehive-api/internal/repository"
)

const (
	testRequesterID = uint64(7)
	testOwnerID     = uint64(3)
	testListingID   = uint64(11)
	testCarID       = uint64(5)
	testRequestID   = uint64(42)
)

// coordFixture bundles the coordinator under test with its sqlmock and
// the events captured by the stub publisher.
type coordFixture struct {
	coord  *Coordinator
	mock   sqlmock.Sqlmock
	events *[]queue.BookingEvent
}

func newCoordFixture(t *testing.T) coordFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	events := &[]queue.BookingEvent{}
	publish := func(ctx context.Context, ev queue.BookingEvent) error {
		*events = append(*events, ev)
		return nil
	}
	coord := NewCoordinator(
		db,
		repository.NewUserRepo(db),
		repository.NewCarRepo(db),
		repository.NewListingRepo(db),
		repository.NewBookingRequestRepo(db),
		repository.NewNotificationRepo(db),
		publish,
	)
	return coordFixture{coord: coord, mock: mock, events: events}
}

func (f coordFixture) expectUserExists() {
	f.mock.ExpectQuery("SELECT 1 FROM users").
		WithArgs(testRequesterID).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
}

func listingRows(available bool) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "owner_id", "car_id", "title", "description", "price_cents", "location", "is_available", "posted_at", "updated_at",
	}).AddRow(testListingID, testOwnerID, testCarID, "City runabout", nil, 4500, "Berlin", available, now, now)
}

func (f coordFixture) expectListingLock(available bool) {
	f.mock.ExpectQuery(`FROM listings WHERE id = \? FOR UPDATE`).
		WithArgs(testListingID).
		WillReturnRows(listingRows(available))
}

func (f coordFixture) expectSlots(dates ...time.Time) {
	rows := sqlmock.NewRows([]string{"slot_date"})
	for _, d := range dates {
		rows.AddRow(d)
	}
	f.mock.ExpectQuery("SELECT slot_date FROM listing_slots").
		WithArgs(testListingID).
		WillReturnRows(rows)
}

func (f coordFixture) expectLiveDates(claimed map[time.Time]uint64) {
	rows := sqlmock.NewRows([]string{"request_date", "id"})
	for d, id := range claimed {
		rows.AddRow(d, id)
	}
	f.mock.ExpectQuery(`SELECT rd.request_date, rq.id`).
		WithArgs(testListingID).
		WillReturnRows(rows)
}

func (f coordFixture) expectRequestInsert(dates []time.Time) {
	f.mock.ExpectExec(`INSERT INTO requests \(requester_id, listing_id, status\)`).
		WithArgs(testRequesterID, testListingID, "PENDING").
		WillReturnResult(sqlmock.NewResult(int64(testRequestID), 1))
	f.mock.ExpectExec("INSERT INTO request_dates").
		WillReturnResult(sqlmock.NewResult(1, int64(len(dates))))
	now := time.Now().UTC()
	f.mock.ExpectQuery("SELECT id, requester_id, listing_id, status, created_at, updated_at FROM requests").
		WithArgs(testRequestID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "requester_id", "listing_id", "status", "created_at", "updated_at"}).
			AddRow(testRequestID, testRequesterID, testListingID, "PENDING", now, now))
}

func (f coordFixture) expectNames() {
	f.mock.ExpectQuery("SELECT full_name FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"full_name"}).AddRow("Alex Meyer"))
	f.mock.ExpectQuery("SELECT brand, model FROM cars").
		WithArgs(testCarID).
		WillReturnRows(sqlmock.NewRows([]string{"brand", "model"}).AddRow("Toyota", "Corolla"))
}

func TestCreateRequest(t *testing.T) {
	d1 := day(2025, 6, 10)
	d2 := day(2025, 6, 11)
	d3 := day(2025, 6, 12)

	t.Run("reserves dates and notifies the owner", func(t *testing.T) {
		f := newCoordFixture(t)
		f.expectUserExists()
		f.mock.ExpectBegin()
		f.expectListingLock(true)
		f.expectSlots(d1, d2, d3)
		f.expectLiveDates(nil)
		f.expectRequestInsert([]time.Time{d1, d2})
		f.mock.ExpectExec("DELETE FROM listing_slots").
			WillReturnResult(sqlmock.NewResult(0, 2))
		f.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM listing_slots`).
			WithArgs(testListingID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		f.expectNames()
		f.mock.ExpectExec("INSERT INTO notifications").
			WithArgs(testOwnerID, "booking_request", testRequestID, testListingID, "New booking request",
				"Alex Meyer wants to book your Toyota Corolla").
			WillReturnResult(sqlmock.NewResult(9, 1))
		f.mock.ExpectCommit()

		req, err := f.coord.CreateRequest(context.Background(), testRequesterID, testListingID, []time.Time{d2, d1})
		require.NoError(t, err)
		assert.Equal(t, testRequestID, req.ID)
		assert.Equal(t, model.StatusPending, req.Status)

		require.Len(t, *f.events, 1)
		ev := (*f.events)[0]
		assert.Equal(t, queue.EventRequestCreated, ev.Event)
		assert.Equal(t, []string{"2025-06-10", "2025-06-11"}, ev.Dates)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("marks the listing unavailable when the last slot is taken", func(t *testing.T) {
		f := newCoordFixture(t)
		f.expectUserExists()
		f.mock.ExpectBegin()
		f.expectListingLock(true)
		f.expectSlots(d1)
		f.expectLiveDates(nil)
		f.expectRequestInsert([]time.Time{d1})
		f.mock.ExpectExec("DELETE FROM listing_slots").
			WillReturnResult(sqlmock.NewResult(0, 1))
		f.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM listing_slots`).
			WithArgs(testListingID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		f.mock.ExpectExec("UPDATE listings SET is_available").
			WithArgs(false, testListingID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		f.expectNames()
		f.mock.ExpectExec("INSERT INTO notifications").
			WillReturnResult(sqlmock.NewResult(9, 1))
		f.mock.ExpectCommit()

		_, err := f.coord.CreateRequest(context.Background(), testRequesterID, testListingID, []time.Time{d1})
		require.NoError(t, err)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("rejects an unknown requester", func(t *testing.T) {
		f := newCoordFixture(t)
		f.mock.ExpectQuery("SELECT 1 FROM users").
			WithArgs(testRequesterID).
			WillReturnRows(sqlmock.NewRows([]string{"1"}))

		_, err := f.coord.CreateRequest(context.Background(), testRequesterID, testListingID, []time.Time{d1})
		assert.ErrorIs(t, err, ErrUnknownUser)
		assert.Empty(t, *f.events)
	})

	t.Run("rejects an unknown listing", func(t *testing.T) {
		f := newCoordFixture(t)
		f.expectUserExists()
		f.mock.ExpectBegin()
		// A missing row surfaces as sql.ErrNoRows from the driver.
		f.mock.ExpectQuery(`FROM listings WHERE id = \? FOR UPDATE`).
			WithArgs(testListingID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		f.mock.ExpectRollback()

		_, err := f.coord.CreateRequest(context.Background(), testRequesterID, testListingID, []time.Time{d1})
		assert.ErrorIs(t, err, ErrUnknownListing)
		assert.Empty(t, *f.events)
	})

	t.Run("rejects a listing without open slots", func(t *testing.T) {
		f := newCoordFixture(t)
		f.expectUserExists()
		f.mock.ExpectBegin()
		f.expectListingLock(false)
		f.mock.ExpectRollback()

		_, err := f.coord.CreateRequest(context.Background(), testRequesterID, testListingID, []time.Time{d1})
		assert.ErrorIs(t, err, ErrListingUnavailable)
	})

	t.Run("rejects an empty date set", func(t *testing.T) {
		f := newCoordFixture(t)
		f.expectUserExists()
		f.mock.ExpectBegin()
		f.expectListingLock(true)
		f.mock.ExpectRollback()

		_, err := f.coord.CreateRequest(context.Background(), testRequesterID, testListingID, nil)
		assert.ErrorIs(t, err, ErrNoDatesSelected)
	})

	t.Run("rejects a date outside the slot pool", func(t *testing.T) {
		f := newCoordFixture(t)
		f.expectUserExists()
		f.mock.ExpectBegin()
		f.expectListingLock(true)
		f.expectSlots(d1)
		f.mock.ExpectRollback()

		_, err := f.coord.CreateRequest(context.Background(), testRequesterID, testListingID, []time.Time{d1, d2})
		var notAvail *DateNotAvailableError
		require.ErrorAs(t, err, &notAvail)
		assert.Equal(t, d2, notAvail.Date)
		assert.Empty(t, *f.events)
	})

	t.Run("rejects a date claimed by a live request", func(t *testing.T) {
		f := newCoordFixture(t)
		f.expectUserExists()
		f.mock.ExpectBegin()
		f.expectListingLock(true)
		f.expectSlots(d1, d2)
		f.expectLiveDates(map[time.Time]uint64{d2: 99})
		f.mock.ExpectRollback()

		_, err := f.coord.CreateRequest(context.Background(), testRequesterID, testListingID, []time.Time{d2})
		var conflict *DateConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, d2, conflict.Date)
	})

	t.Run("retries a deadlocked transaction and succeeds", func(t *testing.T) {
		f := newCoordFixture(t)
		f.expectUserExists()
		// First attempt deadlocks on the listing lock and rolls back.
		f.mock.ExpectBegin()
		f.mock.ExpectQuery(`FROM listings WHERE id = \? FOR UPDATE`).
			WithArgs(testListingID).
			WillReturnError(fmt.Errorf("Error 1213: Deadlock found when trying to get lock; try restarting transaction"))
		f.mock.ExpectRollback()
		// Second attempt goes through.
		f.mock.ExpectBegin()
		f.expectListingLock(true)
		f.expectSlots(d1)
		f.expectLiveDates(nil)
		f.expectRequestInsert([]time.Time{d1})
		f.mock.ExpectExec("DELETE FROM listing_slots").
			WillReturnResult(sqlmock.NewResult(0, 1))
		f.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM listing_slots`).
			WithArgs(testListingID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
		f.expectNames()
		f.mock.ExpectExec("INSERT INTO notifications").
			WillReturnResult(sqlmock.NewResult(9, 1))
		f.mock.ExpectCommit()

		req, err := f.coord.CreateRequest(context.Background(), testRequesterID, testListingID, []time.Time{d1})
		require.NoError(t, err)
		assert.Equal(t, testRequestID, req.ID)
		// Only the committed attempt publishes.
		assert.Len(t, *f.events, 1)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("gives up after exhausting retries", func(t *testing.T) {
		f := newCoordFixture(t)
		f.expectUserExists()
		for i := 0; i < maxTxRetries; i++ {
			f.mock.ExpectBegin()
			f.mock.ExpectQuery(`FROM listings WHERE id = \? FOR UPDATE`).
				WithArgs(testListingID).
				WillReturnError(fmt.Errorf("Error 1205: Lock wait timeout exceeded; try restarting transaction"))
			f.mock.ExpectRollback()
		}

		_, err := f.coord.CreateRequest(context.Background(), testRequesterID, testListingID, []time.Time{d1})
		assert.ErrorIs(t, err, ErrTxRetriesExhausted)
		assert.Empty(t, *f.events)
	})
}

func (f coordFixture) expectRequestLock(status string, dates ...time.Time) {
	now := time.Now().UTC()
	f.mock.ExpectQuery("FROM requests WHERE id = \\? FOR UPDATE").
		WithArgs(testRequestID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "requester_id", "listing_id", "status", "created_at", "updated_at"}).
			AddRow(testRequestID, testRequesterID, testListingID, status, now, now))
	rows := sqlmock.NewRows([]string{"request_date"})
	for _, d := range dates {
		rows.AddRow(d)
	}
	f.mock.ExpectQuery("SELECT request_date FROM request_dates").
		WithArgs(testRequestID).
		WillReturnRows(rows)
}

func TestAcceptRequest(t *testing.T) {
	d1 := day(2025, 6, 10)

	t.Run("approves a pending request and swaps notifications", func(t *testing.T) {
		f := newCoordFixture(t)
		f.mock.ExpectBegin()
		f.expectRequestLock("PENDING", d1)
		f.expectListingLock(true)
		f.mock.ExpectExec("UPDATE requests SET status").
			WithArgs("APPROVED", testRequestID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		f.expectNames()
		f.mock.ExpectExec("INSERT INTO notifications").
			WithArgs(testRequesterID, "booking_accepted", testRequestID, testListingID, "Booking Accepted!",
				"Alex Meyer accepted your booking request for Toyota Corolla").
			WillReturnResult(sqlmock.NewResult(10, 1))
		f.mock.ExpectExec("DELETE FROM notifications WHERE request_id").
			WithArgs(testRequestID, "booking_request").
			WillReturnResult(sqlmock.NewResult(0, 1))
		f.mock.ExpectCommit()

		err := f.coord.AcceptRequest(context.Background(), testOwnerID, testRequestID)
		require.NoError(t, err)
		require.Len(t, *f.events, 1)
		assert.Equal(t, queue.EventRequestAccepted, (*f.events)[0].Event)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("refuses a request that is no longer pending", func(t *testing.T) {
		f := newCoordFixture(t)
		f.mock.ExpectBegin()
		f.expectRequestLock("REJECTED", d1)
		f.mock.ExpectRollback()

		err := f.coord.AcceptRequest(context.Background(), testOwnerID, testRequestID)
		var resolved *AlreadyResolvedError
		require.ErrorAs(t, err, &resolved)
		assert.Equal(t, model.StatusRejected, resolved.Status)
		assert.Empty(t, *f.events)
	})

	t.Run("refuses a caller who does not own the listing", func(t *testing.T) {
		f := newCoordFixture(t)
		f.mock.ExpectBegin()
		f.expectRequestLock("PENDING", d1)
		f.expectListingLock(true)
		f.mock.ExpectRollback()

		err := f.coord.AcceptRequest(context.Background(), testOwnerID+1, testRequestID)
		assert.ErrorIs(t, err, ErrNotListingOwner)
		assert.Empty(t, *f.events)
	})

	t.Run("surfaces an unknown request", func(t *testing.T) {
		f := newCoordFixture(t)
		f.mock.ExpectBegin()
		f.mock.ExpectQuery("FROM requests WHERE id = \\? FOR UPDATE").
			WithArgs(testRequestID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		f.mock.ExpectRollback()

		err := f.coord.AcceptRequest(context.Background(), testOwnerID, testRequestID)
		assert.ErrorIs(t, err, ErrUnknownRequest)
	})

	t.Run("flags a request whose listing vanished", func(t *testing.T) {
		f := newCoordFixture(t)
		f.mock.ExpectBegin()
		f.expectRequestLock("PENDING", d1)
		f.mock.ExpectQuery(`FROM listings WHERE id = \? FOR UPDATE`).
			WithArgs(testListingID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		f.mock.ExpectRollback()

		err := f.coord.AcceptRequest(context.Background(), testOwnerID, testRequestID)
		assert.ErrorIs(t, err, ErrOrphanedRequest)
	})
}

func TestDeclineRequest(t *testing.T) {
	d1 := day(2025, 6, 10)
	d2 := day(2025, 6, 11)

	t.Run("rejects the request and restores its dates", func(t *testing.T) {
		f := newCoordFixture(t)
		f.mock.ExpectBegin()
		f.expectRequestLock("PENDING", d1, d2)
		f.expectListingLock(false)
		f.mock.ExpectExec("UPDATE requests SET status").
			WithArgs("REJECTED", testRequestID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		f.mock.ExpectExec("INSERT IGNORE INTO listing_slots").
			WithArgs(testListingID, "2025-06-10", testListingID, "2025-06-11").
			WillReturnResult(sqlmock.NewResult(0, 2))
		f.mock.ExpectExec("UPDATE listings SET is_available").
			WithArgs(true, testListingID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		f.expectNames()
		f.mock.ExpectExec("INSERT INTO notifications").
			WithArgs(testRequesterID, "booking_rejected", testRequestID, testListingID, "Booking Declined",
				"Alex Meyer declined your booking request for Toyota Corolla").
			WillReturnResult(sqlmock.NewResult(10, 1))
		f.mock.ExpectExec("DELETE FROM notifications WHERE request_id").
			WithArgs(testRequestID, "booking_request").
			WillReturnResult(sqlmock.NewResult(0, 1))
		f.mock.ExpectCommit()

		err := f.coord.DeclineRequest(context.Background(), testOwnerID, testRequestID)
		require.NoError(t, err)
		require.Len(t, *f.events, 1)
		assert.Equal(t, queue.EventRequestDeclined, (*f.events)[0].Event)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("tolerates an already-deleted owner prompt", func(t *testing.T) {
		f := newCoordFixture(t)
		f.mock.ExpectBegin()
		f.expectRequestLock("PENDING", d1)
		f.expectListingLock(false)
		f.mock.ExpectExec("UPDATE requests SET status").
			WithArgs("REJECTED", testRequestID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		f.mock.ExpectExec("INSERT IGNORE INTO listing_slots").
			WillReturnResult(sqlmock.NewResult(0, 1))
		f.mock.ExpectExec("UPDATE listings SET is_available").
			WithArgs(true, testListingID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		f.expectNames()
		f.mock.ExpectExec("INSERT INTO notifications").
			WillReturnResult(sqlmock.NewResult(10, 1))
		// Zero prompts removed is logged, not an error.
		f.mock.ExpectExec("DELETE FROM notifications WHERE request_id").
			WithArgs(testRequestID, "booking_request").
			WillReturnResult(sqlmock.NewResult(0, 0))
		f.mock.ExpectCommit()

		err := f.coord.DeclineRequest(context.Background(), testOwnerID, testRequestID)
		require.NoError(t, err)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})
}
