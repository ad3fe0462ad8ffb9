package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridehive/ridehive-api/internal/model"
)

func newNotificationMock(t *testing.T) (*NotificationRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewNotificationRepo(db), mock
}

func TestNotificationListStaleGuard(t *testing.T) {
	repo, mock := newNotificationMock(t)
	now := time.Now().UTC()

	// The query joins requests and excludes booking_request prompts
	// whose request already left PENDING.
	mock.ExpectQuery(`JOIN requests rq ON rq.id = n.request_id\s+WHERE n.recipient_id = \?\s+AND NOT \(n.kind = 'booking_request' AND rq.status <> 'PENDING'\)`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "recipient_id", "kind", "request_id", "listing_id", "title", "message", "is_read", "created_at",
		}).
			AddRow(1, 3, "booking_request", 42, 11, "New booking request", "Alex Meyer wants to book your Toyota Corolla", false, now).
			AddRow(2, 3, "booking_accepted", 40, 11, "Booking Accepted!", "...", true, now))

	out, err := repo.ListByRecipient(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "booking_request", out[0].Kind)
	assert.False(t, out[0].IsRead)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationDeleteByRequestAndKind(t *testing.T) {
	ctx := context.Background()

	t.Run("reports removed rows", func(t *testing.T) {
		repo, mock := newNotificationMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM notifications WHERE request_id = \? AND kind = \?`).
			WithArgs(uint64(42), "booking_request").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tx, err := repo.db.BeginTx(ctx, nil)
		require.NoError(t, err)
		n, err := repo.DeleteByRequestAndKindTx(ctx, tx, 42, model.KindBookingRequest)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		require.NoError(t, tx.Commit())
	})

	t.Run("zero removed rows is not an error", func(t *testing.T) {
		repo, mock := newNotificationMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM notifications WHERE request_id = \? AND kind = \?`).
			WithArgs(uint64(42), "booking_request").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		tx, err := repo.db.BeginTx(ctx, nil)
		require.NoError(t, err)
		n, err := repo.DeleteByRequestAndKindTx(ctx, tx, 42, model.KindBookingRequest)
		require.NoError(t, err)
		assert.Zero(t, n)
		require.NoError(t, tx.Commit())
	})
}

func TestNotificationOwnershipScoping(t *testing.T) {
	ctx := context.Background()

	t.Run("GetByID misses rows of other recipients", func(t *testing.T) {
		repo, mock := newNotificationMock(t)
		mock.ExpectQuery(`FROM notifications WHERE id = \? AND recipient_id = \?`).
			WithArgs(uint64(1), uint64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetByID(ctx, 1, 99)
		assert.ErrorIs(t, err, ErrNotificationNotFound)
	})

	t.Run("Delete misses rows of other recipients", func(t *testing.T) {
		repo, mock := newNotificationMock(t)
		mock.ExpectExec(`DELETE FROM notifications WHERE id = \? AND recipient_id = \?`).
			WithArgs(uint64(1), uint64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(ctx, 1, 99)
		assert.ErrorIs(t, err, ErrNotificationNotFound)
	})
}
