package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*ListingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewListingRepo(db), mock
}

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestListingRepoSlotMutations(t *testing.T) {
	ctx := context.Background()
	d1 := utcDay(2025, 6, 10)
	d2 := utcDay(2025, 6, 11)

	t.Run("RemoveSlotsTx deletes the exact date set", func(t *testing.T) {
		repo, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM listing_slots WHERE listing_id = \? AND slot_date IN \(\?,\?\)`).
			WithArgs(uint64(11), "2025-06-10", "2025-06-11").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		tx, err := repo.DB().BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, repo.RemoveSlotsTx(ctx, tx, 11, []time.Time{d1, d2}))
		require.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RemoveSlotsTx with no dates issues no SQL", func(t *testing.T) {
		repo, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		tx, err := repo.DB().BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, repo.RemoveSlotsTx(ctx, tx, 11, nil))
		require.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RestoreSlotsTx unions dates idempotently", func(t *testing.T) {
		repo, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT IGNORE INTO listing_slots \(listing_id, slot_date\) VALUES \(\?, \?\),\(\?, \?\)`).
			WithArgs(uint64(11), "2025-06-10", uint64(11), "2025-06-11").
			WillReturnResult(sqlmock.NewResult(0, 1)) // one date was already present
		mock.ExpectCommit()

		tx, err := repo.DB().BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, repo.RestoreSlotsTx(ctx, tx, 11, []time.Time{d1, d2}))
		require.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CountSlotsTx returns the open slot count", func(t *testing.T) {
		repo, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM listing_slots`).
			WithArgs(uint64(11)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectCommit()

		tx, err := repo.DB().BeginTx(ctx, nil)
		require.NoError(t, err)
		n, err := repo.CountSlotsTx(ctx, tx, 11)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		require.NoError(t, tx.Commit())
	})

	t.Run("SetAvailabilityTx flips the derived flag", func(t *testing.T) {
		repo, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE listings SET is_available = \? WHERE id = \?`).
			WithArgs(false, uint64(11)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		tx, err := repo.DB().BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, repo.SetAvailabilityTx(ctx, tx, 11, false))
		require.NoError(t, tx.Commit())
	})
}

func TestListingRepoCreate(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO listings`).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(`INSERT IGNORE INTO listing_slots`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`FROM listings WHERE id = \?`).
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner_id", "car_id", "title", "description", "price_cents", "location", "is_available", "posted_at", "updated_at",
		}).AddRow(11, 3, 5, "City runabout", nil, 4500, "Berlin", true, now, now))
	mock.ExpectCommit()

	rec := &ListingRecord{OwnerID: 3, CarID: 5, Title: "City runabout", PriceCents: 4500, Location: "Berlin"}
	err := repo.Create(ctx, rec, []time.Time{utcDay(2025, 6, 10), utcDay(2025, 6, 11)})
	require.NoError(t, err)
	assert.Equal(t, uint64(11), rec.ID)
	assert.True(t, rec.IsAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepoDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("missing row yields not found", func(t *testing.T) {
		repo, mock := newMockDB(t)
		mock.ExpectExec(`DELETE FROM listings`).
			WithArgs(uint64(11), uint64(3)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(ctx, 11, 3)
		assert.ErrorIs(t, err, ErrListingNotFound)
	})

	t.Run("FK restriction yields conflict", func(t *testing.T) {
		repo, mock := newMockDB(t)
		mock.ExpectExec(`DELETE FROM listings`).
			WithArgs(uint64(11), uint64(3)).
			WillReturnError(assertableFKError{})

		err := repo.Delete(ctx, 11, 3)
		assert.ErrorIs(t, err, ErrConflict)
	})
}

// assertableFKError mimics the driver message for MySQL error 1451.
type assertableFKError struct{}

func (assertableFKError) Error() string {
	return "Error 1451: Cannot delete or update a parent row: a foreign key constraint fails"
}
