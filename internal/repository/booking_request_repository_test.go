package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequestMock(t *testing.T) (*BookingRequestRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBookingRequestRepo(db), mock
}

func TestBookingRequestCreateTx(t *testing.T) {
	ctx := context.Background()
	repo, mock := newRequestMock(t)
	now := time.Now().UTC()
	d1 := utcDay(2025, 6, 10)
	d2 := utcDay(2025, 6, 11)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO requests \(requester_id, listing_id, status\)`).
		WithArgs(uint64(7), uint64(11), "PENDING").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(`INSERT INTO request_dates \(request_id, request_date\) VALUES \(\?, \?\),\(\?, \?\)`).
		WithArgs(uint64(42), "2025-06-10", uint64(42), "2025-06-11").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`FROM requests WHERE id = \?`).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "requester_id", "listing_id", "status", "created_at", "updated_at"}).
			AddRow(42, 7, 11, "PENDING", now, now))
	mock.ExpectCommit()

	tx, err := repo.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	rec := &BookingRequestRecord{RequesterID: 7, ListingID: 11, Status: "PENDING", RequestedDates: []time.Time{d1, d2}}
	require.NoError(t, repo.CreateTx(ctx, tx, rec))
	require.NoError(t, tx.Commit())

	assert.Equal(t, uint64(42), rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLiveDatesByListingTx(t *testing.T) {
	ctx := context.Background()
	repo, mock := newRequestMock(t)
	d1 := utcDay(2025, 6, 10)
	d2 := utcDay(2025, 6, 12)

	mock.ExpectBegin()
	mock.ExpectQuery(`WHERE rq.listing_id = \? AND rq.status IN \('PENDING', 'APPROVED'\)`).
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"request_date", "id"}).
			AddRow(d1, 40).
			AddRow(d2, 41))
	mock.ExpectCommit()

	tx, err := repo.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	claimed, err := repo.LiveDatesByListingTx(ctx, tx, 11)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.Len(t, claimed, 2)
	assert.Equal(t, uint64(40), claimed[d1])
	assert.Equal(t, uint64(41), claimed[d2])
}

func TestListByRequesterPopulatesDates(t *testing.T) {
	ctx := context.Background()
	repo, mock := newRequestMock(t)
	now := time.Now().UTC()
	d1 := utcDay(2025, 6, 10)
	d2 := utcDay(2025, 6, 11)

	mock.ExpectQuery(`FROM requests WHERE requester_id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "requester_id", "listing_id", "status", "created_at", "updated_at"}).
			AddRow(42, 7, 11, "PENDING", now, now).
			AddRow(40, 7, 12, "REJECTED", now, now))
	mock.ExpectQuery(`SELECT request_id, request_date FROM request_dates\s+WHERE request_id IN \(\?,\?\)`).
		WithArgs(uint64(42), uint64(40)).
		WillReturnRows(sqlmock.NewRows([]string{"request_id", "request_date"}).
			AddRow(42, d1).
			AddRow(42, d2).
			AddRow(40, d1))

	recs, err := repo.ListByRequester(ctx, 7)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, []time.Time{d1, d2}, recs[0].RequestedDates)
	assert.Equal(t, []time.Time{d1}, recs[1].RequestedDates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByRequesterEmpty(t *testing.T) {
	repo, mock := newRequestMock(t)
	mock.ExpectQuery(`FROM requests WHERE requester_id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "requester_id", "listing_id", "status", "created_at", "updated_at"}))

	recs, err := repo.ListByRequester(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, recs)
	// No date query runs when there are no requests.
	assert.NoError(t, mock.ExpectationsWereMet())
}
