package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// BookingRequestRecord mirrors the schema of the requests table.  The
// dates claimed by a request live in request_dates, one row per
// calendar date.  Business logic should use model.BookingRequest; the
// record type is what the repository scans and writes.
type BookingRequestRecord struct {
	ID             uint64
	RequesterID    uint64
	ListingID      uint64
	Status         string
	RequestedDates []time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ErrRequestNotFound is returned when a booking request lookup fails.
var ErrRequestNotFound = errors.New("booking request not found")

// BookingRequestRepo provides persistence for booking requests and
// their date sets.  Mutating methods take an explicit transaction:
// request writes always travel together with slot mutations on the
// parent listing and must commit or roll back as one unit.
type BookingRequestRepo struct {
	db *sql.DB
}

// NewBookingRequestRepo returns a new BookingRequestRepo bound to the
// given database.
func NewBookingRequestRepo(db *sql.DB) *BookingRequestRepo { return &BookingRequestRepo{db: db} }

// CreateTx inserts a new booking request and its date rows within the
// scope of an existing transaction.  It populates the generated ID and
// DB-default fields on the provided record and returns any error from
// the database.  The caller must commit or rollback the transaction.
// RequestedDates must be non-empty, deduplicated and date-only.
func (r *BookingRequestRepo) CreateTx(ctx context.Context, tx *sql.Tx, rec *BookingRequestRecord) error {
	const q = `INSERT INTO requests (requester_id, listing_id, status) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, rec.RequesterID, rec.ListingID, rec.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)

	if len(rec.RequestedDates) > 0 {
		query := `INSERT INTO request_dates (request_id, request_date) VALUES `
		args := make([]interface{}, 0, len(rec.RequestedDates)*2)
		for i, d := range rec.RequestedDates {
			if i > 0 {
				query += ","
			}
			query += "(?, ?)"
			args = append(args, rec.ID, d.UTC().Format(dateLayout))
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	// Query back the row to populate timestamps and defaults.
	const sel = `SELECT id, requester_id, listing_id, status, created_at, updated_at FROM requests WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, rec.ID).
		Scan(&rec.ID, &rec.RequesterID, &rec.ListingID, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt)
}

// GetByIDForUpdateTx retrieves a booking request by ID within a
// transaction, locking the row with FOR UPDATE, and loads its date
// set.  It returns ErrRequestNotFound when no row exists.  Accept and
// decline take this lock before the listing lock so a request cannot
// be resolved twice concurrently.
func (r *BookingRequestRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*BookingRequestRecord, error) {
	const q = `SELECT id, requester_id, listing_id, status, created_at, updated_at FROM requests WHERE id = ? FOR UPDATE`
	var rec BookingRequestRecord
	err := tx.QueryRowContext(ctx, q, id).
		Scan(&rec.ID, &rec.RequesterID, &rec.ListingID, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	dates, err := r.datesTx(ctx, tx, rec.ID)
	if err != nil {
		return nil, err
	}
	rec.RequestedDates = dates
	return &rec, nil
}

func (r *BookingRequestRepo) datesTx(ctx context.Context, tx *sql.Tx, requestID uint64) ([]time.Time, error) {
	rows, err := tx.QueryContext(ctx, `SELECT request_date FROM request_dates WHERE request_id = ? ORDER BY request_date`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d.UTC())
	}
	return dates, rows.Err()
}

// LiveDatesByListingTx returns every date claimed by a PENDING or
// APPROVED request on the given listing, inside the transaction.  The
// create flow checks its normalized dates against this set as a second
// line of defence on top of the slot-membership check: a date can only
// ever be claimed by one live request at a time.
func (r *BookingRequestRepo) LiveDatesByListingTx(ctx context.Context, tx *sql.Tx, listingID uint64) (map[time.Time]uint64, error) {
	const q = `SELECT rd.request_date, rq.id
	           FROM request_dates rd
	           JOIN requests rq ON rq.id = rd.request_id
	           WHERE rq.listing_id = ? AND rq.status IN ('PENDING', 'APPROVED')`
	rows, err := tx.QueryContext(ctx, q, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	claimed := make(map[time.Time]uint64)
	for rows.Next() {
		var d time.Time
		var reqID uint64
		if err := rows.Scan(&d, &reqID); err != nil {
			return nil, err
		}
		claimed[d.UTC()] = reqID
	}
	return claimed, rows.Err()
}

// UpdateStatusTx transitions a request to the given status within the
// transaction.  Callers are expected to have loaded the request with
// GetByIDForUpdateTx and verified the current status first.
func (r *BookingRequestRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE requests SET status = ? WHERE id = ?`, status, id)
	return err
}

// ListByRequester returns all booking requests placed by the given
// user, newest first, each with its date set populated.
func (r *BookingRequestRepo) ListByRequester(ctx context.Context, requesterID uint64) ([]BookingRequestRecord, error) {
	const q = `SELECT id, requester_id, listing_id, status, created_at, updated_at
	           FROM requests WHERE requester_id = ? ORDER BY created_at DESC`
	return r.listWithDates(ctx, q, requesterID)
}

// ListByOwner returns all booking requests targeting listings owned by
// the given owner, newest first, each with its date set populated.
// Owners use this to review incoming requests.
func (r *BookingRequestRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]BookingRequestRecord, error) {
	const q = `SELECT rq.id, rq.requester_id, rq.listing_id, rq.status, rq.created_at, rq.updated_at
	           FROM requests rq
	           JOIN listings l ON l.id = rq.listing_id
	           WHERE l.owner_id = ? ORDER BY rq.created_at DESC`
	return r.listWithDates(ctx, q, ownerID)
}

func (r *BookingRequestRepo) listWithDates(ctx context.Context, query string, arg interface{}) ([]BookingRequestRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	recs := make([]BookingRequestRecord, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var rec BookingRequestRecord
		if err := rows.Scan(&rec.ID, &rec.RequesterID, &rec.ListingID, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		rec.RequestedDates = []time.Time{}
		index[rec.ID] = len(recs)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return recs, nil
	}
	// Populate dates for all requests in a single query.
	ids := make([]interface{}, 0, len(recs))
	placeholders := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ID)
		placeholders = append(placeholders, "?")
	}
	dateQuery := `SELECT request_id, request_date FROM request_dates
	              WHERE request_id IN (` + strings.Join(placeholders, ",") + `)
	              ORDER BY request_id, request_date`
	drows, err := r.db.QueryContext(ctx, dateQuery, ids...)
	if err != nil {
		return nil, err
	}
	defer drows.Close()
	for drows.Next() {
		var reqID uint64
		var d time.Time
		if err := drows.Scan(&reqID, &d); err != nil {
			return nil, err
		}
		if idx, ok := index[reqID]; ok {
			recs[idx].RequestedDates = append(recs[idx].RequestedDates, d.UTC())
		}
	}
	return recs, drows.Err()
}
