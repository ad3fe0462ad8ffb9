package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// dateLayout is the wire format used for DATE columns.  Slots are
// calendar dates only; time of day never reaches the database.
const dateLayout = "2006-01-02"

// ListingRecord mirrors the schema of the listings table.  The pool of
// bookable dates lives in listing_slots and is loaded separately.  It
// is used internally by the repository when constructing or scanning
// rows.  Business logic should use the model.Listing type instead.
type ListingRecord struct {
	ID          uint64
	OwnerID     uint64
	CarID       uint64
	Title       string
	Description sql.NullString
	PriceCents  uint32
	Location    string
	IsAvailable bool
	PostedAt    time.Time
	UpdatedAt   time.Time
}

// ErrListingNotFound is returned when a listing lookup fails.
var ErrListingNotFound = errors.New("listing not found")

// ListingRepo provides persistence for listings and their slot pool.
// Slot mutations are transaction-scoped: the booking coordinator locks
// the listing row first, then reads and rewrites the slot set within
// the same transaction, so concurrent bookings on one listing
// serialize while different listings never contend.
type ListingRepo struct {
	db *sql.DB
}

// NewListingRepo constructs a ListingRepo with the given DB handle.
func NewListingRepo(db *sql.DB) *ListingRepo {
	return &ListingRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.  Use this method to
// obtain a *sql.DB when you need fine-grained transaction control.
func (r *ListingRepo) DB() *sql.DB {
	return r.db
}

const listingColumns = `id, owner_id, car_id, title, description, price_cents, location, is_available, posted_at, updated_at`

func scanListing(row *sql.Row) (*ListingRecord, error) {
	var l ListingRecord
	err := row.Scan(&l.ID, &l.OwnerID, &l.CarID, &l.Title, &l.Description, &l.PriceCents, &l.Location, &l.IsAvailable, &l.PostedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &l, nil
}

// Create inserts a listing together with its initial slot set in one
// transaction.  Duplicate dates in slots must already be collapsed by
// the caller.  is_available is derived from the slot count at insert
// time.  On success the generated ID and timestamps are populated.
func (r *ListingRepo) Create(ctx context.Context, l *ListingRecord, slots []time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	l.IsAvailable = len(slots) > 0
	const qInsert = `INSERT INTO listings (owner_id, car_id, title, description, price_cents, location, is_available)
	                 VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, qInsert, l.OwnerID, l.CarID, l.Title, l.Description, l.PriceCents, l.Location, l.IsAvailable)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	if err := r.RestoreSlotsTx(ctx, tx, l.ID, slots); err != nil {
		return err
	}
	const qSelect = `SELECT ` + listingColumns + ` FROM listings WHERE id = ?`
	if err := tx.QueryRowContext(ctx, qSelect, l.ID).
		Scan(&l.ID, &l.OwnerID, &l.CarID, &l.Title, &l.Description, &l.PriceCents, &l.Location, &l.IsAvailable, &l.PostedAt, &l.UpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID retrieves a listing by its ID.  It returns ErrListingNotFound
// if there is no matching row.
func (r *ListingRepo) GetByID(ctx context.Context, id uint64) (*ListingRecord, error) {
	const q = `SELECT ` + listingColumns + ` FROM listings WHERE id = ?`
	return scanListing(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDForUpdateTx retrieves a listing within a transaction and locks
// its row with SELECT ... FOR UPDATE.  Every booking operation takes
// this lock first, which is what serializes concurrent work on the
// same listing (per-listing isolation granularity).
func (r *ListingRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*ListingRecord, error) {
	const q = `SELECT ` + listingColumns + ` FROM listings WHERE id = ? FOR UPDATE`
	return scanListing(tx.QueryRowContext(ctx, q, id))
}

// SlotsTx returns the listing's currently bookable dates inside the
// given transaction, ordered ascending.  Dates come back truncated to
// midnight UTC.
func (r *ListingRepo) SlotsTx(ctx context.Context, tx *sql.Tx, listingID uint64) ([]time.Time, error) {
	const q = `SELECT slot_date FROM listing_slots WHERE listing_id = ? ORDER BY slot_date`
	rows, err := tx.QueryContext(ctx, q, listingID)
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

// Slots is the non-transactional variant of SlotsTx used by read-only
// endpoints such as the public listing detail.
func (r *ListingRepo) Slots(ctx context.Context, listingID uint64) ([]time.Time, error) {
	const q = `SELECT slot_date FROM listing_slots WHERE listing_id = ? ORDER BY slot_date`
	rows, err := r.db.QueryContext(ctx, q, listingID)
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

// RemoveSlotsTx deletes the given dates from the listing's slot pool.
// Passing an empty slice has no effect and returns nil.
func (r *ListingRepo) RemoveSlotsTx(ctx context.Context, tx *sql.Tx, listingID uint64, dates []time.Time) error {
	if len(dates) == 0 {
		return nil
	}
	placeholders := make([]string, 0, len(dates))
	args := make([]interface{}, 0, len(dates)+1)
	args = append(args, listingID)
	for _, d := range dates {
		placeholders = append(placeholders, "?")
		args = append(args, d.UTC().Format(dateLayout))
	}
	query := `DELETE FROM listing_slots WHERE listing_id = ? AND slot_date IN (` + strings.Join(placeholders, ",") + `)`
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// RestoreSlotsTx adds the given dates back into the listing's slot
// pool.  The (listing_id, slot_date) unique key plus INSERT IGNORE
// makes re-adding a date that is already present an idempotent no-op,
// so restoring a declined request's dates is a plain set union.
func (r *ListingRepo) RestoreSlotsTx(ctx context.Context, tx *sql.Tx, listingID uint64, dates []time.Time) error {
	if len(dates) == 0 {
		return nil
	}
	query := `INSERT IGNORE INTO listing_slots (listing_id, slot_date) VALUES `
	args := make([]interface{}, 0, len(dates)*2)
	for i, d := range dates {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, listingID, d.UTC().Format(dateLayout))
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// CountSlotsTx returns the number of open slots the listing has inside
// the given transaction.  Used to recompute is_available after slot
// removal.
func (r *ListingRepo) CountSlotsTx(ctx context.Context, tx *sql.Tx, listingID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM listing_slots WHERE listing_id = ?`, listingID).Scan(&n)
	return n, err
}

// SetAvailabilityTx flips the derived is_available flag.  Must only be
// called together with the slot mutation that justifies the new value,
// inside the same transaction.
func (r *ListingRepo) SetAvailabilityTx(ctx context.Context, tx *sql.Tx, listingID uint64, available bool) error {
	_, err := tx.ExecContext(ctx, `UPDATE listings SET is_available = ? WHERE id = ?`, available, listingID)
	return err
}

// ListByOwner returns all listings published by the given owner ordered
// by posting time descending.
func (r *ListingRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]ListingRecord, error) {
	const q = `SELECT ` + listingColumns + ` FROM listings WHERE owner_id = ? ORDER BY posted_at DESC`
	return r.listWhere(ctx, q, ownerID)
}

// ListAvailable returns listings that currently have at least one open
// slot, newest first.  It backs the public browse endpoint.
func (r *ListingRepo) ListAvailable(ctx context.Context) ([]ListingRecord, error) {
	const q = `SELECT ` + listingColumns + ` FROM listings WHERE is_available = 1 ORDER BY posted_at DESC`
	return r.listWhere(ctx, q)
}

func (r *ListingRepo) listWhere(ctx context.Context, query string, args ...interface{}) ([]ListingRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ListingRecord, 0)
	for rows.Next() {
		var l ListingRecord
		if err := rows.Scan(&l.ID, &l.OwnerID, &l.CarID, &l.Title, &l.Description, &l.PriceCents, &l.Location, &l.IsAvailable, &l.PostedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Update overwrites the mutable presentation fields of a listing owned
// by ownerID.  Slot and availability state is deliberately out of
// reach here; only the booking coordinator mutates those.
func (r *ListingRepo) Update(ctx context.Context, id, ownerID uint64, title string, description sql.NullString, priceCents uint32, location string) error {
	const q = `UPDATE listings SET title = ?, description = ?, price_cents = ?, location = ?
	           WHERE id = ? AND owner_id = ?`
	res, err := r.db.ExecContext(ctx, q, title, description, priceCents, location, id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.getByIDAndOwner(ctx, id, ownerID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a listing owned by ownerID.  Listings with live
// booking requests are protected by a FK restriction, surfaced as
// ErrConflict so handlers can answer 409.  Slot rows cascade.
func (r *ListingRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		if strings.Contains(err.Error(), "1451") {
			return ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrListingNotFound
	}
	return nil
}

func (r *ListingRepo) getByIDAndOwner(ctx context.Context, id, ownerID uint64) (*ListingRecord, error) {
	const q = `SELECT ` + listingColumns + ` FROM listings WHERE id = ? AND owner_id = ?`
	return scanListing(r.db.QueryRowContext(ctx, q, id, ownerID))
}
