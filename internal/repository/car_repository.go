package repository // repository holds data access logic for domain entities

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"errors"       // errors package allows sentinel error definitions
	"strings"      // strings helps classify driver errors

	"github.com/ridehive/ridehive-api/internal/model"
)

// CarRecord mirrors the schema of the cars table.  It is used by the
// repository when constructing or scanning rows.  Business logic
// should use the model.Car type instead.
type CarRecord struct {
	ID           uint64
	OwnerID      uint64
	Brand        string
	Model        string
	Color        string
	Year         uint16
	Seats        uint8
	Fuel         string
	Transmission string
	Vin          string
	CreatedAt    string
	UpdatedAt    string
}

// ErrCarNotFound is returned when a car lookup fails.
var ErrCarNotFound = errors.New("car not found")

// ErrVinExists is returned when inserting a car whose VIN is already
// registered.
var ErrVinExists = errors.New("vin already exists")

// CarRepo provides methods to create and retrieve cars.  It embeds a
// database handle to perform queries and commands.
type CarRepo struct {
	db *sql.DB // db is the underlying database connection
}

// NewCarRepo constructs a CarRepo with the given DB handle.
func NewCarRepo(db *sql.DB) *CarRepo {
	return &CarRepo{db: db}
}

// Create inserts a new car into the database.  The car must have
// OwnerID, Brand, Model and Vin set; enum fields are assumed to be
// validated at the boundary.  After insert the ID field and DB-default
// timestamps are populated on the given record.
func (r *CarRepo) Create(ctx context.Context, c *CarRecord) error {
	const qInsert = `INSERT INTO cars (owner_id, brand, model, color, year, seats, fuel, transmission, vin)
	                 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, c.OwnerID, c.Brand, c.Model, c.Color, c.Year, c.Seats, c.Fuel, c.Transmission, c.Vin)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrVinExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)

	// Query back the full row so DB-default fields are populated.
	const qSelect = `SELECT id, owner_id, brand, model, color, year, seats, fuel, transmission, vin, created_at, updated_at
	                 FROM cars WHERE id = ?`
	return r.db.QueryRowContext(ctx, qSelect, c.ID).
		Scan(&c.ID, &c.OwnerID, &c.Brand, &c.Model, &c.Color, &c.Year, &c.Seats, &c.Fuel, &c.Transmission, &c.Vin, &c.CreatedAt, &c.UpdatedAt)
}

// GetByID retrieves a car by its ID regardless of owner.  It returns
// ErrCarNotFound when no row is found.
func (r *CarRepo) GetByID(ctx context.Context, id uint64) (*CarRecord, error) {
	const q = `SELECT id, owner_id, brand, model, color, year, seats, fuel, transmission, vin, created_at, updated_at FROM cars WHERE id = ?`
	var c CarRecord
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&c.ID, &c.OwnerID, &c.Brand, &c.Model, &c.Color, &c.Year, &c.Seats, &c.Fuel, &c.Transmission, &c.Vin, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCarNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetByIDAndOwner retrieves a car but only if it belongs to the given
// owner.  This helper is used to enforce resource ownership.  If no
// matching car is found, ErrCarNotFound is returned.
func (r *CarRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*CarRecord, error) {
	const q = `SELECT id, owner_id, brand, model, color, year, seats, fuel, transmission, vin, created_at, updated_at FROM cars WHERE id = ? AND owner_id = ?`
	var c CarRecord
	err := r.db.QueryRowContext(ctx, q, id, ownerID).
		Scan(&c.ID, &c.OwnerID, &c.Brand, &c.Model, &c.Color, &c.Year, &c.Seats, &c.Fuel, &c.Transmission, &c.Vin, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCarNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListByOwner returns all cars registered by the given owner ordered
// by creation time descending.  When the owner has no cars an empty
// slice is returned.
func (r *CarRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]CarRecord, error) {
	const q = `SELECT id, owner_id, brand, model, color, year, seats, fuel, transmission, vin, created_at, updated_at
	           FROM cars WHERE owner_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cars := make([]CarRecord, 0)
	for rows.Next() {
		var c CarRecord
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Brand, &c.Model, &c.Color, &c.Year, &c.Seats, &c.Fuel, &c.Transmission, &c.Vin, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		cars = append(cars, c)
	}
	return cars, rows.Err()
}

// Update overwrites the mutable fields of a car owned by ownerID.  It
// returns ErrCarNotFound when no row matches the id/owner pair.  VIN is
// immutable after registration and is deliberately not updatable.
func (r *CarRepo) Update(ctx context.Context, id, ownerID uint64, brand, carModel, color string, year uint16, seats uint8, fuel model.FuelType, transmission model.TransmissionType) error {
	const q = `UPDATE cars SET brand = ?, model = ?, color = ?, year = ?, seats = ?, fuel = ?, transmission = ?
	           WHERE id = ? AND owner_id = ?`
	res, err := r.db.ExecContext(ctx, q, brand, carModel, color, year, seats, string(fuel), string(transmission), id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the car does not exist for this owner or nothing changed;
		// distinguish by checking existence.
		if _, err := r.GetByIDAndOwner(ctx, id, ownerID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a car owned by ownerID.  Cars that still back a
// listing cannot be deleted; the FK restriction surfaces as
// ErrConflict so handlers can answer 409.
func (r *CarRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cars WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		// MySQL 1451: cannot delete a parent row referenced by a FK.
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
		return ErrCarNotFound
	}
	return nil
}

// SummaryTx returns the brand and model of a car inside an existing
// transaction.  The booking coordinator uses it to compose
// notification messages ("wants to book your Toyota Corolla").
func (r *CarRepo) SummaryTx(ctx context.Context, tx *sql.Tx, id uint64) (brand, carModel string, err error) {
	err = tx.QueryRowContext(ctx, `SELECT brand, model FROM cars WHERE id = ?`, id).Scan(&brand, &carModel)
	return brand, carModel, err
}
