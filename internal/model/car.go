package model

import "time"

// FuelType enumerates the accepted values for cars.fuel.  The set is
// fixed; request payloads are validated once at the boundary and
// rejected with a specific error when the value does not parse.
type FuelType string

const (
	FuelPetrol   FuelType = "PETROL"
	FuelDiesel   FuelType = "DIESEL"
	FuelHybrid   FuelType = "HYBRID"
	FuelElectric FuelType = "ELECTRIC"
	FuelLPG      FuelType = "LPG"
)

// Valid reports whether f is one of the known fuel types.
func (f FuelType) Valid() bool {
	switch f {
	case FuelPetrol, FuelDiesel, FuelHybrid, FuelElectric, FuelLPG:
		return true
	}
	return false
}

// TransmissionType enumerates the accepted values for cars.transmission.
type TransmissionType string

const (
	TransmissionManual    TransmissionType = "MANUAL"
	TransmissionAutomatic TransmissionType = "AUTOMATIC"
)

// Valid reports whether t is one of the known transmission types.
func (t TransmissionType) Valid() bool {
	return t == TransmissionManual || t == TransmissionAutomatic
}

// Car represents a vehicle registered by an owner, as stored in the
// `cars` table.  A car can back at most one active listing at a time;
// listings reference cars by ID rather than holding a live object.
//
// Fields:
//  ID           – primary key identifier.
//  OwnerID      – user who registered the car.
//  Brand        – manufacturer name, e.g. "Toyota".
//  Model        – model name, e.g. "Corolla".
//  Color        – exterior color.
//  Year         – production year.
//  Seats        – number of seats.
//  Fuel         – fuel type (FuelType).
//  Transmission – transmission type (TransmissionType).
//  Vin          – 17 character vehicle identification number.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Car struct {
	ID           uint64           // cars.id
	OwnerID      uint64           // cars.owner_id
	Brand        string           // cars.brand
	Model        string           // cars.model
	Color        string           // cars.color
	Year         uint16           // cars.year
	Seats        uint8            // cars.seats
	Fuel         FuelType         // cars.fuel
	Transmission TransmissionType // cars.transmission
	Vin          string           // cars.vin
	CreatedAt    time.Time        // cars.created_at
	UpdatedAt    time.Time        // cars.updated_at
}
