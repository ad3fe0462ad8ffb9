package handler // handler package contains owner-specific car handlers

import (
	"errors"   // errors matches repository sentinels
	"net/http" // http provides status code constants
	"strings"  // strings offers trimming utilities

	"github.com/labstack/echo/v4" // echo is the web framework used for handlers

	"github.com/ridehive/ridehive-api/internal/model"      // model holds the domain enums
	"github.com/ridehive/ridehive-api/internal/repository" // repository holds the data access layer
)

// OwnerHandler bundles repositories for owners to manage their fleet
// and listings.
type OwnerHandler struct {
	Cars     *repository.CarRepo     // Cars provides car persistence
	Listings *repository.ListingRepo // Listings provides listing persistence
}

// NewOwnerHandler constructs a new OwnerHandler and panics if any
// dependency is nil.
func NewOwnerHandler(cars *repository.CarRepo, listings *repository.ListingRepo) *OwnerHandler {
	if cars == nil || listings == nil {
		panic("nil repository passed to NewOwnerHandler")
	}
	return &OwnerHandler{Cars: cars, Listings: listings}
}

// carBody is the JSON shape shared by car create and update requests.
type carBody struct {
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Color        string `json:"color"`
	Year         uint16 `json:"year"`
	Seats        uint8  `json:"seats"`
	Fuel         string `json:"fuel"`         // PETROL | DIESEL | HYBRID | ELECTRIC | LPG
	Transmission string `json:"transmission"` // MANUAL | AUTOMATIC
	Vin          string `json:"vin"`
}

// validate trims the body in place and returns the parsed enum values,
// or a human-readable problem when a field is unusable.
func (b *carBody) validate(requireVin bool) (model.FuelType, model.TransmissionType, string) {
	b.Brand = strings.TrimSpace(b.Brand)
	b.Model = strings.TrimSpace(b.Model)
	b.Color = strings.TrimSpace(b.Color)
	b.Vin = strings.TrimSpace(b.Vin)
	if b.Brand == "" || b.Model == "" {
		return "", "", "brand and model are required"
	}
	if requireVin && b.Vin == "" {
		return "", "", "vin is required"
	}
	if b.Year < 1950 || b.Year > 2100 {
		return "", "", "year is out of range"
	}
	if b.Seats == 0 {
		return "", "", "seats must be positive"
	}
	fuel := model.FuelType(strings.ToUpper(strings.TrimSpace(b.Fuel)))
	if !fuel.Valid() {
		return "", "", "unknown fuel type"
	}
	tr := model.TransmissionType(strings.ToUpper(strings.TrimSpace(b.Transmission)))
	if !tr.Valid() {
		return "", "", "unknown transmission type"
	}
	return fuel, tr, ""
}

// CreateCar handles POST /v1/cars and registers a car for the
// authenticated owner.
func (h *OwnerHandler) CreateCar(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body carBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	fuel, tr, problem := body.validate(true)
	if problem != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": problem})
	}
	car := &repository.CarRecord{
		OwnerID:      ownerID,
		Brand:        body.Brand,
		Model:        body.Model,
		Color:        body.Color,
		Year:         body.Year,
		Seats:        body.Seats,
		Fuel:         string(fuel),
		Transmission: string(tr),
		Vin:          body.Vin,
	}
	if err := h.Cars.Create(c.Request().Context(), car); err != nil {
		if errors.Is(err, repository.ErrVinExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "vin already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create car"})
	}
	return c.JSON(http.StatusCreated, car)
}

// ListCars handles GET /v1/cars and returns the owner's fleet.
func (h *OwnerHandler) ListCars(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	cars, err := h.Cars.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list cars"})
	}
	return c.JSON(http.StatusOK, cars)
}

// GetCar handles GET /v1/cars/:id for the authenticated owner.
func (h *OwnerHandler) GetCar(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid car id"})
	}
	car, err := h.Cars.GetByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrCarNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "car not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load car"})
	}
	return c.JSON(http.StatusOK, car)
}

// UpdateCar handles PUT /v1/cars/:id.  The VIN is immutable and is
// ignored when present in the body.
func (h *OwnerHandler) UpdateCar(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid car id"})
	}
	var body carBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	fuel, tr, problem := body.validate(false)
	if problem != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": problem})
	}
	err = h.Cars.Update(c.Request().Context(), id, ownerID, body.Brand, body.Model, body.Color, body.Year, body.Seats, fuel, tr)
	if err != nil {
		if errors.Is(err, repository.ErrCarNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "car not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update car"})
	}
	car, err := h.Cars.GetByIDAndOwner(c.Request().Context(), id, ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load car"})
	}
	return c.JSON(http.StatusOK, car)
}

// DeleteCar handles DELETE /v1/cars/:id.  A car that still backs a
// listing cannot be removed and yields 409.
func (h *OwnerHandler) DeleteCar(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid car id"})
	}
	if err := h.Cars.Delete(c.Request().Context(), id, ownerID); err != nil {
		switch {
		case errors.Is(err, repository.ErrCarNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "car not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "car is used by a listing"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete car"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
