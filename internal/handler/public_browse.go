package handler // handler package exposes unauthenticated browse endpoints

import (
	"errors"   // errors matches repository sentinels
	"net/http" // http provides status code constants
	"time"     // time formats slot dates

	"github.com/labstack/echo/v4" // echo is the web framework used for handlers

	"github.com/ridehive/ridehive-api/internal/repository" // repository holds the data access layer
)

// PublicHandler serves guest-visible listing data.  Responses carry no
// owner contact details beyond the owner id.
type PublicHandler struct {
	Listings *repository.ListingRepo
	Cars     *repository.CarRepo
}

// NewPublicHandler constructs a PublicHandler and panics if any
// dependency is nil.
func NewPublicHandler(listings *repository.ListingRepo, cars *repository.CarRepo) *PublicHandler {
	if listings == nil || cars == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Listings: listings, Cars: cars}
}

// publicListing augments the listing with the car summary a browsing
// client needs to decide.
type publicListing struct {
	listingResp
	CarBrand        string `json:"car_brand"`
	CarModel        string `json:"car_model"`
	CarYear         uint16 `json:"car_year"`
	CarSeats        uint8  `json:"car_seats"`
	CarFuel         string `json:"car_fuel"`
	CarTransmission string `json:"car_transmission"`
}

// BrowseListings handles GET /v1/browse/listings and returns every
// listing that currently has at least one open slot.
func (h *PublicHandler) BrowseListings(c echo.Context) error {
	ctx := c.Request().Context()
	listings, err := h.Listings.ListAvailable(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list listings"})
	}
	out := make([]publicListing, 0, len(listings))
	for i := range listings {
		l := &listings[i]
		item := publicListing{listingResp: toListingResp(l, nil)}
		if car, err := h.Cars.GetByID(ctx, l.CarID); err == nil {
			item.CarBrand = car.Brand
			item.CarModel = car.Model
			item.CarYear = car.Year
			item.CarSeats = car.Seats
			item.CarFuel = car.Fuel
			item.CarTransmission = car.Transmission
		}
		out = append(out, item)
	}
	return c.JSON(http.StatusOK, out)
}

// BrowseListing handles GET /v1/browse/listings/:id and returns one
// listing together with its bookable dates and car summary.
func (h *PublicHandler) BrowseListing(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	ctx := c.Request().Context()
	rec, err := h.Listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load listing"})
	}
	slots, err := h.Listings.Slots(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load slots"})
	}
	if slots == nil {
		slots = []time.Time{}
	}
	item := publicListing{listingResp: toListingResp(rec, slots)}
	if car, err := h.Cars.GetByID(ctx, rec.CarID); err == nil {
		item.CarBrand = car.Brand
		item.CarModel = car.Model
		item.CarYear = car.Year
		item.CarSeats = car.Seats
		item.CarFuel = car.Fuel
		item.CarTransmission = car.Transmission
	}
	return c.JSON(http.StatusOK, item)
}
