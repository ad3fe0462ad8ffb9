package handler // handler package contains owner-specific listing handlers

import (
	"database/sql" // sql provides NullString for the optional description
	"errors"       // errors matches repository sentinels
	"net/http"     // http provides status code constants
	"strings"      // strings offers trimming utilities
	"time"         // time parses slot dates

	"github.com/labstack/echo/v4" // echo is the web framework used for handlers

	"github.com/ridehive/ridehive-api/internal/booking"    // booking normalizes date sets
	"github.com/ridehive/ridehive-api/internal/repository" // repository holds the data access layer
)

// slotDateLayout is the wire format for calendar dates in request and
// response bodies.
const slotDateLayout = "2006-01-02"

// parseSlotDates converts a list of YYYY-MM-DD strings into a
// normalized (UTC midnight, deduplicated, sorted) date set.
func parseSlotDates(raw []string) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		d, err := time.Parse(slotDateLayout, strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return booking.NormalizeDates(dates), nil
}

func formatSlotDates(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.UTC().Format(slotDateLayout))
	}
	return out
}

type listingBody struct {
	CarID       uint64   `json:"car_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	PriceCents  uint32   `json:"price_cents"`
	Location    string   `json:"location"`
	Slots       []string `json:"slots"` // initial bookable dates, YYYY-MM-DD
}

// listingResp is the JSON shape returned for a single listing; slot
// dates are included when loaded.
type listingResp struct {
	ID          uint64   `json:"id"`
	OwnerID     uint64   `json:"owner_id"`
	CarID       uint64   `json:"car_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	PriceCents  uint32   `json:"price_cents"`
	Location    string   `json:"location"`
	IsAvailable bool     `json:"is_available"`
	PostedAt    string   `json:"posted_at"`
	Slots       []string `json:"slots,omitempty"`
}

func toListingResp(l *repository.ListingRecord, slots []time.Time) listingResp {
	resp := listingResp{
		ID:          l.ID,
		OwnerID:     l.OwnerID,
		CarID:       l.CarID,
		Title:       l.Title,
		PriceCents:  l.PriceCents,
		Location:    l.Location,
		IsAvailable: l.IsAvailable,
		PostedAt:    l.PostedAt.UTC().Format(time.RFC3339),
	}
	if l.Description.Valid {
		resp.Description = l.Description.String
	}
	if slots != nil {
		resp.Slots = formatSlotDates(slots)
	}
	return resp
}

// CreateListing handles POST /v1/listings and publishes a listing for
// one of the owner's cars together with its initial slot pool.
func (h *OwnerHandler) CreateListing(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body listingBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Title = strings.TrimSpace(body.Title)
	body.Location = strings.TrimSpace(body.Location)
	if body.Title == "" || body.Location == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and location are required"})
	}
	if body.PriceCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents must be positive"})
	}
	slots, err := parseSlotDates(body.Slots)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slots must be YYYY-MM-DD dates"})
	}

	ctx := c.Request().Context()
	// The car must exist and belong to the publishing owner.
	if _, err := h.Cars.GetByIDAndOwner(ctx, body.CarID, ownerID); err != nil {
		if errors.Is(err, repository.ErrCarNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "car not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load car"})
	}

	desc := sql.NullString{String: strings.TrimSpace(body.Description)}
	desc.Valid = desc.String != ""
	rec := &repository.ListingRecord{
		OwnerID:     ownerID,
		CarID:       body.CarID,
		Title:       body.Title,
		Description: desc,
		PriceCents:  body.PriceCents,
		Location:    body.Location,
	}
	if err := h.Listings.Create(ctx, rec, slots); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create listing"})
	}
	return c.JSON(http.StatusCreated, toListingResp(rec, slots))
}

// ListMyListings handles GET /v1/listings and returns the owner's
// listings without slot detail.
func (h *OwnerHandler) ListMyListings(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	listings, err := h.Listings.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list listings"})
	}
	out := make([]listingResp, 0, len(listings))
	for i := range listings {
		out = append(out, toListingResp(&listings[i], nil))
	}
	return c.JSON(http.StatusOK, out)
}

// GetListing handles GET /v1/listings/:id for the authenticated owner
// and includes the current open slot dates.
func (h *OwnerHandler) GetListing(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	ctx := c.Request().Context()
	rec, err := h.Listings.GetByID(ctx, id)
	if err != nil || rec.OwnerID != ownerID {
		if err == nil || errors.Is(err, repository.ErrListingNotFound) {
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
	return c.JSON(http.StatusOK, toListingResp(rec, slots))
}

// UpdateListing handles PUT /v1/listings/:id.  Only presentation
// fields change here; slots and availability belong to the booking
// flow.
func (h *OwnerHandler) UpdateListing(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	var body listingBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Title = strings.TrimSpace(body.Title)
	body.Location = strings.TrimSpace(body.Location)
	if body.Title == "" || body.Location == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and location are required"})
	}
	if body.PriceCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents must be positive"})
	}
	desc := sql.NullString{String: strings.TrimSpace(body.Description)}
	desc.Valid = desc.String != ""
	err = h.Listings.Update(c.Request().Context(), id, ownerID, body.Title, desc, body.PriceCents, body.Location)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update listing"})
	}
	rec, err := h.Listings.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load listing"})
	}
	return c.JSON(http.StatusOK, toListingResp(rec, nil))
}

// DeleteListing handles DELETE /v1/listings/:id.  Listings with live
// booking requests cannot be removed and yield 409.
func (h *OwnerHandler) DeleteListing(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	if err := h.Listings.Delete(c.Request().Context(), id, ownerID); err != nil {
		switch {
		case errors.Is(err, repository.ErrListingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "listing has booking requests"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete listing"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
