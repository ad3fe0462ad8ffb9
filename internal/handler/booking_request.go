package handler // handler package exposes the booking request endpoints

import (
	"errors"   // errors unwraps the booking error taxonomy
	"net/http" // http provides status code constants
	"strings"  // strings offers trimming utilities
	"time"     // time parses requested dates

	"github.com/labstack/echo/v4" // echo is the web framework used for handlers

	"github.com/ridehive/ridehive-api/internal/booking"    // booking owns the request lifecycle
	"github.com/ridehive/ridehive-api/internal/model"      // model holds domain types
	"github.com/ridehive/ridehive-api/internal/repository" // repository backs the list endpoints
)

// BookingHandler exposes the booking request lifecycle over HTTP.  All
// state transitions go through the coordinator; the repository is only
// used for the read-side list endpoints.
type BookingHandler struct {
	Coordinator *booking.Coordinator
	Requests    *repository.BookingRequestRepo
}

// NewBookingHandler constructs a BookingHandler and panics if any
// dependency is nil.
func NewBookingHandler(coord *booking.Coordinator, requests *repository.BookingRequestRepo) *BookingHandler {
	if coord == nil || requests == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Coordinator: coord, Requests: requests}
}

type createRequestBody struct {
	ListingID uint64   `json:"listing_id"`
	Dates     []string `json:"dates"` // YYYY-MM-DD
}

type requestResp struct {
	ID             uint64   `json:"id"`
	RequesterID    uint64   `json:"requester_id"`
	ListingID      uint64   `json:"listing_id"`
	Status         string   `json:"status"`
	RequestedDates []string `json:"requested_dates"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

func toRequestResp(id, requesterID, listingID uint64, status string, dates []time.Time, createdAt, updatedAt time.Time) requestResp {
	return requestResp{
		ID:             id,
		RequesterID:    requesterID,
		ListingID:      listingID,
		Status:         status,
		RequestedDates: formatSlotDates(dates),
		CreatedAt:      createdAt.UTC().Format(time.RFC3339),
		UpdatedAt:      updatedAt.UTC().Format(time.RFC3339),
	}
}

// CreateRequest handles POST /v1/requests: a client asks to book a set
// of dates on a listing.
func (h *BookingHandler) CreateRequest(c echo.Context) error {
	requesterID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body createRequestBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ListingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "listing_id is required"})
	}
	dates := make([]time.Time, 0, len(body.Dates))
	for _, s := range body.Dates {
		d, err := time.Parse(slotDateLayout, strings.TrimSpace(s))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must be YYYY-MM-DD"})
		}
		dates = append(dates, d)
	}

	req, err := h.Coordinator.CreateRequest(c.Request().Context(), requesterID, body.ListingID, dates)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, toRequestResp(req.ID, req.RequesterID, req.ListingID, string(req.Status), req.RequestedDates, req.CreatedAt, req.UpdatedAt))
}

// Accept handles PUT /v1/requests/:id/accept for the listing owner.
func (h *BookingHandler) Accept(c echo.Context) error {
	return h.resolve(c, model.StatusApproved)
}

// Decline handles PUT /v1/requests/:id/decline for the listing owner.
func (h *BookingHandler) Decline(c echo.Context) error {
	return h.resolve(c, model.StatusRejected)
}

func (h *BookingHandler) resolve(c echo.Context, target model.RequestStatus) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	ctx := c.Request().Context()
	if target == model.StatusApproved {
		err = h.Coordinator.AcceptRequest(ctx, ownerID, id)
	} else {
		err = h.Coordinator.DeclineRequest(ctx, ownerID, id)
	}
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": string(target)})
}

// MyRequests handles GET /v1/my-requests and returns the requests the
// authenticated client has placed.
func (h *BookingHandler) MyRequests(c echo.Context) error {
	requesterID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	recs, err := h.Requests.ListByRequester(c.Request().Context(), requesterID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list requests"})
	}
	return c.JSON(http.StatusOK, toRequestResps(recs))
}

// IncomingRequests handles GET /v1/requests/incoming and returns the
// requests targeting the authenticated owner's listings.
func (h *BookingHandler) IncomingRequests(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	recs, err := h.Requests.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list requests"})
	}
	return c.JSON(http.StatusOK, toRequestResps(recs))
}

func toRequestResps(recs []repository.BookingRequestRecord) []requestResp {
	out := make([]requestResp, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toRequestResp(rec.ID, rec.RequesterID, rec.ListingID, rec.Status, rec.RequestedDates, rec.CreatedAt, rec.UpdatedAt))
	}
	return out
}

// bookingError maps the booking error taxonomy onto HTTP responses.
// Unknown entities answer 404, rule violations 409 or 400, ownership
// failures 403, exhausted retries 503, everything else 500.
func bookingError(c echo.Context, err error) error {
	var notAvail *booking.DateNotAvailableError
	var conflict *booking.DateConflictError
	var resolved *booking.AlreadyResolvedError
	switch {
	case errors.Is(err, booking.ErrUnknownUser),
		errors.Is(err, booking.ErrUnknownListing),
		errors.Is(err, booking.ErrUnknownRequest):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrNoDatesSelected):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrListingUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrNotListingOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.As(err, &notAvail), errors.As(err, &conflict), errors.As(err, &resolved):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrTxRetriesExhausted):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "temporary conflict, please retry"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking operation failed"})
	}
}
