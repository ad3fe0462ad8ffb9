package handler // handler package exposes the notification inbox endpoints

import (
	"errors"   // errors matches repository sentinels
	"net/http" // http provides status code constants
	"time"     // time formats timestamps

	"github.com/labstack/echo/v4" // echo is the web framework used for handlers

	"github.com/ridehive/ridehive-api/internal/repository" // repository holds the data access layer
)

// NotificationHandler exposes the per-user notification inbox.
type NotificationHandler struct {
	Notifications *repository.NotificationRepo
}

// NewNotificationHandler constructs a NotificationHandler and panics
// when the repository is nil.
func NewNotificationHandler(n *repository.NotificationRepo) *NotificationHandler {
	if n == nil {
		panic("nil repository passed to NewNotificationHandler")
	}
	return &NotificationHandler{Notifications: n}
}

type notificationResp struct {
	ID        uint64 `json:"id"`
	Kind      string `json:"kind"`
	RequestID uint64 `json:"request_id"`
	ListingID uint64 `json:"listing_id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

func toNotificationResp(n *repository.NotificationRecord) notificationResp {
	return notificationResp{
		ID:        n.ID,
		Kind:      n.Kind,
		RequestID: n.RequestID,
		ListingID: n.ListingID,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// List handles GET /v1/notifications.  Stale booking_request prompts
// whose request has already been resolved are filtered out by the
// repository query.
func (h *NotificationHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	recs, err := h.Notifications.ListByRecipient(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list notifications"})
	}
	out := make([]notificationResp, 0, len(recs))
	for i := range recs {
		out = append(out, toNotificationResp(&recs[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/notifications/:id.
func (h *NotificationHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid notification id"})
	}
	rec, err := h.Notifications.GetByID(c.Request().Context(), id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "notification not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load notification"})
	}
	return c.JSON(http.StatusOK, toNotificationResp(rec))
}

// MarkRead handles PUT /v1/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid notification id"})
	}
	if err := h.Notifications.MarkRead(c.Request().Context(), id, userID); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "notification not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not mark notification read"})
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllRead handles PUT /v1/notifications/read-all and reports how
// many rows changed.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	n, err := h.Notifications.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not mark notifications read"})
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": n})
}

// UnreadCount handles GET /v1/notifications/unread-count.
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	n, err := h.Notifications.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not count notifications"})
	}
	return c.JSON(http.StatusOK, echo.Map{"unread": n})
}

// Delete handles DELETE /v1/notifications/:id.
func (h *NotificationHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid notification id"})
	}
	if err := h.Notifications.Delete(c.Request().Context(), id, userID); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "notification not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete notification"})
	}
	return c.NoContent(http.StatusNoContent)
}
