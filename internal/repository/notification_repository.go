package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ridehive/ridehive-api/internal/model"
)

// NotificationRecord mirrors the schema of the notifications table.
type NotificationRecord struct {
	ID          uint64
	RecipientID uint64
	Kind        string
	RequestID   uint64
	ListingID   uint64
	Title       string
	Message     string
	IsRead      bool
	CreatedAt   time.Time
}

// ErrNotificationNotFound is returned when a notification lookup fails
// or the row belongs to a different recipient.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepo provides persistence for in-app notifications.  The
// booking coordinator writes and deletes rows inside its own
// transaction; the read-side methods back the notification inbox
// endpoints.
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo returns a new NotificationRepo bound to the given
// database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// CreateTx inserts a notification within the scope of an existing
// transaction and populates the generated ID.  The caller must commit
// or roll back the transaction.
func (r *NotificationRepo) CreateTx(ctx context.Context, tx *sql.Tx, n *NotificationRecord) error {
	const q = `INSERT INTO notifications (recipient_id, kind, request_id, listing_id, title, message, is_read)
	           VALUES (?, ?, ?, ?, ?, ?, 0)`
	res, err := tx.ExecContext(ctx, q, n.RecipientID, n.Kind, n.RequestID, n.ListingID, n.Title, n.Message)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// DeleteByRequestAndKindTx removes every notification of the given
// kind tied to a request, inside the transaction, and returns how many
// rows were removed.  Zero removed rows is a valid outcome (the prompt
// may already be gone after a partial failure); callers log it rather
// than fail.
func (r *NotificationRepo) DeleteByRequestAndKindTx(ctx context.Context, tx *sql.Tx, requestID uint64, kind model.NotificationKind) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM notifications WHERE request_id = ? AND kind = ?`, requestID, string(kind))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByRecipient returns the notification inbox for a user, newest
// first.  booking_request rows whose request has already left PENDING
// are excluded at read time: they are stale pending-action prompts
// that should have been deleted when the request was resolved, and the
// filter guards against a prior partial failure having left them
// behind.  Rows whose request has vanished entirely are skipped for
// the same reason.
func (r *NotificationRepo) ListByRecipient(ctx context.Context, recipientID uint64) ([]NotificationRecord, error) {
	const q = `SELECT n.id, n.recipient_id, n.kind, n.request_id, n.listing_id, n.title, n.message, n.is_read, n.created_at
	           FROM notifications n
	           JOIN requests rq ON rq.id = n.request_id
	           WHERE n.recipient_id = ?
	             AND NOT (n.kind = 'booking_request' AND rq.status <> 'PENDING')
	           ORDER BY n.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]NotificationRecord, 0)
	for rows.Next() {
		var n NotificationRecord
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Kind, &n.RequestID, &n.ListingID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// GetByID returns a single notification owned by the recipient.  It
// returns ErrNotificationNotFound when no row matches.
func (r *NotificationRepo) GetByID(ctx context.Context, id, recipientID uint64) (*NotificationRecord, error) {
	const q = `SELECT id, recipient_id, kind, request_id, listing_id, title, message, is_read, created_at
	           FROM notifications WHERE id = ? AND recipient_id = ?`
	var n NotificationRecord
	err := r.db.QueryRowContext(ctx, q, id, recipientID).
		Scan(&n.ID, &n.RecipientID, &n.Kind, &n.RequestID, &n.ListingID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &n, nil
}

// MarkRead flags a single notification as read.  It returns
// ErrNotificationNotFound when the row does not exist or belongs to a
// different recipient.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, recipientID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND recipient_id = ?`, id, recipientID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Row may exist but already be read; distinguish from absence.
		if _, err := r.GetByID(ctx, id, recipientID); err != nil {
			return err
		}
	}
	return nil
}

// MarkAllRead flags every unread notification of the recipient as read
// and returns how many rows changed.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, recipientID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE recipient_id = ? AND is_read = 0`, recipientID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UnreadCount returns the number of unread notifications for a user.
func (r *NotificationRepo) UnreadCount(ctx context.Context, recipientID uint64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND is_read = 0`, recipientID).Scan(&n)
	return n, err
}

// Delete removes a notification owned by the recipient.  It returns
// ErrNotificationNotFound when no row matches.
func (r *NotificationRepo) Delete(ctx context.Context, id, recipientID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = ? AND recipient_id = ?`, id, recipientID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
