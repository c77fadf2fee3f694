package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
)

const notificationColumns = "id, user_id, title, body, type, link, dedupe_key, created_at"

func scanNotification(s rowScanner) (*core.Notification, error) {
	var (
		n         core.Notification
		dedupe    sql.NullString
		createdAt string
	)
	if err := s.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.Type, &n.Link, &dedupe, &createdAt); err != nil {
		return nil, err
	}
	n.DedupeKey = dedupe.String
	n.CreatedAt = parseTimestamp(createdAt)
	return &n, nil
}

// insertNotification stores n unless another notification already carries
// its dedupe key. It reports whether a row was written.
func (r *Repository) insertNotification(ctx context.Context, q querier, n core.Notification) (bool, error) {
	var dedupe sql.NullString
	if n.DedupeKey != "" {
		dedupe = sql.NullString{String: n.DedupeKey, Valid: true}
	}
	res, err := q.ExecContext(ctx, r.rebind(`INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT (dedupe_key) DO NOTHING`),
		n.ID, n.UserID, n.Title, n.Body, n.Type, n.Link, dedupe, n.CreatedAt.UTC().Format(timestampLayout))
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	return affected > 0, nil
}

// CreateNotification stores a notification outside of a ledger transaction.
func (r *Repository) CreateNotification(ctx context.Context, n core.Notification) (bool, error) {
	return r.insertNotification(ctx, r.db, n)
}

// GetNotification returns one notification.
func (r *Repository) GetNotification(ctx context.Context, id string) (*core.Notification, error) {
	n, err := scanNotification(r.db.QueryRowContext(ctx,
		r.rebind("SELECT "+notificationColumns+" FROM notifications WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Entity: "notification", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

// ListNotifications returns a user's notifications, newest first.
func (r *Repository) ListNotifications(ctx context.Context, userID string) ([]core.Notification, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind("SELECT "+notificationColumns+
		" FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id"), userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []core.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}
