package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/amqp"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/storage"
)

// NotificationWorker consumes stored-notification announcements and hands
// them off for delivery. Delivery channels live outside this service, so
// the hand-off is a structured log line carrying the notification.
type NotificationWorker struct {
	storage *storage.Repository
}

func NewNotificationWorker(storage *storage.Repository) *NotificationWorker {
	return &NotificationWorker{storage: storage}
}

// HandleNotificationMessage loads the notification named by msg and logs
// the hand-off.
func (w *NotificationWorker) HandleNotificationMessage(ctx context.Context, msg *amqp.NotificationMessage) error {
	n, err := w.storage.GetNotification(ctx, msg.ID)
	var nf *core.NotFoundError
	if errors.As(err, &nf) {
		slog.WarnContext(ctx, "Notification no longer exists, dropping message", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get notification: %w", err)
	}

	slog.InfoContext(ctx, "Notification ready for delivery",
		"id", n.ID,
		"user_id", n.UserID,
		"type", n.Type,
		"title", n.Title,
		"link", n.Link,
		"published_at", msg.Timestamp)
	return nil
}
