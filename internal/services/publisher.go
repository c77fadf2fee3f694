package services

import "context"

// Publisher announces committed ledger effects to asynchronous consumers.
// Publishing is best-effort; the worker's pending scan covers lost messages.
type Publisher interface {
	PublishExpenseSync(ctx context.Context, id string, version int64) error
	PublishNotification(ctx context.Context, id, userID, notificationType string) error
}
