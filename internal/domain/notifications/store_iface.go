package notifications

import "context"

type StoreAPI interface {
	Create(ctx context.Context, n Notification) error
	UserEmail(ctx context.Context, userID string) (string, error)
	List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, notificationID string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	AdminIDs(ctx context.Context, companyID string) ([]string, error)
}
