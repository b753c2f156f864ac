package notifications

import "context"

// Repo defines persistence operations for notifications.
// An empty studentID on MarkRead or Delete matches any owner.
type Repo interface {
	Create(ctx context.Context, n Notification) error
	ListByStudent(ctx context.Context, studentID string) ([]Notification, error)
	List(ctx context.Context, limit, offset int) ([]Notification, error)
	MarkRead(ctx context.Context, id, studentID string) error
	MarkAllRead(ctx context.Context, studentID string) (int, error)
	Delete(ctx context.Context, id, studentID string) error
	DeleteByStudent(ctx context.Context, studentID string) (int, error)
}
