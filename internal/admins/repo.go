package admins

import (
	"context"
	"time"
)

// Repo defines persistence operations for admins.
type Repo interface {
	Create(ctx context.Context, a Admin) error
	GetByID(ctx context.Context, id string) (Admin, error)
	GetByEmail(ctx context.Context, email string) (Admin, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}
