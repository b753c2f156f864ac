package notifications

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, student_id, title, message, type, read, created_at`

func (r *PGRepo) Create(ctx context.Context, n Notification) error {
	const query = `
INSERT INTO notifications (id, student_id, title, message, type, read, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		n.ID,
		n.StudentID,
		n.Title,
		n.Message,
		string(n.Type),
		n.Read,
		n.CreatedAt,
	)
	return err
}

// ListByStudent returns a student's notifications, newest first.
func (r *PGRepo) ListByStudent(ctx context.Context, studentID string) ([]Notification, error) {
	const query = `
SELECT ` + selectColumns + `
FROM notifications
WHERE student_id = $1
ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}

// List returns all notifications, newest first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT ` + selectColumns + `
FROM notifications
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (r *PGRepo) MarkRead(ctx context.Context, id, studentID string) error {
	const query = `
UPDATE notifications
SET read = TRUE
WHERE id = $1 AND ($2 = '' OR student_id = $2)`
	res, err := r.DB.ExecContext(ctx, query, id, studentID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PGRepo) MarkAllRead(ctx context.Context, studentID string) (int, error) {
	const query = `
UPDATE notifications
SET read = TRUE
WHERE student_id = $1 AND read = FALSE`
	res, err := r.DB.ExecContext(ctx, query, studentID)
	if err != nil {
		return 0, err
	}
	updated, _ := res.RowsAffected()
	return int(updated), nil
}

func (r *PGRepo) Delete(ctx context.Context, id, studentID string) error {
	const query = `
DELETE FROM notifications
WHERE id = $1 AND ($2 = '' OR student_id = $2)`
	res, err := r.DB.ExecContext(ctx, query, id, studentID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *PGRepo) DeleteByStudent(ctx context.Context, studentID string) (int, error) {
	const query = `DELETE FROM notifications WHERE student_id = $1`
	res, err := r.DB.ExecContext(ctx, query, studentID)
	if err != nil {
		return 0, err
	}
	removed, _ := res.RowsAffected()
	return int(removed), nil
}

func scanNotifications(rows *sql.Rows) ([]Notification, error) {
	out := make([]Notification, 0)
	for rows.Next() {
		var n Notification
		var kind string
		if err := rows.Scan(
			&n.ID,
			&n.StudentID,
			&n.Title,
			&n.Message,
			&kind,
			&n.Read,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		n.Type = Type(kind)
		out = append(out, n)
	}
	return out, rows.Err()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
