package admins

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"clearance-backend/internal/shared/storage/db"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, a Admin) error {
	const query = `
INSERT INTO admins (id, name, email, password_hash, last_login, created_at)
VALUES ($1, $2, $3, $4, NULL, $5)`
	_, err := r.DB.ExecContext(ctx, query, a.ID, a.Name, a.Email, a.PasswordHash, a.CreatedAt)
	if db.IsUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Admin, error) {
	return r.getBy(ctx, "id", id)
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (Admin, error) {
	return r.getBy(ctx, "email", email)
}

func (r *PGRepo) getBy(ctx context.Context, column, value string) (Admin, error) {
	query := `
SELECT id, name, email, password_hash, last_login, created_at
FROM admins
WHERE ` + column + ` = $1
LIMIT 1`
	var a Admin
	var lastLogin sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, value).Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.PasswordHash,
		&lastLogin,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Admin{}, ErrNotFound
		}
		return Admin{}, err
	}
	if lastLogin.Valid {
		ts := lastLogin.Time.UTC()
		a.LastLogin = &ts
	}
	return a, nil
}

func (r *PGRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE admins SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
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
