package students

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"clearance-backend/internal/clearance"
	"clearance-backend/internal/shared/storage/db"
)

// PGRepo implements Repo using Postgres. Status and documents are JSONB columns.
type PGRepo struct {
	DB *sql.DB
}

const studentColumns = `id, student_id, email, roll_number, name, department, clearance_status, clearance_completed_at, documents, created_at, updated_at`

var lookupColumns = map[LookupField]string{
	ByID:          "id",
	ByAlternateID: "student_id",
	ByEmail:       "email",
	ByRollNumber:  "roll_number",
}

func (r *PGRepo) Create(ctx context.Context, st Student) error {
	status, docs, err := encodeJSONColumns(st)
	if err != nil {
		return err
	}
	const query = `
INSERT INTO students (` + studentColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.DB.ExecContext(ctx, query,
		st.ID,
		st.StudentID,
		st.Email,
		st.RollNumber,
		st.Name,
		st.Department,
		status,
		nullTime(st),
		docs,
		st.CreatedAt,
		st.UpdatedAt,
	)
	if db.IsUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *PGRepo) FindBy(ctx context.Context, field LookupField, value string) (Student, error) {
	column, ok := lookupColumns[field]
	if !ok {
		return Student{}, fmt.Errorf("unsupported lookup field %q", field)
	}
	query := `SELECT ` + studentColumns + ` FROM students WHERE ` + column + ` = $1 LIMIT 1`
	st, err := scanStudent(r.DB.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return Student{}, ErrNotFound
	}
	return st, err
}

func (r *PGRepo) Update(ctx context.Context, st Student) error {
	status, docs, err := encodeJSONColumns(st)
	if err != nil {
		return err
	}
	const query = `
UPDATE students
SET student_id = $2,
    email = $3,
    roll_number = $4,
    name = $5,
    department = $6,
    clearance_status = $7,
    clearance_completed_at = $8,
    documents = $9,
    updated_at = $10
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		st.ID,
		st.StudentID,
		st.Email,
		st.RollNumber,
		st.Name,
		st.Department,
		status,
		nullTime(st),
		docs,
		st.UpdatedAt,
	)
	if db.IsUniqueViolation(err) {
		return ErrConflict
	}
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

func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
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

// List returns students ordered by name, then id, plus the unpaged match count.
func (r *PGRepo) List(ctx context.Context, q ListQuery) ([]Student, int, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	search := strings.TrimSpace(q.Search)

	const where = `
WHERE $1::text = ''
   OR name ILIKE '%' || $1 || '%'
   OR email ILIKE '%' || $1 || '%'
   OR roll_number ILIKE '%' || $1 || '%'
   OR student_id ILIKE '%' || $1 || '%'`

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`+where, search).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+studentColumns+` FROM students`+where+`
ORDER BY name ASC, id ASC
LIMIT $2 OFFSET $3`, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Student, 0)
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (Student, error) {
	var st Student
	var status, docs []byte
	var completedAt sql.NullTime
	if err := row.Scan(
		&st.ID,
		&st.StudentID,
		&st.Email,
		&st.RollNumber,
		&st.Name,
		&st.Department,
		&status,
		&completedAt,
		&docs,
		&st.CreatedAt,
		&st.UpdatedAt,
	); err != nil {
		return Student{}, err
	}
	if completedAt.Valid {
		ts := completedAt.Time.UTC()
		st.ClearanceCompletedAt = &ts
	}
	if len(status) > 0 {
		if err := json.Unmarshal(status, &st.ClearanceStatus); err != nil {
			return Student{}, fmt.Errorf("decode clearance_status: %w", err)
		}
	}
	st.ClearanceStatus = st.ClearanceStatus.Normalize()
	if len(docs) > 0 {
		if err := json.Unmarshal(docs, &st.Documents); err != nil {
			return Student{}, fmt.Errorf("decode documents: %w", err)
		}
	}
	if st.Documents == nil {
		st.Documents = map[clearance.Department][]Document{}
	}
	return st, nil
}

func encodeJSONColumns(st Student) ([]byte, []byte, error) {
	status, err := json.Marshal(st.ClearanceStatus.Normalize())
	if err != nil {
		return nil, nil, err
	}
	documents := st.Documents
	if documents == nil {
		documents = map[clearance.Department][]Document{}
	}
	docs, err := json.Marshal(documents)
	if err != nil {
		return nil, nil, err
	}
	return status, docs, nil
}

func nullTime(st Student) sql.NullTime {
	if st.ClearanceCompletedAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *st.ClearanceCompletedAt, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
