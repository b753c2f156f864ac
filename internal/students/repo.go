package students

import "context"

// ListQuery filters and pages a student listing. Search matches name, email,
// roll number, or student id as a case-insensitive substring.
type ListQuery struct {
	Search string
	Limit  int
	Offset int
}

// Repo defines persistence operations for students. Create and Update return
// ErrConflict when a unique identifier is taken; FindBy, Update, and Delete
// return ErrNotFound when nothing matches.
type Repo interface {
	Create(ctx context.Context, st Student) error
	FindBy(ctx context.Context, field LookupField, value string) (Student, error)
	Update(ctx context.Context, st Student) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q ListQuery) ([]Student, int, error)
}
