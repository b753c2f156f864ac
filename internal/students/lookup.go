package students

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// LookupField names a student identifier that can be searched on.
type LookupField string

const (
	ByID          LookupField = "id"
	ByAlternateID LookupField = "student_id"
	ByEmail       LookupField = "email"
	ByRollNumber  LookupField = "roll_number"
)

// Lookup chains are tried in order; the first match wins.
var (
	StatusUpdateLookup = []LookupField{ByID, ByAlternateID, ByEmail}
	VerifyLookup       = []LookupField{ByID, ByAlternateID, ByRollNumber, ByEmail}
	AdminLookup        = []LookupField{ByID, ByAlternateID, ByEmail, ByRollNumber}
)

// Resolve tries each field of chain against key and returns the first match.
func Resolve(ctx context.Context, repo Repo, chain []LookupField, key string) (Student, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Student{}, ErrNotFound
	}
	for _, field := range chain {
		value := key
		if field == ByEmail {
			value = strings.ToLower(value)
		}
		st, err := repo.FindBy(ctx, field, value)
		if err == nil {
			return st, nil
		}
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return Student{}, fmt.Errorf("%w: find by %s: %w", ErrPersistence, field, err)
	}
	return Student{}, ErrNotFound
}
