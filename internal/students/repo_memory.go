package students

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Student // id -> student
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Student)}
}

func (r *MemoryRepo) Create(ctx context.Context, st Student) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[st.ID]; ok {
		return ErrConflict
	}
	if r.takenLocked(st) {
		return ErrConflict
	}
	r.data[st.ID] = st.Clone()
	return nil
}

func (r *MemoryRepo) FindBy(ctx context.Context, field LookupField, value string) (Student, error) {
	if err := ctx.Err(); err != nil {
		return Student{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if field == ByID {
		st, ok := r.data[value]
		if !ok {
			return Student{}, ErrNotFound
		}
		return st.Clone(), nil
	}
	for _, st := range r.data {
		if fieldValue(st, field) == value {
			return st.Clone(), nil
		}
	}
	return Student{}, ErrNotFound
}

func (r *MemoryRepo) Update(ctx context.Context, st Student) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[st.ID]; !ok {
		return ErrNotFound
	}
	if r.takenLocked(st) {
		return ErrConflict
	}
	r.data[st.ID] = st.Clone()
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// List returns students ordered by name, then id.
func (r *MemoryRepo) List(ctx context.Context, q ListQuery) ([]Student, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	r.mu.RLock()
	matched := make([]Student, 0, len(r.data))
	for _, st := range r.data {
		if needle == "" || matches(st, needle) {
			matched = append(matched, st.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name == matched[j].Name {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].Name < matched[j].Name
	})

	total := len(matched)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []Student{}, total, nil
	}
	end := total
	if q.Limit > 0 && offset+q.Limit < end {
		end = offset + q.Limit
	}
	return matched[offset:end], total, nil
}

// takenLocked reports whether another student already holds one of st's unique identifiers.
func (r *MemoryRepo) takenLocked(st Student) bool {
	for id, other := range r.data {
		if id == st.ID {
			continue
		}
		if other.StudentID == st.StudentID || other.Email == st.Email || other.RollNumber == st.RollNumber {
			return true
		}
	}
	return false
}

func fieldValue(st Student, field LookupField) string {
	switch field {
	case ByID:
		return st.ID
	case ByAlternateID:
		return st.StudentID
	case ByEmail:
		return st.Email
	case ByRollNumber:
		return st.RollNumber
	default:
		return ""
	}
}

func matches(st Student, needle string) bool {
	for _, v := range []string{st.Name, st.Email, st.RollNumber, st.StudentID} {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

var _ Repo = (*MemoryRepo)(nil)
