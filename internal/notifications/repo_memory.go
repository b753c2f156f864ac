package notifications

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Notification // id -> notification
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Notification)}
}

func (r *MemoryRepo) Create(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[n.ID] = n
	return nil
}

// ListByStudent returns a student's notifications, newest first.
func (r *MemoryRepo) ListByStudent(ctx context.Context, studentID string) ([]Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Notification, 0)
	for _, n := range r.data {
		if n.StudentID == studentID {
			out = append(out, n)
		}
	}
	r.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

// List returns all notifications, newest first, honoring limit/offset.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	all := make([]Notification, 0, len(r.data))
	for _, n := range r.data {
		all = append(all, n)
	}
	r.mu.RUnlock()
	sortNewestFirst(all)

	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []Notification{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

func (r *MemoryRepo) MarkRead(ctx context.Context, id, studentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.data[id]
	if !ok || (studentID != "" && n.StudentID != studentID) {
		return ErrNotFound
	}
	n.Read = true
	r.data[id] = n
	return nil
}

func (r *MemoryRepo) MarkAllRead(ctx context.Context, studentID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	updated := 0
	for id, n := range r.data {
		if n.StudentID == studentID && !n.Read {
			n.Read = true
			r.data[id] = n
			updated++
		}
	}
	return updated, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id, studentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.data[id]
	if !ok || (studentID != "" && n.StudentID != studentID) {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func (r *MemoryRepo) DeleteByStudent(ctx context.Context, studentID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, n := range r.data {
		if n.StudentID == studentID {
			delete(r.data, id)
			removed++
		}
	}
	return removed, nil
}

func sortNewestFirst(ns []Notification) {
	sort.SliceStable(ns, func(i, j int) bool {
		if ns[i].CreatedAt.Equal(ns[j].CreatedAt) {
			return ns[i].ID > ns[j].ID
		}
		return ns[i].CreatedAt.After(ns[j].CreatedAt)
	})
}

var _ Repo = (*MemoryRepo)(nil)
