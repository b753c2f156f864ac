package notifications

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fixedResolver map[string]string

func (r fixedResolver) ResolveStudentID(ctx context.Context, key string) (string, error) {
	if id, ok := r[key]; ok {
		return id, nil
	}
	return "", ErrStudentNotFound
}

type failingRepo struct {
	*MemoryRepo
}

func (failingRepo) Create(ctx context.Context, n Notification) error {
	return errors.New("connection reset")
}

func newTestService(t *testing.T) (*Service, *MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	calls := 0
	svc.Now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Minute)
	}
	return svc, repo
}

func TestEmitValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      Input
		wantErr bool
	}{
		{name: "valid", in: Input{StudentID: "s1", Title: "Hi", Message: "hello"}},
		{name: "blank title", in: Input{StudentID: "s1", Title: "  ", Message: "hello"}, wantErr: true},
		{name: "blank message", in: Input{StudentID: "s1", Title: "Hi", Message: ""}, wantErr: true},
		{name: "missing student", in: Input{Title: "Hi", Message: "hello"}, wantErr: true},
		{name: "unknown type", in: Input{StudentID: "s1", Title: "Hi", Message: "hello", Type: "alert"}, wantErr: true},
		{name: "completion type", in: Input{StudentID: "s1", Title: "Done", Message: "ok", Type: TypeClearanceCompletion}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, repo := newTestService(t)
			n, err := svc.Emit(context.Background(), tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				items, _ := repo.ListByStudent(context.Background(), "s1")
				if len(items) != 0 {
					t.Fatalf("expected nothing persisted, got %d", len(items))
				}
				return
			}
			if err != nil {
				t.Fatalf("Emit: %v", err)
			}
			if n.ID == "" || n.Read {
				t.Fatalf("unexpected notification: %+v", n)
			}
		})
	}
}

func TestEmitDefaultsTypeToMessage(t *testing.T) {
	svc, _ := newTestService(t)
	n, err := svc.Emit(context.Background(), Input{StudentID: "s1", Title: " Hi ", Message: "hello"})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if n.Type != TypeMessage {
		t.Fatalf("expected type message, got %q", n.Type)
	}
	if n.Title != "Hi" {
		t.Fatalf("expected trimmed title, got %q", n.Title)
	}
}

func TestEmitPersistenceFailure(t *testing.T) {
	svc := NewService(failingRepo{NewMemoryRepo()}, nil)
	_, err := svc.Emit(context.Background(), Input{StudentID: "s1", Title: "Hi", Message: "hello"})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestEmitForKeyResolvesStudent(t *testing.T) {
	svc, repo := newTestService(t)
	svc.Students = fixedResolver{"ROLL-7": "student-7"}

	n, err := svc.EmitForKey(context.Background(), "ROLL-7", Input{Title: "Hi", Message: "hello"})
	if err != nil {
		t.Fatalf("EmitForKey: %v", err)
	}
	if n.StudentID != "student-7" {
		t.Fatalf("expected resolved id, got %q", n.StudentID)
	}
	items, _ := repo.ListByStudent(context.Background(), "student-7")
	if len(items) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(items))
	}

	if _, err := svc.EmitForKey(context.Background(), "nobody", Input{Title: "Hi", Message: "hello"}); !errors.Is(err, ErrStudentNotFound) {
		t.Fatalf("expected ErrStudentNotFound, got %v", err)
	}
}

func TestListMarkReadAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	first, err := svc.Emit(ctx, Input{StudentID: "s1", Title: "first", Message: "a"})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	second, err := svc.Emit(ctx, Input{StudentID: "s1", Title: "second", Message: "b"})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	other, err := svc.Emit(ctx, Input{StudentID: "s2", Title: "other", Message: "c"})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}

	items, err := svc.ListForStudent(ctx, "s1")
	if err != nil {
		t.Fatalf("ListForStudent: %v", err)
	}
	if len(items) != 2 || items[0].ID != second.ID || items[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", items)
	}

	if err := svc.MarkRead(ctx, other.ID, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound marking foreign notification, got %v", err)
	}
	if err := svc.MarkRead(ctx, first.ID, "s1"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	updated, err := svc.MarkAllRead(ctx, "s1")
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 updated, got %d", updated)
	}

	if err := svc.Delete(ctx, other.ID, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting foreign notification, got %v", err)
	}
	if err := svc.Delete(ctx, other.ID, ""); err != nil {
		t.Fatalf("admin Delete: %v", err)
	}

	removed, err := svc.DeleteByStudent(ctx, "s1")
	if err != nil {
		t.Fatalf("DeleteByStudent: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	all, err := svc.ListAll(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty store, got %d", len(all))
	}
}
