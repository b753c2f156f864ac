package students

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clearance-backend/internal/clearance"
	"clearance-backend/internal/notifications"
)

type fixture struct {
	svc   *Service
	repo  *MemoryRepo
	notes *notifications.Service
	clock *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newFixture(t *testing.T, policy clearance.CompletionPolicy) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)}
	repo := NewMemoryRepo()
	notes := notifications.NewService(notifications.NewMemoryRepo(), nil)
	notes.Now = clock.Now
	svc := NewService(repo, notes, nil, policy)
	svc.Now = clock.Now
	return &fixture{svc: svc, repo: repo, notes: notes, clock: clock}
}

func (f *fixture) seed(t *testing.T, in CreateInput, status clearance.Status) Student {
	t.Helper()
	st, err := f.svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if status != nil {
		st.ClearanceStatus = clearance.Merge(st.ClearanceStatus, status)
		if err := f.repo.Update(context.Background(), st); err != nil {
			t.Fatalf("seed status: %v", err)
		}
	}
	return st
}

func (f *fixture) notificationsFor(t *testing.T, studentID string) []notifications.Notification {
	t.Helper()
	items, err := f.notes.ListForStudent(context.Background(), studentID)
	if err != nil {
		t.Fatalf("ListForStudent: %v", err)
	}
	return items
}

func defaultInput() CreateInput {
	return CreateInput{
		StudentID:  "U2021-001",
		Email:      "Ada@Uni.edu",
		RollNumber: "R-001",
		Name:       "Ada",
		Department: "Computer Science",
	}
}

func allDepartments(v bool) clearance.Status {
	s := clearance.NewStatus()
	for _, d := range clearance.Departments {
		s[d] = v
	}
	return s
}

func TestUpdateStatusAllFalseToAllTrueEmitsTwoNotifications(t *testing.T) {
	f := newFixture(t, clearance.CompletionWhenAllPreviouslyFalse)
	st := f.seed(t, defaultInput(), nil)

	res, err := f.svc.UpdateStatus(context.Background(), st.ID, StatusUpdate{Status: allDepartments(true)})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if len(res.Changes) != 6 {
		t.Fatalf("expected 6 changes, got %d", len(res.Changes))
	}
	if len(res.Notifications) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(res.Notifications))
	}
	if res.Notifications[0].Title != statusUpdatedTitle || res.Notifications[0].Type != notifications.TypeMessage {
		t.Fatalf("unexpected first notification: %+v", res.Notifications[0])
	}
	if res.Notifications[1].Title != completionTitle || res.Notifications[1].Type != notifications.TypeClearanceCompletion {
		t.Fatalf("unexpected second notification: %+v", res.Notifications[1])
	}
	if res.Student.ClearanceCompletedAt == nil {
		t.Fatalf("expected completion timestamp to be set")
	}
	if got := f.notificationsFor(t, st.ID); len(got) != 2 {
		t.Fatalf("expected 2 persisted notifications, got %d", len(got))
	}
}

func TestUpdateStatusFiveTrueToAllTrue(t *testing.T) {
	tests := []struct {
		name          string
		policy        clearance.CompletionPolicy
		wantNotes     int
		wantCompleted bool
	}{
		{name: "all previously false policy", policy: clearance.CompletionWhenAllPreviouslyFalse, wantNotes: 1},
		{name: "on transition policy", policy: clearance.CompletionOnTransition, wantNotes: 2, wantCompleted: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.policy)
			five := allDepartments(true)
			five[clearance.Alumni] = false
			st := f.seed(t, defaultInput(), five)

			res, err := f.svc.UpdateStatus(context.Background(), st.ID, StatusUpdate{
				Status: clearance.Status{clearance.Alumni: true},
			})
			if err != nil {
				t.Fatalf("UpdateStatus: %v", err)
			}
			if len(res.Notifications) != tt.wantNotes {
				t.Fatalf("expected %d notifications, got %d", tt.wantNotes, len(res.Notifications))
			}
			if res.Notifications[0].Message != "alumni: Cleared" {
				t.Fatalf("unexpected message %q", res.Notifications[0].Message)
			}
			hasCompletion := false
			for _, n := range res.Notifications {
				if n.Type == notifications.TypeClearanceCompletion {
					hasCompletion = true
				}
			}
			if hasCompletion != tt.wantCompleted {
				t.Fatalf("completion notification = %v, want %v", hasCompletion, tt.wantCompleted)
			}
			if res.Student.ClearanceCompletedAt == nil {
				t.Fatalf("expected completion timestamp regardless of policy")
			}
		})
	}
}

func TestUpdateStatusIsIdempotent(t *testing.T) {
	f := newFixture(t, clearance.CompletionWhenAllPreviouslyFalse)
	st := f.seed(t, defaultInput(), nil)
	upd := StatusUpdate{Status: clearance.Status{clearance.Hostel: true, clearance.Library: true}}

	first, err := f.svc.UpdateStatus(context.Background(), st.ID, upd)
	if err != nil {
		t.Fatalf("first UpdateStatus: %v", err)
	}
	if len(first.Changes) != 2 || len(first.Notifications) != 1 {
		t.Fatalf("unexpected first result: changes=%d notes=%d", len(first.Changes), len(first.Notifications))
	}
	if first.Notifications[0].Message != "hostel: Cleared\nlibrary: Cleared" {
		t.Fatalf("unexpected message %q", first.Notifications[0].Message)
	}

	second, err := f.svc.UpdateStatus(context.Background(), st.ID, upd)
	if err != nil {
		t.Fatalf("second UpdateStatus: %v", err)
	}
	if len(second.Changes) != 0 || len(second.Notifications) != 0 {
		t.Fatalf("expected no changes on repeat, got changes=%d notes=%d", len(second.Changes), len(second.Notifications))
	}
	if got := f.notificationsFor(t, st.ID); len(got) != 1 {
		t.Fatalf("expected 1 persisted notification, got %d", len(got))
	}
}

func TestUpdateStatusTogglesCompletionTimestamp(t *testing.T) {
	f := newFixture(t, clearance.CompletionWhenAllPreviouslyFalse)
	st := f.seed(t, defaultInput(), nil)
	ctx := context.Background()

	res, err := f.svc.UpdateStatus(ctx, st.ID, StatusUpdate{Status: allDepartments(true)})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	completedAt := res.Student.ClearanceCompletedAt
	if completedAt == nil {
		t.Fatalf("expected completion timestamp")
	}

	res, err = f.svc.UpdateStatus(ctx, st.ID, StatusUpdate{Status: clearance.Status{clearance.Due: true}})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if res.Student.ClearanceCompletedAt == nil || !res.Student.ClearanceCompletedAt.Equal(*completedAt) {
		t.Fatalf("expected timestamp to be kept while still cleared")
	}

	res, err = f.svc.UpdateStatus(ctx, st.ID, StatusUpdate{Status: clearance.Status{clearance.Due: false}})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if res.Student.ClearanceCompletedAt != nil {
		t.Fatalf("expected completion timestamp to be cleared")
	}
	if res.Notifications[0].Message != "due: Not Cleared" {
		t.Fatalf("unexpected message %q", res.Notifications[0].Message)
	}

	stored, err := f.repo.FindBy(ctx, ByID, st.ID)
	if err != nil {
		t.Fatalf("FindBy: %v", err)
	}
	if stored.ClearanceCompletedAt != nil {
		t.Fatalf("expected stored timestamp to be cleared")
	}
}

func TestUpdateStatusOverrideMessage(t *testing.T) {
	f := newFixture(t, clearance.CompletionWhenAllPreviouslyFalse)
	st := f.seed(t, defaultInput(), nil)

	res, err := f.svc.UpdateStatus(context.Background(), st.ID, StatusUpdate{
		Status:  clearance.Status{clearance.Dispensary: true},
		Message: "  Please collect your card.  ",
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if len(res.Notifications) != 1 || res.Notifications[0].Message != "Please collect your card." {
		t.Fatalf("unexpected notifications: %+v", res.Notifications)
	}
}

func TestUpdateStatusResolvesAlternateID(t *testing.T) {
	f := newFixture(t, clearance.CompletionWhenAllPreviouslyFalse)
	other := f.seed(t, CreateInput{
		StudentID:  "U2021-002",
		Email:      "bob@uni.edu",
		RollNumber: "R-002",
		Name:       "Bob",
	}, nil)
	target := f.seed(t, defaultInput(), nil)

	res, err := f.svc.UpdateStatus(context.Background(), target.StudentID, StatusUpdate{
		Status: clearance.Status{clearance.Library: true},
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if res.Student.ID != target.ID {
		t.Fatalf("resolved %s, want %s", res.Student.ID, target.ID)
	}

	byEmail, err := f.svc.UpdateStatus(context.Background(), "ADA@uni.edu", StatusUpdate{
		Status: clearance.Status{clearance.Hostel: true},
	})
	if err != nil {
		t.Fatalf("UpdateStatus by email: %v", err)
	}
	if byEmail.Student.ID != target.ID {
		t.Fatalf("email lookup resolved %s, want %s", byEmail.Student.ID, target.ID)
	}

	untouched, err := f.repo.FindBy(context.Background(), ByID, other.ID)
	if err != nil {
		t.Fatalf("FindBy: %v", err)
	}
	if !clearance.AllFalse(untouched.ClearanceStatus) {
		t.Fatalf("expected other student untouched")
	}
}

func TestUpdateStatusRollNumberIsNotAStatusLookupKey(t *testing.T) {
	f := newFixture(t, clearance.CompletionWhenAllPreviouslyFalse)
	st := f.seed(t, defaultInput(), nil)

	_, err := f.svc.UpdateStatus(context.Background(), st.RollNumber, StatusUpdate{
		Status: clearance.Status{clearance.Library: true},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatusRejectsUnknownDepartment(t *testing.T) {
	f := newFixture(t, clearance.CompletionWhenAllPreviouslyFalse)
	st := f.seed(t, defaultInput(), nil)

	_, err := f.svc.UpdateStatus(context.Background(), st.ID, StatusUpdate{
		Status: clearance.Status{"parking": true, clearance.Hostel: true},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	stored, _ := f.repo.FindBy(context.Background(), ByID, st.ID)
	if stored.ClearanceStatus[clearance.Hostel] {
		t.Fatalf("expected record unchanged")
	}
	if got := f.notificationsFor(t, st.ID); len(got) != 0 {
		t.Fatalf("expected no notifications, got %d", len(got))
	}
}

type failingUpdateRepo struct {
	*MemoryRepo
}

func (failingUpdateRepo) Update(ctx context.Context, st Student) error {
	return errors.New("write timeout")
}

func TestUpdateStatusPersistenceFailureEmitsNothing(t *testing.T) {
	f := newFixture(t, clearance.CompletionWhenAllPreviouslyFalse)
	st := f.seed(t, defaultInput(), nil)
	f.svc.Repo = failingUpdateRepo{f.repo}

	_, err := f.svc.UpdateStatus(context.Background(), st.ID, StatusUpdate{Status: allDepartments(true)})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	stored, _ := f.repo.FindBy(context.Background(), ByID, st.ID)
	if !clearance.AllFalse(stored.ClearanceStatus) || stored.ClearanceCompletedAt != nil {
		t.Fatalf("expected record unchanged, got %+v", stored)
	}
	if got := f.notificationsFor(t, st.ID); len(got) != 0 {
		t.Fatalf("expected no notifications, got %d", len(got))
	}
}

type failingEmitter struct{}

func (failingEmitter) Emit(ctx context.Context, in notifications.Input) (notifications.Notification, error) {
	return notifications.Notification{}, errors.New("notification store down")
}

func (failingEmitter) DeleteByStudent(ctx context.Context, studentID string) (int, error) {
	return 0, nil
}

func TestUpdateStatusSurvivesNotificationFailure(t *testing.T) {
	f := newFixture(t, clearance.CompletionWhenAllPreviouslyFalse)
	st := f.seed(t, defaultInput(), nil)
	f.svc.Notifications = failingEmitter{}

	res, err := f.svc.UpdateStatus(context.Background(), st.ID, StatusUpdate{Status: allDepartments(true)})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if len(res.Notifications) != 0 {
		t.Fatalf("expected no notifications, got %d", len(res.Notifications))
	}
	stored, _ := f.repo.FindBy(context.Background(), ByID, st.ID)
	if !stored.IsCleared() {
		t.Fatalf("expected status write to stick")
	}
}

func TestUpdateStatusConcurrentUpdatesAreSerialised(t *testing.T) {
	f := newFixture(t, clearance.CompletionOnTransition)
	st := f.seed(t, defaultInput(), nil)

	var wg sync.WaitGroup
	for _, d := range clearance.Departments {
		d := d
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.UpdateStatus(context.Background(), st.ID, StatusUpdate{
				Status: clearance.Status{d: true},
			}); err != nil {
				t.Errorf("UpdateStatus(%s): %v", d, err)
			}
		}()
	}
	wg.Wait()

	stored, err := f.repo.FindBy(context.Background(), ByID, st.ID)
	if err != nil {
		t.Fatalf("FindBy: %v", err)
	}
	if !stored.IsCleared() || stored.ClearanceCompletedAt == nil {
		t.Fatalf("expected every department cleared, got %+v", stored.ClearanceStatus)
	}

	completions := 0
	for _, n := range f.notificationsFor(t, st.ID) {
		if n.Type == notifications.TypeClearanceCompletion {
			completions++
		}
	}
	if completions != 1 {
		t.Fatalf("expected exactly one completion notification, got %d", completions)
	}
}

func TestTransition(t *testing.T) {
	partial := clearance.NewStatus()
	partial[clearance.Hostel] = true
	if got := Transition(clearance.NewStatus(), allDepartments(true)); got != "pending->cleared" {
		t.Fatalf("unexpected transition %q", got)
	}
	if got := Transition(allDepartments(true), partial); got != "cleared->partial" {
		t.Fatalf("unexpected transition %q", got)
	}
}
