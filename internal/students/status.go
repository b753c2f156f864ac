package students

import (
	"context"
	"fmt"
	"strings"

	"clearance-backend/internal/clearance"
	"clearance-backend/internal/notifications"
	"clearance-backend/internal/shared/metrics"
	"clearance-backend/internal/shared/telemetry"
)

const (
	statusUpdatedTitle = "Clearance Status Updated"
	completionTitle    = "Clearance Completed"
	completionMessage  = "Congratulations! You have been cleared by every department. Your clearance certificate is now available."
)

// StatusUpdate is a partial clearance status plus an optional message that
// replaces the generated change summary.
type StatusUpdate struct {
	Status  clearance.Status
	Message string
}

// StatusUpdateResult describes the outcome of UpdateStatus.
type StatusUpdateResult struct {
	Student       Student
	Previous      clearance.Status
	Changes       []clearance.Change
	Notifications []notifications.Notification
}

// UpdateStatus merges upd into the status of the student resolved by key
// through StatusUpdateLookup, toggles the completion timestamp, persists the
// record, and emits up to two notifications. Notification failures are logged
// and never undo the status write.
func (s *Service) UpdateStatus(ctx context.Context, key string, upd StatusUpdate) (StatusUpdateResult, error) {
	if err := clearance.Validate(upd.Status); err != nil {
		return StatusUpdateResult{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	found, err := Resolve(ctx, s.Repo, StatusUpdateLookup, key)
	if err != nil {
		return StatusUpdateResult{}, err
	}

	unlock := s.locks.Lock(found.ID)
	defer unlock()

	// Reload under the lock so the snapshot reflects the latest committed write.
	st, err := s.GetByID(ctx, found.ID)
	if err != nil {
		return StatusUpdateResult{}, err
	}

	prev := st.ClearanceStatus.Normalize()
	merged := clearance.Merge(prev, upd.Status)
	now := s.now()

	cleared := clearance.IsFullyCleared(merged)
	completedNow := false
	switch {
	case cleared && st.ClearanceCompletedAt == nil:
		ts := now
		st.ClearanceCompletedAt = &ts
		completedNow = true
	case !cleared && st.ClearanceCompletedAt != nil:
		st.ClearanceCompletedAt = nil
	}
	st.ClearanceStatus = merged
	st.UpdatedAt = now

	if err := s.Repo.Update(ctx, st); err != nil {
		return StatusUpdateResult{}, wrapRepoErr("update status", err)
	}

	changes := clearance.Diff(prev, upd.Status)
	metrics.IncStatusUpdate()
	for _, c := range changes {
		metrics.IncDepartmentChange(string(c.Department), c.Cleared)
	}
	if completedNow {
		metrics.IncClearanceCompleted()
	}

	result := StatusUpdateResult{
		Student:  st,
		Previous: prev,
		Changes:  changes,
	}

	if len(changes) > 0 {
		message := strings.TrimSpace(upd.Message)
		if message == "" {
			message = clearance.FormatChanges(changes)
		}
		if n, ok := s.emit(ctx, st.ID, notifications.Input{
			StudentID: st.ID,
			Title:     statusUpdatedTitle,
			Message:   message,
			Type:      notifications.TypeMessage,
		}); ok {
			result.Notifications = append(result.Notifications, n)
		}
	}

	if s.Policy.ShouldNotify(prev, merged) {
		if n, ok := s.emit(ctx, st.ID, notifications.Input{
			StudentID: st.ID,
			Title:     completionTitle,
			Message:   completionMessage,
			Type:      notifications.TypeClearanceCompletion,
		}); ok {
			result.Notifications = append(result.Notifications, n)
		}
	}

	telemetry.Info("student.status_updated", map[string]any{
		"student_id":    st.ID,
		"changes":       len(changes),
		"cleared":       cleared,
		"notifications": len(result.Notifications),
	})
	return result, nil
}

func (s *Service) emit(ctx context.Context, studentID string, in notifications.Input) (notifications.Notification, bool) {
	if s.Notifications == nil {
		return notifications.Notification{}, false
	}
	n, err := s.Notifications.Emit(ctx, in)
	if err != nil {
		metrics.IncNotificationFailure()
		telemetry.Error("notification.emit_failed", map[string]any{
			"student_id": studentID,
			"type":       string(in.Type),
			"error":      err.Error(),
		})
		return notifications.Notification{}, false
	}
	return n, true
}

// Transition labels the move between two statuses for request logs.
func Transition(prev, next clearance.Status) string {
	return label(prev) + "->" + label(next)
}

func label(s clearance.Status) string {
	switch {
	case clearance.IsFullyCleared(s):
		return "cleared"
	case clearance.AllFalse(s):
		return "pending"
	default:
		return "partial"
	}
}
