package notifications

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"clearance-backend/internal/shared/metrics"
)

// StudentResolver maps an admin-supplied student key onto a primary id.
type StudentResolver interface {
	ResolveStudentID(ctx context.Context, key string) (string, error)
}

// Service contains business logic for notifications.
type Service struct {
	Repo     Repo
	Students StudentResolver
	Now      func() time.Time

	validate *validator.Validate
}

// NewService constructs a Service. students may be nil.
func NewService(repo Repo, students StudentResolver) *Service {
	return &Service{
		Repo:     repo,
		Students: students,
		Now:      func() time.Time { return time.Now().UTC() },
		validate: newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Emit validates and persists a single notification.
func (s *Service) Emit(ctx context.Context, in Input) (Notification, error) {
	in.StudentID = strings.TrimSpace(in.StudentID)
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	in.Type = Type(strings.TrimSpace(string(in.Type)))
	if in.Type == "" {
		in.Type = TypeMessage
	}

	if err := s.checker().Struct(in); err != nil {
		return Notification{}, fmt.Errorf("%w: %s", ErrInvalidInput, describe(err))
	}

	n := Notification{
		ID:        uuid.NewString(),
		StudentID: in.StudentID,
		Title:     in.Title,
		Message:   in.Message,
		Type:      in.Type,
		CreatedAt: s.now(),
	}
	if err := s.Repo.Create(ctx, n); err != nil {
		return Notification{}, fmt.Errorf("%w: create: %w", ErrPersistence, err)
	}
	metrics.IncNotificationEmitted(string(n.Type))
	return n, nil
}

// EmitForKey resolves key through Students before emitting.
func (s *Service) EmitForKey(ctx context.Context, key string, in Input) (Notification, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Notification{}, fmt.Errorf("%w: student_id is required", ErrInvalidInput)
	}
	if s.Students != nil {
		id, err := s.Students.ResolveStudentID(ctx, key)
		if err != nil {
			return Notification{}, err
		}
		key = id
	}
	in.StudentID = key
	return s.Emit(ctx, in)
}

// ListForStudent returns a student's notifications, newest first.
func (s *Service) ListForStudent(ctx context.Context, studentID string) ([]Notification, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, fmt.Errorf("%w: student id is required", ErrInvalidInput)
	}
	out, err := s.Repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrPersistence, err)
	}
	return out, nil
}

// ListAll returns every notification, newest first.
func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]Notification, error) {
	out, err := s.Repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrPersistence, err)
	}
	return out, nil
}

// MarkRead flags one notification as read. An empty studentID skips the ownership check.
func (s *Service) MarkRead(ctx context.Context, id, studentID string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: notification id is required", ErrInvalidInput)
	}
	return wrapRepoErr("mark read", s.Repo.MarkRead(ctx, id, studentID))
}

// MarkAllRead flags every unread notification of a student and returns the count.
func (s *Service) MarkAllRead(ctx context.Context, studentID string) (int, error) {
	if strings.TrimSpace(studentID) == "" {
		return 0, fmt.Errorf("%w: student id is required", ErrInvalidInput)
	}
	n, err := s.Repo.MarkAllRead(ctx, studentID)
	if err != nil {
		return 0, fmt.Errorf("%w: mark all read: %w", ErrPersistence, err)
	}
	return n, nil
}

// Delete removes a notification. An empty studentID skips the ownership check.
func (s *Service) Delete(ctx context.Context, id, studentID string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: notification id is required", ErrInvalidInput)
	}
	return wrapRepoErr("delete", s.Repo.Delete(ctx, id, studentID))
}

// DeleteByStudent removes every notification owned by a student.
func (s *Service) DeleteByStudent(ctx context.Context, studentID string) (int, error) {
	n, err := s.Repo.DeleteByStudent(ctx, studentID)
	if err != nil {
		return 0, fmt.Errorf("%w: delete by student: %w", ErrPersistence, err)
	}
	return n, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) checker() *validator.Validate {
	if s.validate == nil {
		s.validate = newValidator()
	}
	return s.validate
}

func wrapRepoErr(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "oneof":
			parts = append(parts, field+" must be one of "+fe.Param())
		default:
			parts = append(parts, field+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}
