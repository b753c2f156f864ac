package students

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"clearance-backend/internal/clearance"
	"clearance-backend/internal/notifications"
	"clearance-backend/internal/shared/telemetry"
)

// NotificationEmitter persists notifications on behalf of the status update flow.
type NotificationEmitter interface {
	Emit(ctx context.Context, in notifications.Input) (notifications.Notification, error)
	DeleteByStudent(ctx context.Context, studentID string) (int, error)
}

// ObjectRemover deletes stored document objects.
type ObjectRemover interface {
	Delete(ctx context.Context, key string) error
}

// Service contains business logic for student records.
type Service struct {
	Repo          Repo
	Notifications NotificationEmitter
	Objects       ObjectRemover
	Policy        clearance.CompletionPolicy
	Now           func() time.Time

	locks    keyedMutex
	validate *validator.Validate
}

// NewService constructs a Service. notes and objects may be nil.
func NewService(repo Repo, notes NotificationEmitter, objects ObjectRemover, policy clearance.CompletionPolicy) *Service {
	return &Service{
		Repo:          repo,
		Notifications: notes,
		Objects:       objects,
		Policy:        policy,
		Now:           func() time.Time { return time.Now().UTC() },
		validate:      newValidator(),
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

// Create registers a student with every department not cleared.
func (s *Service) Create(ctx context.Context, in CreateInput) (Student, error) {
	in.StudentID = strings.TrimSpace(in.StudentID)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.RollNumber = strings.TrimSpace(in.RollNumber)
	in.Name = strings.TrimSpace(in.Name)
	in.Department = strings.TrimSpace(in.Department)

	if err := s.checker().Struct(in); err != nil {
		return Student{}, fmt.Errorf("%w: %s", ErrInvalidInput, describe(err))
	}

	now := s.now()
	st := Student{
		ID:              uuid.NewString(),
		StudentID:       in.StudentID,
		Email:           in.Email,
		RollNumber:      in.RollNumber,
		Name:            in.Name,
		Department:      in.Department,
		ClearanceStatus: clearance.NewStatus(),
		Documents:       map[clearance.Department][]Document{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Repo.Create(ctx, st); err != nil {
		return Student{}, wrapRepoErr("create", err)
	}
	telemetry.Info("student.created", map[string]any{"student_id": st.ID})
	return st, nil
}

// Get resolves key through AdminLookup.
func (s *Service) Get(ctx context.Context, key string) (Student, error) {
	return Resolve(ctx, s.Repo, AdminLookup, key)
}

// GetByID loads a student by primary id only.
func (s *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return Resolve(ctx, s.Repo, []LookupField{ByID}, id)
}

// FindByEmail loads a student by email only.
func (s *Service) FindByEmail(ctx context.Context, email string) (Student, error) {
	return Resolve(ctx, s.Repo, []LookupField{ByEmail}, email)
}

// ResolveStudentID maps any admin lookup key onto the student's primary id.
func (s *Service) ResolveStudentID(ctx context.Context, key string) (string, error) {
	st, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return st.ID, nil
}

// List returns a page of students and the total match count.
func (s *Service) List(ctx context.Context, q ListQuery) ([]Student, int, error) {
	items, total, err := s.Repo.List(ctx, q)
	if err != nil {
		return nil, 0, wrapRepoErr("list", err)
	}
	return items, total, nil
}

// UpdateProfile applies non-nil fields of in to the student resolved by key.
func (s *Service) UpdateProfile(ctx context.Context, key string, in UpdateInput) (Student, error) {
	found, err := s.Get(ctx, key)
	if err != nil {
		return Student{}, err
	}
	unlock := s.locks.Lock(found.ID)
	defer unlock()

	st, err := s.GetByID(ctx, found.ID)
	if err != nil {
		return Student{}, err
	}

	apply := func(dst *string, src *string, name string, lower bool) error {
		if src == nil {
			return nil
		}
		v := strings.TrimSpace(*src)
		if lower {
			v = strings.ToLower(v)
		}
		if v == "" && name != "department" {
			return fmt.Errorf("%w: %s cannot be blank", ErrInvalidInput, name)
		}
		*dst = v
		return nil
	}
	if err := apply(&st.StudentID, in.StudentID, "student_id", false); err != nil {
		return Student{}, err
	}
	if err := apply(&st.Email, in.Email, "email", true); err != nil {
		return Student{}, err
	}
	if err := apply(&st.RollNumber, in.RollNumber, "roll_number", false); err != nil {
		return Student{}, err
	}
	if err := apply(&st.Name, in.Name, "name", false); err != nil {
		return Student{}, err
	}
	if err := apply(&st.Department, in.Department, "department", false); err != nil {
		return Student{}, err
	}
	if in.Email != nil {
		if err := s.checker().Var(st.Email, "email"); err != nil {
			return Student{}, fmt.Errorf("%w: email is invalid", ErrInvalidInput)
		}
	}

	st.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, st); err != nil {
		return Student{}, wrapRepoErr("update", err)
	}
	return st, nil
}

// Delete removes the student, their notifications, and their stored documents.
// Notification and object cleanup failures are logged and do not fail the call.
func (s *Service) Delete(ctx context.Context, key string) error {
	found, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	unlock := s.locks.Lock(found.ID)
	defer unlock()

	if err := s.Repo.Delete(ctx, found.ID); err != nil {
		return wrapRepoErr("delete", err)
	}

	removed := 0
	if s.Notifications != nil {
		n, err := s.Notifications.DeleteByStudent(ctx, found.ID)
		if err != nil {
			telemetry.Error("student.delete.notifications_failed", map[string]any{
				"student_id": found.ID,
				"error":      err.Error(),
			})
		}
		removed = n
	}

	objects := 0
	for _, docs := range found.Documents {
		for _, doc := range docs {
			s.removeObject(ctx, found.ID, doc)
			objects++
		}
	}

	telemetry.Info("student.deleted", map[string]any{
		"student_id":            found.ID,
		"notifications_removed": removed,
		"documents_removed":     objects,
	})
	return nil
}

// AddDocument appends doc to the student's list for dept.
func (s *Service) AddDocument(ctx context.Context, studentID string, dept clearance.Department, doc Document) (Document, error) {
	if !dept.Known() {
		return Document{}, fmt.Errorf("%w: %w: %s", ErrInvalidInput, clearance.ErrUnknownDepartment, dept)
	}
	unlock := s.locks.Lock(studentID)
	defer unlock()

	st, err := s.GetByID(ctx, studentID)
	if err != nil {
		return Document{}, err
	}
	if st.Documents == nil {
		st.Documents = map[clearance.Department][]Document{}
	}
	st.Documents[dept] = append(st.Documents[dept], doc)
	st.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, st); err != nil {
		return Document{}, wrapRepoErr("add document", err)
	}
	return doc, nil
}

// RemoveDocument detaches a document from the student and returns it.
func (s *Service) RemoveDocument(ctx context.Context, studentID string, dept clearance.Department, docID string) (Document, error) {
	if !dept.Known() {
		return Document{}, fmt.Errorf("%w: %w: %s", ErrInvalidInput, clearance.ErrUnknownDepartment, dept)
	}
	unlock := s.locks.Lock(studentID)
	defer unlock()

	st, err := s.GetByID(ctx, studentID)
	if err != nil {
		return Document{}, err
	}
	docs := st.Documents[dept]
	idx := -1
	for i, d := range docs {
		if d.ID == docID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Document{}, ErrDocumentNotFound
	}
	removed := docs[idx]
	st.Documents[dept] = append(docs[:idx:idx], docs[idx+1:]...)
	st.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, st); err != nil {
		return Document{}, wrapRepoErr("remove document", err)
	}
	return removed, nil
}

// ListDocuments returns the student's documents, optionally for one department.
func (s *Service) ListDocuments(ctx context.Context, studentID string, dept clearance.Department) (map[clearance.Department][]Document, error) {
	if dept != "" && !dept.Known() {
		return nil, fmt.Errorf("%w: %w: %s", ErrInvalidInput, clearance.ErrUnknownDepartment, dept)
	}
	st, err := s.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	out := make(map[clearance.Department][]Document)
	for _, d := range clearance.Departments {
		if dept != "" && d != dept {
			continue
		}
		docs := st.Documents[d]
		if docs == nil {
			docs = []Document{}
		}
		out[d] = docs
	}
	return out, nil
}

func (s *Service) removeObject(ctx context.Context, studentID string, doc Document) {
	if s.Objects == nil || doc.StorageKey == "" {
		return
	}
	if err := s.Objects.Delete(ctx, doc.StorageKey); err != nil {
		telemetry.Warn("document.object_delete_failed", map[string]any{
			"student_id":  studentID,
			"document_id": doc.ID,
			"error":       err.Error(),
		})
	}
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
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
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
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "email":
			parts = append(parts, fe.Field()+" must be a valid email")
		default:
			parts = append(parts, fe.Field()+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}
