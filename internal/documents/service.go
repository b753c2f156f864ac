package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"clearance-backend/internal/clearance"
	"clearance-backend/internal/shared/storage/object"
	"clearance-backend/internal/shared/telemetry"
	"clearance-backend/internal/students"
)

// MaxUploadSize caps a single document upload.
const MaxUploadSize = 10 << 20 // 10MB

// Records is the student-side bookkeeping the documents service depends on.
type Records interface {
	GetByID(ctx context.Context, id string) (students.Student, error)
	ResolveStudentID(ctx context.Context, key string) (string, error)
	AddDocument(ctx context.Context, studentID string, dept clearance.Department, doc students.Document) (students.Document, error)
	RemoveDocument(ctx context.Context, studentID string, dept clearance.Department, docID string) (students.Document, error)
	ListDocuments(ctx context.Context, studentID string, dept clearance.Department) (map[clearance.Department][]students.Document, error)
}

// Service stores supporting documents and records them on the student.
type Service struct {
	Store    object.Store
	Records  Records
	Provider string
	BaseURL  string
	Now      func() time.Time
}

// Upload validates the file, saves it, and attaches it to (studentID, dept).
func (s *Service) Upload(ctx context.Context, studentID string, dept clearance.Department, fileName string, r io.Reader) (students.Document, error) {
	if !dept.Known() {
		return students.Document{}, fmt.Errorf("%w: unknown department %q", ErrInvalidInput, dept)
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return students.Document{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if _, err := s.Records.GetByID(ctx, studentID); err != nil {
		return students.Document{}, err
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return students.Document{}, fmt.Errorf("%w: read upload: %v", ErrInvalidInput, err)
	}
	if len(data) > MaxUploadSize {
		return students.Document{}, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, MaxUploadSize)
	}
	info, err := inspect(data, fileName)
	if err != nil {
		return students.Document{}, err
	}

	obj, err := s.Store.Put(ctx, object.PutInput{
		Owner:       studentID,
		FileName:    fileName,
		ContentType: info.MimeType,
		Body:        bytes.NewReader(data),
	})
	if err != nil {
		return students.Document{}, fmt.Errorf("%w: save: %w", ErrStorage, err)
	}

	id := uuid.NewString()
	doc := students.Document{
		ID:               id,
		URL:              s.downloadURL(dept, id),
		StorageKey:       obj.Key,
		StorageProvider:  s.provider(),
		OriginalFilename: fileName,
		FileType:         info.MimeType,
		SizeBytes:        obj.Size,
		PageCount:        info.PageCount,
		UploadedAt:       s.now(),
	}
	if _, err := s.Records.AddDocument(ctx, studentID, dept, doc); err != nil {
		s.deleteObject(ctx, studentID, doc)
		return students.Document{}, err
	}

	telemetry.Info("document.uploaded", map[string]any{
		"student_id":  studentID,
		"department":  string(dept),
		"document_id": doc.ID,
		"file_type":   doc.FileType,
		"size_bytes":  doc.SizeBytes,
		"page_count":  doc.PageCount,
	})
	return doc, nil
}

// Delete detaches the document and then removes its object. Object removal
// failures are logged; the record is gone either way.
func (s *Service) Delete(ctx context.Context, studentID string, dept clearance.Department, docID string) error {
	doc, err := s.Records.RemoveDocument(ctx, studentID, dept, docID)
	if err != nil {
		return err
	}
	s.deleteObject(ctx, studentID, doc)
	return nil
}

// List returns documents grouped by department, optionally narrowed to dept.
func (s *Service) List(ctx context.Context, studentID string, dept clearance.Department) (map[clearance.Department][]students.Document, error) {
	return s.Records.ListDocuments(ctx, studentID, dept)
}

// ListForKey resolves an admin lookup key before listing. The returned URLs
// point at the admin download route for the resolved student.
func (s *Service) ListForKey(ctx context.Context, key string, dept clearance.Department) (string, map[clearance.Department][]students.Document, error) {
	id, err := s.Records.ResolveStudentID(ctx, key)
	if err != nil {
		return "", nil, err
	}
	docs, err := s.Records.ListDocuments(ctx, id, dept)
	if err != nil {
		return "", nil, err
	}
	out := make(map[clearance.Department][]students.Document, len(docs))
	for d, list := range docs {
		rewritten := make([]students.Document, len(list))
		for i, doc := range list {
			doc.URL = s.adminDownloadURL(id, d, doc.ID)
			rewritten[i] = doc
		}
		out[d] = rewritten
	}
	return id, out, nil
}

// Open returns the document metadata and a reader over its content.
func (s *Service) Open(ctx context.Context, studentID string, dept clearance.Department, docID string) (students.Document, io.ReadCloser, error) {
	docs, err := s.Records.ListDocuments(ctx, studentID, dept)
	if err != nil {
		return students.Document{}, nil, err
	}
	for _, doc := range docs[dept] {
		if doc.ID != docID {
			continue
		}
		body, err := s.Store.Open(ctx, doc.StorageKey)
		if err != nil {
			return students.Document{}, nil, fmt.Errorf("%w: open: %w", ErrStorage, err)
		}
		return doc, body, nil
	}
	return students.Document{}, nil, students.ErrDocumentNotFound
}

func (s *Service) deleteObject(ctx context.Context, studentID string, doc students.Document) {
	if doc.StorageKey == "" {
		return
	}
	if err := s.Store.Delete(ctx, doc.StorageKey); err != nil {
		telemetry.Warn("document.object_delete_failed", map[string]any{
			"student_id":  studentID,
			"document_id": doc.ID,
			"provider":    doc.StorageProvider,
			"error":       err.Error(),
		})
	}
}

// downloadURL is the owner's route; it is what gets stored on the record.
func (s *Service) downloadURL(dept clearance.Department, id string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/api/v1/students/me/documents/" + string(dept) + "/" + id
}

func (s *Service) adminDownloadURL(studentID string, dept clearance.Department, id string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/api/v1/admin/students/" + url.PathEscape(studentID) + "/documents/" + string(dept) + "/" + id
}

func (s *Service) provider() string {
	if s.Provider == "" {
		return "local"
	}
	return s.Provider
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
