package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"clearance-backend/internal/clearance"
	"clearance-backend/internal/shared/storage/object"
	"clearance-backend/internal/shared/storage/object/local"
	"clearance-backend/internal/students"
)

// minimalPDF builds a valid PDF with the given number of blank pages.
func minimalPDF(pages int) []byte {
	var buf bytes.Buffer
	offsets := []int{}
	write := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	write("<< /Type /Catalog /Pages 2 0 R >>")
	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	write(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages))
	for i := 0; i < pages; i++ {
		write("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type flakyStore struct {
	object.Store
	deleteErr error
	deleted   []string
}

func (s *flakyStore) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.Store.Delete(ctx, key)
}

type docFixture struct {
	svc      *Service
	students *students.Service
	store    *flakyStore
	student  students.Student
}

func newDocFixture(t *testing.T) *docFixture {
	t.Helper()
	studentSvc := students.NewService(students.NewMemoryRepo(), nil, nil, clearance.CompletionWhenAllPreviouslyFalse)
	st, err := studentSvc.Create(context.Background(), students.CreateInput{
		StudentID:  "U2022-010",
		Email:      "grace@uni.edu",
		RollNumber: "R-010",
		Name:       "Grace",
	})
	if err != nil {
		t.Fatalf("create student: %v", err)
	}
	store := &flakyStore{Store: local.New(t.TempDir())}
	svc := &Service{
		Store:    store,
		Records:  studentSvc,
		Provider: "local",
		BaseURL:  "http://localhost:8080/",
		Now:      func() time.Time { return time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC) },
	}
	return &docFixture{svc: svc, students: studentSvc, store: store, student: st}
}

var errBucketGone = errors.New("bucket gone")
