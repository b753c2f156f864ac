package students

import (
	"time"

	"clearance-backend/internal/clearance"
)

// Document is a supporting file a student uploaded for one department.
type Document struct {
	ID               string    `json:"id" bson:"id"`
	URL              string    `json:"url" bson:"url"`
	StorageKey       string    `json:"storage_key" bson:"storage_key"`
	StorageProvider  string    `json:"storage_provider" bson:"storage_provider"`
	OriginalFilename string    `json:"original_filename" bson:"original_filename"`
	FileType         string    `json:"file_type" bson:"file_type"`
	SizeBytes        int64     `json:"size_bytes" bson:"size_bytes"`
	PageCount        int       `json:"page_count,omitempty" bson:"page_count,omitempty"`
	UploadedAt       time.Time `json:"uploaded_at" bson:"uploaded_at"`
}

// Student is a clearance record. ClearanceCompletedAt is set when every
// department is cleared and reset when one reopens.
type Student struct {
	ID                   string                              `json:"id" bson:"_id"`
	StudentID            string                              `json:"student_id" bson:"student_id"`
	Email                string                              `json:"email" bson:"email"`
	RollNumber           string                              `json:"roll_number" bson:"roll_number"`
	Name                 string                              `json:"name" bson:"name"`
	Department           string                              `json:"department" bson:"department"`
	ClearanceStatus      clearance.Status                    `json:"clearance_status" bson:"clearance_status"`
	ClearanceCompletedAt *time.Time                          `json:"clearance_completed_at" bson:"clearance_completed_at"`
	Documents            map[clearance.Department][]Document `json:"documents" bson:"documents"`
	CreatedAt            time.Time                           `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time                           `json:"updated_at" bson:"updated_at"`
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (s Student) Clone() Student {
	out := s
	out.ClearanceStatus = s.ClearanceStatus.Clone()
	if s.ClearanceCompletedAt != nil {
		ts := *s.ClearanceCompletedAt
		out.ClearanceCompletedAt = &ts
	}
	if s.Documents != nil {
		out.Documents = make(map[clearance.Department][]Document, len(s.Documents))
		for dept, docs := range s.Documents {
			out.Documents[dept] = append([]Document(nil), docs...)
		}
	}
	return out
}

// IsCleared reports whether every department has cleared the student.
func (s Student) IsCleared() bool {
	return clearance.IsFullyCleared(s.ClearanceStatus)
}

// CreateInput holds the fields needed to register a student.
type CreateInput struct {
	StudentID  string `json:"student_id" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	RollNumber string `json:"roll_number" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Department string `json:"department"`
}

// UpdateInput carries profile changes; nil fields are left untouched.
type UpdateInput struct {
	StudentID  *string `json:"student_id"`
	Email      *string `json:"email"`
	RollNumber *string `json:"roll_number"`
	Name       *string `json:"name"`
	Department *string `json:"department"`
}
