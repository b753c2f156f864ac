package client

import "time"

// Student mirrors the student record returned by the API.
type Student struct {
	ID                   string                `json:"id"`
	StudentID            string                `json:"student_id"`
	Email                string                `json:"email"`
	RollNumber           string                `json:"roll_number"`
	Name                 string                `json:"name"`
	Department           string                `json:"department"`
	ClearanceStatus      map[string]bool       `json:"clearance_status"`
	ClearanceCompletedAt *time.Time            `json:"clearance_completed_at"`
	Documents            map[string][]Document `json:"documents,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

// Document mirrors an uploaded supporting document.
type Document struct {
	ID               string    `json:"id"`
	URL              string    `json:"url"`
	OriginalFilename string    `json:"original_filename"`
	FileType         string    `json:"file_type"`
	SizeBytes        int64     `json:"size_bytes"`
	PageCount        int       `json:"page_count,omitempty"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// StudentPage is one page of GET /admin/students.
type StudentPage struct {
	Items  []Student `json:"items"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

// Verification is the public certificate check result.
type Verification struct {
	Student          Student   `json:"student"`
	IsCleared        bool      `json:"isCleared"`
	VerificationDate time.Time `json:"verificationDate"`
}

// Notification mirrors a student notification.
type Notification struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Inbox is the signed-in student's notification list.
type Inbox struct {
	Items  []Notification `json:"items"`
	Unread int            `json:"unread"`
}

// CreateStudentInput is the body of POST /admin/students.
type CreateStudentInput struct {
	StudentID  string `json:"student_id"`
	Email      string `json:"email"`
	RollNumber string `json:"roll_number"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
}

// StatusUpdate is the body of PUT /admin/students/{id}/status.
type StatusUpdate struct {
	ClearanceStatus     map[string]bool `json:"clearance_status"`
	NotificationMessage string          `json:"notification_message,omitempty"`
}

// NotificationInput is the body of POST /admin/notifications.
type NotificationInput struct {
	StudentID string `json:"student_id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type,omitempty"`
}
