package notifications

import "time"

// Type categorises a notification.
type Type string

const (
	TypeMessage             Type = "message"
	TypeClearanceCompletion Type = "clearance_completion"
	TypeSystem              Type = "system"
)

// Notification is a message targeted at a single student.
type Notification struct {
	ID        string    `json:"id" bson:"_id"`
	StudentID string    `json:"student_id" bson:"student_id"`
	Title     string    `json:"title" bson:"title"`
	Message   string    `json:"message" bson:"message"`
	Type      Type      `json:"type" bson:"type"`
	Read      bool      `json:"read" bson:"read"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Input carries the fields required to emit a notification.
type Input struct {
	StudentID string `json:"student_id" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Message   string `json:"message" validate:"required"`
	Type      Type   `json:"type" validate:"omitempty,oneof=message clearance_completion system"`
}
