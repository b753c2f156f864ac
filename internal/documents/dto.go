package documents

import (
	"clearance-backend/internal/clearance"
	"clearance-backend/internal/students"
)

// ListResponse groups a student's documents by department.
type ListResponse struct {
	StudentID string                                       `json:"student_id"`
	Documents map[clearance.Department][]students.Document `json:"documents"`
}
