package students

import "clearance-backend/internal/clearance"

type statusUpdateRequest struct {
	ClearanceStatus     map[string]bool `json:"clearance_status"`
	NotificationMessage string          `json:"notification_message"`
}

// toStatus keeps keys verbatim so unknown departments reach validation.
func (r statusUpdateRequest) toStatus() clearance.Status {
	out := make(clearance.Status, len(r.ClearanceStatus))
	for k, v := range r.ClearanceStatus {
		out[clearance.Department(k)] = v
	}
	return out
}

// ListResponse is a page of students.
type ListResponse struct {
	Items  []Student `json:"items"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}
