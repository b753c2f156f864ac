package clearance

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Department is one of the fixed clearance categories.
type Department string

const (
	Dispensary         Department = "dispensary"
	Hostel             Department = "hostel"
	Due                Department = "due"
	Library            Department = "library"
	AcademicDepartment Department = "academic_department"
	Alumni             Department = "alumni"
)

// Departments lists every clearance department in canonical order.
var Departments = []Department{
	Dispensary,
	Hostel,
	Due,
	Library,
	AcademicDepartment,
	Alumni,
}

// ErrUnknownDepartment is returned when a status map names a department outside the fixed set.
var ErrUnknownDepartment = errors.New("unknown department")

// ParseDepartment maps a raw key to a Department.
func ParseDepartment(raw string) (Department, bool) {
	d := Department(strings.ToLower(strings.TrimSpace(raw)))
	if !d.Known() {
		return "", false
	}
	return d, true
}

// Known reports whether d is exactly one of the fixed departments.
func (d Department) Known() bool {
	for _, known := range Departments {
		if d == known {
			return true
		}
	}
	return false
}

// Status is the per-department completion map of a student.
type Status map[Department]bool

// NewStatus returns a status with every department present and not cleared.
func NewStatus() Status {
	s := make(Status, len(Departments))
	for _, d := range Departments {
		s[d] = false
	}
	return s
}

// Normalize returns a copy holding exactly the six departments; missing keys become false.
func (s Status) Normalize() Status {
	out := NewStatus()
	for _, d := range Departments {
		out[d] = s[d]
	}
	return out
}

// Clone copies the map as-is.
func (s Status) Clone() Status {
	if s == nil {
		return nil
	}
	out := make(Status, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Validate rejects keys outside the fixed department set.
func Validate(partial Status) error {
	var unknown []string
	for k := range partial {
		if !k.Known() {
			unknown = append(unknown, string(k))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("%w: %s", ErrUnknownDepartment, strings.Join(unknown, ", "))
}

// IsFullyCleared reports whether every flag in the map is true.
// An empty or nil map is never cleared.
func IsFullyCleared(s Status) bool {
	if len(s) == 0 {
		return false
	}
	for _, cleared := range s {
		if !cleared {
			return false
		}
	}
	return true
}

// AllFalse reports whether no flag in the map is set.
func AllFalse(s Status) bool {
	for _, cleared := range s {
		if cleared {
			return false
		}
	}
	return true
}

// Merge overwrites base with the keys present in partial. Neither input is modified.
func Merge(base, partial Status) Status {
	out := base.Clone()
	if out == nil {
		out = make(Status, len(partial))
	}
	for k, v := range partial {
		out[k] = v
	}
	return out
}

// Change records a department whose flag moved during an update.
type Change struct {
	Department Department `json:"department"`
	Cleared    bool       `json:"cleared"`
}

// Diff lists the departments in partial whose value differs from prev, in canonical order.
func Diff(prev, partial Status) []Change {
	var changes []Change
	for _, d := range Departments {
		next, ok := partial[d]
		if !ok {
			continue
		}
		if prev[d] != next {
			changes = append(changes, Change{Department: d, Cleared: next})
		}
	}
	return changes
}

// FormatChanges renders one "<department>: Cleared|Not Cleared" line per change.
func FormatChanges(changes []Change) string {
	lines := make([]string, 0, len(changes))
	for _, c := range changes {
		label := "Not Cleared"
		if c.Cleared {
			label = "Cleared"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", c.Department, label))
	}
	return strings.Join(lines, "\n")
}
