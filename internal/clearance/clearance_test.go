package clearance

import (
	"errors"
	"testing"
)

func allSet(v bool) Status {
	s := NewStatus()
	for _, d := range Departments {
		s[d] = v
	}
	return s
}

func TestIsFullyCleared(t *testing.T) {
	t.Parallel()

	oneOpen := allSet(true)
	oneOpen[Alumni] = false

	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{name: "nil", status: nil, want: false},
		{name: "empty", status: Status{}, want: false},
		{name: "all false", status: allSet(false), want: false},
		{name: "one open", status: oneOpen, want: false},
		{name: "all true", status: allSet(true), want: true},
		{name: "partial map all true", status: Status{Library: true}, want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsFullyCleared(tt.status); got != tt.want {
				t.Fatalf("IsFullyCleared(%v) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestEverySingleOpenDepartmentBlocksClearance(t *testing.T) {
	for _, d := range Departments {
		s := allSet(true)
		s[d] = false
		if IsFullyCleared(s) {
			t.Fatalf("expected %s=false to block clearance", d)
		}
	}
}

func TestNormalizeFillsMissingKeys(t *testing.T) {
	s := Status{Library: true}.Normalize()
	if len(s) != len(Departments) {
		t.Fatalf("expected %d keys, got %d", len(Departments), len(s))
	}
	if !s[Library] {
		t.Fatalf("expected library to stay cleared")
	}
	if s[Hostel] {
		t.Fatalf("expected hostel to default to false")
	}
}

func TestMergeLeavesInputsUntouched(t *testing.T) {
	base := NewStatus()
	partial := Status{Hostel: true}

	merged := Merge(base, partial)
	if !merged[Hostel] {
		t.Fatalf("expected hostel cleared after merge")
	}
	if base[Hostel] {
		t.Fatalf("merge mutated base")
	}
	if len(merged) != len(Departments) {
		t.Fatalf("expected untouched keys to survive merge")
	}
}

func TestDiffReportsOnlyChangedKeysInCanonicalOrder(t *testing.T) {
	prev := NewStatus()
	prev[Library] = true

	partial := Status{Alumni: true, Library: true, Dispensary: true}
	changes := Diff(prev, partial)

	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d: %+v", len(changes), changes)
	}
	if changes[0].Department != Dispensary || changes[1].Department != Alumni {
		t.Fatalf("unexpected order: %+v", changes)
	}
	if got := Diff(Merge(prev, partial), partial); len(got) != 0 {
		t.Fatalf("expected reapplied update to produce no changes, got %+v", got)
	}
}

func TestFormatChanges(t *testing.T) {
	got := FormatChanges([]Change{
		{Department: Hostel, Cleared: true},
		{Department: Due, Cleared: false},
	})
	want := "hostel: Cleared\ndue: Not Cleared"
	if got != want {
		t.Fatalf("FormatChanges = %q, want %q", got, want)
	}
}

func TestValidateRejectsUnknownDepartments(t *testing.T) {
	if err := Validate(Status{Library: true, "Library": true, "gym": false}); !errors.Is(err, ErrUnknownDepartment) {
		t.Fatalf("expected ErrUnknownDepartment, got %v", err)
	}
	if err := Validate(Status{Library: true, AcademicDepartment: false}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseDepartment(t *testing.T) {
	if d, ok := ParseDepartment(" Academic_Department "); !ok || d != AcademicDepartment {
		t.Fatalf("expected academic_department, got %q ok=%v", d, ok)
	}
	if _, ok := ParseDepartment("gym"); ok {
		t.Fatalf("expected gym to be rejected")
	}
}

func TestCompletionPolicy(t *testing.T) {
	t.Parallel()

	fiveOfSix := allSet(true)
	fiveOfSix[Alumni] = false

	tests := []struct {
		name   string
		policy CompletionPolicy
		prev   Status
		next   Status
		want   bool
	}{
		{name: "narrow from nothing", policy: CompletionWhenAllPreviouslyFalse, prev: allSet(false), next: allSet(true), want: true},
		{name: "narrow from five", policy: CompletionWhenAllPreviouslyFalse, prev: fiveOfSix, next: allSet(true), want: false},
		{name: "narrow not cleared", policy: CompletionWhenAllPreviouslyFalse, prev: allSet(false), next: fiveOfSix, want: false},
		{name: "transition from five", policy: CompletionOnTransition, prev: fiveOfSix, next: allSet(true), want: true},
		{name: "transition already cleared", policy: CompletionOnTransition, prev: allSet(true), next: allSet(true), want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.policy.ShouldNotify(tt.prev, tt.next); got != tt.want {
				t.Fatalf("ShouldNotify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseCompletionPolicy(t *testing.T) {
	if got := ParseCompletionPolicy("ON_TRANSITION"); got != CompletionOnTransition {
		t.Fatalf("expected on_transition, got %q", got)
	}
	if got := ParseCompletionPolicy(""); got != CompletionWhenAllPreviouslyFalse {
		t.Fatalf("expected default policy, got %q", got)
	}
}
