package workflow

import "testing"

func TestLabel_String(t *testing.T) {
	tests := []struct {
		name     string
		label    Label
		expected string
	}{
		{"submit", SubmitLabel(), "SUBMITTED"},
		{"cancel", CancelLabel(), "CANCELED"},
		{"single gate approve", ApproveLabel([]Role{RoleReviewer1}, false), "APPROVED_BY_REVIEWER1"},
		{"combined approve", ApproveLabel([]Role{RoleValidator, RoleReviewer1}, false), "APPROVED_BY_VALIDATOR_AND_REVIEWER1"},
		{"substitute approve", ApproveLabel([]Role{RoleReviewer2}, true), "APPROVED_BY_SUBSTITUTE_FOR_REVIEWER2"},
		{"reject", RejectLabel(RoleValidator, false), "REJECTED_BY_VALIDATOR"},
		{"substitute reject", RejectLabel(RoleReviewer1, true), "REJECTED_BY_SUBSTITUTE_FOR_REVIEWER1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.label.String(); got != tt.expected {
				t.Errorf("Label.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParseLabel_RoundTrip(t *testing.T) {
	labels := []Label{
		SubmitLabel(),
		CancelLabel(),
		ApproveLabel([]Role{RoleValidator}, false),
		ApproveLabel([]Role{RoleValidator, RoleReviewer1}, false),
		ApproveLabel([]Role{RoleReviewer2}, true),
		RejectLabel(RoleReviewer2, false),
		RejectLabel(RoleValidator, true),
	}

	for _, label := range labels {
		s := label.String()
		parsed, err := ParseLabel(s)
		if err != nil {
			t.Fatalf("ParseLabel(%q) error: %v", s, err)
		}
		if parsed.String() != s {
			t.Errorf("round trip changed label: %q -> %q", s, parsed.String())
		}
		if parsed.Action != label.Action || parsed.Substitute != label.Substitute {
			t.Errorf("round trip changed semantics for %q", s)
		}
	}
}

func TestParseLabel_Invalid(t *testing.T) {
	for _, s := range []string{"", "APPROVED", "APPROVED_BY_", "APPROVED_BY_INTERN", "NONSENSE_BY_REVIEWER1"} {
		if _, err := ParseLabel(s); err == nil {
			t.Errorf("ParseLabel(%q) should fail", s)
		}
	}
}

func TestLabel_Clears(t *testing.T) {
	label := ApproveLabel([]Role{RoleValidator, RoleReviewer1}, false)
	if !label.Clears(RoleValidator) || !label.Clears(RoleReviewer1) {
		t.Error("combined label should clear both named gates")
	}
	if label.Clears(RoleReviewer2) {
		t.Error("combined label should not clear an unnamed gate")
	}
}
