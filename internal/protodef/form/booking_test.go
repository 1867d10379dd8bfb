package form

import "testing"

func TestValidateApplicationID(t *testing.T) {
	valid := []string{"APP-2026-X7K9QZ", "APP-2025-ABCDEF", "APP-1-2"}
	for _, id := range valid {
		if err := ValidateApplicationID(id); err != nil {
			t.Errorf("%s should be valid, got %v", id, err)
		}
	}
	invalid := []string{"", "APP-", "app-2026-x7k9qz", "APP 2026 X7K9QZ", "2026-X7K9QZ", "APP-2026-"}
	for _, id := range invalid {
		if err := ValidateApplicationID(id); err == nil {
			t.Errorf("%s should be rejected", id)
		}
	}
}

func TestBookInterviewFormValidate(t *testing.T) {
	ok := BookInterviewForm{SlotID: "abc123def456"}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid slot id rejected: %v", err)
	}
	bad := []string{"", "short", "UPPERCASE123", "abc123def45!", "abc123def4567"}
	for _, slotID := range bad {
		f := BookInterviewForm{SlotID: slotID}
		if err := f.Validate(); err == nil {
			t.Errorf("slot id %q should be rejected", slotID)
		}
	}
}
