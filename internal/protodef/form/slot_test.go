package form

import (
	"testing"
	"time"
)

func TestSlotCreateFormValidate(t *testing.T) {
	future := time.Now().Add(24 * time.Hour).Unix()
	ok := SlotCreateForm{StartTime: future, EndTime: future + 3600}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid slot rejected: %v", err)
	}

	swapped := SlotCreateForm{StartTime: future + 3600, EndTime: future}
	if err := swapped.Validate(); err != ErrSlotOrder {
		t.Errorf("swapped times: got %v, want %v", err, ErrSlotOrder)
	}

	past := time.Now().Add(-time.Hour).Unix()
	stale := SlotCreateForm{StartTime: past, EndTime: past + 3600}
	if err := stale.Validate(); err != ErrSlotInPast {
		t.Errorf("past slot: got %v, want %v", err, ErrSlotInPast)
	}
}

func TestSlotBulkCreateFormValidate(t *testing.T) {
	ok := SlotBulkCreateForm{Day: "2026-09-07", StartTime: "09:00", EndTime: "11:30", DurationMinutes: 60}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid bulk form rejected: %v", err)
	}

	bad := []SlotBulkCreateForm{
		{Day: "07.09.2026", StartTime: "09:00", EndTime: "11:30", DurationMinutes: 60},
		{Day: "2026-09-07", StartTime: "9am", EndTime: "11:30", DurationMinutes: 60},
		{Day: "2026-09-07", StartTime: "09:00", EndTime: "11:30", DurationMinutes: 5},
		{Day: "2026-09-07", StartTime: "09:00", EndTime: "11:30", DurationMinutes: 600},
	}
	for i, f := range bad {
		if err := f.Validate(); err == nil {
			t.Errorf("case %d should be rejected", i)
		}
	}
}
