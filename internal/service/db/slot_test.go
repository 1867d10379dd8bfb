package db

import (
	"testing"
	"time"
)

func TestGenerateSlotsExactFit(t *testing.T) {
	windows, err := GenerateSlots("2026-09-07", "09:00", "11:00", time.Hour, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(windows))
	}
	if !windows[0].Start.Equal(time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("wrong first start: %v", windows[0].Start)
	}
	if !windows[1].End.Equal(time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC)) {
		t.Errorf("wrong last end: %v", windows[1].End)
	}
}

func TestGenerateSlotsDropsRemainder(t *testing.T) {
	// 09:00-11:30 with 60 minute slots: the trailing half hour is dropped.
	windows, err := GenerateSlots("2026-09-07", "09:00", "11:30", time.Hour, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(windows))
	}
	last := windows[len(windows)-1]
	if !last.End.Equal(time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC)) {
		t.Errorf("remainder was not dropped, last end %v", last.End)
	}
}

func TestGenerateSlotsConsecutive(t *testing.T) {
	windows, err := GenerateSlots("2026-09-07", "10:00", "16:00", 45*time.Minute, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(windows); i++ {
		if !windows[i].Start.Equal(windows[i-1].End) {
			t.Errorf("window %d does not start where %d ends", i, i-1)
		}
	}
	for _, w := range windows {
		if w.End.Sub(w.Start) != 45*time.Minute {
			t.Errorf("window %v-%v has wrong duration", w.Start, w.End)
		}
	}
}

func TestGenerateSlotsTooShortRange(t *testing.T) {
	windows, err := GenerateSlots("2026-09-07", "09:00", "09:30", time.Hour, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 0 {
		t.Fatalf("expected no windows, got %d", len(windows))
	}
}

func TestGenerateSlotsBadInput(t *testing.T) {
	if _, err := GenerateSlots("garbage", "09:00", "11:00", time.Hour, time.UTC); err == nil {
		t.Error("expected error for malformed day")
	}
	if _, err := GenerateSlots("2026-09-07", "9am", "11:00", time.Hour, time.UTC); err == nil {
		t.Error("expected error for malformed start time")
	}
}
