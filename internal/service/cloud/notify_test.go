package cloud

import (
	"strings"
	"testing"
	"time"
)

func TestBookingConfirmedBody(t *testing.T) {
	start := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	body := BookingConfirmedBody("Ada Nowak", "APP-2026-X7K9QZ", start, "https://meet.example.org/abc")
	for _, want := range []string{"Ada Nowak", "APP-2026-X7K9QZ", "https://meet.example.org/abc"} {
		if !strings.Contains(body, want) {
			t.Errorf("body is missing %q", want)
		}
	}
	if !strings.Contains(body, start.Format(time.RFC1123)) {
		t.Error("body is missing the interview time")
	}
}

func TestApplicationReceivedBody(t *testing.T) {
	body := ApplicationReceivedBody("Ada Nowak", "APP-2026-X7K9QZ")
	if !strings.Contains(body, "APP-2026-X7K9QZ") {
		t.Error("acknowledgement must contain the application id")
	}
}

func TestSubjectsCarrySiteName(t *testing.T) {
	if !strings.Contains(BookingConfirmedSubject("Polaris Rocketry"), "Polaris Rocketry") {
		t.Error("booking subject is missing the site name")
	}
	if !strings.Contains(ApplicationReceivedSubject("Polaris Rocketry"), "Polaris Rocketry") {
		t.Error("application subject is missing the site name")
	}
}
