package utils

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	if len(id) != 12 {
		t.Fatalf("id length %d, want 12", len(id))
	}
	for _, r := range id {
		if !strings.ContainsRune(AlphaNum, r) {
			t.Fatalf("id contains unexpected rune %q", r)
		}
	}
	if GenerateID() == GenerateID() {
		t.Error("consecutive ids should differ")
	}
}

func TestNewApplicationID(t *testing.T) {
	now := time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC)
	id := NewApplicationID(now)
	if !strings.HasPrefix(id, "APP-2026-") {
		t.Fatalf("unexpected prefix: %s", id)
	}
	segment := strings.TrimPrefix(id, "APP-2026-")
	if len(segment) != 6 {
		t.Fatalf("segment length %d, want 6", len(segment))
	}
	for _, banned := range "01IO" {
		if strings.ContainsRune(segment, banned) {
			t.Errorf("segment contains ambiguous rune %q", banned)
		}
	}
}
