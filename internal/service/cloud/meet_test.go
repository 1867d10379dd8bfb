package cloud

import (
	"testing"
	"time"
)

func TestTokenCacheExpiry(t *testing.T) {
	cache := &TokenCache{}
	now := time.Now()

	if _, ok := cache.Get(now); ok {
		t.Fatal("empty cache must miss")
	}
	cache.Set("tok", now.Add(time.Minute))
	token, ok := cache.Get(now)
	if !ok || token != "tok" {
		t.Fatal("live token must hit")
	}
	if _, ok := cache.Get(now.Add(time.Minute)); ok {
		t.Fatal("token at its expiry must miss")
	}
	if _, ok := cache.Get(now.Add(2 * time.Minute)); ok {
		t.Fatal("expired token must miss")
	}
}

func TestMockMeetServiceDistinctMeetings(t *testing.T) {
	mock := &MockMeetService{}
	first, err := mock.CreateMeeting(nil, MeetingRequest{Topic: "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := mock.CreateMeeting(nil, MeetingRequest{Topic: "b"})
	if first.EventID == second.EventID {
		t.Error("mock meetings must have distinct event ids")
	}
	if first.JoinURL == "" {
		t.Error("mock meeting must carry a join url")
	}

	if err := mock.CancelMeeting(nil, first.EventID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.Canceled) != 1 || mock.Canceled[0] != first.EventID {
		t.Error("cancellation was not recorded")
	}
}
