package db

import (
	"testing"
	"time"

	"github.com/polaris-rocketry/polaris-server/internal/protodef/model"
)

func TestApplyWindowBudget(t *testing.T) {
	rule := RateLimitRule{MaxRequests: 3, Window: time.Minute}
	now := time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC)

	var counter *model.RateLimitCounterDo
	for i := 0; i < 3; i++ {
		var result RateLimitResult
		counter, result = applyWindow(counter, "1.2.3.4:bookInterview", rule, now)
		if !result.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if result.Remaining != rule.MaxRequests-(i+1) {
			t.Errorf("request %d: remaining %d, want %d", i+1, result.Remaining, rule.MaxRequests-(i+1))
		}
	}

	_, result := applyWindow(counter, "1.2.3.4:bookInterview", rule, now.Add(time.Second))
	if result.Allowed {
		t.Fatal("fourth request within the window should be denied")
	}
	if result.RetryAfter <= 0 {
		t.Errorf("denied request must carry a positive retry-after, got %v", result.RetryAfter)
	}
	if result.RetryAfter > rule.Window {
		t.Errorf("retry-after %v exceeds the window", result.RetryAfter)
	}
	if !result.ResetAt.Equal(now.Add(rule.Window)) {
		t.Errorf("resetAt %v, want window start plus window %v", result.ResetAt, now.Add(rule.Window))
	}
}

func TestApplyWindowResetAt(t *testing.T) {
	rule := RateLimitRule{MaxRequests: 3, Window: time.Minute}
	now := time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC)

	// Fresh window.
	counter, result := applyWindow(nil, "x:y", rule, now)
	if !result.ResetAt.Equal(now.Add(rule.Window)) {
		t.Errorf("fresh window resetAt %v, want %v", result.ResetAt, now.Add(rule.Window))
	}
	// Counting within the window keeps the original reset point.
	_, result = applyWindow(counter, "x:y", rule, now.Add(20*time.Second))
	if !result.Allowed {
		t.Fatal("second request should be allowed")
	}
	if !result.ResetAt.Equal(now.Add(rule.Window)) {
		t.Errorf("mid-window resetAt %v, want %v", result.ResetAt, now.Add(rule.Window))
	}
}

func TestApplyWindowReset(t *testing.T) {
	rule := RateLimitRule{MaxRequests: 3, Window: time.Minute}
	now := time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC)

	counter := &model.RateLimitCounterDo{
		ID:          "1.2.3.4:bookInterview",
		Count:       3,
		WindowStart: now,
	}
	if _, result := applyWindow(counter, counter.ID, rule, now); result.Allowed {
		t.Fatal("budget is spent, request should be denied")
	}

	// One full window later the counter starts over.
	fresh, result := applyWindow(counter, counter.ID, rule, now.Add(rule.Window))
	if !result.Allowed {
		t.Fatal("request after window reset should be allowed")
	}
	if fresh.Count != 1 {
		t.Errorf("fresh window should count 1, got %d", fresh.Count)
	}
	if !fresh.WindowStart.Equal(now.Add(rule.Window)) {
		t.Errorf("fresh window start %v, want %v", fresh.WindowStart, now.Add(rule.Window))
	}
}

func TestApplyWindowSeparateIdentifiers(t *testing.T) {
	rule := RateLimitRule{MaxRequests: 1, Window: time.Minute}
	now := time.Now()

	_, first := applyWindow(nil, "a:bookInterview", rule, now)
	_, second := applyWindow(nil, "b:bookInterview", rule, now)
	if !first.Allowed || !second.Allowed {
		t.Fatal("independent identifiers must not share a budget")
	}
}

func TestApplyWindowMinimumRetryAfter(t *testing.T) {
	rule := RateLimitRule{MaxRequests: 1, Window: time.Minute}
	start := time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC)
	counter := &model.RateLimitCounterDo{ID: "x:y", Count: 1, WindowStart: start}

	// 100ms before the window ends the retry hint still rounds up to a second.
	_, result := applyWindow(counter, counter.ID, rule, start.Add(rule.Window-100*time.Millisecond))
	if result.Allowed {
		t.Fatal("request should be denied")
	}
	if result.RetryAfter < time.Second {
		t.Errorf("retry-after %v should never be below one second", result.RetryAfter)
	}
}
