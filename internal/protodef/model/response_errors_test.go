package model

import (
	"net/http"
	"testing"
)

func TestHTTPStatusOf(t *testing.T) {
	cases := []struct {
		code string
		want int
	}{
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthenticated, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeInvalidStage, http.StatusConflict},
		{ErrCodeAlreadyScheduled, http.StatusConflict},
		{ErrCodeSlotUnavailable, http.StatusConflict},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeMeetingProvisioningFailed, http.StatusBadGateway},
		{ErrCodeExternalService, http.StatusBadGateway},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"SOMETHING_NEW", http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatusOf(c.code); got != c.want {
			t.Errorf("HTTPStatusOf(%s) = %d, want %d", c.code, got, c.want)
		}
	}
}

func TestRateLimitedErrorDetails(t *testing.T) {
	err := NewResponseErrorRateLimited(42)
	if err.Code != ErrCodeRateLimited {
		t.Fatalf("wrong code %s", err.Code)
	}
	if err.Details["retryAfterSeconds"] != int64(42) {
		t.Errorf("details = %v, want retryAfterSeconds 42", err.Details)
	}
}

func TestFillPages(t *testing.T) {
	page := Pagination{}
	page.FillPages(1, 10, 10, 25)
	if page.EndPage || page.NextPageNum != 2 {
		t.Errorf("page 1 of 25: endPage=%v next=%d", page.EndPage, page.NextPageNum)
	}
	page.FillPages(3, 10, 5, 25)
	if !page.EndPage || page.NextPageNum != 3 {
		t.Errorf("page 3 of 25: endPage=%v next=%d", page.EndPage, page.NextPageNum)
	}
}
