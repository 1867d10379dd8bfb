package model

import "net/http"

// ResponseError the error half of the wire envelope. Code is a stable
// machine-readable string; Details carries optional structured hints such as
// retryAfterSeconds.
type ResponseError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

const (
	ErrCodeBadRequest                = "BAD_REQUEST"
	ErrCodeValidation                = "VALIDATION_FAILED"
	ErrCodeUnauthenticated           = "UNAUTHENTICATED"
	ErrCodeForbidden                 = "FORBIDDEN"
	ErrCodeNotFound                  = "NOT_FOUND"
	ErrCodeInvalidStage              = "INVALID_STAGE"
	ErrCodeAlreadyScheduled          = "ALREADY_SCHEDULED"
	ErrCodeSlotUnavailable           = "SLOT_UNAVAILABLE"
	ErrCodeRateLimited               = "RATE_LIMITED"
	ErrCodeMeetingProvisioningFailed = "MEETING_PROVISIONING_FAILED"
	ErrCodeExternalService           = "EXTERNAL_SERVICE"
	ErrCodeInternal                  = "INTERNAL"
)

// errorHTTPStatus explicit code -> HTTP status mapping. Every error path goes
// through this table; codes missing from it answer 500.
var errorHTTPStatus = map[string]int{
	ErrCodeBadRequest:                http.StatusBadRequest,
	ErrCodeValidation:                http.StatusBadRequest,
	ErrCodeUnauthenticated:           http.StatusUnauthorized,
	ErrCodeForbidden:                 http.StatusForbidden,
	ErrCodeNotFound:                  http.StatusNotFound,
	ErrCodeInvalidStage:              http.StatusConflict,
	ErrCodeAlreadyScheduled:          http.StatusConflict,
	ErrCodeSlotUnavailable:           http.StatusConflict,
	ErrCodeRateLimited:               http.StatusTooManyRequests,
	ErrCodeMeetingProvisioningFailed: http.StatusBadGateway,
	ErrCodeExternalService:           http.StatusBadGateway,
	ErrCodeInternal:                  http.StatusInternalServerError,
}

// HTTPStatusOf returns the HTTP status an error code is reported with.
func HTTPStatusOf(code string) int {
	if status, ok := errorHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func NewResponseErrorBadRequest() *ResponseError {
	return &ResponseError{
		Code:    ErrCodeBadRequest,
		Message: "bad request",
	}
}

func NewResponseErrorValidation(err error) *ResponseError {
	return &ResponseError{
		Code:    ErrCodeValidation,
		Message: err.Error(),
	}
}

func NewResponseErrorUnauthenticated() *ResponseError {
	return &ResponseError{
		Code:    ErrCodeUnauthenticated,
		Message: "not signed in",
	}
}

func NewResponseErrorForbidden() *ResponseError {
	return &ResponseError{
		Code:    ErrCodeForbidden,
		Message: "account is not approved for admin access",
	}
}

func NewResponseErrorNotFound(what string) *ResponseError {
	return &ResponseError{
		Code:    ErrCodeNotFound,
		Message: "no such " + what,
	}
}

func NewResponseErrorInvalidStage() *ResponseError {
	return &ResponseError{
		Code:    ErrCodeInvalidStage,
		Message: "application is not in interview stage",
	}
}

func NewResponseErrorAlreadyScheduled() *ResponseError {
	return &ResponseError{
		Code:    ErrCodeAlreadyScheduled,
		Message: "an interview is already scheduled for this application",
	}
}

func NewResponseErrorSlotUnavailable() *ResponseError {
	return &ResponseError{
		Code:    ErrCodeSlotUnavailable,
		Message: "this slot is no longer available",
	}
}

func NewResponseErrorRateLimited(retryAfterSeconds int64) *ResponseError {
	return &ResponseError{
		Code:    ErrCodeRateLimited,
		Message: "too many requests, retry later",
		Details: map[string]interface{}{"retryAfterSeconds": retryAfterSeconds},
	}
}

func NewResponseErrorMeetingProvisioning() *ResponseError {
	return &ResponseError{
		Code:    ErrCodeMeetingProvisioningFailed,
		Message: "could not create the video meeting, the slot has been released",
	}
}

func NewResponseErrorExternalService() *ResponseError {
	return &ResponseError{
		Code:    ErrCodeExternalService,
		Message: "calling external service failed",
	}
}

func NewResponseErrorInternal() *ResponseError {
	return &ResponseError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
	}
}

func NewResponseError(code string, message string) *ResponseError {
	return &ResponseError{
		Code:    code,
		Message: message,
	}
}
