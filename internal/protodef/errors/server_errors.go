package errors

import "encoding/json"

// ServerError internal error carrying a stable numeric code, translated to a
// wire-level error exactly once at the handler boundary.
type ServerError struct {
	Code    int    `json:"code"`
	Summary string `json:"summary"`
}

func (e *ServerError) Error() string {
	buf, _ := json.Marshal(e)
	return string(buf)
}

func New(code int, summary string) *ServerError {
	return &ServerError{Code: code, Summary: summary}
}

// Is reports whether err is a ServerError with the given code.
func Is(err error, code int) bool {
	serverErr, ok := err.(*ServerError)
	return ok && serverErr.Code == code
}

// 1xxxx: server internal or database related errors.
// 2xxxx: external service errors.
const (
	ServerErrorApplicationNotFound = 10001
	ServerErrorWrongStage          = 10002
	ServerErrorAlreadyScheduled    = 10003
	ServerErrorSlotNotFound        = 10004
	ServerErrorSlotUnavailable     = 10005
	ServerErrorSlotBooked          = 10006
	ServerErrorAccountNotFound     = 10007
	ServerErrorAccountExists       = 10008
	ServerErrorWrongCredentials    = 10009
	ServerErrorAccountNotApproved  = 10010
	ServerErrorContentNotFound     = 10011
	ServerErrorDuplicateSubscriber = 10012
	ServerErrorMongoOpFail         = 11000

	ServerErrorMeetProvision = 20001
	ServerErrorMailSendFail  = 20002
	ServerErrorUploadFail    = 20003
)
