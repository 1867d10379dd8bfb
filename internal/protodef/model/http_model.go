package model

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

/*
	http_model.go: wire-level request/response definitions. Every endpoint
	answers the same discriminated envelope: {success:true, data} or
	{success:false, error:{code,message,details?}}.
*/

const (
	// RequestIDHeader request ID header propagated into the per-request logger.
	RequestIDHeader = "X-Reqid"
	// XLogKey gin context key holding the per-request xlog logger.
	XLogKey = "xlog-logger"

	// AccountIDContextKey account ID of the authenticated caller.
	AccountIDContextKey = "accountID"
	// AccountContextKey the authenticated account object.
	AccountContextKey = "account"

	PageNumContextKey  = "pageNum"
	PageSizeContextKey = "pageSize"

	// RequestStartKey request start timestamp stored in the gin context.
	RequestStartKey = "request-start-timestamp-nano"
)

type Response struct {
	Success   bool           `json:"success"`
	Data      interface{}    `json:"data,omitempty"`
	Error     *ResponseError `json:"error,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Success: true,
		Data:    data,
	}
}

func NewFailResponse(err ResponseError) *Response {
	return &Response{
		Success: false,
		Error:   &err,
	}
}

func (r *Response) WithRequestID(requestID string) *Response {
	r.RequestID = requestID
	return r
}

// Send writes the envelope with the status from the error-code mapping table,
// or 200 on success.
func (r *Response) Send(c *gin.Context) {
	if r.Success {
		c.JSON(http.StatusOK, r)
		return
	}
	c.JSON(HTTPStatusOf(r.Error.Code), r)
}

type Pagination struct {
	Total          int           `json:"total"`
	Cnt            int           `json:"cnt"`
	CurrentPageNum int           `json:"currentPageNum"`
	NextPageNum    int           `json:"nextPageNum"`
	PageSize       int           `json:"pageSize"`
	EndPage        bool          `json:"endPage"`
	List           []interface{} `json:"list"`
}

// FillPages computes the paging trailer for a page of cnt items out of total.
func (p *Pagination) FillPages(pageNum, pageSize, cnt, total int) {
	p.Total = total
	p.Cnt = cnt
	p.CurrentPageNum = pageNum
	p.PageSize = pageSize
	if cnt+(pageNum-1)*pageSize >= total {
		p.EndPage = true
		p.NextPageNum = pageNum
	} else {
		p.EndPage = false
		p.NextPageNum = pageNum + 1
	}
}

// BookInterviewResponse result of a successful booking.
type BookInterviewResponse struct {
	InterviewDate string `json:"interviewDate"`
	MeetLink      string `json:"meetLink"`
}

// SlotResponse one interview slot as shown to admins.
type SlotResponse struct {
	ID            string `json:"id"`
	StartTime     int64  `json:"startTime"`
	EndTime       int64  `json:"endTime"`
	Booked        bool   `json:"booked"`
	ApplicationID string `json:"applicationId,omitempty"`
}

type SlotListResponse struct {
	List  []SlotResponse `json:"list"`
	Total int            `json:"total"`
}

type SlotCreateBulkResponse struct {
	Created int            `json:"created"`
	List    []SlotResponse `json:"list"`
}

// ApplicationResponse an application as shown to admins.
type ApplicationResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	FieldOfStudy  string `json:"fieldOfStudy,omitempty"`
	Division      string `json:"division,omitempty"`
	Motivation    string `json:"motivation,omitempty"`
	Status        string `json:"status"`
	InterviewDate string `json:"interviewDate,omitempty"`
	MeetLink      string `json:"meetLink,omitempty"`
	CreateTime    int64  `json:"createTime"`
}

type ApplicationListResponse struct {
	Pagination
}

// SubmitApplicationResponse returned to the public submitter.
type SubmitApplicationResponse struct {
	ID string `json:"id"`
}

type AccountResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Approved bool   `json:"approved"`
}

type SignInResponse struct {
	AccountResponse
	Token string `json:"loginToken"`
}

type UploadResponse struct {
	FileName string `json:"fileName"`
	FileURL  string `json:"fileUrl"`
}

type ContactMessageResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	Read       bool   `json:"read"`
	CreateTime int64  `json:"createTime"`
}

type NewsletterIssueResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	PublishTime int64  `json:"publishTime"`
}

type PageContentResponse struct {
	Key        string `json:"key"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	UpdateTime int64  `json:"updateTime"`
}
