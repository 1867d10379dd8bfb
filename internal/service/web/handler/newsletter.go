package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"

	"github.com/polaris-rocketry/polaris-server/internal/common/utils"
	errors2 "github.com/polaris-rocketry/polaris-server/internal/protodef/errors"
	"github.com/polaris-rocketry/polaris-server/internal/protodef/form"
	"github.com/polaris-rocketry/polaris-server/internal/protodef/model"
	"github.com/polaris-rocketry/polaris-server/internal/service/db"
)

// NewsletterStore subscriber and issue operations used by the handler.
type NewsletterStore interface {
	Subscribe(xl *xlog.Logger, email string) (*model.SubscriberDo, error)
	Unsubscribe(xl *xlog.Logger, email string) error
	ListSubscribers(xl *xlog.Logger) ([]model.SubscriberDo, error)
	CreateIssue(xl *xlog.Logger, title, body, createdBy string) (*model.NewsletterIssueDo, error)
	ListIssues(xl *xlog.Logger, pageNum, pageSize int) ([]model.NewsletterIssueDo, int, error)
	GetIssueByID(xl *xlog.Logger, issueID string) (*model.NewsletterIssueDo, error)
	DeleteIssue(xl *xlog.Logger, issueID string) error
}

// NewsletterHandler public subscribe/archive plus admin issue management.
type NewsletterHandler struct {
	Newsletter NewsletterStore
	RateLimit  ApplicationRateLimiter
	Rule       db.RateLimitRule
}

func NewNewsletterHandler(conf *utils.Config) *NewsletterHandler {
	newsletterService, err := db.NewNewsletterService(*conf.Mongo, nil)
	if err != nil {
		panic(err)
	}
	rateLimitService, err := db.NewRateLimitService(*conf.Mongo, nil)
	if err != nil {
		panic(err)
	}
	return &NewsletterHandler{
		Newsletter: newsletterService,
		RateLimit:  rateLimitService,
		Rule: db.RateLimitRule{
			MaxRequests: conf.PublicRateLimit.MaxRequests,
			Window:      time.Duration(conf.PublicRateLimit.WindowMs) * time.Millisecond,
		},
	}
}

// Subscribe public opt-in. Subscribing an already-subscribed email succeeds.
func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	result := h.RateLimit.Check(xl, c.ClientIP(), "subscribe", h.Rule)
	if !result.Allowed {
		responseErr := model.NewResponseErrorRateLimited(int64(result.RetryAfter / time.Second))
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}

	subscribeForm := form.SubscribeForm{}
	if err := c.Bind(&subscribeForm); err != nil {
		responseErr := model.NewResponseErrorBadRequest()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	if err := subscribeForm.Validate(); err != nil {
		responseErr := model.NewResponseErrorValidation(err)
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	_, err := h.Newsletter.Subscribe(xl, subscribeForm.Email)
	if err != nil && !errors2.Is(err, errors2.ServerErrorDuplicateSubscriber) {
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(nil).WithRequestID(requestID).Send(c)
}

// Unsubscribe public opt-out; always succeeds for well-formed emails.
func (h *NewsletterHandler) Unsubscribe(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	subscribeForm := form.SubscribeForm{}
	if err := c.Bind(&subscribeForm); err != nil {
		responseErr := model.NewResponseErrorBadRequest()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	if err := subscribeForm.Validate(); err != nil {
		responseErr := model.NewResponseErrorValidation(err)
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	if err := h.Newsletter.Unsubscribe(xl, subscribeForm.Email); err != nil {
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(nil).WithRequestID(requestID).Send(c)
}

func issueResponse(issue model.NewsletterIssueDo) model.NewsletterIssueResponse {
	return model.NewsletterIssueResponse{
		ID:          issue.ID,
		Title:       issue.Title,
		Body:        issue.Body,
		PublishTime: issue.PublishTime.Unix(),
	}
}

// ListIssues public archive, paged.
func (h *NewsletterHandler) ListIssues(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	pageNum := c.GetInt(model.PageNumContextKey)
	pageSize := c.GetInt(model.PageSizeContextKey)

	issues, total, err := h.Newsletter.ListIssues(xl, pageNum, pageSize)
	if err != nil {
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	page := model.Pagination{}
	page.List = make([]interface{}, 0, len(issues))
	for _, issue := range issues {
		page.List = append(page.List, issueResponse(issue))
	}
	page.FillPages(pageNum, pageSize, len(issues), total)
	model.NewSuccessResponse(page).WithRequestID(requestID).Send(c)
}

// GetIssue public detail view.
func (h *NewsletterHandler) GetIssue(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	issue, err := h.Newsletter.GetIssueByID(xl, c.Param("issueId"))
	if err != nil {
		if errors2.Is(err, errors2.ServerErrorContentNotFound) {
			responseErr := model.NewResponseErrorNotFound("issue")
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(issueResponse(*issue)).WithRequestID(requestID).Send(c)
}

// CreateIssue admin archive entry.
func (h *NewsletterHandler) CreateIssue(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	account := c.MustGet(model.AccountContextKey).(model.AccountDo)

	issueForm := form.NewsletterIssueForm{}
	if err := c.Bind(&issueForm); err != nil {
		responseErr := model.NewResponseErrorBadRequest()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	if err := issueForm.Validate(); err != nil {
		responseErr := model.NewResponseErrorValidation(err)
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	issue, err := h.Newsletter.CreateIssue(xl, issueForm.Title, issueForm.Body, account.ID)
	if err != nil {
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(issueResponse(*issue)).WithRequestID(requestID).Send(c)
}

// DeleteIssue admin delete.
func (h *NewsletterHandler) DeleteIssue(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	if err := h.Newsletter.DeleteIssue(xl, c.Param("issueId")); err != nil {
		if errors2.Is(err, errors2.ServerErrorContentNotFound) {
			responseErr := model.NewResponseErrorNotFound("issue")
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(nil).WithRequestID(requestID).Send(c)
}

// ListSubscribers admin export of the subscriber list.
func (h *NewsletterHandler) ListSubscribers(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	subscribers, err := h.Newsletter.ListSubscribers(xl)
	if err != nil {
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(gin.H{"list": subscribers, "total": len(subscribers)}).WithRequestID(requestID).Send(c)
}
