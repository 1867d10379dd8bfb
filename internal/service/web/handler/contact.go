package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"

	"github.com/polaris-rocketry/polaris-server/internal/common/utils"
	errors2 "github.com/polaris-rocketry/polaris-server/internal/protodef/errors"
	"github.com/polaris-rocketry/polaris-server/internal/protodef/form"
	"github.com/polaris-rocketry/polaris-server/internal/protodef/model"
	"github.com/polaris-rocketry/polaris-server/internal/service/cloud"
	"github.com/polaris-rocketry/polaris-server/internal/service/db"
)

// ContactStore contact message operations used by the handler.
type ContactStore interface {
	CreateMessage(xl *xlog.Logger, contactForm *form.ContactForm) (*model.ContactMessageDo, error)
	ListMessages(xl *xlog.Logger, pageNum, pageSize int) ([]model.ContactMessageDo, int, error)
	MarkRead(xl *xlog.Logger, messageID string) error
	DeleteMessage(xl *xlog.Logger, messageID string) error
}

// ContactNotifier forwards contact messages to the team inbox.
type ContactNotifier interface {
	NotifyContactMessage(xl *xlog.Logger, message *model.ContactMessageDo)
}

// ContactHandler public contact form plus the admin inbox.
type ContactHandler struct {
	Contact   ContactStore
	Notify    ContactNotifier
	RateLimit ApplicationRateLimiter
	Rule      db.RateLimitRule
}

func NewContactHandler(conf *utils.Config) *ContactHandler {
	contactService, err := db.NewContactService(*conf.Mongo, nil)
	if err != nil {
		panic(err)
	}
	rateLimitService, err := db.NewRateLimitService(*conf.Mongo, nil)
	if err != nil {
		panic(err)
	}
	mailService := cloud.NewMailService(*conf.Mail, nil)
	return &ContactHandler{
		Contact:   contactService,
		Notify:    cloud.NewNotifyService(conf, mailService, nil),
		RateLimit: rateLimitService,
		Rule: db.RateLimitRule{
			MaxRequests: conf.PublicRateLimit.MaxRequests,
			Window:      time.Duration(conf.PublicRateLimit.WindowMs) * time.Millisecond,
		},
	}
}

// SubmitMessage public contact form intake.
func (h *ContactHandler) SubmitMessage(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	result := h.RateLimit.Check(xl, c.ClientIP(), "contact", h.Rule)
	if !result.Allowed {
		responseErr := model.NewResponseErrorRateLimited(int64(result.RetryAfter / time.Second))
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}

	contactForm := form.ContactForm{}
	if err := c.Bind(&contactForm); err != nil {
		responseErr := model.NewResponseErrorBadRequest()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	if err := contactForm.Validate(); err != nil {
		responseErr := model.NewResponseErrorValidation(err)
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	message, err := h.Contact.CreateMessage(xl, &contactForm)
	if err != nil {
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	h.Notify.NotifyContactMessage(xl, message)
	model.NewSuccessResponse(gin.H{"id": message.ID}).WithRequestID(requestID).Send(c)
}

// ListMessages admin inbox, paged.
func (h *ContactHandler) ListMessages(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	pageNum := c.GetInt(model.PageNumContextKey)
	pageSize := c.GetInt(model.PageSizeContextKey)

	messages, total, err := h.Contact.ListMessages(xl, pageNum, pageSize)
	if err != nil {
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	page := model.Pagination{}
	page.List = make([]interface{}, 0, len(messages))
	for _, message := range messages {
		page.List = append(page.List, model.ContactMessageResponse{
			ID:         message.ID,
			Name:       message.Name,
			Email:      message.Email,
			Subject:    message.Subject,
			Body:       message.Body,
			Read:       message.Read,
			CreateTime: message.CreateTime.Unix(),
		})
	}
	page.FillPages(pageNum, pageSize, len(messages), total)
	model.NewSuccessResponse(page).WithRequestID(requestID).Send(c)
}

// MarkMessageRead flags one message as handled.
func (h *ContactHandler) MarkMessageRead(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	messageID := c.Param("messageId")
	if err := h.Contact.MarkRead(xl, messageID); err != nil {
		if errors2.Is(err, errors2.ServerErrorContentNotFound) {
			responseErr := model.NewResponseErrorNotFound("message")
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(nil).WithRequestID(requestID).Send(c)
}

// DeleteMessage admin delete.
func (h *ContactHandler) DeleteMessage(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	messageID := c.Param("messageId")
	if err := h.Contact.DeleteMessage(xl, messageID); err != nil {
		if errors2.Is(err, errors2.ServerErrorContentNotFound) {
			responseErr := model.NewResponseErrorNotFound("message")
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(nil).WithRequestID(requestID).Send(c)
}
