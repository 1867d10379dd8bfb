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

// ApplicationStore membership application operations used by the handler.
type ApplicationStore interface {
	CreateApplication(xl *xlog.Logger, submitForm *form.ApplicationSubmitForm) (*model.ApplicationDo, error)
	GetApplicationByID(xl *xlog.Logger, id string) (*model.ApplicationDo, error)
	ListApplications(xl *xlog.Logger, status string, pageNum, pageSize int) ([]model.ApplicationDo, int, error)
	UpdateStatus(xl *xlog.Logger, id, status string) (*model.ApplicationDo, error)
	ResetInterview(xl *xlog.Logger, id string) error
	DeleteApplication(xl *xlog.Logger, id string) error
}

// ApplicationNotifier application lifecycle mail.
type ApplicationNotifier interface {
	NotifyApplicationReceived(xl *xlog.Logger, application *model.ApplicationDo)
	NotifyApplicationDeleted(xl *xlog.Logger, application *model.ApplicationDo)
}

// ApplicationRateLimiter budget for the public submit endpoint.
type ApplicationRateLimiter interface {
	Check(xl *xlog.Logger, identifier, action string, rule db.RateLimitRule) db.RateLimitResult
}

// ApplicationHandler public submission plus admin triage.
type ApplicationHandler struct {
	Application ApplicationStore
	Slot        BookingSlotStore
	Notify      ApplicationNotifier
	RateLimit   ApplicationRateLimiter
	Rule        db.RateLimitRule
}

func NewApplicationHandler(conf *utils.Config) *ApplicationHandler {
	applicationService, err := db.NewApplicationService(*conf.Mongo, nil)
	if err != nil {
		panic(err)
	}
	slotService, err := db.NewSlotService(*conf.Mongo, nil)
	if err != nil {
		panic(err)
	}
	rateLimitService, err := db.NewRateLimitService(*conf.Mongo, nil)
	if err != nil {
		panic(err)
	}
	mailService := cloud.NewMailService(*conf.Mail, nil)
	return &ApplicationHandler{
		Application: applicationService,
		Slot:        slotService,
		Notify:      cloud.NewNotifyService(conf, mailService, nil),
		RateLimit:   rateLimitService,
		Rule: db.RateLimitRule{
			MaxRequests: conf.PublicRateLimit.MaxRequests,
			Window:      time.Duration(conf.PublicRateLimit.WindowMs) * time.Millisecond,
		},
	}
}

func applicationResponse(application model.ApplicationDo) model.ApplicationResponse {
	resp := model.ApplicationResponse{
		ID:           application.ID,
		Name:         application.Name,
		Email:        application.Email,
		Phone:        application.Phone,
		FieldOfStudy: application.FieldOfStudy,
		Division:     application.Division,
		Motivation:   application.Motivation,
		Status:       application.Status,
		MeetLink:     application.MeetLink,
		CreateTime:   application.CreateTime.Unix(),
	}
	if application.InterviewDate != nil {
		resp.InterviewDate = application.InterviewDate.UTC().Format(time.RFC3339)
	}
	return resp
}

// SubmitApplication public membership application intake.
func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	result := h.RateLimit.Check(xl, c.ClientIP(), "submitApplication", h.Rule)
	if !result.Allowed {
		responseErr := model.NewResponseErrorRateLimited(int64(result.RetryAfter / time.Second))
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}

	submitForm := form.ApplicationSubmitForm{}
	if err := c.Bind(&submitForm); err != nil {
		responseErr := model.NewResponseErrorBadRequest()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	if err := submitForm.Validate(); err != nil {
		responseErr := model.NewResponseErrorValidation(err)
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	application, err := h.Application.CreateApplication(xl, &submitForm)
	if err != nil {
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	h.Notify.NotifyApplicationReceived(xl, application)
	resp := model.SubmitApplicationResponse{ID: application.ID}
	model.NewSuccessResponse(resp).WithRequestID(requestID).Send(c)
}

// GetApplication admin detail view.
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	applicationID := c.Param("applicationId")
	application, err := h.Application.GetApplicationByID(xl, applicationID)
	if err != nil {
		if errors2.Is(err, errors2.ServerErrorApplicationNotFound) {
			responseErr := model.NewResponseErrorNotFound("application")
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(applicationResponse(*application)).WithRequestID(requestID).Send(c)
}

// ListApplications admin paged list, optionally filtered by ?status=.
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	pageNum := c.GetInt(model.PageNumContextKey)
	pageSize := c.GetInt(model.PageSizeContextKey)

	status := c.Query("status")
	applications, total, err := h.Application.ListApplications(xl, status, pageNum, pageSize)
	if err != nil {
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	resp := model.ApplicationListResponse{}
	resp.List = make([]interface{}, 0, len(applications))
	for _, application := range applications {
		resp.List = append(resp.List, applicationResponse(application))
	}
	resp.FillPages(pageNum, pageSize, len(applications), total)
	model.NewSuccessResponse(resp).WithRequestID(requestID).Send(c)
}

// UpdateStatus admin triage transition.
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	applicationID := c.Param("applicationId")
	statusForm := form.ApplicationStatusForm{}
	if err := c.Bind(&statusForm); err != nil {
		responseErr := model.NewResponseErrorBadRequest()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	if err := statusForm.Validate(); err != nil {
		responseErr := model.NewResponseErrorValidation(err)
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	application, err := h.Application.UpdateStatus(xl, applicationID, statusForm.Status)
	if err != nil {
		if errors2.Is(err, errors2.ServerErrorApplicationNotFound) {
			responseErr := model.NewResponseErrorNotFound("application")
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(applicationResponse(*application)).WithRequestID(requestID).Send(c)
}

// ResetInterview clears a booked interview and releases its slot so the
// applicant can book again.
func (h *ApplicationHandler) ResetInterview(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	applicationID := c.Param("applicationId")
	application, err := h.Application.GetApplicationByID(xl, applicationID)
	if err != nil {
		if errors2.Is(err, errors2.ServerErrorApplicationNotFound) {
			responseErr := model.NewResponseErrorNotFound("application")
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	slots, err := h.Slot.ListSlots(xl)
	if err == nil {
		for _, slot := range slots {
			if slot.ApplicationID == application.ID {
				if releaseErr := h.Slot.ReleaseSlot(xl, slot.ID, application.ID); releaseErr != nil {
					xl.Errorf("failed to release slot %s during reset, error %v", slot.ID, releaseErr)
				}
			}
		}
	}
	if err := h.Application.ResetInterview(xl, application.ID); err != nil {
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(nil).WithRequestID(requestID).Send(c)
}

// DeleteApplication admin delete. Removal always mails the applicant and the
// team inbox, best effort.
func (h *ApplicationHandler) DeleteApplication(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	applicationID := c.Param("applicationId")
	application, err := h.Application.GetApplicationByID(xl, applicationID)
	if err != nil {
		if errors2.Is(err, errors2.ServerErrorApplicationNotFound) {
			responseErr := model.NewResponseErrorNotFound("application")
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	if err := h.Application.DeleteApplication(xl, application.ID); err != nil {
		if errors2.Is(err, errors2.ServerErrorApplicationNotFound) {
			responseErr := model.NewResponseErrorNotFound("application")
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	h.Notify.NotifyApplicationDeleted(xl, application)
	model.NewSuccessResponse(nil).WithRequestID(requestID).Send(c)
}
