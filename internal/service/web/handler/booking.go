package handler

import (
	"net/http"
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

// BookingApplicationStore the application operations the booking workflow
// needs.
type BookingApplicationStore interface {
	GetApplicationByID(xl *xlog.Logger, id string) (*model.ApplicationDo, error)
	SetInterview(xl *xlog.Logger, id string, date time.Time, meetLink, meetEventID string) error
}

// BookingSlotStore claim, its compensation, and the public open-slot view.
type BookingSlotStore interface {
	ClaimSlot(xl *xlog.Logger, slotID, applicationID string, now time.Time) (*model.InterviewSlotDo, error)
	ReleaseSlot(xl *xlog.Logger, slotID, applicationID string) error
	ListSlots(xl *xlog.Logger) ([]model.InterviewSlotDo, error)
}

// BookingRateLimiter per-caller request budget.
type BookingRateLimiter interface {
	Check(xl *xlog.Logger, identifier, action string, rule db.RateLimitRule) db.RateLimitResult
}

// BookingNotifier fire-and-forget confirmation mail.
type BookingNotifier interface {
	NotifyBookingConfirmed(xl *xlog.Logger, application *model.ApplicationDo, start time.Time, meetLink string)
}

// BookingHandler the public interview booking workflow.
type BookingHandler struct {
	Application BookingApplicationStore
	Slot        BookingSlotStore
	RateLimit   BookingRateLimiter
	Meet        cloud.MeetProvider
	Notify      BookingNotifier
	Rule        db.RateLimitRule
	SiteName    string
}

func NewBookingHandler(conf *utils.Config) *BookingHandler {
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
	return &BookingHandler{
		Application: applicationService,
		Slot:        slotService,
		RateLimit:   rateLimitService,
		Meet:        cloud.NewMeetService(*conf.Meet, nil),
		Notify:      cloud.NewNotifyService(conf, mailService, nil),
		Rule: db.RateLimitRule{
			MaxRequests: conf.BookingRateLimit.MaxRequests,
			Window:      time.Duration(conf.BookingRateLimit.WindowMs) * time.Millisecond,
		},
		SiteName: conf.SiteName,
	}
}

// BookInterview books a slot for an application in the interview stage.
//
// The order matters: the atomic claim happens only after the cheap stage
// checks, the meeting is provisioned only after a successful claim, and any
// failure past the claim releases the slot before answering.
func (h *BookingHandler) BookInterview(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	applicationID := c.Param("applicationId")
	if err := form.ValidateApplicationID(applicationID); err != nil {
		responseErr := model.NewResponseErrorValidation(err)
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	bookForm := form.BookInterviewForm{}
	if err := c.Bind(&bookForm); err != nil {
		responseErr := model.NewResponseErrorBadRequest()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	if err := bookForm.Validate(); err != nil {
		responseErr := model.NewResponseErrorValidation(err)
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}

	result := h.RateLimit.Check(xl, c.ClientIP(), "bookInterview", h.Rule)
	if !result.Allowed {
		retryAfter := int64(result.RetryAfter / time.Second)
		c.Header("Retry-After", result.ResetAt.UTC().Format(http.TimeFormat))
		responseErr := model.NewResponseErrorRateLimited(retryAfter)
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}

	application, err := h.Application.GetApplicationByID(xl, applicationID)
	if err != nil {
		if errors2.Is(err, errors2.ServerErrorApplicationNotFound) {
			responseErr := model.NewResponseErrorNotFound("application")
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		xl.Errorf("failed to load application %s, error %v", applicationID, err)
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	if application.InterviewDate != nil {
		responseErr := model.NewResponseErrorAlreadyScheduled()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	if application.Status != model.ApplicationStatusInterview {
		responseErr := model.NewResponseErrorInvalidStage()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}

	slot, err := h.Slot.ClaimSlot(xl, bookForm.SlotID, application.ID, time.Now())
	if err != nil {
		if errors2.Is(err, errors2.ServerErrorSlotUnavailable) {
			responseErr := model.NewResponseErrorSlotUnavailable()
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
			return
		}
		xl.Errorf("claim failed for slot %s, error %v", bookForm.SlotID, err)
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}

	meeting, err := h.Meet.CreateMeeting(xl, cloud.MeetingRequest{
		Topic:     h.SiteName + " interview " + application.ID,
		StartTime: slot.StartTime,
		Duration:  slot.EndTime.Sub(slot.StartTime),
		Agenda:    "Membership interview with " + application.Name,
	})
	if err != nil {
		xl.Errorf("meeting provisioning failed for application %s, releasing slot %s, error %v",
			application.ID, slot.ID, err)
		if releaseErr := h.Slot.ReleaseSlot(xl, slot.ID, application.ID); releaseErr != nil {
			xl.Errorf("compensation failed, slot %s stays claimed, error %v", slot.ID, releaseErr)
		}
		responseErr := model.NewResponseErrorMeetingProvisioning()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}

	err = h.Application.SetInterview(xl, application.ID, slot.StartTime, meeting.JoinURL, meeting.EventID)
	if err != nil {
		xl.Errorf("failed to persist interview on application %s, compensating, error %v", application.ID, err)
		if releaseErr := h.Slot.ReleaseSlot(xl, slot.ID, application.ID); releaseErr != nil {
			xl.Errorf("compensation failed, slot %s stays claimed, error %v", slot.ID, releaseErr)
		}
		if cancelErr := h.Meet.CancelMeeting(xl, meeting.EventID); cancelErr != nil {
			xl.Errorf("failed to cancel meeting %s, error %v", meeting.EventID, cancelErr)
		}
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}

	h.Notify.NotifyBookingConfirmed(xl, application, slot.StartTime, meeting.JoinURL)

	resp := model.BookInterviewResponse{
		InterviewDate: slot.StartTime.UTC().Format(time.RFC3339),
		MeetLink:      meeting.JoinURL,
	}
	model.NewSuccessResponse(resp).WithRequestID(requestID).Send(c)
}

// ListOpenSlots shows the bookable (open, future) slots to the applicant.
func (h *BookingHandler) ListOpenSlots(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	slots, err := h.Slot.ListSlots(xl)
	if err != nil {
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	now := time.Now()
	list := make([]model.SlotResponse, 0)
	for _, slot := range slots {
		if slot.Booked || !slot.StartTime.After(now) {
			continue
		}
		list = append(list, model.SlotResponse{
			ID:        slot.ID,
			StartTime: slot.StartTime.Unix(),
			EndTime:   slot.EndTime.Unix(),
		})
	}
	resp := model.SlotListResponse{List: list, Total: len(list)}
	model.NewSuccessResponse(resp).WithRequestID(requestID).Send(c)
}
