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

// SlotAdminStore slot administration operations.
type SlotAdminStore interface {
	CreateSlot(xl *xlog.Logger, start, end time.Time, createdBy string) (*model.InterviewSlotDo, error)
	CreateSlots(xl *xlog.Logger, windows []db.SlotWindow, createdBy string) ([]model.InterviewSlotDo, error)
	ListSlots(xl *xlog.Logger) ([]model.InterviewSlotDo, error)
	DeleteSlot(xl *xlog.Logger, slotID string) error
	DeleteUnbookedSlots(xl *xlog.Logger) (int, error)
}

// SlotHandler admin management of interview slots.
type SlotHandler struct {
	Slot     SlotAdminStore
	Location *time.Location
}

func NewSlotHandler(conf *utils.Config) *SlotHandler {
	slotService, err := db.NewSlotService(*conf.Mongo, nil)
	if err != nil {
		panic(err)
	}
	loc := time.UTC
	if conf.Timezone != "" {
		loc, err = time.LoadLocation(conf.Timezone)
		if err != nil {
			panic(err)
		}
	}
	return &SlotHandler{Slot: slotService, Location: loc}
}

func slotResponse(slot model.InterviewSlotDo) model.SlotResponse {
	return model.SlotResponse{
		ID:            slot.ID,
		StartTime:     slot.StartTime.Unix(),
		EndTime:       slot.EndTime.Unix(),
		Booked:        slot.Booked,
		ApplicationID: slot.ApplicationID,
	}
}

// CreateSlot creates one slot from explicit unix timestamps.
func (h *SlotHandler) CreateSlot(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	account := c.MustGet(model.AccountContextKey).(model.AccountDo)

	createForm := form.SlotCreateForm{}
	if err := c.Bind(&createForm); err != nil {
		responseErr := model.NewResponseErrorBadRequest()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	if err := createForm.Validate(); err != nil {
		responseErr := model.NewResponseErrorValidation(err)
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	slot, err := h.Slot.CreateSlot(xl,
		time.Unix(createForm.StartTime, 0), time.Unix(createForm.EndTime, 0), account.ID)
	if err != nil {
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(slotResponse(*slot)).WithRequestID(requestID).Send(c)
}

// CreateSlotsBulk generates and stores consecutive slots for one day.
func (h *SlotHandler) CreateSlotsBulk(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId
	account := c.MustGet(model.AccountContextKey).(model.AccountDo)

	bulkForm := form.SlotBulkCreateForm{}
	if err := c.Bind(&bulkForm); err != nil {
		responseErr := model.NewResponseErrorBadRequest()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	if err := bulkForm.Validate(); err != nil {
		responseErr := model.NewResponseErrorValidation(err)
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	windows, err := db.GenerateSlots(bulkForm.Day, bulkForm.StartTime, bulkForm.EndTime,
		time.Duration(bulkForm.DurationMinutes)*time.Minute, h.Location)
	if err != nil {
		responseErr := model.NewResponseErrorValidation(err)
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	slots, err := h.Slot.CreateSlots(xl, windows, account.ID)
	if err != nil {
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	list := make([]model.SlotResponse, 0, len(slots))
	for _, slot := range slots {
		list = append(list, slotResponse(slot))
	}
	resp := model.SlotCreateBulkResponse{Created: len(list), List: list}
	model.NewSuccessResponse(resp).WithRequestID(requestID).Send(c)
}

// ListSlots shows all slots, booked ones included.
func (h *SlotHandler) ListSlots(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	slots, err := h.Slot.ListSlots(xl)
	if err != nil {
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	list := make([]model.SlotResponse, 0, len(slots))
	for _, slot := range slots {
		list = append(list, slotResponse(slot))
	}
	resp := model.SlotListResponse{List: list, Total: len(list)}
	model.NewSuccessResponse(resp).WithRequestID(requestID).Send(c)
}

// DeleteSlot removes one slot; booked slots are refused.
func (h *SlotHandler) DeleteSlot(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	slotID := c.Param("slotId")
	err := h.Slot.DeleteSlot(xl, slotID)
	if err != nil {
		switch {
		case errors2.Is(err, errors2.ServerErrorSlotNotFound):
			responseErr := model.NewResponseErrorNotFound("slot")
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		case errors2.Is(err, errors2.ServerErrorSlotBooked):
			responseErr := model.NewResponseError(model.ErrCodeInvalidStage, "booked slots cannot be deleted")
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		default:
			responseErr := model.NewResponseErrorInternal()
			model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		}
		return
	}
	model.NewSuccessResponse(nil).WithRequestID(requestID).Send(c)
}

// DeleteUnbookedSlots clears all open slots at once.
func (h *SlotHandler) DeleteUnbookedSlots(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	requestID := xl.ReqId

	removed, err := h.Slot.DeleteUnbookedSlots(xl)
	if err != nil {
		responseErr := model.NewResponseErrorInternal()
		model.NewFailResponse(*responseErr).WithRequestID(requestID).Send(c)
		return
	}
	model.NewSuccessResponse(gin.H{"removed": removed}).WithRequestID(requestID).Send(c)
}
