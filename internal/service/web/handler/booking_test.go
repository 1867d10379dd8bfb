package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"

	errors2 "github.com/polaris-rocketry/polaris-server/internal/protodef/errors"
	"github.com/polaris-rocketry/polaris-server/internal/protodef/model"
	"github.com/polaris-rocketry/polaris-server/internal/service/cloud"
	"github.com/polaris-rocketry/polaris-server/internal/service/db"
)

type fakeApplicationStore struct {
	mu           sync.Mutex
	applications map[string]*model.ApplicationDo
	failSet      bool
	setCalls     int
}

func (f *fakeApplicationStore) GetApplicationByID(xl *xlog.Logger, id string) (*model.ApplicationDo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	application, ok := f.applications[id]
	if !ok {
		return nil, errors2.New(errors2.ServerErrorApplicationNotFound, "no such application")
	}
	clone := *application
	return &clone, nil
}

func (f *fakeApplicationStore) SetInterview(xl *xlog.Logger, id string, date time.Time, meetLink, meetEventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if f.failSet {
		return fmt.Errorf("write failed")
	}
	application, ok := f.applications[id]
	if !ok {
		return errors2.New(errors2.ServerErrorApplicationNotFound, "no such application")
	}
	application.InterviewDate = &date
	application.MeetLink = meetLink
	application.MeetEventID = meetEventID
	return nil
}

type fakeSlotStore struct {
	mu    sync.Mutex
	slots map[string]*model.InterviewSlotDo
}

func (f *fakeSlotStore) ClaimSlot(xl *xlog.Logger, slotID, applicationID string, now time.Time) (*model.InterviewSlotDo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[slotID]
	if !ok || slot.Booked || !slot.StartTime.After(now) {
		return nil, errors2.New(errors2.ServerErrorSlotUnavailable, "slot unavailable")
	}
	slot.Booked = true
	slot.ApplicationID = applicationID
	clone := *slot
	return &clone, nil
}

func (f *fakeSlotStore) ReleaseSlot(xl *xlog.Logger, slotID, applicationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[slotID]
	if !ok || slot.ApplicationID != applicationID {
		return nil
	}
	slot.Booked = false
	slot.ApplicationID = ""
	return nil
}

func (f *fakeSlotStore) ListSlots(xl *xlog.Logger) ([]model.InterviewSlotDo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.InterviewSlotDo, 0, len(f.slots))
	for _, slot := range f.slots {
		out = append(out, *slot)
	}
	return out, nil
}

func (f *fakeSlotStore) get(slotID string) model.InterviewSlotDo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.slots[slotID]
}

type fakeRateLimiter struct {
	mu     sync.Mutex
	deny   bool
	checks int
}

func (f *fakeRateLimiter) Check(xl *xlog.Logger, identifier, action string, rule db.RateLimitRule) db.RateLimitResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	if f.deny {
		return db.RateLimitResult{
			Allowed:    false,
			ResetAt:    time.Now().Add(30 * time.Second),
			RetryAfter: 30 * time.Second,
		}
	}
	return db.RateLimitResult{Allowed: true, Remaining: rule.MaxRequests - 1, ResetAt: time.Now().Add(rule.Window)}
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeNotifier) NotifyBookingConfirmed(xl *xlog.Logger, application *model.ApplicationDo, start time.Time, meetLink string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
}

type failingMeet struct{}

func (failingMeet) CreateMeeting(xl *xlog.Logger, req cloud.MeetingRequest) (*cloud.MeetingInfo, error) {
	return nil, errors2.New(errors2.ServerErrorMeetProvision, "meet provisioning failed")
}

func (failingMeet) CancelMeeting(xl *xlog.Logger, eventID string) error { return nil }

func interviewApplication(id string) *model.ApplicationDo {
	return &model.ApplicationDo{
		ID:     id,
		Name:   "Ada Nowak",
		Email:  "ada@example.org",
		Status: model.ApplicationStatusInterview,
	}
}

func openSlot(id string) *model.InterviewSlotDo {
	start := time.Now().Add(48 * time.Hour)
	return &model.InterviewSlotDo{
		ID:        id,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}
}

func newBookingFixture() (*BookingHandler, *fakeApplicationStore, *fakeSlotStore, *fakeRateLimiter, *fakeNotifier) {
	applications := &fakeApplicationStore{applications: map[string]*model.ApplicationDo{}}
	slots := &fakeSlotStore{slots: map[string]*model.InterviewSlotDo{}}
	limiter := &fakeRateLimiter{}
	notifier := &fakeNotifier{}
	h := &BookingHandler{
		Application: applications,
		Slot:        slots,
		RateLimit:   limiter,
		Meet:        &cloud.MockMeetService{},
		Notify:      notifier,
		Rule:        db.RateLimitRule{MaxRequests: 3, Window: time.Minute},
		SiteName:    "Polaris Rocketry",
	}
	return h, applications, slots, limiter, notifier
}

func bookingRouter(h *BookingHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(model.XLogKey, xlog.New("booking-test"))
	})
	router.POST("/v1/applications/:applicationId/book", h.BookInterview)
	return router
}

func doBook(router *gin.Engine, applicationID, slotID string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{"slotId": slotID})
	req := httptest.NewRequest(http.MethodPost,
		"/v1/applications/"+applicationID+"/book", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (bool, map[string]interface{}, map[string]interface{}) {
	t.Helper()
	envelope := struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
		Error   map[string]interface{} `json:"error"`
	}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("malformed envelope: %v", err)
	}
	return envelope.Success, envelope.Data, envelope.Error
}

func TestBookInterviewSuccess(t *testing.T) {
	h, applications, slots, _, notifier := newBookingFixture()
	applications.applications["APP-2026-AAAAAA"] = interviewApplication("APP-2026-AAAAAA")
	slots.slots["slotaaaaaaaa"] = openSlot("slotaaaaaaaa")
	router := bookingRouter(h)

	rec := doBook(router, "APP-2026-AAAAAA", "slotaaaaaaaa")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	success, data, _ := decodeEnvelope(t, rec)
	if !success {
		t.Fatalf("expected success envelope, got %s", rec.Body.String())
	}
	if data["meetLink"] == "" {
		t.Error("response is missing the meet link")
	}
	if _, err := time.Parse(time.RFC3339, data["interviewDate"].(string)); err != nil {
		t.Errorf("interviewDate is not RFC3339: %v", err)
	}

	slot := slots.get("slotaaaaaaaa")
	if !slot.Booked || slot.ApplicationID != "APP-2026-AAAAAA" {
		t.Error("slot was not claimed for the application")
	}
	application, _ := applications.GetApplicationByID(nil, "APP-2026-AAAAAA")
	if application.InterviewDate == nil || application.MeetLink == "" {
		t.Error("interview was not recorded on the application")
	}
	if notifier.calls != 1 {
		t.Errorf("notifier called %d times, want 1", notifier.calls)
	}
}

func TestBookInterviewWrongStage(t *testing.T) {
	h, applications, slots, _, _ := newBookingFixture()
	application := interviewApplication("APP-2026-BBBBBB")
	application.Status = model.ApplicationStatusNew
	applications.applications[application.ID] = application
	slots.slots["slotbbbbbbbb"] = openSlot("slotbbbbbbbb")
	router := bookingRouter(h)

	rec := doBook(router, application.ID, "slotbbbbbbbb")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409", rec.Code)
	}
	_, _, errObj := decodeEnvelope(t, rec)
	if errObj["code"] != model.ErrCodeInvalidStage {
		t.Errorf("error code %v, want %s", errObj["code"], model.ErrCodeInvalidStage)
	}
	if slots.get("slotbbbbbbbb").Booked {
		t.Error("slot must stay open when the stage check fails")
	}
}

func TestBookInterviewAlreadyScheduled(t *testing.T) {
	h, applications, slots, _, _ := newBookingFixture()
	application := interviewApplication("APP-2026-CCCCCC")
	date := time.Now().Add(24 * time.Hour)
	application.InterviewDate = &date
	applications.applications[application.ID] = application
	slots.slots["slotcccccccc"] = openSlot("slotcccccccc")
	router := bookingRouter(h)

	rec := doBook(router, application.ID, "slotcccccccc")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409", rec.Code)
	}
	_, _, errObj := decodeEnvelope(t, rec)
	if errObj["code"] != model.ErrCodeAlreadyScheduled {
		t.Errorf("error code %v, want %s", errObj["code"], model.ErrCodeAlreadyScheduled)
	}
	if slots.get("slotcccccccc").Booked {
		t.Error("a second interview must not claim a slot")
	}
}

func TestBookInterviewUnknownApplication(t *testing.T) {
	h, _, slots, _, _ := newBookingFixture()
	slots.slots["slotdddddddd"] = openSlot("slotdddddddd")
	router := bookingRouter(h)

	rec := doBook(router, "APP-2026-ZZZZZZ", "slotdddddddd")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func TestBookInterviewSlotUnavailable(t *testing.T) {
	h, applications, slots, _, _ := newBookingFixture()
	applications.applications["APP-2026-EEEEEE"] = interviewApplication("APP-2026-EEEEEE")
	slot := openSlot("sloteeeeeeee")
	slot.Booked = true
	slot.ApplicationID = "APP-2026-OTHERX"
	slots.slots[slot.ID] = slot
	router := bookingRouter(h)

	rec := doBook(router, "APP-2026-EEEEEE", slot.ID)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409", rec.Code)
	}
	_, _, errObj := decodeEnvelope(t, rec)
	if errObj["code"] != model.ErrCodeSlotUnavailable {
		t.Errorf("error code %v, want %s", errObj["code"], model.ErrCodeSlotUnavailable)
	}
	if slots.get(slot.ID).ApplicationID != "APP-2026-OTHERX" {
		t.Error("existing claim must not be disturbed")
	}
}

func TestBookInterviewMeetFailureReleasesSlot(t *testing.T) {
	h, applications, slots, _, notifier := newBookingFixture()
	h.Meet = failingMeet{}
	applications.applications["APP-2026-FFFFFF"] = interviewApplication("APP-2026-FFFFFF")
	slots.slots["slotffffffff"] = openSlot("slotffffffff")
	router := bookingRouter(h)

	rec := doBook(router, "APP-2026-FFFFFF", "slotffffffff")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status %d, want 502", rec.Code)
	}
	_, _, errObj := decodeEnvelope(t, rec)
	if errObj["code"] != model.ErrCodeMeetingProvisioningFailed {
		t.Errorf("error code %v, want %s", errObj["code"], model.ErrCodeMeetingProvisioningFailed)
	}
	slot := slots.get("slotffffffff")
	if slot.Booked || slot.ApplicationID != "" {
		t.Error("slot must be released when meeting provisioning fails")
	}
	if notifier.calls != 0 {
		t.Error("no confirmation may go out for a failed booking")
	}
}

func TestBookInterviewPersistFailureCompensates(t *testing.T) {
	h, applications, slots, _, _ := newBookingFixture()
	meet := &cloud.MockMeetService{}
	h.Meet = meet
	applications.applications["APP-2026-GGGGGG"] = interviewApplication("APP-2026-GGGGGG")
	applications.failSet = true
	slots.slots["slotgggggggg"] = openSlot("slotgggggggg")
	router := bookingRouter(h)

	rec := doBook(router, "APP-2026-GGGGGG", "slotgggggggg")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", rec.Code)
	}
	slot := slots.get("slotgggggggg")
	if slot.Booked {
		t.Error("slot must be released when persisting the interview fails")
	}
	if len(meet.Canceled) != 1 {
		t.Errorf("meeting should be canceled once, got %d", len(meet.Canceled))
	}
}

func TestBookInterviewRateLimited(t *testing.T) {
	h, applications, slots, limiter, _ := newBookingFixture()
	limiter.deny = true
	applications.applications["APP-2026-HHHHHH"] = interviewApplication("APP-2026-HHHHHH")
	slots.slots["slothhhhhhhh"] = openSlot("slothhhhhhhh")
	router := bookingRouter(h)

	rec := doBook(router, "APP-2026-HHHHHH", "slothhhhhhhh")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status %d, want 429", rec.Code)
	}
	_, _, errObj := decodeEnvelope(t, rec)
	if errObj["code"] != model.ErrCodeRateLimited {
		t.Errorf("error code %v, want %s", errObj["code"], model.ErrCodeRateLimited)
	}
	details, ok := errObj["details"].(map[string]interface{})
	if !ok {
		t.Fatal("rate limited error must carry details")
	}
	if details["retryAfterSeconds"].(float64) <= 0 {
		t.Error("retryAfterSeconds must be positive")
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header must be set")
	}
	if slots.get("slothhhhhhhh").Booked {
		t.Error("rate limited request must not claim a slot")
	}
}

func TestBookInterviewMalformedIDs(t *testing.T) {
	h, _, _, limiter, _ := newBookingFixture()
	router := bookingRouter(h)

	rec := doBook(router, "not-an-app-id!", "slotaaaaaaaa")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	rec = doBook(router, "APP-2026-AAAAAA", "BAD SLOT")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	if limiter.checks != 0 {
		t.Error("validation failures must not consume rate limit budget")
	}
}

func TestBookInterviewConcurrentClaims(t *testing.T) {
	h, applications, slots, _, _ := newBookingFixture()
	const contenders = 16
	for i := 0; i < contenders; i++ {
		id := fmt.Sprintf("APP-2026-C%05d", i)
		applications.applications[id] = interviewApplication(id)
	}
	slots.slots["slotxxxxxxxx"] = openSlot("slotxxxxxxxx")
	router := bookingRouter(h)

	codes := make(chan int, contenders)
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := doBook(router, fmt.Sprintf("APP-2026-C%05d", i), "slotxxxxxxxx")
			codes <- rec.Code
		}(i)
	}
	wg.Wait()
	close(codes)

	won := 0
	for code := range codes {
		switch code {
		case http.StatusOK:
			won++
		case http.StatusConflict:
		default:
			t.Errorf("unexpected status %d", code)
		}
	}
	if won != 1 {
		t.Fatalf("exactly one contender may win the slot, got %d", won)
	}
}
