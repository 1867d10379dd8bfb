package handler

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
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

type fakeApplicationAdmin struct {
	mu           sync.Mutex
	applications map[string]*model.ApplicationDo
}

func (f *fakeApplicationAdmin) CreateApplication(xl *xlog.Logger, submitForm *form.ApplicationSubmitForm) (*model.ApplicationDo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	application := &model.ApplicationDo{
		ID:     utils.NewApplicationID(time.Now()),
		Name:   submitForm.Name,
		Email:  submitForm.Email,
		Status: model.ApplicationStatusNew,
	}
	f.applications[application.ID] = application
	return application, nil
}

func (f *fakeApplicationAdmin) GetApplicationByID(xl *xlog.Logger, id string) (*model.ApplicationDo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	application, ok := f.applications[id]
	if !ok {
		return nil, errors2.New(errors2.ServerErrorApplicationNotFound, "no such application")
	}
	clone := *application
	return &clone, nil
}

func (f *fakeApplicationAdmin) ListApplications(xl *xlog.Logger, status string, pageNum, pageSize int) ([]model.ApplicationDo, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.ApplicationDo, 0, len(f.applications))
	for _, application := range f.applications {
		if status == "" || application.Status == status {
			out = append(out, *application)
		}
	}
	return out, len(out), nil
}

func (f *fakeApplicationAdmin) UpdateStatus(xl *xlog.Logger, id, status string) (*model.ApplicationDo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	application, ok := f.applications[id]
	if !ok {
		return nil, errors2.New(errors2.ServerErrorApplicationNotFound, "no such application")
	}
	application.Status = status
	clone := *application
	return &clone, nil
}

func (f *fakeApplicationAdmin) ResetInterview(xl *xlog.Logger, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	application, ok := f.applications[id]
	if !ok {
		return errors2.New(errors2.ServerErrorApplicationNotFound, "no such application")
	}
	application.InterviewDate = nil
	application.MeetLink = ""
	application.MeetEventID = ""
	return nil
}

func (f *fakeApplicationAdmin) DeleteApplication(xl *xlog.Logger, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.applications[id]; !ok {
		return errors2.New(errors2.ServerErrorApplicationNotFound, "no such application")
	}
	delete(f.applications, id)
	return nil
}

func newApplicationFixture() (*ApplicationHandler, *fakeApplicationAdmin, *cloud.MockMailService) {
	conf := utils.NewSample()
	mail := &cloud.MockMailService{}
	applications := &fakeApplicationAdmin{applications: map[string]*model.ApplicationDo{}}
	h := &ApplicationHandler{
		Application: applications,
		Slot:        &fakeSlotStore{slots: map[string]*model.InterviewSlotDo{}},
		Notify:      cloud.NewNotifyService(conf, mail, nil),
		RateLimit:   &fakeRateLimiter{},
		Rule:        db.RateLimitRule{MaxRequests: 10, Window: time.Minute},
	}
	return h, applications, mail
}

func applicationRouter(h *ApplicationHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(model.XLogKey, xlog.New("application-test"))
	})
	router.DELETE("/v1/admin/applications/:applicationId", h.DeleteApplication)
	return router
}

func waitForMail(mail *cloud.MockMailService, want int) []cloud.MockMail {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(mail.SentMails()) >= want {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	return mail.SentMails()
}

func TestDeleteApplicationNotifies(t *testing.T) {
	h, applications, mail := newApplicationFixture()
	applications.applications["APP-2026-DELETE"] = &model.ApplicationDo{
		ID:     "APP-2026-DELETE",
		Name:   "Ada Nowak",
		Email:  "ada@example.org",
		Status: model.ApplicationStatusRejected,
	}
	router := applicationRouter(h)

	req := httptest.NewRequest(http.MethodDelete, "/v1/admin/applications/APP-2026-DELETE", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if _, err := applications.GetApplicationByID(nil, "APP-2026-DELETE"); err == nil {
		t.Fatal("application should be gone")
	}

	// One mail to the applicant, one to the team inbox.
	sent := waitForMail(mail, 2)
	if len(sent) != 2 {
		t.Fatalf("expected 2 deletion mails, got %d", len(sent))
	}
	sawApplicant, sawTeam := false, false
	for _, m := range sent {
		for _, to := range m.To {
			if to == "ada@example.org" {
				sawApplicant = true
			}
			if to == "team@polaris.example.org" {
				sawTeam = true
			}
		}
	}
	if !sawApplicant {
		t.Error("applicant was not notified of the deletion")
	}
	if !sawTeam {
		t.Error("team inbox was not notified of the deletion")
	}
}

func TestDeleteApplicationUnknownSendsNothing(t *testing.T) {
	h, _, mail := newApplicationFixture()
	router := applicationRouter(h)

	req := httptest.NewRequest(http.MethodDelete, "/v1/admin/applications/APP-2026-NOPE", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
	time.Sleep(50 * time.Millisecond)
	if got := len(mail.SentMails()); got != 0 {
		t.Fatalf("no mail may go out for a failed delete, got %d", got)
	}
}
