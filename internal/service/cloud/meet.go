package cloud

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/qiniu/x/xlog"
	"github.com/tidwall/gjson"

	"github.com/polaris-rocketry/polaris-server/internal/common/utils"
	errors2 "github.com/polaris-rocketry/polaris-server/internal/protodef/errors"
)

// MeetingRequest what the booking workflow needs provisioned.
type MeetingRequest struct {
	Topic     string
	StartTime time.Time
	Duration  time.Duration
	Agenda    string
}

// MeetingInfo a provisioned meeting.
type MeetingInfo struct {
	EventID string
	JoinURL string
}

// MeetProvider provisions video meetings. Cancel compensates a booking that
// failed after provisioning.
type MeetProvider interface {
	CreateMeeting(xl *xlog.Logger, req MeetingRequest) (*MeetingInfo, error)
	CancelMeeting(xl *xlog.Logger, eventID string) error
}

// NewMeetService picks the provider by config. "test" returns deterministic
// fake meetings for development and tests.
func NewMeetService(conf utils.MeetConfig, xl *xlog.Logger) MeetProvider {
	switch conf.Provider {
	case "test", "":
		return &MockMeetService{}
	default:
		return NewZoomMeetService(conf, xl)
	}
}

// TokenCache caches the provider OAuth token between calls. Injectable so
// tests can pre-seed or expire it.
type TokenCache struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

// Get returns the cached token if it is still live at time now.
func (c *TokenCache) Get(now time.Time) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" || !now.Before(c.expiresAt) {
		return "", false
	}
	return c.token, true
}

func (c *TokenCache) Set(token string, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expiresAt = expiresAt
}

// ZoomMeetService Zoom server-to-server OAuth client.
type ZoomMeetService struct {
	conf   utils.MeetConfig
	client *http.Client
	cache  *TokenCache
	xl     *xlog.Logger
}

func NewZoomMeetService(conf utils.MeetConfig, xl *xlog.Logger) *ZoomMeetService {
	if xl == nil {
		xl = xlog.New("polaris-meet")
	}
	if conf.BaseURL == "" {
		conf.BaseURL = "https://api.zoom.us/v2"
	}
	if conf.AuthURL == "" {
		conf.AuthURL = "https://zoom.us/oauth/token"
	}
	return &ZoomMeetService{
		conf:   conf,
		client: &http.Client{Timeout: 10 * time.Second},
		cache:  &TokenCache{},
		xl:     xl,
	}
}

func (s *ZoomMeetService) accessToken(xl *xlog.Logger) (string, error) {
	if token, ok := s.cache.Get(time.Now()); ok {
		return token, nil
	}
	form := url.Values{}
	form.Set("grant_type", "account_credentials")
	form.Set("account_id", s.conf.AccountID)
	req, err := http.NewRequest(http.MethodPost, s.conf.AuthURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(s.conf.ClientID, s.conf.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.client.Do(req)
	if err != nil {
		xl.Errorf("meet token request failed, error %v", err)
		return "", err
	}
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		xl.Errorf("meet token request status %d, body %s", resp.StatusCode, body)
		return "", errors2.New(errors2.ServerErrorMeetProvision, "meet auth failed")
	}
	token := gjson.GetBytes(body, "access_token").String()
	expiresIn := gjson.GetBytes(body, "expires_in").Int()
	if token == "" {
		xl.Errorf("meet token response missing access_token, body %s", body)
		return "", errors2.New(errors2.ServerErrorMeetProvision, "meet auth failed")
	}
	// Renew one minute early.
	s.cache.Set(token, time.Now().Add(time.Duration(expiresIn-60)*time.Second))
	return token, nil
}

func (s *ZoomMeetService) CreateMeeting(xl *xlog.Logger, meetingReq MeetingRequest) (*MeetingInfo, error) {
	if xl == nil {
		xl = s.xl
	}
	token, err := s.accessToken(xl)
	if err != nil {
		return nil, errors2.New(errors2.ServerErrorMeetProvision, "meet auth failed")
	}
	payload := map[string]interface{}{
		"topic":      meetingReq.Topic,
		"agenda":     meetingReq.Agenda,
		"type":       2,
		"start_time": meetingReq.StartTime.UTC().Format("2006-01-02T15:04:05Z"),
		"duration":   int(meetingReq.Duration.Minutes()),
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, s.conf.BaseURL+"/users/me/meetings", bytes.NewBuffer(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		xl.Errorf("create meeting request failed, error %v", err)
		return nil, errors2.New(errors2.ServerErrorMeetProvision, "meet provisioning failed")
	}
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors2.New(errors2.ServerErrorMeetProvision, "meet provisioning failed")
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		xl.Errorf("create meeting status %d, body %s", resp.StatusCode, body)
		return nil, errors2.New(errors2.ServerErrorMeetProvision, "meet provisioning failed")
	}
	info := &MeetingInfo{
		EventID: gjson.GetBytes(body, "id").String(),
		JoinURL: gjson.GetBytes(body, "join_url").String(),
	}
	if info.JoinURL == "" {
		xl.Errorf("create meeting response missing join_url, body %s", body)
		return nil, errors2.New(errors2.ServerErrorMeetProvision, "meet provisioning failed")
	}
	xl.Infof("provisioned meeting %s", info.EventID)
	return info, nil
}

func (s *ZoomMeetService) CancelMeeting(xl *xlog.Logger, eventID string) error {
	if xl == nil {
		xl = s.xl
	}
	token, err := s.accessToken(xl)
	if err != nil {
		return errors2.New(errors2.ServerErrorMeetProvision, "meet auth failed")
	}
	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/meetings/%s", s.conf.BaseURL, eventID), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.client.Do(req)
	if err != nil {
		xl.Errorf("cancel meeting request failed, error %v", err)
		return errors2.New(errors2.ServerErrorMeetProvision, "meet cancel failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		xl.Errorf("cancel meeting %s status %d", eventID, resp.StatusCode)
		return errors2.New(errors2.ServerErrorMeetProvision, "meet cancel failed")
	}
	return nil
}

// MockMeetService deterministic meetings for development and tests.
type MockMeetService struct {
	mu       sync.Mutex
	counter  int
	Canceled []string
}

func (s *MockMeetService) CreateMeeting(xl *xlog.Logger, meetingReq MeetingRequest) (*MeetingInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	eventID := fmt.Sprintf("mock-event-%d", s.counter)
	return &MeetingInfo{
		EventID: eventID,
		JoinURL: "https://meet.example.org/" + eventID,
	}, nil
}

func (s *MockMeetService) CancelMeeting(xl *xlog.Logger, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Canceled = append(s.Canceled, eventID)
	return nil
}
