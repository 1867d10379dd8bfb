package model

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

/*
	db_model.go: persisted document formats.
*/

// Application statuses. A booking may only be attempted while the
// application sits in the interview stage.
const (
	ApplicationStatusNew       = "new"
	ApplicationStatusRead      = "read"
	ApplicationStatusInterview = "interview"
	ApplicationStatusAccepted  = "accepted"
	ApplicationStatusRejected  = "rejected"
)

// ApplicationStatuses all legal status values, in triage order.
var ApplicationStatuses = []string{
	ApplicationStatusNew,
	ApplicationStatusRead,
	ApplicationStatusInterview,
	ApplicationStatusAccepted,
	ApplicationStatusRejected,
}

// ApplicationDo a membership application. ID is the human-readable
// identifier (APP-<year>-<segment>) used in public URLs.
type ApplicationDo struct {
	ID           string `json:"id" bson:"_id"`
	Name         string `json:"name" bson:"name"`
	Email        string `json:"email" bson:"email"`
	Phone        string `json:"phone,omitempty" bson:"phone,omitempty"`
	FieldOfStudy string `json:"fieldOfStudy,omitempty" bson:"fieldOfStudy,omitempty"`
	// Division the team division applied to (propulsion, avionics, ...).
	Division   string `json:"division,omitempty" bson:"division,omitempty"`
	Motivation string `json:"motivation,omitempty" bson:"motivation,omitempty"`
	Status     string `json:"status" bson:"status"`
	// InterviewDate set at most once by the booking workflow; cleared only by
	// an administrative reset.
	InterviewDate *time.Time `json:"interviewDate,omitempty" bson:"interviewDate,omitempty"`
	MeetLink      string     `json:"meetLink,omitempty" bson:"meetLink,omitempty"`
	MeetEventID   string     `json:"meetEventId,omitempty" bson:"meetEventId,omitempty"`
	CreateTime    time.Time  `json:"createTime" bson:"createTime"`
	UpdateTime    time.Time  `json:"updateTime" bson:"updateTime"`
}

// InterviewSlotDo an administrator-defined bookable time window.
// Invariant: booked == (applicationId != "").
type InterviewSlotDo struct {
	ID            string    `json:"id" bson:"_id"`
	StartTime     time.Time `json:"startTime" bson:"startTime"`
	EndTime       time.Time `json:"endTime" bson:"endTime"`
	Booked        bool      `json:"booked" bson:"booked"`
	ApplicationID string    `json:"applicationId,omitempty" bson:"applicationId,omitempty"`
	CreatedBy     string    `json:"createdBy" bson:"createdBy"`
	CreateTime    time.Time `json:"createTime" bson:"createTime"`
}

// RateLimitCounterDo persisted fixed-window counter. ID is
// "<identifier>:<action>".
type RateLimitCounterDo struct {
	ID          string    `json:"id" bson:"_id"`
	Count       int       `json:"count" bson:"count"`
	WindowStart time.Time `json:"windowStart" bson:"windowStart"`
	ExpireAt    time.Time `json:"-" bson:"expireAt"`
}

var passwordDigestKey = []byte("polaris-server")

// PasswordDigest salted digest for the given plaintext.
// digest = hmac_sha256(password+salt, key)
func PasswordDigest(password, salt string) string {
	if salt == "" {
		panic("salt could not be empty")
	}
	mac := hmac.New(sha256.New, passwordDigestKey)
	mac.Write([]byte(password + salt))
	return hex.EncodeToString(mac.Sum(nil))
}

// AccountDo a back-office account. Unapproved accounts can sign in but are
// rejected at the admin gate until another approved admin approves them.
type AccountDo struct {
	ID             string    `json:"id" bson:"_id"`
	Email          string    `json:"email" bson:"email"`
	Name           string    `json:"name" bson:"name"`
	PasswordDigest string    `json:"-" bson:"passwordDigest"`
	Salt           string    `json:"-" bson:"salt"`
	Approved       bool      `json:"approved" bson:"approved"`
	RegisterTime   time.Time `json:"registerTime" bson:"registerTime"`
	LastLoginTime  time.Time `json:"lastLoginTime" bson:"lastLoginTime"`
}

// CheckPassword reports whether the plaintext matches the stored digest.
func (a *AccountDo) CheckPassword(password string) bool {
	return a.PasswordDigest == PasswordDigest(password, a.Salt)
}

// AccountTokenDo a live session. One per account; a new sign-in replaces the
// previous token.
type AccountTokenDo struct {
	ID             string    `json:"id" bson:"_id"`
	AccountID      string    `json:"accountId" bson:"accountId"`
	Token          string    `json:"token" bson:"token"`
	LastModifyTime time.Time `json:"lastModifyTime" bson:"lastModifyTime"`
}

// ContactMessageDo a message from the public contact form.
type ContactMessageDo struct {
	ID         string    `json:"id" bson:"_id"`
	Name       string    `json:"name" bson:"name"`
	Email      string    `json:"email" bson:"email"`
	Subject    string    `json:"subject" bson:"subject"`
	Body       string    `json:"body" bson:"body"`
	Read       bool      `json:"read" bson:"read"`
	CreateTime time.Time `json:"createTime" bson:"createTime"`
}

// SubscriberDo a newsletter subscriber; email is unique.
type SubscriberDo struct {
	ID            string    `json:"id" bson:"_id"`
	Email         string    `json:"email" bson:"email"`
	SubscribeTime time.Time `json:"subscribeTime" bson:"subscribeTime"`
}

// NewsletterIssueDo one archived newsletter issue.
type NewsletterIssueDo struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Body        string    `json:"body" bson:"body"`
	PublishTime time.Time `json:"publishTime" bson:"publishTime"`
	CreatedBy   string    `json:"createdBy" bson:"createdBy"`
}

// PageContentDo a keyed content block for the marketing pages
// (about, projects, sponsors, competitions).
type PageContentDo struct {
	ID         string    `json:"key" bson:"_id"`
	Title      string    `json:"title" bson:"title"`
	Body       string    `json:"body" bson:"body"`
	UpdatedBy  string    `json:"updatedBy" bson:"updatedBy"`
	UpdateTime time.Time `json:"updateTime" bson:"updateTime"`
}

// UploadFileDo a file pushed through the storage gateway.
type UploadFileDo struct {
	ID         string    `json:"id" bson:"_id"`
	FileName   string    `json:"fileName" bson:"fileName"`
	FileURL    string    `json:"fileUrl" bson:"fileUrl"`
	Size       int64     `json:"size" bson:"size"`
	UploadedBy string    `json:"uploadedBy" bson:"uploadedBy"`
	CreateTime time.Time `json:"createTime" bson:"createTime"`
}
