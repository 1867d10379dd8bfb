package cloud

import (
	"fmt"
	"time"

	"github.com/qiniu/x/xlog"

	"github.com/polaris-rocketry/polaris-server/internal/common/utils"
	"github.com/polaris-rocketry/polaris-server/internal/protodef/model"
)

// NotifyService composes and dispatches transactional email. Every Notify
// method is fire-and-forget: delivery runs on its own goroutine and failures
// are logged, never surfaced to the request that triggered them.
type NotifyService struct {
	mail      MailSender
	siteName  string
	teamInbox []string
	xl        *xlog.Logger
}

func NewNotifyService(conf *utils.Config, mail MailSender, xl *xlog.Logger) *NotifyService {
	if xl == nil {
		xl = xlog.New("polaris-notify")
	}
	return &NotifyService{
		mail:      mail,
		siteName:  conf.SiteName,
		teamInbox: conf.Mail.TeamInbox,
		xl:        xl,
	}
}

func (s *NotifyService) dispatch(xl *xlog.Logger, to []string, subject, body string) {
	if xl == nil {
		xl = s.xl
	}
	go func() {
		if err := s.mail.SendMail(xl, to, subject, body); err != nil {
			xl.Errorf("notification %q not delivered, error %v", subject, err)
		}
	}()
}

// NotifyBookingConfirmed mails the applicant their interview details, with a
// copy to the team inbox.
func (s *NotifyService) NotifyBookingConfirmed(xl *xlog.Logger, application *model.ApplicationDo, start time.Time, meetLink string) {
	subject := BookingConfirmedSubject(s.siteName)
	s.dispatch(xl, []string{application.Email}, subject,
		BookingConfirmedBody(application.Name, application.ID, start, meetLink))
	s.dispatch(xl, s.teamInbox, subject,
		BookingTeamBody(application.Name, application.ID, start, meetLink))
}

// NotifyApplicationReceived acknowledges a new membership application.
func (s *NotifyService) NotifyApplicationReceived(xl *xlog.Logger, application *model.ApplicationDo) {
	s.dispatch(xl, []string{application.Email},
		ApplicationReceivedSubject(s.siteName),
		ApplicationReceivedBody(application.Name, application.ID))
	s.dispatch(xl, s.teamInbox,
		fmt.Sprintf("[%s] new application %s", s.siteName, application.ID),
		fmt.Sprintf("%s (%s) applied to the %s division.", application.Name, application.Email, application.Division))
}

// NotifyApplicationDeleted tells the applicant their application was removed,
// with a copy to the team inbox. Removal is never silent.
func (s *NotifyService) NotifyApplicationDeleted(xl *xlog.Logger, application *model.ApplicationDo) {
	s.dispatch(xl, []string{application.Email},
		ApplicationDeletedSubject(s.siteName),
		ApplicationDeletedBody(application.Name, application.ID))
	s.dispatch(xl, s.teamInbox,
		fmt.Sprintf("[%s] application %s deleted", s.siteName, application.ID),
		fmt.Sprintf("Application %s from %s (%s) was removed from the system.",
			application.ID, application.Name, application.Email))
}

// NotifyContactMessage forwards a contact form message to the team inbox.
func (s *NotifyService) NotifyContactMessage(xl *xlog.Logger, message *model.ContactMessageDo) {
	s.dispatch(xl, s.teamInbox,
		fmt.Sprintf("[%s] contact: %s", s.siteName, message.Subject),
		fmt.Sprintf("From: %s <%s>\n\n%s", message.Name, message.Email, message.Body))
}

// Message templates, kept pure for testing.

func BookingConfirmedSubject(siteName string) string {
	return fmt.Sprintf("[%s] your interview is booked", siteName)
}

func BookingConfirmedBody(name, applicationID string, start time.Time, meetLink string) string {
	return fmt.Sprintf(
		"Hi %s,\n\nyour interview for application %s is confirmed.\n\nWhen: %s\nWhere: %s\n\nSee you there!",
		name, applicationID, start.Format(time.RFC1123), meetLink)
}

func BookingTeamBody(name, applicationID string, start time.Time, meetLink string) string {
	return fmt.Sprintf(
		"Interview booked by %s (application %s).\n\nWhen: %s\nWhere: %s",
		name, applicationID, start.Format(time.RFC1123), meetLink)
}

func ApplicationDeletedSubject(siteName string) string {
	return fmt.Sprintf("[%s] your application was removed", siteName)
}

func ApplicationDeletedBody(name, applicationID string) string {
	return fmt.Sprintf(
		"Hi %s,\n\nyour application %s has been removed from our records. If this comes as a surprise, reply to this mail and we will sort it out.",
		name, applicationID)
}

func ApplicationReceivedSubject(siteName string) string {
	return fmt.Sprintf("[%s] application received", siteName)
}

func ApplicationReceivedBody(name, applicationID string) string {
	return fmt.Sprintf(
		"Hi %s,\n\nthanks for applying! Your application ID is %s. Keep it around, you will need it to book your interview once we invite you.",
		name, applicationID)
}
