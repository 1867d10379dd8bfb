package cloud

import (
	"fmt"
	"net/smtp"
	"strings"
	"sync"

	"github.com/qiniu/x/xlog"

	"github.com/polaris-rocketry/polaris-server/internal/common/utils"
	errors2 "github.com/polaris-rocketry/polaris-server/internal/protodef/errors"
)

// MailSender delivers one plain-text email.
type MailSender interface {
	SendMail(xl *xlog.Logger, to []string, subject, body string) error
}

// NewMailService picks the sender by config. "test" logs instead of sending.
func NewMailService(conf utils.MailConfig, xl *xlog.Logger) MailSender {
	switch conf.Provider {
	case "test", "":
		return &MockMailService{}
	default:
		return NewSMTPMailService(conf, xl)
	}
}

// SMTPMailService delivers through a plain SMTP relay.
type SMTPMailService struct {
	conf utils.MailConfig
	xl   *xlog.Logger
}

func NewSMTPMailService(conf utils.MailConfig, xl *xlog.Logger) *SMTPMailService {
	if xl == nil {
		xl = xlog.New("polaris-mail")
	}
	return &SMTPMailService{conf: conf, xl: xl}
}

func (s *SMTPMailService) SendMail(xl *xlog.Logger, to []string, subject, body string) error {
	if xl == nil {
		xl = s.xl
	}
	if len(to) == 0 {
		return nil
	}
	msg := strings.Builder{}
	msg.WriteString("From: " + s.conf.From + "\r\n")
	msg.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", s.conf.SMTPHost, s.conf.SMTPPort)
	var auth smtp.Auth
	if s.conf.Username != "" {
		auth = smtp.PlainAuth("", s.conf.Username, s.conf.Password, s.conf.SMTPHost)
	}
	err := smtp.SendMail(addr, auth, s.conf.From, to, []byte(msg.String()))
	if err != nil {
		xl.Errorf("failed to send mail to %v, error %v", to, err)
		return errors2.New(errors2.ServerErrorMailSendFail, "mail delivery failed")
	}
	xl.Infof("sent mail %q to %v", subject, to)
	return nil
}

// MockMailService records outgoing mail for tests and local development.
type MockMailService struct {
	mu   sync.Mutex
	Sent []MockMail
}

type MockMail struct {
	To      []string
	Subject string
	Body    string
}

func (s *MockMailService) SendMail(xl *xlog.Logger, to []string, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sent = append(s.Sent, MockMail{To: to, Subject: subject, Body: body})
	if xl != nil {
		xl.Infof("mock mail %q to %v", subject, to)
	}
	return nil
}

// SentMails returns a copy of the recorded mail.
func (s *MockMailService) SentMails() []MockMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]MockMail, len(s.Sent))
	copy(out, s.Sent)
	return out
}
