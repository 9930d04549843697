package notifications

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type Email struct {
	ToName  string
	ToEmail string
	Subject string
	HTML    string
}

// Mailer delivers transactional email. Send never blocks on the network.
type Mailer interface {
	Send(messages ...Email)
}

// NewMailer picks SendGrid when an API key is configured and a log-only mailer otherwise.
func NewMailer(apiKey, senderName, senderEmail string, logger *slog.Logger) Mailer {
	if apiKey == "" {
		logger.Warn("SENDGRID_API_KEY not set, emails will only be logged")
		return &LogMailer{logger: logger}
	}
	return &SendGridMailer{
		key:        apiKey,
		from:       sgmail.NewEmail(senderName, senderEmail),
		subjPrefix: "[" + senderName + "] ",
		logger:     logger,
	}
}

type SendGridMailer struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	logger     *slog.Logger
}

func (m *SendGridMailer) Send(messages ...Email) {
	for _, msg := range messages {
		msg := msg
		if !validRecipient(msg.ToEmail) {
			m.logger.Warn("skipping email with invalid recipient", "to", msg.ToEmail)
			continue
		}
		go func() {
			if err := m.send(msg); err != nil {
				m.logger.Error("send email failed", "to", msg.ToEmail, "subject", msg.Subject, "error", err)
				return
			}
			m.logger.Info("email sent", "to", msg.ToEmail, "subject", msg.Subject)
		}()
	}
}

func (m *SendGridMailer) prepare(msg Email) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(recipientName(msg), msg.ToEmail))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(sgmail.NewContent("text/html", msg.HTML))
	return v3
}

func (m *SendGridMailer) send(msg Email) error {
	req := sendgrid.GetRequest(m.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// LogMailer is used in development and keeps what it was asked to send.
type LogMailer struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []Email
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(messages ...Email) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range messages {
		if m.logger != nil {
			m.logger.Info("email (not delivered)", "to", msg.ToEmail, "subject", msg.Subject)
		}
		m.sent = append(m.sent, msg)
	}
}

func (m *LogMailer) Sent() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Email, len(m.sent))
	copy(out, m.sent)
	return out
}

func validRecipient(addr string) bool {
	return addr != "" && strings.Contains(addr, "@")
}

func recipientName(msg Email) string {
	if msg.ToName != "" {
		return msg.ToName
	}
	return msg.ToEmail[:strings.Index(msg.ToEmail, "@")]
}
