package notify

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends one guardian email for a notification event.
type Mailer interface {
	Send(ctx context.Context, ev Event) error
}

// body renders the plain-text email shared by all mailers.
func body(ev Event) string {
	return fmt.Sprintf(
		"Dear Parent,\n\nYour child %s has been marked %s today.\nDate: %s\nTime: %s\n\nThank you,\nSchool Attendance System\n",
		ev.Name, ev.Status, ev.Timestamp.Format("2006-01-02"), ev.Timestamp.Format("15:04:05"))
}

// SendGridMailer delivers guardian emails through the SendGrid API.
type SendGridMailer struct {
	key      string
	from     *sgmail.Email
	host     string
	endpoint string
}

// NewSendGridMailer creates a mailer with the given API key and sender.
func NewSendGridMailer(key, fromName, fromEmail string) *SendGridMailer {
	return &SendGridMailer{
		key:      key,
		from:     sgmail.NewEmail(fromName, fromEmail),
		host:     "https://api.sendgrid.com",
		endpoint: "/v3/mail/send",
	}
}

// Send emails the guardian. Events without a guardian address are skipped
// silently.
func (m *SendGridMailer) Send(ctx context.Context, ev Event) error {
	if ev.Guardian == "" {
		return nil
	}

	p := sgmail.NewPersonalization()
	p.Subject = fmt.Sprintf("Attendance Update - %s", ev.Name)
	p.AddTos(sgmail.NewEmail("", ev.Guardian))

	msg := sgmail.NewV3Mail()
	msg.SetFrom(m.from)
	msg.AddPersonalizations(p)
	msg.AddContent(sgmail.NewContent("text/plain", body(ev)))

	req := sendgrid.GetRequest(m.key, m.endpoint, m.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(msg)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// ConsoleMailer logs the email instead of sending it. Used in dev and when
// no SendGrid key is configured.
type ConsoleMailer struct{}

// Send prints the rendered email to the log.
func (ConsoleMailer) Send(_ context.Context, ev Event) error {
	if ev.Guardian == "" {
		return nil
	}
	log.Printf("notification for %s <%s>:\n%s", ev.Name, ev.Guardian, body(ev))
	return nil
}
