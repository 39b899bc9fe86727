package sendgrid

import (
	"fmt"

	"github.com/rs/zerolog/log"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"gitlab.com/unchained-card/card_api/monitor"
)

// Sendgrid sends plain text operator mails
type Sendgrid struct {
	key  string
	from string
	to   []string
}

// NewSendgrid creates a mailer. Without a key or recipients every mail is dropped.
func NewSendgrid(key, from string, to []string) *Sendgrid {
	return &Sendgrid{key: key, from: from, to: to}
}

// Enabled godoc
func (s *Sendgrid) Enabled() bool {
	return s.key != "" && s.from != "" && len(s.to) > 0
}

// SendOperatorEmail sends the message to every configured recipient
func (s *Sendgrid) SendOperatorEmail(subject, text string) error {
	if !s.Enabled() {
		monitor.Notifications.WithLabelValues("email", "skipped").Inc()
		return nil
	}
	client := sg.NewSendClient(s.key)
	from := mail.NewEmail("Card API", s.from)
	var lastErr error
	for _, to := range s.to {
		message := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), text, "")
		resp, err := client.Send(message)
		if err == nil && resp.StatusCode >= 300 {
			err = fmt.Errorf("Sendgrid API Error: %d - %s", resp.StatusCode, resp.Body)
		}
		if err != nil {
			lastErr = err
			monitor.Notifications.WithLabelValues("email", "error").Inc()
			log.Error().Err(err).Str("section", "sendgrid").Str("action", "send").Str("to", to).Msg("Unable to send email")
			continue
		}
		monitor.Notifications.WithLabelValues("email", "ok").Inc()
	}
	return lastErr
}
