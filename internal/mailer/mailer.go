// Package mailer delivers reminder emails over SMTP.
package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/iliyamo/habit-tracker/internal/model"
)

var frequencyPhrase = map[model.Frequency]string{
	model.FrequencyDaily:   "today",
	model.FrequencyWeekly:  "this week",
	model.FrequencyMonthly: "this month",
}

var streakUnit = map[model.Frequency]string{
	model.FrequencyDaily:   "days",
	model.FrequencyWeekly:  "weeks",
	model.FrequencyMonthly: "months",
}

// Mailer implements reminder.Sender over an SMTP transport.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	appURL string
}

// New builds a Mailer. appURL is the public base URL used in the
// mark-as-complete link.
func New(host string, port int, username, password, from, appURL string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		appURL: appURL,
	}
}

// SendReminder sends the habit reminder email. gomail's dial-and-send is
// blocking with no context support, so the send runs on its own goroutine and
// the context deadline bounds how long the caller waits.
func (m *Mailer) SendReminder(ctx context.Context, h model.Habit, u model.User) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", u.Email)
	msg.SetHeader("Subject", fmt.Sprintf("Reminder: Time to %s!", h.Name))
	msg.SetBody("text/html", fmt.Sprintf(`
          <h2>Habit Reminder</h2>
          <p>Don't forget to %s %s!</p>
          <p>Current streak: %d %s</p>
          <a href="%s/habits/%s">Mark as complete</a>
        `,
		h.Name, frequencyPhrase[h.Frequency],
		h.Streak, streakUnit[h.Frequency],
		m.appURL, h.ID.Hex()))

	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(msg) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
