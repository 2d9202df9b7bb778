package mail

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
)

const sendTimeout = 10 * time.Second

// Config holds the SMTP endpoint and sender identity.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (c Config) validate() error {
	if c.Host == "" {
		return errors.New("mail: host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("mail: invalid port %d", c.Port)
	}
	if c.From == "" {
		return errors.New("mail: from address is required")
	}
	return nil
}

// SMTPSender sends authentication mail through a single SMTP server.
// SMTPSender instances are intended to be configured during
// initialization and then treated as immutable unless documented
// otherwise.
type SMTPSender struct {
	config Config
	addr   string
	auth   smtp.Auth
}

// NewSMTPSender validates the config and returns a ready sender. No
// connection is opened until the first send.
func NewSMTPSender(config Config) (*SMTPSender, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}

	return &SMTPSender{
		config: config,
		addr:   fmt.Sprintf("%s:%d", config.Host, config.Port),
		auth:   auth,
	}, nil
}

// SendPasswordReset mails the reset link to one recipient. The link is
// only ever valid for a short window, so the mail states the deadline.
func (s *SMTPSender) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	if to == "" {
		return errors.New("mail: recipient is required")
	}

	msg := &email.Email{
		To:      []string{to},
		From:    s.config.From,
		Subject: "Reset your password",
		Text:    []byte(resetText(resetURL)),
		HTML:    []byte(resetHTML(resetURL)),
	}

	timeout := sendTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- msg.Send(s.addr, s.auth)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("mail: send to %s failed: %w", to, err)
		}
		return nil
	case <-sendCtx.Done():
		return fmt.Errorf("mail: send to %s aborted: %w", to, sendCtx.Err())
	}
}

func resetText(resetURL string) string {
	return "We received a request to reset your password.\n\n" +
		"Open the link below within 30 minutes to choose a new one:\n\n" +
		resetURL + "\n\n" +
		"If you did not request this, you can ignore this mail."
}

func resetHTML(resetURL string) string {
	link := html.EscapeString(resetURL)
	return `<p>We received a request to reset your password.</p>` +
		`<p>Open the link below within 30 minutes to choose a new one:</p>` +
		`<p><a href="` + link + `">` + link + `</a></p>` +
		`<p>If you did not request this, you can ignore this mail.</p>`
}
