package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Sender delivers one rendered email.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// SMTPSender sends email through an SMTP relay. The connection deadline is
// taken from ctx, so a stuck relay cannot hold a delivery forever.
type SMTPSender struct {
	addr     string
	username string
	password string
	from     string
}

func NewSMTPSender(addr, username, password, from string) *SMTPSender {
	return &SMTPSender{addr: addr, username: username, password: password, from: from}
}

func (s *SMTPSender) Send(ctx context.Context, email Email) error {
	host, _, err := net.SplitHostPort(s.addr)
	if err != nil {
		return fmt.Errorf("smtp addr: %w", err)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp greeting: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if s.username != "" {
		if err := c.Auth(smtp.PlainAuth("", s.username, s.password, host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := c.Mail(envelopeAddress(s.from)); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(email.To); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(buildMIME(s.from, email)); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}

	return c.Quit()
}

// envelopeAddress extracts "a@b" from "Name <a@b>".
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return strings.TrimSpace(from)
}

// headerValue keeps a header on one line: CR and LF would start a new header.
func headerValue(v string) string {
	return strings.NewReplacer("\r", "", "\n", " ").Replace(v)
}

func buildMIME(from string, email Email) []byte {
	var b strings.Builder
	b.WriteString("From: " + headerValue(from) + "\r\n")
	b.WriteString("To: " + headerValue(email.To) + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", headerValue(email.Subject)) + "\r\n")
	b.WriteString("Date: " + time.Now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(email.HTML)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// EmailDispatcher renders the slot email and hands it to a Sender for every recipient.
type EmailDispatcher struct {
	sender      Sender
	timeout     time.Duration
	concurrency int
	logger      *zap.Logger
}

func NewEmailDispatcher(sender Sender, timeout time.Duration, concurrency int, logger *zap.Logger) *EmailDispatcher {
	return &EmailDispatcher{sender: sender, timeout: timeout, concurrency: concurrency, logger: logger}
}

func (d *EmailDispatcher) Notify(ctx context.Context, msg Message) Result {
	res := FanOut(ctx, msg.Recipients, d.timeout, d.concurrency, func(ctx context.Context, to string) error {
		email, err := RenderEmail(msg, to)
		if err != nil {
			return err
		}
		return d.sender.Send(ctx, email)
	})

	for _, e := range res.Errors {
		d.logger.Warn("Failed to deliver slot notification",
			zap.String("to", e.Recipient),
			zap.Error(e.Err),
		)
	}

	return res
}
