package notifications

import (
	"context"
	"crypto/tls"
	"fmt"
	htmltemplate "html/template"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"showbook/internal/shared/config"
	"showbook/pkg/logger"
)

// Sender delivers a rendered mail
type Sender interface {
	SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// newSender returns an SMTP sender when SMTP is configured, a logging one otherwise
func newSender(cfg config.EmailConfig, log *logger.Logger) Sender {
	sender, err := NewSMTPSender(cfg)
	if err != nil {
		log.Warn("SMTP not configured, mails will only be logged", "reason", err.Error())
		return NewLogSender(log)
	}
	return sender
}

// SMTPSender sends through an SMTP server using STARTTLS
type SMTPSender struct {
	config config.EmailConfig
}

func NewSMTPSender(cfg config.EmailConfig) (*SMTPSender, error) {
	if err := validateSMTPConfig(cfg); err != nil {
		return nil, err
	}
	return &SMTPSender{config: cfg}, nil
}

func validateSMTPConfig(cfg config.EmailConfig) error {
	if cfg.SMTPHost == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if cfg.SMTPPort <= 0 || cfg.SMTPPort > 65535 {
		return fmt.Errorf("SMTP port must be between 1 and 65535")
	}
	if cfg.SMTPUsername == "" {
		return fmt.Errorf("SMTP username is required")
	}
	if cfg.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}

func (s *SMTPSender) SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error {
	message := buildMessage(s.config, to, subject, htmlBody, textBody)
	auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	addr := net.JoinHostPort(s.config.SMTPHost, strconv.Itoa(s.config.SMTPPort))

	dialer := &net.Dialer{Timeout: s.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open SMTP session: %w", err)
	}
	defer client.Quit()

	if err = client.StartTLS(&tls.Config{ServerName: s.config.SMTPHost}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}
	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}
	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return w.Close()
}

// buildMessage creates a multipart/alternative message
func buildMessage(cfg config.EmailConfig, to, subject, htmlBody, textBody string) []byte {
	boundary := "boundary_" + strconv.FormatInt(time.Now().UnixNano(), 10)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", cfg.FromName, cfg.FromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	if textBody != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, textBody)
	}
	if htmlBody != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, htmlBody)
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String())
}

// LogSender writes mails to the log instead of sending them
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendHTML(ctx context.Context, to, subject, htmlBody, textBody string) error {
	s.log.InfoContext(ctx, "Mail", "to", to, "subject", subject, "body", strings.TrimSpace(textBody))
	return nil
}

// EmailWorker renders a notification and mails it. Event-level notices
// without a customer go to the admin address, or are dropped when none is set.
type EmailWorker struct {
	sender     Sender
	adminEmail string
	templates  *templates
	log        *logger.Logger
}

func NewEmailWorker(sender Sender, adminEmail string, log *logger.Logger) *EmailWorker {
	tmpls, err := loadTemplates()
	if err != nil {
		// templates are compiled in; a parse error is a programming error
		panic(err)
	}
	return &EmailWorker{sender: sender, adminEmail: adminEmail, templates: tmpls, log: log}
}

func (w *EmailWorker) Handle(ctx context.Context, n *Notification) error {
	to := n.RecipientEmail
	if to == "" {
		to = w.adminEmail
	}
	if to == "" {
		w.log.DebugContext(ctx, "Notification has no recipient, skipping", "kind", string(n.Kind))
		return nil
	}

	data := mailData{
		RecipientName: n.RecipientName,
		EventName:     n.Event.Name,
		EventDate:     n.Event.Date.Format("Monday 2 January 2006"),
		Remaining:     n.Event.RemainingCapacity,
	}
	if n.Reservation != nil {
		data.Persons = n.Reservation.NumberOfPersons
		data.ReservationID = n.Reservation.ID.String()
	}
	if n.Kind == KindReservationConfirmed && data.ReservationID != "" {
		uri, err := qrDataURI(data.ReservationID)
		if err != nil {
			w.log.WarnContext(ctx, "QR code generation failed", "error", err)
		} else {
			data.QRCode = htmltemplate.URL(uri)
		}
	}

	htmlBody, textBody, err := w.templates.render(n.Kind, data)
	if err != nil {
		return fmt.Errorf("failed to generate email content: %w", err)
	}
	return w.sender.SendHTML(ctx, to, n.Subject, htmlBody, textBody)
}
