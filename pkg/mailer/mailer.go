// Package mailer delivers generated report files as email attachments,
// either through a caller-specified SMTP server or the local MTA.
// Transport failures are never fatal to a run; the reports stay on disk
// regardless.
package mailer

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	mail "github.com/wneessen/go-mail"
)

// Config holds delivery settings. An empty Server selects the local
// sendmail path.
type Config struct {
	Recipients []string
	Server     string
	Port       int
	User       string
	Password   string

	// From overrides the sender address. Defaults to the SMTP user, or
	// "poreport@<hostname>" on the local path.
	From string

	// Timeout bounds the SMTP dial and send (default: 30s).
	Timeout time.Duration
}

// Send delivers one message with the given attachments. On the local
// path each recipient gets its own message, matching how sendmail is
// fed one envelope at a time.
func Send(cfg Config, subject, body string, attachments []string, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	if len(cfg.Recipients) == 0 {
		return fmt.Errorf("mailer: no recipients")
	}

	if cfg.Server == "" {
		return sendLocal(cfg, subject, body, attachments, log)
	}
	return sendSMTP(cfg, subject, body, attachments, log)
}

func buildMessage(from string, to []string, subject, body string, attachments []string, log *slog.Logger) (*mail.Msg, error) {
	if log == nil {
		log = slog.Default()
	}
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("mailer: invalid sender %q: %w", from, err)
	}
	if err := m.To(to...); err != nil {
		return nil, fmt.Errorf("mailer: invalid recipient: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)

	for _, path := range attachments {
		if _, err := os.Stat(path); err != nil {
			log.Warn("attachment missing, skipped", slog.String("path", path))
			continue
		}
		m.AttachFile(path)
	}
	return m, nil
}

func sendLocal(cfg Config, subject, body string, attachments []string, log *slog.Logger) error {
	from := cfg.From
	if from == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "localhost"
		}
		from = "poreport@" + host
	}

	var lastErr error
	for _, rcpt := range cfg.Recipients {
		m, err := buildMessage(from, []string{rcpt}, subject, body, attachments, log)
		if err != nil {
			lastErr = err
			log.Error("local mail not built", slog.String("error", err.Error()))
			continue
		}
		if err := m.WriteToSendmail(); err != nil {
			lastErr = fmt.Errorf("mailer: sendmail to %s: %w", rcpt, err)
			log.Error("local mail failed",
				slog.String("recipient", rcpt), slog.String("error", err.Error()))
			continue
		}
		log.Info("mail sent via local MTA", slog.String("recipient", rcpt))
	}
	return lastErr
}

// defaultSubmissionPort is used when an SMTP server is configured
// without a port.
const defaultSubmissionPort = 587

// submissionPort resolves an unset port to the submission default.
func submissionPort(port int) int {
	if port == 0 {
		return defaultSubmissionPort
	}
	return port
}

func sendSMTP(cfg Config, subject, body string, attachments []string, log *slog.Logger) error {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}

	m, err := buildMessage(from, cfg.Recipients, subject, body, attachments, log)
	if err != nil {
		return err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	port := submissionPort(cfg.Port)
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTimeout(timeout),
	}
	opts = append(opts, tlsOptions(port)...)
	if cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(cfg.User),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Server, opts...)
	if err != nil {
		return fmt.Errorf("mailer: client for %s:%d: %w", cfg.Server, port, err)
	}

	if err := client.DialAndSend(m); err != nil {
		return fmt.Errorf("mailer: send via %s:%d: %w", cfg.Server, port, err)
	}
	log.Info("mail sent via SMTP",
		slog.String("server", cfg.Server), slog.Int("recipients", len(cfg.Recipients)))
	return nil
}

// tlsOptions maps the conventional submission ports to their transport
// security: 587 requires STARTTLS, 465 is TLS from the first byte,
// anything else negotiates opportunistically.
func tlsOptions(port int) []mail.Option {
	switch port {
	case 587:
		return []mail.Option{mail.WithTLSPolicy(mail.TLSMandatory)}
	case 465:
		return []mail.Option{mail.WithSSL()}
	default:
		return []mail.Option{mail.WithTLSPolicy(mail.TLSOpportunistic)}
	}
}
