package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/wneessen/go-mail"

	jobmetrics "github.com/binaragam/storefront/internal/jobs"
)

// Mailer delivers a plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, replyTo, subject, body string) error
}

// SMTPMailer sends through a plain SMTP relay such as Mailpit.
type SMTPMailer struct {
	Host string
	Port int
	From string
}

// NewSMTPMailer builds a mailer for host:port.
func NewSMTPMailer(host string, port int, from string) *SMTPMailer {
	return &SMTPMailer{Host: host, Port: port, From: from}
}

// Send implements Mailer.
func (m *SMTPMailer) Send(ctx context.Context, to, replyTo, subject, body string) error {
	msg, err := m.message(to, replyTo, subject, body)
	if err != nil {
		return err
	}
	client, err := mail.NewClient(m.Host, mail.WithTLSPortPolicy(mail.NoTLS), mail.WithPort(m.Port))
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

func (m *SMTPMailer) message(to, replyTo, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	if replyTo != "" {
		if err := msg.ReplyTo(headerSafe(replyTo)); err != nil {
			return nil, fmt.Errorf("smtp reply-to: %w", err)
		}
	}
	msg.Subject(headerSafe(subject))
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

// headerSafe folds line breaks so a value cannot open a new header.
func headerSafe(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

// ContactJob delivers contact form submissions.
type ContactJob struct {
	Mailer  Mailer
	Inbox   string
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewContactJob wires dependencies for the contact handler.
func NewContactJob(mailer Mailer, inbox string, logger *slog.Logger, metrics *jobmetrics.Metrics) *ContactJob {
	return &ContactJob{Mailer: mailer, Inbox: inbox, Logger: logger, Metrics: metrics}
}

// Handle processes TaskContactMessage tasks.
func (j *ContactJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Mailer == nil {
		return errors.New("contact: handler not configured")
	}
	var msg ContactMessage
	if err := json.Unmarshal(t.Payload(), &msg); err != nil {
		return fmt.Errorf("contact: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if strings.TrimSpace(msg.Email) == "" || strings.TrimSpace(msg.Message) == "" {
		return fmt.Errorf("contact: empty message: %w", asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskContactMessage)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("message_id", msg.ID))
	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	subject := fmt.Sprintf("[Bina Ragam] Pesan dari %s", headerSafe(msg.Name))
	if err := j.Mailer.Send(sendCtx, j.Inbox, msg.Email, subject, contactBody(msg)); err != nil {
		logger.Error("deliver contact message", slog.Any("error", err))
		return err
	}
	j.metrics().AddDelivered(TaskContactMessage, 1)
	logger.Info("contact message delivered")
	return nil
}

func contactBody(msg ContactMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Nama: %s\n", msg.Name)
	fmt.Fprintf(&b, "Email: %s\n", msg.Email)
	if !msg.ReceivedAt.IsZero() {
		fmt.Fprintf(&b, "Diterima: %s\n", msg.ReceivedAt.Format(time.RFC1123Z))
	}
	b.WriteString("\n")
	b.WriteString(msg.Message)
	b.WriteString("\n")
	return b.String()
}

func (j *ContactJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *ContactJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
