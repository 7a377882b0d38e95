// Package notify delivers scan results to people: a chat webhook, an
// SMTP mailer and a fan-out combinator. Delivery is best-effort, the
// caller decides whether a failure matters.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"gymwatch-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("gymwatch.lib.notify")

type Notifier interface {
	Send(ctx context.Context, message string) error
}

type Webhook struct {
	client *resty.Client
	url    string
}

// NewWebhook notifies a chat channel through an incoming webhook that
// accepts {"text": "..."} payloads.
func NewWebhook(url string) Webhook {
	client := resty.New().SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "gymwatch.lib.notify")
	return Webhook{
		client: client,
		url:    url,
	}
}

func (w Webhook) Send(ctx context.Context, message string) error {
	ctx, span := tracer.Start(ctx, "notify:Webhook.Send")
	defer span.End()

	res, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"text": message}).
		Post(w.url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post to webhook")
		return err
	}
	if res.StatusCode() >= 300 {
		err := fmt.Errorf("webhook returned status %d: %s", res.StatusCode(), res.String())
		span.RecordError(err)
		span.SetStatus(codes.Error, "webhook rejected message")
		return err
	}

	return nil
}

type SmtpConfig struct {
	Server       string
	Port         int
	EmailAddress string
	Password     string
}

type EmailOptions struct {
	Smtp    SmtpConfig
	To      []string
	Subject string
}

type Email struct {
	options EmailOptions
}

func NewEmail(options EmailOptions) Email {
	return Email{
		options: options,
	}
}

func (e Email) Send(ctx context.Context, message string) error {
	_, span := tracer.Start(ctx, "notify:Email.Send")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Gymwatch <%s>", e.options.Smtp.EmailAddress)
	mail.To = e.options.To
	mail.Subject = e.options.Subject
	mail.Text = []byte(message)

	addr := fmt.Sprintf("%s:%d", e.options.Smtp.Server, e.options.Smtp.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", e.options.Smtp.EmailAddress, e.options.Smtp.Password, e.options.Smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}

	return nil
}

// Multi sends to every notifier regardless of individual failures and
// reports them joined.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, message string) error {
	errlist := []error{}
	for _, n := range m {
		err := n.Send(ctx, message)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}
