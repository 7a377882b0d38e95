package main

import (
	"context"
	"log/slog"
	"time"

	"gymwatch-backend/lib/hitstore"
	"gymwatch-backend/lib/notify"
	"gymwatch-backend/services/scan"
	"gymwatch-backend/services/scan/reportfs"
)

type runner struct {
	service scan.Service
	store   hitstore.Store
	reports reportfs.Writer
}

func (r runner) runScan(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute*30)
	defer cancel()

	report, scanErr := r.service.Scan(ctx)

	// a fatal run is still recorded, with whatever it gathered
	_, err := r.store.Push(ctx, report.PushRequest(scanErr))
	if err != nil {
		slog.ErrorContext(ctx, "persist scan report", "err", err)
	}
	if scanErr != nil {
		slog.ErrorContext(ctx, "scan failed", "err", scanErr)
		return
	}

	csvPath, summaryPath, err := r.reports.Write(report)
	if err != nil {
		slog.ErrorContext(ctx, "write report files", "err", err)
		return
	}
	slog.InfoContext(
		ctx, "scan complete",
		"hits", len(report.Hits),
		"failures", len(report.Failures),
		"csv", csvPath,
		"summary", summaryPath,
	)
}

func buildNotifier(cfg Config) scan.Notifier {
	var notifiers notify.Multi
	if cfg.Webhook.Url != "" {
		notifiers = append(notifiers, notify.NewWebhook(cfg.Webhook.Url))
	}
	if cfg.Email.Server != "" {
		subject := cfg.Email.Subject
		if subject == "" {
			subject = "Gym availability"
		}
		notifiers = append(notifiers, notify.NewEmail(notify.EmailOptions{
			Smtp: notify.SmtpConfig{
				Server:       cfg.Email.Server,
				Port:         cfg.Email.Port,
				EmailAddress: cfg.Email.EmailAddress,
				Password:     cfg.Email.Password,
			},
			To:      cfg.Email.To,
			Subject: subject,
		}))
	}
	if len(notifiers) == 0 {
		return nil
	}
	return notifiers
}
