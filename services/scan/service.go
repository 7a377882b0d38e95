package scan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Scan runs one full availability check: open a session, pick the
// reservation duration, then visit every resolved date in order. Dates
// that keep failing are recorded in the report and do not stop the run,
// a broken surface aborts it with an error.
func (s Service) Scan(ctx context.Context) (Report, error) {
	ctx, span := tracer.Start(ctx, "scan:Scan")
	defer span.End()

	report := Report{StartedAt: s.config.Now()}
	report.Dates = ResolveDates(report.StartedAt, s.config.HorizonDays, s.config.Windows)

	// ties together the logs and spans of one scheduled run
	runId, err := random.String(12)
	if err != nil {
		return s.abort(ctx, span, report, fmt.Errorf("mint run id: %w", err))
	}
	span.SetAttributes(attribute.String("run_id", runId))

	slog.InfoContext(
		ctx, "starting availability scan",
		"run_id", runId,
		"dates", len(report.Dates),
		"from", report.Dates[0].Date.Format(dateLayout),
		"to", report.Dates[len(report.Dates)-1].Date.Format(dateLayout),
	)

	surface, err := s.opener.OpenSurface(ctx)
	if err != nil {
		return s.abort(ctx, span, report, fmt.Errorf("open booking surface: %w", err))
	}
	defer func() {
		err := surface.Close(context.Background())
		if err != nil {
			slog.WarnContext(ctx, "close booking surface", "err", err)
		}
	}()

	err = surface.SelectDuration(ctx, s.config.DurationLabel)
	if err != nil {
		return s.abort(ctx, span, report, fmt.Errorf(
			"select duration %q: %w", s.config.DurationLabel, err,
		))
	}

	nav := navigator{
		surface:       surface,
		attempts:      s.config.Attempts,
		refreshWindow: s.config.RefreshWindow,
		pollInterval:  s.config.PollInterval,
	}

	for _, date := range report.Dates {
		result := nav.scanDay(ctx, date.Date)
		switch result.outcome {
		case outcomeOk:
			hits := matchWindows(date, result.labels)
			report.Hits = append(report.Hits, hits...)
			slog.InfoContext(
				ctx, "scanned date",
				"date", date.Date.Format(dateLayout),
				"slots", len(result.labels),
				"hits", len(hits),
			)
		case outcomeTransient:
			slog.ErrorContext(
				ctx, "giving up on date",
				"date", date.Date.Format(dateLayout),
				"attempts", s.config.Attempts,
				"err", result.err,
			)
			report.Failures = append(report.Failures, Failure{
				Date:     date.Date,
				Attempts: s.config.Attempts,
				Err:      result.err,
			})
		case outcomeFatal:
			return s.abort(ctx, span, report, fmt.Errorf(
				"scan aborted at %s: %w", date.Date.Format(dateLayout), result.err,
			))
		}
	}

	report.FinishedAt = s.config.Now()
	if len(report.Hits) > 0 {
		s.notify(ctx, report.Message())
	}
	return report, nil
}

// abort finalizes the report for a run that cannot continue. The abort
// itself still goes out through the notifier.
func (s Service) abort(ctx context.Context, span trace.Span, report Report, err error) (Report, error) {
	report.FinishedAt = s.config.Now()
	span.RecordError(err)
	span.SetStatus(codes.Error, "scan aborted")
	s.notify(ctx, fmt.Sprintf("Availability scan aborted: %s", err.Error()))
	return report, err
}

func (s Service) notify(ctx context.Context, message string) {
	if s.config.Notifier == nil {
		return
	}
	err := s.config.Notifier.Send(ctx, message)
	if err != nil {
		slog.ErrorContext(ctx, "deliver notification", "err", err)
	}
}
