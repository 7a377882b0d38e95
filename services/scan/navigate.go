package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gymwatch-backend/lib/booking"
	"gymwatch-backend/lib/slottext"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type outcome int

const (
	outcomeOk outcome = iota
	// outcomeTransient failures are worth another attempt on the same
	// date and never abort the run.
	outcomeTransient
	// outcomeFatal failures mean the surface itself is broken (a control
	// the flow depends on is gone), retrying any date is pointless.
	outcomeFatal
)

type dayResult struct {
	outcome outcome
	labels  []string
	err     error
}

type navigator struct {
	surface       booking.Surface
	attempts      int
	refreshWindow time.Duration
	pollInterval  time.Duration
}

// scanDay reads the slot list for a single date, retrying transient
// failures up to the configured attempt count. Every attempt starts over
// from a freshly opened date picker, partial state from a failed attempt
// is never reused.
func (n navigator) scanDay(ctx context.Context, date time.Time) dayResult {
	ctx, span := tracer.Start(ctx, "scan:day")
	defer span.End()
	span.SetAttributes(attribute.String("date", date.Format(dateLayout)))

	var result dayResult
	for attempt := 1; attempt <= n.attempts; attempt++ {
		result = n.attemptDay(ctx, date)
		if result.outcome != outcomeTransient {
			break
		}
		if attempt < n.attempts {
			slog.WarnContext(
				ctx, "retrying date after transient failure",
				"date", date.Format(dateLayout),
				"attempt", attempt,
				"err", result.err,
			)
		}
	}

	if result.err != nil {
		span.RecordError(result.err)
		span.SetStatus(codes.Error, "failed to read slot list")
	}
	return result
}

func (n navigator) attemptDay(ctx context.Context, date time.Time) dayResult {
	err := n.surface.OpenDatePicker(ctx)
	if err != nil {
		return classify(fmt.Errorf("open date picker: %w", err))
	}
	err = n.surface.SetYear(ctx, date.Year())
	if err != nil {
		return classify(fmt.Errorf("set year %d: %w", date.Year(), err))
	}
	err = n.surface.SetMonth(ctx, date.Month())
	if err != nil {
		return classify(fmt.Errorf("set month %s: %w", date.Month(), err))
	}
	err = n.surface.SelectDay(ctx, booking.DaySelector{Day: date.Day()})
	if err != nil {
		return classify(fmt.Errorf("select day %d: %w", date.Day(), err))
	}

	labels, err := n.awaitSlotLabels(ctx)
	if err != nil {
		return classify(fmt.Errorf("read slot list: %w", err))
	}
	return dayResult{outcome: outcomeOk, labels: labels}
}

func classify(err error) dayResult {
	if errors.Is(err, booking.ErrControlMissing) {
		return dayResult{outcome: outcomeFatal, err: err}
	}
	// timeouts, stale swaps and anything unrecognized get retried
	return dayResult{outcome: outcomeTransient, err: err}
}

// awaitSlotLabels polls the slot list until it has settled on the newly
// selected date. A stale read followed by a clean one proves the swap
// landed, so the clean read is trusted as is. A list that only ever
// shows placeholder text is accepted once the refresh window passes,
// that is what a date without any slots legitimately looks like.
func (n navigator) awaitSlotLabels(ctx context.Context) ([]string, error) {
	deadline := time.Now().Add(n.refreshWindow)

	var sawStale bool
	var lastLabels []string
	var haveRead bool

	for {
		labels, err := n.surface.ReadSlotLabels(ctx)
		switch {
		case err == nil && (sawStale || hasTimeRange(labels)):
			return labels, nil
		case err == nil:
			lastLabels = labels
			haveRead = true
		case errors.Is(err, booking.ErrStaleControl):
			sawStale = true
		default:
			return nil, err
		}

		if time.Now().After(deadline) {
			if haveRead {
				return lastLabels, nil
			}
			return nil, fmt.Errorf("slot list never settled: %w", booking.ErrWaitTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(n.pollInterval):
		}
	}
}

func hasTimeRange(labels []string) bool {
	for _, label := range labels {
		if slottext.IsTimeRange(label) {
			return true
		}
	}
	return false
}
