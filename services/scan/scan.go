// Package scan walks a booking surface across the dates of an upcoming
// week and reports which of the configured weekly windows are bookable.
package scan

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gymwatch-backend/lib/booking"
	"gymwatch-backend/lib/timezone"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services/scan")

// TargetWindow is a recurring weekly time window to watch. Start and End
// are zero padded "HH:MM" clock times in the booking site's timezone.
type TargetWindow struct {
	Weekday time.Weekday
	Start   string
	End     string
}

// Label renders the window the way the booking site lists its slots.
func (w TargetWindow) Label() string {
	return w.Start + " - " + w.End
}

// ParseWeekday maps an english weekday name to its time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	for day := time.Sunday; day <= time.Saturday; day++ {
		if strings.EqualFold(day.String(), name) {
			return day, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

type Notifier interface {
	Send(ctx context.Context, message string) error
}

type Options struct {
	Opener        booking.Opener
	Windows       []TargetWindow
	DurationLabel string
	// HorizonDays positions the scanned week: the scan covers the whole
	// week containing today+HorizonDays. Defaults to 14.
	HorizonDays int
	// Attempts is the number of tries per date before it is reported as
	// failed. Defaults to 3.
	Attempts int
	// RefreshWindow bounds how long the slot list may keep serving stale
	// or placeholder content after a day is selected. Defaults to 15s.
	RefreshWindow time.Duration
	PollInterval  time.Duration
	// Notifier receives hit and abort messages, may be nil.
	Notifier Notifier
	// Now reports the current time, defaults to timezone.Now.
	Now func() time.Time
}

type Service struct {
	opener booking.Opener
	config Options
}

func NewService(options Options) (Service, error) {
	if options.Opener == nil {
		return Service{}, fmt.Errorf("no booking surface opener configured")
	}
	if options.DurationLabel == "" {
		return Service{}, fmt.Errorf("no duration label configured")
	}
	err := validateWindows(options.Windows)
	if err != nil {
		return Service{}, err
	}

	if options.HorizonDays <= 0 {
		options.HorizonDays = 14
	}
	if options.Attempts <= 0 {
		options.Attempts = 3
	}
	if options.RefreshWindow <= 0 {
		options.RefreshWindow = time.Second * 15
	}
	if options.PollInterval <= 0 {
		options.PollInterval = time.Millisecond * 500
	}
	if options.Now == nil {
		options.Now = timezone.Now
	}

	return Service{opener: options.Opener, config: options}, nil
}

func parseClock(value string) (int, error) {
	// time.Parse also accepts unpadded hours, which would never match
	// the zero padded labels the site renders
	if len(value) != len("15:04") {
		return 0, fmt.Errorf("expected a zero padded HH:MM time, got %q", value)
	}
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func validateWindows(windows []TargetWindow) error {
	if len(windows) == 0 {
		return fmt.Errorf("no target windows configured")
	}

	type span struct {
		start, end int
		window     TargetWindow
	}
	byWeekday := map[time.Weekday][]span{}

	for _, w := range windows {
		start, err := parseClock(w.Start)
		if err != nil {
			return fmt.Errorf("window on %s: invalid start %q: %w", w.Weekday, w.Start, err)
		}
		end, err := parseClock(w.End)
		if err != nil {
			return fmt.Errorf("window on %s: invalid end %q: %w", w.Weekday, w.End, err)
		}
		if start >= end {
			return fmt.Errorf("window %s on %s: start must come before end", w.Label(), w.Weekday)
		}
		byWeekday[w.Weekday] = append(byWeekday[w.Weekday], span{start, end, w})
	}

	for weekday, spans := range byWeekday {
		sort.Slice(spans, func(i, j int) bool {
			return spans[i].start < spans[j].start
		})
		// back to back windows may share a boundary, they only conflict
		// when one starts before the previous one ends
		for i := 1; i < len(spans); i++ {
			if spans[i].start < spans[i-1].end {
				return fmt.Errorf(
					"windows %s and %s overlap on %s",
					spans[i-1].window.Label(), spans[i].window.Label(), weekday,
				)
			}
		}
	}

	return nil
}
