// Package booking defines the capability interface between the scan
// engine and a concrete reservation-site driver. The engine drives a
// Surface through duration selection, calendar positioning and slot
// reading without knowing how controls are located or what protocol
// sits underneath.
package booking

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrWaitTimeout is reported when a control did not appear or
	// refresh within the driver's bounded wait.
	ErrWaitTimeout = errors.New("timed out waiting for control")
	// ErrStaleControl is reported when a control was replaced while it
	// was being read, usually by the page's own asynchronous refresh.
	ErrStaleControl = errors.New("control went stale during read")
	// ErrControlMissing is reported when a control or option does not
	// exist on the surface at all. Retrying cannot fix this.
	ErrControlMissing = errors.New("control missing from surface")
)

// DaySelector describes a day cell to select inside the open date
// picker. Calendar grids pad their first and last rows with cells from
// adjacent months; those are skipped unless IncludeAdjacentMonths is
// set.
type DaySelector struct {
	Day                   int
	IncludeAdjacentMonths bool
}

// Opener establishes a session with the reservation site and opens the
// booking surface for the configured facility. The returned Surface
// holds the session until Close is called.
type Opener interface {
	OpenSurface(ctx context.Context) (Surface, error)
}

// Surface is one live booking page. Methods block until the operation
// completes, fail with ErrWaitTimeout/ErrStaleControl on timing races,
// or fail with ErrControlMissing when the page lacks the control
// outright. All other errors are driver-specific.
type Surface interface {
	// SelectDuration picks the reservation length from the duration
	// control, e.g. "1,5 uur". ErrControlMissing if the option is not
	// offered.
	SelectDuration(ctx context.Context, label string) error
	// OpenDatePicker opens the calendar popup.
	OpenDatePicker(ctx context.Context) error
	// SetYear positions the open picker on a year. Must be called
	// before SetMonth because changing the year resets the month
	// control's options.
	SetYear(ctx context.Context, year int) error
	// SetMonth positions the open picker on a month of the currently
	// set year.
	SetMonth(ctx context.Context, month time.Month) error
	// SelectDay clicks a day cell in the positioned picker. Selecting a
	// day kicks off an asynchronous slot list refresh.
	SelectDay(ctx context.Context, sel DaySelector) error
	// ReadSlotLabels returns the raw slot labels for the selected day.
	// ErrStaleControl while the post-selection refresh is still
	// swapping the list out.
	ReadSlotLabels(ctx context.Context) ([]string, error)
	// Close releases the session. Safe to call more than once.
	Close(ctx context.Context) error
}
