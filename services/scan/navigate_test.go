package scan

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gymwatch-backend/lib/booking"
	"gymwatch-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

// fakeSurface is an in-memory booking surface. Slot labels are keyed by
// ISO date, transient holds per date failure budgets served on day
// selection and stalePolls is the number of stale reads served after
// every selection before the slot list settles.
type fakeSurface struct {
	slots      map[string][]string
	transient  map[string]int
	stalePolls int
	noDuration bool
	noPicker   bool

	year     int
	month    time.Month
	selected string
	pending  int

	duration    string
	pickerOpens int
	closes      int
}

func (f *fakeSurface) SelectDuration(ctx context.Context, label string) error {
	if f.noDuration {
		return fmt.Errorf("duration dropdown: %w", booking.ErrControlMissing)
	}
	f.duration = label
	return nil
}

func (f *fakeSurface) OpenDatePicker(ctx context.Context) error {
	if f.noPicker {
		return fmt.Errorf("datepicker: %w", booking.ErrControlMissing)
	}
	f.pickerOpens++
	f.selected = ""
	return nil
}

func (f *fakeSurface) SetYear(ctx context.Context, year int) error {
	f.year = year
	return nil
}

func (f *fakeSurface) SetMonth(ctx context.Context, month time.Month) error {
	f.month = month
	return nil
}

func (f *fakeSurface) SelectDay(ctx context.Context, sel booking.DaySelector) error {
	date := fmt.Sprintf("%04d-%02d-%02d", f.year, f.month, sel.Day)
	if f.transient[date] > 0 {
		f.transient[date]--
		return fmt.Errorf("no cell for day %d in the rendered month", sel.Day)
	}
	f.selected = date
	f.pending = f.stalePolls
	return nil
}

func (f *fakeSurface) ReadSlotLabels(ctx context.Context) ([]string, error) {
	if f.selected == "" {
		return nil, fmt.Errorf("slot list: %w", booking.ErrControlMissing)
	}
	if f.pending > 0 {
		f.pending--
		return nil, fmt.Errorf("slot list: %w", booking.ErrStaleControl)
	}
	labels := f.slots[f.selected]
	if len(labels) == 0 {
		return []string{"Geen tijden beschikbaar"}, nil
	}
	return labels, nil
}

func (f *fakeSurface) Close(ctx context.Context) error {
	f.closes++
	return nil
}

func testNavigator(surface booking.Surface) navigator {
	return navigator{
		surface:       surface,
		attempts:      3,
		refreshWindow: time.Millisecond * 100,
		pollInterval:  time.Millisecond,
	}
}

func TestNavigatorReadsSlots(t *testing.T) {
	fake := &fakeSurface{
		slots:      map[string][]string{"2024-09-16": {"18:30 - 20:00", "20:00 - 21:30"}},
		stalePolls: 2,
	}
	nav := testNavigator(fake)

	result := nav.scanDay(context.Background(), time.Date(2024, 9, 16, 0, 0, 0, 0, timezone.Location))
	require.NoError(t, result.err)
	require.Equal(t, outcomeOk, result.outcome)
	require.Equal(t, []string{"18:30 - 20:00", "20:00 - 21:30"}, result.labels)
	require.Equal(t, 1, fake.pickerOpens)
}

func TestNavigatorAcceptsSettledPlaceholder(t *testing.T) {
	// a stale read followed by a clean one proves the swap landed, even
	// when the settled list is only a placeholder
	fake := &fakeSurface{stalePolls: 1}
	nav := navigator{
		surface:       fake,
		attempts:      3,
		refreshWindow: time.Second * 5,
		pollInterval:  time.Millisecond,
	}

	started := time.Now()
	result := nav.scanDay(context.Background(), time.Date(2024, 9, 21, 0, 0, 0, 0, timezone.Location))
	require.Equal(t, outcomeOk, result.outcome)
	require.Equal(t, []string{"Geen tijden beschikbaar"}, result.labels)
	require.Less(t, time.Since(started), nav.refreshWindow)
}

func TestNavigatorPlaceholderGrace(t *testing.T) {
	// without a stale signal a placeholder only list is trusted once the
	// refresh window has passed
	fake := &fakeSurface{}
	nav := testNavigator(fake)

	result := nav.scanDay(context.Background(), time.Date(2024, 9, 21, 0, 0, 0, 0, timezone.Location))
	require.Equal(t, outcomeOk, result.outcome)
	require.Equal(t, []string{"Geen tijden beschikbaar"}, result.labels)
}

func TestNavigatorRetriesTransientFailures(t *testing.T) {
	fake := &fakeSurface{
		slots:     map[string][]string{"2024-09-19": {"20:00 - 21:30"}},
		transient: map[string]int{"2024-09-19": 2},
	}
	nav := testNavigator(fake)

	result := nav.scanDay(context.Background(), time.Date(2024, 9, 19, 0, 0, 0, 0, timezone.Location))
	require.Equal(t, outcomeOk, result.outcome)
	require.Equal(t, []string{"20:00 - 21:30"}, result.labels)
	require.Equal(t, 3, fake.pickerOpens)
}

func TestNavigatorGivesUpAfterAttempts(t *testing.T) {
	fake := &fakeSurface{transient: map[string]int{"2024-09-19": 5}}
	nav := testNavigator(fake)

	result := nav.scanDay(context.Background(), time.Date(2024, 9, 19, 0, 0, 0, 0, timezone.Location))
	require.Equal(t, outcomeTransient, result.outcome)
	require.Error(t, result.err)
	require.NotErrorIs(t, result.err, booking.ErrControlMissing)
	require.Equal(t, 3, fake.pickerOpens)
	require.Equal(t, 2, fake.transient["2024-09-19"])
}

func TestNavigatorFatalOnMissingPicker(t *testing.T) {
	fake := &fakeSurface{noPicker: true}
	nav := testNavigator(fake)

	result := nav.scanDay(context.Background(), time.Date(2024, 9, 16, 0, 0, 0, 0, timezone.Location))
	require.Equal(t, outcomeFatal, result.outcome)
	require.ErrorIs(t, result.err, booking.ErrControlMissing)
	require.Equal(t, 0, fake.pickerOpens)
}

func TestNavigatorTimesOutOnEndlessStale(t *testing.T) {
	fake := &fakeSurface{
		slots:      map[string][]string{"2024-09-16": {"20:00 - 21:30"}},
		stalePolls: 1 << 30,
	}
	nav := navigator{
		surface:       fake,
		attempts:      1,
		refreshWindow: time.Millisecond * 50,
		pollInterval:  time.Millisecond,
	}

	result := nav.scanDay(context.Background(), time.Date(2024, 9, 16, 0, 0, 0, 0, timezone.Location))
	require.Equal(t, outcomeTransient, result.outcome)
	require.ErrorIs(t, result.err, booking.ErrWaitTimeout)
}
