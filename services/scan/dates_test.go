package scan

import (
	"testing"
	"time"

	"gymwatch-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestResolveDates(t *testing.T) {
	// 2024-09-03 is a Tuesday. Two weeks out lands on 2024-09-17 and the
	// week around it runs Mon 2024-09-16 through Sun 2024-09-22.
	today := time.Date(2024, 9, 3, 11, 30, 0, 0, timezone.Location)
	dates := ResolveDates(today, 14, watchedWindows())

	require.Len(t, dates, 4)

	require.Equal(t, "2024-09-16", dates[0].Date.Format(dateLayout))
	require.Equal(t, time.Monday, dates[0].Date.Weekday())
	require.Equal(t, "2024-09-19", dates[1].Date.Format(dateLayout))
	require.Equal(t, "2024-09-21", dates[2].Date.Format(dateLayout))
	require.Equal(t, "2024-09-22", dates[3].Date.Format(dateLayout))

	require.Len(t, dates[0].Windows, 1)
	require.Len(t, dates[3].Windows, 2)
	require.Equal(t, "14:00", dates[3].Windows[0].Start)
	require.Equal(t, "15:30", dates[3].Windows[1].Start)
}

func TestResolveDatesEveryAnchorWeekday(t *testing.T) {
	windows := watchedWindows()

	// 2024-09-02 is a Monday, walking a full week covers every weekday
	// "today" can fall on
	for offset := 0; offset < 7; offset++ {
		today := time.Date(2024, 9, 2, 8, 15, 0, 0, timezone.Location).AddDate(0, 0, offset)
		dates := ResolveDates(today, 14, windows)

		require.Len(t, dates, 4)

		monday := dates[0].Date.AddDate(0, 0, -((int(dates[0].Date.Weekday()) + 6) % 7))
		future := timezone.Midnight(today).AddDate(0, 0, 14)
		require.False(t, monday.After(future), "week must not start after today+14")
		require.False(t, monday.AddDate(0, 0, 6).Before(future), "week must contain today+14")

		earliest := timezone.Midnight(today).AddDate(0, 0, 8)
		seen := map[time.Weekday]int{}
		for _, date := range dates {
			require.False(t, date.Date.Before(earliest), "every date stays at least 8 days out")
			require.Equal(t, 0, date.Date.Hour())
			seen[date.Date.Weekday()]++
		}
		require.Equal(t, map[time.Weekday]int{
			time.Monday:   1,
			time.Thursday: 1,
			time.Saturday: 1,
			time.Sunday:   1,
		}, seen)
	}
}

func TestResolveDatesSkipsUnconfiguredWeekdays(t *testing.T) {
	windows := []TargetWindow{
		{Weekday: time.Wednesday, Start: "10:00", End: "11:00"},
	}
	today := time.Date(2024, 9, 3, 0, 0, 0, 0, timezone.Location)

	dates := ResolveDates(today, 14, windows)
	require.Len(t, dates, 1)
	require.Equal(t, "2024-09-18", dates[0].Date.Format(dateLayout))
}
