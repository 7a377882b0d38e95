package scan

import (
	"time"

	"gymwatch-backend/lib/timezone"
)

// ScanDate is one calendar date the scan will visit, paired with the
// windows configured for its weekday.
type ScanDate struct {
	Date    time.Time
	Windows []TargetWindow
}

// ResolveDates maps the recurring windows onto the week containing
// today+horizonDays. Weeks start on Monday, every weekday with at least
// one window yields exactly one date and the result is chronological.
func ResolveDates(today time.Time, horizonDays int, windows []TargetWindow) []ScanDate {
	future := timezone.Midnight(today).AddDate(0, 0, horizonDays)
	monday := future.AddDate(0, 0, -((int(future.Weekday()) + 6) % 7))

	byWeekday := map[time.Weekday][]TargetWindow{}
	for _, w := range windows {
		byWeekday[w.Weekday] = append(byWeekday[w.Weekday], w)
	}

	var dates []ScanDate
	for offset := 0; offset < 7; offset++ {
		date := monday.AddDate(0, 0, offset)
		targets := byWeekday[date.Weekday()]
		if len(targets) == 0 {
			continue
		}
		dates = append(dates, ScanDate{Date: date, Windows: targets})
	}
	return dates
}
