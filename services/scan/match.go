package scan

import (
	"time"

	"gymwatch-backend/lib/slottext"
)

// Hit is a target window that showed up as bookable on a scanned date.
type Hit struct {
	Date   time.Time
	Window TargetWindow
}

// matchWindows compares the slot labels read from the site against the
// date's target windows. Both sides are compared on their normalized
// text so glyph and whitespace variations in the rendered list don't
// break equality.
func matchWindows(date ScanDate, labels []string) []Hit {
	available := make(map[string]bool, len(labels))
	for _, label := range labels {
		available[slottext.Normalize(label)] = true
	}

	var hits []Hit
	for _, window := range date.Windows {
		if available[slottext.Normalize(window.Start+window.End)] {
			hits = append(hits, Hit{Date: date.Date, Window: window})
		}
	}
	return hits
}
