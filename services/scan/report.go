package scan

import (
	"fmt"
	"strings"
	"time"

	"gymwatch-backend/lib/hitstore"
)

const dateLayout = "2006-01-02"

// Failure is a date the scan gave up on after exhausting its attempts.
type Failure struct {
	Date     time.Time
	Attempts int
	Err      error
}

// Report is the outcome of one scan run. A run that aborted fatally
// still carries everything gathered up to that point.
type Report struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Dates      []ScanDate
	Hits       []Hit
	Failures   []Failure
}

// Message renders the notification text for a run that found hits.
func (r Report) Message() string {
	var b strings.Builder
	b.WriteString("Bookable gym slots found:\n")
	for _, hit := range r.Hits {
		fmt.Fprintf(&b, "%s %s\n", hit.Date.Format("Mon 2006-01-02"), hit.Window.Label())
	}
	if len(r.Failures) > 0 {
		b.WriteString("\nSome dates could not be checked:\n")
		for _, failure := range r.Failures {
			fmt.Fprintf(&b, "%s (%d attempts)\n", failure.Date.Format("Mon 2006-01-02"), failure.Attempts)
		}
	}
	return b.String()
}

// PushRequest converts the report into the shape the hit store persists.
// A non-nil scanErr marks the stored run as fatal.
func (r Report) PushRequest(scanErr error) hitstore.PushRequest {
	push := hitstore.PushRequest{
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	if scanErr != nil {
		push.FatalError = scanErr.Error()
	}

	for _, hit := range r.Hits {
		push.Hits = append(push.Hits, hitstore.Hit{
			Date: hit.Date,
			Window: hitstore.Window{
				Start: hit.Window.Start,
				End:   hit.Window.End,
			},
		})
	}
	for _, failure := range r.Failures {
		push.Failures = append(push.Failures, hitstore.Failure{
			Date:     failure.Date,
			Attempts: failure.Attempts,
			Reason:   failure.Err.Error(),
		})
	}

	return push
}

// CSVRecords renders the hits as rows for the report file, header first.
func (r Report) CSVRecords() [][]string {
	records := [][]string{{"date", "weekday", "start", "end"}}
	for _, hit := range r.Hits {
		records = append(records, []string{
			hit.Date.Format(dateLayout),
			hit.Date.Weekday().String(),
			hit.Window.Start,
			hit.Window.End,
		})
	}
	return records
}
