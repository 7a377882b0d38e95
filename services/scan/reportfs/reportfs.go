// Package reportfs persists scan reports to a directory, one CSV of
// hits plus a human readable summary per run.
package reportfs

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gymwatch-backend/services/scan"

	"github.com/jedib0t/go-pretty/v6/table"
)

const (
	dateLayout  = "2006-01-02"
	stampLayout = "2006-01-02_150405"
)

type Writer struct {
	dir string
}

func NewWriter(dir string) Writer {
	return Writer{dir: dir}
}

// Write stores the report under the writer's directory, named after the
// run's start time. It returns the paths of the files it wrote.
func (w Writer) Write(report scan.Report) (csvPath string, summaryPath string, err error) {
	err = os.MkdirAll(w.dir, 0755)
	if err != nil {
		return "", "", err
	}

	stamp := report.StartedAt.Format(stampLayout)
	csvPath = filepath.Join(w.dir, fmt.Sprintf("availability_%s.csv", stamp))
	summaryPath = filepath.Join(w.dir, fmt.Sprintf("availability_%s.txt", stamp))

	err = writeCsv(csvPath, report)
	if err != nil {
		return "", "", err
	}
	err = os.WriteFile(summaryPath, []byte(Summary(report)), 0644)
	if err != nil {
		return "", "", err
	}
	return csvPath, summaryPath, nil
}

func writeCsv(path string, report scan.Report) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(file)
	err = writer.WriteAll(report.CSVRecords())
	if err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Summary renders the run as text, a table of hits followed by the
// dates that could not be checked.
func Summary(report scan.Report) string {
	var b strings.Builder

	fmt.Fprintf(
		&b, "Scan started %s, finished %s.\n",
		report.StartedAt.Format("2006-01-02 15:04:05"),
		report.FinishedAt.Format("2006-01-02 15:04:05"),
	)
	fmt.Fprintf(
		&b, "Scanned %d dates, found %d bookable windows.\n\n",
		len(report.Dates), len(report.Hits),
	)

	if len(report.Hits) > 0 {
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"date", "weekday", "start", "end"})
		for _, hit := range report.Hits {
			t.AppendRow(table.Row{
				hit.Date.Format(dateLayout),
				hit.Date.Weekday().String(),
				hit.Window.Start,
				hit.Window.End,
			})
		}
		b.WriteString(t.Render())
		b.WriteString("\n")
	} else {
		b.WriteString("No bookable windows.\n")
	}

	if len(report.Failures) > 0 {
		b.WriteString("\nFailed dates:\n")
		for _, failure := range report.Failures {
			fmt.Fprintf(
				&b, "- %s after %d attempts: %s\n",
				failure.Date.Format(dateLayout), failure.Attempts, failure.Err,
			)
		}
	}

	return b.String()
}
