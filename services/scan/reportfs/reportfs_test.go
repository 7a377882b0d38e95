package reportfs

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"gymwatch-backend/lib/timezone"
	"gymwatch-backend/services/scan"

	"github.com/stretchr/testify/require"
)

func testReport() scan.Report {
	monday := time.Date(2024, 9, 16, 0, 0, 0, 0, timezone.Location)
	thursday := time.Date(2024, 9, 19, 0, 0, 0, 0, timezone.Location)
	return scan.Report{
		StartedAt:  time.Date(2024, 9, 2, 7, 30, 0, 0, timezone.Location),
		FinishedAt: time.Date(2024, 9, 2, 7, 31, 12, 0, timezone.Location),
		Dates: []scan.ScanDate{
			{Date: monday},
			{Date: thursday},
		},
		Hits: []scan.Hit{
			{
				Date:   monday,
				Window: scan.TargetWindow{Weekday: time.Monday, Start: "20:00", End: "21:30"},
			},
		},
		Failures: []scan.Failure{
			{
				Date:     thursday,
				Attempts: 3,
				Err:      fmt.Errorf("slot list never settled"),
			},
		},
	}
}

func TestWrite(t *testing.T) {
	writer := NewWriter(t.TempDir())

	csvPath, summaryPath, err := writer.Write(testReport())
	require.NoError(t, err)
	require.Contains(t, csvPath, "availability_2024-09-02_073000.csv")
	require.Contains(t, summaryPath, "availability_2024-09-02_073000.txt")

	file, err := os.Open(csvPath)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"date", "weekday", "start", "end"},
		{"2024-09-16", "Monday", "20:00", "21:30"},
	}, records)

	summary, err := os.ReadFile(summaryPath)
	require.NoError(t, err)
	require.Contains(t, string(summary), "2024-09-16")
	require.Contains(t, string(summary), "Monday")
	require.Contains(t, string(summary), "2024-09-19 after 3 attempts")
}

func TestSummaryWithoutHits(t *testing.T) {
	report := testReport()
	report.Hits = nil
	report.Failures = nil

	summary := Summary(report)
	require.Contains(t, summary, "No bookable windows.")
	require.False(t, strings.Contains(summary, "Failed dates"))
}
